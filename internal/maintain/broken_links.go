package maintain

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fulmenhq/docmaint/internal/keywords"
	"github.com/fulmenhq/docmaint/pkg/config"
	"github.com/fulmenhq/docmaint/pkg/glob"
	"github.com/fulmenhq/docmaint/pkg/logger"
	"github.com/fulmenhq/docmaint/pkg/safeio"
)

const BrokenLinksName = "broken-links"

var (
	markdownLink = regexp.MustCompile(`\[([^\]]*)\]\(([^)]+)\)`)
	urlScheme    = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*:`)
)

// BrokenLinks finds relative links whose target does not exist and repairs
// them through the migration rules or a unique basename match.
type BrokenLinks struct {
	env *Env
}

// NewBrokenLinks returns the broken-links plugin.
func NewBrokenLinks(env *Env) *BrokenLinks { return &BrokenLinks{env: env} }

func (p *BrokenLinks) Name() string { return BrokenLinksName }

// Link is a parsed link target.
type Link struct {
	Raw string
	// Path is the unescaped path part, without query or fragment.
	Path string
	// Suffix holds the original "?query#fragment" tail, re-attached on rewrite.
	Suffix string
}

// ParseLink splits a link target. ok is false for external URLs, pure
// anchors and targets without a path.
func ParseLink(raw string) (Link, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") || urlScheme.MatchString(raw) {
		return Link{}, false
	}
	p := raw
	suffix := ""
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p, suffix = p[:i], p[i:]
	}
	if p == "" {
		return Link{}, false
	}
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	return Link{Raw: raw, Path: p, Suffix: suffix}, true
}

// ExtractLinks returns the distinct link targets in content, in order of first appearance.
func ExtractLinks(content string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range markdownLink.FindAllStringSubmatch(content, -1) {
		target := m[2]
		if seen[target] {
			continue
		}
		seen[target] = true
		out = append(out, target)
	}
	return out
}

func (p *BrokenLinks) files() ([]string, error) {
	cfg := p.env.Config
	files, err := glob.Glob(filepath.Join(cfg.DocsRoot, "**", "*.md"), glob.Options{
		Ignore:           cfg.DocsIgnore,
		RespectGitignore: cfg.RespectGitignore,
		Root:             cfg.Root,
	})
	if err != nil {
		return nil, err
	}
	root, err := rootMarkdown(cfg.Root)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		seen[f] = true
	}
	for _, f := range root {
		if !seen[f] {
			files = append(files, f)
		}
	}
	return files, nil
}

// resolve maps a link path to a filesystem path. Leading "/" is taken relative to the repository root.
func (p *BrokenLinks) resolve(from, linkPath string) string {
	if strings.HasPrefix(linkPath, "/") {
		return filepath.Join(p.env.Config.Root, filepath.FromSlash(linkPath))
	}
	return filepath.Join(filepath.Dir(from), filepath.FromSlash(linkPath))
}

func (p *BrokenLinks) Scan(ctx context.Context) ([]Finding, error) {
	files, err := p.files()
	if err != nil {
		return nil, err
	}
	docs, err := p.docsIndex()
	if err != nil {
		return nil, err
	}

	rules := p.env.Config.CompiledRules()

	var findings []Finding
	var errs []error
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return findings, err
		}
		data, err := safeio.ReadFileContained(p.env.Config.Root, file)
		if err != nil {
			errs = append(errs, p.env.fail(p.Name(), file, err))
			continue
		}
		for _, raw := range ExtractLinks(string(data)) {
			link, ok := ParseLink(raw)
			if !ok || safeio.Exists(p.resolve(file, link.Path)) {
				continue
			}
			f := Finding{
				Time:   p.env.now(),
				Plugin: p.Name(),
				Type:   FindingBrokenLink,
				File:   file,
				URL:    raw,
			}
			if fixed, how := p.repair(file, link, rules, docs); fixed != "" {
				f.FixedURL = fixed
				f.Fixable = true
				f.Reason = how
				p.env.found("Broken link in %s: %s (fix: %s)", p.env.rel(file), raw, fixed)
			} else {
				f.Reason = "no migration rule or unique file match"
				p.env.found("Broken link in %s: %s (needs manual review)", p.env.rel(file), raw)
			}
			findings = append(findings, f)
		}
	}
	return findings, errors.Join(errs...)
}

// docsIndex lists every file under the docs root for basename lookups.
func (p *BrokenLinks) docsIndex() ([]string, error) {
	cfg := p.env.Config
	return glob.Glob(filepath.Join(cfg.DocsRoot, "**", "*"), glob.Options{
		Ignore:           cfg.DocsIgnore,
		RespectGitignore: cfg.RespectGitignore,
		Root:             cfg.Root,
	})
}

// repair returns the replacement URL and how it was found, or "" when the link
// cannot be fixed automatically.
func (p *BrokenLinks) repair(from string, link Link, rules []config.CompiledRule, docs []string) (string, string) {
	for _, rule := range rules {
		if !rule.Re.MatchString(link.Path) {
			continue
		}
		candidate := rule.Re.ReplaceAllString(link.Path, rule.Replacement)
		if candidate != link.Path && safeio.Exists(p.resolve(from, candidate)) {
			return linkPath(candidate) + link.Suffix, "migration rule " + rule.Re.String()
		}
	}

	match := p.uniqueBasename(path.Base(link.Path), docs)
	if match == "" {
		return "", ""
	}
	rel, err := filepath.Rel(filepath.Dir(from), match)
	if err != nil {
		return "", ""
	}
	return linkPath(filepath.ToSlash(rel)) + link.Suffix, "unique file match"
}

// uniqueBasename returns the single docs file named base, also accepting the
// name the naming convention gives base in that file's directory. It returns
// "" for zero or several matches.
func (p *BrokenLinks) uniqueBasename(base string, docs []string) string {
	if base == "" || base == "." || base == "/" || base == ".." {
		return ""
	}
	match := ""
	for _, d := range docs {
		name := filepath.Base(d)
		if name != base && name != CorrectName(base, p.categoryOf(filepath.Dir(d))) {
			continue
		}
		if match != "" {
			return ""
		}
		match = d
	}
	return match
}

// categoryOf returns the category directory containing dir, or "" when dir is
// outside every category.
func (p *BrokenLinks) categoryOf(dir string) keywords.Category {
	rel, err := filepath.Rel(p.env.Config.DocsRoot, dir)
	if err != nil {
		return ""
	}
	rel = filepath.ToSlash(rel)
	for _, c := range keywords.AllCategories() {
		if rel == string(c) || strings.HasPrefix(rel, string(c)+"/") {
			return c
		}
	}
	return ""
}

func (p *BrokenLinks) Fix(ctx context.Context, findings []Finding) ([]Change, error) {
	var order []string
	byFile := make(map[string][]Finding)
	for _, f := range findings {
		if _, ok := byFile[f.File]; !ok {
			order = append(order, f.File)
		}
		byFile[f.File] = append(byFile[f.File], f)
	}

	var changes []Change
	var errs []error
	for _, file := range order {
		if err := ctx.Err(); err != nil {
			return changes, err
		}
		fileChanges, err := p.fixFile(file, byFile[file])
		if err != nil {
			errs = append(errs, p.env.fail(p.Name(), file, err))
			continue
		}
		changes = append(changes, fileChanges...)
	}
	return changes, errors.Join(errs...)
}

func (p *BrokenLinks) fixFile(file string, findings []Finding) ([]Change, error) {
	data, err := safeio.ReadFileContained(p.env.Config.Root, file)
	if err != nil {
		return nil, err
	}
	content := string(data)

	var changes []Change
	for _, f := range findings {
		if !f.Fixable {
			p.env.skip("Cannot fix %s in %s, manual review needed", f.URL, p.env.rel(file))
			continue
		}
		old := "](" + f.URL + ")"
		if !strings.Contains(content, old) {
			continue
		}
		change := Change{
			Time:      p.env.now(),
			Plugin:    p.Name(),
			Type:      ChangeLinkFixed,
			File:      file,
			OldValue:  f.URL,
			NewValue:  f.FixedURL,
			Simulated: p.env.DryRun(),
		}
		if p.env.DryRun() {
			p.env.skip("[dry-run] would rewrite %s → %s in %s", f.URL, f.FixedURL, p.env.rel(file))
			logger.Info("would fix link", logger.String("file", file), logger.String("from", f.URL), logger.String("to", f.FixedURL))
		} else {
			content = strings.ReplaceAll(content, old, "]("+f.FixedURL+")")
			p.env.fixed("Fixed link in %s: %s → %s", p.env.rel(file), f.URL, f.FixedURL)
		}
		changes = append(changes, change)
	}

	if p.env.DryRun() || content == string(data) {
		return changes, nil
	}
	if err := safeio.WriteFilePreservePerms(file, []byte(content)); err != nil {
		return nil, err
	}
	return changes, nil
}

func (p *BrokenLinks) Report(findings []Finding, changes []Change) string {
	if len(findings) == 0 && len(changes) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("## 🔗 Broken Links\n\n")
	fmt.Fprintf(&sb, "%d broken link(s) found, %d fixed, %d need manual review.\n\n",
		len(findings), StatsOf(findings, changes).Changes, unfixableLinks(findings))

	if len(changes) > 0 {
		sb.WriteString("| File | Old link | New link |\n")
		sb.WriteString("|------|----------|----------|\n")
		for _, c := range changes {
			newLink := "`" + c.NewValue + "`"
			if c.Simulated {
				newLink += " _(dry-run)_"
			}
			fmt.Fprintf(&sb, "| `%s` | `%s` | %s |\n", p.env.rel(c.File), c.OldValue, newLink)
		}
		sb.WriteString("\n")
	}

	if unfixableLinks(findings) > 0 {
		sb.WriteString("**Needs manual review:**\n\n")
		for _, f := range findings {
			if !f.Fixable {
				fmt.Fprintf(&sb, "- `%s`: `%s`\n", p.env.rel(f.File), f.URL)
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func unfixableLinks(findings []Finding) int {
	n := 0
	for _, f := range findings {
		if f.Type == FindingBrokenLink && !f.Fixable {
			n++
		}
	}
	return n
}

// linkPath escapes a slash-separated path for use as a Markdown link target.
// Plain paths are returned as-is.
func linkPath(p string) string {
	if !strings.ContainsAny(p, " ()<>%") {
		return p
	}
	segs := strings.Split(p, "/")
	for i, s := range segs {
		if s != "." && s != ".." {
			segs[i] = url.PathEscape(s)
		}
	}
	return strings.Join(segs, "/")
}
