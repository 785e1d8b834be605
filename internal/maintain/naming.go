package maintain

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fulmenhq/docmaint/internal/keywords"
	"github.com/fulmenhq/docmaint/pkg/glob"
	"github.com/fulmenhq/docmaint/pkg/logger"
	"github.com/fulmenhq/docmaint/pkg/safeio"
)

const NameConventionName = "name-convention"

// requiredPrefixes lists the accepted prefixes per directory; the first one
// is added when a file carries none of them.
var requiredPrefixes = map[keywords.Category][]string{
	keywords.SystemDesign:    {"design-"},
	keywords.SystemExecution: {"execution-", "debug-", "realign-"},
	keywords.SystemAsBuilts:  {"as-built-"},
	keywords.SystemPlans:     {"plan-"},
}

var (
	separatorRun = regexp.MustCompile(`[\s_]+`)
	dashRun      = regexp.MustCompile(`-{2,}`)
)

// exemptName reports names the convention never touches.
func exemptName(name string) bool {
	return strings.EqualFold(name, "README.md") ||
		strings.EqualFold(name, "AGENT.md") ||
		strings.HasPrefix(name, "INDEX-")
}

// CorrectName returns the conventional file name for name inside category.
// The result is stable: CorrectName(CorrectName(n, c), c) == CorrectName(n, c).
// Names that normalize to nothing are returned unchanged.
func CorrectName(name string, category keywords.Category) string {
	if exemptName(name) {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	base = strings.ToLower(base)
	base = separatorRun.ReplaceAllString(base, "-")
	base = dashRun.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")
	if base == "" {
		return name
	}

	if prefixes, ok := requiredPrefixes[category]; ok && !hasAnyPrefix(base, prefixes) {
		base = prefixes[0] + base
	}

	if category.Tree() == keywords.TreeUser {
		for {
			stripped := trimAnyPrefix(base, keywords.SystemPrefixes())
			if stripped == base || stripped == "" {
				break
			}
			base = stripped
		}
	}

	return base + strings.ToLower(ext)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func trimAnyPrefix(s string, prefixes []string) string {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return strings.TrimPrefix(s, p)
		}
	}
	return s
}

// NameConvention renames markdown files in category directories to the
// naming rules of that directory.
type NameConvention struct {
	env *Env
}

// NewNameConvention returns the name-convention plugin.
func NewNameConvention(env *Env) *NameConvention { return &NameConvention{env: env} }

func (p *NameConvention) Name() string { return NameConventionName }

func (p *NameConvention) Scan(ctx context.Context) ([]Finding, error) {
	cfg := p.env.Config
	var findings []Finding
	for _, cat := range keywords.AllCategories() {
		if err := ctx.Err(); err != nil {
			return findings, err
		}
		dir := filepath.Join(cfg.DocsRoot, filepath.FromSlash(string(cat)))
		if !safeio.IsDir(dir) {
			continue
		}
		files, err := glob.Glob(filepath.Join(dir, "**", "*"), glob.Options{
			Ignore:           cfg.DocsIgnore,
			RespectGitignore: cfg.RespectGitignore,
			Root:             cfg.Root,
		})
		if err != nil {
			return findings, err
		}
		for _, f := range files {
			name := filepath.Base(f)
			if !strings.EqualFold(filepath.Ext(name), ".md") {
				continue
			}
			corrected := CorrectName(name, cat)
			if corrected == name {
				continue
			}
			findings = append(findings, Finding{
				Time:     p.env.now(),
				Plugin:   p.Name(),
				Type:     FindingNamingViolation,
				File:     f,
				Dir:      filepath.Dir(f),
				Category: cat,
				OldName:  name,
				NewName:  corrected,
			})
			p.env.found("%s should be named %s", p.env.rel(f), corrected)
		}
	}
	return findings, nil
}

func (p *NameConvention) Fix(ctx context.Context, findings []Finding) ([]Change, error) {
	var changes []Change
	var errs []error
	for _, f := range findings {
		if err := ctx.Err(); err != nil {
			return changes, err
		}
		dst := filepath.Join(f.Dir, f.NewName)
		change := Change{
			Time:     p.env.now(),
			Plugin:   p.Name(),
			Type:     ChangeRenamed,
			File:     f.File,
			From:     f.File,
			To:       dst,
			OldValue: f.OldName,
			NewValue: f.NewName,
			Category: f.Category,
		}

		if p.env.DryRun() {
			if taken(f.File, dst) {
				p.skipTaken(f, dst)
				continue
			}
			change.Simulated = true
			p.env.skip("[dry-run] would rename %s → %s", p.env.rel(f.File), f.NewName)
			logger.Info("would rename file", logger.String("from", f.File), logger.String("to", dst))
			changes = append(changes, change)
			continue
		}

		if err := safeio.RenameNoClobber(f.File, dst); err != nil {
			if errors.Is(err, safeio.ErrDestinationExists) {
				p.skipTaken(f, dst)
				continue
			}
			errs = append(errs, p.env.fail(p.Name(), f.File, err))
			continue
		}
		p.env.fixed("Renamed %s → %s", p.env.rel(f.File), f.NewName)
		changes = append(changes, change)
	}
	return changes, errors.Join(errs...)
}

func (p *NameConvention) skipTaken(f Finding, dst string) {
	p.env.skip("%s already exists, not renaming %s", p.env.rel(dst), p.env.rel(f.File))
	logger.Warn("rename target exists", logger.String("from", f.File), logger.String("to", dst))
}

// taken mirrors safeio.RenameNoClobber's collision rule for dry runs.
func taken(src, dst string) bool {
	return safeio.Exists(dst) && !strings.EqualFold(src, dst)
}

func (p *NameConvention) Report(findings []Finding, changes []Change) string {
	if len(findings) == 0 && len(changes) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("## ✏️ Naming Convention Fixes\n\n")
	fmt.Fprintf(&sb, "%d violation(s) found, %d renamed.\n\n", len(findings), StatsOf(findings, changes).Changes)

	done := make(map[string]Change, len(changes))
	for _, c := range changes {
		done[c.From] = c
	}
	sb.WriteString("| Directory | Before | After | Status |\n")
	sb.WriteString("|-----------|--------|-------|--------|\n")
	for _, f := range findings {
		status := "skipped (target exists)"
		if c, ok := done[f.File]; ok {
			status = "renamed"
			if c.Simulated {
				status = "dry-run"
			}
		}
		fmt.Fprintf(&sb, "| `%s` | `%s` | `%s` | %s |\n", p.env.rel(f.Dir), f.OldName, f.NewName, status)
	}
	sb.WriteString("\n")
	return sb.String()
}
