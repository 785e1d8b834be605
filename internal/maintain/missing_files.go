package maintain

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aymerick/raymond"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fulmenhq/docmaint/internal/keywords"
	"github.com/fulmenhq/docmaint/pkg/logger"
	"github.com/fulmenhq/docmaint/pkg/safeio"
)

const MissingFilesName = "missing-files"

const (
	agentFile  = "AGENT.md"
	readmeFile = "README.md"
)

// dirPurpose describes each known documentation directory, keyed by its path
// relative to the docs root.
var dirPurpose = map[string]string{
	keywords.TreeSystem:              "Internal engineering documentation: design, execution logs, as-built records, plans, vision and roadmap.",
	keywords.TreeUser:                "User-facing documentation: feature descriptions, guides and API reference.",
	string(keywords.SystemDesign):    "Design documents describing intended architecture and decisions before implementation.",
	string(keywords.SystemExecution): "Execution logs, debugging sessions and realignment notes written while work is in progress.",
	string(keywords.SystemAsBuilts):  "As-built records describing what was actually implemented and how it differs from the design.",
	string(keywords.SystemPlans):     "Plans and plan indexes for upcoming work.",
	string(keywords.SystemVision):    "Long-term product and technical vision.",
	string(keywords.SystemRoadmap):   "Roadmaps and milestone sequencing.",
	string(keywords.UserFeatures):    "Descriptions of product features from the user's point of view.",
	string(keywords.UserGuides):      "Step-by-step guides and tutorials.",
	string(keywords.UserAPI):         "API reference: endpoints, payloads and examples.",
}

var titler = cases.Title(language.Und)

const systemAgentTemplate = `# AGENT.md - {{{title}}}

## Purpose

{{{purpose}}}

## Audience

Engineers and automation working on this codebase. Content here is internal.

## Conventions

{{#if prefix}}
- File names start with ` + "`{{{prefix}}}`" + ` and use lowercase words separated by dashes.
{{else}}
- File names use lowercase words separated by dashes.
{{/if}}
- Add frontmatter with a ` + "`type`" + ` field so documents are filed automatically.
- Keep README.md in this directory up to date when adding documents.
`

const userAgentTemplate = `# AGENT.md - {{{title}}}

## Purpose

{{{purpose}}}

## Audience

Users of the product. Write for readers who do not know the internals.

## Conventions

- File names use lowercase words separated by dashes, without internal prefixes such as ` + "`design-`" + `.
- Prefer task-oriented headings and short examples.
- Keep README.md in this directory up to date when adding documents.
`

const readmeTemplate = `# {{{title}}}

{{{purpose}}}
{{#if files}}

## Documents

{{#each files}}
- [{{{name}}}](./{{{link}}}){{#if heading}} - {{{heading}}}{{/if}}
{{/each}}
{{/if}}
{{#if dirs}}

## Sections

{{#each dirs}}
- [{{{name}}}/](./{{{link}}}/)
{{/each}}
{{/if}}
`

// MissingFiles creates AGENT.md and README.md in documentation directories
// that lack them.
type MissingFiles struct {
	env *Env
}

// NewMissingFiles returns the missing-files plugin.
func NewMissingFiles(env *Env) *MissingFiles { return &MissingFiles{env: env} }

func (p *MissingFiles) Name() string { return MissingFilesName }

// knownDirs lists the docs-relative directories checked, in a stable order.
func knownDirs() []string {
	dirs := []string{keywords.TreeSystem, keywords.TreeUser}
	for _, c := range keywords.AllCategories() {
		if c != keywords.Orphaned {
			dirs = append(dirs, string(c))
		}
	}
	return dirs
}

func (p *MissingFiles) Scan(ctx context.Context) ([]Finding, error) {
	var findings []Finding
	for _, rel := range knownDirs() {
		if err := ctx.Err(); err != nil {
			return findings, err
		}
		dir := filepath.Join(p.env.Config.DocsRoot, filepath.FromSlash(rel))
		if !safeio.IsDir(dir) {
			continue
		}
		for _, name := range []string{agentFile, readmeFile} {
			path := filepath.Join(dir, name)
			if safeio.Exists(path) {
				continue
			}
			typ := FindingMissingAgentMD
			if name == readmeFile {
				typ = FindingMissingReadmeMD
			}
			f := Finding{
				Time:   p.env.now(),
				Plugin: p.Name(),
				Type:   typ,
				File:   path,
				Dir:    dir,
			}
			if keywords.IsCategory(keywords.Category(rel)) {
				f.Category = keywords.Category(rel)
			}
			findings = append(findings, f)
			p.env.found("Missing %s in %s", name, p.env.rel(dir))
		}
	}
	return findings, nil
}

func (p *MissingFiles) Fix(ctx context.Context, findings []Finding) ([]Change, error) {
	var changes []Change
	var errs []error
	for _, f := range findings {
		if err := ctx.Err(); err != nil {
			return changes, err
		}
		rel, err := filepath.Rel(p.env.Config.DocsRoot, f.Dir)
		if err != nil {
			errs = append(errs, p.env.fail(p.Name(), f.File, err))
			continue
		}
		rel = filepath.ToSlash(rel)

		var content string
		switch f.Type {
		case FindingMissingAgentMD:
			content, err = renderAgent(rel)
		case FindingMissingReadmeMD:
			content, err = renderReadme(f.Dir, rel)
		default:
			continue
		}
		if err != nil {
			errs = append(errs, p.env.fail(p.Name(), f.File, err))
			continue
		}

		change := Change{
			Time:     p.env.now(),
			Plugin:   p.Name(),
			Type:     ChangeCreated,
			File:     f.File,
			To:       f.File,
			Category: f.Category,
		}
		if p.env.DryRun() {
			change.Simulated = true
			p.env.skip("[dry-run] would create %s", p.env.rel(f.File))
			logger.Info("would create file", logger.String("path", f.File))
			changes = append(changes, change)
			continue
		}
		if safeio.Exists(f.File) {
			p.env.skip("%s appeared since scan, leaving it alone", p.env.rel(f.File))
			continue
		}
		if err := writeFile(f.File, []byte(content)); err != nil {
			errs = append(errs, p.env.fail(p.Name(), f.File, err))
			continue
		}
		p.env.fixed("Created %s", p.env.rel(f.File))
		changes = append(changes, change)
	}
	return changes, errors.Join(errs...)
}

func (p *MissingFiles) Report(findings []Finding, changes []Change) string {
	if len(findings) == 0 && len(changes) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("## 📄 Missing Files Created\n\n")
	fmt.Fprintf(&sb, "%d missing file(s), %d created.\n\n", len(findings), StatsOf(findings, changes).Changes)

	created := make(map[string]bool, len(changes))
	for _, c := range changes {
		created[c.To] = !c.Simulated
	}
	for _, f := range findings {
		mark := "⏭️"
		if created[f.File] {
			mark = "✅"
		}
		fmt.Fprintf(&sb, "- %s `%s`\n", mark, p.env.rel(f.File))
	}
	sb.WriteString("\n")
	return sb.String()
}

func dirTitle(rel string) string {
	return titler.String(strings.ReplaceAll(filepath.Base(filepath.FromSlash(rel)), "-", " "))
}

func renderAgent(rel string) (string, error) {
	tpl := systemAgentTemplate
	if keywords.Category(rel).Tree() == keywords.TreeUser {
		tpl = userAgentTemplate
	}
	prefix := ""
	if prefixes, ok := requiredPrefixes[keywords.Category(rel)]; ok {
		prefix = prefixes[0]
	}
	return raymond.Render(tpl, map[string]interface{}{
		"title":   dirTitle(rel),
		"purpose": dirPurpose[rel],
		"prefix":  prefix,
	})
}

func renderReadme(dir, rel string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var files []map[string]string
	var dirs []map[string]string
	for _, e := range entries {
		name := e.Name()
		switch {
		case e.IsDir():
			if !strings.HasPrefix(name, ".") {
				dirs = append(dirs, map[string]string{"name": name, "link": linkPath(name)})
			}
		case e.Type().IsRegular() && strings.EqualFold(filepath.Ext(name), ".md"):
			if strings.EqualFold(name, readmeFile) || strings.EqualFold(name, agentFile) {
				continue
			}
			files = append(files, map[string]string{
				"name":    name,
				"link":    linkPath(name),
				"heading": firstHeading(filepath.Join(dir, name)),
			})
		}
	}
	return raymond.Render(readmeTemplate, map[string]interface{}{
		"title":   dirTitle(rel),
		"purpose": dirPurpose[rel],
		"files":   files,
		"dirs":    dirs,
	})
}

// firstHeading returns the text of the first "# " line, or "" when there is none
// or the file cannot be read.
func firstHeading(path string) string {
	f, err := os.Open(path) // #nosec G304 -- path is a directory entry under the docs root
	if err != nil {
		return ""
	}
	defer func() { _ = f.Close() }()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}
