package maintain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fulmenhq/docmaint/internal/categorize"
	"github.com/fulmenhq/docmaint/internal/keywords"
	"github.com/fulmenhq/docmaint/pkg/glob"
	"github.com/fulmenhq/docmaint/pkg/logger"
	"github.com/fulmenhq/docmaint/pkg/safeio"
)

const (
	SourceScannerName = "source-file-scanner"
	OrphanedRootName  = "orphaned-root-files"
)

// SourceScanner relocates markdown found under the source directory into the docs tree.
type SourceScanner struct {
	env *Env
}

// NewSourceScanner returns the source-file-scanner plugin.
func NewSourceScanner(env *Env) *SourceScanner { return &SourceScanner{env: env} }

func (p *SourceScanner) Name() string { return SourceScannerName }

func (p *SourceScanner) Scan(ctx context.Context) ([]Finding, error) {
	cfg := p.env.Config
	files, err := glob.Glob(filepath.Join(cfg.SourceDir, "**", "*.md"), glob.Options{
		Ignore:           cfg.SourceIgnore,
		RespectGitignore: cfg.RespectGitignore,
		Root:             cfg.Root,
	})
	if err != nil {
		return nil, err
	}
	return categorizeAll(ctx, p.env, p.Name(), FindingSourceFile, files)
}

func (p *SourceScanner) Fix(ctx context.Context, findings []Finding) ([]Change, error) {
	return relocate(ctx, p.env, p.Name(), findings)
}

func (p *SourceScanner) Report(findings []Finding, changes []Change) string {
	return relocationReport(p.env.rel, "📦 Source Files Relocated", "Markdown found in the source tree", findings, changes)
}

// OrphanedRoot relocates stray markdown at the repository root. Allow-listed
// names and dotfiles stay put.
type OrphanedRoot struct {
	env *Env
}

// NewOrphanedRoot returns the orphaned-root-files plugin.
func NewOrphanedRoot(env *Env) *OrphanedRoot { return &OrphanedRoot{env: env} }

func (p *OrphanedRoot) Name() string { return OrphanedRootName }

func (p *OrphanedRoot) Scan(ctx context.Context) ([]Finding, error) {
	files, err := rootMarkdown(p.env.Config.Root)
	if err != nil {
		return nil, err
	}
	kept := files[:0]
	for _, f := range files {
		name := filepath.Base(f)
		if strings.HasPrefix(name, ".") || glob.MatchAnyFold(p.env.Config.RootAllowlist, name) {
			continue
		}
		kept = append(kept, f)
	}
	return categorizeAll(ctx, p.env, p.Name(), FindingOrphanedRoot, kept)
}

func (p *OrphanedRoot) Fix(ctx context.Context, findings []Finding) ([]Change, error) {
	return relocate(ctx, p.env, p.Name(), findings)
}

func (p *OrphanedRoot) Report(findings []Finding, changes []Change) string {
	return relocationReport(p.env.rel, "🗂️ Orphaned Root Files Relocated", "Markdown files outside the allow-list at the repository root", findings, changes)
}

// rootMarkdown lists regular *.md files directly inside root, sorted by name.
func rootMarkdown(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read root %s: %w", root, err)
	}
	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		out = append(out, filepath.Join(root, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func categorizeAll(ctx context.Context, env *Env, plugin string, typ FindingType, files []string) ([]Finding, error) {
	var findings []Finding
	var errs []error
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return findings, err
		}
		res, err := env.categorizer.Categorize(f)
		if err != nil {
			errs = append(errs, env.fail(plugin, f, err))
			continue
		}
		findings = append(findings, Finding{
			Time:       env.now(),
			Plugin:     plugin,
			Type:       typ,
			File:       f,
			Target:     res.Target,
			Category:   res.Category,
			Confidence: res.Confidence,
			Method:     res.Method,
			Reason:     res.Reason,
		})
		env.found("%s → %s (%s, %s)", env.rel(f), res.Category, res.Confidence, res.Reason)
	}
	return findings, errors.Join(errs...)
}

// relocate moves each finding's file into its target directory. Name
// collisions get a timestamp suffix; nothing is overwritten.
func relocate(ctx context.Context, env *Env, plugin string, findings []Finding) ([]Change, error) {
	var changes []Change
	var errs []error
	// destinations already promised to earlier simulated moves
	planned := make(map[string]bool)
	taken := func(path string) bool { return planned[path] || safeio.Exists(path) }
	for _, f := range findings {
		if err := ctx.Err(); err != nil {
			return changes, err
		}
		at := env.now()
		change := Change{
			Time:       at,
			Plugin:     plugin,
			Type:       ChangeMoved,
			File:       f.File,
			From:       f.File,
			Category:   f.Category,
			Confidence: f.Confidence,
		}

		if env.DryRun() {
			change.To = safeio.MoveDestination(f.File, f.Target, at, taken)
			planned[change.To] = true
			change.Simulated = true
			env.skip("[dry-run] would move %s → %s", env.rel(f.File), env.rel(change.To))
			logger.Info("would move file", logger.String("from", f.File), logger.String("to", change.To))
			changes = append(changes, change)
			continue
		}

		dst, err := safeio.MoveIntoDir(f.File, f.Target, at)
		if err != nil {
			errs = append(errs, env.fail(plugin, f.File, err))
			continue
		}
		change.To = dst
		env.fixed("Moved %s → %s", env.rel(f.File), env.rel(dst))
		logger.Debug("moved file", logger.String("from", f.File), logger.String("to", dst))
		changes = append(changes, change)
	}
	return changes, errors.Join(errs...)
}

func relocationReport(rel func(string) string, title, scope string, findings []Finding, changes []Change) string {
	if len(findings) == 0 && len(changes) == 0 {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", title)
	fmt.Fprintf(&sb, "%s: %d found, %d moved.\n\n", scope, len(findings), StatsOf(findings, changes).Changes)

	if len(changes) > 0 {
		sb.WriteString("| File | Destination | Category | Confidence |\n")
		sb.WriteString("|------|-------------|----------|------------|\n")
		for _, c := range changes {
			to := "`" + rel(c.To) + "`"
			if c.Simulated {
				to += " _(dry-run)_"
			}
			fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n", rel(c.From), to, c.Category, c.Confidence)
		}
		sb.WriteString("\n")
	}

	var review []Finding
	for _, f := range findings {
		if f.Confidence == categorize.Low {
			review = append(review, f)
		}
	}
	if len(review) > 0 {
		sb.WriteString("**Needs manual review** (low confidence, moved to `" + string(keywords.Orphaned) + "`):\n\n")
		for _, f := range review {
			fmt.Fprintf(&sb, "- `%s`: %s\n", rel(f.File), f.Reason)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
