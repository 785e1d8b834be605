/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/

// Package maintain runs the documentation maintenance plugins and renders
// their results as a Markdown report.
package maintain

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fulmenhq/docmaint/internal/categorize"
	"github.com/fulmenhq/docmaint/internal/keywords"
	"github.com/fulmenhq/docmaint/pkg/config"
	"github.com/fulmenhq/docmaint/pkg/logger"
)

// FindingType tags what a plugin observed.
type FindingType string

const (
	FindingSourceFile      FindingType = "source_file"
	FindingOrphanedRoot    FindingType = "orphaned_root_file"
	FindingMissingAgentMD  FindingType = "missing_agent_md"
	FindingMissingReadmeMD FindingType = "missing_readme_md"
	FindingNamingViolation FindingType = "naming_violation"
	FindingBrokenLink      FindingType = "broken_link"
)

// ChangeType tags a mutation.
type ChangeType string

const (
	ChangeMoved     ChangeType = "moved"
	ChangeRenamed   ChangeType = "renamed"
	ChangeCreated   ChangeType = "created"
	ChangeLinkFixed ChangeType = "link_fixed"
)

// Finding is one problem detected by Scan. Only the fields relevant to Type are set.
type Finding struct {
	Time   time.Time   `json:"time"`
	Plugin string      `json:"plugin"`
	Type   FindingType `json:"type"`
	File   string      `json:"file"`

	// relocation
	Target     string                `json:"target,omitempty"`
	Category   keywords.Category     `json:"category,omitempty"`
	Confidence categorize.Confidence `json:"confidence,omitempty"`
	Method     categorize.Method     `json:"method,omitempty"`
	Reason     string                `json:"reason,omitempty"`

	// naming
	OldName string `json:"old_name,omitempty"`
	NewName string `json:"new_name,omitempty"`

	// missing files
	Dir string `json:"dir,omitempty"`

	// links
	URL      string `json:"url,omitempty"`
	FixedURL string `json:"fixed_url,omitempty"`
	Fixable  bool   `json:"fixable,omitempty"`
}

// Change is one mutation produced by Fix from a single Finding. Simulated
// changes were computed in dry-run mode and never touched the filesystem.
type Change struct {
	Time       time.Time             `json:"time"`
	Plugin     string                `json:"plugin"`
	Type       ChangeType            `json:"type"`
	File       string                `json:"file,omitempty"`
	From       string                `json:"from,omitempty"`
	To         string                `json:"to,omitempty"`
	OldValue   string                `json:"old_value,omitempty"`
	NewValue   string                `json:"new_value,omitempty"`
	Category   keywords.Category     `json:"category,omitempty"`
	Confidence categorize.Confidence `json:"confidence,omitempty"`
	Simulated  bool                  `json:"simulated,omitempty"`
}

// Plugin is one maintenance task. Implementations hold only configuration,
// so one value can serve any number of runs.
type Plugin interface {
	Name() string
	// Scan reports problems without touching the filesystem.
	Scan(ctx context.Context) ([]Finding, error)
	// Fix applies the mutation implied by each finding. Per-item failures are
	// logged and joined into the returned error; successful changes are still returned.
	Fix(ctx context.Context, findings []Finding) ([]Change, error)
	// Report renders the plugin's Markdown section. It must be pure.
	Report(findings []Finding, changes []Change) string
}

// Stats summarizes one plugin's results.
type Stats struct {
	Findings  int `json:"findings"`
	Changes   int `json:"changes"`
	Simulated int `json:"simulated"`
}

// StatsOf counts findings and changes, keeping simulated changes apart.
func StatsOf(findings []Finding, changes []Change) Stats {
	s := Stats{Findings: len(findings)}
	for _, c := range changes {
		if c.Simulated {
			s.Simulated++
		} else {
			s.Changes++
		}
	}
	return s
}

// Env is the shared run environment handed to every plugin.
type Env struct {
	Config *config.Config
	// Out receives the emoji-prefixed progress lines.
	Out io.Writer
	Now func() time.Time

	categorizer *categorize.Categorizer
}

// NewEnv builds an Env for a resolved configuration. A nil out discards console output.
func NewEnv(cfg *config.Config, out io.Writer) *Env {
	if out == nil {
		out = io.Discard
	}
	return &Env{
		Config:      cfg,
		Out:         out,
		Now:         time.Now,
		categorizer: categorize.New(cfg.DocsRoot, cfg.Tables()),
	}
}

// DryRun reports whether mutations must be simulated.
func (e *Env) DryRun() bool { return e.Config.DryRun }

func (e *Env) now() time.Time {
	if e.Now == nil {
		return time.Now().UTC()
	}
	return e.Now().UTC()
}

// rel shortens path for console and report output.
func (e *Env) rel(path string) string {
	r, err := filepath.Rel(e.Config.Root, path)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(r)
}

func (e *Env) found(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(e.Out, "🔍 "+format+"\n", args...)
}

func (e *Env) fixed(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(e.Out, "✅ "+format+"\n", args...)
}

// skip reports an operation that was not performed, either because of
// dry-run or because it needs a human.
func (e *Env) skip(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(e.Out, "⏭️  "+format+"\n", args...)
}

// fail logs a per-item error and returns it wrapped with the path.
func (e *Env) fail(plugin, path string, err error) error {
	_, _ = fmt.Fprintf(e.Out, "❌ %s: %v\n", e.rel(path), err)
	logger.Error("maintenance step failed",
		logger.String("plugin", plugin),
		logger.String("path", path),
		logger.Err(err))
	return fmt.Errorf("%s: %w", path, err)
}

// countErrors reports how many per-item failures err carries.
func countErrors(err error) int {
	if err == nil {
		return 0
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return len(joined.Unwrap())
	}
	return 1
}

// writeFile is the single write path for generated and rewritten documents.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
