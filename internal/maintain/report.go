package maintain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fulmenhq/docmaint/internal/categorize"
	"github.com/fulmenhq/docmaint/internal/gitctx"
	"github.com/fulmenhq/docmaint/internal/keywords"
)

// NoIssuesText replaces the summary when a run found and changed nothing.
const NoIssuesText = "✅ No documentation issues found. Everything is organized and up to date."

// PluginResult is the outcome of one plugin in a run.
type PluginResult struct {
	Plugin   Plugin
	Findings []Finding
	Changes  []Change
	// Err joins every failure the plugin reported; Errors counts them.
	Err    error
	Errors int
}

// Name returns the plugin name.
func (r PluginResult) Name() string { return r.Plugin.Name() }

// Stats returns the finding and change counts.
func (r PluginResult) Stats() Stats { return StatsOf(r.Findings, r.Changes) }

// Report aggregates a run into Markdown.
type Report struct {
	Results     []PluginResult
	Context     gitctx.RunContext
	GeneratedAt time.Time
	DryRun      bool
}

// HasChanges reports whether any plugin changed the filesystem. Simulated
// changes do not count.
func (r *Report) HasChanges() bool {
	for _, res := range r.Results {
		if res.Stats().Changes > 0 {
			return true
		}
	}
	return false
}

// Totals sums the stats of every plugin.
func (r *Report) Totals() Stats {
	var t Stats
	for _, res := range r.Results {
		s := res.Stats()
		t.Findings += s.Findings
		t.Changes += s.Changes
		t.Simulated += s.Simulated
	}
	return t
}

// Errors returns the total number of per-item and plugin failures.
func (r *Report) Errors() int {
	n := 0
	for _, res := range r.Results {
		n += res.Errors
	}
	return n
}

// ManualReview counts low-confidence findings plus broken links that could
// not be fixed automatically.
func (r *Report) ManualReview() int {
	n := 0
	for _, res := range r.Results {
		for _, f := range res.Findings {
			if f.Confidence == categorize.Low {
				n++
			}
		}
		n += unfixableLinks(res.Findings)
	}
	return n
}

// Generate renders the full report: header, plugin sections, summary.
func (r *Report) Generate() string {
	var sb strings.Builder
	r.writeHeader(&sb)

	for _, res := range r.Results {
		section := res.Plugin.Report(res.Findings, res.Changes)
		if section != "" {
			sb.WriteString(section)
			if !strings.HasSuffix(section, "\n") {
				sb.WriteString("\n")
			}
		}
		if res.Err != nil {
			fmt.Fprintf(&sb, "> ⚠️ **%s** reported %d error(s): %s\n\n", res.Name(), res.Errors, oneLine(res.Err.Error()))
		}
	}

	sb.WriteString("## Summary\n\n")
	totals := r.Totals()
	// The placeholder means nothing at all happened; simulated changes and errors keep the summary.
	if totals.Findings == 0 && totals.Changes == 0 && totals.Simulated == 0 && r.Errors() == 0 {
		sb.WriteString(NoIssuesText + "\n")
		return sb.String()
	}
	r.writeSummary(&sb, totals)
	return sb.String()
}

func (r *Report) writeHeader(sb *strings.Builder) {
	sb.WriteString("# 📚 Documentation Maintenance Report\n\n")
	fmt.Fprintf(sb, "**Generated:** %s\n", r.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(sb, "**Triggered by:** %s\n", r.Context.Actor)
	if r.Context.Branch != "" {
		fmt.Fprintf(sb, "**Branch:** %s\n", r.Context.Branch)
	}
	if r.Context.SHA != "" {
		fmt.Fprintf(sb, "**Commit:** %s\n", r.Context.ShortSHA())
	}
	mode := "live"
	if r.DryRun {
		mode = "dry-run (no files were changed)"
	}
	fmt.Fprintf(sb, "**Mode:** %s\n\n---\n\n", mode)
}

func (r *Report) writeSummary(sb *strings.Builder, totals Stats) {
	sb.WriteString("| Plugin | Findings | Changes | Errors |\n")
	sb.WriteString("|--------|----------|---------|--------|\n")
	for _, res := range r.Results {
		s := res.Stats()
		changes := fmt.Sprintf("%d", s.Changes)
		if s.Simulated > 0 {
			changes = fmt.Sprintf("%d (+%d simulated)", s.Changes, s.Simulated)
		}
		fmt.Fprintf(sb, "| %s | %d | %s | %d |\n", res.Name(), s.Findings, changes, res.Errors)
	}
	fmt.Fprintf(sb, "| **Total** | **%d** | **%d** | **%d** |\n\n", totals.Findings, totals.Changes, r.Errors())

	byType := make(map[ChangeType]int)
	byCategory := make(map[keywords.Category]int)
	for _, res := range r.Results {
		for _, c := range res.Changes {
			if c.Simulated {
				continue
			}
			byType[c.Type]++
			if c.Type == ChangeMoved && c.Category != "" {
				byCategory[c.Category]++
			}
		}
	}

	if len(byType) > 0 {
		sb.WriteString("### Changes by type\n\n")
		types := make([]string, 0, len(byType))
		for t := range byType {
			types = append(types, string(t))
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Fprintf(sb, "- %s: %d\n", t, byType[ChangeType(t)])
		}
		sb.WriteString("\n")
	}

	if len(byCategory) > 0 {
		sb.WriteString("### Files relocated by category\n\n")
		for _, c := range keywords.AllCategories() {
			if n := byCategory[c]; n > 0 {
				fmt.Fprintf(sb, "- `%s`: %d\n", c, n)
			}
		}
		sb.WriteString("\n")
	}

	if n := r.ManualReview(); n > 0 {
		fmt.Fprintf(sb, "⚠️ **%d item(s) need manual review.**\n", n)
	} else {
		sb.WriteString("No items need manual review.\n")
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
