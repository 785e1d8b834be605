package maintain

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/fulmenhq/docmaint/pkg/logger"
)

// PluginNames lists every plugin in execution order.
func PluginNames() []string {
	return []string{SourceScannerName, OrphanedRootName, MissingFilesName, NameConventionName, BrokenLinksName}
}

// DefaultPlugins builds the plugins in execution order. Relocation runs before
// the naming and link passes so they see files at their final location.
func DefaultPlugins(env *Env) []Plugin {
	return []Plugin{
		NewSourceScanner(env),
		NewOrphanedRoot(env),
		NewMissingFiles(env),
		NewNameConvention(env),
		NewBrokenLinks(env),
	}
}

// Select keeps the plugins named in names, preserving execution order. An
// empty names keeps all of them; an unknown name is an error.
func Select(plugins []Plugin, names []string) ([]Plugin, error) {
	if len(names) == 0 {
		return plugins, nil
	}
	known := make(map[string]bool, len(plugins))
	for _, p := range plugins {
		known[p.Name()] = true
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if !known[n] {
			return nil, fmt.Errorf("unknown plugin %q (available: %s)", n, strings.Join(PluginNames(), ", "))
		}
		want[n] = true
	}
	var out []Plugin
	for _, p := range plugins {
		if want[p.Name()] {
			out = append(out, p)
		}
	}
	return out, nil
}

// Pipeline runs plugins sequentially: Scan, then Fix when Scan found something.
type Pipeline struct {
	env     *Env
	plugins []Plugin
}

// NewPipeline returns a pipeline over plugins in the given order.
func NewPipeline(env *Env, plugins ...Plugin) *Pipeline {
	return &Pipeline{env: env, plugins: plugins}
}

// Run executes every plugin. Plugin failures, panics included, are recorded
// in the report and do not stop the run; only context cancellation does.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{DryRun: p.env.DryRun(), GeneratedAt: p.env.now()}
	for _, plugin := range p.plugins {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		logger.Info("running plugin", logger.String("plugin", plugin.Name()))
		_, _ = fmt.Fprintf(p.env.Out, "\n▶ %s\n", plugin.Name())

		res := p.runPlugin(ctx, plugin)
		report.Results = append(report.Results, res)
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if res.Err != nil {
			logger.Error("plugin reported errors",
				logger.String("plugin", plugin.Name()),
				logger.Int("errors", res.Errors),
				logger.Err(res.Err))
		}
		s := res.Stats()
		logger.Debug("plugin finished",
			logger.String("plugin", plugin.Name()),
			logger.Int("findings", s.Findings),
			logger.Int("changes", s.Changes),
			logger.Int("simulated", s.Simulated))
	}
	return report, nil
}

func (p *Pipeline) runPlugin(ctx context.Context, plugin Plugin) (res PluginResult) {
	res.Plugin = plugin
	defer func() {
		if r := recover(); r != nil {
			logger.Debug("plugin panic stack", logger.String("stack", string(debug.Stack())))
			res.Err = fmt.Errorf("panic in %s: %v", plugin.Name(), r)
			res.Errors++
		}
	}()

	findings, scanErr := plugin.Scan(ctx)
	res.Findings = findings
	res.Errors += countErrors(scanErr)
	errs := []error{scanErr}

	if len(findings) > 0 {
		changes, fixErr := plugin.Fix(ctx, findings)
		res.Changes = changes
		res.Errors += countErrors(fixErr)
		errs = append(errs, fixErr)
	} else {
		p.env.skip("%s: nothing to fix", plugin.Name())
	}
	res.Err = errors.Join(errs...)
	return res
}
