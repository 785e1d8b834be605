package maintain

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlugin returns canned results and records which phases ran.
type fakePlugin struct {
	name     string
	findings []Finding
	changes  []Change
	scanErr  error
	fixErr   error
	panicMsg string
	section  string

	fixCalled bool
}

func (f *fakePlugin) Name() string { return f.name }

func (f *fakePlugin) Scan(context.Context) ([]Finding, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.findings, f.scanErr
}

func (f *fakePlugin) Fix(context.Context, []Finding) ([]Change, error) {
	f.fixCalled = true
	return f.changes, f.fixErr
}

func (f *fakePlugin) Report([]Finding, []Change) string { return f.section }

// messyTree exercises every plugin: a stray root note, a misnamed source
// design doc and root links pointing at both.
func messyTree() map[string]string {
	return map[string]string{
		"random-notes.md":                    "# Random notes\n\nA step-by-step list on how to set things up.\n",
		"README.md":                          "# Project\n\nSee [notes](random-notes.md) and [auth](src/components/design-Auth Flow.md).\n",
		"src/components/design-Auth Flow.md": "# Auth flow\n",
		"src/node_modules/pkg/plan-x.md":     "# vendored\n",
	}
}

func TestPipelineSecondRunFindsNothing(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, messyTree())

	env, _ := newTestEnv(t, root, false)
	first, err := NewPipeline(env, DefaultPlugins(env)...).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Results, 5)
	assert.True(t, first.HasChanges())
	assert.Zero(t, first.Errors())

	byName := make(map[string]PluginResult)
	for _, r := range first.Results {
		byName[r.Name()] = r
	}
	assert.Equal(t, 1, byName[SourceScannerName].Stats().Changes)
	assert.Equal(t, 1, byName[OrphanedRootName].Stats().Changes)
	assert.Equal(t, 8, byName[MissingFilesName].Stats().Changes)
	assert.Equal(t, 1, byName[NameConventionName].Stats().Changes)
	assert.Equal(t, 3, byName[BrokenLinksName].Stats().Changes)

	assert.FileExists(t, filepath.Join(root, "docs/system/design/design-auth-flow.md"))
	assert.FileExists(t, filepath.Join(root, "docs/user-docs/guides/random-notes.md"))
	readme := readFile(t, filepath.Join(root, "README.md"))
	assert.Contains(t, readme, "[notes](docs/user-docs/guides/random-notes.md)")
	assert.Contains(t, readme, "[auth](docs/system/design/design-auth-flow.md)")
	assert.Contains(t, readFile(t, filepath.Join(root, "docs/system/design/README.md")), "](design-auth-flow.md)")

	env2, _ := newTestEnv(t, root, false)
	second, err := NewPipeline(env2, DefaultPlugins(env2)...).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.Totals().Findings)
	assert.False(t, second.HasChanges())
	assert.Contains(t, second.Generate(), NoIssuesText)
}

func TestPipelineDryRunLeavesTreeUntouched(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, messyTree())
	before := snapshot(t, root)

	env, out := newTestEnv(t, root, true)
	report, err := NewPipeline(env, DefaultPlugins(env)...).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, before, snapshot(t, root))
	assert.Positive(t, report.Totals().Findings)
	assert.Positive(t, report.Totals().Simulated)
	assert.Zero(t, report.Totals().Changes)
	assert.False(t, report.HasChanges())
	assert.Contains(t, out.String(), "[dry-run] would move")
	assert.Contains(t, report.Generate(), "**Mode:** dry-run")
}

func TestDryRunScanMatchesLiveScan(t *testing.T) {
	for _, name := range PluginNames() {
		t.Run(name, func(t *testing.T) {
			scan := func(dryRun bool) []Finding {
				root := t.TempDir()
				writeTree(t, root, messyTree())
				writeTree(t, root, map[string]string{"docs/user-docs/guides/Old_Guide.md": "[x](../_sys_documents/x.md)\n"})
				env, _ := newTestEnv(t, root, dryRun)
				plugins, err := Select(DefaultPlugins(env), []string{name})
				require.NoError(t, err)
				findings, err := plugins[0].Scan(context.Background())
				require.NoError(t, err)
				// paths differ only by the temp root
				for i := range findings {
					findings[i].File, _ = filepath.Rel(root, findings[i].File)
					findings[i].Target, _ = filepath.Rel(root, findings[i].Target)
					findings[i].Dir, _ = filepath.Rel(root, findings[i].Dir)
				}
				return findings
			}

			live, dry := scan(false), scan(true)
			require.NotEmpty(t, live)
			if diff := cmp.Diff(live, dry); diff != "" {
				t.Errorf("dry-run findings differ (-live +dry):\n%s", diff)
			}
		})
	}
}

func TestSelectKeepsExecutionOrder(t *testing.T) {
	env, _ := newTestEnv(t, t.TempDir(), false)
	all := DefaultPlugins(env)

	got, err := Select(all, []string{BrokenLinksName, " " + SourceScannerName})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, SourceScannerName, got[0].Name())
	assert.Equal(t, BrokenLinksName, got[1].Name())

	got, err = Select(all, nil)
	require.NoError(t, err)
	assert.Len(t, got, 5)

	_, err = Select(all, []string{"spellcheck"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown plugin "spellcheck"`)
}

func TestPluginNamesMatchDefaultPlugins(t *testing.T) {
	env, _ := newTestEnv(t, t.TempDir(), false)
	var names []string
	for _, p := range DefaultPlugins(env) {
		names = append(names, p.Name())
	}
	assert.Equal(t, PluginNames(), names)
}

func TestPipelineRecoversPanicAndContinues(t *testing.T) {
	env, _ := newTestEnv(t, t.TempDir(), false)
	bad := &fakePlugin{name: "bad", panicMsg: "boom"}
	good := &fakePlugin{
		name:     "good",
		findings: []Finding{{Plugin: "good"}},
		changes:  []Change{{Plugin: "good", Type: ChangeCreated}},
	}

	report, err := NewPipeline(env, bad, good).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	assert.ErrorContains(t, report.Results[0].Err, "panic in bad: boom")
	assert.Equal(t, 1, report.Results[0].Errors)
	assert.True(t, good.fixCalled)
	assert.True(t, report.HasChanges())
	assert.Equal(t, 1, report.Errors())
}

func TestPipelineSkipsFixWithoutFindings(t *testing.T) {
	env, out := newTestEnv(t, t.TempDir(), false)
	idle := &fakePlugin{name: "idle"}

	report, err := NewPipeline(env, idle).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, idle.fixCalled)
	assert.NoError(t, report.Results[0].Err)
	assert.Contains(t, out.String(), "idle: nothing to fix")
}

func TestPipelineCountsJoinedErrors(t *testing.T) {
	env, _ := newTestEnv(t, t.TempDir(), false)
	p := &fakePlugin{
		name:     "partial",
		findings: []Finding{{}, {}, {}},
		changes:  []Change{{Type: ChangeMoved}},
		fixErr:   errors.Join(errors.New("a"), errors.New("b")),
	}
	report, err := NewPipeline(env, p).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Results[0].Errors)
	assert.True(t, report.HasChanges())
}

func TestPipelineStopsOnCancel(t *testing.T) {
	env, _ := newTestEnv(t, t.TempDir(), false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &fakePlugin{name: "never"}
	report, err := NewPipeline(env, p).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Results)
	assert.Equal(t, fixedNow, report.GeneratedAt)
}
