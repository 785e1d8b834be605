package maintain

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/fulmenhq/docmaint/internal/keywords"
)

func TestCorrectName(t *testing.T) {
	tests := []struct {
		name     string
		category keywords.Category
		want     string
	}{
		{"design-My File_Name.MD", keywords.SystemDesign, "design-my-file-name.md"},
		{"Login Flow.md", keywords.SystemDesign, "design-login-flow.md"},
		{"design-design-x.md", keywords.SystemDesign, "design-design-x.md"},
		{"debug-crash.md", keywords.SystemExecution, "debug-crash.md"},
		{"realign-Scope.md", keywords.SystemExecution, "realign-scope.md"},
		{"sprint 3.md", keywords.SystemExecution, "execution-sprint-3.md"},
		{"Billing.md", keywords.SystemAsBuilts, "as-built-billing.md"},
		{"q3.md", keywords.SystemPlans, "plan-q3.md"},
		{"INDEX-Auth Plan.md", keywords.SystemPlans, "INDEX-Auth Plan.md"},
		{"design-Onboarding.md", keywords.UserGuides, "onboarding.md"},
		{"plan-design-thing.md", keywords.UserFeatures, "thing.md"},
		{"--Weird__Name--.md", keywords.SystemVision, "weird-name.md"},
		{"Roadmap 2026.md", keywords.SystemRoadmap, "roadmap-2026.md"},
		{"README.md", keywords.SystemDesign, "README.md"},
		{"AGENT.md", keywords.UserAPI, "AGENT.md"},
		{"___.md", keywords.SystemDesign, "___.md"},
		{"Notes.md", keywords.Orphaned, "notes.md"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CorrectName(tt.name, tt.category))
		})
	}
}

func TestCorrectNameIsStable(t *testing.T) {
	categories := keywords.AllCategories()
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringMatching(`[A-Za-z0-9 _.\-]{0,24}(\.md|\.MD|\.Md)?`).Draw(t, "name")
		cat := rapid.SampledFrom(categories).Draw(t, "category")

		once := CorrectName(name, cat)
		if twice := CorrectName(once, cat); twice != once {
			t.Fatalf("CorrectName not stable for %q in %s: %q then %q", name, cat, once, twice)
		}
	})
}

func TestNameConventionScanAndFix(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"docs/system/design/design-My File_Name.MD": "# x\n",
		"docs/system/design/README.md":              "# readme\n",
		"docs/system/plans/INDEX-Big Plan.md":       "# index\n",
		"docs/user-docs/guides/design-Setup.md":     "# setup\n",
		"docs/user-docs/guides/notes.txt":           "not markdown\n",
	})
	env, out := newTestEnv(t, root, false)
	p := NewNameConvention(env)

	findings, err := p.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, findings, 2)
	assert.Equal(t, "design-my-file-name.md", findings[0].NewName)
	assert.Equal(t, "setup.md", findings[1].NewName)

	changes, err := p.Fix(context.Background(), findings)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.FileExists(t, filepath.Join(root, "docs/system/design/design-my-file-name.md"))
	assert.FileExists(t, filepath.Join(root, "docs/user-docs/guides/setup.md"))
	assert.Contains(t, out.String(), "✅ Renamed")

	again, err := p.Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestNameConventionSkipsTakenDestination(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"docs/system/design/Design-Auth.md": "old\n",
		"docs/system/design/design-auth.md": "new\n",
	})
	env, out := newTestEnv(t, root, false)
	p := NewNameConvention(env)

	findings, err := p.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, findings, 1)

	changes, err := p.Fix(context.Background(), findings)
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Equal(t, "old\n", readFile(t, filepath.Join(root, "docs/system/design/Design-Auth.md")))
	assert.Equal(t, "new\n", readFile(t, filepath.Join(root, "docs/system/design/design-auth.md")))
	assert.Contains(t, out.String(), "already exists")
	assert.Contains(t, p.Report(findings, changes), "skipped (target exists)")
}

func TestNameConventionDryRun(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"docs/system/plans/Q3 Goals.md": "x\n"})
	env, _ := newTestEnv(t, root, true)
	p := NewNameConvention(env)

	findings, err := p.Scan(context.Background())
	require.NoError(t, err)
	changes, err := p.Fix(context.Background(), findings)
	require.NoError(t, err)

	require.Len(t, changes, 1)
	assert.True(t, changes[0].Simulated)
	_, statErr := os.Stat(filepath.Join(root, "docs/system/plans/Q3 Goals.md"))
	assert.NoError(t, statErr)
	assert.Contains(t, p.Report(findings, changes), "dry-run")
}
