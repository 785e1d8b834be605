package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fulmenhq/docmaint/internal/keywords"
)

// isolate runs the test from an empty directory with an empty HOME so no
// stray .docmaint.yaml is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	chdir(t, dir)
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Root)
	assert.Equal(t, "docs", cfg.DocsRoot)
	assert.Equal(t, "src", cfg.SourceDir)
	assert.Equal(t, ".maintenance-report.md", cfg.ReportPath)
	assert.False(t, cfg.DryRun)
	assert.False(t, cfg.RespectGitignore)
	assert.Equal(t, DefaultRootAllowlist(), cfg.RootAllowlist)
	assert.Equal(t, DefaultMigrationRules(), cfg.MigrationRules)
	assert.Empty(t, cfg.Plugins)
	assert.Empty(t, cfg.ConfigFile)
	assert.Equal(t, 1, cfg.Keywords.API.Weight)
}

func TestLoadFromFile(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, `
docs_root: documentation
report_path: out/report.md
dry_run: true
migration_rules:
  - pattern: "^old/"
    replacement: "system/"
keywords:
  api:
    weight: 3
plugins: [broken-links]
`)

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "documentation", cfg.DocsRoot)
	assert.Equal(t, "out/report.md", cfg.ReportPath)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, []MigrationRule{{Pattern: "^old/", Replacement: "system/"}}, cfg.MigrationRules)
	assert.Equal(t, 3, cfg.Keywords.API.Weight)
	assert.Equal(t, []string{"broken-links"}, cfg.Plugins)
	assert.NotEmpty(t, cfg.ConfigFile)
}

func TestLoadExplicitFileMissing(t *testing.T) {
	dir := isolate(t)
	_, err := Load(LoadOptions{ConfigFile: filepath.Join(dir, "nope.yaml")})
	assert.Error(t, err)
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", "colour: blue\n"},
		{"wrong type", "dry_run: maybe\n"},
		{"unknown plugin", "plugins: [spellcheck]\n"},
		{"rule without replacement", "migration_rules:\n  - pattern: x\n"},
		{"zero weight", "keywords:\n  user:\n    weight: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			path := writeConfig(t, dir, tt.body)
			_, err := Load(LoadOptions{ConfigFile: path})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "configuration validation failed")
		})
	}
}

func TestLoadRejectsBadRegex(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, "migration_rules:\n  - pattern: \"(\"\n    replacement: x\n")
	_, err := Load(LoadOptions{ConfigFile: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration_rules[0]")
}

func TestEnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, "docs_root: from-file\n")
	t.Setenv("DOCMAINT_DOCS_ROOT", "from-env")

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.DocsRoot)
}

func TestChangedFlagsWin(t *testing.T) {
	dir := isolate(t)
	writeConfig(t, dir, "docs_root: from-file\nreport_path: file.md\n")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("docs", "docs", "")
	fs.String("report", ".maintenance-report.md", "")
	fs.Bool("dry-run", false, "")
	fs.StringSlice("only", nil, "")
	require.NoError(t, fs.Parse([]string{"--docs", "from-flag", "--dry-run", "--only", "missing-files,broken-links"}))

	cfg, err := Load(LoadOptions{Flags: fs})
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.DocsRoot)
	// unchanged flag does not shadow the file value
	assert.Equal(t, "file.md", cfg.ReportPath)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, []string{"missing-files", "broken-links"}, cfg.Plugins)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.DocsRoot = " "
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.ReportPath = ""
	assert.Error(t, cfg.Validate())
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.Root = root
	cfg.SourceDir = "/abs/src"
	require.NoError(t, cfg.Resolve())

	assert.Equal(t, filepath.Join(root, "docs"), cfg.DocsRoot)
	assert.Equal(t, "/abs/src", cfg.SourceDir)
	assert.Equal(t, ".maintenance-report.md", cfg.ReportPath)
}

func TestTablesApplyOverrides(t *testing.T) {
	cfg := Default()
	cfg.Keywords.User = VocabularyConfig{Weight: 4, Terms: []string{"recipe"}}

	tables := cfg.Tables()
	var user keywords.Vocabulary
	for _, v := range tables.Vocabularies {
		if v.Name == "user" {
			user = v
		}
	}
	assert.Equal(t, 4, user.Weight)
	assert.Equal(t, []string{"recipe"}, user.Terms)

	// untouched vocabularies keep their defaults
	assert.Equal(t, keywords.DefaultVocabularies()[0], tables.Vocabularies[0])
}

func TestCompiledRulesKeepOrder(t *testing.T) {
	rules := Default().CompiledRules()
	require.Len(t, rules, len(DefaultMigrationRules()))
	assert.Equal(t, "system/design/", rules[0].Replacement)
	assert.True(t, rules[0].Re.MatchString("../_sys_documents/design/a.md"))
}
