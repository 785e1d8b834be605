package glob

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustWrite(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("# "+filepath.Base(path)+"\n"), 0o644))
}

func TestParse(t *testing.T) {
	tests := []struct {
		pattern string
		want    Pattern
	}{
		{"docs/**/*.md", Pattern{Base: "docs", Extension: ".md"}},
		{"src/components/**/*.mdx", Pattern{Base: "src/components", Extension: ".mdx"}},
		{"*.md", Pattern{Base: ".", Extension: ".md"}},
		{"docs/**", Pattern{Base: "docs"}},
		{"docs/**/*", Pattern{Base: "docs"}},
		{"/abs/tree/**/*.txt", Pattern{Base: "/abs/tree", Extension: ".txt"}},
		{"plain/dir", Pattern{Base: "plain/dir"}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.pattern))
		})
	}
}

func TestGlobIgnoresNodeModules(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "a", "b.md"))
	mustWrite(t, filepath.Join(root, "a", "node_modules", "c.md"))

	got, err := Glob(filepath.Join(root, "a")+"/**/*.md", Options{Ignore: []string{"**/node_modules/**"}})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a", "b.md")}, got)
}

func TestGlobExtensionAndOrder(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "docs", "z.md"))
	mustWrite(t, filepath.Join(root, "docs", "a.md"))
	mustWrite(t, filepath.Join(root, "docs", "sub", "m.md"))
	mustWrite(t, filepath.Join(root, "docs", "image.png"))
	mustWrite(t, filepath.Join(root, "docs", "notes.md.bak"))

	got, err := Glob(filepath.Join(root, "docs")+"/**/*.md", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "docs", "a.md"),
		filepath.Join(root, "docs", "sub", "m.md"),
		filepath.Join(root, "docs", "z.md"),
	}, got)

	for _, p := range got {
		assert.True(t, filepath.IsAbs(p), "expected absolute path, got %s", p)
	}
}

func TestGlobMissingBaseIsEmpty(t *testing.T) {
	got, err := Glob(filepath.Join(t.TempDir(), "nope")+"/**/*.md", Options{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGlobInvalidIgnore(t *testing.T) {
	_, err := Glob(t.TempDir()+"/**/*.md", Options{Ignore: []string{"(unclosed"}})
	assert.Error(t, err)
}

func TestGlobRespectsGitignore(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "docs", "keep.md"))
	mustWrite(t, filepath.Join(root, "docs", "drafts", "wip.md"))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("drafts/\n"), 0o644))

	got, err := Glob(filepath.Join(root, "docs")+"/**/*.md", Options{RespectGitignore: true, Root: root})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "docs", "keep.md")}, got)

	all, err := Glob(filepath.Join(root, "docs")+"/**/*.md", Options{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCompileIgnoreIsSubstringRegex(t *testing.T) {
	res, err := CompileIgnore([]string{"README.md", "*/tmp/*"})
	require.NoError(t, err)
	assert.True(t, res[0].MatchString("/repo/src/README.md"))
	assert.True(t, res[1].MatchString("/repo/tmp/x.md"))
	assert.False(t, res[1].MatchString("/repo/docs/x.md"))
}

func TestMatchAnyFold(t *testing.T) {
	allow := []string{"README.md", "CHANGELOG*.md", "docs/**"}
	assert.True(t, MatchAnyFold(allow, "readme.MD"))
	assert.True(t, MatchAnyFold(allow, "CHANGELOG-2025.md"))
	assert.True(t, MatchAnyFold(allow, "docs/a/b.md"))
	assert.False(t, MatchAnyFold(allow, "random-notes.md"))
	assert.False(t, Match("[", "x"), "malformed patterns never match")
}
