// Package ignore provides gitignore-based file filtering using go-git
package ignore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// IgnoreFileName is the repo-level override file read after .gitignore.
const IgnoreFileName = ".docmaintignore"

// Matcher provides gitignore-based file filtering relative to a repository root
type Matcher struct {
	root    string
	matcher gitignore.Matcher
}

// NewMatcher creates a matcher with layered ignore files:
// 1. built-in defaults (.git, node_modules)
// 2. .gitignore and related git ignore files
// 3. .docmaintignore at the repository root
func NewMatcher(repoRoot string) (*Matcher, error) {
	absRoot, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve ignore root: %w", err)
	}
	fs := osfs.New(absRoot)

	var allPatterns []gitignore.Pattern
	for _, pattern := range []string{".git/**", "node_modules/**"} {
		allPatterns = append(allPatterns, gitignore.ParsePattern(pattern, nil))
	}

	// ReadPatterns with nil reads .gitignore files recursively plus .git/info/exclude
	if gitPatterns, err := gitignore.ReadPatterns(fs, nil); err == nil {
		allPatterns = append(allPatterns, gitPatterns...)
	}

	if extra, err := readIgnoreFile(filepath.Join(absRoot, IgnoreFileName)); err == nil {
		for _, pattern := range extra {
			allPatterns = append(allPatterns, gitignore.ParsePattern(pattern, nil))
		}
	}

	return &Matcher{
		root:    absRoot,
		matcher: gitignore.NewMatcher(allPatterns),
	}, nil
}

// readIgnoreFile reads patterns from a text file (like .docmaintignore)
func readIgnoreFile(path string) ([]string, error) {
	cleaned := filepath.Clean(path)
	if filepath.Base(cleaned) != IgnoreFileName {
		return nil, fmt.Errorf("disallowed ignore file path: %s", cleaned)
	}
	content, err := os.ReadFile(cleaned) // #nosec G304 -- path cleaned and allowlisted
	if err != nil {
		return nil, err
	}

	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, nil
}

// IsIgnored checks if a file path should be ignored
func (m *Matcher) IsIgnored(path string) bool {
	return m.match(path, false)
}

// IsIgnoredDir checks if a directory should be skipped during traversal
func (m *Matcher) IsIgnoredDir(path string) bool {
	return m.match(path, true)
}

func (m *Matcher) match(path string, isDir bool) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(m.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		// outside the root: nothing to say about it
		return false
	}
	parts := splitPath(filepath.ToSlash(rel))
	if len(parts) == 0 {
		return false
	}
	return m.matcher.Match(parts, isDir)
}

// splitPath converts a slash-separated path into components for go-git matching
func splitPath(path string) []string {
	if path == "" || path == "." {
		return []string{}
	}
	path = strings.TrimPrefix(path, "/")
	parts := strings.Split(path, "/")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" && part != "." {
			result = append(result, part)
		}
	}
	return result
}
