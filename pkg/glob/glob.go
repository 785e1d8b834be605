/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/

// Package glob resolves "dir/**/*.ext" style patterns to file lists.
//
// It is a deliberate subset of shell globbing: the literal directory prefix
// of the pattern is walked recursively and an optional trailing "*.ext"
// segment restricts the extension. There is no brace expansion, no
// character classes inside the walk, and symlinked directories are not
// followed. Ignore patterns are not globs either: each "*" becomes ".*" and
// the result is used as an unanchored regular expression.
package glob

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fulmenhq/docmaint/pkg/ignore"
)

// Options controls filtering during Glob.
type Options struct {
	// Ignore patterns are matched against the slash-separated absolute path.
	Ignore []string
	// RespectGitignore additionally skips entries ignored by .gitignore and
	// .docmaintignore found under Root.
	RespectGitignore bool
	Root             string
}

// Pattern is a decomposed glob pattern.
type Pattern struct {
	Base      string
	Extension string
}

// Parse splits a pattern into its literal base directory and required extension.
func Parse(pattern string) Pattern {
	segments := strings.Split(filepath.ToSlash(pattern), "/")
	var base []string
	for _, seg := range segments {
		if strings.ContainsAny(seg, "*?[") {
			break
		}
		base = append(base, seg)
	}

	p := Pattern{Base: strings.Join(base, "/")}
	if p.Base == "" {
		p.Base = "."
		if strings.HasPrefix(pattern, "/") {
			p.Base = "/"
		}
	}

	last := segments[len(segments)-1]
	if len(base) < len(segments) && strings.HasPrefix(last, "*.") {
		ext := strings.TrimPrefix(last, "*")
		if !strings.ContainsAny(ext, "*?[") {
			p.Extension = ext
		}
	}
	return p
}

// CompileIgnore turns ignore patterns into unanchored regular expressions.
func CompileIgnore(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(strings.ReplaceAll(p, "*", ".*"))
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Glob returns absolute paths of regular files matching pattern.
// Unreadable or missing directories contribute nothing and are not errors.
func Glob(pattern string, opts Options) ([]string, error) {
	p := Parse(pattern)
	ignores, err := CompileIgnore(opts.Ignore)
	if err != nil {
		return nil, err
	}

	var matcher *ignore.Matcher
	if opts.RespectGitignore {
		root := opts.Root
		if root == "" {
			root = "."
		}
		matcher, err = ignore.NewMatcher(root)
		if err != nil {
			return nil, err
		}
	}

	base, err := filepath.Abs(p.Base)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", p.Base, err)
	}

	var files []string
	walk(base, func(path string, isDir bool) bool {
		if matcher != nil {
			if isDir && matcher.IsIgnoredDir(path) {
				return false
			}
			if !isDir && matcher.IsIgnored(path) {
				return false
			}
		}
		if isDir {
			return true
		}
		if p.Extension != "" && !strings.HasSuffix(path, p.Extension) {
			return false
		}
		slashed := filepath.ToSlash(path)
		for _, re := range ignores {
			if re.MatchString(slashed) {
				return false
			}
		}
		files = append(files, filepath.Clean(path))
		return false
	})
	return files, nil
}

// walk visits dir depth-first in lexical order. visit returns true to
// descend into a directory; the return value is ignored for files.
func walk(dir string, visit func(path string, isDir bool) bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		switch {
		case e.IsDir():
			if visit(path, true) {
				walk(path, visit)
			}
		case e.Type().IsRegular():
			visit(path, false)
		}
	}
}

// Match reports whether name matches a doublestar pattern. Malformed patterns never match.
func Match(pattern, name string) bool {
	ok, err := doublestar.Match(filepath.ToSlash(pattern), filepath.ToSlash(name))
	return err == nil && ok
}

// MatchAnyFold is Match over several patterns, ignoring case.
func MatchAnyFold(patterns []string, name string) bool {
	lower := strings.ToLower(name)
	for _, p := range patterns {
		if Match(strings.ToLower(p), lower) {
			return true
		}
	}
	return false
}
