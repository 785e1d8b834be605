// Package frontmatter extracts the leading "---" metadata block of a markdown file.
//
// Only flat "key: value" scalars are understood. Lists, nested maps and
// multi-line values are skipped.
package frontmatter

import (
	"strings"
)

const delimiter = "---"

// Document is the result of Parse.
type Document struct {
	Data    map[string]string
	Content string
}

// Get returns a trimmed value, or "" when the key is absent.
func (d Document) Get(key string) string {
	return d.Data[key]
}

// Parse splits content into frontmatter data and body. Missing or
// unterminated frontmatter is not an error: Data is empty and Content is the
// input unchanged.
func Parse(content string) Document {
	empty := Document{Data: map[string]string{}, Content: content}
	if !strings.HasPrefix(content, delimiter) {
		return empty
	}

	lines := strings.Split(content, "\n")
	if strings.TrimSpace(lines[0]) != delimiter {
		// "----" or "---title" is a horizontal rule or text, not a block
		return empty
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == delimiter {
			end = i
			break
		}
	}
	if end < 0 {
		return empty
	}

	data := make(map[string]string)
	for _, line := range lines[1:end] {
		key, value, ok := splitPair(line)
		if !ok {
			continue
		}
		data[key] = value
	}

	return Document{
		Data:    data,
		Content: strings.Join(lines[end+1:], "\n"),
	}
}

func splitPair(line string) (string, string, bool) {
	line = strings.TrimRight(line, "\r")
	// indented lines belong to nested structures
	if line == "" || line[0] == ' ' || line[0] == '\t' || line[0] == '#' {
		return "", "", false
	}
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	key := strings.TrimSpace(line[:idx])
	if strings.ContainsAny(key, " \t") {
		return "", "", false
	}
	return key, unquote(strings.TrimSpace(line[idx+1:])), true
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}
