/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/

// Package categorize decides which documentation directory a markdown file belongs in.
package categorize

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fulmenhq/docmaint/internal/frontmatter"
	"github.com/fulmenhq/docmaint/internal/keywords"
)

// Confidence is informative only; it never blocks a move.
type Confidence string

const (
	High   Confidence = "HIGH"
	Medium Confidence = "MEDIUM"
	Low    Confidence = "LOW"
)

// Method names the rule of the chain that produced a Result.
type Method string

const (
	MethodFrontmatter Method = "frontmatter"
	MethodFilename    Method = "filename"
	MethodContent     Method = "content"
	MethodFallback    Method = "fallback"
)

// ContentLines is how much of a file the keyword scorer reads.
const ContentLines = 50

const (
	highScore   = 5
	mediumScore = 2
)

// FallbackReason is used when no rule matched.
const FallbackReason = "Could not determine category"

// Result is the outcome of classification.
type Result struct {
	Category   keywords.Category `json:"category"`
	Target     string            `json:"target"`
	Confidence Confidence        `json:"confidence"`
	Reason     string            `json:"reason"`
	Method     Method            `json:"method"`
}

// Categorizer resolves categories to directories under DocsRoot.
type Categorizer struct {
	docsRoot string
	tables   keywords.Tables
}

// New builds a Categorizer for the given docs root and tables.
func New(docsRoot string, tables keywords.Tables) *Categorizer {
	return &Categorizer{docsRoot: docsRoot, tables: tables}
}

// Categorize reads path and classifies it. Read errors are returned as-is
// so callers can skip the single file.
func (c *Categorizer) Categorize(path string) (Result, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from a docs/source walk
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", path, err)
	}
	res := Classify(filepath.Base(path), string(data), c.tables)
	res.Target = filepath.Join(c.docsRoot, filepath.FromSlash(string(res.Category)))
	return res, nil
}

// Classify runs the priority chain on an in-memory file: frontmatter type,
// filename prefix, content keywords, fallback. Target is left empty.
func Classify(name, content string, tables keywords.Tables) Result {
	doc := frontmatter.Parse(content)
	if typ := doc.Get("type"); typ != "" {
		if cat, ok := tables.Types[typ]; ok {
			return Result{
				Category:   cat,
				Confidence: High,
				Reason:     fmt.Sprintf("Frontmatter type: %s", typ),
				Method:     MethodFrontmatter,
			}
		}
	}

	for _, p := range tables.Prefixes {
		if strings.HasPrefix(name, p.Prefix) {
			return Result{
				Category:   p.Target,
				Confidence: High,
				Reason:     fmt.Sprintf("Filename prefix: %s", p.Prefix),
				Method:     MethodFilename,
			}
		}
	}

	if res, ok := scoreContent(content, tables.Vocabularies); ok {
		return res
	}

	return Result{
		Category:   keywords.Orphaned,
		Confidence: Low,
		Reason:     FallbackReason,
		Method:     MethodFallback,
	}
}

// Score is one vocabulary's total for a document.
type Score struct {
	Name   string
	Target keywords.Category
	Score  int
}

// Scores counts term occurrences in the first ContentLines lines. The slice
// is sorted by descending score; ties keep vocabulary order.
func Scores(content string, vocabularies []keywords.Vocabulary) []Score {
	head := strings.ToLower(firstLines(content, ContentLines))
	scores := make([]Score, 0, len(vocabularies))
	for _, v := range vocabularies {
		total := 0
		for _, term := range v.Terms {
			term = strings.ToLower(term)
			if term == "" {
				continue
			}
			total += strings.Count(head, term) * v.Weight
		}
		scores = append(scores, Score{Name: v.Name, Target: v.Target, Score: total})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })
	return scores
}

// scoreContent reports ok=false when the best score is LOW, which callers treat as no answer.
func scoreContent(content string, vocabularies []keywords.Vocabulary) (Result, bool) {
	scores := Scores(content, vocabularies)
	if len(scores) == 0 {
		return Result{}, false
	}
	best := scores[0]

	var conf Confidence
	switch {
	case best.Score >= highScore:
		conf = High
	case best.Score >= mediumScore:
		conf = Medium
	default:
		return Result{}, false
	}

	return Result{
		Category:   best.Target,
		Confidence: conf,
		Reason:     fmt.Sprintf("Content keywords: %s (score %d)", best.Name, best.Score),
		Method:     MethodContent,
	}, true
}

func firstLines(s string, n int) string {
	idx := 0
	for i := 0; i < n; i++ {
		next := strings.IndexByte(s[idx:], '\n')
		if next < 0 {
			return s
		}
		idx += next + 1
	}
	return s[:idx]
}
