/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/

// Package keywords holds the static classification tables: the closed set of
// documentation categories, the frontmatter type map, the filename prefix
// list and the weighted content vocabularies.
package keywords

import "strings"

// Category is a documentation directory relative to the docs root.
type Category string

const (
	SystemDesign    Category = "system/design"
	SystemExecution Category = "system/execution"
	SystemAsBuilts  Category = "system/as-builts"
	SystemPlans     Category = "system/plans"
	SystemVision    Category = "system/vision"
	SystemRoadmap   Category = "system/roadmap"
	UserFeatures    Category = "user-docs/features"
	UserGuides      Category = "user-docs/guides"
	UserAPI         Category = "user-docs/api"
	Orphaned        Category = "orphaned"
)

// Tree names the top-level grouping a category belongs to.
const (
	TreeSystem = "system"
	TreeUser   = "user-docs"
)

var allCategories = []Category{
	SystemDesign, SystemExecution, SystemAsBuilts, SystemPlans, SystemVision, SystemRoadmap,
	UserFeatures, UserGuides, UserAPI, Orphaned,
}

// AllCategories returns every category in canonical order.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// IsCategory reports whether c belongs to the closed category set.
func IsCategory(c Category) bool {
	for _, k := range allCategories {
		if k == c {
			return true
		}
	}
	return false
}

// Tree returns "system", "user-docs" or "" for the orphaned bucket.
func (c Category) Tree() string {
	head, _, _ := strings.Cut(string(c), "/")
	switch head {
	case TreeSystem, TreeUser:
		return head
	}
	return ""
}

// Leaf returns the last path element, e.g. "as-builts".
func (c Category) Leaf() string {
	s := string(c)
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Prefix maps a filename prefix to its category.
type Prefix struct {
	Prefix string
	Target Category
}

// Vocabulary is one weighted keyword list.
type Vocabulary struct {
	Name   string
	Target Category
	Weight int
	Terms  []string
}

// Tables bundles every input of the classification chain. Callers pass it
// explicitly so tests and config files can substitute their own vocabularies.
type Tables struct {
	Types    map[string]Category
	Prefixes []Prefix
	// Vocabularies are scored in slice order; on equal scores the earlier one wins.
	Vocabularies []Vocabulary
}

// DefaultTypes maps frontmatter `type` values to categories.
func DefaultTypes() map[string]Category {
	return map[string]Category{
		"design":    SystemDesign,
		"execution": SystemExecution,
		"as-built":  SystemAsBuilts,
		"plan":      SystemPlans,
		"vision":    SystemVision,
		"roadmap":   SystemRoadmap,
		"feature":   UserFeatures,
		"guide":     UserGuides,
		"api":       UserAPI,
	}
}

// DefaultPrefixes is checked in order; the first matching prefix wins.
func DefaultPrefixes() []Prefix {
	return []Prefix{
		{Prefix: "INDEX-", Target: SystemPlans},
		{Prefix: "design-", Target: SystemDesign},
		{Prefix: "execution-", Target: SystemExecution},
		{Prefix: "as-built-", Target: SystemAsBuilts},
		{Prefix: "plan-", Target: SystemPlans},
		{Prefix: "debug-", Target: SystemExecution},
		{Prefix: "realign-", Target: SystemExecution},
	}
}

// DefaultVocabularies lists api, user, system in that order. The order is a
// tie-break policy carried over for parity, not a property of the data.
func DefaultVocabularies() []Vocabulary {
	return []Vocabulary{
		{
			Name:   "api",
			Target: UserAPI,
			Weight: 1,
			Terms: []string{
				"endpoint", "request body", "response", "payload", "status code",
				"query parameter", "rest api", "graphql", "json schema", "http method",
			},
		},
		{
			Name:   "user",
			Target: UserGuides,
			Weight: 1,
			Terms: []string{
				"how to", "step-by-step", "tutorial", "getting started", "walkthrough",
				"click", "you can", "navigate to", "user guide", "faq",
			},
		},
		{
			Name:   "system",
			Target: SystemDesign,
			Weight: 1,
			Terms: []string{
				"architecture", "implementation", "internal", "database schema", "migration",
				"refactor", "technical debt", "infrastructure", "root cause", "deployment",
			},
		},
	}
}

// Default returns fresh copies of the built-in tables.
func Default() Tables {
	return Tables{
		Types:        DefaultTypes(),
		Prefixes:     DefaultPrefixes(),
		Vocabularies: DefaultVocabularies(),
	}
}

// SystemPrefixes are the filename prefixes that only make sense in the system tree.
func SystemPrefixes() []string {
	return []string{"design-", "execution-", "as-built-", "plan-", "debug-", "realign-"}
}
