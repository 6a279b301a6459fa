// Package guard is the local lexical screen applied before any classifier call.
package guard

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"safebrowse/internal/models"

	"gopkg.in/yaml.v3"
)

// Guard matches input against a fixed denylist. It performs no I/O after
// construction and is safe for concurrent use.
type Guard struct {
	pattern    *regexp.Regexp
	categories map[string]string
}

// Match describes the denylisted term found in an input.
type Match struct {
	Term     string
	Category string
}

// New compiles a Guard from terms grouped by category.
func New(terms map[string][]string) (*Guard, error) {
	categories := make(map[string]string)
	for category, list := range terms {
		for _, term := range list {
			term = strings.ToLower(strings.TrimSpace(term))
			if term == "" {
				continue
			}
			categories[term] = category
		}
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("guard: denylist is empty")
	}

	all := make([]string, 0, len(categories))
	for term := range categories {
		all = append(all, term)
	}
	// Longest first so "sexy" wins over "sex" and phrases over their words.
	sort.Slice(all, func(i, j int) bool {
		if len(all[i]) != len(all[j]) {
			return len(all[i]) > len(all[j])
		}
		return all[i] < all[j]
	})

	alts := make([]string, len(all))
	for i, term := range all {
		alts[i] = strings.Join(strings.Fields(regexp.QuoteMeta(term)), `\s+`)
	}
	// RE2's \b is ASCII-only, so boundaries are spelled out over Unicode
	// letters and digits.
	re, err := regexp.Compile(`(?:^|[^\p{L}\p{N}_])(` + strings.Join(alts, "|") + `)(?:e?s)?(?:$|[^\p{L}\p{N}_])`)
	if err != nil {
		return nil, fmt.Errorf("guard: compile denylist: %w", err)
	}

	return &Guard{pattern: re, categories: categories}, nil
}

// NewDefault builds a Guard from DefaultTerms.
func NewDefault() *Guard {
	g, err := New(DefaultTerms)
	if err != nil {
		panic(err)
	}
	return g
}

// Load reads extra terms from a YAML file (category -> list of terms) and
// merges them over the defaults. An empty path returns the defaults.
func Load(path string) (*Guard, error) {
	if path == "" {
		return NewDefault(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read denylist file: %w", err)
	}

	var extra map[string][]string
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("failed to decode denylist file: %w", err)
	}

	merged := make(map[string][]string, len(DefaultTerms)+len(extra))
	for category, list := range DefaultTerms {
		merged[category] = append([]string(nil), list...)
	}
	for category, list := range extra {
		merged[category] = append(merged[category], list...)
	}
	return New(merged)
}

// Find returns the leftmost denylisted term in input, if any.
func (g *Guard) Find(input string) (Match, bool) {
	m := g.pattern.FindStringSubmatch(strings.ToLower(input))
	if m == nil {
		return Match{}, false
	}
	term := strings.Join(strings.Fields(m[1]), " ")
	return Match{Term: term, Category: g.categories[term]}, true
}

// Check returns a terminal HIGH-risk assessment when input contains a
// denylisted term, or nil when the classifier should decide.
func (g *Guard) Check(input string) *models.RiskAssessment {
	match, ok := g.Find(input)
	if !ok {
		return nil
	}
	return &models.RiskAssessment{
		IsSafe:         false,
		RiskLevel:      models.RiskHigh,
		Sophistication: models.SophisticationAdolescent,
		Reason: fmt.Sprintf("Local guard intercepted a restricted term: %q (%s). Access denied for user safety.",
			match.Term, match.Category),
		SearchResults: []models.SearchResult{},
	}
}
