package gemini

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"safebrowse/internal/models"
)

// ErrInvalidResponse wraps every parse or schema failure of a model payload.
var ErrInvalidResponse = errors.New("invalid classifier response")

type wireLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type wireResult struct {
	Title     string     `json:"title"`
	URL       string     `json:"url"`
	Snippet   string     `json:"snippet"`
	Source    string     `json:"source"`
	KeyPoints []string   `json:"keyPoints"`
	SubLinks  []wireLink `json:"subLinks"`
}

type wireAssessment struct {
	IsSafe         *bool         `json:"isSafe"`
	RiskLevel      string        `json:"riskLevel"`
	Sophistication string        `json:"sophistication"`
	Reason         string        `json:"reason"`
	GuideSummary   string        `json:"guideSummary"`
	SearchResults  *[]wireResult `json:"searchResults"`
}

// CleanJSON strips markdown code fences some models wrap around JSON output.
func CleanJSON(raw string) string {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}

// ParseAssessment decodes a model payload into a RiskAssessment, rejecting
// anything outside the response schema.
func ParseAssessment(raw string) (*models.RiskAssessment, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(CleanJSON(raw))))
	dec.DisallowUnknownFields()

	var w wireAssessment
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after object", ErrInvalidResponse)
	}

	if w.IsSafe == nil {
		return nil, fmt.Errorf("%w: missing isSafe", ErrInvalidResponse)
	}
	risk, err := models.ParseRiskLevel(w.RiskLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	soph := models.SophisticationLevel(w.Sophistication)
	if !soph.Valid() {
		return nil, fmt.Errorf("%w: unknown sophistication %q", ErrInvalidResponse, w.Sophistication)
	}
	if strings.TrimSpace(w.Reason) == "" {
		return nil, fmt.Errorf("%w: empty reason", ErrInvalidResponse)
	}
	if w.SearchResults == nil {
		return nil, fmt.Errorf("%w: missing searchResults", ErrInvalidResponse)
	}

	results := make([]models.SearchResult, 0, len(*w.SearchResults))
	for i, r := range *w.SearchResults {
		if r.Title == "" || r.URL == "" {
			return nil, fmt.Errorf("%w: search result %d lacks title or url", ErrInvalidResponse, i)
		}
		links := make([]models.SubLink, 0, len(r.SubLinks))
		for _, l := range r.SubLinks {
			links = append(links, models.SubLink{Title: l.Title, URL: l.URL})
		}
		keyPoints := r.KeyPoints
		if keyPoints == nil {
			keyPoints = []string{}
		}
		results = append(results, models.SearchResult{
			Title:     r.Title,
			URL:       r.URL,
			Snippet:   r.Snippet,
			Source:    r.Source,
			KeyPoints: keyPoints,
			SubLinks:  links,
		})
	}

	a := &models.RiskAssessment{
		IsSafe:         *w.IsSafe,
		RiskLevel:      risk,
		Sophistication: soph,
		Reason:         w.Reason,
		GuideSummary:   w.GuideSummary,
		SearchResults:  results,
	}
	a.Normalize()
	return a, nil
}
