package models

// SubLink is a secondary link listed under a search result.
type SubLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// SearchResult is one enriched result produced by the classifier.
type SearchResult struct {
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Snippet   string    `json:"snippet"`
	Source    string    `json:"source"`
	KeyPoints []string  `json:"keyPoints"`
	SubLinks  []SubLink `json:"subLinks"`
}

// RiskAssessment is the safety verdict for one piece of input.
// Once built it is treated as immutable; use Normalize before handing it out.
type RiskAssessment struct {
	IsSafe         bool                `json:"isSafe"`
	RiskLevel      RiskLevel           `json:"riskLevel"`
	Sophistication SophisticationLevel `json:"sophistication"`
	Reason         string              `json:"reason"`
	GuideSummary   string              `json:"guideSummary,omitempty"`
	SearchResults  []SearchResult      `json:"searchResults"`

	// Degraded marks the synthesized assessment returned when no classifier
	// could be reached. It is never set by a classifier response.
	Degraded bool `json:"degraded,omitempty"`
}

// Normalize enforces the unsafe-means-empty invariant: an unsafe verdict
// carries neither results nor a guide summary.
func (a *RiskAssessment) Normalize() {
	if !a.IsSafe {
		a.SearchResults = []SearchResult{}
		a.GuideSummary = ""
	}
	if a.SearchResults == nil {
		a.SearchResults = []SearchResult{}
	}
}
