package gemini

import (
	"testing"

	"safebrowse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const safePayload = `{
  "isSafe": true,
  "riskLevel": "LOW",
  "sophistication": "ELEMENTARY",
  "reason": "Gaming advice",
  "guideSummary": "",
  "searchResults": [
    {
      "title": "Fortnite Beginner Guide",
      "url": "https://example.com/fortnite",
      "snippet": "Tips for new players",
      "source": "example.com",
      "keyPoints": ["Build early", "Stay in the zone"],
      "subLinks": [{"title": "Weapons", "url": "https://example.com/fortnite/loadouts"}]
    }
  ]
}`

func TestParseAssessment(t *testing.T) {
	a, err := ParseAssessment(safePayload)
	require.NoError(t, err)

	assert.True(t, a.IsSafe)
	assert.Equal(t, models.RiskLow, a.RiskLevel)
	assert.Equal(t, models.SophisticationElementary, a.Sophistication)
	require.Len(t, a.SearchResults, 1)
	assert.Equal(t, []string{"Build early", "Stay in the zone"}, a.SearchResults[0].KeyPoints)
	require.Len(t, a.SearchResults[0].SubLinks, 1)
	assert.False(t, a.Degraded)
}

func TestParseAssessmentStripsFences(t *testing.T) {
	a, err := ParseAssessment("```json\n" + safePayload + "\n```")
	require.NoError(t, err)
	assert.Equal(t, "Gaming advice", a.Reason)
}

func TestParseAssessmentUnsafeClearsResults(t *testing.T) {
	a, err := ParseAssessment(`{"isSafe": false, "riskLevel": "HIGH", "sophistication": "ADOLESCENT",
		"reason": "Adult content", "guideSummary": "ignored",
		"searchResults": [{"title": "t", "url": "https://u", "snippet": "", "source": ""}]}`)
	require.NoError(t, err)
	assert.False(t, a.IsSafe)
	assert.Empty(t, a.SearchResults)
	assert.Empty(t, a.GuideSummary)
}

func TestParseAssessmentRejectsSchemaViolations(t *testing.T) {
	cases := map[string]string{
		"not json":          `I think it's fine`,
		"missing isSafe":    `{"riskLevel": "LOW", "sophistication": "ELEMENTARY", "reason": "r", "searchResults": []}`,
		"bad risk":          `{"isSafe": true, "riskLevel": "NONE", "sophistication": "ELEMENTARY", "reason": "r", "searchResults": []}`,
		"bad sophistication": `{"isSafe": true, "riskLevel": "LOW", "sophistication": "GENIUS", "reason": "r", "searchResults": []}`,
		"empty reason":      `{"isSafe": true, "riskLevel": "LOW", "sophistication": "ELEMENTARY", "reason": " ", "searchResults": []}`,
		"missing results":   `{"isSafe": true, "riskLevel": "LOW", "sophistication": "ELEMENTARY", "reason": "r"}`,
		"string boolean":    `{"isSafe": "yes", "riskLevel": "LOW", "sophistication": "ELEMENTARY", "reason": "r", "searchResults": []}`,
		"unknown field":     `{"isSafe": true, "riskLevel": "LOW", "sophistication": "ELEMENTARY", "reason": "r", "searchResults": [], "degraded": true}`,
		"result lacks url":  `{"isSafe": true, "riskLevel": "LOW", "sophistication": "ELEMENTARY", "reason": "r", "searchResults": [{"title": "t"}]}`,
		"trailing object":   `{"isSafe": true, "riskLevel": "LOW", "sophistication": "ELEMENTARY", "reason": "r", "searchResults": []} {}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseAssessment(payload)
			assert.ErrorIs(t, err, ErrInvalidResponse)
		})
	}
}

func TestResponseSchemaRequiredFields(t *testing.T) {
	s := ResponseSchema()
	assert.ElementsMatch(t, []string{"isSafe", "riskLevel", "sophistication", "reason", "searchResults"}, s.Required)
	assert.Equal(t, []string{"LOW", "MEDIUM", "HIGH"}, s.Properties["riskLevel"].Enum)
}
