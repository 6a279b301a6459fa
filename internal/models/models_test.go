package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskLevelOrdering(t *testing.T) {
	assert.Equal(t, 0, RiskLow.Ordinal())
	assert.Equal(t, 1, RiskMedium.Ordinal())
	assert.Equal(t, 2, RiskHigh.Ordinal())
	assert.Equal(t, -1, RiskLevel("EXTREME").Ordinal())

	assert.True(t, RiskHigh.AtLeast(RiskMedium))
	assert.True(t, RiskMedium.AtLeast(RiskMedium))
	assert.False(t, RiskLow.AtLeast(RiskMedium))
}

func TestParseRiskLevel(t *testing.T) {
	r, err := ParseRiskLevel("HIGH")
	require.NoError(t, err)
	assert.Equal(t, RiskHigh, r)

	_, err = ParseRiskLevel("high")
	assert.Error(t, err)
}

func TestNormalizeClearsUnsafe(t *testing.T) {
	a := RiskAssessment{
		IsSafe:        false,
		RiskLevel:     RiskHigh,
		Reason:        "blocked",
		GuideSummary:  "should vanish",
		SearchResults: []SearchResult{{Title: "x", URL: "https://x"}},
	}
	a.Normalize()
	assert.Empty(t, a.SearchResults)
	assert.NotNil(t, a.SearchResults)
	assert.Empty(t, a.GuideSummary)
}

func TestNewActivity(t *testing.T) {
	now := time.Now()

	allowed := NewActivity(KindSearch, "fortnite tips", RiskAssessment{
		IsSafe: true, RiskLevel: RiskLow, Sophistication: SophisticationElementary, Reason: "ok",
	}, now)
	assert.Equal(t, StatusAllowed, allowed.Status)
	assert.True(t, allowed.Verified)
	assert.Equal(t, now, allowed.Timestamp)
	assert.NotEmpty(t, allowed.ID)

	blocked := NewActivity(KindVisit, "casino.com", RiskAssessment{
		IsSafe: false, RiskLevel: RiskHigh, Sophistication: SophisticationAdolescent, Reason: "no",
	}, now)
	assert.Equal(t, StatusBlocked, blocked.Status)
	assert.NotEqual(t, allowed.ID, blocked.ID)

	degraded := NewActivity(KindSearch, "x", RiskAssessment{IsSafe: true, RiskLevel: RiskLow, Degraded: true}, now)
	assert.Equal(t, StatusAllowed, degraded.Status)
	assert.False(t, degraded.Verified)
}

func TestThemeCycle(t *testing.T) {
	assert.Equal(t, ThemeGlassLight, ThemeStandard.Next())
	assert.Equal(t, ThemeGlassDark, ThemeGlassLight.Next())
	assert.Equal(t, ThemeStandard, ThemeGlassDark.Next())
	assert.Equal(t, ThemeStandard, Theme("neon").Next())
}

func TestAlertSettingsValidate(t *testing.T) {
	require.NoError(t, DefaultAlertSettings().Validate())

	s := DefaultAlertSettings()
	s.MinRiskLevel = "SEVERE"
	assert.Error(t, s.Validate())

	s = DefaultAlertSettings()
	s.PhoneNumber = ""
	assert.Error(t, s.Validate())

	s.SMSEnabled = false
	assert.NoError(t, s.Validate())
}
