package guard

import (
	"os"
	"path/filepath"
	"testing"

	"safebrowse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckBlocksWordBoundaryMatches(t *testing.T) {
	g := NewDefault()

	cases := map[string]string{
		"how to buy a gun":          "gun",
		"Where can I buy GUNS":      "gun",
		"best online casino":        "casino",
		"www.casino.com":            "casino",
		"self-harm tips":            "self-harm",
		"how do I   kill myself":    "kill myself",
		"sexy outfits":              "sexy",
		"download tor browser":      "tor",
		"anal":                      "anal",
	}
	for input, term := range cases {
		t.Run(input, func(t *testing.T) {
			a := g.Check(input)
			require.NotNil(t, a)
			assert.False(t, a.IsSafe)
			assert.Equal(t, models.RiskHigh, a.RiskLevel)
			assert.Equal(t, models.SophisticationAdolescent, a.Sophistication)
			assert.Contains(t, a.Reason, `"`+term+`"`)
			assert.Empty(t, a.SearchResults)
			assert.Empty(t, a.GuideSummary)
		})
	}
}

func TestCheckIgnoresSubstrings(t *testing.T) {
	g := NewDefault()

	for _, input := range []string{
		"fortnite tips",
		"data analysis for beginners",
		"history of the roman empire",
		"tutorial on fractions",
		"begun",
		"skills for a diet plan",
		"thanksgiving recipes",
		"",
		"   ",
	} {
		t.Run(input, func(t *testing.T) {
			assert.Nil(t, g.Check(input))
		})
	}
}

func TestCheckTreatsAccentedLettersAsWordCharacters(t *testing.T) {
	g := NewDefault()

	for _, input := range []string{"gunés", "dieß", "toré", "killé", "sexé", "análisis", "ölgun"} {
		t.Run(input, func(t *testing.T) {
			assert.Nil(t, g.Check(input))
		})
	}

	for input, term := range map[string]string{
		"über-gun":         "gun",
		"café gun":         "gun",
		"gun, señor":       "gun",
		"¿dónde hay guns?": "gun",
	} {
		t.Run(input, func(t *testing.T) {
			m, ok := g.Find(input)
			require.True(t, ok)
			assert.Equal(t, term, m.Term)
		})
	}
}

func TestFindReportsCategory(t *testing.T) {
	g := NewDefault()

	m, ok := g.Find("jackpot winners")
	require.True(t, ok)
	assert.Equal(t, "jackpot", m.Term)
	assert.Equal(t, "gambling", m.Category)
}

func TestFindLeftmost(t *testing.T) {
	g := NewDefault()

	m, ok := g.Find("poker and guns")
	require.True(t, ok)
	assert.Equal(t, "poker", m.Term)
}

func TestNewRejectsEmpty(t *testing.T) {
	_, err := New(map[string][]string{"x": {" ", ""}})
	assert.Error(t, err)
}

func TestLoadMergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "denylist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bullying:\n  - loser\n"), 0o644))

	g, err := Load(path)
	require.NoError(t, err)

	m, ok := g.Find("you are a loser")
	require.True(t, ok)
	assert.Equal(t, "bullying", m.Category)

	_, ok = g.Find("gun shop")
	assert.True(t, ok, "defaults are kept")
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	g, err := Load("")
	require.NoError(t, err)
	assert.NotNil(t, g.Check("casino"))
}
