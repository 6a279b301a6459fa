package models

import "fmt"

// Theme is the browser chrome style chosen on the parental surface.
type Theme string

const (
	ThemeStandard   Theme = "standard"
	ThemeGlassLight Theme = "glass-light"
	ThemeGlassDark  Theme = "glass-dark"
)

var themeCycle = []Theme{ThemeStandard, ThemeGlassLight, ThemeGlassDark}

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	for _, c := range themeCycle {
		if c == t {
			return true
		}
	}
	return false
}

// Next returns the theme that follows t in the cycle. Unknown themes restart at standard.
func (t Theme) Next() Theme {
	for i, c := range themeCycle {
		if c == t {
			return themeCycle[(i+1)%len(themeCycle)]
		}
	}
	return ThemeStandard
}

// AlertSettings is the parental alert configuration.
type AlertSettings struct {
	MinRiskLevel RiskLevel `json:"minRiskLevel" yaml:"min_risk_level"`
	SoundEnabled bool      `json:"soundEnabled" yaml:"sound_enabled"`
	SMSEnabled   bool      `json:"smsEnabled" yaml:"sms_enabled"`
	PhoneNumber  string    `json:"phoneNumber" yaml:"phone_number"`
	Theme        Theme     `json:"theme" yaml:"theme"`
}

// DefaultAlertSettings mirrors the out-of-the-box parental configuration.
func DefaultAlertSettings() AlertSettings {
	return AlertSettings{
		MinRiskLevel: RiskMedium,
		SoundEnabled: true,
		SMSEnabled:   true,
		PhoneNumber:  "+1 555-0199",
		Theme:        ThemeStandard,
	}
}

// Validate checks the settings before they replace the current snapshot.
func (s AlertSettings) Validate() error {
	if !s.MinRiskLevel.Valid() {
		return fmt.Errorf("unknown min risk level %q", s.MinRiskLevel)
	}
	if !s.Theme.Valid() {
		return fmt.Errorf("unknown theme %q", s.Theme)
	}
	if s.SMSEnabled && s.PhoneNumber == "" {
		return fmt.Errorf("phone number is required when sms alerts are enabled")
	}
	return nil
}
