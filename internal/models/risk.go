package models

import "fmt"

// RiskLevel is the ordered safety grade of a piece of input. LOW < MEDIUM < HIGH.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// RiskLevels lists every level in ascending order.
var RiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh}

// Ordinal maps the level onto {LOW:0, MEDIUM:1, HIGH:2}. Unknown levels return -1.
func (r RiskLevel) Ordinal() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return -1
	}
}

// Valid reports whether r is one of the known levels.
func (r RiskLevel) Valid() bool {
	return r.Ordinal() >= 0
}

// AtLeast reports whether r is at or above the threshold.
func (r RiskLevel) AtLeast(threshold RiskLevel) bool {
	return r.Ordinal() >= threshold.Ordinal()
}

// ParseRiskLevel validates a raw string coming from config, HTTP or a model response.
func ParseRiskLevel(s string) (RiskLevel, error) {
	r := RiskLevel(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown risk level %q", s)
	}
	return r, nil
}

// SophisticationLevel describes the cognitive complexity of a query.
// It selects presentation tone only and never affects safety.
type SophisticationLevel string

const (
	SophisticationElementary SophisticationLevel = "ELEMENTARY"
	SophisticationAdolescent SophisticationLevel = "ADOLESCENT"
	SophisticationAcademic   SophisticationLevel = "ACADEMIC"
)

// SophisticationLevels lists every tier from simplest to most advanced.
var SophisticationLevels = []SophisticationLevel{
	SophisticationElementary,
	SophisticationAdolescent,
	SophisticationAcademic,
}

// Valid reports whether s is one of the known tiers.
func (s SophisticationLevel) Valid() bool {
	switch s {
	case SophisticationElementary, SophisticationAdolescent, SophisticationAcademic:
		return true
	}
	return false
}

// Label is the short tone name shown next to results.
func (s SophisticationLevel) Label() string {
	switch s {
	case SophisticationElementary:
		return "Simple"
	case SophisticationAcademic:
		return "Advanced"
	default:
		return "Standard"
	}
}
