// Package alert decides which alert log entries a completed navigation raises.
package alert

import (
	"fmt"
	"time"

	"safebrowse/internal/models"
)

// Policy evaluates activities against the parental alert settings.
// It holds no mutable state; the zero value is usable and stamps entries
// with time.Now.
type Policy struct {
	Now func() time.Time
}

func (p Policy) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Fires reports whether the activity's risk meets the configured threshold.
func Fires(activity models.Activity, settings models.AlertSettings) bool {
	return activity.RiskLevel.AtLeast(settings.MinRiskLevel)
}

// Evaluate returns zero, one or two entries. The APP entry always comes
// first; an SMS entry follows only when SMS alerts are enabled.
func (p Policy) Evaluate(activity models.Activity, settings models.AlertSettings) []models.AlertLog {
	if !Fires(activity, settings) {
		return nil
	}

	ts := p.now()
	logs := []models.AlertLog{{
		ID:         models.NewID(),
		Timestamp:  ts,
		Message:    fmt.Sprintf("Internal alert: %s risk detected.", activity.RiskLevel),
		Method:     models.MethodApp,
		RiskLevel:  activity.RiskLevel,
		ActivityID: activity.ID,
	}}

	if settings.SMSEnabled {
		logs = append(logs, models.AlertLog{
			ID:        models.NewID(),
			Timestamp: ts,
			Message: fmt.Sprintf("Intercepted %s threat: %q. Dispatching alert to %s.",
				activity.RiskLevel, activity.Content, settings.PhoneNumber),
			Method:     models.MethodSMS,
			RiskLevel:  activity.RiskLevel,
			ActivityID: activity.ID,
		})
	}
	return logs
}

// ShouldSound reports whether the dashboard should play an audible cue.
// Sound is a client-side effect and never produces a log entry.
func ShouldSound(activity models.Activity, settings models.AlertSettings) bool {
	return settings.SoundEnabled && Fires(activity, settings)
}

// Test builds the synthetic entry raised from the dashboard's test button.
// It is HIGH risk, SMS method and has no underlying activity.
func (p Policy) Test(settings models.AlertSettings) models.AlertLog {
	return models.AlertLog{
		ID:        models.NewID(),
		Timestamp: p.now(),
		Message:   fmt.Sprintf("System test: this is a simulated SMS alert sent to %s.", settings.PhoneNumber),
		Method:    models.MethodSMS,
		RiskLevel: models.RiskHigh,
	}
}
