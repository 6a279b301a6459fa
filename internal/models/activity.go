package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityKind is the navigation intent that produced an Activity.
type ActivityKind string

const (
	KindSearch ActivityKind = "search"
	KindVisit  ActivityKind = "visit"
)

// Valid reports whether k is search or visit.
func (k ActivityKind) Valid() bool {
	return k == KindSearch || k == KindVisit
}

// ActivityStatus is the gate decision recorded for a navigation.
type ActivityStatus string

const (
	StatusAllowed ActivityStatus = "allowed"
	StatusBlocked ActivityStatus = "blocked"
)

// Activity is the durable record of one completed navigation attempt.
type Activity struct {
	ID             string              `json:"id" db:"id"`
	Timestamp      time.Time           `json:"timestamp" db:"timestamp"`
	Kind           ActivityKind        `json:"type" db:"kind"`
	Content        string              `json:"content" db:"content"`
	RiskLevel      RiskLevel           `json:"riskLevel" db:"risk_level"`
	Sophistication SophisticationLevel `json:"sophistication" db:"sophistication"`
	Status         ActivityStatus      `json:"status" db:"status"`
	Reason         string              `json:"reason" db:"reason"`
	// Verified is false when the verdict is the classifier-unavailable default.
	Verified bool `json:"verified" db:"verified"`
}

// NewActivity builds the record for an assessment. Status is allowed iff the
// assessment is safe.
func NewActivity(kind ActivityKind, content string, a RiskAssessment, now time.Time) Activity {
	status := StatusBlocked
	if a.IsSafe {
		status = StatusAllowed
	}
	return Activity{
		ID:             NewID(),
		Timestamp:      now,
		Kind:           kind,
		Content:        content,
		RiskLevel:      a.RiskLevel,
		Sophistication: a.Sophistication,
		Status:         status,
		Reason:         a.Reason,
		Verified:       !a.Degraded,
	}
}

// AlertMethod is the channel an alert log entry was raised on.
type AlertMethod string

const (
	MethodApp   AlertMethod = "APP"
	MethodSMS   AlertMethod = "SMS"
	MethodSound AlertMethod = "SOUND"
)

// AlertLog is one append-only alert entry raised by the alert policy.
type AlertLog struct {
	ID         string      `json:"id" db:"id"`
	Timestamp  time.Time   `json:"timestamp" db:"timestamp"`
	Message    string      `json:"message" db:"message"`
	Method     AlertMethod `json:"method" db:"method"`
	RiskLevel  RiskLevel   `json:"riskLevel" db:"risk_level"`
	ActivityID string      `json:"activityId,omitempty" db:"activity_id"`
}

// NewID returns a time-ordered UUIDv7, falling back to a random v4.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
