package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"safebrowse/internal/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrUnknownCollection = errors.New("unknown collection")
)

// Collection names one append-only log.
type Collection string

const (
	CollectionActivities Collection = "activities"
	CollectionAlerts     Collection = "alerts"
)

// ParseCollection validates a collection name from a URL or flag.
func ParseCollection(s string) (Collection, error) {
	switch c := Collection(s); c {
	case CollectionActivities, CollectionAlerts:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCollection, s)
}

// Record is one entry of either collection. Exactly one of Activity and
// Alert is set.
type Record struct {
	Collection Collection       `json:"collection"`
	Activity   *models.Activity `json:"activity,omitempty"`
	Alert      *models.AlertLog `json:"alert,omitempty"`
}

func ActivityRecord(a models.Activity) Record {
	return Record{Collection: CollectionActivities, Activity: &a}
}

func AlertRecord(l models.AlertLog) Record {
	return Record{Collection: CollectionAlerts, Alert: &l}
}

// ID returns the id of whichever entry the record carries.
func (r Record) ID() string {
	switch {
	case r.Activity != nil:
		return r.Activity.ID
	case r.Alert != nil:
		return r.Alert.ID
	}
	return ""
}

// Timestamp returns the time of whichever entry the record carries.
func (r Record) Timestamp() time.Time {
	switch {
	case r.Activity != nil:
		return r.Activity.Timestamp
	case r.Alert != nil:
		return r.Alert.Timestamp
	}
	return time.Time{}
}

func (r Record) validate() error {
	switch r.Collection {
	case CollectionActivities:
		if r.Activity == nil {
			return fmt.Errorf("activities record has no activity")
		}
	case CollectionAlerts:
		if r.Alert == nil {
			return fmt.Errorf("alerts record has no alert")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCollection, r.Collection)
	}
	return nil
}

// Stats summarises both collections for the dashboard.
type Stats struct {
	TotalActivities int                      `json:"totalActivities"`
	ByRiskLevel     map[models.RiskLevel]int `json:"byRiskLevel"`
	Blocked         int                      `json:"blocked"`
	Unverified      int                      `json:"unverified"`
	Alerts          int                      `json:"alerts"`
}

// Store is the external log store. Entries are only ever appended.
type Store interface {
	Append(ctx context.Context, rec Record) error
	// Last returns up to limit entries, newest last.
	Last(ctx context.Context, c Collection, limit int) ([]Record, error)
	// SubscribeLast emits the last limit entries and then every new append
	// until ctx ends, at which point the channel is closed. A reader that
	// falls too far behind also sees the channel close and should
	// resubscribe.
	SubscribeLast(ctx context.Context, c Collection, limit int) (<-chan Record, error)
	Activity(ctx context.Context, id string) (models.Activity, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}
