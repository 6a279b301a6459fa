package service

import (
	"context"
	"fmt"

	"safebrowse/internal/alert"
	"safebrowse/internal/classifier"
	"safebrowse/internal/gate"
	"safebrowse/internal/models"
	"safebrowse/internal/recorder"
	"safebrowse/internal/repository"
	"safebrowse/internal/session"
	"safebrowse/internal/settings"

	"go.uber.org/zap"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// ProviderStatser exposes per-credential classifier counters.
type ProviderStatser interface {
	Stats() []classifier.ProviderStats
}

// NavigationResult is what the browser shell renders after a navigation.
type NavigationResult struct {
	Activity   models.Activity       `json:"activity"`
	Assessment models.RiskAssessment `json:"assessment"`
	Notice     *gate.BlockNotice     `json:"notice,omitempty"`
	URL        string                `json:"url,omitempty"`
	// Sound asks the dashboard to play the alert cue.
	Sound bool `json:"sound"`
}

// DashboardStats backs the parental overview.
type DashboardStats struct {
	repository.Stats
	Recorder  recorder.Stats             `json:"recorder"`
	Providers []classifier.ProviderStats `json:"providers,omitempty"`
	Sessions  int                        `json:"sessions"`
}

// Browser ties the per-session gates to the log store and parental settings.
type Browser struct {
	sessions  *session.Manager
	store     repository.Store
	settings  *settings.Store
	recorder  *recorder.Recorder
	providers ProviderStatser
	logger    *zap.Logger
}

func NewBrowser(
	sessions *session.Manager,
	store repository.Store,
	settingsStore *settings.Store,
	rec *recorder.Recorder,
	providers ProviderStatser,
	logger *zap.Logger,
) *Browser {
	return &Browser{
		sessions:  sessions,
		store:     store,
		settings:  settingsStore,
		recorder:  rec,
		providers: providers,
		logger:    logger,
	}
}

// Navigate runs one navigation through the session's gate.
func (b *Browser) Navigate(ctx context.Context, sessionID, input string, kind models.ActivityKind) (*NavigationResult, error) {
	g := b.sessions.Gate(sessionID)

	activity, assessment, err := g.Navigate(ctx, input, kind)
	if err != nil {
		return nil, err
	}

	res := &NavigationResult{
		Activity:   activity,
		Assessment: assessment,
		Sound:      alert.ShouldSound(activity, b.settings.Snapshot()),
	}
	if !assessment.IsSafe {
		res.Notice = gate.NewBlockNotice(assessment.Reason)
	} else if kind == models.KindVisit {
		res.URL = gate.DisplayURL(activity.Content)
	}
	return res, nil
}

// NavigationState returns the session's current gate state.
func (b *Browser) NavigationState(sessionID string) gate.State {
	return b.sessions.Gate(sessionID).State()
}

// SubscribeNavigation streams the session's gate states.
func (b *Browser) SubscribeNavigation(sessionID string) (<-chan gate.State, func()) {
	return b.sessions.Gate(sessionID).Subscribe()
}

func (b *Browser) Activities(ctx context.Context, limit int) ([]models.Activity, error) {
	recs, err := b.store.Last(ctx, repository.CollectionActivities, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	out := make([]models.Activity, 0, len(recs))
	for _, r := range recs {
		out = append(out, *r.Activity)
	}
	return out, nil
}

func (b *Browser) Activity(ctx context.Context, id string) (models.Activity, error) {
	return b.store.Activity(ctx, id)
}

func (b *Browser) Alerts(ctx context.Context, limit int) ([]models.AlertLog, error) {
	recs, err := b.store.Last(ctx, repository.CollectionAlerts, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	out := make([]models.AlertLog, 0, len(recs))
	for _, r := range recs {
		out = append(out, *r.Alert)
	}
	return out, nil
}

// Subscribe streams the last limit records of c and then every new one.
func (b *Browser) Subscribe(ctx context.Context, c repository.Collection, limit int) (<-chan repository.Record, error) {
	return b.store.SubscribeLast(ctx, c, clampLimit(limit))
}

func (b *Browser) Stats(ctx context.Context) (*DashboardStats, error) {
	st, err := b.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	out := &DashboardStats{
		Stats:    st,
		Recorder: b.recorder.Stats(),
		Sessions: b.sessions.Len(),
	}
	if b.providers != nil {
		out.Providers = b.providers.Stats()
	}
	return out, nil
}

func (b *Browser) Settings() models.AlertSettings {
	return b.settings.Snapshot()
}

func (b *Browser) UpdateSettings(s models.AlertSettings) error {
	return b.settings.Replace(s)
}

// SetTheme sets theme, or advances to the next one when theme is empty.
func (b *Browser) SetTheme(theme models.Theme) (models.AlertSettings, error) {
	return b.settings.SetTheme(theme)
}

// TriggerTestAlert records the synthetic test alert.
func (b *Browser) TriggerTestAlert() models.AlertLog {
	log := b.recorder.RaiseTest()
	b.logger.Info("Test alert raised", zap.String("alert_id", log.ID))
	return log
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}
