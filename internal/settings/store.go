// Package settings holds the live parental alert configuration.
package settings

import (
	"fmt"
	"sync"

	"safebrowse/internal/models"

	"go.uber.org/zap"
)

// Store guards the current AlertSettings. Readers get a copy, so a
// snapshot taken for one evaluation is never changed underneath it.
type Store struct {
	mu       sync.RWMutex
	current  models.AlertSettings
	logger   *zap.Logger
	onChange []func(models.AlertSettings)
}

// NewStore validates initial and returns a store seeded with it.
func NewStore(initial models.AlertSettings, logger *zap.Logger) (*Store, error) {
	if err := initial.Validate(); err != nil {
		return nil, fmt.Errorf("invalid alert settings: %w", err)
	}
	return &Store{current: initial, logger: logger}, nil
}

// Snapshot returns the settings as they are right now.
func (s *Store) Snapshot() models.AlertSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Replace swaps in next after validating it.
func (s *Store) Replace(next models.AlertSettings) error {
	_, err := s.update(func(models.AlertSettings) models.AlertSettings { return next })
	return err
}

// SetTheme changes only the theme. An empty theme advances to the next one
// in the cycle.
func (s *Store) SetTheme(theme models.Theme) (models.AlertSettings, error) {
	return s.update(func(cur models.AlertSettings) models.AlertSettings {
		if theme == "" {
			cur.Theme = cur.Theme.Next()
		} else {
			cur.Theme = theme
		}
		return cur
	})
}

// update applies fn to the current settings under the write lock.
func (s *Store) update(fn func(models.AlertSettings) models.AlertSettings) (models.AlertSettings, error) {
	s.mu.Lock()
	prev := s.current
	next := fn(prev)
	if err := next.Validate(); err != nil {
		s.mu.Unlock()
		return models.AlertSettings{}, fmt.Errorf("invalid alert settings: %w", err)
	}
	s.current = next
	hooks := append([]func(models.AlertSettings){}, s.onChange...)
	s.mu.Unlock()

	s.logger.Info("Alert settings updated",
		zap.String("min_risk_level", string(next.MinRiskLevel)),
		zap.Bool("sms_enabled", next.SMSEnabled),
		zap.Bool("sound_enabled", next.SoundEnabled),
		zap.String("theme", string(next.Theme)),
		zap.Bool("threshold_changed", prev.MinRiskLevel != next.MinRiskLevel))

	for _, fn := range hooks {
		fn(next)
	}
	return next, nil
}

// OnChange registers fn to run after every successful Replace.
func (s *Store) OnChange(fn func(models.AlertSettings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}
