// Package classifier wraps the external classification service behind an
// ordered credential chain that always yields an assessment.
package classifier

import (
	"context"
	"sync"
	"time"

	"safebrowse/internal/models"

	"go.uber.org/zap"
)

const (
	// FallbackReason is recorded when no provider produced a valid assessment.
	FallbackReason = "service unavailable, defaulted to lowest risk"
	// FallbackNotice is the degraded-mode disclosure shown with the default.
	FallbackNotice = "Safety service is temporarily unavailable. Results were not verified and default to the lowest risk; a parent can review this activity later."

	DefaultTimeout = 10 * time.Second
)

// Fallback is the fail-open assessment returned when every provider failed.
// It is safe and LOW risk by policy; Degraded lets callers tell it apart.
func Fallback() models.RiskAssessment {
	return models.RiskAssessment{
		IsSafe:         true,
		RiskLevel:      models.RiskLow,
		Sophistication: models.SophisticationElementary,
		Reason:         FallbackReason,
		GuideSummary:   FallbackNotice,
		SearchResults:  []models.SearchResult{},
		Degraded:       true,
	}
}

// ProviderStats is the health snapshot of one credential slot.
type ProviderStats struct {
	Name        string                 `json:"name"`
	Info        map[string]interface{} `json:"info,omitempty"`
	Successes   int64                  `json:"successes"`
	Failures    int64                  `json:"failures"`
	LastError   string                 `json:"lastError,omitempty"`
	LastFailure time.Time              `json:"lastFailure,omitempty"`
}

type modelInfoer interface {
	GetModelInfo() map[string]interface{}
}

// Adapter tries each provider once, in order, and falls back to the
// fail-open default when the chain is exhausted.
type Adapter struct {
	providers []Provider
	timeout   time.Duration
	logger    *zap.Logger

	mu    sync.Mutex
	stats []ProviderStats
}

// NewAdapter creates an adapter over an ordered provider chain. An empty
// chain is valid and always returns the fallback.
func NewAdapter(providers []Provider, timeout time.Duration, logger *zap.Logger) *Adapter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	stats := make([]ProviderStats, len(providers))
	for i, p := range providers {
		stats[i].Name = p.Name()
		if mi, ok := p.(modelInfoer); ok {
			stats[i].Info = mi.GetModelInfo()
		}
	}
	return &Adapter{
		providers: providers,
		timeout:   timeout,
		logger:    logger,
		stats:     stats,
	}
}

// Classify never fails. Each provider gets one attempt bounded by the
// adapter timeout; parse and schema errors count as failures.
func (a *Adapter) Classify(ctx context.Context, input string) models.RiskAssessment {
	for i, p := range a.providers {
		if ctx.Err() != nil {
			a.logger.Debug("Classification abandoned", zap.Error(ctx.Err()))
			break
		}

		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		result, err := p.Classify(callCtx, input)
		cancel()

		if err == nil && result != nil {
			a.recordSuccess(i)
			out := *result
			out.Degraded = false
			out.Normalize()
			return out
		}

		a.recordFailure(i, err)
		a.logger.Warn("Provider failed",
			zap.Int("provider_index", i),
			zap.String("provider", p.Name()),
			zap.Error(err))
	}

	a.logger.Warn("All providers failed, using fail-open default",
		zap.Int("provider_count", len(a.providers)))
	return Fallback()
}

func (a *Adapter) recordSuccess(i int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats[i].Successes++
}

func (a *Adapter) recordFailure(i int, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats[i].Failures++
	if err != nil {
		a.stats[i].LastError = err.Error()
	}
	a.stats[i].LastFailure = time.Now()
}

// Stats returns a copy of the per-provider counters.
func (a *Adapter) Stats() []ProviderStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]ProviderStats, len(a.stats))
	copy(out, a.stats)
	return out
}

// Close closes all providers
func (a *Adapter) Close() error {
	var lastErr error
	for i, p := range a.providers {
		if err := p.Close(); err != nil {
			a.logger.Error("Failed to close provider",
				zap.Int("index", i),
				zap.Error(err))
			lastErr = err
		}
	}
	return lastErr
}
