package classifier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"safebrowse/internal/models"
)

// RateLimiter implements token bucket rate limiting
type RateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate time.Duration
	lastRefill time.Time
	now        func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	return &RateLimiter{
		tokens:     requestsPerMinute,
		maxTokens:  requestsPerMinute,
		refillRate: time.Minute / time.Duration(requestsPerMinute),
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// Wait blocks until a token is available or ctx ends.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		wait := rl.take()
		if wait == 0 {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// take consumes a token and returns 0, or returns how long to wait for the next one.
func (rl *RateLimiter) take() time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if refill := int(now.Sub(rl.lastRefill) / rl.refillRate); refill > 0 {
		rl.tokens += refill
		if rl.tokens > rl.maxTokens {
			rl.tokens = rl.maxTokens
		}
		rl.lastRefill = rl.lastRefill.Add(time.Duration(refill) * rl.refillRate)
	}

	if rl.tokens > 0 {
		rl.tokens--
		return 0
	}
	return rl.refillRate - now.Sub(rl.lastRefill)
}

// RateLimitedProvider wraps a provider with rate limiting
type RateLimitedProvider struct {
	provider Provider
	limiter  *RateLimiter
}

// NewRateLimitedProvider wraps a provider with rate limiting
func NewRateLimitedProvider(provider Provider, requestsPerMinute int) *RateLimitedProvider {
	return &RateLimitedProvider{
		provider: provider,
		limiter:  NewRateLimiter(requestsPerMinute),
	}
}

func (p *RateLimitedProvider) Name() string {
	return p.provider.Name()
}

func (p *RateLimitedProvider) Classify(ctx context.Context, input string) (*models.RiskAssessment, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}
	return p.provider.Classify(ctx, input)
}

// GetModelInfo forwards the wrapped provider's model info, if any.
func (p *RateLimitedProvider) GetModelInfo() map[string]interface{} {
	if mi, ok := p.provider.(modelInfoer); ok {
		return mi.GetModelInfo()
	}
	return nil
}

func (p *RateLimitedProvider) Close() error {
	return p.provider.Close()
}
