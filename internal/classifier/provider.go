package classifier

import (
	"context"
	"fmt"

	"safebrowse/internal/gemini"
	"safebrowse/internal/models"
	"safebrowse/internal/openai"

	"go.uber.org/zap"
)

// ProviderType represents the type of classification backend
type ProviderType string

const (
	ProviderGemini     ProviderType = "gemini"
	ProviderGroq       ProviderType = "groq"
	ProviderOpenRouter ProviderType = "openrouter"
)

// ProviderConfig holds configuration for one credential slot
type ProviderConfig struct {
	Type      ProviderType `yaml:"type"`
	Name      string       `yaml:"name"`
	APIKey    string       `yaml:"api_key"`
	ModelName string       `yaml:"model_name"`
	BaseURL   string       `yaml:"base_url"`
	// Rate limiting per provider
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// Provider is one credential slot of the external classification service.
// Classify performs a single attempt; any failure is returned as an error.
type Provider interface {
	Name() string
	Classify(ctx context.Context, input string) (*models.RiskAssessment, error)
	Close() error
}

// NewProviders builds the ordered credential chain. Slots with an empty key
// are skipped so an unset secondary simply shortens the chain.
func NewProviders(cfgs []ProviderConfig, logger *zap.Logger) ([]Provider, error) {
	providers := make([]Provider, 0, len(cfgs))

	for i, pc := range cfgs {
		if pc.APIKey == "" {
			logger.Warn("Provider has no credential, skipping",
				zap.String("type", string(pc.Type)),
				zap.Int("index", i))
			continue
		}
		if pc.Name == "" {
			pc.Name = fmt.Sprintf("%s-%d", pc.Type, i)
		}

		var (
			p   Provider
			err error
		)
		switch pc.Type {
		case ProviderGemini:
			p, err = gemini.NewClient(gemini.Config{
				APIKey:    pc.APIKey,
				ModelName: pc.ModelName,
				Name:      pc.Name,
				Endpoint:  pc.BaseURL,
			}, logger)
		case ProviderGroq, ProviderOpenRouter:
			p, err = openai.NewClient(openai.Config{
				Vendor:    string(pc.Type),
				APIKey:    pc.APIKey,
				ModelName: pc.ModelName,
				BaseURL:   pc.BaseURL,
				Name:      pc.Name,
			}, logger)
		default:
			err = fmt.Errorf("unknown provider type %q", pc.Type)
		}
		if err != nil {
			closeAll(providers, logger)
			return nil, fmt.Errorf("provider %d: %w", i, err)
		}

		rpm := pc.RequestsPerMinute
		if rpm == 0 {
			rpm = 8 // Conservative default for free tier
		}
		providers = append(providers, NewRateLimitedProvider(p, rpm))

		logger.Info("Provider initialized",
			zap.String("type", string(pc.Type)),
			zap.String("name", pc.Name),
			zap.Int("rate_limit", rpm),
			zap.Int("index", i))
	}

	return providers, nil
}

func closeAll(providers []Provider, logger *zap.Logger) {
	for _, p := range providers {
		if err := p.Close(); err != nil {
			logger.Error("Failed to close provider", zap.String("name", p.Name()), zap.Error(err))
		}
	}
}
