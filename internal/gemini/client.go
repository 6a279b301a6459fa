package gemini

import (
	"context"
	"fmt"

	"safebrowse/internal/models"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// DefaultModel is used when the provider config leaves the model empty.
const DefaultModel = "gemini-2.0-flash"

// Client wraps the Gemini API client
type Client struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	logger    *zap.Logger
	modelName string
	name      string
}

// Config for Gemini client
type Config struct {
	APIKey    string
	ModelName string
	// Name identifies the credential slot in logs, e.g. "gemini-primary".
	Name string
	// Endpoint overrides the API endpoint, mainly for proxies.
	Endpoint string
}

// NewClient creates a new Gemini client
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	if cfg.ModelName == "" {
		cfg.ModelName = DefaultModel
	}
	if cfg.Name == "" {
		cfg.Name = "gemini"
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	client, err := genai.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.ModelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SystemInstruction)},
	}
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:      genai.Ptr[float32](0.2),
		TopP:             genai.Ptr[float32](0.9),
		MaxOutputTokens:  genai.Ptr[int32](2048),
		ResponseMIMEType: "application/json",
		ResponseSchema:   ResponseSchema(),
	}

	logger.Info("Gemini client initialized",
		zap.String("name", cfg.Name),
		zap.String("model", cfg.ModelName))

	return &Client{
		client:    client,
		model:     model,
		logger:    logger,
		modelName: cfg.ModelName,
		name:      cfg.Name,
	}, nil
}

// Name returns the credential slot name.
func (c *Client) Name() string {
	return c.name
}

// Close closes the Gemini client
func (c *Client) Close() error {
	return c.client.Close()
}

// Classify performs exactly one GenerateContent round trip. Any transport,
// empty-response or schema failure is returned as an error.
func (c *Client) Classify(ctx context.Context, input string) (*models.RiskAssessment, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(BuildPrompt(input)))
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from gemini")
	}

	textPart, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("unexpected response type from gemini")
	}

	result, err := ParseAssessment(string(textPart))
	if err != nil {
		c.logger.Error("Failed to parse Gemini response",
			zap.String("name", c.name),
			zap.Error(err))
		return nil, err
	}

	c.logger.Debug("Gemini assessment received",
		zap.String("name", c.name),
		zap.String("risk_level", string(result.RiskLevel)),
		zap.Bool("is_safe", result.IsSafe))

	return result, nil
}

// GetModelInfo returns model information
func (c *Client) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"provider": "gemini",
		"name":     c.name,
		"model":    c.modelName,
	}
}
