// Package openai talks to OpenAI-compatible chat completion APIs (Groq, OpenRouter).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"safebrowse/internal/gemini"
	"safebrowse/internal/models"

	"go.uber.org/zap"
)

// Preset holds the endpoint defaults of a known vendor.
type Preset struct {
	BaseURL string
	Model   string
	Headers map[string]string
}

// Presets maps provider types to their endpoints.
var Presets = map[string]Preset{
	"groq": {
		BaseURL: "https://api.groq.com/openai/v1",
		Model:   "llama-3.3-70b-versatile",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "meta-llama/llama-3.3-70b-instruct:free",
		Headers: map[string]string{
			"HTTP-Referer": "https://github.com/safebrowse",
			"X-Title":      "Safe Browse",
		},
	},
}

// Client is a single-credential chat completions client.
type Client struct {
	apiKey     string
	baseURL    string
	modelName  string
	headers    map[string]string
	name       string
	vendor     string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds configuration for a chat completions client.
type Config struct {
	// Vendor selects a preset: "groq" or "openrouter".
	Vendor    string
	APIKey    string
	ModelName string
	BaseURL   string
	Name      string
	Timeout   time.Duration
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	Stream         bool           `json:"stream"`
	Temperature    float32        `json:"temperature,omitempty"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// NewClient creates a new chat completions client
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key is required", cfg.Vendor)
	}

	preset, ok := Presets[cfg.Vendor]
	if !ok && cfg.BaseURL == "" {
		return nil, fmt.Errorf("unknown vendor %q and no base_url given", cfg.Vendor)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = preset.BaseURL
	}
	if cfg.ModelName == "" {
		cfg.ModelName = preset.Model
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%s model name is required", cfg.Vendor)
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Vendor
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger.Info("Chat completions client initialized",
		zap.String("name", cfg.Name),
		zap.String("vendor", cfg.Vendor),
		zap.String("model", cfg.ModelName))

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		modelName:  cfg.ModelName,
		headers:    preset.Headers,
		name:       cfg.Name,
		vendor:     cfg.Vendor,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

// Name returns the credential slot name.
func (c *Client) Name() string {
	return c.name
}

// Close is a no-op; the HTTP client holds no long-lived resources.
func (c *Client) Close() error {
	return nil
}

// Classify performs one chat completion round trip and parses the assessment.
func (c *Client) Classify(ctx context.Context, input string) (*models.RiskAssessment, error) {
	reqBody := chatRequest{
		Model: c.modelName,
		Messages: []chatMessage{
			{Role: "system", Content: gemini.SystemInstruction},
			{Role: "user", Content: gemini.BuildPrompt(input)},
		},
		Temperature:    0.2,
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", c.vendor, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Chat completions API error",
			zap.String("name", c.name),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, fmt.Errorf("%s API returned status %d", c.vendor, resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from %s", c.vendor)
	}

	result, err := gemini.ParseAssessment(chatResp.Choices[0].Message.Content)
	if err != nil {
		c.logger.Error("Failed to parse chat completions response",
			zap.String("name", c.name),
			zap.Error(err))
		return nil, err
	}

	c.logger.Debug("Chat completions assessment received",
		zap.String("name", c.name),
		zap.String("risk_level", string(result.RiskLevel)))

	return result, nil
}

// GetModelInfo returns model information
func (c *Client) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"provider": c.vendor,
		"name":     c.name,
		"model":    c.modelName,
		"base_url": c.baseURL,
	}
}
