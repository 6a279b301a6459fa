package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"safebrowse/internal/classifier"
	"safebrowse/internal/gate"
	"safebrowse/internal/models"

	"gopkg.in/yaml.v3"
)

const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config holds application configuration
type Config struct {
	Server struct {
		Port            string        `yaml:"port"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Log struct {
		Level       string `yaml:"level"` // debug, info, warn, error
		Development bool   `yaml:"development"`
	} `yaml:"log"`

	Classifier struct {
		// Ordered credential chain; the first entry is the primary.
		Providers []classifier.ProviderConfig `yaml:"providers"`
		Timeout   time.Duration               `yaml:"timeout"`

		// Legacy two-key form, used when providers is empty
		PrimaryKey   string `yaml:"primary_key"`
		SecondaryKey string `yaml:"secondary_key"`
		ModelName    string `yaml:"model_name"`
	} `yaml:"classifier"`

	Guard struct {
		DenylistPath string `yaml:"denylist_path"`
	} `yaml:"guard"`

	Gate struct {
		Mode       gate.Mode     `yaml:"mode"`
		Timeout    time.Duration `yaml:"timeout"`
		SessionTTL time.Duration `yaml:"session_ttl"`
	} `yaml:"gate"`

	Store struct {
		Driver string `yaml:"driver"` // "sqlite" or "postgres"
		Path   string `yaml:"path"`   // SQLite file
		URL    string `yaml:"url"`    // PostgreSQL DSN
	} `yaml:"store"`

	Alerts models.AlertSettings `yaml:"alerts"`

	Recorder struct {
		QueueSize  int           `yaml:"queue_size"`
		Attempts   int           `yaml:"attempts"`
		RetryPause time.Duration `yaml:"retry_pause"`
	} `yaml:"recorder"`

	Parental struct {
		PIN       string        `yaml:"pin"`
		JWTSecret string        `yaml:"jwt_secret"`
		TokenTTL  time.Duration `yaml:"token_ttl"`
	} `yaml:"parental"`

	Telegram struct {
		Enabled  bool   `yaml:"enabled"`
		BotToken string `yaml:"bot_token"`
		ChatID   int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
}

// LoadConfig loads configuration from YAML file
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.applyDefaults()
	config.expandEnv()
	config.expandLegacyKeys()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Default returns the configuration used when a field is left unset.
func Default() *Config {
	config := &Config{Alerts: models.DefaultAlertSettings()}
	config.applyDefaults()
	return config
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Classifier.Timeout == 0 {
		c.Classifier.Timeout = classifier.DefaultTimeout
	}

	if c.Gate.Mode == "" {
		c.Gate.Mode = gate.ModeSupersede
	}
	if c.Gate.SessionTTL == 0 {
		c.Gate.SessionTTL = time.Hour
	}

	if c.Store.Driver == "" {
		c.Store.Driver = StoreSQLite
	}
	if c.Store.Path == "" {
		c.Store.Path = "./data/safebrowse.db"
	}

	if c.Recorder.Attempts == 0 {
		c.Recorder.Attempts = 3
	}
	if c.Recorder.RetryPause == 0 {
		c.Recorder.RetryPause = 200 * time.Millisecond
	}

	if c.Parental.TokenTTL == 0 {
		c.Parental.TokenTTL = 12 * time.Hour
	}
}

// Expand environment variables in every secret
func (c *Config) expandEnv() {
	for i := range c.Classifier.Providers {
		c.Classifier.Providers[i].APIKey = os.ExpandEnv(c.Classifier.Providers[i].APIKey)
	}
	c.Classifier.PrimaryKey = os.ExpandEnv(c.Classifier.PrimaryKey)
	c.Classifier.SecondaryKey = os.ExpandEnv(c.Classifier.SecondaryKey)
	c.Store.URL = os.ExpandEnv(c.Store.URL)
	c.Parental.PIN = os.ExpandEnv(c.Parental.PIN)
	c.Parental.JWTSecret = os.ExpandEnv(c.Parental.JWTSecret)
	c.Telegram.BotToken = os.ExpandEnv(c.Telegram.BotToken)
}

// expandLegacyKeys turns primary_key/secondary_key into two Gemini slots.
func (c *Config) expandLegacyKeys() {
	if len(c.Classifier.Providers) > 0 {
		return
	}
	for i, key := range []string{c.Classifier.PrimaryKey, c.Classifier.SecondaryKey} {
		if key == "" {
			continue
		}
		name := "primary"
		if i == 1 {
			name = "secondary"
		}
		c.Classifier.Providers = append(c.Classifier.Providers, classifier.ProviderConfig{
			Type:      classifier.ProviderGemini,
			Name:      name,
			APIKey:    key,
			ModelName: c.Classifier.ModelName,
		})
	}
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreSQLite:
	case StorePostgres:
		if c.Store.URL == "" {
			return fmt.Errorf("store.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.Gate.Mode != gate.ModeSupersede && c.Gate.Mode != gate.ModeReject {
		return fmt.Errorf("unknown gate mode %q", c.Gate.Mode)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}

	if err := c.Alerts.Validate(); err != nil {
		return fmt.Errorf("alerts: %w", err)
	}

	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == 0) {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id are required when telegram is enabled")
	}
	return nil
}
