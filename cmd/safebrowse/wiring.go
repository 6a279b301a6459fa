package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"safebrowse/internal/classifier"
	"safebrowse/internal/config"
	"safebrowse/internal/repository"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// newHTTPServer derives every request context from ctx, so open SSE
// streams end as soon as shutdown begins.
func newHTTPServer(ctx context.Context, addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

// loadConfig reads the config file and builds the logger it describes.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newAdapter(cfg *config.Config, logger *zap.Logger) (*classifier.Adapter, error) {
	providers, err := classifier.NewProviders(cfg.Classifier.Providers, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize classifier providers: %w", err)
	}
	if len(providers) == 0 {
		logger.Warn("No classifier credentials configured; every navigation the guard passes will fail open")
	}
	return classifier.NewAdapter(providers, cfg.Classifier.Timeout, logger), nil
}

func newStore(cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	switch cfg.Store.Driver {
	case config.StorePostgres:
		return repository.NewPostgresStore(cfg.Store.URL, logger)
	default:
		if dir := filepath.Dir(cfg.Store.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		return repository.NewSQLiteStore(cfg.Store.Path, logger)
	}
}
