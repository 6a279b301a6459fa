package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"safebrowse/internal/auth"
	"safebrowse/internal/gate"
	"safebrowse/internal/guard"
	"safebrowse/internal/handler"
	"safebrowse/internal/notify"
	"safebrowse/internal/recorder"
	"safebrowse/internal/service"
	"safebrowse/internal/session"
	"safebrowse/internal/settings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const sessionSweepInterval = 5 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the browser gate and parental dashboard API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Starting safebrowse", zap.String("version", version))

	denylist, err := guard.Load(cfg.Guard.DenylistPath)
	if err != nil {
		return fmt.Errorf("failed to load denylist: %w", err)
	}

	adapter, err := newAdapter(cfg, logger)
	if err != nil {
		return err
	}
	defer adapter.Close()

	store, err := newStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize log store: %w", err)
	}
	defer store.Close()

	alertSettings, err := settings.NewStore(cfg.Alerts, logger)
	if err != nil {
		return err
	}

	authService, err := auth.NewService(cfg.Parental.PIN, cfg.Parental.JWTSecret, cfg.Parental.TokenTTL, logger)
	if err != nil {
		return err
	}

	var (
		notifier notify.Notifier = notify.Nop{}
		telegram *notify.Telegram
	)
	if cfg.Telegram.Enabled {
		telegram, err = notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)
		if err != nil {
			return err
		}
		notifier = telegram
	} else {
		logger.Info("Telegram delivery is disabled; SMS alerts are only logged")
	}

	rec := recorder.New(store, alertSettings, notifier, logger,
		recorder.WithQueueSize(cfg.Recorder.QueueSize),
		recorder.WithRetry(cfg.Recorder.Attempts, cfg.Recorder.RetryPause))
	// Closed before the store so the queue drains into it.
	defer rec.Close()

	gateOpts := []gate.Option{gate.WithMode(cfg.Gate.Mode)}
	if cfg.Gate.Timeout > 0 {
		gateOpts = append(gateOpts, gate.WithTimeout(cfg.Gate.Timeout))
	}
	sessions := session.NewManager(func(id string) *gate.Gate {
		return gate.New(denylist, adapter, rec, logger.With(zap.String("session_id", id)), gateOpts...)
	}, logger)

	browser := service.NewBrowser(sessions, store, alertSettings, rec, adapter, logger)
	apiHandler := handler.NewHandler(browser, authService, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(logger), handler.CORS())
	apiHandler.RegisterRoutes(router)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	srv := newHTTPServer(ctx, ":"+cfg.Server.Port, router)

	g.Go(func() error {
		logger.Info("Server starting", zap.String("address", srv.Addr), zap.String("gate_mode", string(cfg.Gate.Mode)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return sessions.Run(ctx, sessionSweepInterval, cfg.Gate.SessionTTL)
	})

	if telegram != nil {
		g.Go(func() error { return telegram.Run(ctx) })
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server exited with error", zap.Error(err))
		return err
	}

	logger.Info("Server exited")
	return nil
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
