// Package server runs the HTTP API and the catalogue page.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/seo-lab/backend/analyzer"
	"github.com/seo-lab/backend/logging"
	"github.com/seo-lab/backend/middleware"
	"github.com/seo-lab/backend/stats"
	"github.com/seo-lab/backend/workspace"
)

const (
	shutdownTimeout = 10 * time.Second
	// limiterIdle is how long a client's bucket is kept after its last request.
	limiterIdle = 10 * time.Minute
)

// Run starts the application with the given options and blocks until ctx is
// cancelled or SIGINT/SIGTERM is received.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger, closer, err := logging.Setup(logging.Options{
		Level:  cfg.App.LogLevel,
		Format: cfg.App.LogFormat,
		File:   cfg.App.LogFile,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closer.Close()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.HTTP.Address()),
		slog.String("data_dir", cfg.Stats.DataDir),
		slog.String("gin_mode", cfg.App.GinMode),
		slog.Bool("dev_mode", cfg.App.DevMode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	usage, err := stats.NewStorage(cfg.Stats.DataDir)
	if err != nil {
		return fmt.Errorf("init usage storage: %w", err)
	}
	usage.Cleanup(cfg.Stats.RetainMonths)

	traffic, err := logging.NewStatistics(filepath.Join(cfg.Stats.DataDir, logging.StatisticsFile), cfg.App.DevMode)
	if err != nil {
		logger.Warn("could not load existing statistics", slog.String("error", err.Error()))
	}

	provider := app.provider
	if provider == nil {
		provider = analyzer.NewMock(analyzer.WithLatencyScale(cfg.Analysis.LatencyScale))
	}
	seoAnalyzer := analyzer.New(provider, usage, logger)

	sessions := workspace.NewStore(seoAnalyzer, cfg.Sessions.TTL, cfg.Sessions.MaxSessions, logger)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.Rate, float64(cfg.RateLimit.Burst))

	gin.SetMode(cfg.App.GinMode)
	router := NewRouter(Deps{
		Config:   cfg,
		Analyzer: seoAnalyzer,
		Sessions: sessions,
		Usage:    usage,
		Traffic:  traffic,
		Limiter:  limiter,
		Logger:   logger,
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTP.Address(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return sessions.Run(gCtx, cfg.Sessions.CleanupInterval)
	})

	g.Go(func() error {
		return limiter.Run(gCtx, cfg.Sessions.CleanupInterval, limiterIdle)
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		sessions.CloseAll()

		if err := traffic.Save(); err != nil {
			logger.Error("failed to save traffic statistics", slog.String("error", err.Error()))
		}
		if err := usage.Shutdown(); err != nil {
			logger.Error("failed to flush usage statistics", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
