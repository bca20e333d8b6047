package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/seo-lab/backend/analyzer"
	"github.com/seo-lab/backend/config"
	"github.com/seo-lab/backend/logging"
	"github.com/seo-lab/backend/mcpserver"
	"github.com/seo-lab/backend/server"
	"github.com/seo-lab/backend/stats"
)

const version = "1.0.0"

func loadEnv() {
	// Try to load .env.development first (for local development)
	if err := godotenv.Load(".env.development"); err != nil {
		// If .env.development doesn't exist, try regular .env
		if err := godotenv.Load(); err != nil {
			slog.Debug("no .env file found, using environment variables")
		}
	}
}

// loadConfig starts from the defaults, overlays the YAML file when it exists
// and finally the PORT/GIN_MODE/DEV_MODE environment.
func loadConfig(path string) (*config.Config, error) {
	cfg := config.NewDefaultConfig()
	if err := config.Load(path, cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		slog.Info("config file not found, using defaults", slog.String("path", path))
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	if err := server.Run(ctx, server.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

// serveMCP runs the tools over stdio. stdout belongs to the protocol, so
// logs go to stderr.
func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return err
	}

	logger := logging.New(os.Stderr, logging.Options{
		Level:  cfg.App.LogLevel,
		Format: cfg.App.LogFormat,
	})
	slog.SetDefault(logger)

	usage, err := stats.NewStorage(cfg.Stats.DataDir)
	if err != nil {
		return fmt.Errorf("init usage storage: %w", err)
	}
	defer func() {
		if err := usage.Shutdown(); err != nil {
			logger.Error("failed to flush usage statistics", slog.String("error", err.Error()))
		}
	}()

	provider := analyzer.NewMock(analyzer.WithLatencyScale(cfg.Analysis.LatencyScale))
	srv := mcpserver.New(analyzer.New(provider, usage, logger), version)

	logger.Info("Starting MCP server on stdio")
	return srv.ServeStdio()
}

func main() {
	loadEnv()

	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:    "seolab",
		Usage:   "SEO toolbox: keyword research, site audit, backlinks, page speed, mobile test and meta tags",
		Version: version,
		Flags:   []cli.Flag{configFlag},
		Action:  serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and the catalogue page",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Expose the tools as an MCP server over stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
