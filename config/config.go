// Package config defines the service configuration and its YAML loader.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Environment variables honoured on top of the config file.
const (
	EnvPort    = "PORT"
	EnvGinMode = "GIN_MODE"
	EnvDevMode = "DEV_MODE"
)

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Config represents the application configuration.
type Config struct {
	App       AppConfig       `yaml:"app"`
	HTTP      HTTPConfig      `yaml:"http"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Stats     StatsConfig     `yaml:"stats"`
}

// Validate validates every section.
func (c *Config) Validate() error {
	sections := []Validator{&c.App, &c.HTTP, &c.RateLimit, &c.Analysis, &c.Sessions, &c.Stats}
	for _, s := range sections {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// AppConfig holds logging and runtime mode settings.
type AppConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	LogFile   string     `yaml:"log_file"`
	GinMode   string     `yaml:"gin_mode"`
	// DevMode exposes detailed traffic statistics.
	DevMode bool `yaml:"dev_mode"`
}

// Validate validates the app configuration.
func (c *AppConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.Required, validation.In(LogFormatJSON, LogFormatText)),
		validation.Field(&c.GinMode, validation.Required, validation.In("debug", "release", "test")),
	)
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigin   string        `yaml:"cors_origin"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.ReadTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.WriteTimeout, validation.Min(time.Duration(0))),
		validation.Field(&c.CORSOrigin, validation.Required),
	)
}

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`
}

// Validate validates the rate limit configuration.
func (c *RateLimitConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Rate, validation.Required, validation.Min(0.0)),
		validation.Field(&c.Burst, validation.Required, validation.Min(1)),
	)
}

// AnalysisConfig tunes the simulated provider.
type AnalysisConfig struct {
	// LatencyScale multiplies the simulated delays; 0 answers immediately.
	LatencyScale float64 `yaml:"latency_scale"`
}

// Validate validates the analysis configuration.
func (c *AnalysisConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LatencyScale, validation.Min(0.0)),
	)
}

// SessionsConfig bounds the workspace store.
type SessionsConfig struct {
	TTL             time.Duration `yaml:"ttl"`
	MaxSessions     int           `yaml:"max_sessions"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// Validate validates the sessions configuration.
func (c *SessionsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.MaxSessions, validation.Min(0)),
		validation.Field(&c.CleanupInterval, validation.Required, validation.Min(time.Second)),
	)
}

// StatsConfig locates the persisted usage and traffic statistics.
type StatsConfig struct {
	DataDir      string `yaml:"data_dir"`
	RetainMonths int    `yaml:"retain_months"`
}

// Validate validates the stats configuration.
func (c *StatsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DataDir, validation.Required),
		validation.Field(&c.RetainMonths, validation.Required, validation.Min(1)),
	)
}

// ApplyEnv overrides settings from PORT, GIN_MODE and DEV_MODE when set.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		c.HTTP.Port = port
	}
	if v := os.Getenv(EnvGinMode); v != "" {
		c.App.GinMode = v
	}
	if v := os.Getenv(EnvDevMode); v != "" {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvDevMode, v, err)
		}
		c.App.DevMode = dev
	}
	return c.Validate()
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatJSON,
			GinMode:   "release",
		},
		HTTP: HTTPConfig{
			Port:         8082,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			CORSOrigin:   "*",
		},
		RateLimit: RateLimitConfig{
			Rate:  2,
			Burst: 5,
		},
		Analysis: AnalysisConfig{
			LatencyScale: 1,
		},
		Sessions: SessionsConfig{
			TTL:             30 * time.Minute,
			MaxSessions:     1000,
			CleanupInterval: 5 * time.Minute,
		},
		Stats: StatsConfig{
			DataDir:      "data",
			RetainMonths: 12,
		},
	}
}
