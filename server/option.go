package server

import (
	"github.com/seo-lab/backend/analyzer"
	"github.com/seo-lab/backend/config"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config   *config.Config
	provider analyzer.Provider
}

// WithConfig sets the application configuration.
func WithConfig(cfg *config.Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithProvider replaces the simulated analysis provider.
func WithProvider(p analyzer.Provider) Option {
	return func(a *application) {
		a.provider = p
	}
}
