// Package analyzer produces the SEO metrics shown by each tool.
package analyzer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/seo-lab/backend/catalog"
	"github.com/seo-lab/backend/stats"
)

// ErrEmptyInput is returned when an analysis is requested with a blank input.
var ErrEmptyInput = errors.New("input is required")

// Analyzer guards and instruments a Provider. It rejects blank input before
// dispatch, logs every call and records per-tool usage.
type Analyzer struct {
	provider Provider
	stats    *stats.Storage
	logger   *slog.Logger
}

var _ Provider = (*Analyzer)(nil)

// New wraps provider. storage may be nil when usage is not tracked.
func New(provider Provider, storage *stats.Storage, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		provider: provider,
		stats:    storage,
		logger:   logger,
	}
}

// Blank reports whether input would be rejected by the submit guard.
func Blank(input string) bool {
	return strings.TrimSpace(input) == ""
}

// AnalyzeKeywords returns metrics for the keyword and its variants.
func (a *Analyzer) AnalyzeKeywords(ctx context.Context, keyword string) ([]KeywordRecord, error) {
	if Blank(keyword) {
		return nil, ErrEmptyInput
	}
	start := time.Now()
	records, err := a.provider.AnalyzeKeywords(ctx, keyword)
	a.track(catalog.KeywordResearch, keyword, start, err)
	return records, err
}

// AuditSite audits url.
func (a *Analyzer) AuditSite(ctx context.Context, url string) (*SiteAuditResult, error) {
	if Blank(url) {
		return nil, ErrEmptyInput
	}
	start := time.Now()
	result, err := a.provider.AuditSite(ctx, url)
	a.track(catalog.SiteAudit, url, start, err)
	return result, err
}

// AnalyzeBacklinks lists the referring domains of domain.
func (a *Analyzer) AnalyzeBacklinks(ctx context.Context, domain string) ([]BacklinkRecord, error) {
	if Blank(domain) {
		return nil, ErrEmptyInput
	}
	start := time.Now()
	records, err := a.provider.AnalyzeBacklinks(ctx, domain)
	a.track(catalog.BacklinkAnalyzer, domain, start, err)
	return records, err
}

// TestPageSpeed measures url.
func (a *Analyzer) TestPageSpeed(ctx context.Context, url string) (*PageSpeedResult, error) {
	if Blank(url) {
		return nil, ErrEmptyInput
	}
	start := time.Now()
	result, err := a.provider.TestPageSpeed(ctx, url)
	a.track(catalog.PageSpeed, url, start, err)
	return result, err
}

// CheckMobileFriendly tests url on a mobile viewport.
func (a *Analyzer) CheckMobileFriendly(ctx context.Context, url string) (*MobileFriendlyResult, error) {
	if Blank(url) {
		return nil, ErrEmptyInput
	}
	start := time.Now()
	result, err := a.provider.CheckMobileFriendly(ctx, url)
	a.track(catalog.MobileTest, url, start, err)
	return result, err
}

func (a *Analyzer) track(tool, input string, start time.Time, err error) {
	elapsed := time.Since(start)
	outcome := stats.Completed

	switch {
	case err == nil:
		a.logger.Debug("analysis completed",
			slog.String("tool", tool),
			slog.String("input", input),
			slog.Duration("duration", elapsed))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		outcome = stats.Cancelled
		a.logger.Info("analysis cancelled",
			slog.String("tool", tool),
			slog.String("input", input),
			slog.String("error", err.Error()))
	default:
		outcome = stats.Failed
		a.logger.Error("analysis failed",
			slog.String("tool", tool),
			slog.String("input", input),
			slog.String("error", err.Error()))
	}

	if a.stats != nil {
		a.stats.Record(tool, elapsed, outcome)
	}
}
