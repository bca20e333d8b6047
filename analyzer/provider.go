package analyzer

import "context"

// Provider produces analysis results for the SEO tools. The random Mock is
// the only implementation shipped; a real backend can be substituted without
// touching the HTTP or session layers.
type Provider interface {
	AnalyzeKeywords(ctx context.Context, keyword string) ([]KeywordRecord, error)
	AuditSite(ctx context.Context, url string) (*SiteAuditResult, error)
	AnalyzeBacklinks(ctx context.Context, domain string) ([]BacklinkRecord, error)
	TestPageSpeed(ctx context.Context, url string) (*PageSpeedResult, error)
	CheckMobileFriendly(ctx context.Context, url string) (*MobileFriendlyResult, error)
}
