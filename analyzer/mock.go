package analyzer

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Simulated round-trip time per operation
const (
	keywordsLatency  = 1500 * time.Millisecond
	auditLatency     = 2 * time.Second
	backlinksLatency = 2 * time.Second
	pageSpeedLatency = 3 * time.Second
	mobileLatency    = 1500 * time.Millisecond
)

var (
	criticalIssues = []string{
		"Missing meta description on 3 pages",
		"Broken internal links detected",
		"Large images not optimized",
	}
	warningIssues = []string{
		"H1 tag missing on some pages",
		"Alt text missing on images",
		"Page load time could be improved",
		"Some pages have duplicate titles",
	}
	noticeIssues = []string{
		"Consider adding schema markup",
		"Social media meta tags could be improved",
		"Internal linking structure is good",
	}
	speedOpportunities = []string{
		"Optimize images",
		"Minify CSS",
		"Enable compression",
		"Reduce server response time",
	}
	mobileIssues = []string{
		"Text too small to read",
		"Clickable elements too close together",
		"Content wider than screen",
		"Viewport not set",
	}
	referringDomains = []string{
		"example.com", "blog.example.org", "news.site.com", "authority.net",
		"industry.blog", "resource.edu", "magazine.com", "portal.org",
	}
	competitionLevels = []Competition{CompetitionLow, CompetitionMedium, CompetitionHigh}
)

// DiscoveredLayout is the date format of BacklinkRecord.Discovered.
const DiscoveredLayout = "2006-01-02"

// Mock is a Provider returning plausible random metrics after a simulated
// delay. Every call samples fresh numbers; nothing is cached.
type Mock struct {
	mu           sync.Mutex
	rnd          *rand.Rand
	latencyScale float64
	now          func() time.Time
}

// MockOption configures a Mock.
type MockOption func(*Mock)

// WithLatencyScale multiplies every simulated delay. Zero disables the delay.
func WithLatencyScale(scale float64) MockOption {
	return func(m *Mock) {
		if scale >= 0 {
			m.latencyScale = scale
		}
	}
}

// WithRand replaces the random source.
func WithRand(r *rand.Rand) MockOption {
	return func(m *Mock) {
		m.rnd = r
	}
}

// WithClock replaces the clock used for backlink discovery dates.
func WithClock(now func() time.Time) MockOption {
	return func(m *Mock) {
		m.now = now
	}
}

// NewMock creates a Mock with a time-seeded random source.
func NewMock(opts ...MockOption) *Mock {
	m := &Mock{
		rnd:          rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
		latencyScale: 1,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// KeywordVariants derives the keyword list analysed for a seed term.
func KeywordVariants(keyword string) []string {
	return []string{
		keyword,
		keyword + " tips",
		keyword + " guide",
		"best " + keyword,
		keyword + " tools",
		keyword + " strategy",
		"how to " + keyword,
		keyword + " optimization",
	}
}

// AnalyzeKeywords returns one record per keyword variant.
func (m *Mock) AnalyzeKeywords(ctx context.Context, keyword string) ([]KeywordRecord, error) {
	if err := m.wait(ctx, keywordsLatency); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	variants := KeywordVariants(keyword)
	records := make([]KeywordRecord, 0, len(variants))
	for _, kw := range variants {
		trend := make([]int, 12)
		for i := range trend {
			trend[i] = m.rnd.IntN(100)
		}
		records = append(records, KeywordRecord{
			Keyword:     kw,
			Volume:      m.rnd.IntN(10000) + 100,
			Difficulty:  m.rnd.IntN(100),
			CPC:         m.rnd.Float64()*5 + 0.1,
			Competition: competitionLevels[m.rnd.IntN(len(competitionLevels))],
			Trend:       trend,
		})
	}
	return records, nil
}

// AuditSite returns an audit with a score in [60, 100).
func (m *Mock) AuditSite(ctx context.Context, url string) (*SiteAuditResult, error) {
	if err := m.wait(ctx, auditLatency); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return &SiteAuditResult{
		Score: m.rnd.IntN(40) + 60,
		Issues: AuditIssues{
			Critical: m.prefix(criticalIssues, 1),
			Warnings: m.prefix(warningIssues, 1),
			Notices:  m.prefix(noticeIssues, 1),
		},
		Performance: AuditPerformance{
			LoadTime: m.rnd.Float64()*3 + 1,
			PageSize: m.rnd.IntN(2000) + 500,
			Requests: m.rnd.IntN(50) + 20,
		},
		SEO: AuditChecks{
			Title:       m.rnd.Float64() > 0.3,
			Description: m.rnd.Float64() > 0.4,
			Headings:    m.rnd.Float64() > 0.2,
			Images:      m.rnd.Float64() > 0.5,
		},
	}, nil
}

// AnalyzeBacklinks returns one record per referring domain, anchored on domain.
func (m *Mock) AnalyzeBacklinks(ctx context.Context, domain string) ([]BacklinkRecord, error) {
	if err := m.wait(ctx, backlinksLatency); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	window := float64(30 * 24 * time.Hour)
	records := make([]BacklinkRecord, 0, len(referringDomains))
	for _, d := range referringDomains {
		linkType := Nofollow
		if m.rnd.Float64() > 0.3 {
			linkType = Dofollow
		}
		discovered := now.Add(-time.Duration(m.rnd.Float64() * window))
		records = append(records, BacklinkRecord{
			Domain:     d,
			Authority:  m.rnd.IntN(100) + 1,
			Type:       linkType,
			Anchor:     domain + " resource",
			Discovered: discovered.Format(DiscoveredLayout),
		})
	}
	return records, nil
}

// TestPageSpeed returns a score in [60, 100) and Core Web Vitals.
func (m *Mock) TestPageSpeed(ctx context.Context, url string) (*PageSpeedResult, error) {
	if err := m.wait(ctx, pageSpeedLatency); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return &PageSpeedResult{
		Score: m.rnd.IntN(40) + 60,
		Metrics: WebVitals{
			FCP: m.rnd.Float64()*2 + 1,
			LCP: m.rnd.Float64()*3 + 2,
			CLS: m.rnd.Float64() * 0.1,
			FID: m.rnd.Float64()*100 + 50,
		},
		Opportunities: m.prefix(speedOpportunities, 1),
	}, nil
}

// CheckMobileFriendly reports at most one issue.
func (m *Mock) CheckMobileFriendly(ctx context.Context, url string) (*MobileFriendlyResult, error) {
	if err := m.wait(ctx, mobileLatency); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return &MobileFriendlyResult{
		IsMobileFriendly: m.rnd.Float64() > 0.2,
		Issues:           head(mobileIssues, m.rnd.IntN(2)),
	}, nil
}

// prefix returns a copy of the first k items of list, k drawn from [least, len(list)].
// Caller must hold m.mu.
func (m *Mock) prefix(list []string, least int) []string {
	return head(list, m.rnd.IntN(len(list)-least+1)+least)
}

// head copies the first n items so callers never alias the fixed lists.
func head(list []string, n int) []string {
	out := make([]string, n)
	copy(out, list[:n])
	return out
}

// wait suspends for the scaled latency or until ctx is done.
func (m *Mock) wait(ctx context.Context, d time.Duration) error {
	d = time.Duration(float64(d) * m.latencyScale)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
