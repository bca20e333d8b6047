package analyzer

// Competition is the paid-search competition level of a keyword.
type Competition string

const (
	CompetitionLow    Competition = "Low"
	CompetitionMedium Competition = "Medium"
	CompetitionHigh   Competition = "High"
)

// LinkType is the rel attribute of a backlink.
type LinkType string

const (
	Dofollow LinkType = "dofollow"
	Nofollow LinkType = "nofollow"
)

// KeywordRecord holds the metrics of one keyword variant
type KeywordRecord struct {
	Keyword     string      `json:"keyword"`
	Volume      int         `json:"volume"`
	Difficulty  int         `json:"difficulty"`
	CPC         float64     `json:"cpc"`
	Competition Competition `json:"competition"`
	Trend       []int       `json:"trend"`
}

// SiteAuditResult represents the audit of a single URL
type SiteAuditResult struct {
	Score       int              `json:"score"`
	Issues      AuditIssues      `json:"issues"`
	Performance AuditPerformance `json:"performance"`
	SEO         AuditChecks      `json:"seo"`
}

type AuditIssues struct {
	Critical []string `json:"critical"`
	Warnings []string `json:"warnings"`
	Notices  []string `json:"notices"`
}

type AuditPerformance struct {
	LoadTime float64 `json:"loadTime"` // seconds
	PageSize int     `json:"pageSize"` // KB
	Requests int     `json:"requests"`
}

type AuditChecks struct {
	Title       bool `json:"title"`
	Description bool `json:"description"`
	Headings    bool `json:"headings"`
	Images      bool `json:"images"`
}

// BacklinkRecord describes one referring domain
type BacklinkRecord struct {
	Domain     string   `json:"domain"`
	Authority  int      `json:"authority"`
	Type       LinkType `json:"type"`
	Anchor     string   `json:"anchor"`
	Discovered string   `json:"discovered"`
}

// PageSpeedResult holds the Core Web Vitals of a tested URL
type PageSpeedResult struct {
	Score         int       `json:"score"`
	Metrics       WebVitals `json:"metrics"`
	Opportunities []string  `json:"opportunities"`
}

type WebVitals struct {
	FCP float64 `json:"fcp"` // seconds
	LCP float64 `json:"lcp"` // seconds
	CLS float64 `json:"cls"`
	FID float64 `json:"fid"` // milliseconds
}

// MobileFriendlyResult is the outcome of the mobile-friendliness test
type MobileFriendlyResult struct {
	IsMobileFriendly bool     `json:"isMobileFriendly"`
	Issues           []string `json:"issues"`
}
