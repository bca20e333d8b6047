package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seo-lab/backend/analyzer"
	"github.com/seo-lab/backend/catalog"
	"github.com/seo-lab/backend/metatags"
	"github.com/seo-lab/backend/workspace"
)

// statusClientClosed is reported when the caller went away mid-analysis.
const statusClientClosed = 499

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, analyzer.ErrEmptyInput), errors.Is(err, catalog.ErrUnknownCategory):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrUnknownTool):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrToolHidden),
		errors.Is(err, catalog.ErrToolOpen),
		errors.Is(err, catalog.ErrNotOpen),
		errors.Is(err, workspace.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, workspace.ErrClosed):
		return http.StatusGone
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosed
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func (h *handler) statistics(c *gin.Context) {
	if h.Traffic == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, h.Traffic.GetStatistics())
}

func (h *handler) usage(c *gin.Context) {
	if h.Usage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "usage tracking disabled"})
		return
	}

	if month := c.Query("month"); month != "" {
		monthly, ok := h.Usage.GetMonthlyStats(month)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no usage recorded for " + month})
			return
		}
		c.JSON(http.StatusOK, gin.H{"month": month, "usage": monthly})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"current": h.Usage.GetCurrentStats(),
		"months":  h.Usage.GetAllMonths(),
	})
}

func (h *handler) listTools(c *gin.Context) {
	category := c.DefaultQuery("category", catalog.AllCategories)
	c.JSON(http.StatusOK, gin.H{
		"category":   category,
		"categories": catalog.Categories(),
		"tools":      catalog.Filter(category),
	})
}

type keywordRequest struct {
	Keyword string `json:"keyword"`
}

type urlRequest struct {
	URL string `json:"url"`
}

type domainRequest struct {
	Domain string `json:"domain"`
}

func (h *handler) track(target string) {
	if h.Traffic != nil {
		h.Traffic.TrackTarget(target)
	}
}

// trackSubmit records the input of a session submission when it names a
// site. Keywords and meta fields are not targets.
func (h *handler) trackSubmit(tool, input string) {
	switch tool {
	case catalog.KeywordResearch, catalog.MetaGenerator:
		return
	}
	h.track(input)
}

func (h *handler) analyzeKeywords(c *gin.Context) {
	var req keywordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	records, err := h.Analyzer.AnalyzeKeywords(c.Request.Context(), req.Keyword)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *handler) auditSite(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.Analyzer.AuditSite(c.Request.Context(), req.URL)
	if err != nil {
		respondError(c, err)
		return
	}
	h.track(req.URL)
	c.JSON(http.StatusOK, result)
}

func (h *handler) analyzeBacklinks(c *gin.Context) {
	var req domainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	records, err := h.Analyzer.AnalyzeBacklinks(c.Request.Context(), req.Domain)
	if err != nil {
		respondError(c, err)
		return
	}
	h.track(req.Domain)
	c.JSON(http.StatusOK, gin.H{
		"backlinks": records,
		"summary":   analyzer.SummarizeBacklinks(records),
	})
}

func (h *handler) testPageSpeed(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.Analyzer.TestPageSpeed(c.Request.Context(), req.URL)
	if err != nil {
		respondError(c, err)
		return
	}
	h.track(req.URL)
	c.JSON(http.StatusOK, result)
}

func (h *handler) checkMobile(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.Analyzer.CheckMobileFriendly(c.Request.Context(), req.URL)
	if err != nil {
		respondError(c, err)
		return
	}
	h.track(req.URL)
	c.JSON(http.StatusOK, result)
}

func (h *handler) generateMeta(c *gin.Context) {
	var form metatags.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := form.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tags := metatags.Generate(form.Title, form.Description, form.Keywords)
	c.JSON(http.StatusOK, gin.H{
		"tags": tags,
		"html": metatags.HTML(tags, form.URL),
	})
}

func (h *handler) inspectMeta(c *gin.Context) {
	var req struct {
		HTML string `json:"html"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || analyzer.Blank(req.HTML) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "html is required"})
		return
	}

	parsed, err := metatags.Parse(req.HTML)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, parsed)
}
