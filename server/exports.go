package server

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/seo-lab/backend/analyzer"
	"github.com/seo-lab/backend/export"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeText = "text/plain; charset=utf-8"
)

func attachment(c *gin.Context, filename, contentType, body string) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Data(http.StatusOK, contentType, []byte(body))
}

func exportOptions(c *gin.Context) export.Options {
	escape, _ := strconv.ParseBool(c.Query("escape"))
	return export.Options{Escape: escape}
}

func (h *handler) exportKeywords(c *gin.Context) {
	var req struct {
		Keyword string                   `json:"keyword"`
		Records []analyzer.KeywordRecord `json:"records"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || analyzer.Blank(req.Keyword) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "keyword and records are required"})
		return
	}

	body, err := export.KeywordsCSV(req.Records, exportOptions(c))
	if err != nil {
		respondError(c, err)
		return
	}
	attachment(c, export.KeywordsFilename(req.Keyword), contentTypeCSV, body)
}

func (h *handler) exportBacklinks(c *gin.Context) {
	var req struct {
		Domain  string                    `json:"domain"`
		Records []analyzer.BacklinkRecord `json:"records"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || analyzer.Blank(req.Domain) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "domain and records are required"})
		return
	}

	body, err := export.BacklinksCSV(req.Records, exportOptions(c))
	if err != nil {
		respondError(c, err)
		return
	}
	attachment(c, export.BacklinksFilename(req.Domain), contentTypeCSV, body)
}

func (h *handler) exportAudit(c *gin.Context) {
	var req struct {
		URL    string                    `json:"url"`
		Result *analyzer.SiteAuditResult `json:"result"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Result == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url and result are required"})
		return
	}

	now := h.now()
	attachment(c, export.AuditFilename(now), contentTypeText, export.AuditReport(req.URL, *req.Result, now))
}
