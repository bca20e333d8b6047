package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/seo-lab/backend/catalog"
	"github.com/seo-lab/backend/export"
	"github.com/seo-lab/backend/workspace"
)

// session loads the workspace named by the :id parameter.
func (h *handler) session(c *gin.Context) (*workspace.Workspace, bool) {
	w, ok := h.Sessions.Get(c.Param("id"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "session not found"})
	}
	return w, ok
}

func (h *handler) createSession(c *gin.Context) {
	w := h.Sessions.Create()
	c.JSON(http.StatusCreated, gin.H{
		"id":    w.ID,
		"state": w.State(),
	})
}

func (h *handler) getSession(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, w.State())
}

func (h *handler) deleteSession(c *gin.Context) {
	if !h.Sessions.Delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) selectCategory(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}

	var req struct {
		Category string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := w.SelectCategory(req.Category); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w.State())
}

func (h *handler) openTool(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}

	var req struct {
		Tool string `json:"tool"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := w.Open(req.Tool); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w.State())
}

func (h *handler) back(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}
	if err := w.Back(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w.State())
}

// submitTool starts the open tool's analysis. It answers 202 while the run
// is pending, 200 once a result is shown (meta generation, or ?wait=true)
// and 204 for a blank submission, which changes nothing.
func (h *handler) submitTool(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}

	tool := c.Param("tool")
	var req workspace.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := w.Submit(tool, req); err != nil {
		if errors.Is(err, workspace.ErrBlankInput) {
			c.Status(http.StatusNoContent)
			return
		}
		respondError(c, err)
		return
	}
	h.trackSubmit(tool, req.Input)

	if wait, _ := strconv.ParseBool(c.Query("wait")); wait {
		if err := w.Wait(c.Request.Context(), tool); err != nil {
			respondError(c, err)
			return
		}
	}

	snapshot, status, err := w.Tool(tool)
	if err != nil {
		respondError(c, err)
		return
	}

	code := http.StatusOK
	if status == workspace.Loading {
		code = http.StatusAccepted
	}
	c.JSON(code, snapshot)
}

func (h *handler) getTool(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}

	snapshot, _, err := w.Tool(c.Param("tool"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

var errNothingToExport = errors.New("no result to export")

// exportTool downloads the shown result of a tool that has an export.
func (h *handler) exportTool(c *gin.Context) {
	w, ok := h.session(c)
	if !ok {
		return
	}

	opts := exportOptions(c)
	switch tool := c.Param("tool"); tool {
	case catalog.KeywordResearch:
		snap := w.Keywords.Snapshot()
		if snap.Status != workspace.Shown {
			c.JSON(http.StatusConflict, gin.H{"error": errNothingToExport.Error()})
			return
		}
		body, err := export.KeywordsCSV(*snap.Result, opts)
		if err != nil {
			respondError(c, err)
			return
		}
		attachment(c, export.KeywordsFilename(snap.Input), contentTypeCSV, body)

	case catalog.BacklinkAnalyzer:
		snap := w.Backlinks.Snapshot()
		if snap.Status != workspace.Shown {
			c.JSON(http.StatusConflict, gin.H{"error": errNothingToExport.Error()})
			return
		}
		body, err := export.BacklinksCSV(*snap.Result, opts)
		if err != nil {
			respondError(c, err)
			return
		}
		attachment(c, export.BacklinksFilename(snap.Input), contentTypeCSV, body)

	case catalog.SiteAudit:
		snap := w.Audit.Snapshot()
		if snap.Status != workspace.Shown {
			c.JSON(http.StatusConflict, gin.H{"error": errNothingToExport.Error()})
			return
		}
		now := h.now()
		attachment(c, export.AuditFilename(now), contentTypeText, export.AuditReport(snap.Input, *snap.Result, now))

	default:
		if _, known := catalog.Lookup(tool); !known {
			respondError(c, catalog.ErrUnknownTool)
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "tool has no export"})
	}
}
