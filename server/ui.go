package server

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/seo-lab/backend/analyzer"
	"github.com/seo-lab/backend/catalog"
	"github.com/seo-lab/backend/workspace"
)

const sessionCookie = "seolab_session"

var templateFuncs = template.FuncMap{
	"difficultyRating": analyzer.DifficultyRating,
	"authorityRating":  analyzer.AuthorityRating,
	"auditRating":      analyzer.AuditRating,
	"speedRating":      analyzer.SpeedRating,
	"join":             strings.Join,
}

type pageData struct {
	State      workspace.State
	Categories []string
	Tool       *catalog.Tool
	Status     workspace.Status
	Input      string
	Error      string

	Keywords  []analyzer.KeywordRecord
	Audit     *analyzer.SiteAuditResult
	Backlinks []analyzer.BacklinkRecord
	Summary   analyzer.BacklinkSummary
	PageSpeed *analyzer.PageSpeedResult
	Mobile    *analyzer.MobileFriendlyResult
	Meta      *workspace.MetaResult
}

// uiSession returns the caller's workspace, starting a new one when the
// cookie is missing or the session expired.
func (h *handler) uiSession(c *gin.Context) *workspace.Workspace {
	if id, err := c.Cookie(sessionCookie); err == nil {
		if w, ok := h.Sessions.Get(id); ok {
			return w
		}
	}

	w := h.Sessions.Create()
	maxAge := int(h.Config.Sessions.TTL.Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, w.ID, maxAge, "/", "", false, true)
	return w
}

func (h *handler) index(c *gin.Context) {
	w := h.uiSession(c)
	state := w.State()

	data := pageData{
		State:      state,
		Categories: catalog.Categories(),
		Error:      c.Query("error"),
	}

	if state.Navigation.View == catalog.ViewTool {
		tool, _ := catalog.Lookup(state.Navigation.Tool)
		data.Tool = &tool
		data.Status = state.Tools[tool.ID].Status
		data.Input = state.Tools[tool.ID].Input
		if data.Error == "" {
			data.Error = state.Tools[tool.ID].Error
		}
		fillResult(&data, w, tool.ID)
	}

	c.HTML(http.StatusOK, "index.tmpl", data)
}

func fillResult(data *pageData, w *workspace.Workspace, tool string) {
	switch tool {
	case catalog.KeywordResearch:
		if s := w.Keywords.Snapshot(); s.Result != nil {
			data.Keywords = *s.Result
		}
	case catalog.SiteAudit:
		data.Audit = w.Audit.Snapshot().Result
	case catalog.BacklinkAnalyzer:
		if s := w.Backlinks.Snapshot(); s.Result != nil {
			data.Backlinks = *s.Result
			data.Summary = analyzer.SummarizeBacklinks(*s.Result)
		}
	case catalog.PageSpeed:
		data.PageSpeed = w.PageSpeed.Snapshot().Result
	case catalog.MobileTest:
		data.Mobile = w.Mobile.Snapshot().Result
	case catalog.MetaGenerator:
		data.Meta = w.Meta.Snapshot().Result
	}
}

// redirectHome sends the browser back to the page, carrying err if any.
func redirectHome(c *gin.Context, err error) {
	target := "/"
	if err != nil {
		target += "?error=" + url.QueryEscape(err.Error())
	}
	c.Redirect(http.StatusSeeOther, target)
}

func (h *handler) uiCategory(c *gin.Context) {
	w := h.uiSession(c)
	redirectHome(c, w.SelectCategory(c.PostForm("category")))
}

func (h *handler) uiOpen(c *gin.Context) {
	w := h.uiSession(c)
	redirectHome(c, w.Open(c.PostForm("tool")))
}

func (h *handler) uiBack(c *gin.Context) {
	w := h.uiSession(c)
	redirectHome(c, w.Back())
}

func (h *handler) uiSubmit(c *gin.Context) {
	w := h.uiSession(c)
	req := workspace.Request{
		Input:       c.PostForm("input"),
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Keywords:    c.PostForm("keywords"),
		URL:         c.PostForm("url"),
	}

	tool := c.Param("tool")
	err := w.Submit(tool, req)
	switch {
	case errors.Is(err, workspace.ErrBlankInput):
		err = nil
	case err == nil:
		h.trackSubmit(tool, req.Input)
	}
	redirectHome(c, err)
}
