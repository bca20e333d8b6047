package server

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seo-lab/backend/analyzer"
	"github.com/seo-lab/backend/config"
	"github.com/seo-lab/backend/logging"
	"github.com/seo-lab/backend/middleware"
	"github.com/seo-lab/backend/stats"
	"github.com/seo-lab/backend/workspace"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Deps are the services the HTTP layer is built on.
type Deps struct {
	Config   *config.Config
	Analyzer *analyzer.Analyzer
	Sessions *workspace.Store
	Usage    *stats.Storage
	Traffic  *logging.Statistics
	Limiter  *middleware.RateLimiter
	Logger   *slog.Logger
}

type handler struct {
	Deps
	now func() time.Time
}

// NewRouter wires middleware and routes.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	h := &handler{Deps: d, now: time.Now}

	r := gin.New()
	r.SetHTMLTemplate(template.Must(template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.tmpl")))

	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.ErrorHandler(d.Logger))
	r.Use(middleware.CORS(d.Config.HTTP.CORSOrigin))
	if d.Traffic != nil {
		r.Use(middleware.Traffic(d.Traffic, d.Logger))
	}

	api := r.Group("/api")
	{
		api.GET("/health", h.health)
		api.GET("/statistics", h.statistics)
		api.GET("/usage", h.usage)
		api.GET("/tools", h.listTools)

		limited := api.Group("")
		if d.Limiter != nil {
			limited.Use(d.Limiter.RateLimit())
		}

		limited.POST("/keywords", h.analyzeKeywords)
		limited.POST("/audit", h.auditSite)
		limited.POST("/backlinks", h.analyzeBacklinks)
		limited.POST("/pagespeed", h.testPageSpeed)
		limited.POST("/mobile", h.checkMobile)
		limited.POST("/meta", h.generateMeta)
		limited.POST("/meta/inspect", h.inspectMeta)

		limited.POST("/export/keywords", h.exportKeywords)
		limited.POST("/export/backlinks", h.exportBacklinks)
		limited.POST("/export/audit", h.exportAudit)

		limited.POST("/sessions", h.createSession)
		sessions := limited.Group("/sessions/:id")
		{
			sessions.GET("", h.getSession)
			sessions.DELETE("", h.deleteSession)
			sessions.POST("/category", h.selectCategory)
			sessions.POST("/open", h.openTool)
			sessions.POST("/back", h.back)
			sessions.POST("/tools/:tool/submit", h.submitTool)
			sessions.GET("/tools/:tool", h.getTool)
			sessions.GET("/tools/:tool/export", h.exportTool)
		}
	}

	r.GET("/", h.index)
	ui := r.Group("/ui")
	{
		ui.POST("/category", h.uiCategory)
		ui.POST("/open", h.uiOpen)
		ui.POST("/back", h.uiBack)
		ui.POST("/tools/:tool/submit", h.uiSubmit)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return r
}
