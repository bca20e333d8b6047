// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the SEO tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/seo-lab/backend/analyzer"
	"github.com/seo-lab/backend/catalog"
	"github.com/seo-lab/backend/export"
	"github.com/seo-lab/backend/metatags"
)

// Output formats accepted by the tools that have an export.
const (
	formatJSON   = "json"
	formatCSV    = "csv"
	formatReport = "report"
)

// Server wraps the MCP server with the SEO tools.
type Server struct {
	mcp      *server.MCPServer
	analyzer *analyzer.Analyzer
	now      func() time.Time
}

// New creates a new MCP server with all tools registered.
func New(a *analyzer.Analyzer, version string) *Server {
	s := &Server{analyzer: a, now: time.Now}

	s.mcp = server.NewMCPServer(
		"SEO Lab",
		version,
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("analyze_keywords",
		mcp.WithDescription("Volume, difficulty, CPC and competition for a keyword and its common variants."),
		mcp.WithString("keyword", mcp.Required(), mcp.Description("Seed keyword")),
		mcp.WithString("format", mcp.Description("json (default) or csv"), mcp.Enum(formatJSON, formatCSV)),
	), s.analyzeKeywords)

	s.mcp.AddTool(mcp.NewTool("audit_site",
		mcp.WithDescription("Technical SEO audit: score, issues by severity, performance and on-page checks."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Site URL")),
		mcp.WithString("format", mcp.Description("json (default) or report for the plain-text audit report"), mcp.Enum(formatJSON, formatReport)),
	), s.auditSite)

	s.mcp.AddTool(mcp.NewTool("analyze_backlinks",
		mcp.WithDescription("Referring domains of a site with authority, link type and anchor text."),
		mcp.WithString("domain", mcp.Required(), mcp.Description("Domain to analyse (e.g. example.com)")),
		mcp.WithString("format", mcp.Description("json (default) or csv"), mcp.Enum(formatJSON, formatCSV)),
	), s.analyzeBacklinks)

	s.mcp.AddTool(mcp.NewTool("test_page_speed",
		mcp.WithDescription("Performance score, Core Web Vitals and improvement opportunities for a page."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Page URL")),
	), s.testPageSpeed)

	s.mcp.AddTool(mcp.NewTool("check_mobile_friendly",
		mcp.WithDescription("Whether a page is mobile friendly and which issues were found."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Page URL")),
	), s.checkMobileFriendly)

	s.mcp.AddTool(mcp.NewTool("generate_meta_tags",
		mcp.WithDescription("Title, description, keywords, Open Graph and Twitter tags plus the HTML snippet."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Page title, truncated to 60 characters")),
		mcp.WithString("description", mcp.Required(), mcp.Description("Page description, truncated to 160 characters")),
		mcp.WithString("keywords", mcp.Description("Comma-separated keywords, first 10 kept")),
		mcp.WithString("url", mcp.Description("Canonical page URL for og:url")),
	), s.generateMetaTags)

	s.mcp.AddTool(mcp.NewTool("list_tools",
		mcp.WithDescription("The SEO tool catalogue, optionally filtered by category."),
		mcp.WithString("category", mcp.Description("Tous, Recherche, Contenu, Technique, Performance or Analyse")),
	), s.listTools)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) analyzeKeywords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keyword, err := req.RequireString("keyword")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	records, err := s.analyzer.AnalyzeKeywords(ctx, keyword)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if req.GetString("format", formatJSON) == formatCSV {
		body, err := export.KeywordsCSV(records, export.Options{})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(body), nil
	}
	return jsonResult(records)
}

func (s *Server) auditSite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.analyzer.AuditSite(ctx, url)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if req.GetString("format", formatJSON) == formatReport {
		return mcp.NewToolResultText(export.AuditReport(url, *result, s.now())), nil
	}
	return jsonResult(result)
}

func (s *Server) analyzeBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	domain, err := req.RequireString("domain")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	records, err := s.analyzer.AnalyzeBacklinks(ctx, domain)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if req.GetString("format", formatJSON) == formatCSV {
		body, err := export.BacklinksCSV(records, export.Options{})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(body), nil
	}
	return jsonResult(map[string]any{
		"backlinks": records,
		"summary":   analyzer.SummarizeBacklinks(records),
	})
}

func (s *Server) testPageSpeed(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.analyzer.TestPageSpeed(ctx, url)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) checkMobileFriendly(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.analyzer.CheckMobileFriendly(ctx, url)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) generateMetaTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	form := metatags.Form{
		Title:       req.GetString("title", ""),
		Description: req.GetString("description", ""),
		Keywords:    req.GetString("keywords", ""),
		URL:         req.GetString("url", ""),
	}
	if err := form.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tags := metatags.Generate(form.Title, form.Description, form.Keywords)
	return jsonResult(map[string]any{
		"tags": tags,
		"html": metatags.HTML(tags, form.URL),
	})
}

func (s *Server) listTools(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := req.GetString("category", catalog.AllCategories)
	if !catalog.IsCategory(category) {
		return mcp.NewToolResultError("unknown category: " + category), nil
	}
	return jsonResult(catalog.Filter(category))
}
