package workspace

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/seo-lab/backend/analyzer"
	"github.com/seo-lab/backend/catalog"
	"github.com/seo-lab/backend/metatags"
)

// Request carries a submission. Input is used by every tool except the meta
// generator, which reads the remaining fields.
type Request struct {
	Input       string `json:"input"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
	URL         string `json:"url"`
}

// MetaResult is what the meta generator shows.
type MetaResult struct {
	Tags metatags.Set  `json:"tags"`
	HTML string        `json:"html"`
	Form metatags.Form `json:"form"`
}

// ToolState summarises a form without its result.
type ToolState struct {
	Status Status `json:"status"`
	Input  string `json:"input,omitempty"`
	Error  string `json:"error,omitempty"`
}

// State is the full view of a workspace.
type State struct {
	ID         string               `json:"id"`
	CreatedAt  time.Time            `json:"createdAt"`
	Navigation catalog.NavState     `json:"navigation"`
	Tools      map[string]ToolState `json:"tools"`
}

type form interface {
	Cancel() bool
	Reset()
	Close()
	Wait(ctx context.Context) error
	summary() ToolState
	snapshot() (any, Status)
}

// Workspace is one visitor's session.
type Workspace struct {
	ID string

	Keywords  *Form[[]analyzer.KeywordRecord]
	Audit     *Form[analyzer.SiteAuditResult]
	Backlinks *Form[[]analyzer.BacklinkRecord]
	PageSpeed *Form[analyzer.PageSpeedResult]
	Mobile    *Form[analyzer.MobileFriendlyResult]
	Meta      *Form[MetaResult]

	// navMu orders navigation against submissions, so a submit never
	// lands on a tool that Back has just closed.
	navMu    sync.Mutex
	nav      *catalog.Navigator
	provider analyzer.Provider
	forms    map[string]form
	ctx      context.Context
	cancel   context.CancelFunc

	mu       sync.Mutex
	created  time.Time
	lastSeen time.Time
}

// New creates a workspace browsing every category.
func New(id string, provider analyzer.Provider) *Workspace {
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()

	w := &Workspace{
		ID:        id,
		Keywords:  NewForm[[]analyzer.KeywordRecord](),
		Audit:     NewForm[analyzer.SiteAuditResult](),
		Backlinks: NewForm[[]analyzer.BacklinkRecord](),
		PageSpeed: NewForm[analyzer.PageSpeedResult](),
		Mobile:    NewForm[analyzer.MobileFriendlyResult](),
		Meta:      NewForm[MetaResult](),
		nav:       catalog.NewNavigator(),
		provider:  provider,
		ctx:       ctx,
		cancel:    cancel,
		created:   now,
		lastSeen:  now,
	}
	w.forms = map[string]form{
		catalog.KeywordResearch:  w.Keywords,
		catalog.SiteAudit:        w.Audit,
		catalog.BacklinkAnalyzer: w.Backlinks,
		catalog.PageSpeed:        w.PageSpeed,
		catalog.MobileTest:       w.Mobile,
		catalog.MetaGenerator:    w.Meta,
	}
	return w
}

// SelectCategory changes the catalogue filter.
func (w *Workspace) SelectCategory(category string) error {
	w.navMu.Lock()
	defer w.navMu.Unlock()
	return w.nav.SelectCategory(category)
}

// Open shows a tool page.
func (w *Workspace) Open(tool string) error {
	w.navMu.Lock()
	defer w.navMu.Unlock()
	return w.nav.Open(tool)
}

// Back leaves the open tool. Its pending run is cancelled and the form is
// cleared, as when the page is unmounted.
func (w *Workspace) Back() error {
	w.navMu.Lock()
	defer w.navMu.Unlock()

	tool := w.nav.State().Tool
	if err := w.nav.Back(); err != nil {
		return err
	}
	if f, ok := w.forms[tool]; ok {
		f.Reset()
	}
	return nil
}

// Navigation returns the navigator state.
func (w *Workspace) Navigation() catalog.NavState {
	return w.nav.State()
}

// Submit dispatches req to the form of tool, which must be the open tool.
func (w *Workspace) Submit(tool string, req Request) error {
	if _, ok := w.forms[tool]; !ok {
		return fmt.Errorf("%w: %s", catalog.ErrUnknownTool, tool)
	}

	w.navMu.Lock()
	defer w.navMu.Unlock()

	if open := w.nav.State().Tool; open != tool {
		return fmt.Errorf("%w: %s", catalog.ErrNotOpen, tool)
	}

	switch tool {
	case catalog.KeywordResearch:
		return w.Keywords.Submit(w.ctx, req.Input, w.provider.AnalyzeKeywords)
	case catalog.SiteAudit:
		return w.Audit.Submit(w.ctx, req.Input, value(w.provider.AuditSite))
	case catalog.BacklinkAnalyzer:
		return w.Backlinks.Submit(w.ctx, req.Input, w.provider.AnalyzeBacklinks)
	case catalog.PageSpeed:
		return w.PageSpeed.Submit(w.ctx, req.Input, value(w.provider.TestPageSpeed))
	case catalog.MobileTest:
		return w.Mobile.Submit(w.ctx, req.Input, value(w.provider.CheckMobileFriendly))
	default:
		return w.generateMeta(req)
	}
}

func (w *Workspace) generateMeta(req Request) error {
	in := metatags.Form{
		Title:       req.Title,
		Description: req.Description,
		Keywords:    req.Keywords,
		URL:         req.URL,
	}
	if err := in.Validate(); err != nil {
		return ErrBlankInput
	}

	tags := metatags.Generate(in.Title, in.Description, in.Keywords)
	return w.Meta.Resolve(in.Title, MetaResult{
		Tags: tags,
		HTML: metatags.HTML(tags, in.URL),
		Form: in,
	})
}

// value adapts a provider call returning a pointer.
func value[T any](fn func(context.Context, string) (*T, error)) RunFunc[T] {
	return func(ctx context.Context, input string) (T, error) {
		var zero T
		result, err := fn(ctx, input)
		if err != nil {
			return zero, err
		}
		return *result, nil
	}
}

// Tool returns the snapshot of a tool form and the status it was taken in.
func (w *Workspace) Tool(tool string) (any, Status, error) {
	f, ok := w.forms[tool]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", catalog.ErrUnknownTool, tool)
	}
	snapshot, status := f.snapshot()
	return snapshot, status, nil
}

// Wait blocks until the latest run of tool has returned.
func (w *Workspace) Wait(ctx context.Context, tool string) error {
	f, ok := w.forms[tool]
	if !ok {
		return fmt.Errorf("%w: %s", catalog.ErrUnknownTool, tool)
	}
	return f.Wait(ctx)
}

// State returns the navigator and every form summary.
func (w *Workspace) State() State {
	s := State{
		ID:         w.ID,
		CreatedAt:  w.created,
		Navigation: w.nav.State(),
		Tools:      make(map[string]ToolState, len(w.forms)),
	}
	for id, f := range w.forms {
		s.Tools[id] = f.summary()
	}
	return s
}

// Close cancels every pending run. The workspace rejects submissions afterwards.
func (w *Workspace) Close() {
	for _, f := range w.forms {
		f.Close()
	}
	w.cancel()
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) seen() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}
