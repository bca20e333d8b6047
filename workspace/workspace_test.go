package workspace

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-lab/backend/analyzer"
	"github.com/seo-lab/backend/catalog"
)

// gated returns a run func that blocks until release is closed.
func gated(release <-chan struct{}, calls *atomic.Int32, result string, err error) RunFunc[string] {
	return func(ctx context.Context, input string) (string, error) {
		calls.Add(1)
		<-release
		return result, err
	}
}

func waitFor(t *testing.T, w interface{ Wait(context.Context) error }) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, w.Wait(ctx))
}

func TestFormBlankInputIsNoop(t *testing.T) {
	f := NewForm[string]()
	var calls atomic.Int32
	release := make(chan struct{})
	close(release)

	for _, input := range []string{"", " ", "\t\n"} {
		err := f.Submit(context.Background(), input, gated(release, &calls, "x", nil))
		assert.ErrorIs(t, err, ErrBlankInput)
	}
	assert.Equal(t, Idle, f.Status())
	assert.Zero(t, calls.Load())
}

func TestFormLifecycle(t *testing.T) {
	f := NewForm[string]()
	var calls atomic.Int32
	release := make(chan struct{})

	require.NoError(t, f.Submit(context.Background(), "seo", gated(release, &calls, "done", nil)))
	assert.Equal(t, Loading, f.Status())

	err := f.Submit(context.Background(), "seo", gated(release, &calls, "again", nil))
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	waitFor(t, f)

	snap := f.Snapshot()
	assert.Equal(t, Shown, snap.Status)
	assert.Equal(t, "seo", snap.Input)
	require.NotNil(t, snap.Result)
	assert.Equal(t, "done", *snap.Result)
	assert.Empty(t, snap.Error)
	assert.EqualValues(t, 1, calls.Load())
}

func TestFormFailureRestoresPreviousState(t *testing.T) {
	f := NewForm[string]()
	var calls atomic.Int32
	release := make(chan struct{})
	close(release)

	require.NoError(t, f.Submit(context.Background(), "a", gated(release, &calls, "first", nil)))
	waitFor(t, f)
	require.Equal(t, Shown, f.Status())

	require.NoError(t, f.Submit(context.Background(), "b", gated(release, &calls, "", errors.New("boom"))))
	waitFor(t, f)

	snap := f.Snapshot()
	assert.Equal(t, Shown, snap.Status)
	assert.Equal(t, "a", snap.Input, "the shown result keeps the input it was computed for")
	assert.Equal(t, "first", *snap.Result)
	assert.Equal(t, "boom", snap.Error)
}

func TestFormCancelRestoresShownInput(t *testing.T) {
	f := NewForm[string]()
	var calls atomic.Int32
	done := make(chan struct{})
	close(done)

	require.NoError(t, f.Submit(context.Background(), "a.com", gated(done, &calls, "result-for-a.com", nil)))
	waitFor(t, f)

	pending := make(chan struct{})
	require.NoError(t, f.Submit(context.Background(), "b.com", gated(pending, &calls, "result-for-b.com", nil)))
	assert.Equal(t, "b.com", f.Snapshot().Input)
	require.True(t, f.Cancel())

	snap := f.Snapshot()
	assert.Equal(t, Shown, snap.Status)
	assert.Equal(t, "a.com", snap.Input)
	assert.Equal(t, "result-for-a.com", *snap.Result)

	close(pending)
	waitFor(t, f)
	assert.Equal(t, "a.com", f.Snapshot().Input)
}

func TestFormCancelDiscardsLateResult(t *testing.T) {
	f := NewForm[string]()
	var calls atomic.Int32
	release := make(chan struct{})

	require.NoError(t, f.Submit(context.Background(), "seo", gated(release, &calls, "late", nil)))
	assert.True(t, f.Cancel())
	assert.Equal(t, Idle, f.Status())
	assert.False(t, f.Cancel())

	close(release)
	waitFor(t, f)

	snap := f.Snapshot()
	assert.Equal(t, Idle, snap.Status)
	assert.Empty(t, snap.Input)
	assert.Nil(t, snap.Result)
}

func TestFormCancelStopsRun(t *testing.T) {
	f := NewForm[string]()
	started := make(chan struct{})
	var runErr atomic.Value

	run := func(ctx context.Context, input string) (string, error) {
		close(started)
		<-ctx.Done()
		runErr.Store(ctx.Err())
		return "", ctx.Err()
	}

	require.NoError(t, f.Submit(context.Background(), "seo", run))
	<-started
	f.Cancel()
	waitFor(t, f)

	assert.Equal(t, context.Canceled, runErr.Load())
	assert.Empty(t, f.Snapshot().Error)
}

func TestFormCloseAndResolve(t *testing.T) {
	f := NewForm[int]()

	assert.ErrorIs(t, f.Resolve("  ", 1), ErrBlankInput)
	require.NoError(t, f.Resolve("n", 42))
	assert.Equal(t, 42, *f.Snapshot().Result)

	f.Reset()
	assert.Equal(t, Snapshot[int]{Status: Idle}, f.Snapshot())

	f.Close()
	assert.ErrorIs(t, f.Resolve("n", 1), ErrClosed)
	assert.ErrorIs(t, f.Submit(context.Background(), "n", func(context.Context, string) (int, error) { return 0, nil }), ErrClosed)
}

func newTestWorkspace() *Workspace {
	return New("test", analyzer.NewMock(analyzer.WithLatencyScale(0)))
}

func TestWorkspaceSubmitRequiresOpenTool(t *testing.T) {
	w := newTestWorkspace()
	defer w.Close()

	err := w.Submit(catalog.KeywordResearch, Request{Input: "seo"})
	assert.ErrorIs(t, err, catalog.ErrNotOpen)

	err = w.Submit("unknown", Request{Input: "seo"})
	assert.ErrorIs(t, err, catalog.ErrUnknownTool)
}

func TestWorkspaceKeywordFlow(t *testing.T) {
	w := newTestWorkspace()
	defer w.Close()

	require.NoError(t, w.Open(catalog.KeywordResearch))
	require.NoError(t, w.Submit(catalog.KeywordResearch, Request{Input: "seo"}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, w.Wait(ctx, catalog.KeywordResearch))

	snap := w.Keywords.Snapshot()
	require.Equal(t, Shown, snap.Status)
	require.NotNil(t, snap.Result)
	assert.Len(t, *snap.Result, len(analyzer.KeywordVariants("seo")))

	state := w.State()
	assert.Equal(t, catalog.ViewTool, state.Navigation.View)
	assert.Equal(t, Shown, state.Tools[catalog.KeywordResearch].Status)
	assert.Equal(t, Idle, state.Tools[catalog.SiteAudit].Status)

	tool, status, err := w.Tool(catalog.KeywordResearch)
	require.NoError(t, err)
	assert.Equal(t, Shown, status)
	assert.IsType(t, Snapshot[[]analyzer.KeywordRecord]{}, tool)
}

func TestWorkspaceBlankSubmitNeverDispatches(t *testing.T) {
	w := newTestWorkspace()
	defer w.Close()

	require.NoError(t, w.Open(catalog.SiteAudit))
	assert.ErrorIs(t, w.Submit(catalog.SiteAudit, Request{Input: "   "}), ErrBlankInput)
	assert.Equal(t, Idle, w.Audit.Status())
}

func TestWorkspaceMetaResolvesSynchronously(t *testing.T) {
	w := newTestWorkspace()
	defer w.Close()

	require.NoError(t, w.Open(catalog.MetaGenerator))

	err := w.Submit(catalog.MetaGenerator, Request{Title: "Only a title"})
	assert.ErrorIs(t, err, ErrBlankInput)
	assert.Equal(t, Idle, w.Meta.Status())

	err = w.Submit(catalog.MetaGenerator, Request{Title: "A title", Description: "   "})
	assert.ErrorIs(t, err, ErrBlankInput)
	err = w.Submit(catalog.MetaGenerator, Request{Title: " \t", Description: "A description"})
	assert.ErrorIs(t, err, ErrBlankInput)
	assert.Equal(t, Idle, w.Meta.Status())

	require.NoError(t, w.Submit(catalog.MetaGenerator, Request{
		Title:       "SEO Lab",
		Description: "Tools for SEO",
		Keywords:    "seo,tools",
		URL:         "https://example.com",
	}))

	snap := w.Meta.Snapshot()
	require.Equal(t, Shown, snap.Status)
	assert.Equal(t, "SEO Lab", snap.Result.Tags.Title)
	assert.Equal(t, "seo, tools", snap.Result.Tags.Keywords)
	assert.Contains(t, snap.Result.HTML, `<meta property="og:url" content="https://example.com">`)
}

func TestWorkspaceBackResetsForm(t *testing.T) {
	w := New("slow", analyzer.NewMock())
	defer w.Close()

	require.NoError(t, w.Open(catalog.PageSpeed))
	require.NoError(t, w.Submit(catalog.PageSpeed, Request{Input: "https://example.com"}))
	require.Equal(t, Loading, w.PageSpeed.Status())

	require.NoError(t, w.Back())
	assert.Equal(t, Idle, w.PageSpeed.Status())
	assert.Equal(t, catalog.ViewBrowsing, w.Navigation().View)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Wait(ctx, catalog.PageSpeed))
	assert.Equal(t, Idle, w.PageSpeed.Status())
}

func TestWorkspaceSubmitRacingBack(t *testing.T) {
	for i := 0; i < 200; i++ {
		w := New("race", analyzer.NewMock())
		require.NoError(t, w.Open(catalog.SiteAudit))

		start := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			_ = w.Submit(catalog.SiteAudit, Request{Input: "https://example.com"})
		}()
		go func() {
			defer wg.Done()
			<-start
			_ = w.Back()
		}()
		close(start)
		wg.Wait()

		// Either the submit ran first and Back reset it, or Back ran first
		// and the submit found no open tool. Never a run on a closed view.
		require.Equal(t, catalog.ViewBrowsing, w.Navigation().View)
		require.Equal(t, Idle, w.Audit.Status(), "iteration %d", i)
		w.Close()
	}
}

func TestWorkspaceCloseCancelsPendingRuns(t *testing.T) {
	w := New("slow", analyzer.NewMock())

	require.NoError(t, w.Open(catalog.SiteAudit))
	require.NoError(t, w.Submit(catalog.SiteAudit, Request{Input: "https://example.com"}))
	w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Wait(ctx, catalog.SiteAudit))
	assert.Equal(t, Idle, w.Audit.Status())
	assert.ErrorIs(t, w.Submit(catalog.SiteAudit, Request{Input: "x"}), ErrClosed)
}

func TestStore(t *testing.T) {
	provider := analyzer.NewMock(analyzer.WithLatencyScale(0))

	t.Run("CreateGetDelete", func(t *testing.T) {
		s := NewStore(provider, time.Hour, 0, nil)
		w := s.Create()
		require.NotEmpty(t, w.ID)

		got, ok := s.Get(w.ID)
		require.True(t, ok)
		assert.Same(t, w, got)
		assert.Equal(t, 1, s.Len())

		assert.True(t, s.Delete(w.ID))
		assert.False(t, s.Delete(w.ID))
		_, ok = s.Get(w.ID)
		assert.False(t, ok)
	})

	t.Run("ExpiresIdleSessions", func(t *testing.T) {
		now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		s := NewStore(provider, 10*time.Minute, 0, nil)
		s.now = func() time.Time { return now }

		stale := s.Create()
		now = now.Add(8 * time.Minute)
		fresh := s.Create()
		now = now.Add(5 * time.Minute)

		assert.Equal(t, 1, s.Cleanup())
		_, ok := s.Get(stale.ID)
		assert.False(t, ok)
		_, ok = s.Get(fresh.ID)
		assert.True(t, ok)
	})

	t.Run("EvictsLeastRecentlyUsed", func(t *testing.T) {
		now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		s := NewStore(provider, time.Hour, 2, nil)
		s.now = func() time.Time { return now }

		first := s.Create()
		now = now.Add(time.Minute)
		second := s.Create()
		now = now.Add(time.Minute)
		s.Get(first.ID)
		now = now.Add(time.Minute)
		third := s.Create()

		assert.Equal(t, 2, s.Len())
		_, ok := s.Get(second.ID)
		assert.False(t, ok)
		_, ok = s.Get(first.ID)
		assert.True(t, ok)
		_, ok = s.Get(third.ID)
		assert.True(t, ok)
		assert.ErrorIs(t, second.Submit(catalog.KeywordResearch, Request{Input: "x"}), catalog.ErrNotOpen)
	})

	t.Run("RunStopsWithContext", func(t *testing.T) {
		s := NewStore(provider, time.Hour, 0, nil)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- s.Run(ctx, time.Millisecond) }()
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("Run did not return")
		}
	})

	t.Run("CloseAll", func(t *testing.T) {
		s := NewStore(provider, time.Hour, 0, nil)
		s.Create()
		s.Create()
		s.CloseAll()
		assert.Zero(t, s.Len())
	})
}
