// Package workspace keeps the per-session state of the tool pages: the
// navigator and one form per tool.
package workspace

import (
	"context"
	"errors"
	"sync"

	"github.com/seo-lab/backend/analyzer"
)

// Status is the visible state of a tool form.
type Status string

const (
	Idle    Status = "idle"
	Loading Status = "loading"
	Shown   Status = "shown"
)

var (
	// ErrBlankInput is returned for a whitespace-only submission. Nothing runs.
	ErrBlankInput = analyzer.ErrEmptyInput
	// ErrBusy is returned when the form already has an analysis in flight.
	ErrBusy = errors.New("analysis already in progress")
	// ErrClosed is returned once the owning session has ended.
	ErrClosed = errors.New("session closed")
)

// RunFunc performs the analysis behind a form.
type RunFunc[T any] func(ctx context.Context, input string) (T, error)

// Snapshot is a point-in-time copy of a form.
type Snapshot[T any] struct {
	Status Status `json:"status"`
	Input  string `json:"input,omitempty"`
	Result *T     `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Form is the Idle -> Loading -> Shown machine of a single tool.
//
// Every submission bumps a generation counter; a run only lands if the
// generation is unchanged when it resolves, so results arriving after
// Cancel, Reset or Close are dropped.
type Form[T any] struct {
	mu       sync.Mutex
	status   Status
	input    string
	result   *T
	lastErr  error
	gen      uint64
	cancel   context.CancelFunc
	done     chan struct{}
	closed   bool

	// state shown before the pending run, restored if it fails or is cancelled
	previous      Status
	previousInput string
}

// NewForm returns an idle form.
func NewForm[T any]() *Form[T] {
	return &Form[T]{status: Idle}
}

// Submit starts run in the background. parent bounds the run's lifetime.
func (f *Form[T]) Submit(parent context.Context, input string, run RunFunc[T]) error {
	if analyzer.Blank(input) {
		return ErrBlankInput
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	if f.status == Loading {
		return ErrBusy
	}

	f.gen++
	gen := f.gen
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	f.previous = f.status
	f.previousInput = f.input
	f.status = Loading
	f.input = input
	f.lastErr = nil
	f.cancel = cancel
	f.done = done

	go func() {
		defer close(done)
		defer cancel()
		result, err := run(ctx, input)
		f.resolve(gen, result, err)
	}()
	return nil
}

// Resolve shows result immediately, for tools computed without a provider call.
func (f *Form[T]) Resolve(input string, result T) error {
	if analyzer.Blank(input) {
		return ErrBlankInput
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	if f.status == Loading {
		return ErrBusy
	}

	f.gen++
	f.status = Shown
	f.input = input
	f.result = &result
	f.lastErr = nil
	return nil
}

func (f *Form[T]) resolve(gen uint64, result T, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.gen {
		return
	}
	f.cancel = nil
	if err != nil {
		f.status = f.previous
		f.input = f.previousInput
		f.lastErr = err
		return
	}
	f.status = Shown
	f.result = &result
}

// Cancel aborts the pending run, if any, and restores the state shown
// before it started. It reports whether a run was cancelled.
func (f *Form[T]) Cancel() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelLocked()
}

func (f *Form[T]) cancelLocked() bool {
	if f.status != Loading {
		return false
	}
	f.gen++
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.status = f.previous
	f.input = f.previousInput
	return true
}

// Reset cancels any pending run and clears the form back to Idle.
func (f *Form[T]) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cancelLocked()
	f.gen++
	f.status = Idle
	f.previous = Idle
	f.previousInput = ""
	f.input = ""
	f.result = nil
	f.lastErr = nil
}

// Close cancels any pending run and rejects later submissions.
func (f *Form[T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.cancelLocked()
	f.closed = true
}

// Wait blocks until the most recent run has returned or ctx is done.
func (f *Form[T]) Wait(ctx context.Context) error {
	f.mu.Lock()
	done := f.done
	f.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns the current state.
func (f *Form[T]) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Snapshot copies the form.
func (f *Form[T]) Snapshot() Snapshot[T] {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := Snapshot[T]{
		Status: f.status,
		Input:  f.input,
		Result: f.result,
	}
	if f.lastErr != nil {
		s.Error = f.lastErr.Error()
	}
	return s
}

func (f *Form[T]) summary() ToolState {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := ToolState{Status: f.status, Input: f.input}
	if f.lastErr != nil {
		s.Error = f.lastErr.Error()
	}
	return s
}

func (f *Form[T]) snapshot() (any, Status) {
	s := f.Snapshot()
	return s, s.Status
}
