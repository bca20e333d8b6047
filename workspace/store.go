package workspace

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seo-lab/backend/analyzer"
)

// Store keeps workspaces by session id.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Workspace
	provider analyzer.Provider
	ttl      time.Duration
	maxSize  int
	logger   *slog.Logger
	now      func() time.Time
}

// NewStore creates a store whose workspaces expire after ttl of inactivity.
// maxSize <= 0 disables the size cap.
func NewStore(provider analyzer.Provider, ttl time.Duration, maxSize int, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		sessions: make(map[string]*Workspace),
		provider: provider,
		ttl:      ttl,
		maxSize:  maxSize,
		logger:   logger,
		now:      time.Now,
	}
}

// Create opens a new session, evicting the least recently used one when the
// store is full.
func (s *Store) Create() *Workspace {
	w := New(uuid.NewString(), s.provider)
	w.touch(s.now())

	s.mu.Lock()
	var evicted []*Workspace
	if s.maxSize > 0 && len(s.sessions) >= s.maxSize {
		evicted = s.oldestLocked(len(s.sessions) - s.maxSize + 1)
	}
	s.sessions[w.ID] = w
	s.mu.Unlock()

	for _, old := range evicted {
		old.Close()
		s.logger.Info("session evicted", slog.String("session", old.ID))
	}
	return w
}

// Get returns the session and marks it as active.
func (s *Store) Get(id string) (*Workspace, bool) {
	s.mu.RLock()
	w, ok := s.sessions[id]
	s.mu.RUnlock()

	if ok {
		w.touch(s.now())
	}
	return w, ok
}

// Delete ends a session and cancels its pending runs.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	w, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		w.Close()
	}
	return ok
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Cleanup removes expired sessions and enforces the size cap. It returns the
// number of sessions removed.
func (s *Store) Cleanup() int {
	now := s.now()

	s.mu.Lock()
	var removed []*Workspace
	if s.ttl > 0 {
		for id, w := range s.sessions {
			if now.Sub(w.seen()) > s.ttl {
				removed = append(removed, w)
				delete(s.sessions, id)
			}
		}
	}
	if s.maxSize > 0 && len(s.sessions) > s.maxSize {
		removed = append(removed, s.oldestLocked(len(s.sessions)-s.maxSize)...)
	}
	s.mu.Unlock()

	for _, w := range removed {
		w.Close()
	}
	if len(removed) > 0 {
		s.logger.Debug("sessions cleaned up", slog.Int("removed", len(removed)))
	}
	return len(removed)
}

// oldestLocked removes and returns the n least recently used sessions.
func (s *Store) oldestLocked(n int) []*Workspace {
	entries := make([]struct {
		id       string
		lastSeen time.Time
	}, 0, len(s.sessions))

	for id, w := range s.sessions {
		entries = append(entries, struct {
			id       string
			lastSeen time.Time
		}{id, w.seen()})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].lastSeen.Before(entries[j].lastSeen)
	})

	out := make([]*Workspace, 0, n)
	for i := 0; i < n && i < len(entries); i++ {
		out = append(out, s.sessions[entries[i].id])
		delete(s.sessions, entries[i].id)
	}
	return out
}

// Run calls Cleanup every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Cleanup()
		}
	}
}

// CloseAll ends every session.
func (s *Store) CloseAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Workspace)
	s.mu.Unlock()

	for _, w := range sessions {
		w.Close()
	}
}
