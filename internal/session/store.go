// Package session keeps one table view per browser. A view lives until its
// session has been idle for longer than the store TTL.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/star/exoview/internal/dataset"
	"github.com/star/exoview/internal/metrics"
)

// CookieName is the cookie carrying the session ID.
const CookieName = "exoview_session"

// DefaultMaxSessions bounds the store when no limit is configured.
const DefaultMaxSessions = 10000

type entry struct {
	loader   *dataset.Loader
	lastSeen time.Time
}

// Store is a thread-safe in-memory map of session ID to view.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry

	ttl       time.Duration
	max       int
	newLoader func() *dataset.Loader
	logger    *slog.Logger
	now       func() time.Time
}

// NewStore creates an empty Store holding at most maxSessions views.
// newLoader builds the view for a new session.
func NewStore(ttl time.Duration, maxSessions int, newLoader func() *dataset.Loader, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Store{
		entries:   make(map[string]*entry),
		ttl:       ttl,
		max:       maxSessions,
		newLoader: newLoader,
		logger:    logger,
		now:       time.Now,
	}
}

// Loader returns the view for the request's session. A missing, unknown, or
// expired session gets a fresh view and a new cookie. When the store is full
// the least recently used session is evicted.
func (s *Store) Loader(w http.ResponseWriter, r *http.Request) *dataset.Loader {
	now := s.now()

	if c, err := r.Cookie(CookieName); err == nil {
		s.mu.Lock()
		e, ok := s.entries[c.Value]
		if ok && now.Sub(e.lastSeen) <= s.ttl {
			e.lastSeen = now
			s.mu.Unlock()
			return e.loader
		}
		if ok {
			delete(s.entries, c.Value)
		}
		s.mu.Unlock()
	}

	id := randomHex(16)
	e := &entry{loader: s.newLoader(), lastSeen: now}

	s.mu.Lock()
	evicted := ""
	if len(s.entries) >= s.max {
		evicted = s.evictOldestLocked()
	}
	s.entries[id] = e
	n := len(s.entries)
	s.mu.Unlock()
	metrics.SetSessionsActive(n)

	if evicted != "" {
		s.logger.Warn("session limit reached, evicted least recently used",
			"component", "session",
			"max", s.max,
		)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return e.loader
}

// Peek returns the view for the request's session without creating one.
func (s *Store) Peek(r *http.Request) (*dataset.Loader, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[c.Value]
	if !ok || s.now().Sub(e.lastSeen) > s.ttl {
		return nil, false
	}
	return e.loader, true
}

// View returns the request's live view, or a fresh default view that is not
// stored. Read-only routes use it so they never create sessions.
func (s *Store) View(r *http.Request) *dataset.Loader {
	if l, ok := s.Peek(r); ok {
		return l
	}
	return s.newLoader()
}

// evictOldestLocked removes the entry with the oldest lastSeen and returns its
// ID. s.mu must be held.
func (s *Store) evictOldestLocked() string {
	var oldestID string
	var oldest time.Time
	for id, e := range s.entries {
		if oldestID == "" || e.lastSeen.Before(oldest) {
			oldestID, oldest = id, e.lastSeen
		}
	}
	if oldestID != "" {
		delete(s.entries, oldestID)
	}
	return oldestID
}

// Len returns the number of stored sessions, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep removes expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	now := s.now()

	s.mu.Lock()
	removed := 0
	for id, e := range s.entries {
		if now.Sub(e.lastSeen) > s.ttl {
			delete(s.entries, id)
			removed++
		}
	}
	n := len(s.entries)
	s.mu.Unlock()

	metrics.SetSessionsActive(n)
	if removed > 0 {
		s.logger.Debug("expired sessions removed",
			"component", "session",
			"removed", removed,
			"active", n,
		)
	}
	return removed
}

// Start runs the sweeper until ctx is cancelled.
func (s *Store) Start(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("session sweeper started",
		"component", "session",
		"ttl_seconds", s.ttl.Seconds(),
	)

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-ctx.Done():
			s.logger.Info("session sweeper stopped", "component", "session")
			return
		}
	}
}

// randomHex generates a cryptographically random hex string of n bytes.
func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
