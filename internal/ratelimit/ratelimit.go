// Package ratelimit enforces a per-user sliding-window request cap. The
// window state lives behind a small store interface so deployments can swap
// the in-memory store for a shared one without touching the limiter logic.
package ratelimit

import (
	"sync"
	"time"

	"finbot/internal/logging"
)

const (
	defaultLimit  = 20
	defaultWindow = time.Minute
)

// Store records request timestamps per user and reports how many fall inside
// the current window.
type Store interface {
	// Record appends a hit for the user at the given instant and returns the
	// number of hits at or after cutoff, including this one.
	Record(userID int64, at, cutoff time.Time) int
}

// Limiter applies the sliding-window policy on top of a Store.
type Limiter struct {
	store  Store
	limit  int
	window time.Duration
	logger logging.Logger
	now    func() time.Time
}

// New creates a limiter with the default 20 requests per minute policy.
func New(store Store, logger logging.Logger) *Limiter {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Limiter{
		store:  store,
		limit:  defaultLimit,
		window: defaultWindow,
		logger: logger,
		now:    time.Now,
	}
}

// Allow reports whether the user may make one more request right now. The
// request is counted either way, so hammering a limited endpoint extends the
// lockout.
func (l *Limiter) Allow(userID int64) bool {
	now := l.now()
	count := l.store.Record(userID, now, now.Add(-l.window))
	if count > l.limit {
		l.logger.WithFields(
			logging.Field{Key: logging.FieldUserID, Value: userID},
			logging.Field{Key: logging.FieldCount, Value: count},
		).Warn("Rate limit exceeded")
		return false
	}
	return true
}

// MemoryStore keeps per-user hit timestamps in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	hits map[int64][]time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{hits: make(map[int64][]time.Time)}
}

// Record implements Store. Expired hits are dropped on every call, so memory
// stays proportional to recent traffic.
func (s *MemoryStore) Record(userID int64, at, cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	recent := s.hits[userID][:0]
	for _, hit := range s.hits[userID] {
		if !hit.Before(cutoff) {
			recent = append(recent, hit)
		}
	}
	recent = append(recent, at)
	s.hits[userID] = recent
	return len(recent)
}
