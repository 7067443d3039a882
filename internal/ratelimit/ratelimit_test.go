package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"finbot/internal/logging"
)

func newLimiter(now *time.Time) *Limiter {
	l := New(NewMemoryStore(), logging.NewMockLogger())
	l.now = func() time.Time { return *now }
	return l
}

func TestAllowUpToLimit(t *testing.T) {
	now := time.Now()
	l := newLimiter(&now)

	for i := 0; i < defaultLimit; i++ {
		assert.True(t, l.Allow(1), "request %d should pass", i+1)
	}
	assert.False(t, l.Allow(1))
}

func TestUsersAreIndependent(t *testing.T) {
	now := time.Now()
	l := newLimiter(&now)

	for i := 0; i < defaultLimit+5; i++ {
		l.Allow(1)
	}
	assert.False(t, l.Allow(1))
	assert.True(t, l.Allow(2))
}

func TestWindowSlides(t *testing.T) {
	now := time.Now()
	l := newLimiter(&now)

	for i := 0; i < defaultLimit; i++ {
		l.Allow(1)
	}
	assert.False(t, l.Allow(1))

	now = now.Add(defaultWindow + time.Second)
	assert.True(t, l.Allow(1))
}

func TestRejectedRequestsExtendLockout(t *testing.T) {
	now := time.Now()
	l := newLimiter(&now)

	for i := 0; i < defaultLimit+1; i++ {
		l.Allow(1)
	}

	// Half a window later the original hits are still inside the window.
	now = now.Add(defaultWindow / 2)
	assert.False(t, l.Allow(1))
}

func TestMemoryStoreConcurrency(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Record(1, now, now.Add(-time.Minute))
		}()
	}
	wg.Wait()

	assert.Equal(t, 51, store.Record(1, now, now.Add(-time.Minute)))
}
