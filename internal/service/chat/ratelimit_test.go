package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllow(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(time.Second, func() time.Time { return now })

	assert.True(t, limiter.Allow())
	assert.False(t, limiter.Allow())

	now = now.Add(999 * time.Millisecond)
	assert.False(t, limiter.Allow())

	now = now.Add(time.Millisecond)
	assert.True(t, limiter.Allow())
}

func TestRateLimiterRejectionDoesNotMoveWindow(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(time.Second, func() time.Time { return now })

	assert.True(t, limiter.Allow())
	now = now.Add(600 * time.Millisecond)
	assert.False(t, limiter.Allow())
	now = now.Add(400 * time.Millisecond)
	assert.True(t, limiter.Allow())
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := NewRateLimiter(-1, nil)

	assert.True(t, limiter.Allow())
	assert.True(t, limiter.Allow())
}

func TestStoreRotateRemovesOldSession(t *testing.T) {
	s := newStore(time.Now)

	first := s.Rotate()
	second := s.Rotate()

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 1, s.Len())
}

func TestStoreBrokenCurrentHandlePanics(t *testing.T) {
	s := newStore(time.Now)
	s.current = "dangling"

	assert.PanicsWithError(t, "session not found: current handle dangling", func() {
		s.History()
	})
}
