package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowPerKey(t *testing.T) {
	l := NewKeyedLimiter(2)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a", 60))
	assert.True(t, l.Allow("a", 60))
	assert.False(t, l.Allow("a", 60), "burst exhausted")
	assert.True(t, l.Allow("b", 60), "other key has its own bucket")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a", 60), "one token refilled after a second")
}

func TestAllowUnlimited(t *testing.T) {
	l := NewKeyedLimiter(1)
	for i := 0; i < 10; i++ {
		assert.True(t, l.Allow("a", 0))
	}
}

func TestCleanup(t *testing.T) {
	l := NewKeyedLimiter(1)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("old", 10)
	now = now.Add(time.Hour)
	l.Allow("fresh", 10)

	assert.Equal(t, 1, l.Cleanup())
	assert.Len(t, l.limiters, 1)
}
