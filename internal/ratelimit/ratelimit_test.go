package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// newTestLimiter returns a limiter with a controllable clock.
func newTestLimiter(cfg Config) (*Limiter, *time.Time) {
	l := New(cfg)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestCheck_FreshWindow(t *testing.T) {
	l, now := newTestLimiter(Config{Window: time.Minute, Limit: 5})

	res := l.Check("pm_AAAAAAA")
	assert.True(t, res.Allowed)
	assert.Equal(t, 5, res.Limit)
	assert.Equal(t, 4, res.Remaining)
	assert.Equal(t, now.Add(time.Minute), res.ResetAt)
}

func TestCheck_DenyAtLimit(t *testing.T) {
	l, _ := newTestLimiter(Config{Window: time.Minute, Limit: 3})

	for i := range 3 {
		res := l.Check("key")
		assert.True(t, res.Allowed, "request %d", i+1)
	}
	res := l.Check("key")
	assert.False(t, res.Allowed)
	assert.Zero(t, res.Remaining)
	assert.False(t, res.ResetAt.IsZero())
}

func TestCheck_WindowReset(t *testing.T) {
	l, now := newTestLimiter(Config{Window: time.Minute, Limit: 1})

	assert.True(t, l.Check("key").Allowed)
	assert.False(t, l.Check("key").Allowed)

	*now = now.Add(time.Minute + time.Second)
	res := l.Check("key")
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, now.Add(time.Minute), res.ResetAt)
}

func TestCheck_KeysIndependent(t *testing.T) {
	l, _ := newTestLimiter(Config{Window: time.Minute, Limit: 1})

	assert.True(t, l.Check("a").Allowed)
	assert.False(t, l.Check("a").Allowed)
	assert.True(t, l.Check("b").Allowed)
}

func TestSweep_EvictsExpired(t *testing.T) {
	l, now := newTestLimiter(Config{Window: time.Minute, Limit: 10})

	l.Check("stale")
	*now = now.Add(30 * time.Second)
	l.Check("fresh")
	assert.Equal(t, 2, l.Size())

	*now = now.Add(45 * time.Second) // "stale" expired, "fresh" still open
	l.sweep()
	assert.Equal(t, 1, l.Size())

	*now = now.Add(time.Hour)
	l.sweep()
	assert.Zero(t, l.Size())
}

func TestNew_ZeroConfigUsesDefaults(t *testing.T) {
	l := New(Config{})
	res := l.Check("key")
	assert.True(t, res.Allowed)
	assert.Equal(t, 100, res.Limit)
	assert.Equal(t, 99, res.Remaining)
}

func TestCheck_Concurrent(t *testing.T) {
	l := New(Config{Window: time.Minute, Limit: 50})

	var wg sync.WaitGroup
	allowed := make([]int, 10)
	for g := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				if l.Check("shared").Allowed {
					allowed[g]++
				}
			}
		}()
	}
	wg.Wait()

	var total int
	for _, n := range allowed {
		total += n
	}
	// 100 concurrent requests against a limit of 50: exactly 50 admitted.
	assert.Equal(t, 50, total)
}
