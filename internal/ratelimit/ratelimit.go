// Package ratelimit provides per-API-key fixed-window request admission.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Config holds the limiter's tunables.
type Config struct {
	Window        time.Duration // length of one counting window
	Limit         int           // requests admitted per window per key
	SweepInterval time.Duration // how often expired windows are evicted
}

// DefaultConfig returns the stock limits: 100 requests per 60s window,
// swept every 5 minutes.
func DefaultConfig() Config {
	return Config{
		Window:        time.Minute,
		Limit:         100,
		SweepInterval: 5 * time.Minute,
	}
}

// Result reports the admission decision for one request.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

// Limiter admits requests on a fixed-window counter per key. Bursts aligned
// to window boundaries can momentarily exceed the nominal rate; that is the
// accepted tradeoff for keeping this a plain map and a mutex.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	cfg     Config

	now func() time.Time // test hook
}

// New returns a limiter with the given config. Zero-valued fields fall back
// to the defaults.
func New(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.Limit <= 0 {
		cfg.Limit = def.Limit
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}
	return &Limiter{
		windows: make(map[string]*window),
		cfg:     cfg,
		now:     time.Now,
	}
}

// Check admits or denies one request for key. The first request in a window
// (or after the previous window expired) starts a fresh count.
func (l *Limiter) Check(key string) Result {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{count: 1, resetAt: now.Add(l.cfg.Window)}
		l.windows[key] = w
		return Result{Allowed: true, Limit: l.cfg.Limit, Remaining: l.cfg.Limit - 1, ResetAt: w.resetAt}
	}
	if w.count < l.cfg.Limit {
		w.count++
		return Result{Allowed: true, Limit: l.cfg.Limit, Remaining: l.cfg.Limit - w.count, ResetAt: w.resetAt}
	}
	return Result{Allowed: false, Limit: l.cfg.Limit, Remaining: 0, ResetAt: w.resetAt}
}

// Run starts the background sweep loop. It blocks until the context is
// cancelled.
func (l *Limiter) Run(ctx context.Context) error {
	slog.Info("rate limiter started",
		"window", l.cfg.Window,
		"limit", l.cfg.Limit,
		"sweep_interval", l.cfg.SweepInterval,
	)

	ticker := time.NewTicker(l.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("rate limiter stopped")
			return ctx.Err()
		case <-ticker.C:
			l.sweep()
		}
	}
}

// sweep drops windows that have already expired, bounding the map to keys
// active within the last window.
func (l *Limiter) sweep() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	var evicted int
	for key, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, key)
			evicted++
		}
	}
	if evicted > 0 {
		slog.Debug("evicted expired rate-limit windows", "count", evicted, "active", len(l.windows))
	}
}

// Size reports the number of tracked keys.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
