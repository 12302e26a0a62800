package store

import (
	"context"
	"log/slog"
	"time"
)

// Pruner periodically trims the activity log to its newest entries and
// drops expired sessions.
type Pruner struct {
	store    *Store
	keep     int // activity entries to retain
	interval time.Duration
}

// NewPruner creates a pruner retaining the newest keep activity entries.
func NewPruner(store *Store, keep int) *Pruner {
	return &Pruner{
		store:    store,
		keep:     keep,
		interval: 15 * time.Minute,
	}
}

// Run starts the pruner loop. It blocks until the context is cancelled.
func (p *Pruner) Run(ctx context.Context) error {
	slog.Info("pruner started", "interval", p.interval, "activity_keep", p.keep)

	// Run once at startup
	p.prune(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("pruner stopped")
			return ctx.Err()
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	if n, err := p.store.PruneActivity(ctx, p.keep); err != nil {
		slog.Error("pruning activity log failed", "error", err)
	} else if n > 0 {
		slog.Info("pruned activity log", "rows", n, "kept", p.keep)
	}

	if n, err := p.store.DeleteExpiredSessions(ctx); err != nil {
		slog.Error("pruning sessions failed", "error", err)
	} else if n > 0 {
		slog.Info("pruned expired sessions", "rows", n)
	}
}
