package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/patchme-dev/patchme/internal/model"
	"github.com/patchme-dev/patchme/internal/observability"
	"github.com/patchme-dev/patchme/internal/store"
)

// Repository is the slice of the record store the pipeline needs.
// *store.Store satisfies it.
type Repository interface {
	FindSystemByAPIKey(ctx context.Context, key string) (*model.System, error)
	FindBaselinesByVariables(ctx context.Context, variables []string) ([]model.Baseline, error)
	ApplyIngest(ctx context.Context, systemID string, values []store.ValueUpsert, seenAt time.Time) error
}

// LogSink receives audit entries. Append failures are never fatal to the
// ingest that triggered them.
type LogSink interface {
	AppendActivity(ctx context.Context, systemID *string, action string, meta []byte) error
}

// Errors surfaced to the handler, which maps them onto HTTP status codes.
var (
	// ErrInvalidKey means the payload's API key resolved to no system.
	ErrInvalidKey = errors.New("invalid API key")
	// ErrConflictExhausted means write contention persisted through every
	// retry; the whole request is safe to retry later.
	ErrConflictExhausted = errors.New("write conflict persisted after retries")
	// ErrTimeout means the transaction ran over its deadline.
	ErrTimeout = errors.New("transaction timed out")
)

// Config tunes the pipeline's transaction and retry behavior.
type Config struct {
	MaxRetries     int           // additional attempts after the first
	RetryBaseDelay time.Duration // doubled each attempt, plus jitter
	TxTimeout      time.Duration // per-attempt transaction deadline
}

// DefaultConfig returns the stock pipeline tuning.
func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		RetryBaseDelay: 100 * time.Millisecond,
		TxTimeout:      10 * time.Second,
	}
}

// Result reports how a validated payload was applied.
type Result struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
}

// Pipeline applies validated agent payloads to the store.
type Pipeline struct {
	repo Repository
	logs LogSink
	cfg  Config
}

// New creates a pipeline. Zero-valued config fields fall back to defaults.
func New(repo Repository, logs LogSink, cfg Config) *Pipeline {
	def := DefaultConfig()
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = def.RetryBaseDelay
	}
	if cfg.TxTimeout <= 0 {
		cfg.TxTimeout = def.TxTimeout
	}
	return &Pipeline{repo: repo, logs: logs, cfg: cfg}
}

// Ingest resolves the payload's key, matches its entries against configured
// baselines, applies the matched values transactionally (retrying write
// conflicts) and appends a best-effort audit entry after the commit.
func (p *Pipeline) Ingest(ctx context.Context, payload *Payload) (Result, error) {
	start := time.Now()

	sys, err := p.repo.FindSystemByAPIKey(ctx, payload.Key)
	if errors.Is(err, store.ErrNotFound) {
		// Keep a breadcrumb of the unauthorized attempt. The key itself is
		// not recorded; the payload entries are.
		p.audit(ctx, nil, "ingest_rejected", payload.Entries)
		return Result{}, ErrInvalidKey
	}
	if err != nil {
		return Result{}, fmt.Errorf("resolving API key: %w", err)
	}

	variables := make([]string, 0, len(payload.Entries))
	for _, e := range payload.Entries {
		variables = append(variables, e.Variable)
	}
	baselines, err := p.repo.FindBaselinesByVariables(ctx, variables)
	if err != nil {
		return Result{}, fmt.Errorf("matching baselines: %w", err)
	}
	byVariable := make(map[string]model.Baseline, len(baselines))
	for _, b := range baselines {
		byVariable[b.Variable] = b
	}

	var res Result
	values := make([]store.ValueUpsert, 0, len(payload.Entries))
	for _, e := range payload.Entries {
		b, ok := byVariable[e.Variable]
		if !ok {
			// Agents report variables before an administrator configures a
			// baseline for them; that is normal, not an error.
			res.Skipped++
			continue
		}
		values = append(values, store.ValueUpsert{BaselineID: b.ID, Value: e.Version})
		res.Processed++
	}
	res.Skipped += payload.InvalidEntries

	if err := p.apply(ctx, sys.ID, values); err != nil {
		return Result{}, err
	}

	p.audit(ctx, &sys.ID, "ingest", payload.Entries)

	observability.IngestDuration.Observe(time.Since(start).Seconds())
	observability.IngestEntries.WithLabelValues("processed").Add(float64(res.Processed))
	observability.IngestEntries.WithLabelValues("skipped").Add(float64(res.Skipped))
	return res, nil
}

// apply runs the transactional upsert, retrying conflicts with exponential
// backoff plus jitter. Non-conflict errors are not retried.
func (p *Pipeline) apply(ctx context.Context, systemID string, values []store.ValueUpsert) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		txCtx, cancel := context.WithTimeout(ctx, p.cfg.TxTimeout)
		err := p.repo.ApplyIngest(txCtx, systemID, values, time.Now())
		cancel()
		if err == nil {
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		if !errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("applying ingest: %w", err)
		}

		lastErr = err
		observability.TxConflicts.Inc()
		if attempt >= p.cfg.MaxRetries {
			break
		}
		delay := p.cfg.RetryBaseDelay<<attempt + rand.N(100*time.Millisecond)
		slog.Debug("retrying ingest transaction after conflict",
			"system_id", systemID, "attempt", attempt+1, "delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("%w: %w", ErrConflictExhausted, lastErr)
}

// audit appends an activity entry recording the accepted entries. This runs
// outside the upsert transaction; failures are logged and swallowed so a
// committed ingest always reports success.
func (p *Pipeline) audit(ctx context.Context, systemID *string, action string, entries []Entry) {
	versions := make([]map[string]string, 0, len(entries))
	for _, e := range entries {
		versions = append(versions, map[string]string{"variable": e.Variable, "version": e.Version})
	}
	meta, err := json.Marshal(map[string]any{"versions": versions})
	if err != nil {
		slog.Error("marshaling audit meta", "error", err)
		return
	}
	if err := p.logs.AppendActivity(ctx, systemID, action, meta); err != nil {
		slog.Error("appending activity entry", "action", action, "error", err)
	}
}
