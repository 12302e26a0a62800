package ingest

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/patchme-dev/patchme/internal/model"
	"github.com/patchme-dev/patchme/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu        sync.Mutex
	systems   map[string]*model.System
	baselines []model.Baseline

	applyErrs []error // popped per ApplyIngest call; nil means success
	applied   [][]store.ValueUpsert
}

func (f *fakeRepo) FindSystemByAPIKey(ctx context.Context, key string) (*model.System, error) {
	if sys, ok := f.systems[key]; ok {
		return sys, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeRepo) FindBaselinesByVariables(ctx context.Context, variables []string) ([]model.Baseline, error) {
	want := make(map[string]bool, len(variables))
	for _, v := range variables {
		want[v] = true
	}
	var out []model.Baseline
	for _, b := range f.baselines {
		if want[b.Variable] {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeRepo) ApplyIngest(ctx context.Context, systemID string, values []store.ValueUpsert, seenAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, values)
	if len(f.applyErrs) == 0 {
		return nil
	}
	err := f.applyErrs[0]
	f.applyErrs = f.applyErrs[1:]
	return err
}

type fakeSink struct {
	mu      sync.Mutex
	err     error
	entries []sinkEntry
}

type sinkEntry struct {
	SystemID *string
	Action   string
	Meta     []byte
}

func (f *fakeSink) AppendActivity(ctx context.Context, systemID *string, action string, meta []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, sinkEntry{SystemID: systemID, Action: action, Meta: meta})
	return f.err
}

func testFixtures() (*fakeRepo, *fakeSink) {
	repo := &fakeRepo{
		systems: map[string]*model.System{
			"pm_GOODKEY": {ID: "sys-1", Name: "web-01", APIKey: "pm_GOODKEY"},
		},
		baselines: []model.Baseline{
			{ID: "b-nginx", Name: "Nginx", Variable: "nginx", Type: model.BaselineMin, MinVersion: "1.24.0"},
			{ID: "b-docker", Name: "Docker", Variable: "docker", Type: model.BaselineInfo},
		},
	}
	return repo, &fakeSink{}
}

func fastConfig() Config {
	return Config{MaxRetries: 2, RetryBaseDelay: time.Millisecond, TxTimeout: time.Second}
}

func TestIngest(t *testing.T) {
	repo, sink := testFixtures()
	p := New(repo, sink, fastConfig())

	res, err := p.Ingest(context.Background(), &Payload{
		Key: "pm_GOODKEY",
		Entries: []Entry{
			{Variable: "nginx", Version: "1.26.1"},
			{Variable: "docker", Version: "24.0.7"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, Result{Processed: 2, Skipped: 0}, res)

	require.Len(t, repo.applied, 1)
	assert.Equal(t, []store.ValueUpsert{
		{BaselineID: "b-nginx", Value: "1.26.1"},
		{BaselineID: "b-docker", Value: "24.0.7"},
	}, repo.applied[0])

	require.Len(t, sink.entries, 1)
	assert.Equal(t, "ingest", sink.entries[0].Action)
	require.NotNil(t, sink.entries[0].SystemID)
	assert.Equal(t, "sys-1", *sink.entries[0].SystemID)

	var meta struct {
		Versions []map[string]string `json:"versions"`
	}
	require.NoError(t, json.Unmarshal(sink.entries[0].Meta, &meta))
	assert.Len(t, meta.Versions, 2)
}

func TestIngest_SkipsUnmatchedVariables(t *testing.T) {
	repo, sink := testFixtures()
	p := New(repo, sink, fastConfig())

	res, err := p.Ingest(context.Background(), &Payload{
		Key: "pm_GOODKEY",
		Entries: []Entry{
			{Variable: "nginx", Version: "1.26.1"},
			{Variable: "postgres", Version: "16.2"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, Result{Processed: 1, Skipped: 1}, res)
}

func TestIngest_CountsInvalidEntriesAsSkipped(t *testing.T) {
	repo, sink := testFixtures()
	p := New(repo, sink, fastConfig())

	res, err := p.Ingest(context.Background(), &Payload{
		Key:            "pm_GOODKEY",
		Entries:        []Entry{{Variable: "nginx", Version: "1.26.1"}},
		InvalidEntries: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, Result{Processed: 1, Skipped: 2}, res)
}

func TestIngest_InvalidKeyLeavesBreadcrumb(t *testing.T) {
	repo, sink := testFixtures()
	p := New(repo, sink, fastConfig())

	_, err := p.Ingest(context.Background(), &Payload{
		Key:     "pm_BADKEY",
		Entries: []Entry{{Variable: "nginx", Version: "1.26.1"}},
	})
	assert.ErrorIs(t, err, ErrInvalidKey)

	// Nothing was written
	assert.Empty(t, repo.applied)

	// But the attempt is on record, without a system reference
	require.Len(t, sink.entries, 1)
	assert.Equal(t, "ingest_rejected", sink.entries[0].Action)
	assert.Nil(t, sink.entries[0].SystemID)
}

func TestIngest_RetriesConflictThenSucceeds(t *testing.T) {
	repo, sink := testFixtures()
	repo.applyErrs = []error{store.ErrConflict, store.ErrConflict, nil}
	p := New(repo, sink, fastConfig())

	res, err := p.Ingest(context.Background(), &Payload{
		Key:     "pm_GOODKEY",
		Entries: []Entry{{Variable: "nginx", Version: "1.26.1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Len(t, repo.applied, 3)
}

func TestIngest_ConflictExhausted(t *testing.T) {
	repo, sink := testFixtures()
	repo.applyErrs = []error{store.ErrConflict, store.ErrConflict, store.ErrConflict}
	p := New(repo, sink, Config{MaxRetries: 2, RetryBaseDelay: time.Millisecond, TxTimeout: time.Second})

	_, err := p.Ingest(context.Background(), &Payload{
		Key:     "pm_GOODKEY",
		Entries: []Entry{{Variable: "nginx", Version: "1.26.1"}},
	})
	assert.ErrorIs(t, err, ErrConflictExhausted)
	assert.Len(t, repo.applied, 3)

	// No successful-ingest audit entry after a failed apply
	assert.Empty(t, sink.entries)
}

func TestIngest_DeadlineMapsToTimeout(t *testing.T) {
	repo, sink := testFixtures()
	repo.applyErrs = []error{context.DeadlineExceeded}
	p := New(repo, sink, fastConfig())

	_, err := p.Ingest(context.Background(), &Payload{
		Key:     "pm_GOODKEY",
		Entries: []Entry{{Variable: "nginx", Version: "1.26.1"}},
	})
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestIngest_NonConflictErrorNotRetried(t *testing.T) {
	repo, sink := testFixtures()
	repo.applyErrs = []error{assert.AnError}
	p := New(repo, sink, fastConfig())

	_, err := p.Ingest(context.Background(), &Payload{
		Key:     "pm_GOODKEY",
		Entries: []Entry{{Variable: "nginx", Version: "1.26.1"}},
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Len(t, repo.applied, 1)
}

func TestIngest_AuditFailureIsNotFatal(t *testing.T) {
	repo, sink := testFixtures()
	sink.err = assert.AnError
	p := New(repo, sink, fastConfig())

	res, err := p.Ingest(context.Background(), &Payload{
		Key:     "pm_GOODKEY",
		Entries: []Entry{{Variable: "nginx", Version: "1.26.1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
}

func TestIngest_EmptyEntries(t *testing.T) {
	repo, sink := testFixtures()
	p := New(repo, sink, fastConfig())

	res, err := p.Ingest(context.Background(), &Payload{Key: "pm_GOODKEY"})
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)

	// The empty apply still runs so last-seen is refreshed
	assert.Len(t, repo.applied, 1)
}
