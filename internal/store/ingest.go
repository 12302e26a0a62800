package store

import (
	"context"
	"fmt"
	"time"
)

// ValueUpsert is one (baseline, value) write applied during an ingest.
type ValueUpsert struct {
	BaselineID string
	Value      string
}

// ApplyIngest upserts every reported value and touches the system's
// last-seen timestamp inside a single immediate transaction. Each value is
// keyed on (system_id, baseline_id), so repeating a payload rewrites the
// same rows instead of growing the table. Write contention with a
// concurrent ingest surfaces as ErrConflict; the caller decides whether to
// retry.
func (s *Store) ApplyIngest(ctx context.Context, systemID string, values []ValueUpsert, seenAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback()

	for _, v := range values {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO system_baseline_values (id, system_id, baseline_id, value)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(system_id, baseline_id) DO UPDATE SET value = excluded.value`,
			newID(), systemID, v.BaselineID, v.Value); err != nil {
			return fmt.Errorf("upserting value for baseline %s: %w", v.BaselineID, classify(err))
		}
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE systems SET last_seen = ? WHERE id = ?`, seenAt.Unix(), systemID); err != nil {
		return fmt.Errorf("updating last seen: %w", classify(err))
	}
	return classify(tx.Commit())
}
