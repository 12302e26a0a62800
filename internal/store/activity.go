package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/patchme-dev/patchme/internal/model"
)

// unknownSystemName labels breadcrumbs left by requests whose API key did
// not resolve to any system.
const unknownSystemName = "Unknown (invalid key)"

// AppendActivity records an audit entry. systemID may be nil for
// invalid-key breadcrumbs; meta is raw JSON.
func (s *Store) AppendActivity(ctx context.Context, systemID *string, action string, meta []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_log (id, system_id, action, meta, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		newID(), systemID, action, string(meta), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("inserting activity entry: %w", classify(err))
	}
	return nil
}

// ListActivity returns the newest entries first, at most limit of them,
// with the system name resolved where the system still exists.
func (s *Store) ListActivity(ctx context.Context, limit int) ([]model.ActivityLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.system_id, COALESCE(s.name, ?), a.action, COALESCE(a.meta, ''), a.created_at
		FROM activity_log a LEFT JOIN systems s ON s.id = a.system_id
		ORDER BY a.created_at DESC, a.rowid DESC
		LIMIT ?`, unknownSystemName, limit)
	if err != nil {
		return nil, fmt.Errorf("querying activity log: %w", classify(err))
	}
	defer rows.Close()

	var entries []model.ActivityLog
	for rows.Next() {
		var e model.ActivityLog
		var systemID sql.NullString
		var createdAt int64
		if err := rows.Scan(&e.ID, &systemID, &e.SystemName, &e.Action, &e.Meta, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning activity entry: %w", err)
		}
		if systemID.Valid {
			e.SystemID = &systemID.String
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountActivity reports the total number of audit entries.
func (s *Store) CountActivity(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activity_log`).Scan(&n)
	return n, classify(err)
}

// PruneActivity deletes everything but the newest keep entries and reports
// how many rows were removed.
func (s *Store) PruneActivity(ctx context.Context, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM activity_log WHERE id NOT IN (
			SELECT id FROM activity_log ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning activity log: %w", classify(err))
	}
	n, _ := res.RowsAffected()
	return n, nil
}
