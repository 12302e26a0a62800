package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/patchme-dev/patchme/internal/model"
)

// GetSystems returns all systems with tags, baselines and reported values
// attached, ordered by name.
func (s *Store) GetSystems(ctx context.Context) ([]model.System, error) {
	return s.querySystems(ctx, `
		SELECT id, name, hostname, api_key, last_seen
		FROM systems ORDER BY name ASC`)
}

// GetSystem returns one system by id.
func (s *Store) GetSystem(ctx context.Context, id string) (*model.System, error) {
	systems, err := s.querySystems(ctx, `
		SELECT id, name, hostname, api_key, last_seen
		FROM systems WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(systems) == 0 {
		return nil, ErrNotFound
	}
	return &systems[0], nil
}

// FindSystemByAPIKey resolves an agent's API key to its system. Returns
// ErrNotFound for unregistered keys.
func (s *Store) FindSystemByAPIKey(ctx context.Context, key string) (*model.System, error) {
	systems, err := s.querySystems(ctx, `
		SELECT id, name, hostname, api_key, last_seen
		FROM systems WHERE api_key = ?`, key)
	if err != nil {
		return nil, err
	}
	if len(systems) == 0 {
		return nil, ErrNotFound
	}
	return &systems[0], nil
}

// CreateSystem inserts a system with a freshly generated API key and its
// tag/baseline associations in one transaction.
func (s *Store) CreateSystem(ctx context.Context, name, hostname string, tagIDs, baselineIDs []string) (*model.System, error) {
	id := newID()
	key := GenerateAPIKey()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO systems (id, name, hostname, api_key) VALUES (?, ?, ?, ?)`,
		id, name, hostname, key); err != nil {
		return nil, fmt.Errorf("inserting system: %w", classify(err))
	}
	if err := replaceAssociations(ctx, tx, "system_tags", "tag_id", id, tagIDs); err != nil {
		return nil, err
	}
	if err := replaceAssociations(ctx, tx, "system_baselines", "baseline_id", id, baselineIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, classify(err)
	}
	return s.GetSystem(ctx, id)
}

// UpdateSystem updates a system's fields and replaces its associations.
func (s *Store) UpdateSystem(ctx context.Context, id, name, hostname string, tagIDs, baselineIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE systems SET name = ?, hostname = ? WHERE id = ?`, name, hostname, id)
	if err != nil {
		return fmt.Errorf("updating system %s: %w", id, classify(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := replaceAssociations(ctx, tx, "system_tags", "tag_id", id, tagIDs); err != nil {
		return err
	}
	if err := replaceAssociations(ctx, tx, "system_baselines", "baseline_id", id, baselineIDs); err != nil {
		return err
	}
	return classify(tx.Commit())
}

// DeleteSystem removes a system; values, associations and sessions cascade.
func (s *Store) DeleteSystem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM systems WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting system %s: %w", id, classify(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RotateAPIKey replaces a system's API key. The single UPDATE makes the old
// key invalid atomically with the new one becoming active.
func (s *Store) RotateAPIKey(ctx context.Context, id string) (string, error) {
	key := GenerateAPIKey()
	res, err := s.db.ExecContext(ctx, `UPDATE systems SET api_key = ? WHERE id = ?`, key, id)
	if err != nil {
		return "", fmt.Errorf("rotating key for system %s: %w", id, classify(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", ErrNotFound
	}
	return key, nil
}

// TouchLastSeen records when a system last reported in.
func (s *Store) TouchLastSeen(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE systems SET last_seen = ? WHERE id = ?`, at.Unix(), id)
	return classify(err)
}

// replaceAssociations rewrites one side of a many-to-many join table for a
// system inside the caller's transaction.
func replaceAssociations(ctx context.Context, tx *sql.Tx, table, column, systemID string, ids []string) error {
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE system_id = ?", table), systemID); err != nil {
		return fmt.Errorf("clearing %s: %w", table, classify(err))
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("INSERT OR IGNORE INTO %s (system_id, %s) VALUES (?, ?)", table, column),
			systemID, id); err != nil {
			return fmt.Errorf("inserting into %s: %w", table, classify(err))
		}
	}
	return nil
}

func (s *Store) querySystems(ctx context.Context, query string, args ...any) ([]model.System, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying systems: %w", classify(err))
	}
	defer rows.Close()

	var systems []model.System
	index := make(map[string]int)
	for rows.Next() {
		var sys model.System
		var lastSeen sql.NullInt64
		if err := rows.Scan(&sys.ID, &sys.Name, &sys.Hostname, &sys.APIKey, &lastSeen); err != nil {
			return nil, fmt.Errorf("scanning system: %w", err)
		}
		if lastSeen.Valid {
			t := time.Unix(lastSeen.Int64, 0)
			sys.LastSeen = &t
		}
		sys.Tags = []model.Tag{}
		sys.Baselines = []model.Baseline{}
		sys.BaselineValues = []model.BaselineValue{}
		index[sys.ID] = len(systems)
		systems = append(systems, sys)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(systems) == 0 {
		return systems, nil
	}

	ids := make([]string, 0, len(systems))
	for id := range index {
		ids = append(ids, id)
	}
	if err := s.attachTags(ctx, systems, index, ids); err != nil {
		return nil, err
	}
	if err := s.attachBaselines(ctx, systems, index, ids); err != nil {
		return nil, err
	}
	if err := s.attachValues(ctx, systems, index, ids); err != nil {
		return nil, err
	}
	return systems, nil
}

func (s *Store) attachTags(ctx context.Context, systems []model.System, index map[string]int, ids []string) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT st.system_id, t.id, t.name
		FROM system_tags st JOIN tags t ON t.id = st.tag_id
		WHERE st.system_id IN (`+placeholders(len(ids))+`)
		ORDER BY t.name ASC`, asArgs(ids)...)
	if err != nil {
		return fmt.Errorf("querying system tags: %w", classify(err))
	}
	defer rows.Close()

	for rows.Next() {
		var systemID string
		var tag model.Tag
		if err := rows.Scan(&systemID, &tag.ID, &tag.Name); err != nil {
			return fmt.Errorf("scanning system tag: %w", err)
		}
		i := index[systemID]
		systems[i].Tags = append(systems[i].Tags, tag)
	}
	return rows.Err()
}

func (s *Store) attachBaselines(ctx context.Context, systems []model.System, index map[string]int, ids []string) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sb.system_id, b.id, b.name, b.variable, b.type, b.min_version
		FROM system_baselines sb JOIN baselines b ON b.id = sb.baseline_id
		WHERE sb.system_id IN (`+placeholders(len(ids))+`)
		ORDER BY b.name ASC`, asArgs(ids)...)
	if err != nil {
		return fmt.Errorf("querying system baselines: %w", classify(err))
	}
	defer rows.Close()

	for rows.Next() {
		var systemID string
		var b model.Baseline
		if err := rows.Scan(&systemID, &b.ID, &b.Name, &b.Variable, &b.Type, &b.MinVersion); err != nil {
			return fmt.Errorf("scanning system baseline: %w", err)
		}
		i := index[systemID]
		systems[i].Baselines = append(systems[i].Baselines, b)
	}
	return rows.Err()
}

func (s *Store) attachValues(ctx context.Context, systems []model.System, index map[string]int, ids []string) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.system_id, v.id, v.baseline_id, v.value, b.id, b.name, b.variable, b.type, b.min_version
		FROM system_baseline_values v JOIN baselines b ON b.id = v.baseline_id
		WHERE v.system_id IN (`+placeholders(len(ids))+`)`, asArgs(ids)...)
	if err != nil {
		return fmt.Errorf("querying baseline values: %w", classify(err))
	}
	defer rows.Close()

	for rows.Next() {
		var systemID string
		var bv model.BaselineValue
		if err := rows.Scan(&systemID, &bv.ID, &bv.BaselineID, &bv.Value,
			&bv.Baseline.ID, &bv.Baseline.Name, &bv.Baseline.Variable, &bv.Baseline.Type, &bv.Baseline.MinVersion); err != nil {
			return fmt.Errorf("scanning baseline value: %w", err)
		}
		i := index[systemID]
		systems[i].BaselineValues = append(systems[i].BaselineValues, bv)
	}
	return rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func asArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
