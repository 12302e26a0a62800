package store

import (
	"context"
	"fmt"

	"github.com/patchme-dev/patchme/internal/model"
)

// GetBaselines returns all baselines ordered by name.
func (s *Store) GetBaselines(ctx context.Context) ([]model.Baseline, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, variable, type, min_version
		FROM baselines ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying baselines: %w", classify(err))
	}
	defer rows.Close()

	var baselines []model.Baseline
	for rows.Next() {
		var b model.Baseline
		if err := rows.Scan(&b.ID, &b.Name, &b.Variable, &b.Type, &b.MinVersion); err != nil {
			return nil, fmt.Errorf("scanning baseline: %w", err)
		}
		baselines = append(baselines, b)
	}
	return baselines, rows.Err()
}

// FindBaselinesByVariables returns the baselines governing any of the given
// variable names in one bulk lookup.
func (s *Store) FindBaselinesByVariables(ctx context.Context, variables []string) ([]model.Baseline, error) {
	if len(variables) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, variable, type, min_version
		FROM baselines WHERE variable IN (`+placeholders(len(variables))+`)`,
		asArgs(variables)...)
	if err != nil {
		return nil, fmt.Errorf("querying baselines by variable: %w", classify(err))
	}
	defer rows.Close()

	var baselines []model.Baseline
	for rows.Next() {
		var b model.Baseline
		if err := rows.Scan(&b.ID, &b.Name, &b.Variable, &b.Type, &b.MinVersion); err != nil {
			return nil, fmt.Errorf("scanning baseline: %w", err)
		}
		baselines = append(baselines, b)
	}
	return baselines, rows.Err()
}

// CreateBaseline inserts a baseline rule.
func (s *Store) CreateBaseline(ctx context.Context, name, variable string, typ model.BaselineType, minVersion string) (*model.Baseline, error) {
	b := model.Baseline{ID: newID(), Name: name, Variable: variable, Type: typ, MinVersion: minVersion}
	if b.Type == "" {
		b.Type = model.BaselineMin
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO baselines (id, name, variable, type, min_version)
		VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Variable, b.Type, b.MinVersion)
	if err != nil {
		return nil, fmt.Errorf("inserting baseline: %w", classify(err))
	}
	return &b, nil
}

// UpdateBaseline rewrites a baseline rule.
func (s *Store) UpdateBaseline(ctx context.Context, id, name, variable string, typ model.BaselineType, minVersion string) error {
	if typ == "" {
		typ = model.BaselineMin
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE baselines SET name = ?, variable = ?, type = ?, min_version = ?
		WHERE id = ?`, name, variable, typ, minVersion, id)
	if err != nil {
		return fmt.Errorf("updating baseline %s: %w", id, classify(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBaseline removes a baseline; reported values cascade.
func (s *Store) DeleteBaseline(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM baselines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting baseline %s: %w", id, classify(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
