package store

import (
	"context"
	"fmt"

	"github.com/patchme-dev/patchme/internal/model"
)

// GetTags returns all tags ordered by name.
func (s *Store) GetTags(ctx context.Context) ([]model.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", classify(err))
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scanning tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// CreateTag inserts a tag. Tag names are unique; ErrDuplicate on collision.
func (s *Store) CreateTag(ctx context.Context, name string) (*model.Tag, error) {
	t := model.Tag{ID: newID(), Name: name}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO tags (id, name) VALUES (?, ?)`, t.ID, t.Name); err != nil {
		return nil, fmt.Errorf("inserting tag: %w", classify(err))
	}
	return &t, nil
}

// UpdateTag renames a tag.
func (s *Store) UpdateTag(ctx context.Context, id, name string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tags SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("updating tag %s: %w", id, classify(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTag removes a tag; system associations cascade.
func (s *Store) DeleteTag(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting tag %s: %w", id, classify(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
