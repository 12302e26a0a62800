package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/patchme-dev/patchme/internal/model"
)

// GetUsers returns all users ordered by name.
func (s *Store) GetUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, password, role FROM users ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", classify(err))
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUsers reports the total number of accounts.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, classify(err)
}

// FindUserByEmail looks a user up by email, case-insensitively.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password, role FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role)
	if err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

// CreateUser inserts an account. The password must already be hashed.
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string, role model.Role) (*model.User, error) {
	u := model.User{ID: newID(), Name: name, Email: email, Password: passwordHash, Role: role}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password, role) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.Password, u.Role)
	if err != nil {
		return nil, fmt.Errorf("inserting user: %w", classify(err))
	}
	return &u, nil
}

// UpdateUser rewrites an account. An empty passwordHash keeps the stored one.
func (s *Store) UpdateUser(ctx context.Context, id, name, email, passwordHash string, role model.Role) error {
	var res sql.Result
	var err error
	if passwordHash != "" {
		res, err = s.db.ExecContext(ctx, `
			UPDATE users SET name = ?, email = ?, password = ?, role = ? WHERE id = ?`,
			name, email, passwordHash, role, id)
	} else {
		res, err = s.db.ExecContext(ctx, `
			UPDATE users SET name = ?, email = ?, role = ? WHERE id = ?`,
			name, email, role, id)
	}
	if err != nil {
		return fmt.Errorf("updating user %s: %w", id, classify(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes an account, refusing to delete the last admin so the
// dashboard can never lock everyone out.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback()

	var role model.Role
	if err := tx.QueryRowContext(ctx, `SELECT role FROM users WHERE id = ?`, id).Scan(&role); err != nil {
		return classify(err)
	}
	if role == model.RoleAdmin {
		var admins int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = ?`, model.RoleAdmin).Scan(&admins); err != nil {
			return classify(err)
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting user %s: %w", id, classify(err))
	}
	return classify(tx.Commit())
}

// CreateSession stores a session token for a user.
func (s *Store) CreateSession(ctx context.Context, token, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		token, userID, expiresAt.Unix())
	if err != nil {
		return fmt.Errorf("inserting session: %w", classify(err))
	}
	return nil
}

// DeleteSession drops one session token.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return classify(err)
}

// UserForSession resolves a session token to its user. Expired or unknown
// tokens return ErrNotFound.
func (s *Store) UserForSession(ctx context.Context, token string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.name, u.email, u.password, u.role
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token = ? AND s.expires_at > ?`, token, time.Now().Unix()).
		Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role)
	if err != nil {
		return nil, classify(err)
	}
	return &u, nil
}

// DeleteExpiredSessions drops sessions past their expiry and reports how
// many were removed.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, classify(err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
