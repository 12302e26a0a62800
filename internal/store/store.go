// Package store provides SQLite persistence for PatchMe.
package store

import (
	"crypto/rand"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database for PatchMe data persistence.
type Store struct {
	db *sql.DB
}

// New opens or creates a SQLite database at the given path and runs migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", dbPath, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func newID() string {
	return uuid.NewString()
}

// apiKeyAlphabet omits I, O, 0 and 1 so keys survive being read aloud.
const apiKeyAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateAPIKey returns a fresh key of the form "pm_" plus 7 characters
// drawn from a crypto-random source.
func GenerateAPIKey() string {
	buf := make([]byte, 7)
	rand.Read(buf)
	for i, b := range buf {
		buf[i] = apiKeyAlphabet[int(b)%len(apiKeyAlphabet)]
	}
	return "pm_" + string(buf)
}
