package store

import (
	"database/sql"
	"errors"

	sqlite "modernc.org/sqlite"
)

// Sentinel errors returned by the store. Callers branch on these with
// errors.Is instead of inspecting driver error codes.
var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned for retryable write contention: a concurrent
	// transaction held the rows this one needed.
	ErrConflict = errors.New("write conflict")
	// ErrDuplicate is returned when an insert or update violates a
	// uniqueness constraint.
	ErrDuplicate = errors.New("duplicate value")
	// ErrLastAdmin is returned when deleting a user would leave no admin.
	ErrLastAdmin = errors.New("cannot delete the last admin user")
)

// SQLite primary result codes. Declared locally so only this file knows
// about the driver's error taxonomy.
const (
	sqliteBusy       = 5
	sqliteLocked     = 6
	sqliteConstraint = 19
)

// classify maps driver errors onto the store's sentinel errors, leaving
// everything else untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqliteBusy, sqliteLocked:
			return errors.Join(ErrConflict, err)
		case sqliteConstraint:
			return errors.Join(ErrDuplicate, err)
		}
	}
	return err
}
