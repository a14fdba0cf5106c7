package appointments

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when no appointment has the requested id.
	ErrNotFound = errors.New("appointment not found")

	// ErrPersistence classifies every store failure.
	ErrPersistence = errors.New("appointment store error")
)

// PersistenceError carries the store's own message through to the caller.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Err == nil {
		return ErrPersistence.Error()
	}
	return e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func persistenceErr(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// malformedID reports a value Postgres refused to cast to the uuid column
// type. No stored row can carry such an id.
func malformedID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
