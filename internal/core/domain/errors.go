package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")
)

// RepositoryError wraps a database failure raised during a repository
// operation. Op names the failed operation (e.g. "file_index.upsert") and the
// original error is preserved as the cause.
type RepositoryError struct {
	Op  string
	Err error
}

// NewRepositoryError builds a RepositoryError for the given operation.
func NewRepositoryError(op string, err error) *RepositoryError {
	return &RepositoryError{Op: op, Err: err}
}

func (e *RepositoryError) Error() string {
	return e.Op + " failed: " + e.Err.Error()
}

// Unwrap exposes the underlying database error.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}
