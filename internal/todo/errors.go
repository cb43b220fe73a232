// ABOUTME: Error taxonomy surfaced by the todo service
// ABOUTME: Translates store sentinels into service errors and wraps backend failures

package todo

import (
	"errors"
	"fmt"

	"github.com/2389/todo-gateway/internal/store"
)

var (
	// ErrNotFound is returned when the requested item does not exist
	ErrNotFound = errors.New("to-do item not found")

	// ErrValidation is returned when a request payload is rejected
	ErrValidation = errors.New("invalid request body")

	// ErrConflict is returned when an optimistic update finds a newer stamp
	ErrConflict = errors.New("to-do item was modified concurrently")
)

// StoreError reports a backend failure during Op.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storeError maps store sentinels onto the service taxonomy.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrConflict):
		return ErrConflict
	default:
		return &StoreError{Op: op, Err: err}
	}
}
