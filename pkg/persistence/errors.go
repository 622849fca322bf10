package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations use.
var (
	// ErrDraftNotFound indicates no active draft exists. A corrupt or
	// schema-invalid stored draft is reported the same way: resumability
	// degrades to a fresh session, never to a user-facing error.
	ErrDraftNotFound = errors.New("draft not found")

	// ErrSavedDraftNotFound indicates no save-for-later record exists for
	// the given key.
	ErrSavedDraftNotFound = errors.New("saved draft not found")
)

// DraftError wraps draft storage errors with operation context.
type DraftError struct {
	Op  string // Operation being performed (e.g. "Load", "Save", "Clear")
	Key string // Storage key if applicable
	Err error  // Underlying error
}

func (e *DraftError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s operation failed for draft %s: %v", e.Op, e.Key, e.Err)
	}

	return fmt.Sprintf("%s operation failed for draft: %v", e.Op, e.Err)
}

func (e *DraftError) Unwrap() error {
	return e.Err
}

func (e *DraftError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewDraftError creates a new draft error with context.
func NewDraftError(op, key string, err error) *DraftError {
	return &DraftError{
		Op:  op,
		Key: key,
		Err: err,
	}
}

// IsDraftNotFound checks if an error indicates a missing (or unreadable)
// draft.
func IsDraftNotFound(err error) bool {
	return errors.Is(err, ErrDraftNotFound)
}

// IsSavedDraftNotFound checks if an error indicates a missing saved record.
func IsSavedDraftNotFound(err error) bool {
	return errors.Is(err, ErrSavedDraftNotFound)
}
