package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized means no portfolio row exists yet. Callers must run
	// InitializePortfolio before anything else.
	ErrNotInitialized = errors.New("portfolio not initialized")

	// ErrDuplicatePosition means an OPEN row already exists for the symbol.
	// Expected under concurrent OPEN calls; callers should treat it as
	// "already holding".
	ErrDuplicatePosition = errors.New("open position already exists")

	// ErrPositionNotFound means CLOSE was requested with no matching OPEN row.
	ErrPositionNotFound = errors.New("no open position")
)

// ValidationError rejects malformed inputs before any mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validationf builds a ValidationError for a field.
func Validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
