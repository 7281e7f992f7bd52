package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	// ErrNotFound reports that a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a uniqueness violation.
	ErrConflict = errors.New("already exists")
	// ErrForbidden reports that the acting user does not own the target.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError reports a rejected input value, attributed to the field
// that carried it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// isUniqueViolation reports whether err came from a storage-level unique
// constraint. The service layer treats a violation raised by a racing
// insert exactly like its own pre-check, so callers see one Conflict
// regardless of which side caught it first.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// sqlite (tests) reports constraint failures as plain strings
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
