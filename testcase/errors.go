package testcase

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrTestCaseNotFound is returned when a test case does not exist, or
	// is soft-deleted where a live case is required.
	ErrTestCaseNotFound = errors.New("test case not found")

	// ErrAttachmentNotFound is returned when an attachment does not exist.
	ErrAttachmentNotFound = errors.New("attachment not found")

	// ErrConflict is returned after a full rollback when a uniqueness
	// constraint is violated at commit, e.g. a duplicate live name.
	ErrConflict = errors.New("integrity conflict")
)

// ValidationError reports malformed input. The message names the violated
// rule so the caller can correct the payload. No partial writes happen.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// NewValidationError creates a ValidationError with a formatted reason.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// isDuplicateKey reports whether err is a unique-constraint violation.
// GORM translates driver errors when TranslateError is on; the string
// checks cover drivers that do not.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
