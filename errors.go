package pagefs

import (
	"errors"
	"fmt"
)

// Status codes kept for callers that still speak the numeric contract.
const (
	// StatusOK is returned by Status for a nil error.
	StatusOK = 0
	// StatusError is returned by Status for any failure.
	StatusError = -255
)

// Error categories. Every structured error below matches exactly one of them
// through errors.Is.
var (
	ErrIOFailure        = errors.New("pagefs: I/O failure")
	ErrInvalidParameter = errors.New("pagefs: invalid parameter")
	ErrHashFailure      = errors.New("pagefs: hash failure")
	ErrClosed           = errors.New("pagefs: file already closed")
)

// Status maps an error onto the numeric status boundary.
func Status(err error) int {
	if err == nil {
		return StatusOK
	}
	return StatusError
}

// ValidationError represents a parameter rejected before any I/O or hashing
type ValidationError struct {
	Field   string // The field or parameter that failed validation
	Value   any    // The invalid value
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is reports the category of the error.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidParameter
}

// IOError represents a backend read, write, open, truncate or sync failure
type IOError struct {
	Op      string // "read", "write", "open", "close", "truncate", "sync", "size"
	Path    string // File path
	Offset  int64  // File offset, -1 when not applicable
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" && e.Offset >= 0 {
		return fmt.Sprintf("io error: %s %s at offset %d: %s", e.Op, e.Path, e.Offset, e.Message)
	} else if e.Path != "" {
		return fmt.Sprintf("io error: %s %s: %s", e.Op, e.Path, e.Message)
	}
	return fmt.Sprintf("io error: %s: %s", e.Op, e.Message)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Is reports the category of the error.
func (e *IOError) Is(target error) bool {
	return target == ErrIOFailure
}

// HashError represents a failure of the underlying HMAC primitive
type HashError struct {
	Hash    string // Hash name, if known
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *HashError) Error() string {
	if e.Hash != "" {
		return fmt.Sprintf("hash error: %s: %s", e.Hash, e.Message)
	}
	return fmt.Sprintf("hash error: %s", e.Message)
}

func (e *HashError) Unwrap() error {
	return e.Err
}

// Is reports the category of the error.
func (e *HashError) Is(target error) bool {
	return target == ErrHashFailure
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value any, message string) error {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// NewIOError creates a new I/O error without offset information
func NewIOError(op, path string, err error) error {
	return newIOErrorAt(op, path, -1, err)
}

func newIOErrorAt(op, path string, offset int64, err error) error {
	// Already categorised errors pass through untouched.
	var ie *IOError
	if errors.As(err, &ie) {
		return err
	}
	return &IOError{
		Op:      op,
		Path:    path,
		Offset:  offset,
		Message: err.Error(),
		Err:     err,
	}
}

// NewHashError creates a new hash error
func NewHashError(hash string, err error) error {
	return &HashError{
		Hash:    hash,
		Message: err.Error(),
		Err:     err,
	}
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsIOError checks if an error is an I/O error
func IsIOError(err error) bool {
	var ie *IOError
	return errors.As(err, &ie)
}

// IsHashError checks if an error is a hash error
func IsHashError(err error) bool {
	var he *HashError
	return errors.As(err, &he)
}
