package pagefs

import (
	"fmt"
	"math"
)

// Input validation helpers. All of them run before any I/O or hashing.

// ValidateBuffer checks if a buffer is valid (non-nil and has expected size)
func ValidateBuffer(buf []byte, name string, minSize int) error {
	if buf == nil {
		return &ValidationError{
			Field:   name,
			Message: "buffer cannot be nil",
		}
	}
	if minSize > 0 && len(buf) < minSize {
		return &ValidationError{
			Field:   name,
			Value:   len(buf),
			Message: fmt.Sprintf("buffer too small: got %d bytes, need at least %d bytes", len(buf), minSize),
		}
	}
	return nil
}

// ValidateOffset checks if a file offset is valid
func ValidateOffset(offset int64, name string) error {
	if offset < 0 {
		return &ValidationError{
			Field:   name,
			Value:   offset,
			Message: "offset cannot be negative",
		}
	}
	return nil
}

// ValidateSize checks if a size parameter is valid. A non-positive maxSize
// disables the upper bound.
func ValidateSize(size int, name string, minSize, maxSize int) error {
	if size < 0 {
		return &ValidationError{
			Field:   name,
			Value:   size,
			Message: "size cannot be negative",
		}
	}
	if minSize >= 0 && size < minSize {
		return &ValidationError{
			Field:   name,
			Value:   size,
			Message: fmt.Sprintf("size too small: got %d, minimum is %d", size, minSize),
		}
	}
	if maxSize > 0 && size > maxSize {
		return &ValidationError{
			Field:   name,
			Value:   size,
			Message: fmt.Sprintf("size too large: got %d, maximum is %d", size, maxSize),
		}
	}
	return nil
}

// ValidateFilePath checks if a file path is valid (not empty)
func ValidateFilePath(path string) error {
	if path == "" {
		return &ValidationError{
			Field:   "path",
			Message: "file path cannot be empty",
		}
	}
	return nil
}

// ValidateIterations checks a PBKDF2 iteration count
func ValidateIterations(iterations int) error {
	if iterations < 1 {
		return &ValidationError{
			Field:   "iterations",
			Value:   iterations,
			Message: "iteration count must be at least 1",
		}
	}
	return nil
}

// ValidateKeyLength checks a requested derived key length against the
// (2^32 - 1) * hLen ceiling of PBKDF2.
func ValidateKeyLength(keyLen, hashLen int) error {
	if keyLen < 0 {
		return &ValidationError{
			Field:   "key_length",
			Value:   keyLen,
			Message: "key length cannot be negative",
		}
	}
	if hashLen <= 0 {
		return &ValidationError{
			Field:   "hash_length",
			Value:   hashLen,
			Message: "hash output size must be positive",
		}
	}
	if uint64(keyLen) > uint64(math.MaxUint32)*uint64(hashLen) {
		return &ValidationError{
			Field:   "key_length",
			Value:   keyLen,
			Message: fmt.Sprintf("key length too large: maximum is (2^32-1)*%d bytes", hashLen),
		}
	}
	return nil
}
