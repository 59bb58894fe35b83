package pagefs

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"strings"
)

// Hash identifies the hash function keyed by HMAC inside PBKDF2
type Hash uint8

const (
	// SHA256 hash function (32-byte output)
	SHA256 Hash = iota
	// SHA384 hash function (48-byte output)
	SHA384
	// SHA512 hash function (64-byte output)
	SHA512
)

// String returns the string representation of the hash function
func (h Hash) String() string {
	switch h {
	case SHA256:
		return "sha256"
	case SHA384:
		return "sha384"
	case SHA512:
		return "sha512"
	default:
		return "unknown"
	}
}

// Size returns the digest size hLen in bytes, or 0 for an unknown hash.
func (h Hash) Size() int {
	switch h {
	case SHA256:
		return sha256.Size
	case SHA384:
		return sha512.Size384
	case SHA512:
		return sha512.Size
	default:
		return 0
	}
}

// New returns the constructor of the hash function, or nil for an unknown hash.
func (h Hash) New() func() hash.Hash {
	switch h {
	case SHA256:
		return sha256.New
	case SHA384:
		return sha512.New384
	case SHA512:
		return sha512.New
	default:
		return nil
	}
}

// ParseHash parses "sha256", "sha384" or "sha512" (case-insensitive, an
// optional dash is accepted).
func ParseHash(s string) (Hash, error) {
	switch strings.ReplaceAll(strings.ToLower(s), "-", "") {
	case "sha256":
		return SHA256, nil
	case "sha384":
		return SHA384, nil
	case "sha512":
		return SHA512, nil
	}
	return 0, NewValidationError("hash", s, "unsupported hash function")
}

// PBKDF2Params contains parameters for PBKDF2 key derivation
type PBKDF2Params struct {
	Iterations int  // Number of iterations (minimum 100,000 recommended)
	HashFunc   Hash // Hash function to use
	SaltSize   int  // Salt size in bytes (default 32)
	KeySize    int  // Derived key size in bytes (default 32)
}

// KeyProvider is an interface for providing keys derived from a salt
type KeyProvider interface {
	// DeriveKey derives a key from the given salt
	DeriveKey(salt []byte) ([]byte, error)

	// GenerateSalt generates a new random salt
	GenerateSalt() ([]byte, error)
}

// Default page capacities of the two per-handle caches.
const (
	DefaultPrintfPageSize  = 4096
	DefaultGetlinePageSize = 17385
)

// Upper bounds for page capacities and for the line length of ReadLine.
const (
	MaxPageSize   = 64 << 20
	MaxLineLength = 64 << 20
)

// Options configures a buffered file handle
type Options struct {
	// PrintfPageSize is the capacity of the write-back page used by Printf
	PrintfPageSize int

	// GetlinePageSize is the capacity of the read-ahead page used by GetNextLine
	GetlinePageSize int

	// Logger receives debug events for opens, closes, flushes and refills.
	// Nil discards them.
	Logger *slog.Logger
}

// DefaultOptions returns the default page sizes
func DefaultOptions() Options {
	return Options{
		PrintfPageSize:  DefaultPrintfPageSize,
		GetlinePageSize: DefaultGetlinePageSize,
	}
}

// Validate checks the options. Zero page sizes are allowed and mean "default";
// sizes above MaxPageSize are rejected.
func (o *Options) Validate() error {
	if o == nil {
		return NewValidationError("options", nil, "options cannot be nil")
	}
	if err := ValidateSize(o.PrintfPageSize, "printf_page_size", 0, MaxPageSize); err != nil {
		return err
	}
	if err := ValidateSize(o.GetlinePageSize, "getline_page_size", 0, MaxPageSize); err != nil {
		return err
	}
	return nil
}

// withDefaults fills zero fields.
func (o Options) withDefaults() Options {
	if o.PrintfPageSize == 0 {
		o.PrintfPageSize = DefaultPrintfPageSize
	}
	if o.GetlinePageSize == 0 {
		o.GetlinePageSize = DefaultGetlinePageSize
	}
	if o.Logger == nil {
		o.Logger = discardLogger
	}
	return o
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func (o Options) String() string {
	return fmt.Sprintf("printf_page=%d getline_page=%d", o.PrintfPageSize, o.GetlinePageSize)
}
