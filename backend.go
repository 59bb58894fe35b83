package pagefs

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/absfs/absfs"
	"github.com/absfs/memfs"
)

// Backend is a storage implementation that opens files.
type Backend interface {
	// Name identifies the backend, e.g. "std"
	Name() string

	// Open opens path with os.OpenFile style flags
	Open(path string, flag int, perm os.FileMode) (BackendFile, error)
}

// BackendFile is an open file of a Backend. Offsets are always explicit;
// implementations keep no cursor of their own.
type BackendFile interface {
	// ReadAt follows io.ReaderAt: a short count comes with io.EOF
	ReadAt(p []byte, off int64) (int, error)

	// WriteAt follows io.WriterAt
	WriteAt(p []byte, off int64) (int, error)

	// Truncate changes the size of the file, extending it with zeros
	Truncate(size int64) error

	// Size returns the current size in bytes
	Size() (int64, error)

	// Sync commits the contents to stable storage
	Sync() error

	// Close releases the backend resources
	Close() error

	// IsEncrypted reports whether the backend encrypts the contents
	IsEncrypted() bool
}

// LineReader is implemented by backend files that read lines themselves.
//
// ReadLine reads one line starting at off into p without the terminator and
// returns the number of bytes stored and the offset of the next line. A
// line longer than p is split: next then points just past the bytes
// returned. At end of file it returns 0, off, io.EOF.
type LineReader interface {
	ReadLine(p []byte, off int64) (n int, next int64, err error)
}

// ParseMode translates an fopen style mode string into open flags.
// "b" is accepted and ignored. Appending modes do not set os.O_APPEND:
// every write carries its own offset.
func ParseMode(mode string) (int, error) {
	m := strings.ReplaceAll(mode, "b", "")
	switch m {
	case "r":
		return os.O_RDONLY, nil
	case "r+":
		return os.O_RDWR, nil
	case "w":
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC, nil
	case "w+":
		return os.O_RDWR | os.O_CREATE | os.O_TRUNC, nil
	case "a":
		return os.O_WRONLY | os.O_CREATE, nil
	case "a+":
		return os.O_RDWR | os.O_CREATE, nil
	}
	return 0, NewValidationError("mode", mode, "unsupported open mode")
}

// FileOpener is the part of absfs.FileSystem a FSBackend needs.
type FileOpener interface {
	OpenFile(name string, flag int, perm os.FileMode) (absfs.File, error)
}

// FSBackend implements Backend on top of an absfs filesystem
type FSBackend struct {
	name string
	fs   FileOpener
}

// NewFSBackend creates a backend named name over fs
func NewFSBackend(name string, fs FileOpener) (*FSBackend, error) {
	if fs == nil {
		return nil, NewValidationError("fs", nil, "filesystem cannot be nil")
	}
	if name == "" {
		return nil, NewValidationError("name", name, "backend name cannot be empty")
	}
	return &FSBackend{name: name, fs: fs}, nil
}

// NewMemoryBackend creates a backend over a fresh in-memory filesystem
func NewMemoryBackend() (*FSBackend, error) {
	fs, err := memfs.NewFS()
	if err != nil {
		return nil, NewIOError("open", "memfs", err)
	}
	return NewFSBackend("memory", fs)
}

// Name returns the backend name
func (b *FSBackend) Name() string {
	return b.name
}

// Open opens a file through the wrapped filesystem
func (b *FSBackend) Open(path string, flag int, perm os.FileMode) (BackendFile, error) {
	if err := ValidateFilePath(path); err != nil {
		return nil, err
	}
	f, err := b.fs.OpenFile(path, flag, perm)
	if err != nil {
		return nil, NewIOError("open", path, err)
	}
	return &fsFile{base: f, path: path}, nil
}

// fsFile adapts an absfs.File to BackendFile
type fsFile struct {
	base absfs.File
	path string
}

func (f *fsFile) ReadAt(p []byte, off int64) (int, error) {
	n, err := f.base.ReadAt(p, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, newIOErrorAt("read", f.path, off, err)
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *fsFile) WriteAt(p []byte, off int64) (int, error) {
	n, err := f.base.WriteAt(p, off)
	if err != nil {
		return n, newIOErrorAt("write", f.path, off, err)
	}
	if n < len(p) {
		return n, newIOErrorAt("write", f.path, off, io.ErrShortWrite)
	}
	return n, nil
}

func (f *fsFile) Truncate(size int64) error {
	if err := f.base.Truncate(size); err != nil {
		return NewIOError("truncate", f.path, err)
	}
	return nil
}

func (f *fsFile) Size() (int64, error) {
	info, err := f.base.Stat()
	if err != nil {
		return 0, NewIOError("size", f.path, err)
	}
	return info.Size(), nil
}

func (f *fsFile) Sync() error {
	if err := f.base.Sync(); err != nil {
		return NewIOError("sync", f.path, err)
	}
	return nil
}

func (f *fsFile) Close() error {
	if err := f.base.Close(); err != nil {
		return NewIOError("close", f.path, err)
	}
	return nil
}

func (f *fsFile) IsEncrypted() bool {
	return false
}

// osFS opens files on the host filesystem with raw file descriptors
type osFS struct{}

func (osFS) OpenFile(name string, flag int, perm os.FileMode) (absfs.File, error) {
	f, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Compile-time interface checks.
var (
	_ Backend     = (*FSBackend)(nil)
	_ BackendFile = (*fsFile)(nil)
	_ FileOpener  = osFS{}
)
