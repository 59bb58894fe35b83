package pagefs

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

var bucketFiles = []byte("files")

// BoltBackend stores every file as a single value of a bbolt bucket, keyed
// by its path. Writes are transactional: a WriteAt either lands completely or
// not at all.
type BoltBackend struct {
	db *bbolt.DB
}

// OpenBoltBackend opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltBackend(dbPath string) (*BoltBackend, error) {
	if err := ValidateFilePath(dbPath); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, NewIOError("open", dbPath, err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, NewIOError("open", dbPath, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketFiles); err != nil {
			return fmt.Errorf("create bucket %q: %w", bucketFiles, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, NewIOError("open", dbPath, err)
	}

	return &BoltBackend{db: db}, nil
}

// Close closes the underlying database. Files opened from the backend must
// be closed first.
func (b *BoltBackend) Close() error {
	if err := b.db.Close(); err != nil {
		return NewIOError("close", b.db.Path(), err)
	}
	return nil
}

// Name returns "bolt"
func (b *BoltBackend) Name() string {
	return "bolt"
}

// Open opens the value stored under path
func (b *BoltBackend) Open(path string, flag int, perm os.FileMode) (BackendFile, error) {
	if err := ValidateFilePath(path); err != nil {
		return nil, err
	}
	key := []byte(path)

	err := b.db.Update(func(tx *bbolt.Tx) error {
		bk := tx.Bucket(bucketFiles)
		_, exists := lookup(bk, key)
		switch {
		case !exists && flag&os.O_CREATE == 0:
			return fs.ErrNotExist
		case exists && flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0:
			return fs.ErrExist
		case !exists || flag&os.O_TRUNC != 0:
			return bk.Put(key, []byte{})
		}
		return nil
	})
	if err != nil {
		return nil, NewIOError("open", path, err)
	}

	acc := flag & (os.O_RDONLY | os.O_WRONLY | os.O_RDWR)
	return &boltFile{
		db:       b.db,
		key:      key,
		path:     path,
		readable: acc != os.O_WRONLY,
		writable: acc != os.O_RDONLY,
	}, nil
}

// lookup returns the value of key and whether the key exists, including
// keys holding an empty value.
func lookup(bk *bbolt.Bucket, key []byte) ([]byte, bool) {
	k, v := bk.Cursor().Seek(key)
	if k == nil || !bytes.Equal(k, key) {
		return nil, false
	}
	return v, true
}

// boltFile is an open value of a BoltBackend
type boltFile struct {
	db       *bbolt.DB
	key      []byte
	path     string
	readable bool
	writable bool
	closed   bool
}

// view runs fn with the current value inside a read transaction. The value
// is only valid during fn.
func (f *boltFile) view(op string, off int64, fn func(v []byte) error) error {
	if f.closed {
		return newIOErrorAt(op, f.path, off, os.ErrClosed)
	}
	err := f.db.View(func(tx *bbolt.Tx) error {
		v, ok := lookup(tx.Bucket(bucketFiles), f.key)
		if !ok {
			return fs.ErrNotExist
		}
		return fn(v)
	})
	if err != nil {
		return newIOErrorAt(op, f.path, off, err)
	}
	return nil
}

// update replaces the value with the result of fn inside a write transaction.
func (f *boltFile) update(op string, off int64, fn func(v []byte) []byte) error {
	if f.closed {
		return newIOErrorAt(op, f.path, off, os.ErrClosed)
	}
	if !f.writable {
		return newIOErrorAt(op, f.path, off, os.ErrPermission)
	}
	err := f.db.Update(func(tx *bbolt.Tx) error {
		bk := tx.Bucket(bucketFiles)
		v, ok := lookup(bk, f.key)
		if !ok {
			return fs.ErrNotExist
		}
		return bk.Put(f.key, fn(v))
	})
	if err != nil {
		return newIOErrorAt(op, f.path, off, err)
	}
	return nil
}

func (f *boltFile) ReadAt(p []byte, off int64) (int, error) {
	if err := ValidateOffset(off, "offset"); err != nil {
		return 0, err
	}
	if !f.readable {
		return 0, newIOErrorAt("read", f.path, off, os.ErrPermission)
	}
	var n int
	err := f.view("read", off, func(v []byte) error {
		if off < int64(len(v)) {
			n = copy(p, v[off:])
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *boltFile) WriteAt(p []byte, off int64) (int, error) {
	if err := ValidateOffset(off, "offset"); err != nil {
		return 0, err
	}
	if int64(len(p)) > bbolt.MaxValueSize || off > bbolt.MaxValueSize-int64(len(p)) {
		return 0, newIOErrorAt("write", f.path, off, fs.ErrInvalid)
	}
	err := f.update("write", off, func(v []byte) []byte {
		size := max(int64(len(v)), off+int64(len(p)))
		buf := make([]byte, size)
		copy(buf, v)
		copy(buf[off:], p)
		return buf
	})
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func (f *boltFile) Truncate(size int64) error {
	if err := ValidateOffset(size, "size"); err != nil {
		return err
	}
	if size > bbolt.MaxValueSize {
		return newIOErrorAt("truncate", f.path, size, fs.ErrInvalid)
	}
	return f.update("truncate", size, func(v []byte) []byte {
		buf := make([]byte, size)
		copy(buf, v)
		return buf
	})
}

func (f *boltFile) Size() (int64, error) {
	var size int64
	err := f.view("size", -1, func(v []byte) error {
		size = int64(len(v))
		return nil
	})
	return size, err
}

func (f *boltFile) Sync() error {
	if f.closed {
		return NewIOError("sync", f.path, os.ErrClosed)
	}
	if err := f.db.Sync(); err != nil {
		return NewIOError("sync", f.path, err)
	}
	return nil
}

func (f *boltFile) Close() error {
	if f.closed {
		return NewIOError("close", f.path, os.ErrClosed)
	}
	f.closed = true
	return nil
}

func (f *boltFile) IsEncrypted() bool {
	return false
}

// ReadLine scans the stored value directly, without a read page.
func (f *boltFile) ReadLine(p []byte, off int64) (int, int64, error) {
	if err := ValidateOffset(off, "offset"); err != nil {
		return 0, off, err
	}
	if !f.readable {
		return 0, off, newIOErrorAt("read", f.path, off, os.ErrPermission)
	}
	var (
		n    int
		next = off
		eof  bool
	)
	err := f.view("read", off, func(v []byte) error {
		if off >= int64(len(v)) {
			eof = true
			return nil
		}
		rest := v[off:]
		line, terminated := rest, false
		if i := bytes.IndexByte(rest, '\n'); i >= 0 {
			line, terminated = rest[:i], true
		}
		if len(line) > len(p) {
			n = copy(p, line)
			next = off + int64(n)
			return nil
		}
		n = copy(p, line)
		next = off + int64(len(line))
		if terminated {
			next++
			if n > 0 && p[n-1] == '\r' {
				n--
			}
		}
		return nil
	})
	if err != nil {
		return 0, off, err
	}
	if eof {
		return 0, off, io.EOF
	}
	return n, next, nil
}

// Compile-time interface checks.
var (
	_ Backend     = (*BoltBackend)(nil)
	_ BackendFile = (*boltFile)(nil)
	_ LineReader  = (*boltFile)(nil)
)
