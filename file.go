package pagefs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// page is a fixed-capacity window over the file contents.
type page struct {
	buf  []byte // capacity is fixed when the handle is opened
	off  int64  // file offset of buf[0]
	size int    // number of valid bytes in buf
}

func (p *page) end() int64 {
	return p.off + int64(p.size)
}

func (p *page) contains(pos int64) bool {
	return p.size > 0 && pos >= p.off && pos < p.end()
}

func (p *page) overlaps(off int64, n int) bool {
	return p.size > 0 && n > 0 && off < p.end() && off+int64(n) > p.off
}

// pendingFrom reports whether the page holds bytes at or after pos. A page
// past the backend's end of file also changes what lies before it.
func (p *page) pendingFrom(pos int64) bool {
	return p.size > 0 && pos < p.end()
}

// File is a buffered handle over a backend file.
//
// Positioned reads and writes (ReadAt, WriteAt) go straight to the backend.
// Printf and WriteCached batch small writes in a write-back page that is
// flushed when a write no longer fits, before any overlapping direct I/O,
// and on Sync and Close. GetNextLine reads through a separate read-ahead
// page and advances the line cursor, which only Seek, Read and Write also
// use.
//
// A File is not safe for concurrent use.
type File struct {
	backend BackendFile
	lines   LineReader // set when the backend reads lines itself
	name    string
	id      uuid.UUID
	log     *slog.Logger

	cursor int64
	wpage  page // write-back page, dirty while size > 0
	rpage  page // read-ahead page of GetNextLine
	closed bool
}

// Open opens path on backend b with an fopen style mode ("r", "r+", "w",
// "w+", "a", "a+"). A nil b selects the default backend.
func Open(b Backend, path, mode string) (*File, error) {
	flag, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}
	return OpenWith(b, path, flag, 0600, DefaultOptions())
}

// OpenFlags opens path on backend b with os.OpenFile flags and permissions.
// A nil b selects the default backend.
func OpenFlags(b Backend, path string, flag int, perm os.FileMode) (*File, error) {
	return OpenWith(b, path, flag, perm, DefaultOptions())
}

// OpenWith opens path with explicit permissions and options.
func OpenWith(b Backend, path string, flag int, perm os.FileMode, opts Options) (*File, error) {
	if err := ValidateFilePath(path); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	if b == nil {
		b = Default()
	}

	bf, err := b.Open(path, flag, perm)
	if err != nil {
		return nil, newIOErrorAt("open", path, -1, err)
	}

	id := uuid.New()
	f := &File{
		backend: bf,
		name:    path,
		id:      id,
		log: opts.Logger.With(
			slog.String("handle", id.String()),
			slog.String("backend", b.Name()),
			slog.String("path", path),
		),
		wpage: page{buf: make([]byte, opts.PrintfPageSize)},
		rpage: page{buf: make([]byte, opts.GetlinePageSize)},
	}
	if lr, ok := bf.(LineReader); ok {
		f.lines = lr
	}
	f.log.Debug("file opened", slog.Int("flag", flag), slog.String("options", opts.String()))
	return f, nil
}

// Name returns the path the file was opened with
func (f *File) Name() string {
	return f.name
}

// ID returns the identifier attached to the handle's log records
func (f *File) ID() uuid.UUID {
	return f.id
}

// Cursor returns the line cursor position
func (f *File) Cursor() int64 {
	return f.cursor
}

func (f *File) checkOpen() error {
	if f.closed {
		return ErrClosed
	}
	return nil
}

// ReadAt reads len(p) bytes at off from the backend. Pending Printf bytes
// at or after off are flushed first. A short count comes with io.EOF.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	if err := ValidateOffset(off, "offset"); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if f.wpage.pendingFrom(off) {
		if err := f.flush(); err != nil {
			return 0, err
		}
	}
	n, err := f.backend.ReadAt(p, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, newIOErrorAt("read", f.name, off, err)
	}
	return n, err
}

// WriteAt writes p at off directly to the backend, flushing an overlapping
// write-back page first.
func (f *File) WriteAt(p []byte, off int64) (int, error) {
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	if err := ValidateOffset(off, "offset"); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if f.wpage.overlaps(off, len(p)) {
		if err := f.flush(); err != nil {
			return 0, err
		}
	}
	return f.writeBackend(p, off)
}

// writeBackend writes through to the backend and drops a stale read page.
func (f *File) writeBackend(p []byte, off int64) (int, error) {
	if f.rpage.overlaps(off, len(p)) {
		f.rpage.size = 0
	}
	n, err := f.backend.WriteAt(p, off)
	if err != nil {
		return n, newIOErrorAt("write", f.name, off, err)
	}
	return n, nil
}

// Read reads at the cursor and advances it.
func (f *File) Read(p []byte) (int, error) {
	n, err := f.ReadAt(p, f.cursor)
	f.cursor += int64(n)
	return n, err
}

// Write writes at the cursor and advances it.
func (f *File) Write(p []byte) (int, error) {
	n, err := f.WriteAt(p, f.cursor)
	f.cursor += int64(n)
	return n, err
}

// Printf formats according to format and writes the result at off through
// the write-back page. It returns the number of bytes accepted.
func (f *File) Printf(off int64, format string, a ...any) (int, error) {
	return f.WriteCached(off, []byte(fmt.Sprintf(format, a...)))
}

// WriteCached writes p at off through the write-back page.
//
// The bytes are appended to the page when off lies inside the page or right
// after its valid bytes and the page has room for them. Otherwise the page is
// flushed and restarted at off. Payloads larger than the page are written
// directly once the page is flushed.
func (f *File) WriteCached(off int64, p []byte) (int, error) {
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	if err := ValidateOffset(off, "offset"); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if f.rpage.overlaps(off, len(p)) {
		f.rpage.size = 0
	}

	capacity := int64(len(f.wpage.buf))
	if f.wpage.size > 0 && off >= f.wpage.off && off <= f.wpage.end() &&
		off-f.wpage.off+int64(len(p)) <= capacity {
		start := int(off - f.wpage.off)
		copy(f.wpage.buf[start:], p)
		f.wpage.size = max(f.wpage.size, start+len(p))
		return len(p), nil
	}

	if err := f.flush(); err != nil {
		return 0, err
	}
	if int64(len(p)) > capacity {
		return f.writeBackend(p, off)
	}
	f.wpage.off = off
	f.wpage.size = copy(f.wpage.buf, p)
	return len(p), nil
}

// Flush writes the pending write-back page to the backend. On failure the
// page is kept so a later Flush, Sync or Close can retry.
func (f *File) Flush() error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	return f.flush()
}

func (f *File) flush() error {
	if f.wpage.size == 0 {
		return nil
	}
	if _, err := f.writeBackend(f.wpage.buf[:f.wpage.size], f.wpage.off); err != nil {
		return err
	}
	f.log.Debug("page flushed", slog.Int64("offset", f.wpage.off), slog.Int("size", f.wpage.size))
	f.wpage.size = 0
	return nil
}

// GetNextLine reads the line at the cursor into buf, without its "\n" or
// "\r\n" terminator, and moves the cursor past it.
//
// A line longer than buf is returned in pieces: isPrefix reports that the
// line continues and the next call returns the rest. At end of file it
// returns 0, false, io.EOF. A final line without terminator is returned as
// a complete line.
func (f *File) GetNextLine(buf []byte) (n int, isPrefix bool, err error) {
	if err := f.checkOpen(); err != nil {
		return 0, false, err
	}
	if err := ValidateBuffer(buf, "buf", 1); err != nil {
		return 0, false, err
	}
	if f.lines != nil {
		return f.backendLine(buf)
	}

	for {
		if !f.rpage.contains(f.cursor) {
			ok, err := f.fill(f.cursor)
			if err != nil {
				return n, false, err
			}
			if !ok {
				if n == 0 {
					return 0, false, io.EOF
				}
				return n, false, nil
			}
		}

		data := f.rpage.buf[f.cursor-f.rpage.off : f.rpage.size]
		room := len(buf) - n
		i := bytes.IndexByte(data, '\n')
		if i >= 0 && i <= room {
			n += copy(buf[n:], data[:i])
			f.cursor += int64(i) + 1
			return trimCR(buf, n), false, nil
		}

		take := min(len(data), room)
		n += copy(buf[n:], data[:take])
		f.cursor += int64(take)
		if n < len(buf) {
			continue
		}

		// buf is full: a terminator right at the cursor still ends the line.
		if !f.rpage.contains(f.cursor) {
			ok, err := f.fill(f.cursor)
			if err != nil {
				return n, false, err
			}
			if !ok {
				return n, false, nil
			}
		}
		if f.rpage.buf[f.cursor-f.rpage.off] == '\n' {
			f.cursor++
			return trimCR(buf, n), false, nil
		}
		return n, true, nil
	}
}

// backendLine serves GetNextLine from a backend LineReader.
func (f *File) backendLine(buf []byte) (int, bool, error) {
	if f.wpage.pendingFrom(f.cursor) {
		if err := f.flush(); err != nil {
			return 0, false, err
		}
	}
	n, next, err := f.lines.ReadLine(buf, f.cursor)
	if errors.Is(err, io.EOF) {
		return 0, false, io.EOF
	}
	if err != nil {
		return 0, false, newIOErrorAt("read", f.name, f.cursor, err)
	}
	isPrefix := false
	if n == len(buf) && next == f.cursor+int64(n) {
		// No terminator consumed: the line continues unless the file ends here.
		var b [1]byte
		k, err := f.backend.ReadAt(b[:], next)
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, false, newIOErrorAt("read", f.name, next, err)
		}
		isPrefix = k == 1
	}
	f.cursor = next
	return n, isPrefix, nil
}

// fill loads the read page from pos. It reports false at end of file.
func (f *File) fill(pos int64) (bool, error) {
	if f.wpage.pendingFrom(pos) {
		if err := f.flush(); err != nil {
			return false, err
		}
	}
	f.rpage.size = 0
	n, err := f.backend.ReadAt(f.rpage.buf, pos)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, newIOErrorAt("read", f.name, pos, err)
	}
	f.rpage.off = pos
	f.rpage.size = n
	f.log.Debug("page refilled", slog.Int64("offset", pos), slog.Int("size", n))
	return n > 0, nil
}

func trimCR(buf []byte, n int) int {
	if n > 0 && buf[n-1] == '\r' {
		return n - 1
	}
	return n
}

// ReadLine returns the next line as a string, reading at most maxLen bytes
// of it. The rest of a longer line is returned by the following call.
func (f *File) ReadLine(maxLen int) (string, error) {
	if err := ValidateSize(maxLen, "max_len", 1, MaxLineLength); err != nil {
		return "", err
	}
	buf := make([]byte, maxLen)
	n, _, err := f.GetNextLine(buf)
	if err != nil {
		return "", err
	}
	return string(buf[:n]), nil
}

// Seek moves the line cursor. It affects GetNextLine, Read and Write only.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = f.cursor
	case io.SeekEnd:
		size, err := f.Size()
		if err != nil {
			return 0, err
		}
		base = size
	default:
		return 0, NewValidationError("whence", whence, "invalid whence")
	}
	pos := base + offset
	if pos < 0 {
		return 0, NewValidationError("offset", pos, "negative position")
	}
	f.cursor = pos
	return pos, nil
}

// Size returns the file size, counting bytes still held by the write-back
// page.
func (f *File) Size() (int64, error) {
	if err := f.checkOpen(); err != nil {
		return 0, err
	}
	size, err := f.backend.Size()
	if err != nil {
		return 0, NewIOError("size", f.name, err)
	}
	if f.wpage.size > 0 {
		size = max(size, f.wpage.end())
	}
	return size, nil
}

// Truncate flushes the write-back page and changes the size of the file.
func (f *File) Truncate(size int64) error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	if err := ValidateOffset(size, "size"); err != nil {
		return err
	}
	if err := f.flush(); err != nil {
		return err
	}
	f.rpage.size = 0
	if err := f.backend.Truncate(size); err != nil {
		return NewIOError("truncate", f.name, err)
	}
	return nil
}

// Sync flushes the write-back page and syncs the backend.
func (f *File) Sync() error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	if err := f.flush(); err != nil {
		return err
	}
	if err := f.backend.Sync(); err != nil {
		return NewIOError("sync", f.name, err)
	}
	return nil
}

// IsEncrypted reports whether the backend encrypts the file
func (f *File) IsEncrypted() bool {
	if f.closed {
		return false
	}
	return f.backend.IsEncrypted()
}

// Close flushes the write-back page and releases the backend file. The
// backend file is closed even when the flush fails; both errors are
// reported. Closing twice returns ErrClosed.
func (f *File) Close() error {
	if err := f.checkOpen(); err != nil {
		return err
	}
	f.closed = true

	flushErr := f.flush()
	if flushErr != nil {
		f.log.Warn("flush on close failed", slog.Int64("offset", f.wpage.off),
			slog.Int("size", f.wpage.size), slog.Any("error", flushErr))
	}
	var closeErr error
	if err := f.backend.Close(); err != nil {
		closeErr = NewIOError("close", f.name, err)
	}
	f.wpage = page{}
	f.rpage = page{}
	f.log.Debug("file closed")
	return errors.Join(flushErr, closeErr)
}

// Compile-time interface checks.
var (
	_ io.ReadWriteSeeker = (*File)(nil)
	_ io.ReaderAt        = (*File)(nil)
	_ io.WriterAt        = (*File)(nil)
	_ io.Closer          = (*File)(nil)
)
