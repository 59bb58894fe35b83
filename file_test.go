package pagefs

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// faultBackend wraps a backend and records what reaches the files it opens.
type faultBackend struct {
	inner      Backend
	failWrites bool
	files      []*faultFile
}

func (b *faultBackend) Name() string {
	return "fault"
}

func (b *faultBackend) Open(path string, flag int, perm os.FileMode) (BackendFile, error) {
	f, err := b.inner.Open(path, flag, perm)
	if err != nil {
		return nil, err
	}
	ff := &faultFile{BackendFile: f, owner: b}
	b.files = append(b.files, ff)
	return ff, nil
}

type faultFile struct {
	BackendFile
	owner  *faultBackend
	writes int
	closed bool
}

var errInjected = errors.New("injected write failure")

func (f *faultFile) WriteAt(p []byte, off int64) (int, error) {
	f.writes++
	if f.owner.failWrites {
		return 0, errInjected
	}
	return f.BackendFile.WriteAt(p, off)
}

func (f *faultFile) Close() error {
	f.closed = true
	return f.BackendFile.Close()
}

func smallOptions(printfPage, getlinePage int) Options {
	return Options{PrintfPageSize: printfPage, GetlinePageSize: getlinePage}
}

func openTemp(t *testing.T, opts Options) (*File, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.txt")
	f, err := OpenWith(Standard(), path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600, opts)
	if err != nil {
		t.Fatalf("OpenWith() error = %v", err)
	}
	return f, path
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lines.txt")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestFile_PrintfReadAtAcrossPageBoundary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	fb := &faultBackend{inner: Standard()}
	f, err := OpenWith(fb, path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600, smallOptions(8, 8))
	if err != nil {
		t.Fatalf("OpenWith() error = %v", err)
	}

	// Pieces overflow the 8 byte page, and the 14 byte one bypasses it.
	pieces := []string{"0123456", "789ab", "cdefghijklmnop", "qrstuv", "wxyz"}
	off := int64(5)
	for _, piece := range pieces {
		n, err := f.Printf(off, "%s", piece)
		if err != nil || n != len(piece) {
			t.Fatalf("Printf(%d, %q) = %d, %v", off, piece, n, err)
		}
		off += int64(n)
	}
	if got := fb.files[0].writes; got != 4 {
		t.Errorf("backend writes before Close = %d, want 4", got)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	f, err = Open(Standard(), path, "r")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	want := []byte("0123456789abcdefghijklmnopqrstuvwxyz")
	got := make([]byte, len(want))
	n, err := f.ReadAt(got, 5)
	if err != nil || n != len(want) {
		t.Fatalf("ReadAt() = %d, %v", n, err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadAt() mismatch (-want +got):\n%s", diff)
	}

	// The gap before the first write reads back as zeros.
	head := make([]byte, 5)
	if _, err := f.ReadAt(head, 0); err != nil {
		t.Fatalf("ReadAt(0) error = %v", err)
	}
	if diff := cmp.Diff(make([]byte, 5), head); diff != "" {
		t.Errorf("gap mismatch (-want +got):\n%s", diff)
	}
}

func TestFile_ReadAtShortCount(t *testing.T) {
	f, _ := openTemp(t, DefaultOptions())
	defer f.Close()

	if _, err := f.WriteAt([]byte("hello"), 0); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 10)
	n, err := f.ReadAt(buf, 2)
	if n != 3 || !errors.Is(err, io.EOF) {
		t.Fatalf("ReadAt() = %d, %v; want 3, io.EOF", n, err)
	}
	if string(buf[:n]) != "llo" {
		t.Errorf("ReadAt() = %q, want %q", buf[:n], "llo")
	}

	n, err = f.ReadAt(buf, 100)
	if n != 0 || !errors.Is(err, io.EOF) {
		t.Errorf("ReadAt(past end) = %d, %v; want 0, io.EOF", n, err)
	}
}

func TestFile_PrintfCoalescesWrites(t *testing.T) {
	mem, err := NewMemoryBackend()
	if err != nil {
		t.Fatal(err)
	}
	fb := &faultBackend{inner: mem}

	f, err := OpenWith(fb, "/log.txt", os.O_RDWR|os.O_CREATE, 0600, smallOptions(64, 64))
	if err != nil {
		t.Fatal(err)
	}

	var off int64
	for i := range 3 {
		n, err := f.Printf(off, "line %d\n", i)
		if err != nil {
			t.Fatalf("Printf() error = %v", err)
		}
		off += int64(n)
	}
	if got := fb.files[0].writes; got != 0 {
		t.Errorf("backend writes before flush = %d, want 0", got)
	}

	size, err := f.Size()
	if err != nil {
		t.Fatal(err)
	}
	if size != off {
		t.Errorf("Size() = %d, want %d", size, off)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := fb.files[0].writes; got != 1 {
		t.Errorf("backend writes after close = %d, want 1", got)
	}

	f, err = Open(mem, "/log.txt", "r")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := io.ReadAll(f)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("line 0\nline 1\nline 2\n", string(got)); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}
}

type cachedWrite struct {
	off int64
	s   string
}

func TestFile_WriteCachedPlacement(t *testing.T) {
	tests := []struct {
		name       string
		writes     []cachedWrite
		wantFlush  int // backend writes before Close
		wantResult string
	}{
		{
			name: "contiguous appends stay in page",
			writes: []cachedWrite{
				{0, "abc"}, {3, "def"},
			},
			wantFlush:  0,
			wantResult: "abcdef",
		},
		{
			name: "overwrite inside page",
			writes: []cachedWrite{
				{0, "abcdef"}, {2, "XY"},
			},
			wantFlush:  0,
			wantResult: "abXYef",
		},
		{
			name: "gap starts a new page",
			writes: []cachedWrite{
				{0, "ab"}, {4, "cd"},
			},
			wantFlush:  1,
			wantResult: "ab\x00\x00cd",
		},
		{
			name: "page full starts a new page",
			writes: []cachedWrite{
				{0, "abcdef"}, {6, "ghij"},
			},
			wantFlush:  1,
			wantResult: "abcdefghij",
		},
		{
			name: "write before page starts a new page",
			writes: []cachedWrite{
				{4, "efgh"}, {0, "abcd"},
			},
			wantFlush:  1,
			wantResult: "abcdefgh",
		},
		{
			name: "oversized payload bypasses page",
			writes: []cachedWrite{
				{0, "ab"}, {2, "cdefghijkl"},
			},
			wantFlush:  2,
			wantResult: "abcdefghijkl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "f")
			fb := &faultBackend{inner: Standard()}
			f, err := OpenWith(fb, path, os.O_RDWR|os.O_CREATE, 0600, smallOptions(8, 8))
			if err != nil {
				t.Fatal(err)
			}
			for _, w := range tt.writes {
				n, err := f.WriteCached(w.off, []byte(w.s))
				if err != nil || n != len(w.s) {
					t.Fatalf("WriteCached(%d, %q) = %d, %v", w.off, w.s, n, err)
				}
			}
			if got := fb.files[0].writes; got != tt.wantFlush {
				t.Errorf("backend writes = %d, want %d", got, tt.wantFlush)
			}
			if err := f.Close(); err != nil {
				t.Fatal(err)
			}

			got, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.wantResult, string(got)); diff != "" {
				t.Errorf("content mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFile_ReadAtSeesPendingPrintf(t *testing.T) {
	f, _ := openTemp(t, DefaultOptions())
	defer f.Close()

	if _, err := f.Printf(0, "%s-%d", "value", 42); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 8)
	n, err := f.ReadAt(buf, 0)
	if err != nil {
		t.Fatalf("ReadAt() error = %v", err)
	}
	if got := string(buf[:n]); got != "value-42" {
		t.Errorf("ReadAt() = %q, want %q", got, "value-42")
	}
}

func TestFile_ReadsSeePrintfPastEnd(t *testing.T) {
	t.Run("ReadAt", func(t *testing.T) {
		f, _ := openTemp(t, smallOptions(16, 4))
		defer f.Close()

		if _, err := f.Printf(10, "hello\n"); err != nil {
			t.Fatal(err)
		}
		buf := make([]byte, 5)
		n, err := f.ReadAt(buf, 0)
		if err != nil || n != 5 {
			t.Fatalf("ReadAt() = %d, %v; want 5, nil", n, err)
		}
		if diff := cmp.Diff(make([]byte, 5), buf); diff != "" {
			t.Errorf("ReadAt() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("GetNextLine", func(t *testing.T) {
		f, _ := openTemp(t, smallOptions(16, 4))
		defer f.Close()

		if _, err := f.Printf(10, "hello\n"); err != nil {
			t.Fatal(err)
		}
		size, err := f.Size()
		if err != nil || size != 16 {
			t.Fatalf("Size() = %d, %v; want 16", size, err)
		}
		line, err := f.ReadLine(32)
		if err != nil {
			t.Fatalf("ReadLine() error = %v", err)
		}
		if diff := cmp.Diff("\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00hello", line); diff != "" {
			t.Errorf("ReadLine() mismatch (-want +got):\n%s", diff)
		}
		if _, err := f.ReadLine(32); !errors.Is(err, io.EOF) {
			t.Errorf("ReadLine() at end error = %v, want io.EOF", err)
		}
	})
}

func TestFile_GetNextLine(t *testing.T) {
	tests := []struct {
		name    string
		content string
		page    int
		bufLen  int
		want    []string
	}{
		{
			name:    "small page",
			content: "a\nbb\nccc\n",
			page:    4,
			bufLen:  16,
			want:    []string{"a", "bb", "ccc"},
		},
		{
			name:    "default page",
			content: "a\nbb\nccc\n",
			bufLen:  16,
			want:    []string{"a", "bb", "ccc"},
		},
		{
			name:    "crlf terminators",
			content: "one\r\ntwo\r\n",
			page:    3,
			bufLen:  16,
			want:    []string{"one", "two"},
		},
		{
			name:    "unterminated last line",
			content: "first\nlast",
			page:    4,
			bufLen:  16,
			want:    []string{"first", "last"},
		},
		{
			name:    "empty lines",
			content: "\n\nx\n",
			page:    2,
			bufLen:  16,
			want:    []string{"", "", "x"},
		},
		{
			name:    "exact fit",
			content: "abc\nd",
			page:    2,
			bufLen:  3,
			want:    []string{"abc", "d"},
		},
		{
			name:    "empty file",
			content: "",
			bufLen:  4,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.content)
			f, err := OpenWith(nil, path, os.O_RDONLY, 0, smallOptions(0, tt.page))
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()

			var got []string
			buf := make([]byte, tt.bufLen)
			for {
				n, isPrefix, err := f.GetNextLine(buf)
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					t.Fatalf("GetNextLine() error = %v", err)
				}
				if isPrefix {
					t.Fatalf("GetNextLine() unexpected prefix %q", buf[:n])
				}
				got = append(got, string(buf[:n]))
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("lines mismatch (-want +got):\n%s", diff)
			}

			// End of file is sticky.
			if n, _, err := f.GetNextLine(buf); n != 0 || !errors.Is(err, io.EOF) {
				t.Errorf("GetNextLine() after EOF = %d, %v", n, err)
			}
		})
	}
}

type linePart struct {
	Text     string
	IsPrefix bool
}

func readParts(t *testing.T, f *File, bufLen int) []linePart {
	t.Helper()
	var parts []linePart
	buf := make([]byte, bufLen)
	for {
		n, isPrefix, err := f.GetNextLine(buf)
		if errors.Is(err, io.EOF) {
			return parts
		}
		if err != nil {
			t.Fatalf("GetNextLine() error = %v", err)
		}
		if n > bufLen {
			t.Fatalf("GetNextLine() = %d bytes, buffer holds %d", n, bufLen)
		}
		parts = append(parts, linePart{string(buf[:n]), isPrefix})
	}
}

func TestFile_GetNextLineLongLine(t *testing.T) {
	path := writeFile(t, "abcdefghij\nx")
	for _, page := range []int{3, 5, 64} {
		f, err := OpenWith(nil, path, os.O_RDONLY, 0, smallOptions(0, page))
		if err != nil {
			t.Fatal(err)
		}
		got := readParts(t, f, 4)
		want := []linePart{
			{"abcd", true},
			{"efgh", true},
			{"ij", false},
			{"x", false},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("page %d: parts mismatch (-want +got):\n%s", page, diff)
		}
		f.Close()
	}
}

func TestFile_SeekThenLine(t *testing.T) {
	path := writeFile(t, "a\nbb\nccc\n")
	f, err := Open(nil, path, "r")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	buf := make([]byte, 8)
	if _, _, err := f.GetNextLine(buf); err != nil {
		t.Fatal(err)
	}
	if pos, err := f.Seek(2, io.SeekStart); err != nil || pos != 2 {
		t.Fatalf("Seek() = %d, %v", pos, err)
	}
	line, err := f.ReadLine(8)
	if err != nil {
		t.Fatal(err)
	}
	if line != "bb" {
		t.Errorf("ReadLine() = %q, want %q", line, "bb")
	}
	if f.Cursor() != 5 {
		t.Errorf("Cursor() = %d, want 5", f.Cursor())
	}

	if pos, err := f.Seek(-4, io.SeekEnd); err != nil || pos != 5 {
		t.Fatalf("Seek(end) = %d, %v", pos, err)
	}
	if line, _ := f.ReadLine(8); line != "ccc" {
		t.Errorf("ReadLine() = %q, want %q", line, "ccc")
	}

	if _, err := f.Seek(-100, io.SeekCurrent); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Seek(negative) error = %v, want ErrInvalidParameter", err)
	}
	if _, err := f.Seek(0, 7); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Seek(bad whence) error = %v, want ErrInvalidParameter", err)
	}
}

func TestFile_LinesSeeWrites(t *testing.T) {
	f, _ := openTemp(t, smallOptions(16, 16))
	defer f.Close()

	if _, err := f.WriteAt([]byte("old\nrow\n"), 0); err != nil {
		t.Fatal(err)
	}
	if line, err := f.ReadLine(8); err != nil || line != "old" {
		t.Fatalf("ReadLine() = %q, %v", line, err)
	}

	// The read page holds "row\n" now; both write paths must replace it.
	if _, err := f.WriteAt([]byte("new"), 4); err != nil {
		t.Fatal(err)
	}
	if line, _ := f.ReadLine(8); line != "new" {
		t.Errorf("ReadLine() after WriteAt = %q, want %q", line, "new")
	}

	if _, err := f.Printf(8, "%s\n", "tail"); err != nil {
		t.Fatal(err)
	}
	if line, _ := f.ReadLine(8); line != "tail" {
		t.Errorf("ReadLine() after Printf = %q, want %q", line, "tail")
	}
}

func TestFile_CursorReadWrite(t *testing.T) {
	f, _ := openTemp(t, DefaultOptions())
	defer f.Close()

	if _, err := io.WriteString(f, "hello "); err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(f, "world"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(f)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello world" {
		t.Errorf("ReadAll() = %q, want %q", got, "hello world")
	}
}

func TestFile_Truncate(t *testing.T) {
	f, _ := openTemp(t, DefaultOptions())
	defer f.Close()

	if _, err := f.Printf(0, "0123456789"); err != nil {
		t.Fatal(err)
	}
	if err := f.Truncate(4); err != nil {
		t.Fatalf("Truncate() error = %v", err)
	}
	size, err := f.Size()
	if err != nil || size != 4 {
		t.Fatalf("Size() = %d, %v; want 4", size, err)
	}
	if line, _ := f.ReadLine(16); line != "0123" {
		t.Errorf("ReadLine() = %q, want %q", line, "0123")
	}

	if err := f.Truncate(-1); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Truncate(-1) error = %v, want ErrInvalidParameter", err)
	}
}

func TestFile_InvalidParameters(t *testing.T) {
	f, _ := openTemp(t, DefaultOptions())
	defer f.Close()

	tests := []struct {
		name string
		call func() error
	}{
		{"ReadAt negative offset", func() error { _, err := f.ReadAt(make([]byte, 1), -1); return err }},
		{"WriteAt negative offset", func() error { _, err := f.WriteAt([]byte("x"), -1); return err }},
		{"Printf negative offset", func() error { _, err := f.Printf(-5, "x"); return err }},
		{"GetNextLine empty buffer", func() error { _, _, err := f.GetNextLine(nil); return err }},
		{"ReadLine zero max", func() error { _, err := f.ReadLine(0); return err }},
		{"ReadLine oversized max", func() error { _, err := f.ReadLine(MaxLineLength + 1); return err }},
		{"ReadLine huge max", func() error { _, err := f.ReadLine(1 << 62); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("error = %v, want ErrInvalidParameter", err)
			}
			if Status(err) != StatusError {
				t.Errorf("Status() = %d, want %d", Status(err), StatusError)
			}
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(Standard(), filepath.Join(dir, "missing"), "r")
	if !errors.Is(err, ErrIOFailure) || !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open(missing) error = %v, want ErrIOFailure wrapping fs.ErrNotExist", err)
	}

	if _, err := Open(Standard(), filepath.Join(dir, "x"), "rw"); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Open(bad mode) error = %v, want ErrInvalidParameter", err)
	}
	if _, err := Open(Standard(), "", "r"); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Open(empty path) error = %v, want ErrInvalidParameter", err)
	}
	_, err = OpenWith(Standard(), filepath.Join(dir, "x"), os.O_CREATE|os.O_RDWR, 0600, Options{PrintfPageSize: -1})
	if !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("OpenWith(bad options) error = %v, want ErrInvalidParameter", err)
	}
	for _, opts := range []Options{{PrintfPageSize: 1 << 62}, {GetlinePageSize: MaxPageSize + 1}} {
		_, err = OpenWith(Standard(), filepath.Join(dir, "big"), os.O_CREATE|os.O_RDWR, 0600, opts)
		if !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("OpenWith(%s) error = %v, want ErrInvalidParameter", opts, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "big")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("file created despite invalid options: %v", err)
	}
}

func TestFile_CloseTwice(t *testing.T) {
	f, _ := openTemp(t, DefaultOptions())
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := f.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close() error = %v, want ErrClosed", err)
	}
	if _, err := f.ReadAt(make([]byte, 1), 0); !errors.Is(err, ErrClosed) {
		t.Errorf("ReadAt() after Close error = %v, want ErrClosed", err)
	}
	if _, err := f.Printf(0, "x"); !errors.Is(err, ErrClosed) {
		t.Errorf("Printf() after Close error = %v, want ErrClosed", err)
	}
	if f.IsEncrypted() {
		t.Error("IsEncrypted() = true on a closed file")
	}
}

func TestFile_CloseReportsFlushFailure(t *testing.T) {
	mem, err := NewMemoryBackend()
	if err != nil {
		t.Fatal(err)
	}
	fb := &faultBackend{inner: mem}

	var logs bytes.Buffer
	opts := DefaultOptions()
	opts.Logger = slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	f, err := OpenWith(fb, "/f", os.O_RDWR|os.O_CREATE, 0600, opts)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Printf(0, "pending"); err != nil {
		t.Fatal(err)
	}

	fb.failWrites = true
	err = f.Close()
	if !errors.Is(err, ErrIOFailure) || !errors.Is(err, errInjected) {
		t.Errorf("Close() error = %v, want ErrIOFailure wrapping the write failure", err)
	}
	if !fb.files[0].closed {
		t.Error("backend file left open after failed flush")
	}

	out := logs.String()
	for _, want := range []string{"handle=" + f.ID().String(), "flush on close failed", "backend=fault"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestFile_FlushFailureKeepsPage(t *testing.T) {
	mem, err := NewMemoryBackend()
	if err != nil {
		t.Fatal(err)
	}
	fb := &faultBackend{inner: mem}

	f, err := OpenWith(fb, "/f", os.O_RDWR|os.O_CREATE, 0600, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Printf(0, "keep me"); err != nil {
		t.Fatal(err)
	}

	fb.failWrites = true
	if err := f.Flush(); !errors.Is(err, ErrIOFailure) {
		t.Fatalf("Flush() error = %v, want ErrIOFailure", err)
	}
	if err := f.Sync(); !errors.Is(err, ErrIOFailure) {
		t.Fatalf("Sync() error = %v, want ErrIOFailure", err)
	}

	fb.failWrites = false
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	f, err = Open(mem, "/f", "r")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if line, _ := f.ReadLine(32); line != "keep me" {
		t.Errorf("ReadLine() = %q, want %q", line, "keep me")
	}
}

func TestFile_Metadata(t *testing.T) {
	f, path := openTemp(t, DefaultOptions())
	defer f.Close()

	if f.Name() != path {
		t.Errorf("Name() = %q, want %q", f.Name(), path)
	}
	if f.IsEncrypted() {
		t.Error("IsEncrypted() = true for the standard backend")
	}

	g, _ := openTemp(t, DefaultOptions())
	defer g.Close()
	if f.ID() == g.ID() {
		t.Error("two handles share an ID")
	}
}
