// Package pagefs provides buffered file handles over pluggable storage
// backends, together with PBKDF2 key derivation over a generic HMAC provider.
//
// # Overview
//
// A File wraps a BackendFile and keeps two small caches per handle:
//
//   - a write-back page that collects contiguous Printf and WriteCached
//     output and writes it to the backend in one call
//   - a read-ahead page that serves GetNextLine without a backend read per
//     line
//
// Every read sees pending buffered writes and every write invalidates the
// overlapping part of the read-ahead page, so a handle always observes its
// own writes.
//
// # Backends
//
// A Backend opens files by path. The package ships three:
//
//   - Standard(): the host filesystem
//   - NewMemoryBackend(): an in-memory filesystem built on memfs
//   - OpenBoltBackend(): one bbolt key per path, with native line reads
//
// Any absfs filesystem can be adapted with NewFSBackend. The process-wide
// default backend, used when Open is given a nil Backend, is managed with
// Default and SetDefault and is safe for concurrent use.
//
// # Basic Usage
//
//	f, err := pagefs.Open(pagefs.Default(), "/tmp/report.txt", "w+")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	var off int64
//	for i, v := range values {
//	    n, err := f.Printf(off, "%d\t%v\n", i, v)
//	    if err != nil {
//	        return err
//	    }
//	    off += int64(n)
//	}
//
//	f.Seek(0, io.SeekStart)
//	buf := make([]byte, 256)
//	for {
//	    n, isPrefix, err := f.GetNextLine(buf)
//	    if err == io.EOF {
//	        break
//	    }
//	    ...
//	}
//
// # Key Derivation
//
// PBKDF2 implements RFC 8018 with HMAC-SHA256, HMAC-SHA384 or HMAC-SHA512.
// PBKDF2With accepts any HMACProvider, and a provider failure aborts the
// derivation without returning partial key material. Intermediate blocks
// are zeroed before returning.
//
//	key, err := pagefs.PBKDF2(pagefs.SHA256, password, salt, 600000, 32)
//
// DeriveAll runs a batch of DerivedKeyRequests on a worker pool.
//
// # Errors
//
// Every failure matches one of ErrIOFailure, ErrInvalidParameter,
// ErrHashFailure or ErrClosed with errors.Is. Status maps an error to the
// numeric status codes 0 and -255.
package pagefs
