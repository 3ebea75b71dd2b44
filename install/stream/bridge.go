// Package stream implements C9, the Stream Bridge: a buffered
// reader-to-writer copy with a byte-offset error report, plus scoped
// temp-file creation that guarantees unlink on every exit path.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package stream

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/hoolamike-go/hoolamike/cmn/cos"
	"github.com/hoolamike-go/hoolamike/memsys"
)

// maxReadRetries bounds how many times Copy retries the same
// interrupted Read in place before giving up and surfacing the error —
// spec's DecodeRetryable kind covers a transient hiccup, not a reader
// that is broken outright.
const maxReadRetries = 3

// CopyErr wraps an I/O failure with the byte offset reached, so a
// failed asset's error report can point at exactly where the stream
// broke rather than just that it broke.
type CopyErr struct {
	Offset int64
	Err    error
}

func (e *CopyErr) Error() string { return fmt.Sprintf("copy failed at offset %d: %v", e.Offset, e.Err) }
func (e *CopyErr) Unwrap() error { return e.Err }

// Copy streams src into dst using a fixed page-sized buffer (see
// memsys) and returns the total bytes copied. A Read that fails with a
// transient, interrupted-style error (cos.DecodeRetryable, or the
// classic EINTR) is retried in place — same buffer, same offset — up
// to maxReadRetries times before it's treated as fatal and wrapped in
// CopyErr; DecodeFatal and every other Read error surface immediately,
// with no retry.
func Copy(dst io.Writer, src io.Reader) (int64, error) {
	buf, slab := memsys.PageMM().Alloc()
	defer slab.Free(buf)

	var total int64
	var retries int
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			wn, werr := dst.Write(buf[:n])
			total += int64(wn)
			if werr != nil {
				return total, &CopyErr{Offset: total, Err: werr}
			}
			if wn != n {
				return total, &CopyErr{Offset: total, Err: io.ErrShortWrite}
			}
		}
		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			if isRetryableRead(rerr) && retries < maxReadRetries {
				retries++
				continue
			}
			return total, &CopyErr{Offset: total, Err: rerr}
		}
		retries = 0
	}
}

// isRetryableRead reports whether rerr is the kind of transient read
// failure the Stream Bridge recovers from locally: a decoder
// explicitly marking itself recoverable, or the OS signalling a
// syscall was interrupted mid-read.
func isRetryableRead(rerr error) bool {
	var retryable *cos.DecodeRetryable
	if errors.As(rerr, &retryable) {
		return true
	}
	return errors.Is(rerr, syscall.EINTR)
}

// ScopedTemp creates a temp file, hands it to fn, and afterward closes
// the handle and removes the file, whatever fn returned (ScopedTemp
// does not assume ownership of promoting the result elsewhere; callers
// that want to keep the bytes rename the file themselves before
// returning).
func ScopedTemp(dir, pattern string, fn func(*os.File) error) (err error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return err
	}
	path := f.Name()
	defer func() {
		_ = os.Remove(path)
	}()
	defer f.Close()

	return fn(f)
}

// NewScopedTemp creates a temp file the caller owns the lifetime of
// going forward; nothing removes it automatically (the dispatcher
// stages a write-archive entry's bytes in one, and the file stays on
// disk, closed, until the aggregator builds the archive from it).
func NewScopedTemp(dir, pattern string) (*os.File, error) {
	return os.CreateTemp(dir, pattern)
}
