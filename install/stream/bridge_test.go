/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package stream_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"syscall"
	"testing"

	"github.com/hoolamike-go/hoolamike/cmn/cos"
	"github.com/hoolamike-go/hoolamike/install/stream"
)

// flakyReader fails its first n Read calls with err, then delegates to
// a real reader for the rest.
type flakyReader struct {
	err  error
	n    int
	real io.Reader
}

func (f *flakyReader) Read(p []byte) (int, error) {
	if f.n > 0 {
		f.n--
		return 0, f.err
	}
	return f.real.Read(p)
}

func TestCopyRoundTrips(t *testing.T) {
	var out bytes.Buffer
	n, err := stream.Copy(&out, bytes.NewReader([]byte("hello stream bridge")))
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if n != int64(out.Len()) || out.String() != "hello stream bridge" {
		t.Fatalf("Copy produced %q (n=%d), want round-tripped input", out.String(), n)
	}
}

func TestCopyRetriesEINTRInPlaceThenSucceeds(t *testing.T) {
	src := &flakyReader{err: syscall.EINTR, n: 2, real: bytes.NewReader([]byte("recovered"))}
	var out bytes.Buffer
	n, err := stream.Copy(&out, src)
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if out.String() != "recovered" || n != int64(len("recovered")) {
		t.Fatalf("Copy = %q (n=%d), want the post-retry content", out.String(), n)
	}
}

func TestCopyRetriesDecodeRetryableInPlace(t *testing.T) {
	src := &flakyReader{err: cos.NewDecodeRetryable(errors.New("hiccup")), n: 1, real: bytes.NewReader([]byte("ok"))}
	var out bytes.Buffer
	if _, err := stream.Copy(&out, src); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if out.String() != "ok" {
		t.Fatalf("Copy = %q, want %q", out.String(), "ok")
	}
}

func TestCopyGivesUpAfterExceedingRetryBound(t *testing.T) {
	src := &flakyReader{err: syscall.EINTR, n: 100, real: bytes.NewReader(nil)}
	var out bytes.Buffer
	_, err := stream.Copy(&out, src)
	if err == nil {
		t.Fatal("expected Copy to give up and surface an error past the retry bound")
	}
	var copyErr *stream.CopyErr
	if !errors.As(err, &copyErr) {
		t.Fatalf("Copy err = %v (%T), want *stream.CopyErr", err, err)
	}
	if !errors.Is(copyErr.Err, syscall.EINTR) {
		t.Fatalf("CopyErr.Err = %v, want it to wrap syscall.EINTR", copyErr.Err)
	}
}

func TestCopySurfacesDecodeFatalWithoutRetrying(t *testing.T) {
	calls := 0
	src := readerFunc(func([]byte) (int, error) {
		calls++
		return 0, cos.NewDecodeFatal(os.ErrClosed)
	})
	var out bytes.Buffer
	_, err := stream.Copy(&out, src)
	if err == nil {
		t.Fatal("expected an error")
	}
	if calls != 1 {
		t.Fatalf("Read called %d times, want exactly 1 (no retry for DecodeFatal)", calls)
	}
	var fatal *cos.DecodeFatal
	if !errors.As(err, &fatal) {
		t.Fatalf("Copy err = %v (%T), want it to wrap *cos.DecodeFatal", err, err)
	}
}

type readerFunc func([]byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }
