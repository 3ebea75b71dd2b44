/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"io"
	"sync"
)

// OAH ("object attributes holder") carries the handful of attributes
// an archive.Writer needs to emit a correct entry header, independent
// of whatever concrete asset or file it is streaming from.
type OAH interface {
	SizeBytes() int64
	AtimeUnix() int64
}

type SimpleOAH struct {
	Size  int64
	Atime int64
}

func (s SimpleOAH) SizeBytes() int64 { return s.Size }
func (s SimpleOAH) AtimeUnix() int64 { return s.Atime }

// ReadCloseSizer is what archive readers hand back per-entry: a bounded
// reader over a single archive member plus its declared size.
type ReadCloseSizer interface {
	io.ReadCloser
	Size() int64
}

type sizedReadCloser struct {
	io.Reader
	io.Closer
	size int64
}

func NewSizedReadCloser(r io.Reader, c io.Closer, size int64) ReadCloseSizer {
	return &sizedReadCloser{Reader: r, Closer: c, size: size}
}

func (s *sizedReadCloser) Size() int64 { return s.size }

// NopLocker satisfies sync.Locker for the common case of a writer that
// does not need entry-level serialization (single goroutine feeding it).
type NopLocker struct{}

func (NopLocker) Lock()   {}
func (NopLocker) Unlock() {}

var _ sync.Locker = NopLocker{}

func Close(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
