// Package handle implements Handle, the result NAE hands callers for a
// resolved HashPath: either a path that already lives on disk (the
// root download, or a previously-materialized nested member) or a
// reference-counted temp file backed by an open-file permit.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package handle

import (
	"os"
	"sync/atomic"

	"github.com/hoolamike-go/hoolamike/core/permits"
)

// Handle is a closed two-variant sum: exactly one of onDisk/cached is
// set, enforced by the two constructors below rather than by exported
// fields, so callers can't construct an invalid mixed value.
type Handle struct {
	path     string
	cached   *cachedFile
	sizeOnce int64
}

type cachedFile struct {
	permit *permits.Permit
	refs   atomic.Int32
	path   string
}

// OnDisk wraps a path NAE does not own the lifetime of (the initial
// download, or a file the caller already materialized).
func OnDisk(path string, size int64) Handle {
	return Handle{path: path, sizeOnce: size}
}

// Cached wraps a temp file NAE extracted into, under the given open-file
// permit. The permit and the underlying file are released only once
// every clone of this Handle has been Closed (shared ownership across
// however many callers are resolving the same HashPath concurrently).
func Cached(path string, size int64, permit *permits.Permit) Handle {
	cf := &cachedFile{permit: permit, path: path}
	cf.refs.Store(1)
	return Handle{path: path, cached: cf, sizeOnce: size}
}

func (h Handle) Path() string { return h.path }
func (h Handle) Size() int64  { return h.sizeOnce }
func (h Handle) IsCached() bool { return h.cached != nil }

// Clone increments the shared refcount (when cached) and returns a new
// Handle value referencing the same underlying temp file. Both the
// original and the clone must be independently Closed.
func (h Handle) Clone() Handle {
	if h.cached != nil {
		h.cached.refs.Add(1)
	}
	return h
}

// Close decrements the shared refcount; the temp file is unlinked and
// the open-file permit released only when the last clone closes.
func (h Handle) Close() error {
	if h.cached == nil {
		return nil
	}
	if h.cached.refs.Add(-1) > 0 {
		return nil
	}
	h.cached.permit.Release()
	return os.Remove(h.cached.path)
}

func (h Handle) Open() (*os.File, error) {
	return os.Open(h.path)
}
