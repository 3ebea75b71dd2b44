// Package nae implements C4, the Nested-Archive Engine: an entry-count
// bounded, memoized cache of extracted archive members keyed by
// HashPath, backed by C2's permit pools and C3's cached-future registry.
//
// Grounded directly on the original nested-archive manager's
// IndexMap<ArchiveHashPath, (CachedArchiveFile, Instant)>: insertion
// order is preserved (Go map iteration order is not, so the cache
// keeps its own ordered key slice), ancestor chains are refreshed on
// every hit, and eviction always drops the oldest chunk — every entry
// tied for the minimum last-accessed timestamp, not just one.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package nae

import (
	"context"
	"fmt"
	"sync"

	"github.com/hoolamike-go/hoolamike/archive"
	"github.com/hoolamike-go/hoolamike/cmn/cos"
	"github.com/hoolamike-go/hoolamike/cmn/debug"
	"github.com/hoolamike-go/hoolamike/cmn/mono"
	"github.com/hoolamike-go/hoolamike/cmn/nlog"
	"github.com/hoolamike-go/hoolamike/core/future"
	"github.com/hoolamike-go/hoolamike/core/handle"
	"github.com/hoolamike-go/hoolamike/core/hashpath"
	"github.com/hoolamike-go/hoolamike/core/permits"
	"github.com/hoolamike-go/hoolamike/stats"
)

type entry struct {
	h            handle.Handle
	lastAccessed int64 // mono.NanoTime, refreshed on every hit
}

// Source resolves the root of a HashPath (a download) to an on-disk
// file, the one piece of the chain NAE itself never produces.
type Source interface {
	Resolve(sourceHash string) (handle.Handle, error)
}

// Engine is the C4 Nested-Archive Engine.
type Engine struct {
	mu    sync.Mutex
	order []string // insertion-ordered keys, oldest first
	cache map[string]*entry

	maxEntries int // cache capacity, in number of resident entries

	permits *permits.Pools
	futures *future.Registry[handle.Handle]
	src     Source
}

// New builds an Engine capped at maxEntries resident cache entries (a
// count of entries, not a byte budget); maxEntries <= 0 is treated as 1, since an Engine that can
// hold nothing can never even serve a root lookup back out of cache.
func New(maxEntries int, pools *permits.Pools, src Source) *Engine {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Engine{
		cache:      make(map[string]*entry),
		maxEntries: maxEntries,
		permits:    pools,
		futures:    future.New[handle.Handle](),
		src:        src,
	}
}

// Get resolves hp to a Handle, extracting it (and every ancestor along
// the way that isn't already cached) on demand. Every ancestor
// currently resident in the cache has its last-accessed timestamp
// refreshed, keeping live chains warm even when only the leaf is asked
// for repeatedly.
func (e *Engine) Get(ctx context.Context, hp hashpath.HashPath) (handle.Handle, error) {
	h, _, err := e.futures.Do(hp.Key(), func() (handle.Handle, error) {
		return e.resolve(ctx, hp)
	})
	if err != nil {
		return handle.Handle{}, err
	}
	return h.Clone(), nil
}

func (e *Engine) resolve(ctx context.Context, hp hashpath.HashPath) (handle.Handle, error) {
	if h, ok := e.touch(hp); ok {
		stats.NAEHits.Inc()
		return h, nil
	}
	stats.NAEMisses.Inc()

	if hp.IsRoot() {
		h, err := e.src.Resolve(hp.SourceHash)
		if err != nil {
			return handle.Handle{}, fmt.Errorf("resolve source %s: %w", hp.SourceHash, err)
		}
		e.insert(hp, h)
		return h, nil
	}

	parentPath, ok := hp.Parent()
	debug.Assert(ok, "non-root HashPath must have a parent")
	leaf := hp.InnerPath[len(hp.InnerPath)-1]

	parent, err := e.Get(ctx, parentPath)
	if err != nil {
		return handle.Handle{}, err
	}
	defer parent.Close()

	exPermit, err := e.permits.AcquireExtraction(ctx)
	if err != nil {
		return handle.Handle{}, err
	}
	defer exPermit.Release()
	ofPermit, err := e.permits.AcquireOpenFile(ctx)
	if err != nil {
		return handle.Handle{}, err
	}

	h, err := e.extractOne(parent, leaf, ofPermit)
	if err != nil {
		ofPermit.Release()
		return handle.Handle{}, fmt.Errorf("extract %s from %s: %w", leaf, parentPath, err)
	}
	e.insert(hp, h)
	return h, nil
}

// extractOne streams the single named member of parent's archive into
// a scoped temp file and wraps it as a Cached Handle under ofPermit.
func (e *Engine) extractOne(parent handle.Handle, innerPath string, permit *permits.Permit) (handle.Handle, error) {
	f, err := parent.Open()
	if err != nil {
		return handle.Handle{}, err
	}
	defer f.Close()

	mime, peeked, err := archive.Probe(parent.Path(), f)
	if err != nil {
		return handle.Handle{}, err
	}
	var r archive.Reader
	if mime == archive.ExtZip {
		r, err = archive.NewReader(mime, f, parent.Size())
	} else {
		r, err = archive.NewReader(mime, peeked)
	}
	if err != nil {
		return handle.Handle{}, err
	}

	tmp, err := newScopedTemp("nae-")
	if err != nil {
		return handle.Handle{}, err
	}

	var size int64
	found, err := r.Range(innerPath, func(fullname string, reader cos.ReadCloseSizer, _ any) (bool, error) {
		defer reader.Close()
		if fullname != innerPath {
			return false, nil
		}
		n, err := copyBuffered(tmp, reader)
		size = n
		return true, err
	})
	if cerr := tmp.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		removeFile(tmp.Name())
		return handle.Handle{}, err
	}
	if !found {
		removeFile(tmp.Name())
		return handle.Handle{}, cos.NewErrNotFound("entry %q", innerPath)
	}
	return handle.Cached(tmp.Name(), size, permit), nil
}

// touch refreshes hp's and every cached ancestor's last-accessed stamp
// and returns the cached handle on a hit. The handle stays owned by the
// cache, as on the miss path; Get clones it for the caller.
func (e *Engine) touch(hp hashpath.HashPath) (handle.Handle, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := hp.Key()
	ent, ok := e.cache[key]
	if !ok {
		return handle.Handle{}, false
	}
	now := mono.NanoTime()
	for _, anc := range hp.Ancestors() {
		if ae, ok := e.cache[anc.Key()]; ok {
			ae.lastAccessed = now
		}
	}
	return ent.h, true
}

func (e *Engine) insert(hp hashpath.HashPath, h handle.Handle) {
	e.mu.Lock()
	key := hp.Key()
	if _, exists := e.cache[key]; !exists {
		e.order = append(e.order, key)
	}
	e.cache[key] = &entry{h: h, lastAccessed: mono.NanoTime()}
	stats.NAECacheSize.Set(float64(len(e.cache)))
	e.mu.Unlock()

	e.evictOverBudget()
}

// evictOverBudget drops the oldest chunk — every entry tied for the
// current minimum last-accessed value, in insertion order — repeating
// until the cache holds maxEntries entries or fewer.
func (e *Engine) evictOverBudget() {
	for {
		e.mu.Lock()
		if len(e.order) <= e.maxEntries {
			e.mu.Unlock()
			return
		}
		minTS := int64(1<<63 - 1)
		for _, k := range e.order {
			if ent := e.cache[k]; ent.lastAccessed < minTS {
				minTS = ent.lastAccessed
			}
		}
		var victims []string
		var kept []string
		for _, k := range e.order {
			if e.cache[k].lastAccessed == minTS {
				victims = append(victims, k)
			} else {
				kept = append(kept, k)
			}
		}
		e.order = kept
		var toClose []handle.Handle
		for _, k := range victims {
			ent := e.cache[k]
			toClose = append(toClose, ent.h)
			delete(e.cache, k)
		}
		stats.NAEEvictions.Add(float64(len(victims)))
		stats.NAECacheSize.Set(float64(len(e.cache)))
		e.mu.Unlock()

		for _, h := range toClose {
			if err := h.Close(); err != nil {
				nlog.Warningf("nae: evict close: %v", err)
			}
		}
	}
}

// Cleanup drops hp and every cached ancestor of hp from the cache
// unconditionally, used once a caller is certain no further lookups
// for that chain will occur (e.g. the install pass for one mod file
// has completed).
func (e *Engine) Cleanup(hp hashpath.HashPath) {
	for _, anc := range hp.Ancestors() {
		e.cleanupOne(anc)
	}
}

func (e *Engine) cleanupOne(hp hashpath.HashPath) {
	e.mu.Lock()
	key := hp.Key()
	ent, ok := e.cache[key]
	if !ok {
		e.mu.Unlock()
		return
	}
	delete(e.cache, key)
	kept := e.order[:0:0]
	for _, k := range e.order {
		if k != key {
			kept = append(kept, k)
		}
	}
	e.order = kept
	stats.NAECacheSize.Set(float64(len(e.cache)))
	e.mu.Unlock()

	if err := ent.h.Close(); err != nil {
		nlog.Warningf("nae: cleanup close: %v", err)
	}
}

// Preheat eagerly resolves hp without returning the handle to a
// caller, warming an archive chain ahead of the first real request
// for it so that request doesn't pay the whole chain's extraction
// latency.
func (e *Engine) Preheat(ctx context.Context, hp hashpath.HashPath) error {
	h, err := e.Get(ctx, hp)
	if err != nil {
		return err
	}
	return h.Close()
}
