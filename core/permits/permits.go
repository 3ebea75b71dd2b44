// Package permits implements the C2 permit pools: two counting
// semaphores that bound, respectively, how many concurrent extraction
// workers and how many OS file descriptors NAE may hold at once.
// Acquisition always proceeds EXTRACTION then OPEN_FILE, which is what
// rules out the pool-exhaustion deadlock a naive either-order acquire
// could hit when an extraction itself needs to open files. Release
// order is not fixed: NAE releases the extraction permit when the
// extraction returns, while the open-file permit stays with the
// extracted handle until that handle is finally closed.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package permits

import (
	"context"

	"golang.org/x/sync/semaphore"

	"github.com/hoolamike-go/hoolamike/cmn/cos"
)

// Pools owns both semaphores for a single NAE instance. The weights
// are fixed at construction: OpenFiles is 20x the concurrency factor,
// Extraction equals it exactly. Callers needing both permits for one
// unit of work MUST acquire Extraction before OpenFiles (see
// AcquireExtraction) — that fixed order is what rules out the only
// deadlock cycle available between the two pools.
type Pools struct {
	OpenFiles  *semaphore.Weighted
	Extraction *semaphore.Weighted
}

func New(concurrency int64) *Pools {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pools{
		OpenFiles:  semaphore.NewWeighted(20 * concurrency),
		Extraction: semaphore.NewWeighted(concurrency),
	}
}

// Permit is a single acquired slot; Release is not idempotent, so
// callers must call it exactly once, normally via defer right after a
// successful Acquire. Release on a nil Permit does nothing.
type Permit struct {
	sem *semaphore.Weighted
	n   int64
}

func (p *Permit) Release() {
	if p == nil {
		return
	}
	p.sem.Release(p.n)
}

// acquire wraps semaphore.Weighted.Acquire, which fails only once ctx
// is done (a request larger than the pool's total weight also just
// waits for ctx), so every failure returned here is ErrCancelled. The
// ErrResourceExhausted branch is taken only if Acquire fails while
// ctx.Err() is still nil, which semaphore.Weighted does not do.
func acquire(ctx context.Context, sem *semaphore.Weighted, n int64, name string) (*Permit, error) {
	if err := sem.Acquire(ctx, n); err != nil {
		if ctx.Err() == nil {
			return nil, cos.NewErrResourceExhausted(name)
		}
		return nil, cos.NewErrCancelled(err)
	}
	return &Permit{sem: sem, n: n}, nil
}

// AcquireExtraction reserves one extraction-worker slot. Callers that
// need both kinds of permit for a single operation must acquire this
// one first, then AcquireOpenFile.
func (p *Pools) AcquireExtraction(ctx context.Context) (*Permit, error) {
	return acquire(ctx, p.Extraction, 1, "extraction")
}

// AcquireOpenFile reserves one file-descriptor slot. See
// AcquireExtraction for the required acquisition order.
func (p *Pools) AcquireOpenFile(ctx context.Context) (*Permit, error) {
	return acquire(ctx, p.OpenFiles, 1, "open-file")
}
