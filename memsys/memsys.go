// Package memsys is a deliberately small slab allocator: one fixed
// 64KiB page size, sufficient for the Stream Bridge's buffered copy
// and for archive.Writer's per-entry I/O buffer. The upstream MMSA
// implements multiple slab classes with pressure-driven GC across a
// shared host-memory budget; NAE's workload is a bounded number of
// concurrent extractions (gated by EXTRACTION_PERMITS), so a single
// class with a sync.Pool free list covers it without that machinery.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package memsys

import "sync"

const DefaultBufSize = 64 * 1024

type Slab struct {
	size int
	pool *sync.Pool
}

func (s *Slab) Size() int64 { return int64(s.size) }

func (s *Slab) Alloc() ([]byte, *Slab) {
	buf := s.pool.Get().([]byte)
	return buf, s
}

func (s *Slab) Free(buf []byte) {
	//lint:ignore SA6002 slab buffers are always full-capacity slices
	s.pool.Put(buf[:s.size])
}

// MMSA mimics the subset of the upstream "memory manager, slab/SGL
// allocator" surface that callers in this module actually use.
type MMSA struct {
	slab *Slab
}

var page = &MMSA{
	slab: &Slab{
		size: DefaultBufSize,
		pool: &sync.Pool{New: func() any { return make([]byte, DefaultBufSize) }},
	},
}

// PageMM returns the process-wide page-sized slab manager, analogous
// to the upstream memsys.PageMM() singleton.
func PageMM() *MMSA { return page }

func (m *MMSA) Alloc() ([]byte, *Slab) { return m.slab.Alloc() }

func (m *MMSA) GetSlab(size int64) *Slab {
	return m.slab
}
