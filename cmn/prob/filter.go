// Package prob wraps a cuckoo filter as a fast, probabilistic
// pre-check in front of an authoritative map: the write-archive
// aggregator uses it to reject the overwhelming majority of
// non-duplicate output paths in O(1) without touching the map at all,
// only falling back to the map on a filter hit (which may itself be a
// false positive).
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package prob

import (
	cuckoo "github.com/seiflotfy/cuckoofilter"
)

type Filter struct {
	cf *cuckoo.Filter
}

func NewDefaultFilter() *Filter {
	return &Filter{cf: cuckoo.NewFilter(1 << 16)}
}

func NewFilter(capacity uint) *Filter {
	return &Filter{cf: cuckoo.NewFilter(capacity)}
}

// MightContain reports whether s may have been added before. false is
// authoritative (never added); true is probabilistic (may be a false
// positive and must be confirmed against the real index).
func (f *Filter) MightContain(s string) bool {
	return f.cf.Lookup([]byte(s))
}

func (f *Filter) Add(s string) bool {
	return f.cf.Insert([]byte(s))
}

func (f *Filter) Delete(s string) bool {
	return f.cf.Delete([]byte(s))
}

func (f *Filter) Count() uint {
	return f.cf.Count()
}
