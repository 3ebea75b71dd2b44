// Package hashpath implements HashPath, the content-addressed
// coordinate NAE indexes its cache and its in-flight futures by: a
// download's source hash plus the chain of inner paths walked through
// however many nested archives sit between the download and the leaf
// file.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package hashpath

import (
	"strings"

	"github.com/OneOfOne/xxhash"
	"github.com/hoolamike-go/hoolamike/cmn/cos"
)

// HashPath is immutable once constructed: every derived child path is
// a new value built by appending to an existing one's InnerPath slice,
// never a mutation of the parent.
type HashPath struct {
	SourceHash string
	InnerPath  []string
}

func Root(sourceHash string) HashPath {
	return HashPath{SourceHash: sourceHash}
}

// Child returns a new HashPath one level deeper; the receiver is left
// untouched.
func (h HashPath) Child(inner string) HashPath {
	next := make([]string, len(h.InnerPath)+1)
	copy(next, h.InnerPath)
	next[len(h.InnerPath)] = inner
	return HashPath{SourceHash: h.SourceHash, InnerPath: next}
}

// Parent returns the HashPath one level up and ok=false at the root.
func (h HashPath) Parent() (HashPath, bool) {
	if len(h.InnerPath) == 0 {
		return HashPath{}, false
	}
	return HashPath{SourceHash: h.SourceHash, InnerPath: h.InnerPath[:len(h.InnerPath)-1]}, true
}

func (h HashPath) IsRoot() bool { return len(h.InnerPath) == 0 }

func (h HashPath) Depth() int { return len(h.InnerPath) }

// IsPrefixOf reports whether h is an ancestor of (or equal to) other:
// same source hash, and h's inner path is a prefix of other's. This is
// the partial order NAE's ancestor-chain refresh and cleanup walk.
func (h HashPath) IsPrefixOf(other HashPath) bool {
	if h.SourceHash != other.SourceHash || len(h.InnerPath) > len(other.InnerPath) {
		return false
	}
	for i, p := range h.InnerPath {
		if other.InnerPath[i] != p {
			return false
		}
	}
	return true
}

// Ancestors yields h itself, then its parent, grandparent, ... down to
// the root, in that order — the exact chain NAE's Engine.Get refreshes
// on a hit and Engine.Cleanup removes.
func (h HashPath) Ancestors() []HashPath {
	out := make([]HashPath, 0, h.Depth()+1)
	cur := h
	for {
		out = append(out, cur)
		parent, ok := cur.Parent()
		if !ok {
			return out
		}
		cur = parent
	}
}

func (h HashPath) String() string {
	if len(h.InnerPath) == 0 {
		return h.SourceHash
	}
	return h.SourceHash + "::" + strings.Join(h.InnerPath, "/")
}

// Key returns a stable, collision-resistant map/singleflight key. It is
// purely a fast in-memory identifier — never persisted, never used as
// a content hash (see cos.ChecksumBlake2b for that).
func (h HashPath) Key() string {
	digest := xxhash.Checksum64(cos.UnsafeB(h.String()))
	return h.String() + "#" + itoa(digest)
}

func itoa(v uint64) string {
	const hex = "0123456789abcdef"
	if v == 0 {
		return "0"
	}
	buf := make([]byte, 16)
	i := 16
	for v > 0 {
		i--
		buf[i] = hex[v&0xf]
		v >>= 4
	}
	return string(buf[i:])
}
