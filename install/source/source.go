// Package source implements core/nae's Source interface: resolving a
// HashPath root's source_hash to the on-disk bytes it names. Two kinds
// of root are recognized: a genuine content hash (looked up in the
// in-memory sourceindex, built from a downloads directory at startup)
// and the "path:" pseudo-hash the dispatcher uses for ReadArchive
// locations addressed directly by resolved filesystem path, which
// never need a content-hash lookup since the manifest already pins
// them to an exact location on this host.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package source

import (
	"fmt"
	"os"
	"strings"

	"github.com/hoolamike-go/hoolamike/cmn/cos"
	"github.com/hoolamike-go/hoolamike/core/handle"
	"github.com/hoolamike-go/hoolamike/sourceindex"
)

const pathPrefix = "path:"

type Source struct {
	index *sourceindex.Index
}

func New(index *sourceindex.Index) *Source {
	return &Source{index: index}
}

func (s *Source) Resolve(sourceHash string) (handle.Handle, error) {
	if p, ok := strings.CutPrefix(sourceHash, pathPrefix); ok {
		fi, err := os.Stat(p)
		if err != nil {
			return handle.Handle{}, err
		}
		return handle.OnDisk(p, fi.Size()), nil
	}

	path, ok, err := s.index.Lookup(sourceHash)
	if err != nil {
		return handle.Handle{}, err
	}
	if !ok {
		return handle.Handle{}, cos.NewErrNotFound("download for source hash %q", sourceHash)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return handle.Handle{}, fmt.Errorf("stat indexed source %s: %w", path, err)
	}
	return handle.OnDisk(path, fi.Size()), nil
}
