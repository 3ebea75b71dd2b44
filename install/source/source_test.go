/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package source_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hoolamike-go/hoolamike/cmn/cos"
	"github.com/hoolamike-go/hoolamike/install/source"
	"github.com/hoolamike-go/hoolamike/sourceindex"
)

func TestResolvePathPseudoHashBypassesIndex(t *testing.T) {
	dir := t.TempDir()
	fixture := filepath.Join(dir, "direct.bsa")
	if err := os.WriteFile(fixture, []byte("archive bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	idx, err := sourceindex.New()
	if err != nil {
		t.Fatalf("sourceindex.New: %v", err)
	}
	defer idx.Close()

	s := source.New(idx)
	h, err := s.Resolve("path:" + fixture)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if h.Path() != fixture {
		t.Fatalf("Path() = %q, want %q", h.Path(), fixture)
	}
	if h.Size() != int64(len("archive bytes")) {
		t.Fatalf("Size() = %d", h.Size())
	}
}

func TestResolveContentHashLooksUpIndex(t *testing.T) {
	dir := t.TempDir()
	fixture := filepath.Join(dir, "download.7z")
	if err := os.WriteFile(fixture, []byte("downloaded bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	idx, err := sourceindex.New()
	if err != nil {
		t.Fatalf("sourceindex.New: %v", err)
	}
	defer idx.Close()
	if err := idx.Put("blake2b256:abc123", fixture); err != nil {
		t.Fatalf("Put: %v", err)
	}

	s := source.New(idx)
	h, err := s.Resolve("blake2b256:abc123")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if h.Path() != fixture {
		t.Fatalf("Path() = %q, want %q", h.Path(), fixture)
	}
}

func TestResolveUnknownHashReturnsNotFound(t *testing.T) {
	idx, err := sourceindex.New()
	if err != nil {
		t.Fatalf("sourceindex.New: %v", err)
	}
	defer idx.Close()

	s := source.New(idx)
	_, err = s.Resolve("blake2b256:neverindexed")
	if err == nil || !cos.IsErrNotFound(err) {
		t.Fatalf("Resolve = %v, want a cos.ErrNotFound", err)
	}
}
