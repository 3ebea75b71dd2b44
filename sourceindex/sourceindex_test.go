/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package sourceindex_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hoolamike-go/hoolamike/sourceindex"
)

func TestPutLookupRemove(t *testing.T) {
	idx, err := sourceindex.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer idx.Close()

	if err := idx.Put("blake2b256:deadbeef", "/mods/base.7z"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	path, ok, err := idx.Lookup("blake2b256:deadbeef")
	if err != nil || !ok || path != "/mods/base.7z" {
		t.Fatalf("Lookup = (%q, %v, %v), want (/mods/base.7z, true, nil)", path, ok, err)
	}
	if idx.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", idx.Len())
	}

	if err := idx.Remove("blake2b256:deadbeef"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := idx.Lookup("blake2b256:deadbeef"); ok {
		t.Fatal("expected Lookup to miss after Remove")
	}
}

func TestLookupMissReturnsOkFalse(t *testing.T) {
	idx, err := sourceindex.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer idx.Close()

	_, ok, err := idx.Lookup("blake2b256:neverexisted")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for a never-inserted key")
	}
}

func TestHashFileIsStableAndPrefixed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	if err := os.WriteFile(path, []byte("fixed content"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	h1, size, err := sourceindex.HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if size != int64(len("fixed content")) {
		t.Fatalf("size = %d, want %d", size, len("fixed content"))
	}
	if h1[:len("blake2b256:")] != "blake2b256:" {
		t.Fatalf("hash %q missing blake2b256: prefix", h1)
	}

	h2, _, err := sourceindex.HashFile(path)
	if err != nil {
		t.Fatalf("second HashFile: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("HashFile not stable: %q != %q", h1, h2)
	}
}

func TestQuickFingerprintDistinguishesContent(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.bin")
	pathB := filepath.Join(dir, "b.bin")
	if err := os.WriteFile(pathA, []byte("content A"), 0o644); err != nil {
		t.Fatalf("WriteFile a: %v", err)
	}
	if err := os.WriteFile(pathB, []byte("content B, totally different"), 0o644); err != nil {
		t.Fatalf("WriteFile b: %v", err)
	}

	fa, err := sourceindex.QuickFingerprint(pathA)
	if err != nil {
		t.Fatalf("QuickFingerprint a: %v", err)
	}
	fb, err := sourceindex.QuickFingerprint(pathB)
	if err != nil {
		t.Fatalf("QuickFingerprint b: %v", err)
	}
	if fa == fb {
		t.Fatal("expected different fingerprints for different content")
	}
}

func TestBuildIndexesEveryFileAcrossConfiguredDirectories(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	pathA := filepath.Join(dirA, "mod-a.7z")
	pathB := filepath.Join(dirB, "nested", "mod-b.7z")
	if err := os.MkdirAll(filepath.Dir(pathB), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(pathA, []byte("archive A contents"), 0o644); err != nil {
		t.Fatalf("WriteFile a: %v", err)
	}
	if err := os.WriteFile(pathB, []byte("archive B contents"), 0o644); err != nil {
		t.Fatalf("WriteFile b: %v", err)
	}

	idx, err := sourceindex.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer idx.Close()

	if err := idx.Build(dirA, dirB); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if idx.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", idx.Len())
	}

	hashA, _, err := sourceindex.HashFile(pathA)
	if err != nil {
		t.Fatalf("HashFile a: %v", err)
	}
	path, ok, err := idx.Lookup(hashA)
	if err != nil || !ok || path != pathA {
		t.Fatalf("Lookup(hashA) = (%q, %v, %v), want (%q, true, nil)", path, ok, err, pathA)
	}
}

func TestBuildSkipsMissingDirectoryWithoutError(t *testing.T) {
	idx, err := sourceindex.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer idx.Close()

	if err := idx.Build(filepath.Join(t.TempDir(), "never-created")); err != nil {
		t.Fatalf("Build against a missing directory should not error, got: %v", err)
	}
	if idx.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", idx.Len())
	}
}
