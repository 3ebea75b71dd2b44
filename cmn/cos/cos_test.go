/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package cos_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hoolamike-go/hoolamike/cmn/cos"
)

func TestErrsDedupsAndCaps(t *testing.T) {
	var e cos.Errs
	e.Add(errors.New("boom"))
	e.Add(errors.New("boom")) // duplicate, must not be counted twice
	e.Add(errors.New("bang"))
	if e.Cnt() != 2 {
		t.Fatalf("Cnt() = %d, want 2", e.Cnt())
	}

	e.Add(errors.New("third"))
	e.Add(errors.New("fourth"))
	e.Add(errors.New("fifth")) // past maxErrs, must not grow the slice further
	if e.Cnt() != 4 {
		t.Fatalf("Cnt() = %d, want 4 (capped)", e.Cnt())
	}
}

func TestErrsJoinErrAndError(t *testing.T) {
	var empty cos.Errs
	if cnt, err := empty.JoinErr(); cnt != 0 || err != nil {
		t.Fatalf("JoinErr on empty = (%d, %v), want (0, nil)", cnt, err)
	}
	if s := empty.Error(); s != "" {
		t.Fatalf("Error() on empty = %q, want empty string", s)
	}

	var e cos.Errs
	e.Add(errors.New("first"))
	e.Add(errors.New("second"))
	cnt, err := e.JoinErr()
	if cnt != 2 || err == nil {
		t.Fatalf("JoinErr = (%d, %v), want (2, non-nil)", cnt, err)
	}
	if s := e.Error(); s == "" {
		t.Fatal("Error() should describe at least the first error")
	}
}

func TestExtRecognizesCompoundSuffixes(t *testing.T) {
	cases := map[string]string{
		"archive.tar.gz":  ".tar.gz",
		"archive.TAR.GZ":  ".tar.gz",
		"archive.tar.lz4": ".tar.lz4",
		"archive.tar.zst": ".tar.zst",
		"plain.zip":       ".zip",
		"noext":           "",
	}
	for in, want := range cases {
		if got := cos.Ext(in); got != want {
			t.Errorf("Ext(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCreateFileMakesParentDirs(t *testing.T) {
	dir := t.TempDir()
	fqn := filepath.Join(dir, "nested", "deeper", "out.bin")

	f, err := cos.CreateFile(fqn)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	f.Close()

	if !cos.FileExists(fqn) {
		t.Fatal("expected the created file to exist")
	}
	if cos.FileExists(filepath.Join(dir, "never-created")) {
		t.Fatal("FileExists should be false for a path that was never created")
	}
}

func TestPlural(t *testing.T) {
	if cos.Plural(1) != "" {
		t.Errorf("Plural(1) = %q, want empty", cos.Plural(1))
	}
	for _, n := range []int{0, 2, 5} {
		if cos.Plural(n) != "s" {
			t.Errorf("Plural(%d) = %q, want \"s\"", n, cos.Plural(n))
		}
	}
}

func TestWriterMultiTeesAndChecksums(t *testing.T) {
	var out bytes.Buffer
	chs := cos.NewCksumHashSize()
	wm := cos.NewWriterMulti(&out, chs)

	payload := []byte("the quick brown fox")
	n, err := wm.Write(payload)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len(payload) {
		t.Fatalf("Write returned n=%d, want %d", n, len(payload))
	}
	if out.String() != string(payload) {
		t.Fatalf("underlying writer got %q, want %q", out.String(), payload)
	}
	if chs.Size != int64(len(payload)) {
		t.Fatalf("Size = %d, want %d", chs.Size, len(payload))
	}
	if len(chs.Sum()) != 32 { // blake2b-256 digest
		t.Fatalf("Sum() length = %d, want 32", len(chs.Sum()))
	}
}

func TestNewErrNotFound(t *testing.T) {
	err := cos.NewErrNotFound("location %d", 7)
	if !cos.IsErrNotFound(err) {
		t.Fatal("IsErrNotFound should recognize its own error type")
	}
	if cos.IsErrNotFound(errors.New("plain")) {
		t.Fatal("IsErrNotFound should not match an unrelated error")
	}
	if got := err.Error(); got != "location 7 does not exist" {
		t.Fatalf("Error() = %q", got)
	}
}
