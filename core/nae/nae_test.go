/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package nae_test

import (
	"archive/tar"
	"context"
	"os"
	"path/filepath"

	"github.com/hoolamike-go/hoolamike/core/handle"
	"github.com/hoolamike-go/hoolamike/core/hashpath"
	"github.com/hoolamike-go/hoolamike/core/nae"
	"github.com/hoolamike-go/hoolamike/core/permits"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// fakeSource resolves a root source hash straight to a fixture path on
// disk, the one piece of a HashPath chain NAE never produces itself.
type fakeSource struct {
	paths map[string]string
	calls int
}

func (s *fakeSource) Resolve(sourceHash string) (handle.Handle, error) {
	s.calls++
	path, ok := s.paths[sourceHash]
	if !ok {
		return handle.Handle{}, os.ErrNotExist
	}
	fi, err := os.Stat(path)
	if err != nil {
		return handle.Handle{}, err
	}
	return handle.OnDisk(path, fi.Size()), nil
}

func writeTarFixture(dir, name string, members map[string]string) (string, error) {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	tw := tar.NewWriter(f)
	for name, content := range members {
		if err := tw.WriteHeader(&tar.Header{Name: name, Size: int64(len(content)), Mode: 0o644}); err != nil {
			return "", err
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			return "", err
		}
	}
	if err := tw.Close(); err != nil {
		return "", err
	}
	return path, nil
}

var _ = Describe("Engine", func() {
	var (
		dir    string
		src    *fakeSource
		pools  *permits.Pools
		engine *nae.Engine
		root   hashpath.HashPath
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "nae-test-*")
		Expect(err).ToNot(HaveOccurred())

		fixture, err := writeTarFixture(dir, "fixture.tar", map[string]string{
			"inner.txt": "hello from inside the archive",
		})
		Expect(err).ToNot(HaveOccurred())

		src = &fakeSource{paths: map[string]string{"srchash": fixture}}
		pools = permits.New(4)
		engine = nae.New(64, pools, src)
		root = hashpath.Root("srchash")
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("resolves the root HashPath straight through Source", func() {
		h, err := engine.Get(context.Background(), root)
		Expect(err).ToNot(HaveOccurred())
		defer h.Close()
		Expect(h.IsCached()).To(BeFalse())
	})

	It("extracts a nested member and serves it back out as a cached handle", func() {
		child := root.Child("inner.txt")
		h, err := engine.Get(context.Background(), child)
		Expect(err).ToNot(HaveOccurred())
		defer h.Close()
		Expect(h.IsCached()).To(BeTrue())

		f, err := h.Open()
		Expect(err).ToNot(HaveOccurred())
		defer f.Close()
		data := make([]byte, h.Size())
		_, err = f.Read(data)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(data)).To(Equal("hello from inside the archive"))
	})

	It("serves a repeated lookup from cache without re-invoking Source", func() {
		child := root.Child("inner.txt")
		h1, err := engine.Get(context.Background(), child)
		Expect(err).ToNot(HaveOccurred())
		h1.Close()

		callsAfterFirst := src.calls

		h2, err := engine.Get(context.Background(), child)
		Expect(err).ToNot(HaveOccurred())
		defer h2.Close()

		Expect(src.calls).To(Equal(callsAfterFirst))
	})

	It("keeps only the two most recently touched entries once maxEntries=2 is exceeded", func() {
		// Mirrors the entry-count eviction example directly: a
		// sequential Get of four distinct top-level archives against a
		// 2-entry cache must leave exactly the last two resident.
		hashes := []string{"h1", "h2", "h3", "h4"}
		for _, h := range hashes {
			fixture, err := writeTarFixture(dir, h+".tar", map[string]string{h + ".txt": "content of " + h})
			Expect(err).ToNot(HaveOccurred())
			src.paths[h] = fixture
		}

		tiny := nae.New(2, pools, src)
		for _, h := range hashes {
			hndl, err := tiny.Get(context.Background(), hashpath.Root(h))
			Expect(err).ToNot(HaveOccurred())
			hndl.Close()
		}

		snap := tiny.Snapshot()
		Expect(snap).To(HaveLen(2))
		keys := make([]string, len(snap))
		for i, s := range snap {
			keys[i] = s.Key
		}
		Expect(keys).To(ContainElement(hashpath.Root("h3").Key()))
		Expect(keys).To(ContainElement(hashpath.Root("h4").Key()))
	})

	It("counts a nested member as its own entry toward maxEntries, independent of byte size", func() {
		fixture2, err := writeTarFixture(dir, "fixture2.tar", map[string]string{
			"a.txt": "aaaaaaaaaa",
			"b.txt": "bbbbbbbbbb",
		})
		Expect(err).ToNot(HaveOccurred())
		src.paths["srchash2"] = fixture2
		root2 := hashpath.Root("srchash2")

		// Capacity 2 fits exactly the root plus one extracted member;
		// extracting a second member must evict the first, regardless
		// of how few bytes either one occupies.
		tiny := nae.New(2, pools, src)
		ha, err := tiny.Get(context.Background(), root2.Child("a.txt"))
		Expect(err).ToNot(HaveOccurred())
		ha.Close()

		hb, err := tiny.Get(context.Background(), root2.Child("b.txt"))
		Expect(err).ToNot(HaveOccurred())
		defer hb.Close()

		snap := tiny.Snapshot()
		Expect(snap).To(HaveLen(2))
		paths := make([]string, len(snap))
		for i, s := range snap {
			paths[i] = s.Path
		}
		Expect(paths).To(ContainElement(hb.Path()))
		Expect(paths).ToNot(ContainElement(ha.Path()))
	})
})
