/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"hash"
	"io"

	"golang.org/x/crypto/blake2b"
)

// ChecksumBlake2b is the sole algorithm identifier NAE's content
// addressing uses end to end (source_hash and the download index both
// key off it).
const ChecksumBlake2b = "blake2b256"

// CksumHashSize pairs a running hash with the declared size of the
// stream it is fed, so that an archive.Writer can tee entry bytes
// through it and still emit a correct Content-Length-equivalent header.
type CksumHashSize struct {
	H    hash.Hash
	Size int64
}

func NewCksumHashSize() *CksumHashSize {
	h, _ := blake2b.New256(nil)
	return &CksumHashSize{H: h}
}

func (c *CksumHashSize) Sum() []byte { return c.H.Sum(nil) }

// writerMulti tees writes to the wrapped writer while also folding them
// into a running checksum and byte count.
type writerMulti struct {
	w io.Writer
	c *CksumHashSize
}

func NewWriterMulti(w io.Writer, c *CksumHashSize) io.Writer {
	return &writerMulti{w: w, c: c}
}

func (wm *writerMulti) Write(p []byte) (int, error) {
	n, err := wm.w.Write(p)
	if n > 0 {
		wm.c.H.Write(p[:n])
		wm.c.Size += int64(n)
	}
	return n, err
}
