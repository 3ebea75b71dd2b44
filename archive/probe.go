/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package archive

import (
	"bufio"
	"bytes"
	"io"

	"github.com/hoolamike-go/hoolamike/cmn/cos"
)

var signatures = []struct {
	mime string
	sig  []byte
}{
	{ExtZip, []byte{0x50, 0x4b, 0x03, 0x04}},
	{ExtZip, []byte{0x50, 0x4b, 0x05, 0x06}}, // empty zip
	{ExtTarLz4, []byte{0x04, 0x22, 0x4d, 0x18}},
	{ExtTarZst, []byte{0x28, 0xb5, 0x2f, 0xfd}},
	{ExtTgz, []byte{0x1f, 0x8b}},
}

// Probe determines a container's mime by file extension first (fast,
// authoritative for well-formed mod archives) and falls back to
// sniffing the leading signature bytes when the extension is missing
// or ambiguous. An extension recognized as one of the Opaque formats
// (BSA/BA2/MPQ) never falls through to the bare-tar default — Core
// deliberately never parses those, so Probe reports them as
// cos.ErrFormatUnsupported instead of silently mis-reading them as tar.
func Probe(fqn string, r io.Reader) (mime string, peeked io.Reader, err error) {
	ext := cos.Ext(fqn)
	if ext != "" {
		for _, m := range Mimes {
			if m == ext {
				return m, r, nil
			}
		}
		if IsOpaque(ext) {
			return "", r, cos.NewErrFormatUnsupported(ext)
		}
	}
	br := bufio.NewReader(r)
	head, _ := br.Peek(8)
	for _, s := range signatures {
		if bytes.HasPrefix(head, s.sig) {
			return s.mime, br, nil
		}
	}
	// bare tar has no magic number of its own; default to it once every
	// compressed signature and every known opaque extension has been
	// ruled out
	return ExtTar, br, nil
}
