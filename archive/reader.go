/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"io"

	"github.com/hoolamike-go/hoolamike/cmn/cos"
	"github.com/hoolamike-go/hoolamike/cmn/debug"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v3"
)

// EntryCallback is invoked once per regular-file archive member in
// listing order. Returning stop=true ends the Range early (used by
// single-entry extraction to avoid decompressing the whole container).
type EntryCallback func(fullname string, reader cos.ReadCloseSizer, hdr any) (stop bool, err error)

// Reader is the C1 archive backend interface's read side: every
// supported container format, opened once, can be walked exactly once
// via Range. Random access (get_many against a zip) is expressed as a
// ReaderAt-backed Reader plus a caller-side prefix filter, never as a
// second interface.
type Reader interface {
	Range(prefix string, cb EntryCallback) (stopped bool, err error)
}

// NewReader opens a Reader for mime. zip requires an io.ReaderAt and
// the exact stream length; every other format only needs io.Reader.
func NewReader(mime string, r io.Reader, size ...int64) (Reader, error) {
	switch mime {
	case ExtTar:
		return &tarReader{tr: tar.NewReader(r)}, nil
	case ExtTgz, ExtTarTgz:
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		return &tarReader{tr: tar.NewReader(gzr), closer: gzr}, nil
	case ExtTarLz4:
		lzr := lz4.NewReader(r)
		return &tarReader{tr: tar.NewReader(lzr)}, nil
	case ExtTarZst:
		zsr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return &tarReader{tr: tar.NewReader(zsr), closer: zstdCloser{zsr}}, nil
	case ExtZip:
		ra, ok := r.(io.ReaderAt)
		debug.Assert(ok && len(size) == 1, "zip reader requires io.ReaderAt and declared size")
		zr, err := zip.NewReader(ra, size[0])
		if err != nil {
			return nil, err
		}
		return &zipReader{zr: zr}, nil
	default:
		// Probe never hands back anything outside Mimes, so this only
		// fires for a mime a caller constructed by hand.
		return nil, cos.NewErrFormatUnsupported(mime)
	}
}

type tarReader struct {
	tr     *tar.Reader
	closer io.Closer
}

func (t *tarReader) Range(prefix string, cb EntryCallback) (stopped bool, err error) {
	if t.closer != nil {
		defer t.closer.Close()
	}
	for {
		hdr, err := t.tr.Next()
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if prefix != "" && !hasPrefix(hdr.Name, prefix) {
			continue
		}
		rcs := cos.NewSizedReadCloser(io.LimitReader(t.tr, hdr.Size), io.NopCloser(nil), hdr.Size)
		stop, err := cb(hdr.Name, rcs, hdr)
		if err != nil || stop {
			return stop, err
		}
	}
}

type zipReader struct {
	zr *zip.Reader
}

func (z *zipReader) Range(prefix string, cb EntryCallback) (stopped bool, err error) {
	for _, f := range z.zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if prefix != "" && !hasPrefix(f.Name, prefix) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return false, err
		}
		stop, err := cb(f.Name, cos.NewSizedReadCloser(rc, rc, int64(f.UncompressedSize64)), &f.FileHeader)
		if err != nil || stop {
			return stop, err
		}
	}
	return false, nil
}

func hasPrefix(name, prefix string) bool {
	return len(name) >= len(prefix) && name[:len(prefix)] == prefix
}

type zstdCloser struct{ d *zstd.Decoder }

func (z zstdCloser) Close() error { z.d.Close(); return nil }
