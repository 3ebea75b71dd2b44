/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package archive

import (
	"archive/tar"
	"archive/zip"
	"io"
)

// cpTar re-emits every regular-file entry of a source tar stream into
// an already-open tar.Writer, used by each Writer.Copy to splice one
// archive's contents into another without an intermediate directory.
func cpTar(src io.Reader, tw *tar.Writer, buf []byte) error {
	tr := tar.NewReader(src)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if _, err := io.CopyBuffer(tw, tr, buf); err != nil {
			return err
		}
	}
}

// cpZip re-emits every file entry of a source zip into an open
// zip.Writer.
func cpZip(src io.ReaderAt, size int64, zw *zip.Writer, buf []byte) error {
	zr, err := zip.NewReader(src, size)
	if err != nil {
		return err
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		w, err := zw.CreateHeader(&f.FileHeader)
		if err != nil {
			rc.Close()
			return err
		}
		if _, err := io.CopyBuffer(w, rc, buf); err != nil {
			rc.Close()
			return err
		}
		rc.Close()
	}
	return nil
}
