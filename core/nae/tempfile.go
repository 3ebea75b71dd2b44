/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package nae

import (
	"io"
	"os"

	"github.com/hoolamike-go/hoolamike/memsys"
)

func newScopedTemp(prefix string) (*os.File, error) {
	return os.CreateTemp("", prefix+"*.tmp")
}

func removeFile(path string) {
	_ = os.Remove(path)
}

// copyBuffered streams src into dst using a pooled page-sized buffer,
// the same slab class the Stream Bridge and archive.Writer use, so a
// single extraction never allocates more than one page at a time.
func copyBuffered(dst io.Writer, src io.Reader) (int64, error) {
	buf, slab := memsys.PageMM().Alloc()
	defer slab.Free(buf)
	return io.CopyBuffer(dst, src, buf)
}
