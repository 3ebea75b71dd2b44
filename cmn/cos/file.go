/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"os"
	"path/filepath"
	"strings"
)

// CreateFile creates fqn and any missing parent directories.
func CreateFile(fqn string) (*os.File, error) {
	if dir := filepath.Dir(fqn); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(fqn)
}

// Ext returns the lowercase, dot-prefixed extension of fqn, with the
// special case of recognizing compound ".tar.gz"/".tar.lz4"/".tar.zst"
// suffixes as a single extension (needed by the archive backend probe).
func Ext(fqn string) string {
	base := strings.ToLower(filepath.Base(fqn))
	for _, compound := range []string{".tar.gz", ".tar.lz4", ".tar.zst"} {
		if strings.HasSuffix(base, compound) {
			return compound
		}
	}
	return strings.ToLower(filepath.Ext(fqn))
}

func FileExists(fqn string) bool {
	_, err := os.Stat(fqn)
	return err == nil
}
