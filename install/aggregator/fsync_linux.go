//go:build linux

/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package aggregator

import (
	"os"

	"golang.org/x/sys/unix"
)

// fsyncBeforeRename best-effort durability-syncs an output archive's
// backing fd before the atomic rename that publishes it, mirroring the
// teacher's own *_linux.go build-tag split for platform-specific syscalls.
func fsyncBeforeRename(f *os.File) error {
	return unix.Fsync(int(f.Fd()))
}
