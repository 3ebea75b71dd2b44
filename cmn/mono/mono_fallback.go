//go:build !mono

// Package mono provides low-level monotonic time.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

// Portable fallback for platforms/builds that don't opt into the
// go:linkname shortcut in fast_nanotime.go.
func NanoTime() int64 { return time.Now().UnixNano() }
