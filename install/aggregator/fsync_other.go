//go:build !linux

/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package aggregator

import "os"

func fsyncBeforeRename(f *os.File) error {
	return f.Sync()
}
