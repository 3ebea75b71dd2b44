/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package archive

import "github.com/hoolamike-go/hoolamike/cmn/cos"

// ListPaths enumerates every regular-file member; ordering matches
// container order, which is not guaranteed stable across formats but
// is idempotent for a fixed input.
func ListPaths(r Reader) ([]string, error) {
	var paths []string
	_, err := r.Range("", func(fullname string, reader cos.ReadCloseSizer, _ any) (bool, error) {
		reader.Close()
		paths = append(paths, fullname)
		return false, nil
	})
	return paths, err
}

// GetMany is C1's bulk variant: a single container pass yielding every
// requested entry as it's encountered, rather than one pass per path.
// Every format here (tar family and zip) supports it directly via
// Range since Range already walks the whole container once; backends
// that genuinely can't do a single pass would fall back to repeated
// NewReader+Range, which is simply not exercised by any format wired
// into this package.
func GetMany(r Reader, innerPaths []string, sink func(fullname string, reader cos.ReadCloseSizer) error) error {
	want := make(map[string]bool, len(innerPaths))
	for _, p := range innerPaths {
		want[p] = true
	}
	remaining := len(want)
	_, err := r.Range("", func(fullname string, reader cos.ReadCloseSizer, _ any) (bool, error) {
		if !want[fullname] {
			reader.Close()
			return false, nil
		}
		delete(want, fullname)
		remaining--
		if err := sink(fullname, reader); err != nil {
			return true, err
		}
		return remaining == 0, nil
	})
	return err
}
