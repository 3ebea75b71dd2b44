// Package archive implements the C1 archive backend interface and the
// C8 write-archive primitives: listing, extracting, and building the
// handful of container formats TTW mods ship as (zip, tar, tar.gz,
// tar.lz4, tar.zst), plus an explicitly opaque passthrough for closed
// game-archive formats (BSA and the like) that Core never parses.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package archive

const (
	ExtTar    = ".tar"
	ExtTgz    = ".tgz"
	ExtTarTgz = ".tar.gz"
	ExtZip    = ".zip"
	ExtTarLz4 = ".tar.lz4"
	ExtTarZst = ".tar.zst"
)

// Mimes lists every format the probe in probe.go recognizes by file
// extension; signature sniffing uses the separate table in probe.go.
var Mimes = []string{ExtZip, ExtTarLz4, ExtTarZst, ExtTgz, ExtTarTgz, ExtTar}

// Opaque marks formats Core deliberately never decodes: mod installers
// reference entries inside them by the opaque tool chain (e.g. a
// BSA-aware unpacker external to this module), never through archive.Backend.
var Opaque = []string{".bsa", ".ba2", ".mpq"}

func IsOpaque(ext string) bool {
	for _, o := range Opaque {
		if o == ext {
			return true
		}
	}
	return false
}
