// Package locations implements C6: the immutable table mapping a
// manifest's numeric location ids to resolved Folder/ReadArchive/
// WriteArchive values, built once after C5 has expanded every raw
// location's %VAR% markers.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package locations

import (
	"fmt"
	"path/filepath"

	"github.com/hoolamike-go/hoolamike/install/manifest"
	"github.com/hoolamike-go/hoolamike/install/variables"
)

const MaxLocations = 256

type Kind int

const (
	Folder Kind = iota
	ReadArchive
	WriteArchive
)

type Location struct {
	ID     int
	Kind   Kind
	Path   string // root_path | archive_path | output_archive_path
	Format manifest.FormatOptions
}

type Registry struct {
	byID map[int]Location
}

// Build resolves every raw location's Value through the given
// resolver and normalizes Folder paths (separator canonicalization and
// ".." collapsing, via filepath.Clean — already platform-correct in Go).
func Build(raw []manifest.RawLocation, resolver *variables.Resolver) (*Registry, error) {
	if len(raw) > MaxLocations {
		return nil, fmt.Errorf("too many locations: %d > %d", len(raw), MaxLocations)
	}
	byID := make(map[int]Location, len(raw))
	for _, rl := range raw {
		if rl.ID < 0 || rl.ID > 255 {
			return nil, fmt.Errorf("location id %d out of range [0,255]", rl.ID)
		}
		resolvedValue, err := resolver.Resolve(rl.Value)
		if err != nil {
			return nil, fmt.Errorf("location %d: %w", rl.ID, err)
		}
		kind, err := toKind(rl.Kind)
		if err != nil {
			return nil, fmt.Errorf("location %d: %w", rl.ID, err)
		}
		if kind == Folder {
			resolvedValue = filepath.Clean(resolvedValue)
		}
		if _, dup := byID[rl.ID]; dup {
			return nil, fmt.Errorf("duplicate location id %d", rl.ID)
		}
		byID[rl.ID] = Location{ID: rl.ID, Kind: kind, Path: resolvedValue, Format: rl.Format}
	}
	return &Registry{byID: byID}, nil
}

func toKind(k manifest.LocationKind) (Kind, error) {
	switch k {
	case manifest.LocationFolder:
		return Folder, nil
	case manifest.LocationReadArchive:
		return ReadArchive, nil
	case manifest.LocationWriteArchive:
		return WriteArchive, nil
	default:
		return 0, fmt.Errorf("unknown location kind %q", k)
	}
}

func (r *Registry) Get(id int) (Location, bool) {
	l, ok := r.byID[id]
	return l, ok
}

func (r *Registry) MustGet(id int) Location {
	l, ok := r.byID[id]
	if !ok {
		panic(fmt.Sprintf("locations: unknown location id %d", id))
	}
	return l
}
