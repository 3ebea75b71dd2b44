// Package manifest decodes the TTW installer's modlist document: a
// package header, the variable table C5 resolves against, the location
// table C6 builds from, and the asset list C7 dispatches. Fields the
// Core has no use for (tags, checks, file_attrs, post_commands, gui)
// are kept as raw JSON rather than dropped, so a manifest round-tripped
// through this type loses nothing a downstream tool might still read.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package manifest

import (
	"archive/tar"
	"encoding/json"

	jsoniter "github.com/json-iterator/go"

	"github.com/hoolamike-go/hoolamike/cmn/cos"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type Package struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Author  string `json:"author,omitempty"`
}

type Variable struct {
	Name    string `json:"name"`
	Default string `json:"default_value,omitempty"`
}

// LocationKind discriminates Location's three variants; see C6.
type LocationKind string

const (
	LocationFolder       LocationKind = "folder"
	LocationReadArchive  LocationKind = "read_archive"
	LocationWriteArchive LocationKind = "write_archive"
)

type FormatOptions struct {
	Mime      string `json:"mime,omitempty"`
	TarFormat string `json:"tar_format,omitempty"` // "ustar" | "pax" | "gnu" | ""
	Serialize bool   `json:"serialize,omitempty"`
}

func (f FormatOptions) TarHeaderFormat() tar.Format {
	switch f.TarFormat {
	case "ustar":
		return tar.FormatUSTAR
	case "pax":
		return tar.FormatPAX
	case "gnu":
		return tar.FormatGNU
	default:
		return tar.FormatUnknown
	}
}

// RawLocation is the wire shape; Value still contains unresolved
// %VAR% markers until C6 passes it through C5.
type RawLocation struct {
	ID     int           `json:"id"`
	Kind   LocationKind  `json:"kind"`
	Value  string        `json:"value"`
	Format FormatOptions `json:"format_options,omitempty"`
}

// AssetKind discriminates the asset operations TAI dispatches.
type AssetKind string

const (
	// CopyAsset streams bytes verbatim from source to target.
	CopyAsset AssetKind = "copy"
	// PatchAsset applies a binary patch (e.g. xdelta/bsdiff payload
	// already resolved to a source location) on top of the source
	// before writing to target.
	PatchAsset AssetKind = "patch"
	// RemapAsset copies source to target like CopyAsset, but first
	// rewrites target.InnerPath through RemapTable (TTW's path rewrites
	// for assets relocated inside the merged install tree).
	RemapAsset AssetKind = "remap"
	// InlineAsset writes literal bytes embedded in the manifest itself,
	// with no source location at all.
	InlineAsset AssetKind = "inline"
)

type FullLocation struct {
	LocationID int    `json:"location_id"`
	InnerPath  string `json:"inner_path"`
}

// MaybeFullLocation omits InnerPath when it should default to the
// target's inner path at dispatch time (see §4.7 step 1).
type MaybeFullLocation struct {
	LocationID int     `json:"location_id"`
	InnerPath  *string `json:"inner_path,omitempty"`
}

func (m MaybeFullLocation) Resolve(target FullLocation) FullLocation {
	if m.InnerPath != nil {
		return FullLocation{LocationID: m.LocationID, InnerPath: *m.InnerPath}
	}
	return FullLocation{LocationID: m.LocationID, InnerPath: target.InnerPath}
}

type Asset struct {
	Kind   AssetKind         `json:"kind"`
	Source MaybeFullLocation `json:"source"`
	Target FullLocation      `json:"target"`

	// PatchAsset-only: location of the patch payload.
	PatchSource *FullLocation `json:"patch_source,omitempty"`
	// RemapAsset-only: literal-to-literal substitutions applied to
	// Target.InnerPath (not the copied bytes) before writing, e.g.
	// rewriting an ESM's declared path inside a merged install tree.
	RemapTable map[string]string `json:"remap_table,omitempty"`
	// InlineAsset-only.
	InlineData []byte `json:"inline_data,omitempty"`
}

type Manifest struct {
	Package   Package       `json:"package"`
	Variables []Variable    `json:"variables"`
	Locations []RawLocation `json:"locations"`
	Assets    []Asset       `json:"assets"`

	// Ignored by the Core; kept verbatim for tooling that cares.
	Tags         json.RawMessage `json:"tags,omitempty"`
	Checks       json.RawMessage `json:"checks,omitempty"`
	FileAttrs    json.RawMessage `json:"file_attrs,omitempty"`
	PostCommands json.RawMessage `json:"post_commands,omitempty"`
	GUI          json.RawMessage `json:"gui,omitempty"`
}

func Decode(data []byte) (*Manifest, error) {
	var m Manifest
	if err := jsonAPI.Unmarshal(data, &m); err != nil {
		return nil, cos.NewErrConfiguration("decode manifest: %v", err)
	}
	return &m, nil
}
