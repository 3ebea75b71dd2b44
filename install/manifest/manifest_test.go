/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package manifest_test

import (
	"archive/tar"
	"testing"

	"github.com/hoolamike-go/hoolamike/install/manifest"
)

func TestDecodeRoundTripsKnownAndUnknownFields(t *testing.T) {
	raw := []byte(`{
		"package": {"name": "TTW", "version": "3.3.1"},
		"variables": [{"name": "FOO", "default_value": "bar"}],
		"locations": [{"id": 0, "kind": "folder", "value": "%FO3ROOT%"}],
		"assets": [{"kind": "copy", "source": {"location_id": 0, "inner_path": "a"}, "target": {"location_id": 1, "inner_path": "b"}}],
		"tags": ["x", "y"]
	}`)

	m, err := manifest.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if m.Package.Name != "TTW" || m.Package.Version != "3.3.1" {
		t.Errorf("Package = %+v", m.Package)
	}
	if len(m.Variables) != 1 || m.Variables[0].Name != "FOO" {
		t.Errorf("Variables = %+v", m.Variables)
	}
	if len(m.Locations) != 1 || m.Locations[0].Kind != manifest.LocationFolder {
		t.Errorf("Locations = %+v", m.Locations)
	}
	if len(m.Assets) != 1 || m.Assets[0].Kind != manifest.CopyAsset {
		t.Errorf("Assets = %+v", m.Assets)
	}
	if len(m.Tags) == 0 {
		t.Error("expected Tags to be preserved as raw JSON")
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	if _, err := manifest.Decode([]byte("{not json")); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}

func TestMaybeFullLocationResolveDefaultsInnerPathFromTarget(t *testing.T) {
	target := manifest.FullLocation{LocationID: 5, InnerPath: "target/path"}

	withOwn := manifest.MaybeFullLocation{LocationID: 1, InnerPath: strPtr("own/path")}
	if got := withOwn.Resolve(target); got.InnerPath != "own/path" || got.LocationID != 1 {
		t.Errorf("Resolve(explicit inner path) = %+v", got)
	}

	defaulted := manifest.MaybeFullLocation{LocationID: 2}
	if got := defaulted.Resolve(target); got.InnerPath != "target/path" || got.LocationID != 2 {
		t.Errorf("Resolve(nil inner path) = %+v, want target's inner path", got)
	}
}

func TestFormatOptionsTarHeaderFormat(t *testing.T) {
	cases := map[string]tar.Format{
		"ustar":      tar.FormatUSTAR,
		"pax":        tar.FormatPAX,
		"gnu":        tar.FormatGNU,
		"":           tar.FormatUnknown,
		"unexpected": tar.FormatUnknown,
	}
	for in, want := range cases {
		f := manifest.FormatOptions{TarFormat: in}
		if got := f.TarHeaderFormat(); got != want {
			t.Errorf("TarHeaderFormat(%q) = %v, want %v", in, got, want)
		}
	}
}

func strPtr(s string) *string { return &s }
