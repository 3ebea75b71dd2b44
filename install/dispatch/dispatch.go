// Package dispatch implements C7, the asset dispatcher: fans the
// fully-resolved asset list out over a bounded worker pool, resolving
// each asset's source and target locations, streaming bytes through
// C9, and routing WriteArchive targets into C8's queue.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/hoolamike-go/hoolamike/core/hashpath"
	"github.com/hoolamike-go/hoolamike/core/nae"
	"github.com/hoolamike-go/hoolamike/install/aggregator"
	"github.com/hoolamike-go/hoolamike/install/locations"
	"github.com/hoolamike-go/hoolamike/install/manifest"
	"github.com/hoolamike-go/hoolamike/install/patch"
	"github.com/hoolamike-go/hoolamike/install/stream"
	"github.com/hoolamike-go/hoolamike/sourceindex"
	"github.com/hoolamike-go/hoolamike/stats"
)

type ErrFatal struct {
	Asset int
	Err   error
}

func (e *ErrFatal) Error() string { return fmt.Sprintf("asset #%d: %v", e.Asset, e.Err) }
func (e *ErrFatal) Unwrap() error { return e.Err }

type Dispatcher struct {
	locs        *locations.Registry
	engine      *nae.Engine
	agg         *aggregator.Aggregator
	index       *sourceindex.Index
	patcher     patch.Patcher
	concurrency int
}

// New builds a Dispatcher. index may be nil, in which case ReadArchive
// locations fall back to the "path:" pseudo-hash (see archiveSourceHash)
// instead of registering a genuine content hash with the Download Index.
func New(locs *locations.Registry, engine *nae.Engine, agg *aggregator.Aggregator, index *sourceindex.Index, concurrency int) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Dispatcher{locs: locs, engine: engine, agg: agg, index: index, concurrency: concurrency, patcher: patch.NopPatcher()}
}

// WithPatcher installs the external differ PatchAsset dispatches
// through; returns d for chaining.
func (d *Dispatcher) WithPatcher(p patch.Patcher) *Dispatcher {
	d.patcher = p
	return d
}

// Run dispatches every asset in parallel. Assets are independent (no
// asset depends on another's side effects), so the only required
// serialization is C8's own per-archive mutex; this function itself
// holds no lock across an asset's I/O. Individual asset failures are
// collected and do not stop sibling assets; Run returns a non-nil
// error (aggregating every failure) iff at least one asset failed.
func (d *Dispatcher) Run(ctx context.Context, assets []manifest.Asset) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	var (
		failMu   sync.Mutex
		failures []error
	)
	recordFailure := func(err error) {
		failMu.Lock()
		failures = append(failures, err)
		failMu.Unlock()
	}

	for i, asset := range assets {
		i, asset := i, asset
		g.Go(func() error {
			if err := d.dispatchOne(gctx, asset); err != nil {
				recordFailure(&ErrFatal{Asset: i, Err: errors.Wrapf(err, "asset kind %s", asset.Kind)})
				stats.AssetsFailed.WithLabelValues(string(asset.Kind)).Inc()
				return nil // don't cancel gctx for sibling assets
			}
			stats.AssetsDispatched.WithLabelValues(string(asset.Kind)).Inc()
			return nil
		})
	}
	_ = g.Wait()

	if len(failures) == 0 {
		return nil
	}
	var errs error
	for _, f := range failures {
		if errs == nil {
			errs = f
		} else {
			errs = fmt.Errorf("%w; %v", errs, f)
		}
	}
	return errs
}

// dispatchOne resolves and streams one asset through to its target. All
// four AssetKinds share the same source/sink/copy pipeline; only how the
// bytes destined for the target are produced differs per kind.
func (d *Dispatcher) dispatchOne(ctx context.Context, asset manifest.Asset) error {
	switch asset.Kind {
	case manifest.InlineAsset:
		return d.writeTarget(asset.Target, bytes.NewReader(asset.InlineData))

	case manifest.RemapAsset:
		target := remapTarget(asset.Target, asset.RemapTable)
		r, closeSrc, err := d.openSource(ctx, asset.Source.Resolve(asset.Target))
		if err != nil {
			return fmt.Errorf("open source: %w", err)
		}
		defer closeSrc()
		return d.writeTarget(target, r)

	case manifest.PatchAsset:
		if asset.PatchSource == nil {
			return fmt.Errorf("patch asset missing patch_source")
		}
		base, closeBase, err := d.openSource(ctx, asset.Source.Resolve(asset.Target))
		if err != nil {
			return fmt.Errorf("open patch base: %w", err)
		}
		defer closeBase()
		diff, closeDiff, err := d.openSource(ctx, *asset.PatchSource)
		if err != nil {
			return fmt.Errorf("open patch diff: %w", err)
		}
		defer closeDiff()

		pr, pw := io.Pipe()
		go func() {
			pw.CloseWithError(d.patcher.Apply(base, diff, pw))
		}()
		return d.writeTarget(asset.Target, pr)

	case manifest.CopyAsset:
		fallthrough
	default:
		r, closeSrc, err := d.openSource(ctx, asset.Source.Resolve(asset.Target))
		if err != nil {
			return fmt.Errorf("open source: %w", err)
		}
		defer closeSrc()
		return d.writeTarget(asset.Target, r)
	}
}

// remapTarget rewrites target's inner path by applying every
// old->new substitution in table, in map-iteration order; a manifest
// with more than one overlapping substitution should not rely on a
// specific application order.
func remapTarget(target manifest.FullLocation, table map[string]string) manifest.FullLocation {
	inner := target.InnerPath
	for from, to := range table {
		inner = strings.ReplaceAll(inner, from, to)
	}
	return manifest.FullLocation{LocationID: target.LocationID, InnerPath: inner}
}

func (d *Dispatcher) openSource(ctx context.Context, full manifest.FullLocation) (r io.Reader, closeFn func(), err error) {
	loc, ok := d.locs.Get(full.LocationID)
	if !ok {
		return nil, nil, fmt.Errorf("unknown location id %d", full.LocationID)
	}
	switch loc.Kind {
	case locations.Folder:
		f, err := os.Open(filepath.Join(loc.Path, full.InnerPath))
		if err != nil {
			return nil, nil, err
		}
		return f, func() { f.Close() }, nil
	case locations.ReadArchive:
		sourceHash, err := d.archiveSourceHash(loc.Path)
		if err != nil {
			return nil, nil, err
		}
		hp := hashpath.Root(sourceHash).Child(full.InnerPath)
		h, err := d.engine.Get(ctx, hp)
		if err != nil {
			return nil, nil, err
		}
		f, err := h.Open()
		if err != nil {
			h.Close()
			return nil, nil, err
		}
		return f, func() { f.Close(); h.Close() }, nil
	case locations.WriteArchive:
		return nil, nil, fmt.Errorf("cannot read from write-only location %d", full.LocationID)
	default:
		return nil, nil, fmt.Errorf("unknown location kind for id %d", full.LocationID)
	}
}

func (d *Dispatcher) writeTarget(full manifest.FullLocation, r io.Reader) error {
	loc, ok := d.locs.Get(full.LocationID)
	if !ok {
		return fmt.Errorf("unknown location id %d", full.LocationID)
	}
	switch loc.Kind {
	case locations.Folder:
		dst := filepath.Join(loc.Path, full.InnerPath)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		w, err := os.Create(dst)
		if err != nil {
			return err
		}
		defer w.Close()
		_, err = stream.Copy(w, r)
		return err
	case locations.WriteArchive:
		tmp, err := stream.NewScopedTemp("", "asset-*.tmp")
		if err != nil {
			return err
		}
		n, err := stream.Copy(tmp, r)
		if cerr := tmp.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(tmp.Name())
			return err
		}
		return d.agg.Enqueue(loc.Path, full.InnerPath, tmp.Name(), n, loc.Format)
	case locations.ReadArchive:
		return fmt.Errorf("cannot write into read-only location %d", full.LocationID)
	default:
		return fmt.Errorf("unknown location kind for id %d", full.LocationID)
	}
}

// archiveSourceHash derives the HashPath root for a ReadArchive
// location. When a Download Index is available, the archive is hashed
// and registered with it on first use, so NAE addresses it by the same
// genuine content hash a downloaded source would carry — two
// ReadArchive locations pointing at byte-identical archives (e.g. after
// a manifest update swaps the path but not the bytes) share one NAE
// cache entry instead of two. With no index (d.index == nil, as in a
// standalone test harness), falls back to a per-run "path:" pseudo-hash
// — stable for the run, never compared across runs.
func (d *Dispatcher) archiveSourceHash(path string) (string, error) {
	if d.index == nil {
		return "path:" + path, nil
	}
	sourceHash, _, err := sourceindex.HashFile(path)
	if err != nil {
		return "", err
	}
	if err := d.index.Put(sourceHash, path); err != nil {
		return "", err
	}
	return sourceHash, nil
}
