// Package aggregator implements C8, the Write-Archive Aggregator: a
// per-output-archive queue fed by the dispatcher throughout the asset
// pass, drained and built only once every asset has completed.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package aggregator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/hoolamike-go/hoolamike/archive"
	"github.com/hoolamike-go/hoolamike/cmn/cos"
	"github.com/hoolamike-go/hoolamike/cmn/nlog"
	"github.com/hoolamike-go/hoolamike/cmn/prob"
	"github.com/hoolamike-go/hoolamike/install/manifest"
	"github.com/hoolamike-go/hoolamike/stats"
)

type ErrDuplicateOutputEntry struct {
	ArchivePath string
	InnerPath   string
}

func (e *ErrDuplicateOutputEntry) Error() string {
	return fmt.Sprintf("duplicate entry %q in output archive %s", e.InnerPath, e.ArchivePath)
}

type queuedFile struct {
	innerPath string
	tempPath  string
	size      int64
}

type queuedArchive struct {
	mu     sync.Mutex
	files  []queuedFile
	seen   map[string]struct{} // authoritative de-dup set
	filter *prob.Filter        // fast pre-check in front of seen
	format manifest.FormatOptions
}

// Aggregator owns the queue map; insertion is serialized per output
// archive by that archive's own mutex, and the map itself by a single
// top-level mutex (per §5: "a per-map mutex").
type Aggregator struct {
	mu    sync.Mutex
	byOut map[string]*queuedArchive
}

func New() *Aggregator {
	return &Aggregator{byOut: make(map[string]*queuedArchive)}
}

// Enqueue registers (innerPath, tempPath) for insertion into the
// archive at outputPath once Build runs. tempPath must already hold
// the final bytes for innerPath; the aggregator only reads it once,
// at build time.
func (a *Aggregator) Enqueue(outputPath, innerPath, tempPath string, size int64, format manifest.FormatOptions) error {
	qa := a.get(outputPath, format)

	qa.mu.Lock()
	defer qa.mu.Unlock()

	if qa.filter.MightContain(innerPath) {
		if _, dup := qa.seen[innerPath]; dup {
			stats.DuplicateEntries.Inc()
			return &ErrDuplicateOutputEntry{ArchivePath: outputPath, InnerPath: innerPath}
		}
	}
	qa.filter.Add(innerPath)
	qa.seen[innerPath] = struct{}{}
	qa.files = append(qa.files, queuedFile{innerPath: innerPath, tempPath: tempPath, size: size})
	return nil
}

func (a *Aggregator) get(outputPath string, format manifest.FormatOptions) *queuedArchive {
	a.mu.Lock()
	defer a.mu.Unlock()
	qa, ok := a.byOut[outputPath]
	if !ok {
		qa = &queuedArchive{
			seen:   make(map[string]struct{}),
			filter: prob.NewDefaultFilter(),
			format: format,
		}
		a.byOut[outputPath] = qa
	}
	return qa
}

// Build drains the queue map (atomic take) and finalizes every queued
// output archive, in sorted-by-path order for a deterministic run.
func (a *Aggregator) Build() error {
	a.mu.Lock()
	drained := a.byOut
	a.byOut = make(map[string]*queuedArchive)
	a.mu.Unlock()

	paths := make([]string, 0, len(drained))
	for p := range drained {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var errs cos.Errs
	for _, outputPath := range paths {
		if err := buildOne(outputPath, drained[outputPath]); err != nil {
			errs.Add(fmt.Errorf("build %s: %w", outputPath, err))
		}
	}
	if cnt, err := errs.JoinErr(); cnt > 0 {
		return err
	}
	return nil
}

func buildOne(outputPath string, qa *queuedArchive) (err error) {
	start := time.Now()
	mime := qa.format.Mime
	if mime == "" {
		mime = cos.Ext(outputPath)
	}
	defer func() {
		stats.ArchiveBuildSeconds.WithLabelValues(mime).Observe(time.Since(start).Seconds())
	}()

	tmpPath := outputPath + ".tmp"
	wfh, err := cos.CreateFile(tmpPath)
	if err != nil {
		return err
	}

	aw := archive.NewWriter(mime, wfh, nil, &archive.Opts{
		TarFormat: qa.format.TarHeaderFormat(),
		Serialize: qa.format.Serialize,
	})

	buildErr := writeAll(aw, qa)
	aw.Fini()
	if buildErr == nil {
		if err := fsyncBeforeRename(wfh); err != nil {
			nlog.Warningf("aggregator: fsync %s: %v", tmpPath, err)
		}
	}
	closeErr := wfh.Close()
	if buildErr != nil {
		os.Remove(tmpPath)
		return buildErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return closeErr
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func writeAll(aw archive.Writer, qa *queuedArchive) error {
	for _, qf := range qa.files {
		if err := writeOne(aw, qf); err != nil {
			return fmt.Errorf("entry %s: %w", qf.innerPath, err)
		}
	}
	return nil
}

func writeOne(aw archive.Writer, qf queuedFile) error {
	f, err := os.Open(qf.tempPath)
	if err != nil {
		return err
	}
	defer f.Close()
	oah := cos.SimpleOAH{Size: qf.size}
	if err := aw.Write(qf.innerPath, oah, f); err != nil {
		return err
	}
	if err := os.Remove(qf.tempPath); err != nil {
		nlog.Warningf("aggregator: cleanup temp %s: %v", qf.tempPath, err)
	}
	return nil
}
