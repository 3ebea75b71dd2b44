/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package nae

import (
	"io"

	"github.com/tinylib/msgp/msgp"
)

// CacheEntrySnapshot is the debug cache-dump wire shape: DumpCache
// writes a stream of these, MessagePack-encoded, one per live cache
// entry, for offline inspection of what NAE is holding. The
// `hoolamike debug dump-cache` command does not call DumpCache; run
// standalone, it exits with an error.
type CacheEntrySnapshot struct {
	Key          string
	Path         string
	SizeBytes    int64
	LastAccessed int64
}

// EncodeMsg hand-implements msgp.Encodable: a 4-field fixmap written
// directly against the msgp.Writer, rather than generated code, since
// this snapshot format has exactly one caller (DumpCache) and isn't
// worth a go:generate step.
func (c *CacheEntrySnapshot) EncodeMsg(w *msgp.Writer) error {
	if err := w.WriteMapHeader(4); err != nil {
		return err
	}
	for _, kv := range []struct {
		k string
		v func() error
	}{
		{"key", func() error { return w.WriteString(c.Key) }},
		{"path", func() error { return w.WriteString(c.Path) }},
		{"size_bytes", func() error { return w.WriteInt64(c.SizeBytes) }},
		{"last_accessed", func() error { return w.WriteInt64(c.LastAccessed) }},
	} {
		if err := w.WriteString(kv.k); err != nil {
			return err
		}
		if err := kv.v(); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns every live cache entry, ordered oldest-insertion
// first (the same order eviction would consider).
func (e *Engine) Snapshot() []CacheEntrySnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]CacheEntrySnapshot, 0, len(e.order))
	for _, k := range e.order {
		ent := e.cache[k]
		out = append(out, CacheEntrySnapshot{
			Key:          k,
			Path:         ent.h.Path(),
			SizeBytes:    ent.h.Size(),
			LastAccessed: ent.lastAccessed,
		})
	}
	return out
}

// DumpCache MessagePack-encodes a full snapshot to w: one array
// holding a fixmap per entry.
func (e *Engine) DumpCache(w io.Writer) error {
	mw := msgp.NewWriter(w)
	snap := e.Snapshot()
	if err := mw.WriteArrayHeader(uint32(len(snap))); err != nil {
		return err
	}
	for i := range snap {
		if err := snap[i].EncodeMsg(mw); err != nil {
			return err
		}
	}
	return mw.Flush()
}
