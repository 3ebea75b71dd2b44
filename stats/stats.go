// Package stats exposes prometheus counters and gauges for the Core
// and the TTW installer. Names follow the prometheus convention of
// hoolamike_<subsystem>_<name> with an underscore suffix: "_total" on
// counters, the unit ("_seconds", "_ns") on histograms.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	NAECacheSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "hoolamike",
		Subsystem: "nae",
		Name:      "cache_entries",
		Help:      "current number of entries resident in the nested-archive engine's extracted-member cache",
	})
	NAEEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hoolamike",
		Subsystem: "nae",
		Name:      "evictions_total",
		Help:      "number of cached extracted members evicted",
	})
	NAEHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hoolamike",
		Subsystem: "nae",
		Name:      "cache_hits_total",
		Help:      "number of HashPath lookups served from cache",
	})
	NAEMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hoolamike",
		Subsystem: "nae",
		Name:      "cache_misses_total",
		Help:      "number of HashPath lookups that required extraction",
	})

	PermitWaitNanos = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "hoolamike",
		Subsystem: "nae",
		Name:      "permit_wait_ns",
		Help:      "time spent blocked acquiring an open-file or extraction permit",
		Buckets:   prometheus.ExponentialBuckets(1e3, 4, 12),
	})

	AssetsDispatched = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hoolamike",
		Subsystem: "install",
		Name:      "assets_dispatched_total",
		Help:      "assets routed through the dispatcher, by AssetKind",
	}, []string{"kind"})
	AssetsFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hoolamike",
		Subsystem: "install",
		Name:      "assets_failed_total",
		Help:      "assets that failed dispatch, by AssetKind",
	}, []string{"kind"})

	ArchiveBuildSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hoolamike",
		Subsystem: "install",
		Name:      "archive_build_seconds",
		Help:      "wall time to finalize one output write-archive",
		Buckets:   prometheus.DefBuckets,
	}, []string{"format"})

	DuplicateEntries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "hoolamike",
		Subsystem: "install",
		Name:      "duplicate_output_entries_total",
		Help:      "DuplicateOutputEntry errors detected by the write-archive aggregator",
	})
)

func init() {
	prometheus.MustRegister(
		NAECacheSize, NAEEvictions, NAEHits, NAEMisses, PermitWaitNanos,
		AssetsDispatched, AssetsFailed, ArchiveBuildSeconds, DuplicateEntries,
	)
}
