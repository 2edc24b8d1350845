// Package metrics defines the Prometheus instruments the server exposes
// on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExpenseMutations counts persisted expense mutations by operation
	// (add, update, remove).
	ExpenseMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "duotrip_expense_mutations_total",
		Help: "Expense mutations persisted, by operation.",
	}, []string{"op"})

	// RealtimeEvents counts events published to the realtime hub by kind.
	RealtimeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "duotrip_realtime_events_total",
		Help: "Expense change events published, by kind.",
	}, []string{"kind"})

	// RealtimeDropped counts events lost to full subscriber buffers.
	RealtimeDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "duotrip_realtime_dropped_total",
		Help: "Expense change events dropped because a subscriber buffer was full.",
	})

	// GeoCacheHits and GeoCacheMisses count proximity cache lookups.
	GeoCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "duotrip_geocache_hits_total",
		Help: "Geo query cache hits.",
	})
	GeoCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "duotrip_geocache_misses_total",
		Help: "Geo query cache misses (including expired entries).",
	})

	// LedgersOpen tracks the number of trip ledgers currently open.
	LedgersOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "duotrip_ledgers_open",
		Help: "Trip expense ledgers currently open.",
	})
)
