package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RefreshCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calendar_refresh_cycles_total",
		Help: "Refresh cycles by outcome",
	}, []string{"outcome"})

	SourceFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "calendar_source_fetches_total",
		Help: "Upstream fetches by source and result",
	}, []string{"source", "result"})

	CachedEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "calendar_cached_events",
		Help: "Number of events in the current snapshot",
	})

	LastRefreshTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "calendar_last_refresh_timestamp_seconds",
		Help: "Unix time of the last successful refresh",
	})
)
