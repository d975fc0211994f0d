// Package metrics holds prometheus collectors describing the jukebox activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crt_jukebox_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crt_jukebox_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	SSEObservers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "crt_jukebox_sse_observers",
			Help: "Number of SSE observers by channel",
		},
		[]string{"channel"},
	)
)

// Media source metrics
var (
	PicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crt_jukebox_picks_total",
			Help: "Total number of file pick requests by picker variant and result",
		},
		[]string{"variant", "result"},
	)

	BlobsAllocated = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crt_jukebox_blobs_allocated",
			Help: "Number of revocable blob URLs currently allocated",
		},
	)
)

// Playlist and pool metrics
var (
	LoadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crt_jukebox_loads_total",
			Help: "Total number of playlist loads",
		},
	)

	PlaylistItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crt_jukebox_playlist_items",
			Help: "Number of items in the current playlist",
		},
	)

	PoolElements = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "crt_jukebox_pool_elements",
			Help: "Number of playback elements held by the pool",
		},
	)

	MountsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crt_jukebox_mounts_total",
			Help: "Total number of elements mounted into the viewport",
		},
	)

	PlaybackStartFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crt_jukebox_playback_start_failures_total",
			Help: "Total number of swallowed playback start failures",
		},
	)
)

// Pick results
const (
	PickSelected  = "selected"
	PickCancelled = "cancelled"
	PickFailed    = "failed"
)
