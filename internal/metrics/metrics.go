package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

var (
	// ModerationEventsTotal counts reconciler outcomes: applied, unresolved,
	// failed, empty, ignored, duplicate, not_event.
	ModerationEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_moderation_events_total",
			Help: "Moderation events by event name and outcome.",
		},
		[]string{"event", "outcome"},
	)

	// ImageUpsertsTotal counts upserts by kind: added, replaced, unmatched.
	ImageUpsertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_image_upserts_total",
			Help: "Image upserts by kind.",
		},
		[]string{"kind"},
	)

	VersionConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gallery_version_conflicts_total",
		Help: "Versioned saves rejected because the gallery changed underneath.",
	})
)

var (
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gallery_cache_hits_total",
		Help: "Gallery cache hits.",
	})
	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gallery_cache_misses_total",
		Help: "Gallery cache misses.",
	})
)
