package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RideSubmissionsTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "saferides", Name: "ride_submissions_total", Help: "Total ride requests submitted"})
	RideCancelsTotal     = promauto.NewCounter(prometheus.CounterOpts{Namespace: "saferides", Name: "ride_cancels_total", Help: "Total ride requests cancelled"})
	SchedulesTotal       = promauto.NewCounter(prometheus.CounterOpts{Namespace: "saferides", Name: "scheduled_rides_total", Help: "Total scheduled rides created"})
	WSClients            = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "saferides", Name: "ws_clients", Help: "Connected WebSocket clients"})

	GeocodeLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "saferides", Name: "geocode_lookups_total", Help: "Autocomplete lookups by result source"},
		[]string{"source"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "saferides", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "saferides",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
