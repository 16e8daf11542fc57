// Package metrics exposes Prometheus collectors for the mobility pipeline and HTTP API.
//
// Usage:
//
//	defer metrics.ObserveStage("aggregate", time.Now())
//	metrics.RecordHourlyPoints("sqlite", len(points))
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HourlyPointsTotal counts hourly bucket means loaded from a ping source.
	HourlyPointsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mobility_hourly_points_total",
			Help: "Total number of hourly mean points loaded from the ping source",
		},
		[]string{"source"},
	)

	// SubscribersProcessedTotal counts subscribers reduced per pipeline path.
	SubscribersProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mobility_subscribers_processed_total",
			Help: "Total number of subscribers processed",
		},
		[]string{"pipeline"},
	)

	// StageDuration tracks how long each pipeline stage takes.
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mobility_stage_duration_seconds",
			Help:    "Duration of mobility pipeline stages in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		},
		[]string{"stage"},
	)

	// HTTPRequestsTotal counts API requests by route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mobility_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
)

// RecordHourlyPoints adds n loaded hourly points for a source
func RecordHourlyPoints(source string, n int) {
	HourlyPointsTotal.WithLabelValues(source).Add(float64(n))
}

// RecordSubscribers adds n processed subscribers for a pipeline path
func RecordSubscribers(pipeline string, n int) {
	SubscribersProcessedTotal.WithLabelValues(pipeline).Add(float64(n))
}

// ObserveStage records the time elapsed since start for a stage
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// RecordHTTPRequest counts one served request
func RecordHTTPRequest(method, route, status string) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
}
