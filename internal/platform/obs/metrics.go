package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "schoolbus_operation_duration_seconds",
		Help:    "Duration of timed operations (adapters and services)",
		Buckets: prometheus.DefBuckets,
	}, []string{"op", "result"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schoolbus_http_requests_total",
		Help: "HTTP requests by path and status code",
	}, []string{"path", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "schoolbus_http_request_duration_seconds",
		Help:    "HTTP request latency by path",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"path"})

	SnapshotRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schoolbus_snapshot_refresh_total",
		Help: "Schedule snapshot refresh attempts by kind and result",
	}, []string{"kind", "result"})

	SnapshotRows = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "schoolbus_snapshot_rows",
		Help: "Decoded rows in the cached schedule snapshot",
	}, []string{"kind"})

	MalformedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schoolbus_malformed_rows_total",
		Help: "Rows or points skipped because they failed validation",
	}, []string{"source"})
)
