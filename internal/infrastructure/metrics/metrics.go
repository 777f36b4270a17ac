package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Media service metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medialib",
			Subsystem: "media_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medialib",
			Subsystem: "media_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	// Upload counters
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medialib",
			Subsystem: "media_api",
			Name:      "uploads_total",
			Help:      "Total file uploads",
		},
		[]string{"media_type", "status"},
	)

	// Upload bytes counter
	UploadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medialib",
			Subsystem: "media_api",
			Name:      "upload_bytes_total",
			Help:      "Total bytes uploaded",
		},
		[]string{"media_type"},
	)

	// Storage operations counter
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medialib",
			Subsystem: "media_api",
			Name:      "storage_operations_total",
			Help:      "Total content store operations",
		},
		[]string{"operation", "status"},
	)

	// Storage bytes written
	StorageBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medialib",
			Subsystem: "media_api",
			Name:      "storage_bytes_total",
			Help:      "Total bytes written to the content store",
		},
		[]string{"operation"},
	)

	// Transform duration histogram
	TransformDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medialib",
			Subsystem: "media_api",
			Name:      "transform_duration_seconds",
			Help:      "Image transform duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"operation"},
	)

	// Thumbnails generated counter
	ThumbnailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medialib",
			Subsystem: "media_api",
			Name:      "thumbnails_total",
			Help:      "Thumbnail generation outcomes",
		},
		[]string{"size_name", "status"},
	)

	// Active chunked upload sessions
	ChunkedSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "medialib",
			Subsystem: "media_api",
			Name:      "chunked_sessions_active",
			Help:      "Chunked upload sessions currently tracked",
		},
	)

	// Expired chunked sessions counter
	ChunkedSessionsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "medialib",
			Subsystem: "media_api",
			Name:      "chunked_sessions_expired_total",
			Help:      "Chunked upload sessions removed by expiry",
		},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordUpload records a file upload
func RecordUpload(mediaType, status string, bytes int64) {
	UploadsTotal.WithLabelValues(mediaType, status).Inc()
	if status == "success" {
		UploadBytesTotal.WithLabelValues(mediaType).Add(float64(bytes))
	}
}

// RecordStorageOperation records a content store operation
func RecordStorageOperation(operation, status string, bytes int64) {
	StorageOperationsTotal.WithLabelValues(operation, status).Inc()
	if bytes > 0 && status == "success" {
		StorageBytesTotal.WithLabelValues(operation).Add(float64(bytes))
	}
}

// RecordTransform records an image transform duration
func RecordTransform(operation string, durationSec float64) {
	TransformDuration.WithLabelValues(operation).Observe(durationSec)
}

// RecordThumbnail records one thumbnail generation outcome
func RecordThumbnail(sizeName, status string) {
	ThumbnailsTotal.WithLabelValues(sizeName, status).Inc()
}
