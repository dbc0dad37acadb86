package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gallery_store_operations_total",
			Help: "Gallery document operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gallery_store_operation_duration_seconds",
			Help:    "Duration of gallery document operations including the remote round trips",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
		[]string{"operation"},
	)

	DocumentSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gallery_document_size_characters",
			Help: "Serialized size of the last gallery document written",
		},
	)

	CompressedImageBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "compressed_image_bytes",
			Help:    "Size of uploaded images after the upload pipeline",
			Buckets: prometheus.ExponentialBuckets(8*1024, 2, 8), // 8KiB to 1MiB
		},
	)

	AnalysisRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "site_analysis_requests_total",
			Help: "Site analysis requests by outcome",
		},
		[]string{"outcome"},
	)
)

func RecordStoreOperation(operation, outcome string, duration time.Duration) {
	StoreOperations.WithLabelValues(operation, outcome).Inc()
	StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func RecordDocumentSize(characters int) {
	DocumentSize.Set(float64(characters))
}

func RecordCompressedImage(size int) {
	CompressedImageBytes.Observe(float64(size))
}

func RecordAnalysis(outcome string) {
	AnalysisRequests.WithLabelValues(outcome).Inc()
}
