package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MeKo-Tech/slipscan/internal/pipeline"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slipscan_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slipscan_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	extractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slipscan_extractions_total",
			Help: "Total number of processed documents",
		},
		[]string{"source", "status"}, // source: text, image, websocket_text, websocket_image
	)

	extractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slipscan_extraction_duration_seconds",
			Help:    "Document processing duration in seconds",
			Buckets: []float64{.001, .01, .1, .25, .5, 1, 2.5, 5, 10, 25, 60},
		},
		[]string{"source"},
	)

	fieldsFoundTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slipscan_fields_found_total",
			Help: "Number of documents in which each field was found",
		},
		[]string{"field"},
	)

	ocrConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "slipscan_ocr_confidence",
			Help:    "Mean confidence of the selected OCR attempt",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slipscan_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"type"}, // minute, hour, requests, data
	)

	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "slipscan_upload_size_bytes",
			Help:    "Size of uploaded images in bytes",
			Buckets: []float64{10 * 1024, 100 * 1024, 1024 * 1024, 5 * 1024 * 1024, 20 * 1024 * 1024, 50 * 1024 * 1024},
		},
	)

	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slipscan_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slipscan_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // sent, received
	)
)

// recordExtraction updates the document metrics for one processed input.
func recordExtraction(source string, doc pipeline.Document, d time.Duration) {
	extractionsTotal.WithLabelValues(source, string(doc.Status)).Inc()
	extractionDuration.WithLabelValues(source).Observe(d.Seconds())
	for _, f := range doc.Record.Found() {
		fieldsFoundTotal.WithLabelValues(f).Inc()
	}
	if doc.OCR != nil && !doc.OCR.Empty() {
		ocrConfidence.Observe(doc.OCR.Confidence)
	}
}
