// Package server exposes the slip pipeline over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/slipscan/internal/pipeline"
)

// Processor defines the pipeline methods the server needs.
type Processor interface {
	ExtractText(source, text string) pipeline.Document
	ProcessImage(ctx context.Context, source string, img image.Image) pipeline.Document
	HasOCR() bool
	Fields() []string
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline    Processor
	corsOrigin  string
	maxUploadMB int64
	timeout     time.Duration
	version     string
	rateLimiter *RateLimiter
	logger      *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigin  string
	MaxUploadMB int64
	TimeoutSec  int
	Version     string
	RateLimit   RateLimitConfig
	Logger      *slog.Logger
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	OCR     bool   `json:"ocr"`
	Time    string `json:"time"`
}

// FieldsResponse is returned by GET /fields.
type FieldsResponse struct {
	Fields []string `json:"fields"`
	Count  int      `json:"count"`
}

// ExtractRequest is the JSON body accepted by POST /extract/text.
type ExtractRequest struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

// ExtractResponse wraps one processed document. Fields lists the record's
// field names in output order since JSON objects are unordered.
type ExtractResponse struct {
	Success   bool               `json:"success"`
	RequestID string             `json:"request_id,omitempty"`
	Fields    []string           `json:"fields,omitempty"`
	Document  *pipeline.Document `json:"document,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// NewServer creates a server around an already built pipeline.
func NewServer(config Config, pl Processor) (*Server, error) {
	if pl == nil {
		return nil, errors.New("server: pipeline is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := time.Duration(config.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = time.Minute
	}
	maxUpload := config.MaxUploadMB
	if maxUpload <= 0 {
		maxUpload = 20
	}

	s := &Server{
		pipeline:    pl,
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: maxUpload,
		timeout:     timeout,
		version:     config.Version,
		logger:      logger,
	}
	if config.RateLimit.Enabled {
		s.rateLimiter = NewRateLimiter(config.RateLimit)
	}
	return s, nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/fields", s.corsMiddleware(s.fieldsHandler))
	mux.HandleFunc("/extract/text", s.corsMiddleware(s.rateLimitMiddleware(s.extractTextHandler)))
	mux.HandleFunc("/extract/image", s.corsMiddleware(s.rateLimitMiddleware(s.extractImageHandler)))
	mux.HandleFunc("/ws/extract", s.extractWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}
