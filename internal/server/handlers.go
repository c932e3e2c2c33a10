package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/slipscan/internal/pipeline"
	"github.com/MeKo-Tech/slipscan/internal/utils"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: s.version,
		OCR:     s.pipeline.HasOCR(),
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// fieldsHandler lists the fields every record carries.
func (s *Server) fieldsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	fields := s.pipeline.Fields()
	s.writeJSON(w, http.StatusOK, FieldsResponse{Fields: fields, Count: len(fields)})
}

// extractTextHandler runs extraction on a transcription sent either as
// JSON ({"text": ...}) or as a plain text body.
func (s *Server) extractTextHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes())
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeErrorResponse(w, r, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		s.writeErrorResponse(w, r, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req ExtractRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.Unmarshal(body, &req); err != nil {
			s.writeErrorResponse(w, r, fmt.Sprintf("Invalid JSON body: %v", err), http.StatusBadRequest)
			return
		}
	} else {
		req.Text = string(body)
	}
	req.Source = sourceName(req.Source, "request")

	start := time.Now()
	doc := s.pipeline.ExtractText(req.Source, req.Text)
	recordExtraction("text", doc, time.Since(start))
	s.writeDocument(w, r, doc)
}

// extractImageHandler runs the full OCR pipeline on an uploaded image
// (multipart field "image").
func (s *Server) extractImageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.pipeline.HasOCR() {
		s.writeErrorResponse(w, r, "OCR backend not available", http.StatusServiceUnavailable)
		return
	}

	limit := s.maxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeErrorResponse(w, r, "File too large", http.StatusRequestEntityTooLarge)
		} else {
			s.writeErrorResponse(w, r, "Failed to parse form data", http.StatusBadRequest)
		}
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.writeErrorResponse(w, r, "No image file provided", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorResponse(w, r, "Failed to read image data", http.StatusInternalServerError)
		return
	}
	uploadSizeBytes.Observe(float64(len(data)))

	img, _, err := utils.DecodeImage(bytes.NewReader(data))
	if err != nil {
		s.writeErrorResponse(w, r, "Invalid image format", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	start := time.Now()
	doc := s.pipeline.ProcessImage(ctx, sourceName(header.Filename, "upload"), img)
	recordExtraction("image", doc, time.Since(start))

	if doc.Status == pipeline.StatusError {
		status := http.StatusUnprocessableEntity
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		s.writeJSON(w, status, ExtractResponse{
			Success:   false,
			RequestID: requestIDFrom(r.Context()),
			Fields:    doc.Record.Order,
			Document:  &doc,
			Error:     doc.Error,
		})
		return
	}
	s.writeDocument(w, r, doc)
}

func (s *Server) maxUploadBytes() int64 {
	return s.maxUploadMB * 1024 * 1024
}

// writeDocument answers with a processed document. Documents without text
// are still a success: every field is present and empty.
func (s *Server) writeDocument(w http.ResponseWriter, r *http.Request, doc pipeline.Document) {
	s.writeJSON(w, http.StatusOK, ExtractResponse{
		Success:   true,
		RequestID: requestIDFrom(r.Context()),
		Fields:    doc.Record.Order,
		Document:  &doc,
	})
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	s.writeJSON(w, statusCode, ExtractResponse{
		Success:   false,
		RequestID: requestIDFrom(r.Context()),
		Error:     message,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// the status line is already out; nothing left to tell the client
		s.logger.Error("failed to encode response", "error", err)
	}
}

// sourceName keeps client-supplied names free of path components.
func sourceName(name, fallback string) string {
	name = strings.TrimSpace(filepath.Base(name))
	if name == "" || name == "." || name == "/" {
		return fallback
	}
	return name
}
