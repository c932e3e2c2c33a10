package server

import (
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/slipscan/internal/extract"
	"github.com/MeKo-Tech/slipscan/internal/ocr"
	"github.com/MeKo-Tech/slipscan/internal/pipeline"
	"github.com/MeKo-Tech/slipscan/internal/testutil"
)

func decodeExtract(t *testing.T, w *httptest.ResponseRecorder) ExtractResponse {
	t.Helper()
	var resp ExtractResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestNewServer_RequiresPipeline(t *testing.T) {
	_, err := NewServer(Config{}, nil)
	assert.Error(t, err)
}

func TestServer_HealthHandler(t *testing.T) {
	server := newTestServer(t, nil)

	tests := []struct {
		name           string
		method         string
		expectedStatus int
	}{
		{"GET request success", http.MethodGet, http.StatusOK},
		{"POST request not allowed", http.MethodPost, http.StatusMethodNotAllowed},
		{"PUT request not allowed", http.MethodPut, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/health", nil)
			w := httptest.NewRecorder()

			server.healthHandler(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var response HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, "healthy", response.Status)
			assert.Equal(t, "test", response.Version)
			assert.False(t, response.OCR)
			assert.NotEmpty(t, response.Time)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}

func TestServer_FieldsHandler(t *testing.T) {
	server := newTestServer(t, nil)
	w := httptest.NewRecorder()

	server.fieldsHandler(w, httptest.NewRequest(http.MethodGet, "/fields", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var response FieldsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, extract.DefaultTable().Names(), response.Fields)
	assert.Equal(t, 6, response.Count)
}

func TestServer_ExtractTextHandler(t *testing.T) {
	server := newTestServer(t, nil)

	t.Run("json body", func(t *testing.T) {
		body, err := json.Marshal(ExtractRequest{Text: testutil.SlipStandard, Source: "../../slip.txt"})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/extract/text", strings.NewReader(string(body)))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		w := httptest.NewRecorder()

		server.extractTextHandler(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeExtract(t, w)
		assert.True(t, resp.Success)
		require.NotNil(t, resp.Document)
		assert.Equal(t, "slip.txt", resp.Document.SourceFile)
		assert.Equal(t, "1234567890123", resp.Document.Record.Fields[extract.FieldAccountNumber])
		assert.Equal(t, "24/08/2025", resp.Document.Record.Fields[extract.FieldDate])
		assert.Equal(t, extract.DefaultTable().Names(), resp.Fields)
	})

	t.Run("plain body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/extract/text", strings.NewReader(testutil.SlipNoisy))
		req.Header.Set("Content-Type", "text/plain")
		w := httptest.NewRecorder()

		server.extractTextHandler(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeExtract(t, w)
		assert.Equal(t, "request", resp.Document.SourceFile)
		assert.Equal(t, "2500", resp.Document.Record.Fields[extract.FieldAmountNumbers])
	})

	t.Run("empty body yields no_text with every field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/extract/text", strings.NewReader(""))
		w := httptest.NewRecorder()

		server.extractTextHandler(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeExtract(t, w)
		assert.Equal(t, pipeline.StatusNoText, resp.Document.Status)
		assert.Len(t, resp.Document.Record.Fields, 6)
	})

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/extract/text", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		server.extractTextHandler(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, decodeExtract(t, w).Success)
	})

	t.Run("too large", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/extract/text", strings.NewReader(strings.Repeat("a", 2*1024*1024)))
		w := httptest.NewRecorder()

		server.extractTextHandler(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.extractTextHandler(w, httptest.NewRequest(http.MethodGet, "/extract/text", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestServer_ExtractImageHandler(t *testing.T) {
	t.Run("no OCR backend", func(t *testing.T) {
		server := newTestServer(t, nil)
		w := httptest.NewRecorder()

		server.extractImageHandler(w, createMultipartRequest(t, "/extract/image", "image", "slip.png", slipPNG(t)))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, decodeExtract(t, w).Error, "OCR backend")
	})

	t.Run("success", func(t *testing.T) {
		server := newTestServer(t, testutil.StaticEngine(testutil.SlipStandard, 91, 89))
		w := httptest.NewRecorder()

		server.extractImageHandler(w, createMultipartRequest(t, "/extract/image", "image", "slip.png", slipPNG(t)))

		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeExtract(t, w)
		assert.True(t, resp.Success)
		assert.Equal(t, "slip.png", resp.Document.SourceFile)
		assert.Equal(t, "15750.50", resp.Document.Record.Fields[extract.FieldAmountNumbers])
		require.NotNil(t, resp.Document.OCR)
		assert.InDelta(t, 90.0, resp.Document.OCR.Confidence, 0.001)
		assert.Equal(t, "standard", resp.Document.OCR.Strategy)
	})

	t.Run("missing file field", func(t *testing.T) {
		server := newTestServer(t, testutil.StaticEngine("x"))
		w := httptest.NewRecorder()

		server.extractImageHandler(w, createMultipartRequest(t, "/extract/image", "file", "slip.png", slipPNG(t)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "No image file provided", decodeExtract(t, w).Error)
	})

	t.Run("not an image", func(t *testing.T) {
		server := newTestServer(t, testutil.StaticEngine("x"))
		w := httptest.NewRecorder()

		server.extractImageHandler(w, createMultipartRequest(t, "/extract/image", "image", "slip.png", []byte("garbage")))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("image below minimum size", func(t *testing.T) {
		server := newTestServer(t, testutil.StaticEngine(testutil.SlipStandard))
		w := httptest.NewRecorder()
		data := encodePNG(t, image.NewGray(image.Rect(0, 0, 8, 8)))

		server.extractImageHandler(w, createMultipartRequest(t, "/extract/image", "image", "tiny.png", data))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		resp := decodeExtract(t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, pipeline.StatusError, resp.Document.Status)
	})

	t.Run("engine failures become no_text", func(t *testing.T) {
		failing := ocr.EngineFunc(func(context.Context, image.Image, ocr.Config) (ocr.Recognition, error) {
			return ocr.Recognition{}, assert.AnError
		})
		server := newTestServer(t, failing)
		w := httptest.NewRecorder()

		server.extractImageHandler(w, createMultipartRequest(t, "/extract/image", "image", "slip.png", slipPNG(t)))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, pipeline.StatusNoText, decodeExtract(t, w).Document.Status)
	})
}

func TestServer_Routes(t *testing.T) {
	mux := newTestMux(newTestServer(t, nil))

	for _, path := range []string{"/health", "/fields", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}

	t.Run("metrics after extraction", func(t *testing.T) {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/extract/text", strings.NewReader(testutil.SlipStandard)))
		require.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Contains(t, w.Body.String(), "slipscan_extractions_total")
		assert.Contains(t, w.Body.String(), `slipscan_fields_found_total{field="account_number"}`)
	})
}

func TestSourceName(t *testing.T) {
	assert.Equal(t, "slip.png", sourceName("/tmp/x/slip.png", "upload"))
	assert.Equal(t, "upload", sourceName("", "upload"))
	assert.Equal(t, "upload", sourceName("/", "upload"))
}
