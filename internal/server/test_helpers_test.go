package server

import (
	"bytes"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/slipscan/internal/ocr"
	"github.com/MeKo-Tech/slipscan/internal/pipeline"
	"github.com/MeKo-Tech/slipscan/internal/testutil"
)

// newTestServer builds a server around a real pipeline. A nil engine gives
// a text-only server.
func newTestServer(t *testing.T, engine ocr.Engine, mutate ...func(*Config)) *Server {
	t.Helper()
	b := pipeline.NewBuilder().
		WithClock(func() time.Time { return time.Date(2025, 8, 24, 9, 0, 0, 0, time.UTC) }).
		WithStrategies([]string{"standard"}).
		WithConfigs([]ocr.Config{{Name: "block", PageSegMode: ocr.PSMSingleBlock}})
	if engine != nil {
		b = b.WithEngine(engine)
	}
	pl, err := b.Build()
	require.NoError(t, err)

	cfg := Config{CORSOrigin: "*", MaxUploadMB: 1, TimeoutSec: 5, Version: "test"}
	for _, m := range mutate {
		m(&cfg)
	}
	s, err := NewServer(cfg, pl)
	require.NoError(t, err)
	return s
}

func newTestMux(s *Server) *http.ServeMux {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}

// createMultipartRequest builds a POST with data in the given form field.
func createMultipartRequest(t *testing.T, url, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func slipPNG(t *testing.T) []byte {
	t.Helper()
	return encodePNG(t, testutil.CreateTestImage(200, 80, true))
}
