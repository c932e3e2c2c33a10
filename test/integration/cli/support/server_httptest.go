package support

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/MeKo-Tech/slipscan/internal/ocr"
	"github.com/MeKo-Tech/slipscan/internal/pipeline"
	"github.com/MeKo-Tech/slipscan/internal/server"
)

// HTTPTestServerWrapper runs the extraction server in-process.
type HTTPTestServerWrapper struct {
	Server *httptest.Server
	URL    string
}

// StartHTTPTestServer starts a server around a pipeline using engine. A nil
// engine gives a text-only server.
func (testCtx *TestContext) StartHTTPTestServer(engine ocr.Engine, rateLimit server.RateLimitConfig) error {
	if testCtx.HTTPTestServer != nil {
		return nil
	}

	b := pipeline.NewBuilder().
		WithStrategies([]string{"standard"}).
		WithConfigs([]ocr.Config{{Name: "block", PageSegMode: ocr.PSMSingleBlock}})
	if engine != nil {
		b = b.WithEngine(engine)
	}
	pl, err := b.Build()
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	srv, err := server.NewServer(server.Config{
		CORSOrigin:  "*",
		MaxUploadMB: 5,
		TimeoutSec:  10,
		Version:     "integration",
		RateLimit:   rateLimit,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, pl)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	mux := http.NewServeMux()
	srv.SetupRoutes(mux)
	ts := httptest.NewServer(mux)

	testCtx.HTTPTestServer = &HTTPTestServerWrapper{Server: ts, URL: ts.URL}
	return nil
}

// StopServer shuts down the in-process server if one is running.
func (testCtx *TestContext) StopServer() error {
	if testCtx.HTTPTestServer == nil {
		return nil
	}
	testCtx.HTTPTestServer.Server.Close()
	testCtx.HTTPTestServer = nil
	return nil
}
