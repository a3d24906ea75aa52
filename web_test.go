package main

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, cfg *Config, path string) (*http.Response, string) {
	t.Helper()

	mux := newRouter(cfg, make(chan error, 8))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	resp := rec.Result()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(body)
}

func TestStaticRoutes(t *testing.T) {
	cfg := newTestConfig()

	tests := []struct {
		path        string
		status      int
		contentType string
		contains    string
	}{
		{"/", http.StatusOK, "text/html; charset=utf-8", "Mie Instan"},
		{"/healthz", http.StatusOK, "text/plain; charset=utf-8", "Ok"},
		{"/version", http.StatusOK, "text/plain; charset=utf-8", "tierclash v" + releaseVersion},
		{"/robots.txt", http.StatusOK, "text/plain; charset=utf-8", "User-agent: GPTBot"},
		{"/favicon.svg", http.StatusOK, "image/svg+xml", "<svg"},
		{"/favicons/site.webmanifest", http.StatusOK, "application/manifest+json", `"name": "tierclash"`},
		{"/assets/tierlist/app.js", http.StatusOK, "text/javascript; charset=utf-8", "WebSocket"},
		{"/assets/tierlist/app.css", http.StatusOK, "text/css; charset=utf-8", ".board"},
		{"/assets/tierlist/missing.js", http.StatusNotFound, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := serve(t, cfg, tt.path)

			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.contentType != "" {
				assert.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))
			}
			assert.Contains(t, body, tt.contains)
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	cfg := newTestConfig()

	resp, _ := serve(t, cfg, "/healthz")
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "default-src 'self'")
	assert.Empty(t, resp.Header.Get("Strict-Transport-Security"))

	cfg.tlsCert, cfg.tlsKey = "cert.pem", "key.pem"
	resp, _ = serve(t, cfg, "/healthz")
	assert.NotEmpty(t, resp.Header.Get("Strict-Transport-Security"))
}

func TestPrefix(t *testing.T) {
	cfg := newTestConfig()
	cfg.prefix = "/games/"

	resp, _ := serve(t, cfg, "/games/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/games", cfg.prefix)

	resp, _ = serve(t, cfg, "/healthz")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRealIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5000"
	assert.Equal(t, "10.0.0.1:5000", realIP(r))

	r.Header.Set("X-Real-IP", "192.0.2.7")
	assert.Equal(t, "192.0.2.7:5000", realIP(r))

	r.Header.Set("CF-Connecting-IP", "2001:db8::1")
	assert.Equal(t, "[2001:db8::1]:5000", realIP(r))
}

func TestHumanReadableSize(t *testing.T) {
	assert.Equal(t, "999 B", humanReadableSize(999))
	assert.Equal(t, "1.5 kB", humanReadableSize(1500))
	assert.Equal(t, "2.0 MB", humanReadableSize(2_000_000))
}

type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestWriteFailureWithNobodyDraining(t *testing.T) {
	cfg := newTestConfig()

	// Unbuffered with no reader, as after the drain goroutine has exited.
	errs := make(chan error)
	mux := newRouter(cfg, errs)

	done := make(chan struct{})
	go func() {
		defer close(done)
		mux.ServeHTTP(brokenWriter{httptest.NewRecorder()}, httptest.NewRequest(http.MethodGet, "/version", nil))
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler blocked reporting a write failure")
	}
}

func TestReportErrDelivers(t *testing.T) {
	errs := make(chan error, 1)
	want := errors.New("boom")

	reportErr(errs, want)
	reportErr(errs, errors.New("dropped"))

	require.Len(t, errs, 1)
	assert.Equal(t, want, <-errs)
}
