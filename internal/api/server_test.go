package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lectern-ai/lectern/internal/graph"
	"github.com/lectern-ai/lectern/internal/log"
)

func TestNewServerRequiresRunner(t *testing.T) {
	_, err := NewServer(ServerConfig{Logger: log.NewNop()})
	assert.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeRunner{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(context.Context) error { return f.err }

func TestReadyEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		store    Pinger
		wantCode int
	}{
		{"ready", &fakePinger{}, http.StatusOK},
		{"store down", &fakePinger{err: errors.New("refused")}, http.StatusServiceUnavailable},
		{"no store", nil, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, err := NewServer(ServerConfig{
				Logger: log.NewNop(),
				Runner: &fakeRunner{},
				Store:  tt.store,
			})
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodGet, "/ready", nil)
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestRateLimitExceeded(t *testing.T) {
	srv, err := NewServer(ServerConfig{
		Logger:    log.NewNop(),
		Runner:    &fakeRunner{result: &graph.Result{Answer: "ok"}},
		RateBurst: 2,
	})
	require.NoError(t, err)

	var lastCode int
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", strings.NewReader(`{"message":"q"}`))
		req.RemoteAddr = "203.0.113.7:4444"
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		lastCode = rec.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, lastCode)
}

func TestRateLimitPerIP(t *testing.T) {
	rl := newRateLimiter(1.0, 1)

	assert.True(t, rl.allow("10.0.0.1"))
	assert.False(t, rl.allow("10.0.0.1"))
	// A different IP has its own bucket.
	assert.True(t, rl.allow("10.0.0.2"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.9:5555"
	req.Header.Set("X-Real-IP", "203.0.113.1")
	req.Header.Set("X-Forwarded-For", "203.0.113.2, 10.0.0.1")

	// Proxy headers are ignored unless trusted.
	assert.Equal(t, "198.51.100.9", clientIP(req, false))
	assert.Equal(t, "203.0.113.1", clientIP(req, true))

	req.Header.Del("X-Real-IP")
	assert.Equal(t, "203.0.113.2", clientIP(req, true))

	// Junk header values fall back to RemoteAddr.
	req.Header.Set("X-Forwarded-For", "not-an-ip")
	assert.Equal(t, "198.51.100.9", clientIP(req, true))
}

func TestCORSAllowedOrigin(t *testing.T) {
	srv, err := NewServer(ServerConfig{
		Logger:      log.NewNop(),
		Runner:      &fakeRunner{result: &graph.Result{Answer: "ok"}},
		CORSOrigins: []string{"https://app.example.com"},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/ask", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSDisallowedOrigin(t *testing.T) {
	srv, err := NewServer(ServerConfig{
		Logger:      log.NewNop(),
		Runner:      &fakeRunner{result: &graph.Result{Answer: "ok"}},
		CORSOrigins: []string{"https://app.example.com"},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/ask", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryMiddleware(t *testing.T) {
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	handler := recoveryMiddleware(log.NewNop())(panicking)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal_error")
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusTeapot, map[string]string{"k": "v"})

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"k":"v"}`, rec.Body.String())
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusBadRequest, "bad_input", "input was bad", log.NewNop())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"bad_input","message":"input was bad"}`, rec.Body.String())
}
