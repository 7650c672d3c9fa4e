package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_CORSMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		corsOrigin     string
		method         string
		expectedCORS   string
		expectedStatus int
		shouldCallNext bool
	}{
		{name: "GET request with CORS headers", corsOrigin: "*", method: "GET", expectedCORS: "*", expectedStatus: http.StatusOK, shouldCallNext: true},
		{name: "POST request with specific origin", corsOrigin: "https://example.com", method: "POST", expectedCORS: "https://example.com", expectedStatus: http.StatusOK, shouldCallNext: true},
		{name: "OPTIONS request (preflight)", corsOrigin: "*", method: "OPTIONS", expectedCORS: "*", expectedStatus: http.StatusOK, shouldCallNext: false},
		{name: "empty CORS origin", corsOrigin: "", method: "GET", expectedCORS: "", expectedStatus: http.StatusOK, shouldCallNext: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := &Server{corsOrigin: tt.corsOrigin}

			nextCalled := false
			next := func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				w.WriteHeader(http.StatusOK)
			}

			req := httptest.NewRequest(tt.method, "/test", nil)
			w := httptest.NewRecorder()
			server.corsMiddleware(next)(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedCORS, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
			assert.Equal(t, tt.shouldCallNext, nextCalled)
		})
	}
}

func TestResponseWriter_CapturesStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusTeapot)

	assert.Equal(t, http.StatusTeapot, rw.statusCode)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestServer_RateLimitMiddleware(t *testing.T) {
	t.Run("disabled passes through", func(t *testing.T) {
		server := &Server{}
		called := 0
		handler := server.rateLimitMiddleware(func(w http.ResponseWriter, r *http.Request) { called++ })

		for range 5 {
			handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/detect", nil))
		}
		assert.Equal(t, 5, called)
	})

	t.Run("minute limit", func(t *testing.T) {
		server := newTestServer(t, func(c *Config) {
			c.RateLimit = RateLimitConfig{Enabled: true, RequestsPerMinute: 1}
		})
		mux := newTestMux(server)

		w := httptest.NewRecorder()
		mux.ServeHTTP(w, postJSON(t, DetectRequest{Text: "hola"}))
		require.Equal(t, http.StatusOK, w.Code)

		w = httptest.NewRecorder()
		mux.ServeHTTP(w, postJSON(t, DetectRequest{Text: "hola"}))
		require.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "minute", w.Header().Get("X-RateLimit-Type"))
		assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), "rate limit exceeded")
	})

	t.Run("text quota", func(t *testing.T) {
		server := newTestServer(t, func(c *Config) {
			c.RateLimit = RateLimitConfig{Enabled: true, MaxTextPerDay: 40}
		})
		mux := newTestMux(server)

		req := httptest.NewRequest(http.MethodPost, "/detect", strings.NewReader(`{"text":"`+strings.Repeat("a", 64)+`"}`))
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		require.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "text", w.Header().Get("X-Quota-Type"))
		assert.Equal(t, "40", w.Header().Get("X-Quota-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-Quota-Resets"))
	})
}

func TestServer_HandleRateLimitErrorUnknown(t *testing.T) {
	server := &Server{}
	w := httptest.NewRecorder()

	server.handleRateLimitError(w, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Rate limiting check failed")
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{name: "remote addr", remoteAddr: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "remote addr without port", remoteAddr: "192.0.2.1", want: "192.0.2.1"},
		{name: "forwarded for single", headers: map[string]string{"X-Forwarded-For": "203.0.113.5"}, remoteAddr: "10.0.0.1:80", want: "203.0.113.5"},
		{name: "forwarded for chain", headers: map[string]string{"X-Forwarded-For": " 203.0.113.5 , 10.0.0.2"}, remoteAddr: "10.0.0.1:80", want: "203.0.113.5"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": "198.51.100.7"}, remoteAddr: "10.0.0.1:80", want: "198.51.100.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}
