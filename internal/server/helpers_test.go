package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/walang/internal/detect"
	"github.com/MeKo-Tech/walang/internal/resources"
	"github.com/MeKo-Tech/walang/internal/testutil"
)

// newTestServer builds a server over the Spanish/Portuguese fixture root.
func newTestServer(t *testing.T, mutate func(*Config)) *Server {
	t.Helper()

	store := resources.NewStore(resources.StoreConfig{Root: testutil.RomanceRoot(t)})
	engine := detect.New(store, detect.DefaultConfig())

	cfg := Config{
		CORSOrigin:     "*",
		MaxTextKB:      64,
		Defaults:       detect.DefaultOptions(),
		AutoPriorScale: 0.3,
		Version:        "test",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return NewServer(engine, store, cfg)
}

// newTestMux returns a mux with all routes of s.
func newTestMux(s *Server) *http.ServeMux {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}

// postJSON builds a POST /detect request with v as body.
func postJSON(t *testing.T, v any) *http.Request {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/detect", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
