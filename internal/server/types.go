package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/walang/internal/detect"
	"github.com/MeKo-Tech/walang/internal/resources"
)

// detector is the part of the detection engine the server needs.
type detector interface {
	Detect(text string, opts detect.Options) ([]detect.Result, error)
	Candidates(text string) []string
	Languages() []string
}

// catalogSource provides descriptive metadata for /languages.
type catalogSource interface {
	Catalog() (resources.Catalog, bool)
	ScriptIndex() (*resources.ScriptIndex, bool)
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	engine         detector
	catalog        catalogSource
	corsOrigin     string
	maxTextBytes   int64
	defaults       detect.Options
	autoPriorScale float64
	version        string
	rateLimiter    *RateLimiter
	logger         *slog.Logger
}

// RateLimitConfig holds per-client request limits. Zero disables a limit.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	RequestsPerHour   int
	MaxRequestsPerDay int
	MaxTextPerDay     int64 // bytes of submitted text
}

// Config holds server configuration.
type Config struct {
	Host           string
	Port           int
	CORSOrigin     string
	MaxTextKB      int
	TimeoutSec     int
	Defaults       detect.Options
	AutoPriorScale float64
	Version        string
	RateLimit      RateLimitConfig
	Logger         *slog.Logger
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version,omitempty"`
	Languages int    `json:"languages"`
	Time      string `json:"time"`
}

// LanguageInfo describes one detectable language.
type LanguageInfo struct {
	Code         string `json:"code"`
	Name         string `json:"name,omitempty"`
	Script       string `json:"script,omitempty"`
	Direction    string `json:"direction,omitempty"`
	HasFrequency bool   `json:"frequency_available"`
}

// LanguagesResponse is returned by /languages.
type LanguagesResponse struct {
	Languages []LanguageInfo `json:"languages"`
	Count     int            `json:"count"`
}

// DetectRequest is the body of POST /detect and of /ws/detect messages.
// Pointer fields fall back to the server defaults when absent.
type DetectRequest struct {
	Text                 string             `json:"text"`
	Candidates           []string           `json:"candidates,omitempty"`
	Priors               map[string]float64 `json:"priors,omitempty"`
	TopK                 *int               `json:"top_k,omitempty"`
	UseCharacterFallback *bool              `json:"use_character_fallback,omitempty"`
	EarlyTermination     *bool              `json:"early_termination,omitempty"`
	AutoPriors           bool               `json:"auto_priors,omitempty"`
	RequestID            string             `json:"request_id,omitempty"`
}

// DetectResponse is the reply to a detection request.
type DetectResponse struct {
	Success              bool            `json:"success"`
	Results              []detect.Result `json:"results"`
	CandidatesConsidered int             `json:"candidates_considered"`
	ProcessingMs         float64         `json:"processing_ms"`
	Error                string          `json:"error,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewServer creates a detection server over engine.
func NewServer(engine detector, catalog catalogSource, config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxKB := config.MaxTextKB
	if maxKB <= 0 {
		maxKB = 256
	}

	s := &Server{
		engine:         engine,
		catalog:        catalog,
		corsOrigin:     config.CORSOrigin,
		maxTextBytes:   int64(maxKB) * 1024,
		defaults:       config.Defaults,
		autoPriorScale: config.AutoPriorScale,
		version:        config.Version,
		logger:         logger,
	}

	if rl := config.RateLimit; rl.Enabled {
		s.rateLimiter = NewRateLimiter(rl.RequestsPerMinute, rl.RequestsPerHour, rl.MaxRequestsPerDay, rl.MaxTextPerDay)
	}

	return s
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/languages", s.corsMiddleware(s.languagesHandler))
	mux.HandleFunc("/detect", s.corsMiddleware(s.rateLimitMiddleware(s.detectHandler)))
	mux.HandleFunc("/ws/detect", s.detectWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}
