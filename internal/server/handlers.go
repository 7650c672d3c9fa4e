package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/MeKo-Tech/walang/internal/detect"
	"github.com/MeKo-Tech/walang/internal/hint"
	"github.com/MeKo-Tech/walang/internal/resources"
)

// requestError is a client error with the HTTP status to report it with.
type requestError struct {
	status  int
	message string
}

func (e *requestError) Error() string { return e.message }

func badRequest(format string, args ...any) *requestError {
	return &requestError{status: http.StatusBadRequest, message: fmt.Sprintf(format, args...)}
}

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: s.version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	if s.engine != nil {
		response.Languages = len(s.engine.Languages())
	}

	s.writeJSON(w, http.StatusOK, response)
}

// languagesHandler lists the detectable languages. The optional "script"
// query parameter filters by ISO 15924 script code.
func (s *Server) languagesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.engine == nil {
		s.writeErrorResponse(w, "Detection engine not initialized", http.StatusServiceUnavailable)
		return
	}

	script := r.URL.Query().Get("script")
	infos := s.languageInfos()
	out := make([]LanguageInfo, 0, len(infos))
	for _, info := range infos {
		if script != "" && !strings.EqualFold(info.Script, script) {
			continue
		}
		out = append(out, info)
	}

	s.writeJSON(w, http.StatusOK, LanguagesResponse{Languages: out, Count: len(out)})
}

func (s *Server) languageInfos() []LanguageInfo {
	var (
		catalog resources.Catalog
		scripts *resources.ScriptIndex
	)
	if s.catalog != nil {
		catalog, _ = s.catalog.Catalog()
		scripts, _ = s.catalog.ScriptIndex()
	}

	codes := s.engine.Languages()
	infos := make([]LanguageInfo, 0, len(codes))
	for _, code := range codes {
		info := LanguageInfo{Code: code}
		if entry, ok := catalog.Lookup(code); ok {
			info.Name = entry.Name
			info.Script = entry.Script
			info.Direction = entry.Direction
			info.HasFrequency = entry.FrequencyAvail
		}
		if info.Script == "" && scripts != nil {
			info.Script, _ = scripts.Script(code)
		}
		infos = append(infos, info)
	}
	return infos
}

// detectHandler ranks the languages of the posted text.
func (s *Server) detectHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.engine == nil {
		s.writeErrorResponse(w, "Detection engine not initialized", http.StatusServiceUnavailable)
		return
	}

	// The JSON envelope may add escaping overhead on top of the text itself.
	r.Body = http.MaxBytesReader(w, r.Body, 2*s.maxTextBytes+4096)

	var req DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			s.writeErrorResponse(w, "Text too large", http.StatusRequestEntityTooLarge)
		case errors.Is(err, io.EOF):
			s.writeErrorResponse(w, "Empty request body", http.StatusBadRequest)
		default:
			s.writeErrorResponse(w, "Invalid JSON request: "+err.Error(), http.StatusBadRequest)
		}
		return
	}

	response, reqErr := s.runDetection(req, "http", nil)
	if reqErr != nil {
		s.writeErrorResponse(w, reqErr.message, reqErr.status)
		return
	}

	s.writeJSON(w, http.StatusOK, response)
}

// runDetection validates req, runs the engine and records metrics.
func (s *Server) runDetection(req DetectRequest, transport string, progress detect.ProgressSink) (*DetectResponse, *requestError) {
	opts, considered, reqErr := s.buildOptions(req)
	if reqErr != nil {
		detectionRequestsTotal.WithLabelValues(transport, "rejected").Inc()
		return nil, reqErr
	}
	opts.Progress = progress

	start := time.Now()
	results, err := s.engine.Detect(req.Text, opts)
	elapsed := time.Since(start)
	if err != nil {
		detectionRequestsTotal.WithLabelValues(transport, "error").Inc()
		if errors.Is(err, detect.ErrNegativeTopK) {
			return nil, badRequest("%v", err)
		}
		return nil, &requestError{status: http.StatusInternalServerError, message: "Detection failed: " + err.Error()}
	}

	detectionRequestsTotal.WithLabelValues(transport, "success").Inc()
	detectionDuration.WithLabelValues(transport).Observe(elapsed.Seconds())
	detectionTextLength.Observe(float64(len(req.Text)))
	detectionCandidates.Observe(float64(considered))
	if len(results) > 0 {
		detectionTopMethod.WithLabelValues(string(results[0].Method)).Inc()
	} else {
		detectionTopMethod.WithLabelValues("none").Inc()
	}

	s.log().Debug("detect request served",
		"transport", transport,
		"text_bytes", len(req.Text),
		"candidates", considered,
		"results", len(results),
		"elapsed", elapsed)

	return &DetectResponse{
		Success:              true,
		Results:              results,
		CandidatesConsidered: considered,
		ProcessingMs:         float64(elapsed.Microseconds()) / 1000,
	}, nil
}

// buildOptions merges req with the server defaults. It also returns how many
// candidates the engine will consider.
func (s *Server) buildOptions(req DetectRequest) (detect.Options, int, *requestError) {
	opts := s.defaults
	opts.Candidates = nil
	opts.Priors = nil

	if strings.TrimSpace(req.Text) == "" {
		return opts, 0, badRequest("No text provided")
	}
	if int64(len(req.Text)) > s.maxTextBytes {
		return opts, 0, &requestError{
			status:  http.StatusRequestEntityTooLarge,
			message: fmt.Sprintf("Text too large (limit %d KB)", s.maxTextBytes/1024),
		}
	}

	if req.Candidates != nil {
		candidates := make([]string, 0, len(req.Candidates))
		for _, c := range req.Candidates {
			c = strings.TrimSpace(c)
			if !resources.ValidCode(c) {
				return opts, 0, badRequest("Invalid candidate language code: %q", c)
			}
			candidates = append(candidates, c)
		}
		opts.Candidates = candidates
	}

	candidates := opts.Candidates
	if candidates == nil {
		candidates = s.engine.Candidates(req.Text)
	}

	priors := make(map[string]float64, len(req.Priors))
	if req.AutoPriors {
		for code, p := range hint.AutoPriors(req.Text, candidates, s.autoPriorScale) {
			priors[code] = p
		}
	}
	for code, p := range req.Priors {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return opts, 0, badRequest("Invalid prior for %q: %v (must be between 0 and 1)", code, p)
		}
		priors[code] = p
	}
	if len(priors) > 0 {
		opts.Priors = priors
	}

	if req.TopK != nil {
		if *req.TopK < 0 {
			return opts, 0, badRequest("Invalid top_k: %d (must not be negative)", *req.TopK)
		}
		opts.TopK = *req.TopK
	}
	if req.UseCharacterFallback != nil {
		opts.UseCharacterFallback = *req.UseCharacterFallback
	}
	if req.EarlyTermination != nil {
		opts.EnableEarlyTermination = *req.EarlyTermination
	}

	return opts, countUnique(candidates), nil
}

func countUnique(codes []string) int {
	seen := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		if c != "" {
			seen[c] = struct{}{}
		}
	}
	return len(seen)
}

// writeJSON writes v as a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log().Error("Failed to encode response", "error", err)
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	s.writeJSON(w, statusCode, ErrorResponse{Success: false, Error: message})
}

func (s *Server) log() *slog.Logger {
	if s.logger == nil {
		return slog.Default()
	}
	return s.logger
}
