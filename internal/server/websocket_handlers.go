package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/walang/internal/detect"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// WebSocket message types and statuses.
const (
	wsTypeProgress = "progress"
	wsTypeResult   = "result"
	wsTypeError    = "error"

	wsStatusProcessing = "processing"
	wsStatusCompleted  = "completed"
	wsStatusError      = "error"
)

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// WebSocketDetectResponse is one message sent to a WebSocket client. A
// request produces zero or more progress messages followed by exactly one
// result or error message.
type WebSocketDetectResponse struct {
	Type      string                `json:"type"`   // "progress", "result", "error"
	Status    string                `json:"status"` // "processing", "completed", "error"
	Progress  *detect.ProgressEvent `json:"progress,omitempty"`
	Result    *DetectResponse       `json:"result,omitempty"`
	Error     string                `json:"error,omitempty"`
	ErrorType string                `json:"error_type,omitempty"`
	RequestID string                `json:"request_id,omitempty"`
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin accepts requests without an Origin header and origins matching
// the configured CORS origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || s.corsOrigin == "" || s.corsOrigin == "*" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, allowed := range strings.Split(s.corsOrigin, ",") {
		allowed = strings.TrimSpace(allowed)
		if strings.EqualFold(allowed, origin) || strings.EqualFold(allowed, u.Scheme+"://"+u.Host) {
			return true
		}
	}
	return false
}

// detectWebSocketHandler handles WebSocket connections that stream detection
// progress.
func (s *Server) detectWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil {
		s.writeErrorResponse(w, "Detection engine not initialized", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		s.log().Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	s.log().Info("WebSocket connection established", "remote_addr", r.RemoteAddr)

	conn.SetReadLimit(2*s.maxTextBytes + 4096)
	s.handleWebSocketConnection(conn, getClientIP(r))
}

// handleWebSocketConnection processes messages from a WebSocket connection.
func (s *Server) handleWebSocketConnection(conn *websocket.Conn, clientID string) {
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log().Error("WebSocket error", "error", err)
			}
			return
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
			s.handleWebSocketMessage(conn, clientID, data)
		}
	}
}

// handleWebSocketMessage runs one detection request and streams its progress.
func (s *Server) handleWebSocketMessage(conn WebSocketConnWriter, clientID string, data []byte) {
	var req DetectRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, "", "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	if err := s.checkRateLimit(clientID, int64(len(req.Text))); err != nil {
		s.sendWebSocketError(conn, requestID, "rate_limited", err.Error())
		return
	}

	progress := detect.ProgressFunc(func(event detect.ProgressEvent) {
		s.sendWebSocketResponse(conn, WebSocketDetectResponse{
			Type:      wsTypeProgress,
			Status:    wsStatusProcessing,
			Progress:  &event,
			RequestID: requestID,
		})
	})

	response, reqErr := s.runDetection(req, "websocket", progress)
	if reqErr != nil {
		s.sendWebSocketError(conn, requestID, "invalid_request", reqErr.message)
		return
	}

	s.sendWebSocketResponse(conn, WebSocketDetectResponse{
		Type:      wsTypeResult,
		Status:    wsStatusCompleted,
		Result:    response,
		RequestID: requestID,
	})
}

// sendWebSocketResponse sends a response message over WebSocket.
func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, response WebSocketDetectResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		s.log().Error("Failed to marshal WebSocket response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.log().Error("Failed to send WebSocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendWebSocketError sends an error message over WebSocket.
func (s *Server) sendWebSocketError(conn WebSocketConnWriter, requestID, errorType, message string) {
	s.sendWebSocketResponse(conn, WebSocketDetectResponse{
		Type:      wsTypeError,
		Status:    wsStatusError,
		Error:     message,
		ErrorType: errorType,
		RequestID: requestID,
	})
}
