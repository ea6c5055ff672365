package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"hobbytrack/project-timer/internal/lifecycle"

	"go.uber.org/zap"
)

// maxSignalBody bounds the size of a lifecycle signal body
const maxSignalBody = 4 << 10

// SignalRequest represents a lifecycle signal sent by a project page
type SignalRequest struct {
	ProjectID string `json:"project_id"`
	Event     string `json:"event"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// LifecycleServer receives page visibility and unload signals. Pages send them with
// navigator.sendBeacon, which posts text/plain, so the body is decoded as JSON
// whatever its content type.
type LifecycleServer struct {
	hub    *lifecycle.Hub
	logger *zap.Logger
}

// NewLifecycleServer creates a new lifecycle server
func NewLifecycleServer(hub *lifecycle.Hub, logger *zap.Logger) *LifecycleServer {
	return &LifecycleServer{
		hub:    hub,
		logger: logger,
	}
}

// ServeHTTP implements http.Handler
func (s *LifecycleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Pages may be served from another origin
	s.setCORSHeaders(w)

	// Handle preflight requests
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.handleSignal(w, r)
}

// setCORSHeaders sets CORS headers for page communication
func (s *LifecycleServer) setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// handleSignal publishes one lifecycle signal to the hub
func (s *LifecycleServer) handleSignal(w http.ResponseWriter, r *http.Request) {
	var req SignalRequest

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxSignalBody))
	if err := decoder.Decode(&req); err != nil {
		s.logger.Warn("Failed to decode lifecycle signal", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Validate request
	if req.ProjectID == "" {
		http.Error(w, "Missing project_id", http.StatusBadRequest)
		return
	}
	kind, err := lifecycle.ParseKind(req.Event)
	if err != nil {
		s.logger.Warn("Rejected lifecycle signal",
			zap.String("project_id", req.ProjectID),
			zap.String("event", req.Event),
		)
		http.Error(w, "Invalid event", http.StatusBadRequest)
		return
	}

	at := time.Now()
	if req.Timestamp > 0 {
		at = time.UnixMilli(req.Timestamp)
	}

	delivered := s.hub.Publish(lifecycle.Event{
		ProjectID: req.ProjectID,
		Kind:      kind,
		At:        at,
	})

	s.logger.Debug("Lifecycle signal received",
		zap.String("project_id", req.ProjectID),
		zap.String("event", string(kind)),
		zap.Int("subscribers", delivered),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ok",
		"delivered": delivered,
	})
}
