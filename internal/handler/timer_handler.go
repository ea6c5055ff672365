package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"hobbytrack/project-timer/internal/backend"
	"hobbytrack/project-timer/internal/service"

	"go.uber.org/zap"
)

// CountersRequest is the body of PUT /api/v1/counters.
type CountersRequest struct {
	RowCount    *int64 `json:"row_count"`
	StitchCount *int64 `json:"stitch_count"`
}

// PauseResponse is the body returned by POST /api/v1/timer/pause.
type PauseResponse struct {
	service.View
	SessionID       string `json:"session_id,omitempty"`
	DurationSeconds int64  `json:"duration_seconds"`
	Discarded       bool   `json:"discarded"`
}

type TimerHandler struct {
	dashboard *service.Dashboard
	logger    *zap.Logger
}

func NewTimerHandler(dashboard *service.Dashboard, logger *zap.Logger) *TimerHandler {
	return &TimerHandler{
		dashboard: dashboard,
		logger:    logger,
	}
}

func (h *TimerHandler) Open(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r, http.MethodPost)
	if !ok {
		return
	}

	view, err := h.dashboard.Open(r.Context(), projectID)
	if err != nil {
		h.writeError(w, "Failed to open project", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *TimerHandler) Start(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r, http.MethodPost)
	if !ok {
		return
	}

	view, err := h.dashboard.Start(projectID)
	if err != nil {
		h.writeError(w, "Failed to start timer", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *TimerHandler) Pause(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r, http.MethodPost)
	if !ok {
		return
	}

	view, result, err := h.dashboard.Pause(r.Context(), projectID)
	if errors.Is(err, service.ErrTimerNotOpen) {
		h.writeError(w, "Failed to pause timer", err)
		return
	}

	// A failed save still paused the timer; the user sees the error notification.
	resp := PauseResponse{
		View:            view,
		DurationSeconds: result.Reading.Duration(),
		Discarded:       result.Discarded,
	}
	if result.Session != nil {
		resp.SessionID = result.Session.ID
	}
	status := http.StatusOK
	if err != nil {
		status = http.StatusAccepted
	}
	writeJSON(w, status, resp)
}

func (h *TimerHandler) Close(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r, http.MethodPost)
	if !ok {
		return
	}

	if _, err := h.dashboard.Close(projectID); err != nil {
		h.writeError(w, "Failed to close project", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TimerHandler) Save(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r, http.MethodPost)
	if !ok {
		return
	}

	view, err := h.dashboard.SaveNow(r.Context(), projectID)
	if err != nil {
		h.writeError(w, "Failed to save project", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *TimerHandler) State(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r, http.MethodGet)
	if !ok {
		return
	}

	view, err := h.dashboard.State(projectID)
	if err != nil {
		h.writeError(w, "Failed to get timer", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *TimerHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r, http.MethodGet)
	if !ok {
		return
	}

	log, err := h.dashboard.Sessions(r.Context(), projectID)
	if err != nil {
		h.writeError(w, "Failed to get sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}

func (h *TimerHandler) Counters(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.projectID(w, r, http.MethodPut)
	if !ok {
		return
	}

	var req CountersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", zap.Error(err))
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	view, err := h.dashboard.SetCounters(r.Context(), projectID, req.RowCount, req.StitchCount)
	if err != nil {
		h.writeError(w, "Failed to update counters", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *TimerHandler) projectID(w http.ResponseWriter, r *http.Request, method string) (string, bool) {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return "", false
	}

	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		http.Error(w, "Missing project_id parameter", http.StatusBadRequest)
		return "", false
	}
	return projectID, true
}

func (h *TimerHandler) writeError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, backend.ErrNotFound):
		http.Error(w, "Project not found", http.StatusNotFound)
	case errors.Is(err, service.ErrTimerNotOpen):
		http.Error(w, "Project is not open", http.StatusConflict)
	case errors.Is(err, backend.ErrEmptyUpdate):
		http.Error(w, "Nothing to update", http.StatusBadRequest)
	default:
		h.logger.Error(msg, zap.Error(err))
		http.Error(w, msg, http.StatusBadGateway)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
