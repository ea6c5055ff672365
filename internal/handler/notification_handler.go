package handler

import (
	"net/http"

	"hobbytrack/project-timer/internal/notify"

	"go.uber.org/zap"
)

type NotificationHandler struct {
	center *notify.Center
	logger *zap.Logger
}

func NewNotificationHandler(center *notify.Center, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		center: center,
		logger: logger,
	}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.center.List())
}

func (h *NotificationHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Missing id parameter", http.StatusBadRequest)
		return
	}

	if !h.center.Dismiss(id) {
		http.Error(w, "Notification not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
