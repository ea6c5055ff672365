package router

import (
	"net/http"

	"hobbytrack/project-timer/internal/handler"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func New(timerHandler *handler.TimerHandler, notificationHandler *handler.NotificationHandler, lifecycleServer http.Handler, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	// Timer endpoints
	mux.HandleFunc("/api/v1/timer", timerHandler.State)
	mux.HandleFunc("/api/v1/timer/open", timerHandler.Open)
	mux.HandleFunc("/api/v1/timer/start", timerHandler.Start)
	mux.HandleFunc("/api/v1/timer/pause", timerHandler.Pause)
	mux.HandleFunc("/api/v1/timer/close", timerHandler.Close)
	mux.HandleFunc("/api/v1/timer/save", timerHandler.Save)
	mux.HandleFunc("/api/v1/sessions", timerHandler.Sessions)
	mux.HandleFunc("/api/v1/counters", timerHandler.Counters)

	// Page lifecycle signals
	mux.Handle("/api/v1/lifecycle", lifecycleServer)

	// Notification endpoints
	mux.HandleFunc("/api/v1/notifications", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			notificationHandler.List(w, r)
		case http.MethodDelete:
			notificationHandler.Dismiss(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Logging middleware
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
		)
		mux.ServeHTTP(w, r)
	})
}
