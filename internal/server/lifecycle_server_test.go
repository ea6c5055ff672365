package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hobbytrack/project-timer/internal/lifecycle"

	"go.uber.org/zap/zaptest"
)

func TestLifecycleServer_PublishesBeaconSignal(t *testing.T) {
	hub := lifecycle.NewHub()
	var got []lifecycle.Event
	hub.Subscribe("p1", func(e lifecycle.Event) { got = append(got, e) })

	srv := NewLifecycleServer(hub, zaptest.NewLogger(t))

	// sendBeacon posts strings as text/plain
	req := httptest.NewRequest(http.MethodPost, "/api/v1/lifecycle", strings.NewReader(`{"project_id":"p1","event":"unload","timestamp":1709287200000}`))
	req.Header.Set("Content-Type", "text/plain;charset=UTF-8")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if len(got) != 1 || got[0].Kind != lifecycle.KindUnload {
		t.Fatalf("published %+v, want one unload event", got)
	}
	if got[0].At.UnixMilli() != 1709287200000 {
		t.Errorf("At = %v, want the page timestamp", got[0].At)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestLifecycleServer_Rejects(t *testing.T) {
	srv := NewLifecycleServer(lifecycle.NewHub(), zaptest.NewLogger(t))

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"preflight", http.MethodOptions, "", http.StatusOK},
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"bad json", http.MethodPost, `{`, http.StatusBadRequest},
		{"missing project", http.MethodPost, `{"event":"hidden"}`, http.StatusBadRequest},
		{"unknown event", http.MethodPost, `{"project_id":"p1","event":"blur"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/lifecycle", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
