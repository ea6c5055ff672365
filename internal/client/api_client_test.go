package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hobbytrack/project-timer/internal/backend"
	"hobbytrack/project-timer/internal/models"

	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *APIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewAPIClient(srv.URL+"/", "anon-key", 5*time.Second, zaptest.NewLogger(t))
	c.SetAccessToken("user-jwt")
	return c
}

func TestAPIClient_FetchProject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/rest/v1/projects" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("id"); got != "eq.p1" {
			t.Errorf("id filter = %q, want eq.p1", got)
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Errorf("apikey header = %q", r.Header.Get("apikey"))
		}
		if r.Header.Get("Authorization") != "Bearer user-jwt" {
			t.Errorf("Authorization header = %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`[{"id":"p1","user_id":"u1","name":"Socks","row_count":3,"stitch_count":40,"total_time_seconds":100,"created_at":"2024-03-01T10:00:00Z"}]`))
	})

	p, err := c.FetchProject(context.Background(), "p1")
	if err != nil {
		t.Fatalf("FetchProject() error = %v", err)
	}
	if p.Name != "Socks" || p.TotalTimeSeconds != 100 || p.RowCount != 3 {
		t.Errorf("project = %+v", p)
	}
}

func TestAPIClient_FetchProjectNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	_, err := c.FetchProject(context.Background(), "missing")
	if !errors.Is(err, backend.ErrNotFound) {
		t.Fatalf("FetchProject() error = %v, want ErrNotFound", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error %T is not a *NotFoundError", err)
	}
}

func TestAPIClient_UpdateProjectCounters(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s, want PATCH", r.Method)
		}
		if r.Header.Get("Prefer") != "return=representation" {
			t.Errorf("Prefer header = %q", r.Header.Get("Prefer"))
		}
		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("bad body %s: %v", body, err)
		}
		if len(payload) != 1 || payload["total_time_seconds"] != float64(145) {
			t.Errorf("payload = %v, want only total_time_seconds=145", payload)
		}
		w.Write([]byte(`[{"id":"p1","name":"Socks","total_time_seconds":145}]`))
	})

	p, err := c.UpdateProjectCounters(context.Background(), "p1", models.TotalTime(145))
	if err != nil {
		t.Fatalf("UpdateProjectCounters() error = %v", err)
	}
	if p.TotalTimeSeconds != 145 {
		t.Errorf("TotalTimeSeconds = %d, want 145", p.TotalTimeSeconds)
	}

	if _, err := c.UpdateProjectCounters(context.Background(), "p1", models.CounterUpdate{}); !errors.Is(err, backend.ErrEmptyUpdate) {
		t.Errorf("empty update error = %v, want ErrEmptyUpdate", err)
	}
}

func TestAPIClient_InsertAndListSessions(t *testing.T) {
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/work_sessions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		switch r.Method {
		case http.MethodPost:
			var s models.NewWorkSession
			if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if s.DurationSeconds != 45 || !s.StartedAt.Equal(started) {
				t.Errorf("session payload = %+v", s)
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`[{"id":"s1","project_id":"p1","user_id":"u1","started_at":"2024-03-01T10:00:00Z","duration_seconds":45}]`))
		case http.MethodGet:
			if got := r.URL.Query().Get("order"); got != "started_at.desc" {
				t.Errorf("order = %q", got)
			}
			w.Write([]byte(`[{"id":"s2","duration_seconds":10},{"id":"s1","duration_seconds":45}]`))
		}
	})

	s, err := c.InsertSession(context.Background(), models.NewWorkSession{
		ProjectID: "p1", UserID: "u1", StartedAt: started, DurationSeconds: 45,
	})
	if err != nil {
		t.Fatalf("InsertSession() error = %v", err)
	}
	if s.ID != "s1" {
		t.Errorf("ID = %q, want s1", s.ID)
	}

	sessions, err := c.ListSessions(context.Background(), "p1")
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != "s2" {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestAPIClient_InsertRejectsShortSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request sent for an invalid session")
	})

	_, err := c.InsertSession(context.Background(), models.NewWorkSession{ProjectID: "p1", DurationSeconds: 0})
	if !errors.Is(err, backend.ErrInvalidSession) {
		t.Fatalf("InsertSession() error = %v, want ErrInvalidSession", err)
	}
}

func TestAPIClient_StatusErrors(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusUnauthorized, func(err error) bool { var e *AuthError; return errors.As(err, &e) }},
		{http.StatusForbidden, func(err error) bool { var e *AuthError; return errors.As(err, &e) }},
		{http.StatusTooManyRequests, func(err error) bool { var e *RateLimitError; return errors.As(err, &e) }},
		{http.StatusBadRequest, func(err error) bool { var e *BadRequestError; return errors.As(err, &e) }},
		{http.StatusNotFound, func(err error) bool { return errors.Is(err, backend.ErrNotFound) }},
		{http.StatusInternalServerError, func(err error) bool { var e *BackendError; return errors.As(err, &e) }},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"message":"nope"}`))
			})

			_, err := c.ListSessions(context.Background(), "p1")
			if err == nil || !tt.check(err) {
				t.Errorf("ListSessions() error = %v (%T), wrong type for status %d", err, err, tt.status)
			}
		})
	}
}

func TestAPIClient_CreateProject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/rest/v1/projects" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[{"id":"p9","user_id":"u1","name":"Scarf"}]`))
	})

	p, err := c.CreateProject(context.Background(), models.NewProject{UserID: "u1", Name: "Scarf"})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if p.ID != "p9" {
		t.Errorf("ID = %q, want p9", p.ID)
	}
}
