package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"hobbytrack/project-timer/internal/config"

	"go.uber.org/zap/zaptest"
)

func testConfig(t *testing.T, mode string) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	cfg.StoragePath = filepath.Join(t.TempDir(), "timer.db")
	cfg.Backend.Mode = mode
	cfg.UserID = "u1"
	return cfg
}

func TestNew_LocalBackendRoundTrip(t *testing.T) {
	a, err := New(testConfig(t, config.BackendLocal), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	ctx := context.Background()
	p, err := a.Projects.CreateProject(ctx, "Tote bag", nil)
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	a.Fallback.WriteLastKnown(p.ID, 90)
	view, err := a.Dashboard.Open(ctx, p.ID)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if view.Timer.ElapsedSeconds != 90 {
		t.Errorf("seeded at %d, want 90 from fallback", view.Timer.ElapsedSeconds)
	}

	stored, err := a.Projects.GetProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}
	if stored.TotalTimeSeconds != 90 {
		t.Errorf("stored total = %d, want 90", stored.TotalTimeSeconds)
	}
}

func TestNew_MemoryBackendServesHTTP(t *testing.T) {
	a, err := New(testConfig(t, config.BackendMemory), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("/health status = %d", rec.Code)
	}
}

func TestNew_RemoteBackendHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig(t, config.BackendRemote)
	cfg.Backend.BaseURL = srv.URL

	a, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if err := a.CheckBackend(context.Background()); err != nil {
		t.Fatalf("CheckBackend() error = %v", err)
	}

	srv.Close()
	if err := a.CheckBackend(context.Background()); err == nil {
		t.Fatal("CheckBackend() passed with the backend down")
	}
}
