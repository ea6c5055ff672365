package backend

import (
	"context"
	"errors"
	"testing"
	"time"

	"hobbytrack/project-timer/internal/models"
)

func TestMemory_UpdateAndFailureInjection(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.PutProject(models.Project{ID: "p1", Name: "Scarf", TotalTimeSeconds: 100})

	p, err := m.UpdateProjectCounters(ctx, "p1", models.TotalTime(140))
	if err != nil {
		t.Fatalf("UpdateProjectCounters() error = %v", err)
	}
	if p.TotalTimeSeconds != 140 || m.UpdateCount() != 1 {
		t.Fatalf("total = %d, updates = %d, want 140 and 1", p.TotalTimeSeconds, m.UpdateCount())
	}

	if _, err := m.UpdateProjectCounters(ctx, "p1", models.CounterUpdate{}); !errors.Is(err, ErrEmptyUpdate) {
		t.Errorf("empty update error = %v, want ErrEmptyUpdate", err)
	}
	if _, err := m.FetchProject(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("FetchProject(missing) error = %v, want ErrNotFound", err)
	}

	boom := errors.New("boom")
	m.Fail(OpUpdateProject, boom)
	if _, err := m.UpdateProjectCounters(ctx, "p1", models.TotalTime(150)); !errors.Is(err, boom) {
		t.Fatalf("injected failure not returned, got %v", err)
	}
	m.Fail(OpUpdateProject, nil)
	if _, err := m.UpdateProjectCounters(ctx, "p1", models.TotalTime(150)); err != nil {
		t.Fatalf("cleared failure still returned %v", err)
	}
}

func TestMemory_SessionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	p, err := m.CreateProject(ctx, models.NewProject{UserID: "u1", Name: "Socks"})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, d := range []int64{30, 45} {
		_, err := m.InsertSession(ctx, models.NewWorkSession{
			ProjectID:       p.ID,
			StartedAt:       base.Add(time.Duration(i) * time.Hour),
			DurationSeconds: d,
		})
		if err != nil {
			t.Fatalf("InsertSession() error = %v", err)
		}
	}

	sessions, err := m.ListSessions(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 2 || sessions[0].DurationSeconds != 45 {
		t.Fatalf("sessions = %+v, want newest (45s) first", sessions)
	}

	if _, err := m.InsertSession(ctx, models.NewWorkSession{ProjectID: p.ID, DurationSeconds: 0}); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("zero-length session error = %v, want ErrInvalidSession", err)
	}
	if _, err := m.CreateProject(ctx, models.NewProject{Name: "  "}); err == nil {
		t.Error("blank project name accepted")
	}
}
