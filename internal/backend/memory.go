package backend

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"hobbytrack/project-timer/internal/models"

	"github.com/google/uuid"
)

// Memory is an in-process ProjectStore and SessionStore. Failures can be injected per
// operation, which makes it the backend of choice for tests and demos.
type Memory struct {
	mu       sync.Mutex
	projects map[string]models.Project
	sessions map[string][]models.WorkSession
	failures map[string]error

	updates int
}

// Operation names accepted by Fail.
const (
	OpFetchProject  = "fetch_project"
	OpUpdateProject = "update_project"
	OpInsertSession = "insert_session"
	OpListSessions  = "list_sessions"
)

var (
	_ ProjectStore   = (*Memory)(nil)
	_ SessionStore   = (*Memory)(nil)
	_ ProjectCreator = (*Memory)(nil)
)

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		projects: make(map[string]models.Project),
		sessions: make(map[string][]models.WorkSession),
		failures: make(map[string]error),
	}
}

// PutProject inserts or replaces a project.
func (m *Memory) PutProject(p models.Project) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	m.projects[p.ID] = p
}

// Fail makes every call of op return err until cleared with a nil err.
func (m *Memory) Fail(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// UpdateCount returns how many successful project updates were applied.
func (m *Memory) UpdateCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updates
}

// FetchProject implements ProjectReader.
func (m *Memory) FetchProject(ctx context.Context, id string) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failures[OpFetchProject]; err != nil {
		return nil, err
	}
	p, ok := m.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return &p, nil
}

// UpdateProjectCounters implements ProjectWriter.
func (m *Memory) UpdateProjectCounters(ctx context.Context, id string, update models.CounterUpdate) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failures[OpUpdateProject]; err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		return nil, ErrEmptyUpdate
	}
	p, ok := m.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	update.Apply(&p)
	m.projects[id] = p
	m.updates++
	return &p, nil
}

// CreateProject implements ProjectCreator.
func (m *Memory) CreateProject(ctx context.Context, project models.NewProject) (*models.Project, error) {
	if err := ValidateProject(project); err != nil {
		return nil, err
	}
	created := models.Project{
		ID:         uuid.NewString(),
		UserID:     project.UserID,
		CategoryID: project.CategoryID,
		Name:       project.Name,
		Tag:        project.Tag,
		CreatedAt:  time.Now().UTC(),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[created.ID] = created
	return &created, nil
}

// InsertSession implements SessionStore.
func (m *Memory) InsertSession(ctx context.Context, session models.NewWorkSession) (*models.WorkSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failures[OpInsertSession]; err != nil {
		return nil, err
	}
	if err := ValidateSession(session); err != nil {
		return nil, err
	}
	if _, ok := m.projects[session.ProjectID]; !ok {
		return nil, fmt.Errorf("project %s: %w", session.ProjectID, ErrNotFound)
	}
	created := models.WorkSession{
		ID:              uuid.NewString(),
		ProjectID:       session.ProjectID,
		UserID:          session.UserID,
		StartedAt:       session.StartedAt,
		DurationSeconds: session.DurationSeconds,
		CreatedAt:       time.Now().UTC(),
	}
	m.sessions[session.ProjectID] = append(m.sessions[session.ProjectID], created)
	return &created, nil
}

// ListSessions implements SessionStore.
func (m *Memory) ListSessions(ctx context.Context, projectID string) ([]models.WorkSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failures[OpListSessions]; err != nil {
		return nil, err
	}
	stored := m.sessions[projectID]
	out := make([]models.WorkSession, len(stored))
	copy(out, stored)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}
