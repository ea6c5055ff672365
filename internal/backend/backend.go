// Package backend defines the persistence contracts the timer depends on.
// Implementations live in client (hosted API), repository (sqlite) and Memory.
package backend

import (
	"context"
	"errors"
	"strings"

	"hobbytrack/project-timer/internal/models"
)

var (
	// ErrNotFound is returned when a project does not exist or is not visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrEmptyUpdate is returned when a counter update sets no field.
	ErrEmptyUpdate = errors.New("counter update has no fields")
	// ErrInvalidSession is returned for sessions shorter than one second.
	ErrInvalidSession = errors.New("session duration must be at least 1 second")
)

// ProjectReader loads a single project.
type ProjectReader interface {
	FetchProject(ctx context.Context, id string) (*models.Project, error)
}

// ProjectWriter applies partial counter updates and returns the updated project.
type ProjectWriter interface {
	UpdateProjectCounters(ctx context.Context, id string, update models.CounterUpdate) (*models.Project, error)
}

// ProjectStore is a ProjectReader and a ProjectWriter.
type ProjectStore interface {
	ProjectReader
	ProjectWriter
}

// ProjectCreator creates projects.
type ProjectCreator interface {
	CreateProject(ctx context.Context, project models.NewProject) (*models.Project, error)
}

// SessionStore persists work sessions. ListSessions returns the most recent first.
type SessionStore interface {
	InsertSession(ctx context.Context, session models.NewWorkSession) (*models.WorkSession, error)
	ListSessions(ctx context.Context, projectID string) ([]models.WorkSession, error)
}

// ValidateProject checks a create payload before it reaches storage.
func ValidateProject(project models.NewProject) error {
	if strings.TrimSpace(project.Name) == "" {
		return errors.New("project name is required")
	}
	return nil
}

// ValidateSession checks an insert payload before it reaches storage.
func ValidateSession(session models.NewWorkSession) error {
	if session.ProjectID == "" {
		return errors.New("session project id is required")
	}
	if session.DurationSeconds < 1 {
		return ErrInvalidSession
	}
	return nil
}
