package service

import (
	"context"
	"fmt"

	"hobbytrack/project-timer/internal/backend"
	"hobbytrack/project-timer/internal/models"
)

// SessionLog is a project's work sessions, most recent first, with their sum.
type SessionLog struct {
	ProjectID    string               `json:"project_id"`
	Sessions     []models.WorkSession `json:"sessions"`
	TotalSeconds int64                `json:"total_seconds"`
}

type ProjectService struct {
	projects backend.ProjectReader
	creator  backend.ProjectCreator
	sessions backend.SessionStore
	userID   string
}

func NewProjectService(projects backend.ProjectReader, creator backend.ProjectCreator, sessions backend.SessionStore, userID string) *ProjectService {
	return &ProjectService{
		projects: projects,
		creator:  creator,
		sessions: sessions,
		userID:   userID,
	}
}

func (s *ProjectService) CreateProject(ctx context.Context, name string, tag *string) (*models.Project, error) {
	return s.creator.CreateProject(ctx, models.NewProject{
		UserID: s.userID,
		Name:   name,
		Tag:    tag,
	})
}

func (s *ProjectService) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return s.projects.FetchProject(ctx, id)
}

func (s *ProjectService) Sessions(ctx context.Context, projectID string) (*SessionLog, error) {
	return loadSessionLog(ctx, s.sessions, projectID)
}

func loadSessionLog(ctx context.Context, store backend.SessionStore, projectID string) (*SessionLog, error) {
	sessions, err := store.ListSessions(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	if sessions == nil {
		sessions = []models.WorkSession{}
	}
	return &SessionLog{
		ProjectID:    projectID,
		Sessions:     sessions,
		TotalSeconds: models.TotalDuration(sessions),
	}, nil
}
