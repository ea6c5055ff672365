package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"hobbytrack/project-timer/internal/backend"
	"hobbytrack/project-timer/internal/models"

	"github.com/google/uuid"
)

// SessionRepository stores the work session log in the local sqlite file.
type SessionRepository struct {
	db *sql.DB
}

var _ backend.SessionStore = (*SessionRepository)(nil)

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) InsertSession(ctx context.Context, session models.NewWorkSession) (*models.WorkSession, error) {
	if err := backend.ValidateSession(session); err != nil {
		return nil, err
	}

	created := models.WorkSession{
		ID:              uuid.NewString(),
		ProjectID:       session.ProjectID,
		UserID:          session.UserID,
		StartedAt:       session.StartedAt.UTC(),
		DurationSeconds: session.DurationSeconds,
		CreatedAt:       time.Now().UTC(),
	}

	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM projects WHERE id = ?`, session.ProjectID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check project: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("project %s: %w", session.ProjectID, backend.ErrNotFound)
	}

	query := `
		INSERT INTO work_sessions (id, project_id, user_id, started_at, duration_seconds, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		created.ID,
		created.ProjectID,
		created.UserID,
		created.StartedAt,
		created.DurationSeconds,
		created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create work session: %w", err)
	}

	return &created, nil
}

func (r *SessionRepository) ListSessions(ctx context.Context, projectID string) ([]models.WorkSession, error) {
	query := `
		SELECT id, project_id, user_id, started_at, duration_seconds, created_at
		FROM work_sessions
		WHERE project_id = ?
		ORDER BY started_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query work sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.WorkSession{}
	for rows.Next() {
		var s models.WorkSession
		err := rows.Scan(
			&s.ID,
			&s.ProjectID,
			&s.UserID,
			&s.StartedAt,
			&s.DurationSeconds,
			&s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work session: %w", err)
		}
		sessions = append(sessions, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return sessions, nil
}
