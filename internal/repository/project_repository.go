package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"hobbytrack/project-timer/internal/backend"
	"hobbytrack/project-timer/internal/models"

	"github.com/google/uuid"
)

const projectColumns = `id, user_id, category_id, name, tag, row_count, stitch_count, total_time_seconds, created_at`

// ProjectRepository stores projects in the local sqlite file.
type ProjectRepository struct {
	db *sql.DB
}

var (
	_ backend.ProjectStore   = (*ProjectRepository)(nil)
	_ backend.ProjectCreator = (*ProjectRepository)(nil)
)

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

func (r *ProjectRepository) CreateProject(ctx context.Context, project models.NewProject) (*models.Project, error) {
	if err := backend.ValidateProject(project); err != nil {
		return nil, err
	}

	created := models.Project{
		ID:         uuid.NewString(),
		UserID:     project.UserID,
		CategoryID: project.CategoryID,
		Name:       strings.TrimSpace(project.Name),
		Tag:        project.Tag,
		CreatedAt:  time.Now().UTC(),
	}

	query := `
		INSERT INTO projects (id, user_id, category_id, name, tag, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		created.ID,
		created.UserID,
		nullString(created.CategoryID),
		created.Name,
		nullString(created.Tag),
		created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return &created, nil
}

func (r *ProjectRepository) FetchProject(ctx context.Context, id string) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`

	project, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", id, backend.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

func (r *ProjectRepository) UpdateProjectCounters(ctx context.Context, id string, update models.CounterUpdate) (*models.Project, error) {
	if update.IsEmpty() {
		return nil, backend.ErrEmptyUpdate
	}

	// Build dynamic update query
	setParts := []string{"updated_at = CURRENT_TIMESTAMP"}
	args := []interface{}{}

	if update.RowCount != nil {
		setParts = append(setParts, "row_count = ?")
		args = append(args, *update.RowCount)
	}
	if update.StitchCount != nil {
		setParts = append(setParts, "stitch_count = ?")
		args = append(args, *update.StitchCount)
	}
	if update.TotalTimeSeconds != nil {
		setParts = append(setParts, "total_time_seconds = ?")
		args = append(args, *update.TotalTimeSeconds)
	}

	query := fmt.Sprintf(`
		UPDATE projects
		SET %s
		WHERE id = ?
	`, strings.Join(setParts, ", "))

	args = append(args, id)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return nil, fmt.Errorf("project %s: %w", id, backend.ErrNotFound)
	}

	// Return updated project
	return r.FetchProject(ctx, id)
}

func scanProject(row *sql.Row) (*models.Project, error) {
	var p models.Project
	var categoryID, tag sql.NullString
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&categoryID,
		&p.Name,
		&tag,
		&p.RowCount,
		&p.StitchCount,
		&p.TotalTimeSeconds,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if categoryID.Valid {
		p.CategoryID = &categoryID.String
	}
	if tag.Valid {
		p.Tag = &tag.String
	}
	return &p, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
