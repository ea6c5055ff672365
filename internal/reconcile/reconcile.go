// Package reconcile folds local fallback entries into a project's authoritative total
// when the project is loaded.
package reconcile

import (
	"context"
	"fmt"

	"hobbytrack/project-timer/internal/backend"
	"hobbytrack/project-timer/internal/fallback"
	"hobbytrack/project-timer/internal/metrics"
	"hobbytrack/project-timer/internal/models"

	"go.uber.org/zap"
)

// Result is the outcome of reconciling one project.
type Result struct {
	Project *models.Project
	// Authoritative is the total read from the backend before reconciling.
	Authoritative int64
	// Candidate is the highest value seen across the backend and the fallback entries.
	Candidate int64
	// Raised is true when the backend total was updated to Candidate.
	Raised bool
	// Err is set when raising the total failed. The fallback entries are left intact.
	Err error
}

// SeedSeconds is the value the stopwatch should start from.
func (r Result) SeedSeconds() int64 {
	return r.Project.TotalTimeSeconds
}

// Candidate returns the maximum of the authoritative total and any present fallback
// entry. Absent entries contribute nothing.
func Candidate(authoritative int64, record fallback.Record) int64 {
	candidate := authoritative
	for _, e := range []*fallback.Entry{record.LastKnown, record.PendingUnload} {
		if e != nil && e.TotalTimeSeconds > candidate {
			candidate = e.TotalTimeSeconds
		}
	}
	return candidate
}

// Policy runs load-time reconciliation.
type Policy struct {
	projects backend.ProjectStore
	fallback *fallback.Store
	logger   *zap.Logger
}

// NewPolicy creates a Policy.
func NewPolicy(projects backend.ProjectStore, fb *fallback.Store, logger *zap.Logger) *Policy {
	return &Policy{
		projects: projects,
		fallback: fb,
		logger:   logger,
	}
}

// Run loads the project and raises its total to the reconciliation candidate when a
// fallback entry holds more time. The returned error is only set when the project
// could not be loaded; a failed raise is reported in Result.Err and logged.
func (p *Policy) Run(ctx context.Context, projectID string) (Result, error) {
	project, err := p.projects.FetchProject(ctx, projectID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load project: %w", err)
	}

	record := p.fallback.Read(projectID)
	result := Result{
		Project:       project,
		Authoritative: project.TotalTimeSeconds,
		Candidate:     Candidate(project.TotalTimeSeconds, record),
	}

	if result.Candidate <= result.Authoritative {
		if !record.Empty() {
			// Entries at or below the backend total are already reflected there.
			p.fallback.Clear(projectID)
		}
		metrics.Reconciliations.WithLabelValues(metrics.OutcomeUnchanged).Inc()
		return result, nil
	}

	updated, err := p.projects.UpdateProjectCounters(ctx, projectID, models.TotalTime(result.Candidate))
	if err != nil {
		metrics.Reconciliations.WithLabelValues(metrics.OutcomeFailed).Inc()
		metrics.PersistenceFailures.WithLabelValues(metrics.OpReconcile).Inc()
		p.logger.Error("Failed to reconcile total time",
			zap.String("project_id", projectID),
			zap.Int64("authoritative", result.Authoritative),
			zap.Int64("candidate", result.Candidate),
			zap.Error(err),
		)
		result.Err = fmt.Errorf("failed to raise total time: %w", err)
		return result, nil
	}

	p.fallback.Clear(projectID)
	result.Project = updated
	result.Raised = true
	metrics.Reconciliations.WithLabelValues(metrics.OutcomeRaised).Inc()

	p.logger.Info("Recovered time from local fallback",
		zap.String("project_id", projectID),
		zap.Int64("authoritative", result.Authoritative),
		zap.Int64("candidate", result.Candidate),
	)
	return result, nil
}
