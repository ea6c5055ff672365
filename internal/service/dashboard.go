package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"hobbytrack/project-timer/internal/backend"
	"hobbytrack/project-timer/internal/fallback"
	"hobbytrack/project-timer/internal/lifecycle"
	"hobbytrack/project-timer/internal/metrics"
	"hobbytrack/project-timer/internal/models"
	"hobbytrack/project-timer/internal/notify"
	"hobbytrack/project-timer/internal/reconcile"
	"hobbytrack/project-timer/internal/recorder"
	"hobbytrack/project-timer/internal/stopwatch"

	"go.uber.org/zap"
)

// ErrTimerNotOpen is returned for timer commands on a project with no open view.
var ErrTimerNotOpen = errors.New("timer is not open for this project")

// TimerSettings configures the timers the dashboard opens.
type TimerSettings struct {
	TickInterval    time.Duration
	AutoPauseOnBlur bool
	Recorder        recorder.Settings
}

// View is what a host renders for an open project.
type View struct {
	Project         models.Project  `json:"project"`
	Timer           stopwatch.State `json:"timer"`
	AutoPauseOnBlur bool            `json:"auto_pause_on_blur"`
}

// projectTimer is one open project view
type projectTimer struct {
	mu      sync.Mutex
	project models.Project

	stopwatch *stopwatch.Stopwatch
	recorder  *recorder.Recorder
	guard     *lifecycle.Guard
	detach    []func()
}

func (pt *projectTimer) view() View {
	pt.mu.Lock()
	project := pt.project
	pt.mu.Unlock()

	state := pt.stopwatch.State()
	project.TotalTimeSeconds = state.ElapsedSeconds
	return View{
		Project:         project,
		Timer:           state,
		AutoPauseOnBlur: pt.guard.Enabled(),
	}
}

// Dashboard orchestrates the open project views
type Dashboard struct {
	projects backend.ProjectStore
	sessions backend.SessionStore
	policy   *reconcile.Policy
	fallback *fallback.Store
	hub      *lifecycle.Hub
	notifier notify.Notifier
	userID   string
	settings TimerSettings
	now      func() time.Time
	logger   *zap.Logger

	mu     sync.Mutex
	timers map[string]*projectTimer
}

// NewDashboard creates a new dashboard
func NewDashboard(
	projects backend.ProjectStore,
	sessions backend.SessionStore,
	fb *fallback.Store,
	hub *lifecycle.Hub,
	notifier notify.Notifier,
	userID string,
	settings TimerSettings,
	logger *zap.Logger,
) *Dashboard {
	return &Dashboard{
		projects: projects,
		sessions: sessions,
		policy:   reconcile.NewPolicy(projects, fb, logger),
		fallback: fb,
		hub:      hub,
		notifier: notifier,
		userID:   userID,
		settings: settings,
		now:      time.Now,
		logger:   logger,
		timers:   make(map[string]*projectTimer),
	}
}

// Open loads a project, reconciles its total with the local fallback and seeds a
// stopwatch from the result. Opening a project that is already open returns its view.
func (d *Dashboard) Open(ctx context.Context, projectID string) (View, error) {
	d.mu.Lock()
	pt, ok := d.timers[projectID]
	d.mu.Unlock()
	if ok {
		return pt.view(), nil
	}

	// Reconciliation talks to the backend and runs without holding d.mu.
	result, err := d.policy.Run(ctx, projectID)
	if err != nil {
		return View{}, err
	}

	sw := stopwatch.New(stopwatch.Options{
		InitialSeconds: result.SeedSeconds(),
		TickInterval:   d.settings.TickInterval,
		Now:            d.now,
	})
	rec := recorder.New(projectID, d.userID, sw, d.sessions, d.projects, d.fallback, d.notifier, d.settings.Recorder, d.logger)

	pt = &projectTimer{
		project:   *result.Project,
		stopwatch: sw,
		recorder:  rec,
	}
	pt.guard = lifecycle.NewGuard(d.settings.AutoPauseOnBlur, rec.Running, func() {
		d.autoPause(projectID, rec)
	}, d.logger)

	d.mu.Lock()
	if existing, ok := d.timers[projectID]; ok {
		// A concurrent Open won; the unattached timer is dropped.
		d.mu.Unlock()
		return existing.view(), nil
	}
	// Recorder first so a hidden signal writes the fallback before the guard pauses.
	pt.detach = []func(){
		rec.Attach(d.hub),
		pt.guard.Attach(d.hub, projectID),
	}
	d.timers[projectID] = pt
	d.mu.Unlock()

	metrics.OpenTimers.Inc()
	if result.Raised {
		d.notifier.Notify(notify.KindInfo, fmt.Sprintf("Recovered %s of unsaved time",
			time.Duration(result.Candidate-result.Authoritative)*time.Second))
	}

	d.logger.Info("Project opened",
		zap.String("project_id", projectID),
		zap.Int64("total_time_seconds", result.SeedSeconds()),
		zap.Bool("recovered", result.Raised),
	)
	return pt.view(), nil
}

func (d *Dashboard) autoPause(projectID string, rec *recorder.Recorder) {
	ctx, cancel := context.WithTimeout(context.Background(), d.saveTimeout())
	defer cancel()

	if _, err := rec.Pause(ctx); err != nil {
		d.logger.Warn("Auto-pause save failed", zap.String("project_id", projectID), zap.Error(err))
	}
}

func (d *Dashboard) saveTimeout() time.Duration {
	if d.settings.Recorder.SaveTimeout > 0 {
		return d.settings.Recorder.SaveTimeout
	}
	return recorder.DefaultSettings().SaveTimeout
}

func (d *Dashboard) timer(projectID string) (*projectTimer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	pt, ok := d.timers[projectID]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", projectID, ErrTimerNotOpen)
	}
	return pt, nil
}

// Start starts the project's timer. Starting a running timer changes nothing.
func (d *Dashboard) Start(projectID string) (View, error) {
	pt, err := d.timer(projectID)
	if err != nil {
		return View{}, err
	}
	pt.recorder.Start()
	return pt.view(), nil
}

// Pause pauses the project's timer and records the run as a work session.
func (d *Dashboard) Pause(ctx context.Context, projectID string) (View, recorder.PauseResult, error) {
	pt, err := d.timer(projectID)
	if err != nil {
		return View{}, recorder.PauseResult{}, err
	}

	result, err := pt.recorder.Pause(ctx)
	if err == nil && result.Session != nil {
		pt.mu.Lock()
		pt.project.TotalTimeSeconds = result.Reading.EndSeconds
		pt.mu.Unlock()
	}
	return pt.view(), result, err
}

// State returns the current view of an open project.
func (d *Dashboard) State(projectID string) (View, error) {
	pt, err := d.timer(projectID)
	if err != nil {
		return View{}, err
	}
	return pt.view(), nil
}

// OpenProjects returns the ids of the open project views.
func (d *Dashboard) OpenProjects() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	ids := make([]string, 0, len(d.timers))
	for id := range d.timers {
		ids = append(ids, id)
	}
	return ids
}

// Close unmounts a project view. A running timer is stopped and its total is saved
// in the background; the returned channel is closed when that save finishes.
func (d *Dashboard) Close(projectID string) (<-chan struct{}, error) {
	d.mu.Lock()
	pt, ok := d.timers[projectID]
	if ok {
		delete(d.timers, projectID)
	}
	d.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("project %s: %w", projectID, ErrTimerNotOpen)
	}

	for _, detach := range pt.detach {
		detach()
	}
	metrics.OpenTimers.Dec()

	d.logger.Info("Project closed", zap.String("project_id", projectID))
	return pt.recorder.Close(), nil
}

// CloseAll closes every open view and waits up to timeout for the unmount saves.
func (d *Dashboard) CloseAll(timeout time.Duration) {
	var pending []<-chan struct{}
	for _, id := range d.OpenProjects() {
		done, err := d.Close(id)
		if err == nil {
			pending = append(pending, done)
		}
	}

	deadline := time.After(timeout)
	for _, done := range pending {
		select {
		case <-done:
		case <-deadline:
			d.logger.Warn("Unmount saves did not finish within timeout")
			return
		}
	}
}

// Sessions returns the project's session log. The project does not need to be open.
func (d *Dashboard) Sessions(ctx context.Context, projectID string) (*SessionLog, error) {
	return loadSessionLog(ctx, d.sessions, projectID)
}

// SetCounters updates the row and stitch counters. Nil leaves a counter unchanged
// and negative values are clamped to zero. The open view is updated before the write
// and keeps the new values if the write fails.
func (d *Dashboard) SetCounters(ctx context.Context, projectID string, rows, stitches *int64) (View, error) {
	pt, err := d.timer(projectID)
	if err != nil {
		return View{}, err
	}

	update := models.CounterUpdate{
		RowCount:    clamp(rows),
		StitchCount: clamp(stitches),
	}
	if update.IsEmpty() {
		return View{}, backend.ErrEmptyUpdate
	}

	pt.mu.Lock()
	update.Apply(&pt.project)
	pt.mu.Unlock()

	if _, err := d.projects.UpdateProjectCounters(ctx, projectID, update); err != nil {
		metrics.PersistenceFailures.WithLabelValues(metrics.OpCounters).Inc()
		d.logger.Error("Failed to update counters", zap.String("project_id", projectID), zap.Error(err))
		d.notifier.Notify(notify.KindError, "Failed to update counters")
		return pt.view(), fmt.Errorf("failed to update counters: %w", err)
	}
	return pt.view(), nil
}

// SaveNow writes the project's counters and current total time. The write goes
// through the recorder so it is ordered with pause and safety saves.
func (d *Dashboard) SaveNow(ctx context.Context, projectID string) (View, error) {
	pt, err := d.timer(projectID)
	if err != nil {
		return View{}, err
	}

	pt.mu.Lock()
	rows, stitches := pt.project.RowCount, pt.project.StitchCount
	pt.mu.Unlock()

	saved, err := pt.recorder.SaveNow(ctx, models.CounterUpdate{
		RowCount:    &rows,
		StitchCount: &stitches,
	})
	if err != nil {
		d.logger.Error("Failed to save project", zap.String("project_id", projectID), zap.Error(err))
		d.notifier.Notify(notify.KindError, "Failed to save")
		return pt.view(), err
	}

	pt.mu.Lock()
	if saved.TotalTimeSeconds > pt.project.TotalTimeSeconds {
		pt.project.TotalTimeSeconds = saved.TotalTimeSeconds
	}
	pt.mu.Unlock()

	d.notifier.Notify(notify.KindSuccess, "Saved")
	return pt.view(), nil
}

func clamp(v *int64) *int64 {
	if v == nil {
		return nil
	}
	n := *v
	if n < 0 {
		n = 0
	}
	return &n
}
