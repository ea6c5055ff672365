// Package recorder turns stopwatch runs into persisted work sessions and keeps the
// project's total time and local fallback entries up to date while the timer runs.
package recorder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hobbytrack/project-timer/internal/backend"
	"hobbytrack/project-timer/internal/fallback"
	"hobbytrack/project-timer/internal/lifecycle"
	"hobbytrack/project-timer/internal/metrics"
	"hobbytrack/project-timer/internal/models"
	"hobbytrack/project-timer/internal/notify"
	"hobbytrack/project-timer/internal/stopwatch"

	"go.uber.org/zap"
)

// Settings controls the recorder's periodic work.
type Settings struct {
	// SafetySaveInterval is how often total time is written while running. Zero
	// disables the loop.
	SafetySaveInterval time.Duration
	// FallbackInterval is how much running time passes between "last known" writes.
	FallbackInterval time.Duration
	// SaveTimeout bounds background saves (safety and unmount).
	SaveTimeout time.Duration
}

// DefaultSettings returns the standard intervals.
func DefaultSettings() Settings {
	return Settings{
		SafetySaveInterval: 30 * time.Second,
		FallbackInterval:   5 * time.Second,
		SaveTimeout:        5 * time.Second,
	}
}

// PauseResult describes what a pause persisted.
type PauseResult struct {
	Reading   stopwatch.Reading
	Session   *models.WorkSession
	Discarded bool
}

// Recorder owns the Idle/Running lifecycle of one project's timer.
type Recorder struct {
	projectID string
	userID    string
	sw        *stopwatch.Stopwatch
	sessions  backend.SessionStore
	projects  backend.ProjectWriter
	fallback  *fallback.Store
	notifier  notify.Notifier
	settings  Settings
	logger    *zap.Logger

	// persistMu serializes backend writes for the project.
	persistMu sync.Mutex

	mu           sync.Mutex
	lastFallback int64
	closed       bool
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

// New creates a Recorder for projectID and registers it as the stopwatch's tick observer.
func New(
	projectID string,
	userID string,
	sw *stopwatch.Stopwatch,
	sessions backend.SessionStore,
	projects backend.ProjectWriter,
	fb *fallback.Store,
	notifier notify.Notifier,
	settings Settings,
	logger *zap.Logger,
) *Recorder {
	defaults := DefaultSettings()
	if settings.FallbackInterval <= 0 {
		settings.FallbackInterval = defaults.FallbackInterval
	}
	if settings.SaveTimeout <= 0 {
		settings.SaveTimeout = defaults.SaveTimeout
	}

	r := &Recorder{
		projectID: projectID,
		userID:    userID,
		sw:        sw,
		sessions:  sessions,
		projects:  projects,
		fallback:  fb,
		notifier:  notifier,
		settings:  settings,
		logger:    logger.With(zap.String("project_id", projectID)),
	}
	sw.OnTick(r.HandleTick)
	return r
}

// Running reports whether the timer is running.
func (r *Recorder) Running() bool {
	return r.sw.Running()
}

// Start moves the timer to Running. It reports false if it was already running or the
// recorder is closed.
func (r *Recorder) Start() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || !r.sw.Start() {
		return false
	}
	r.lastFallback = r.sw.Elapsed()

	if r.settings.SafetySaveInterval > 0 {
		r.stopChan = make(chan struct{})
		r.wg.Add(1)
		go r.safetySaveLoop(r.stopChan)
	}

	r.logger.Info("Timer started", zap.Int64("elapsed_seconds", r.lastFallback))
	return true
}

// Pause moves the timer to Idle and records the run as a work session.
//
// Runs shorter than one second are discarded. When the session is stored, the
// project's total time is set to the stopwatch value and the fallback entries are
// cleared. A failed write shows an error notification and keeps the local value.
func (r *Recorder) Pause(ctx context.Context) (PauseResult, error) {
	r.stopLoop()

	reading, ok := r.sw.Pause()
	if !ok {
		return PauseResult{}, nil
	}

	r.persistMu.Lock()
	defer r.persistMu.Unlock()

	result := PauseResult{Reading: reading}
	duration := reading.Duration()
	if duration < 1 {
		metrics.SessionsDiscarded.Inc()
		r.logger.Debug("Discarded sub-second run")
		result.Discarded = true
		return result, nil
	}

	session, err := r.sessions.InsertSession(ctx, models.NewWorkSession{
		ProjectID:       r.projectID,
		UserID:          r.userID,
		StartedAt:       reading.StartedAt.UTC(),
		DurationSeconds: duration,
	})
	if err != nil {
		metrics.PersistenceFailures.WithLabelValues(metrics.OpInsertSession).Inc()
		r.logger.Error("Failed to save work session",
			zap.Int64("duration_seconds", duration),
			zap.Error(err),
		)
		r.notifier.Notify(notify.KindError, "Failed to save session")
		return result, fmt.Errorf("failed to save work session: %w", err)
	}
	result.Session = session
	metrics.SessionsRecorded.Inc()
	metrics.SessionSeconds.Observe(float64(duration))

	if _, err := r.projects.UpdateProjectCounters(ctx, r.projectID, models.TotalTime(reading.EndSeconds)); err != nil {
		metrics.PersistenceFailures.WithLabelValues(metrics.OpPauseTotal).Inc()
		r.logger.Error("Failed to update total time",
			zap.Int64("total_time_seconds", reading.EndSeconds),
			zap.Error(err),
		)
		r.notifier.Notify(notify.KindError, "Failed to update total time")
		return result, fmt.Errorf("failed to update total time: %w", err)
	}
	metrics.TotalSaves.WithLabelValues(metrics.TriggerPause).Inc()
	r.fallback.Clear(r.projectID)

	r.logger.Info("Work session recorded",
		zap.String("session_id", session.ID),
		zap.Int64("duration_seconds", duration),
		zap.Int64("total_time_seconds", reading.EndSeconds),
	)
	return result, nil
}

// SafetySave writes the current elapsed value as the project's total time without
// creating a session. It does nothing while idle.
func (r *Recorder) SafetySave(ctx context.Context) error {
	if !r.sw.Running() {
		return nil
	}

	r.persistMu.Lock()
	defer r.persistMu.Unlock()

	elapsed := r.sw.Elapsed()
	if _, err := r.projects.UpdateProjectCounters(ctx, r.projectID, models.TotalTime(elapsed)); err != nil {
		metrics.PersistenceFailures.WithLabelValues(metrics.OpSafetySave).Inc()
		r.logger.Warn("Safety save failed",
			zap.Int64("total_time_seconds", elapsed),
			zap.Error(err),
		)
		return fmt.Errorf("failed to save total time: %w", err)
	}

	metrics.TotalSaves.WithLabelValues(metrics.TriggerSafety).Inc()
	r.logger.Debug("Safety save", zap.Int64("total_time_seconds", elapsed))
	return nil
}

// SaveNow writes update together with the current elapsed value as the project's
// total time. The elapsed value is read after any in-flight save for the project has
// finished, so a pause that completes first is never overwritten by a lower total.
// The fallback entries are cleared only if the timer did not move past the saved value.
func (r *Recorder) SaveNow(ctx context.Context, update models.CounterUpdate) (*models.Project, error) {
	r.persistMu.Lock()
	defer r.persistMu.Unlock()

	elapsed := r.sw.Elapsed()
	update.TotalTimeSeconds = &elapsed

	saved, err := r.projects.UpdateProjectCounters(ctx, r.projectID, update)
	if err != nil {
		metrics.PersistenceFailures.WithLabelValues(metrics.OpCounters).Inc()
		return nil, fmt.Errorf("failed to save project: %w", err)
	}
	metrics.TotalSaves.WithLabelValues(metrics.TriggerManual).Inc()

	if r.sw.Elapsed() <= elapsed {
		r.fallback.Clear(r.projectID)
	}
	r.logger.Debug("Manual save", zap.Int64("total_time_seconds", elapsed))
	return saved, nil
}

// HandleTick is the stopwatch tick observer. It refreshes the "last known" fallback
// entry once per fallback interval of running time.
func (r *Recorder) HandleTick(elapsed int64) {
	every := int64(r.settings.FallbackInterval / time.Second)
	if every < 1 {
		every = 1
	}

	r.mu.Lock()
	due := elapsed-r.lastFallback >= every
	if due {
		r.lastFallback = elapsed
	}
	r.mu.Unlock()

	if due && r.fallback.WriteLastKnown(r.projectID, elapsed) {
		metrics.FallbackWrites.WithLabelValues(metrics.EntryLastKnown).Inc()
	}
}

// HandleEvent records fallback entries for page lifecycle signals.
func (r *Recorder) HandleEvent(e lifecycle.Event) {
	switch e.Kind {
	case lifecycle.KindHidden:
		r.OnHidden()
	case lifecycle.KindUnload:
		r.OnUnload()
	}
}

// Attach subscribes the recorder to lifecycle events for its project.
func (r *Recorder) Attach(hub *lifecycle.Hub) func() {
	return hub.Subscribe(r.projectID, r.HandleEvent)
}

// OnHidden writes the "last known" entry while the timer runs.
func (r *Recorder) OnHidden() {
	if !r.sw.Running() {
		return
	}
	if r.fallback.WriteLastKnown(r.projectID, r.sw.Elapsed()) {
		metrics.FallbackWrites.WithLabelValues(metrics.EntryLastKnown).Inc()
	}
}

// OnUnload writes both fallback entries, since no save started now is guaranteed
// to finish.
func (r *Recorder) OnUnload() {
	elapsed := r.sw.Elapsed()
	if r.fallback.WritePendingUnload(r.projectID, elapsed) {
		metrics.FallbackWrites.WithLabelValues(metrics.EntryPendingUnload).Inc()
	}
	if r.fallback.WriteLastKnown(r.projectID, elapsed) {
		metrics.FallbackWrites.WithLabelValues(metrics.EntryLastKnown).Inc()
	}
}

// Close stops the timer without recording a session and, if it was running, fires
// one last total time write. The write runs on its own context and may outlive the
// recorder; the returned channel is closed when it finishes. Close is idempotent.
func (r *Recorder) Close() <-chan struct{} {
	done := make(chan struct{})

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		close(done)
		return done
	}
	r.closed = true
	r.mu.Unlock()

	r.stopLoop()
	reading, wasRunning := r.sw.Pause()
	if !wasRunning {
		close(done)
		return done
	}

	r.fallback.WriteLastKnown(r.projectID, reading.EndSeconds)

	go func() {
		defer close(done)

		ctx, cancel := context.WithTimeout(context.Background(), r.settings.SaveTimeout)
		defer cancel()

		r.persistMu.Lock()
		defer r.persistMu.Unlock()

		if _, err := r.projects.UpdateProjectCounters(ctx, r.projectID, models.TotalTime(reading.EndSeconds)); err != nil {
			metrics.PersistenceFailures.WithLabelValues(metrics.OpUnmountSave).Inc()
			r.logger.Warn("Unmount save failed",
				zap.Int64("total_time_seconds", reading.EndSeconds),
				zap.Error(err),
			)
			return
		}
		metrics.TotalSaves.WithLabelValues(metrics.TriggerUnmount).Inc()
		r.fallback.Clear(r.projectID)
		r.logger.Debug("Unmount save", zap.Int64("total_time_seconds", reading.EndSeconds))
	}()

	return done
}

func (r *Recorder) stopLoop() {
	r.mu.Lock()
	stop := r.stopChan
	r.stopChan = nil
	r.mu.Unlock()

	if stop != nil {
		close(stop)
		r.wg.Wait()
	}
}

// safetySaveLoop periodically saves total time while running
func (r *Recorder) safetySaveLoop(stop <-chan struct{}) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.settings.SafetySaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), r.settings.SaveTimeout)
			_ = r.SafetySave(ctx)
			cancel()
		case <-stop:
			return
		}
	}
}
