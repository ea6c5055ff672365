// Package metrics exposes timer counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsRecorded counts work sessions persisted on pause.
	SessionsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "project_timer_sessions_recorded_total",
		Help: "Work sessions persisted on pause.",
	})

	// SessionsDiscarded counts runs shorter than one second.
	SessionsDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "project_timer_sessions_discarded_total",
		Help: "Runs discarded because they lasted less than one second.",
	})

	// SessionSeconds observes the duration of recorded sessions.
	SessionSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "project_timer_session_duration_seconds",
		Help:    "Duration of recorded work sessions.",
		Buckets: []float64{10, 60, 300, 900, 1800, 3600, 7200, 14400},
	})

	// PersistenceFailures counts failed backend writes by operation.
	PersistenceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "project_timer_persistence_failures_total",
		Help: "Failed backend writes by operation.",
	}, []string{"operation"})

	// TotalSaves counts successful total_time_seconds writes by trigger.
	TotalSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "project_timer_total_saves_total",
		Help: "Successful total time writes by trigger.",
	}, []string{"trigger"})

	// FallbackWrites counts local fallback writes by entry.
	FallbackWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "project_timer_fallback_writes_total",
		Help: "Local fallback entry writes by entry.",
	}, []string{"entry"})

	// Reconciliations counts load-time reconciliations by outcome.
	Reconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "project_timer_reconciliations_total",
		Help: "Load-time reconciliations by outcome.",
	}, []string{"outcome"})

	// OpenTimers is the number of open project views.
	OpenTimers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "project_timer_open_timers",
		Help: "Number of open project timer views.",
	})
)

// Label values.
const (
	OpInsertSession = "insert_session"
	OpPauseTotal    = "pause_total"
	OpSafetySave    = "safety_save"
	OpUnmountSave   = "unmount_save"
	OpReconcile     = "reconcile"
	OpCounters      = "counters"

	TriggerPause   = "pause"
	TriggerSafety  = "safety"
	TriggerUnmount = "unmount"
	TriggerManual  = "manual"

	EntryLastKnown     = "last_known"
	EntryPendingUnload = "pending_unload"

	OutcomeUnchanged = "unchanged"
	OutcomeRaised    = "raised"
	OutcomeFailed    = "failed"
)
