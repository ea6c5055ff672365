package models

import "time"

// WorkSession is one contiguous start→pause interval. Sessions are append-only.
type WorkSession struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"project_id"`
	UserID          string    `json:"user_id"`
	StartedAt       time.Time `json:"started_at"`
	DurationSeconds int64     `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewWorkSession is the insert payload for a finished run.
type NewWorkSession struct {
	ProjectID       string    `json:"project_id"`
	UserID          string    `json:"user_id"`
	StartedAt       time.Time `json:"started_at"`
	DurationSeconds int64     `json:"duration_seconds"`
}

// TotalDuration sums the durations of the given sessions.
func TotalDuration(sessions []WorkSession) int64 {
	var total int64
	for _, s := range sessions {
		total += s.DurationSeconds
	}
	return total
}
