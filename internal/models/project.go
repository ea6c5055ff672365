package models

import "time"

// Project is a tracked hobby project as stored by the backend.
type Project struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	CategoryID       *string   `json:"category_id,omitempty"`
	Name             string    `json:"name"`
	Tag              *string   `json:"tag,omitempty"`
	RowCount         int64     `json:"row_count"`
	StitchCount      int64     `json:"stitch_count"`
	TotalTimeSeconds int64     `json:"total_time_seconds"`
	CreatedAt        time.Time `json:"created_at"`
}

// CounterUpdate is a partial update of a project's counters. Nil fields are left untouched.
type CounterUpdate struct {
	RowCount         *int64 `json:"row_count,omitempty"`
	StitchCount      *int64 `json:"stitch_count,omitempty"`
	TotalTimeSeconds *int64 `json:"total_time_seconds,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u CounterUpdate) IsEmpty() bool {
	return u.RowCount == nil && u.StitchCount == nil && u.TotalTimeSeconds == nil
}

// Apply copies the set fields onto p.
func (u CounterUpdate) Apply(p *Project) {
	if u.RowCount != nil {
		p.RowCount = *u.RowCount
	}
	if u.StitchCount != nil {
		p.StitchCount = *u.StitchCount
	}
	if u.TotalTimeSeconds != nil {
		p.TotalTimeSeconds = *u.TotalTimeSeconds
	}
}

// TotalTime builds an update that only sets total_time_seconds.
func TotalTime(seconds int64) CounterUpdate {
	return CounterUpdate{TotalTimeSeconds: &seconds}
}

// NewProject is the payload for creating a project.
type NewProject struct {
	UserID     string  `json:"user_id"`
	Name       string  `json:"name"`
	CategoryID *string `json:"category_id,omitempty"`
	Tag        *string `json:"tag,omitempty"`
}
