// Package fallback keeps a best-effort local record of recent timer values per project,
// used only to recover time that a normal save could not reach.
//
// Two entries exist per project: "last known", rewritten periodically while the timer
// runs and whenever the page is hidden, and "pending unload", written when the page is
// about to unload. Every failure is logged and swallowed; callers never see an error.
package fallback

import (
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"
)

const keyPrefix = "project-timer:"

const (
	entryLastKnown     = "last-known"
	entryPendingUnload = "pending-unload"
)

// KV is the durable local key-value store the entries are kept in.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Entry is one stored fallback value.
type Entry struct {
	TotalTimeSeconds int64      `json:"totalTimeSeconds"`
	WrittenAt        *time.Time `json:"writtenAt,omitempty"`
}

// Record holds whichever entries are present for a project.
type Record struct {
	LastKnown     *Entry
	PendingUnload *Entry
}

// Empty reports whether no entry is present.
func (r Record) Empty() bool {
	return r.LastKnown == nil && r.PendingUnload == nil
}

// Store reads and writes fallback entries.
type Store struct {
	kv     KV
	now    func() time.Time
	logger *zap.Logger
}

// NewStore creates a Store over kv.
func NewStore(kv KV, logger *zap.Logger) *Store {
	return &Store{
		kv:     kv,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock replaces the clock used for write timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// WriteLastKnown records the current elapsed seconds with a write timestamp.
func (s *Store) WriteLastKnown(projectID string, seconds int64) bool {
	writtenAt := s.now().UTC()
	return s.write(projectID, entryLastKnown, Entry{TotalTimeSeconds: seconds, WrittenAt: &writtenAt})
}

// WritePendingUnload records a value that a save in flight may not have delivered.
func (s *Store) WritePendingUnload(projectID string, seconds int64) bool {
	return s.write(projectID, entryPendingUnload, Entry{TotalTimeSeconds: seconds})
}

// Read returns the entries present for projectID. Unreadable entries count as absent.
func (s *Store) Read(projectID string) Record {
	return Record{
		LastKnown:     s.read(projectID, entryLastKnown),
		PendingUnload: s.read(projectID, entryPendingUnload),
	}
}

// Clear removes both entries for projectID.
func (s *Store) Clear(projectID string) {
	for _, name := range []string{entryLastKnown, entryPendingUnload} {
		if err := s.kv.Remove(key(projectID, name)); err != nil {
			s.logger.Warn("Failed to clear fallback entry",
				zap.String("project_id", projectID),
				zap.String("entry", name),
				zap.Error(err),
			)
		}
	}
}

// Lister is implemented by key-value stores that can enumerate keys.
type Lister interface {
	Keys(prefix string) ([]string, error)
}

// PendingProjects returns the ids of projects that currently hold fallback entries.
// It returns nil when the underlying store cannot list keys.
func (s *Store) PendingProjects() []string {
	lister, ok := s.kv.(Lister)
	if !ok {
		return nil
	}
	keys, err := lister.Keys(keyPrefix)
	if err != nil {
		s.logger.Warn("Failed to list fallback entries", zap.Error(err))
		return nil
	}

	seen := make(map[string]bool)
	var ids []string
	for _, k := range keys {
		rest := strings.TrimPrefix(k, keyPrefix)
		i := strings.LastIndex(rest, ":")
		if i <= 0 {
			continue
		}
		id := rest[:i]
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Store) write(projectID, name string, entry Entry) bool {
	data, err := json.Marshal(entry)
	if err != nil {
		s.logger.Warn("Failed to encode fallback entry", zap.Error(err))
		return false
	}
	if err := s.kv.Set(key(projectID, name), string(data)); err != nil {
		s.logger.Warn("Failed to write fallback entry",
			zap.String("project_id", projectID),
			zap.String("entry", name),
			zap.Error(err),
		)
		return false
	}

	s.logger.Debug("Fallback entry written",
		zap.String("project_id", projectID),
		zap.String("entry", name),
		zap.Int64("total_time_seconds", entry.TotalTimeSeconds),
	)
	return true
}

func (s *Store) read(projectID, name string) *Entry {
	raw, ok, err := s.kv.Get(key(projectID, name))
	if err != nil {
		s.logger.Warn("Failed to read fallback entry",
			zap.String("project_id", projectID),
			zap.String("entry", name),
			zap.Error(err),
		)
		return nil
	}
	if !ok {
		return nil
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil || entry.TotalTimeSeconds < 0 {
		s.logger.Warn("Discarding corrupt fallback entry",
			zap.String("project_id", projectID),
			zap.String("entry", name),
		)
		return nil
	}
	return &entry
}

func key(projectID, name string) string {
	return keyPrefix + projectID + ":" + name
}
