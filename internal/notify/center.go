// Package notify holds user-visible, non-blocking notifications ("toasts").
package notify

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Kind is the severity of a notification.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// DefaultDuration is how long a notification stays visible unless told otherwise.
const DefaultDuration = 3500 * time.Millisecond

// Notification is one toast. A zero Duration keeps it until dismissed.
type Notification struct {
	ID        string        `json:"id"`
	Kind      Kind          `json:"kind"`
	Message   string        `json:"message"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

func (n Notification) expired(now time.Time) bool {
	return n.Duration > 0 && now.Sub(n.CreatedAt) > n.Duration
}

// Notifier surfaces a message to the user.
type Notifier interface {
	Notify(kind Kind, message string) string
}

// Center stores notifications until they expire or are dismissed.
type Center struct {
	mu        sync.RWMutex
	items     map[string]Notification
	ttl       time.Duration
	now       func() time.Time
	logger    *zap.Logger
	stopChan  chan struct{}
	stopOnce  sync.Once
	cleanupWg sync.WaitGroup
}

var _ Notifier = (*Center)(nil)

// NewCenter creates a Center whose notifications last ttl by default. A ttl of zero
// or less uses DefaultDuration.
func NewCenter(ttl time.Duration, logger *zap.Logger) *Center {
	if ttl <= 0 {
		ttl = DefaultDuration
	}
	return &Center{
		items:    make(map[string]Notification),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start launches the background expiry loop.
func (c *Center) Start(interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	c.cleanupWg.Add(1)
	go c.cleanupLoop(interval)
}

// Notify adds a notification with the default duration and returns its id.
func (c *Center) Notify(kind Kind, message string) string {
	return c.Add(Notification{Kind: kind, Message: message, Duration: c.ttl})
}

// Add stores n, filling in its id and creation time, and returns the id.
func (c *Center) Add(n Notification) string {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Kind == "" {
		n.Kind = KindInfo
	}
	n.CreatedAt = c.now()

	c.mu.Lock()
	c.items[n.ID] = n
	c.mu.Unlock()

	fields := []zap.Field{
		zap.String("id", n.ID),
		zap.String("kind", string(n.Kind)),
		zap.String("message", n.Message),
	}
	if n.Kind == KindError {
		c.logger.Warn("User notification", fields...)
	} else {
		c.logger.Debug("User notification", fields...)
	}
	return n.ID
}

// Dismiss removes a notification. It reports whether it existed.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[id]; !ok {
		return false
	}
	delete(c.items, id)
	return true
}

// List returns the live notifications, oldest first.
func (c *Center) List() []Notification {
	now := c.now()

	c.mu.RLock()
	out := make([]Notification, 0, len(c.items))
	for _, n := range c.items {
		if !n.expired(now) {
			out = append(out, n)
		}
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// cleanupLoop periodically removes expired notifications
func (c *Center) cleanupLoop(interval time.Duration) {
	defer c.cleanupWg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Center) cleanup() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	expired := 0
	for id, n := range c.items {
		if n.expired(now) {
			delete(c.items, id)
			expired++
		}
	}
	if expired > 0 {
		c.logger.Debug("Cleaned up expired notifications", zap.Int("count", expired))
	}
	return expired
}

// Stop stops the expiry loop. It is safe to call more than once.
func (c *Center) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
	c.cleanupWg.Wait()
}
