package lifecycle

import (
	"sync"

	"go.uber.org/zap"
)

// DefaultAutoPause is the guard policy for a bare stopwatch. The session-tracking
// dashboard turns it off so a run can continue in a background tab.
const DefaultAutoPause = true

// Guard pauses a running timer when its page goes from visible to hidden.
// Becoming visible again never resumes; the user has to start explicitly.
type Guard struct {
	enabled bool
	running func() bool
	pause   func()
	logger  *zap.Logger

	mu     sync.Mutex
	hidden bool
}

// NewGuard creates a guard. running and pause are usually bound to a stopwatch or a
// session recorder.
func NewGuard(enabled bool, running func() bool, pause func(), logger *zap.Logger) *Guard {
	return &Guard{
		enabled: enabled,
		running: running,
		pause:   pause,
		logger:  logger,
	}
}

// Enabled reports whether auto-pause is on.
func (g *Guard) Enabled() bool {
	return g.enabled
}

// Handle processes one lifecycle event. It reports whether it paused the timer.
func (g *Guard) Handle(e Event) bool {
	g.mu.Lock()
	wasHidden := g.hidden
	switch e.Kind {
	case KindHidden:
		g.hidden = true
	case KindVisible:
		g.hidden = false
	}
	g.mu.Unlock()

	if !g.enabled || e.Kind != KindHidden || wasHidden {
		return false
	}
	if !g.running() {
		return false
	}

	g.logger.Info("Page hidden, auto-pausing timer",
		zap.String("project_id", e.ProjectID),
	)
	g.pause()
	return true
}

// Attach subscribes the guard to projectID's events on hub.
func (g *Guard) Attach(hub *Hub, projectID string) (detach func()) {
	return hub.Subscribe(projectID, func(e Event) { g.Handle(e) })
}
