// Package lifecycle delivers page lifecycle signals (visibility changes and unload
// attempts) to the components of an open project view.
//
// Hosts publish events on a Hub; components subscribe for a single project. Delivery
// is synchronous and in publish order, so a handler sees events the way the host saw them.
package lifecycle

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Kind is the type of a lifecycle event.
type Kind string

const (
	KindVisible Kind = "visible"
	KindHidden  Kind = "hidden"
	KindUnload  Kind = "unload"
)

// ParseKind converts a wire value into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindVisible, KindHidden, KindUnload:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown lifecycle event %q", s)
	}
}

// Event is a lifecycle signal for one project view.
type Event struct {
	ProjectID string
	Kind      Kind
	At        time.Time
}

type subscription struct {
	projectID string
	handler   func(Event)
}

// Hub fans lifecycle events out to subscribers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]subscription
	nextID int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]subscription)}
}

// Subscribe registers handler for events of projectID. An empty projectID receives
// every event. The returned function removes the subscription and is safe to call twice.
func (h *Hub) Subscribe(projectID string, handler func(Event)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = subscription{projectID: projectID, handler: handler}
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// Publish delivers e to every matching subscriber, in subscription order, and returns
// how many received it.
func (h *Hub) Publish(e Event) int {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	h.mu.RLock()
	ids := make([]int, 0, len(h.subs))
	for id, sub := range h.subs {
		if sub.projectID == "" || sub.projectID == e.ProjectID {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	handlers := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, h.subs[id].handler)
	}
	h.mu.RUnlock()

	for _, handler := range handlers {
		handler(e)
	}
	return len(handlers)
}
