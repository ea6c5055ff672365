// Package stopwatch implements an elapsed-seconds counter with start/pause/reset semantics.
//
// Elapsed time is recomputed from the wall clock on every tick as
// sessionStartSeconds + whole seconds since the run began, so ticks missed while the
// process was suspended are caught up on the next one. The value never decreases
// while running, even if the wall clock steps backwards.
package stopwatch

import (
	"sync"
	"time"
)

// DefaultTickInterval is how often the background loop ticks.
const DefaultTickInterval = time.Second

// Options configures a Stopwatch.
type Options struct {
	// InitialSeconds seeds elapsed time, usually from the authoritative project total.
	InitialSeconds int64
	// TickInterval is the background tick period. Zero or negative disables the loop;
	// the caller then drives ticks with Tick.
	TickInterval time.Duration
	// Now returns the current wall-clock time. Defaults to time.Now.
	Now func() time.Time
}

// State is a point-in-time view of the stopwatch.
type State struct {
	ElapsedSeconds      int64      `json:"elapsed_seconds"`
	Running             bool       `json:"running"`
	SessionStartedAt    *time.Time `json:"session_started_at,omitempty"`
	SessionStartSeconds int64      `json:"session_start_seconds"`
}

// Reading describes the run that a Pause just ended.
type Reading struct {
	StartedAt    time.Time
	StartSeconds int64
	EndSeconds   int64
}

// Duration returns the whole seconds counted during the run.
func (r Reading) Duration() int64 {
	return r.EndSeconds - r.StartSeconds
}

// Stopwatch counts elapsed seconds. It is safe for concurrent use.
type Stopwatch struct {
	mu           sync.Mutex
	elapsed      int64
	running      bool
	startedAt    time.Time
	startSeconds int64
	onTick       func(int64)

	interval time.Duration
	now      func() time.Time
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a stopped Stopwatch.
func New(opts Options) *Stopwatch {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	initial := opts.InitialSeconds
	if initial < 0 {
		initial = 0
	}
	return &Stopwatch{
		elapsed:  initial,
		interval: opts.TickInterval,
		now:      now,
	}
}

// OnTick registers the tick observer. It is called with the new elapsed value after
// every tick that changed it, outside the stopwatch lock. The observer must not call
// Pause or Reset.
func (s *Stopwatch) OnTick(fn func(elapsed int64)) {
	s.mu.Lock()
	s.onTick = fn
	s.mu.Unlock()
}

// Start begins a run. It reports false and changes nothing if already running.
func (s *Stopwatch) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return false
	}
	s.running = true
	s.startedAt = s.now()
	s.startSeconds = s.elapsed

	if s.interval > 0 {
		s.stopChan = make(chan struct{})
		s.wg.Add(1)
		go s.tickLoop(s.stopChan)
	}
	return true
}

// Pause ends the current run and returns its reading. It reports false and changes
// nothing if not running.
func (s *Stopwatch) Pause() (Reading, bool) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return Reading{}, false
	}
	s.advanceLocked()
	reading := Reading{
		StartedAt:    s.startedAt,
		StartSeconds: s.startSeconds,
		EndSeconds:   s.elapsed,
	}
	s.running = false
	s.startedAt = time.Time{}
	stop := s.stopChan
	s.stopChan = nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		s.wg.Wait()
	}
	return reading, true
}

// Reset stops the stopwatch and sets elapsed time to zero.
func (s *Stopwatch) Reset() {
	s.Pause()
	s.mu.Lock()
	s.elapsed = 0
	s.startSeconds = 0
	s.mu.Unlock()
}

// Sync overwrites elapsed time while stopped. It is ignored while running, since a
// running value must not move backwards.
func (s *Stopwatch) Sync(seconds int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || seconds < 0 {
		return false
	}
	s.elapsed = seconds
	return true
}

// Tick recomputes elapsed time from the clock and notifies the observer when the
// value changed. It does nothing while stopped.
func (s *Stopwatch) Tick() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	changed := s.advanceLocked()
	elapsed := s.elapsed
	observer := s.onTick
	s.mu.Unlock()

	if changed && observer != nil {
		observer(elapsed)
	}
}

// Elapsed returns the current elapsed seconds.
func (s *Stopwatch) Elapsed() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

// Running reports whether a run is in progress.
func (s *Stopwatch) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// State returns a snapshot of the stopwatch.
func (s *Stopwatch) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		ElapsedSeconds:      s.elapsed,
		Running:             s.running,
		SessionStartSeconds: s.startSeconds,
	}
	if s.running {
		started := s.startedAt
		st.SessionStartedAt = &started
	}
	return st
}

func (s *Stopwatch) advanceLocked() bool {
	since := s.now().Sub(s.startedAt)
	if since < 0 {
		return false
	}
	computed := s.startSeconds + int64(since/time.Second)
	if computed <= s.elapsed {
		return false
	}
	s.elapsed = computed
	return true
}

func (s *Stopwatch) tickLoop(stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick()
		case <-stop:
			return
		}
	}
}
