package stopwatch

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// tickFor advances the clock one second at a time, ticking after each step.
func tickFor(sw *Stopwatch, clock *fakeClock, seconds int) {
	for i := 0; i < seconds; i++ {
		clock.Advance(time.Second)
		sw.Tick()
	}
}

func TestStopwatch_CountsWholeTicksWhileRunning(t *testing.T) {
	clock := newFakeClock()
	sw := New(Options{Now: clock.Now})

	sw.Start()
	tickFor(sw, clock, 3)
	sw.Pause()

	// Ticks while paused do not count.
	clock.Advance(10 * time.Second)
	sw.Tick()

	sw.Start()
	tickFor(sw, clock, 2)
	sw.Pause()

	if got := sw.Elapsed(); got != 5 {
		t.Fatalf("Elapsed() = %d, want 5", got)
	}
}

func TestStopwatch_StartAndPauseAreIdempotent(t *testing.T) {
	clock := newFakeClock()
	sw := New(Options{InitialSeconds: 7, Now: clock.Now})

	if _, ok := sw.Pause(); ok {
		t.Fatal("Pause() on idle stopwatch reported a transition")
	}
	if got := sw.State(); got.Running || got.ElapsedSeconds != 7 {
		t.Fatalf("State() after idle pause = %+v, want idle at 7", got)
	}

	if !sw.Start() {
		t.Fatal("first Start() reported no transition")
	}
	before := sw.State()
	clock.Advance(400 * time.Millisecond)
	if sw.Start() {
		t.Fatal("second Start() reported a transition")
	}
	after := sw.State()
	if !after.SessionStartedAt.Equal(*before.SessionStartedAt) || after.SessionStartSeconds != before.SessionStartSeconds {
		t.Fatalf("second Start() changed session anchor: before %+v after %+v", before, after)
	}
}

func TestStopwatch_PauseReturnsReading(t *testing.T) {
	clock := newFakeClock()
	sw := New(Options{InitialSeconds: 100, Now: clock.Now})

	startedAt := clock.Now()
	sw.Start()
	tickFor(sw, clock, 45)

	reading, ok := sw.Pause()
	if !ok {
		t.Fatal("Pause() reported no transition")
	}
	if !reading.StartedAt.Equal(startedAt) {
		t.Errorf("StartedAt = %v, want %v", reading.StartedAt, startedAt)
	}
	if reading.StartSeconds != 100 || reading.EndSeconds != 145 {
		t.Errorf("reading = %+v, want 100 -> 145", reading)
	}
	if reading.Duration() != 45 {
		t.Errorf("Duration() = %d, want 45", reading.Duration())
	}
}

func TestStopwatch_SubSecondRunHasZeroDuration(t *testing.T) {
	clock := newFakeClock()
	sw := New(Options{Now: clock.Now})

	sw.Start()
	clock.Advance(400 * time.Millisecond)
	reading, _ := sw.Pause()
	if reading.Duration() != 0 {
		t.Fatalf("Duration() = %d, want 0", reading.Duration())
	}
}

func TestStopwatch_CatchesUpAfterSuspension(t *testing.T) {
	clock := newFakeClock()
	sw := New(Options{Now: clock.Now})

	sw.Start()
	tickFor(sw, clock, 2)
	// Host was suspended: ten seconds pass with no tick callbacks.
	clock.Advance(10 * time.Second)
	sw.Tick()

	if got := sw.Elapsed(); got != 12 {
		t.Fatalf("Elapsed() = %d, want 12", got)
	}
}

func TestStopwatch_NeverDecreasesWhenClockStepsBack(t *testing.T) {
	clock := newFakeClock()
	sw := New(Options{Now: clock.Now})

	sw.Start()
	tickFor(sw, clock, 5)
	clock.Advance(-3 * time.Second)
	sw.Tick()

	if got := sw.Elapsed(); got != 5 {
		t.Fatalf("Elapsed() = %d, want 5", got)
	}
}

func TestStopwatch_ObserverSeesEveryNewValue(t *testing.T) {
	clock := newFakeClock()
	sw := New(Options{InitialSeconds: 10, Now: clock.Now})

	var seen []int64
	sw.OnTick(func(elapsed int64) { seen = append(seen, elapsed) })

	sw.Start()
	tickFor(sw, clock, 3)
	// A tick that does not change the value is not reported.
	sw.Tick()

	want := []int64{11, 12, 13}
	if len(seen) != len(want) {
		t.Fatalf("observer saw %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("observer saw %v, want %v", seen, want)
		}
	}
}

func TestStopwatch_ResetAndSync(t *testing.T) {
	clock := newFakeClock()
	sw := New(Options{InitialSeconds: 30, Now: clock.Now})

	sw.Start()
	tickFor(sw, clock, 2)
	if sw.Sync(5) {
		t.Fatal("Sync() while running should be rejected")
	}

	sw.Reset()
	if st := sw.State(); st.Running || st.ElapsedSeconds != 0 {
		t.Fatalf("State() after Reset = %+v, want idle at 0", st)
	}

	if !sw.Sync(140) {
		t.Fatal("Sync() while stopped was rejected")
	}
	if got := sw.Elapsed(); got != 140 {
		t.Fatalf("Elapsed() = %d, want 140", got)
	}
}

func TestStopwatch_BackgroundLoopTicks(t *testing.T) {
	clock := newFakeClock()
	sw := New(Options{TickInterval: 5 * time.Millisecond, Now: clock.Now})

	ticked := make(chan int64, 1)
	sw.OnTick(func(elapsed int64) {
		select {
		case ticked <- elapsed:
		default:
		}
	})

	sw.Start()
	clock.Advance(3 * time.Second)

	select {
	case got := <-ticked:
		if got != 3 {
			t.Errorf("first background tick = %d, want 3", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("background loop never ticked")
	}

	sw.Pause()
	if sw.Running() {
		t.Fatal("Running() = true after Pause")
	}
}
