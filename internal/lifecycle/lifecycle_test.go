package lifecycle

import (
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"visible", KindVisible, false},
		{"hidden", KindHidden, false},
		{"unload", KindUnload, false},
		{"blur", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestHub_DeliversToMatchingProjectInOrder(t *testing.T) {
	hub := NewHub()

	var a, all []Kind
	hub.Subscribe("a", func(e Event) { a = append(a, e.Kind) })
	hub.Subscribe("", func(e Event) { all = append(all, e.Kind) })

	hub.Publish(Event{ProjectID: "a", Kind: KindHidden})
	hub.Publish(Event{ProjectID: "b", Kind: KindUnload})
	hub.Publish(Event{ProjectID: "a", Kind: KindVisible})

	if len(a) != 2 || a[0] != KindHidden || a[1] != KindVisible {
		t.Errorf("project a saw %v, want [hidden visible]", a)
	}
	if len(all) != 3 {
		t.Errorf("wildcard subscriber saw %v, want 3 events", all)
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub()

	calls := 0
	unsubscribe := hub.Subscribe("a", func(Event) { calls++ })

	if n := hub.Publish(Event{ProjectID: "a", Kind: KindHidden}); n != 1 {
		t.Fatalf("Publish() delivered to %d subscribers, want 1", n)
	}
	unsubscribe()
	unsubscribe()
	if n := hub.Publish(Event{ProjectID: "a", Kind: KindHidden}); n != 0 {
		t.Fatalf("Publish() after unsubscribe delivered to %d, want 0", n)
	}
	if calls != 1 {
		t.Fatalf("handler called %d times, want 1", calls)
	}
}

type fakeTimer struct {
	running bool
	pauses  int
}

func (f *fakeTimer) Running() bool { return f.running }
func (f *fakeTimer) Pause() {
	f.pauses++
	f.running = false
}

func TestGuard_PausesOnVisibleToHidden(t *testing.T) {
	timer := &fakeTimer{running: true}
	guard := NewGuard(true, timer.Running, timer.Pause, zaptest.NewLogger(t))

	if !guard.Handle(Event{ProjectID: "p", Kind: KindHidden}) {
		t.Fatal("Handle(hidden) did not pause a running timer")
	}
	if timer.pauses != 1 {
		t.Fatalf("pauses = %d, want 1", timer.pauses)
	}

	// Becoming visible does not resume.
	guard.Handle(Event{ProjectID: "p", Kind: KindVisible})
	if timer.running {
		t.Fatal("timer resumed on visible")
	}
}

func TestGuard_IgnoresRepeatedHiddenAndIdleTimer(t *testing.T) {
	timer := &fakeTimer{running: false}
	guard := NewGuard(true, timer.Running, timer.Pause, zaptest.NewLogger(t))

	if guard.Handle(Event{Kind: KindHidden}) {
		t.Fatal("Handle(hidden) paused an idle timer")
	}

	// Still hidden: a second hidden signal is not a transition.
	timer.running = true
	if guard.Handle(Event{Kind: KindHidden}) {
		t.Fatal("repeated hidden signal paused the timer")
	}

	guard.Handle(Event{Kind: KindVisible})
	if !guard.Handle(Event{Kind: KindHidden}) {
		t.Fatal("hidden after visible did not pause")
	}
}

func TestGuard_DisabledNeverPauses(t *testing.T) {
	timer := &fakeTimer{running: true}
	guard := NewGuard(false, timer.Running, timer.Pause, zaptest.NewLogger(t))

	hub := NewHub()
	detach := guard.Attach(hub, "p")
	defer detach()

	hub.Publish(Event{ProjectID: "p", Kind: KindHidden})
	if timer.pauses != 0 || !timer.running {
		t.Fatalf("disabled guard paused the timer (pauses=%d)", timer.pauses)
	}
}

func TestGuard_AttachReceivesHubEvents(t *testing.T) {
	timer := &fakeTimer{running: true}
	guard := NewGuard(DefaultAutoPause, timer.Running, timer.Pause, zaptest.NewLogger(t))

	hub := NewHub()
	detach := guard.Attach(hub, "p")

	hub.Publish(Event{ProjectID: "other", Kind: KindHidden})
	if timer.pauses != 0 {
		t.Fatal("guard reacted to another project's event")
	}
	hub.Publish(Event{ProjectID: "p", Kind: KindHidden})
	if timer.pauses != 1 {
		t.Fatalf("pauses = %d, want 1", timer.pauses)
	}

	detach()
	timer.running = true
	hub.Publish(Event{ProjectID: "p", Kind: KindVisible})
	hub.Publish(Event{ProjectID: "p", Kind: KindHidden})
	if timer.pauses != 1 {
		t.Fatal("detached guard still reacts")
	}
}
