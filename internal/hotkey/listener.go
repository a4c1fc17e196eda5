// Package hotkey provides a process-wide keyboard listener for the
// push-to-talk and toggle bindings.
package hotkey

import (
	"sync"

	hook "github.com/robotn/gohook"
)

// Listener installs a global keyboard hook and posts binding transitions to
// a channel. The control loop consumes the channel; handlers never run on
// the hook callback.
type Listener struct {
	tracker *tracker
	events  chan Event

	mu      sync.Mutex
	started bool
}

// NewListener builds a listener for the given bindings. toggle may be the
// zero Binding to disable toggle mode.
func NewListener(ptt, toggle Binding) *Listener {
	return &Listener{
		tracker: newTracker(ptt, toggle, hook.Keycode["esc"]),
		events:  make(chan Event, 16),
	}
}

// Events returns the control event channel. It is closed when the hook
// shuts down.
func (l *Listener) Events() <-chan Event {
	return l.events
}

// Start installs the hook and begins translating raw key events.
func (l *Listener) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return
	}
	l.started = true

	raw := hook.Start()
	go l.run(raw)
}

// Stop uninstalls the hook. The event channel closes once the raw stream
// drains.
func (l *Listener) Stop() {
	hook.End()
}

func (l *Listener) run(raw chan hook.Event) {
	defer close(l.events)

	for ev := range raw {
		var out []Event
		switch ev.Kind {
		case hook.KeyDown, hook.KeyHold:
			out = l.tracker.keyDown(ev.Keycode)
		case hook.KeyUp:
			out = l.tracker.keyUp(ev.Keycode)
		default:
			continue
		}
		for _, e := range out {
			select {
			case l.events <- e:
			default:
				// A stalled consumer must not block the hook thread.
			}
		}
	}
}
