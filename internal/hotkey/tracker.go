package hotkey

// EventKind identifies a control event produced by the listener.
type EventKind int

const (
	// Pressed fires when the push-to-talk combination becomes fully held.
	Pressed EventKind = iota + 1
	// Released fires when the push-to-talk combination is no longer held.
	Released
	// Toggled fires once per press of the toggle combination.
	Toggled
	// Quit fires when ESC is released.
	Quit
)

func (k EventKind) String() string {
	switch k {
	case Pressed:
		return "pressed"
	case Released:
		return "released"
	case Toggled:
		return "toggled"
	case Quit:
		return "quit"
	default:
		return "unknown"
	}
}

// Event is a single control event.
type Event struct {
	Kind EventKind
}

// tracker turns raw key down/up codes into binding transitions. It is pure
// state so the combination logic can be tested without installing a hook.
type tracker struct {
	ptt    Binding
	toggle Binding
	quit   uint16

	held      map[uint16]bool
	pttActive bool
	togActive bool
}

func newTracker(ptt, toggle Binding, quitCode uint16) *tracker {
	return &tracker{
		ptt:    ptt,
		toggle: toggle,
		quit:   quitCode,
		held:   make(map[uint16]bool),
	}
}

// keyDown records a held key and returns the events the transition produced.
// When one key press satisfies both bindings (a toggle combination that is a
// superset of the push-to-talk key), the more specific toggle binding wins.
func (t *tracker) keyDown(code uint16) []Event {
	t.held[code] = true

	var evs []Event
	if t.toggle.satisfied(t.held) {
		if !t.togActive {
			t.togActive = true
			evs = append(evs, Event{Kind: Toggled})
		}
		return evs
	}
	if t.ptt.satisfied(t.held) && !t.pttActive {
		t.pttActive = true
		evs = append(evs, Event{Kind: Pressed})
	}
	return evs
}

// keyUp records a key release and returns the events the transition produced.
func (t *tracker) keyUp(code uint16) []Event {
	delete(t.held, code)

	var evs []Event
	if t.togActive && !t.toggle.satisfied(t.held) {
		t.togActive = false
	}
	if t.pttActive && !t.ptt.satisfied(t.held) {
		t.pttActive = false
		evs = append(evs, Event{Kind: Released})
	}
	if code == t.quit && t.quit != 0 {
		evs = append(evs, Event{Kind: Quit})
	}
	return evs
}
