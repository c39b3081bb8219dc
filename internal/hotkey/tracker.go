package hotkey

import (
	"context"
	"strings"
)

// Event is a single key transition.
type Event struct {
	Key   string
	Press bool
}

// Source emits key events. The OS-level keyboard hook lives outside
// this repository; anything that can feed Events works, including the
// line-driven source used by the daemon's stdin mode.
type Source interface {
	Events(ctx context.Context) (<-chan Event, error)
}

// Tracker folds key events into a pressed-key set and reports the
// moment a chord becomes satisfied. Holding the chord does not retrigger:
// the main key must be released and pressed again.
type Tracker struct {
	chord   Chord
	pressed map[string]bool
	active  bool
}

func NewTracker(chord Chord) *Tracker {
	return &Tracker{
		chord:   chord,
		pressed: make(map[string]bool),
	}
}

// Handle consumes one event and returns true exactly when the chord
// transitions into the satisfied state.
func (t *Tracker) Handle(ev Event) bool {
	key := strings.ToLower(ev.Key)
	if key == "" {
		return false
	}

	if ev.Press {
		t.pressed[key] = true
	} else {
		delete(t.pressed, key)
	}

	matched := t.chord.Matches(t.pressed)
	fired := ev.Press && matched && !t.active
	t.active = matched
	return fired
}
