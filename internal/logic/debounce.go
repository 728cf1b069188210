package logic

import "time"

// State represents the logical state of a front-panel button line.
type State string

const (
	StatePressed  State = "PRESSED"
	StateReleased State = "RELEASED"
)

// LineState tracks debounce state for a single button line.
type LineState struct {
	// Current stable (debounced) state
	Stable State
	// Pending state during debounce
	Pending State
	// Time when pending state was first observed
	PendingSince time.Time
	// Whether we have established a baseline
	Baselined bool
}

// ButtonInput is one poll of all button lines, already in logical form.
type ButtonInput struct {
	Pressed map[string]bool
	Time    time.Time
}

// ButtonEvent is a debounced press of a named button.
type ButtonEvent struct {
	Timestamp time.Time
	Button    string
}

// ButtonDetector debounces polled button lines and reports press edges.
type ButtonDetector struct {
	debounceDuration time.Duration
	names            []string
	lines            map[string]*LineState
	baselined        bool
	presses          map[string]int
}

// NewButtonDetector creates a detector for the named lines. Events are
// reported in the order of names when several buttons settle together.
func NewButtonDetector(debounceDuration time.Duration, names []string) *ButtonDetector {
	lines := make(map[string]*LineState, len(names))
	for _, n := range names {
		lines[n] = &LineState{}
	}
	return &ButtonDetector{
		debounceDuration: debounceDuration,
		names:            append([]string(nil), names...),
		lines:            lines,
		presses:          make(map[string]int, len(names)),
	}
}

// Process takes a new poll and returns any presses that should be dispatched.
// Nothing is reported until every line has a stable baseline, so a button
// held at power-on does not fire.
func (d *ButtonDetector) Process(input ButtonInput) []ButtonEvent {
	var events []ButtonEvent
	for _, name := range d.names {
		state := boolToState(input.Pressed[name])
		if d.processLine(d.lines[name], state, input.Time) && state == StatePressed && d.baselined {
			events = append(events, ButtonEvent{Timestamp: input.Time, Button: name})
			d.presses[name]++
		}
	}

	if !d.baselined {
		for _, ls := range d.lines {
			if !ls.Baselined {
				return nil
			}
		}
		d.baselined = true
	}
	return events
}

// processLine handles debounce logic for one line.
// Returns true if a stable transition occurred.
func (d *ButtonDetector) processLine(ls *LineState, newState State, now time.Time) bool {
	if !ls.Baselined {
		if ls.Pending != newState {
			// First observation, or state changed during baseline: restart
			ls.Pending = newState
			ls.PendingSince = now
			return false
		}
		if now.Sub(ls.PendingSince) >= d.debounceDuration {
			ls.Stable = newState
			ls.Baselined = true
			ls.Pending = ""
		}
		return false
	}

	if newState == ls.Stable {
		ls.Pending = ""
		return false
	}

	if ls.Pending != newState {
		ls.Pending = newState
		ls.PendingSince = now
		return false
	}

	if now.Sub(ls.PendingSince) >= d.debounceDuration {
		ls.Stable = newState
		ls.Pending = ""
		return true
	}
	return false
}

func boolToState(b bool) State {
	if b {
		return StatePressed
	}
	return StateReleased
}

// IsBaselined returns whether every line has a stable baseline.
func (d *ButtonDetector) IsBaselined() bool {
	return d.baselined
}

// Presses returns the number of debounced presses per button since startup.
func (d *ButtonDetector) Presses() map[string]int {
	out := make(map[string]int, len(d.presses))
	for k, v := range d.presses {
		out[k] = v
	}
	return out
}
