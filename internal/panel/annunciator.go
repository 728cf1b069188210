package panel

import (
	"sync"
	"time"

	"github.com/sweeney/radmon/internal/gpio"
	"github.com/sweeney/radmon/internal/logic"
)

// Annunciator stands in for the buzzer and motor when the instrument runs
// in a terminal. It remembers the last pulse so the panel can flash it.
type Annunciator struct {
	mu        sync.Mutex
	buzzer    bool
	lastPulse logic.Haptic
	pulseEnd  time.Time
	now       func() time.Time
}

// NewAnnunciator creates a silent annunciator.
func NewAnnunciator() *Annunciator {
	return &Annunciator{now: time.Now}
}

// Buzzer records the buzzer state.
func (a *Annunciator) Buzzer(on bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buzzer = on
	return nil
}

// Pulse records a haptic pulse lasting as long as the motor would run.
func (a *Annunciator) Pulse(kind logic.Haptic) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastPulse = kind
	// Stretched so a terminal redraw can catch it.
	a.pulseEnd = a.now().Add(gpio.PulseDuration(kind) + 250*time.Millisecond)
	return nil
}

// BuzzerOn reports whether the buzzer is sounding.
func (a *Annunciator) BuzzerOn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.buzzer
}

// Recent returns the last pulse if it is still running at now.
func (a *Annunciator) Recent(now time.Time) (logic.Haptic, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastPulse == "" || now.After(a.pulseEnd) {
		return "", false
	}
	return a.lastPulse, true
}
