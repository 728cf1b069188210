package logic

import "time"

// BlinkInterval is the toggle period of the alarm flash while active.
const BlinkInterval = 500 * time.Millisecond

// AlarmMonitor is an edge-triggered threshold alarm with no hysteresis.
type AlarmMonitor struct {
	active bool
	blink  bool
	count  int
}

// NewAlarmMonitor creates an inactive alarm.
func NewAlarmMonitor() *AlarmMonitor {
	return &AlarmMonitor{}
}

// Update compares the dose rate with the set point and returns the edge
// event, or nil if the state did not change.
func (a *AlarmMonitor) Update(now time.Time, doseRate, setPoint float64) *AlarmEvent {
	switch {
	case !a.active && doseRate >= setPoint:
		a.active = true
		a.count++
		return &AlarmEvent{Timestamp: now, Type: EventAlarmOn, DoseRate: doseRate, SetPoint: setPoint}
	case a.active && doseRate < setPoint:
		a.active = false
		a.blink = false
		return &AlarmEvent{Timestamp: now, Type: EventAlarmOff, DoseRate: doseRate, SetPoint: setPoint}
	}
	return nil
}

// ToggleBlink advances the flash oscillator. It is a no-op while inactive.
func (a *AlarmMonitor) ToggleBlink() bool {
	if !a.active {
		a.blink = false
		return false
	}
	a.blink = !a.blink
	return a.blink
}

// Active reports whether the alarm is sounding.
func (a *AlarmMonitor) Active() bool {
	return a.active
}

// BlinkPhase returns the flash phase; always false while inactive.
func (a *AlarmMonitor) BlinkPhase() bool {
	return a.blink
}

// Activations counts Inactive to Active transitions since startup.
func (a *AlarmMonitor) Activations() int {
	return a.count
}
