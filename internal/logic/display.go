package logic

import "time"

// Display refresh intervals. The 1 Hz refresh timer only publishes a new
// value once the interval for the current dose rate has elapsed.
const (
	DisplayRefresh     = time.Second
	DisplayIntervalLow = 4 * time.Second // dose rate <= 1000
	DisplayIntervalHi  = 2 * time.Second
)

// DisplayInterval returns the throttle interval for a dose rate.
func DisplayInterval(doseRate float64) time.Duration {
	if doseRate <= 1000 {
		return DisplayIntervalLow
	}
	return DisplayIntervalHi
}

// DisplayGate decouples the displayed value from the internal recompute rate.
type DisplayGate struct {
	last  time.Time
	value float64
}

// NewDisplayGate creates a gate whose first interval starts at start.
func NewDisplayGate(start time.Time) *DisplayGate {
	return &DisplayGate{last: start}
}

// Refresh is called from the refresh timer. It publishes doseRate as the
// displayed value when the throttle interval has elapsed, and reports
// whether it did.
func (g *DisplayGate) Refresh(now time.Time, doseRate float64) bool {
	if now.Sub(g.last) < DisplayInterval(doseRate) {
		return false
	}
	g.value = doseRate
	g.last = now
	return true
}

// Value returns the currently displayed dose rate.
func (g *DisplayGate) Value() float64 {
	return g.value
}
