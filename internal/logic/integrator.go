package logic

import "time"

// IntegrationInput carries the pipeline values read at each integrator firing.
type IntegrationInput struct {
	Mode          CumDoseMode
	DoseRate      float64
	TimeConstant  int
	CountRate     int
	AlarmSetPoint float64
}

// ManualAction reports what the start/restart control did.
type ManualAction string

const (
	ManualStarted   ManualAction = "START"
	ManualRestarted ManualAction = "RESTART"
	ManualStopped   ManualAction = "STOP"
)

// Integrator accumulates cumulative dose on an adaptive cadence.
type Integrator struct {
	dose     float64
	run      ManualRunState
	lastFire time.Time
}

// NewIntegrator creates an integrator whose first interval starts at start.
func NewIntegrator(start time.Time) *Integrator {
	return &Integrator{
		run:      RunStopped,
		lastFire: start,
	}
}

// Increment is the rectangular-rule dose for one interval of tc seconds.
func Increment(doseRate float64, tc int) float64 {
	return (doseRate / 3600) * float64(tc)
}

// NextDue returns when the integrator next fires for time constant tc.
// tc is re-read by the caller on every check, so the cadence follows it.
func (i *Integrator) NextDue(tc int) time.Time {
	return i.lastFire.Add(time.Duration(tc) * time.Second)
}

// Tick fires the integrator if at least in.TimeConstant seconds have elapsed
// since the last firing. Returns the log entry to append, or nil if not due.
func (i *Integrator) Tick(now time.Time, in IntegrationInput) *LogEntry {
	if now.Sub(i.lastFire) < time.Duration(in.TimeConstant)*time.Second {
		return nil
	}
	i.lastFire = now

	if i.accumulating(in.Mode) {
		i.dose += Increment(in.DoseRate, in.TimeConstant)
	}

	return &LogEntry{
		Timestamp:      now,
		CountRate:      in.CountRate,
		DoseRate:       in.DoseRate,
		CumulativeDose: i.dose,
		Alert:          AlertFor(in.DoseRate, in.AlarmSetPoint),
	}
}

func (i *Integrator) accumulating(mode CumDoseMode) bool {
	return mode == ModeAuto || (mode == ModeManual && i.run == RunRunning)
}

// Start operates the ENT/SRT control in Manual mode.
// Stopped starts, ArmedRestart resets then starts, Running resets in place.
func (i *Integrator) Start() ManualAction {
	switch i.run {
	case RunRunning:
		i.dose = 0
		return ManualRestarted
	case RunArmedRestart:
		i.dose = 0
		i.run = RunRunning
		return ManualRestarted
	default:
		i.run = RunRunning
		return ManualStarted
	}
}

// Stop halts manual integration without resetting; the next Start resets.
func (i *Integrator) Stop() ManualAction {
	i.run = RunArmedRestart
	return ManualStopped
}

// Reset zeroes the cumulative dose.
func (i *Integrator) Reset() {
	i.dose = 0
}

// Dose returns the cumulative dose in mR.
func (i *Integrator) Dose() float64 {
	return i.dose
}

// RunState returns the manual run state.
func (i *Integrator) RunState() ManualRunState {
	return i.run
}

// LastFire returns the time of the last firing (or the start time).
func (i *Integrator) LastFire() time.Time {
	return i.lastFire
}
