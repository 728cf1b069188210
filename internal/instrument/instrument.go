// Package instrument owns the radiation monitor's state and runs it as a
// single event loop: telemetry samples, the display refresh, the dose
// integrator, the alarm flash and front-panel actions are handled one at a
// time, each to completion.
package instrument

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/radmon/internal/eventlog"
	"github.com/sweeney/radmon/internal/logic"
	"github.com/sweeney/radmon/internal/menu"
	"github.com/sweeney/radmon/internal/mqtt"
	"github.com/sweeney/radmon/internal/status"
	"github.com/sweeney/radmon/internal/telemetry"
)

// NoticeExportFailed is shown when the exporter rejects the log.
const NoticeExportFailed = "Export Failed"

// ErrUnknownAction is returned by HandleAction for an unrecognised kind.
var ErrUnknownAction = errors.New("unknown action")

// Outputs is the annunciator: buzzer and haptic motor.
type Outputs interface {
	Buzzer(on bool) error
	Pulse(kind logic.Haptic) error
}

// Deps are the collaborators of an Instrument. Nil collaborators are skipped.
type Deps struct {
	Publisher    mqtt.Publisher
	Outputs      Outputs
	Exporter     eventlog.Exporter
	Status       *status.Tracker
	AlarmOptions []float64
	LogCapacity  int
	Now          func() time.Time
}

// Instrument holds the live configuration and every piece of pipeline state.
// Its methods are not safe for concurrent use; other goroutines go through
// a Remote.
type Instrument struct {
	deps Deps

	live  logic.LiveConfig
	cond  *logic.Conditioner
	dose  *logic.Integrator
	alarm *logic.AlarmMonitor
	gate  *logic.DisplayGate
	log   *eventlog.Store
	menu  *menu.Controller

	seq        uint64
	reading    logic.Reading
	notice     string
	noticeTime time.Time

	requests chan request
	done     chan struct{}
}

// New creates an instrument running live, with its timers starting at start.
func New(live logic.LiveConfig, start time.Time, deps Deps) *Instrument {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	live.Table = live.Table.Clone()
	return &Instrument{
		deps:     deps,
		live:     live,
		cond:     logic.NewConditioner(),
		dose:     logic.NewIntegrator(start),
		alarm:    logic.NewAlarmMonitor(),
		gate:     logic.NewDisplayGate(start),
		log:      eventlog.NewStore(deps.LogCapacity),
		menu:     menu.NewController(deps.AlarmOptions),
		requests: make(chan request),
		done:     make(chan struct{}),
	}
}

// HandleFrame decodes a telemetry frame and processes the sample it carries.
// Frames without a count are dropped; it reports whether one was found.
func (i *Instrument) HandleFrame(frame string, now time.Time) bool {
	n, ok := telemetry.Decode(frame)
	if !ok {
		return false
	}
	i.HandleSample(n, now)
	return true
}

// HandleSample runs one count-rate sample through the pipeline.
func (i *Instrument) HandleSample(countRate int, now time.Time) {
	i.seq++
	i.cond.Process(logic.Sample{CountRate: countRate, Seq: i.seq}, i.live.Table, i.live.CalibrationFactor)
	i.checkAlarm(now)
	i.integrate(now)
	i.publishStatus()
}

// HandleDisplayTick is the 1 Hz refresh. The displayed reading only changes
// once the throttle interval for the current dose rate has elapsed.
func (i *Instrument) HandleDisplayTick(now time.Time) {
	if i.cond.Samples() == 0 {
		return
	}
	if !i.gate.Refresh(now, i.cond.DoseRate()) {
		return
	}
	i.reading = i.buildReading(now)
	if i.deps.Publisher != nil {
		if err := i.deps.Publisher.PublishReading(i.reading); err != nil {
			log.Printf("instrument: publish reading: %v", err)
		}
	}
	i.publishStatus()
}

// HandleIntegratorTick fires the dose integrator if it is due and returns
// the log entry it appended.
func (i *Instrument) HandleIntegratorTick(now time.Time) *logic.LogEntry {
	entry := i.integrate(now)
	if entry != nil {
		i.publishStatus()
	}
	return entry
}

// HandleBlink advances the alarm flash.
func (i *Instrument) HandleBlink() bool {
	phase := i.alarm.ToggleBlink()
	i.publishStatus()
	return phase
}

func (i *Instrument) integrate(now time.Time) *logic.LogEntry {
	// Nothing to integrate before the first sample.
	if i.cond.Samples() == 0 {
		return nil
	}
	entry := i.dose.Tick(now, logic.IntegrationInput{
		Mode:          i.live.CumDoseMode,
		DoseRate:      i.cond.DoseRate(),
		TimeConstant:  i.cond.TimeConstant(),
		CountRate:     i.cond.LastCountRate(),
		AlarmSetPoint: i.live.AlarmSetPoint,
	})
	if entry == nil {
		return nil
	}
	i.log.Append(*entry)
	if i.deps.Publisher != nil {
		if err := i.deps.Publisher.PublishLog(*entry); err != nil {
			log.Printf("instrument: publish log entry: %v", err)
		}
	}
	return entry
}

func (i *Instrument) checkAlarm(now time.Time) {
	if i.cond.Samples() == 0 {
		return
	}
	ev := i.alarm.Update(now, i.cond.DoseRate(), i.live.AlarmSetPoint)
	if ev == nil {
		return
	}
	log.Printf("instrument: %s dose=%.2f set_point=%.0f", ev.Type, ev.DoseRate, ev.SetPoint)

	on := ev.Type == logic.EventAlarmOn
	if i.deps.Outputs != nil {
		if err := i.deps.Outputs.Buzzer(on); err != nil {
			log.Printf("instrument: buzzer: %v", err)
		}
		if on {
			i.pulse(logic.HapticError)
		}
	}
	if i.deps.Publisher != nil {
		if err := i.deps.Publisher.PublishAlarm(*ev); err != nil {
			log.Printf("instrument: publish alarm: %v", err)
		}
	}
}

func (i *Instrument) pulse(kind logic.Haptic) {
	if i.deps.Outputs == nil {
		return
	}
	if err := i.deps.Outputs.Pulse(kind); err != nil {
		log.Printf("instrument: haptic %s: %v", kind, err)
	}
}

// HandleAction applies a front-panel action and carries out its effects.
func (i *Instrument) HandleAction(a Action, now time.Time) error {
	env := menu.Env{Live: &i.live, Dose: i.dose}

	var effects []menu.Effect
	var err error
	switch a.Kind {
	case ActionButton:
		effects = i.menu.Press(a.Button, env)
	case ActionSelectCell:
		effects, err = i.menu.SelectCell(a.Row, a.Col)
	case ActionEditCell:
		err = i.menu.EditCell(a.Text)
	case ActionCommitCell:
		err = i.menu.CommitCell()
	case ActionSetCalibration:
		effects, err = i.menu.SetCalibration(env)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownAction, a.Kind)
	}

	i.apply(effects, now)
	// A save may have moved the set point.
	i.checkAlarm(now)
	i.publishStatus()
	return err
}

func (i *Instrument) apply(effects []menu.Effect, now time.Time) {
	for _, e := range effects {
		switch e.Kind {
		case menu.EffectHaptic:
			i.pulse(e.Haptic)
		case menu.EffectExport:
			i.export(now)
		case menu.EffectSaved:
			log.Printf("instrument: parameters saved unit=%s set_point=%.0f factor=%.2f mode=%s",
				i.live.Unit, i.live.AlarmSetPoint, i.live.CalibrationFactor, i.live.CumDoseMode)
			i.notify(now, menu.NoticeSaved)
		case menu.EffectCumDoseReset:
			log.Printf("instrument: cumulative dose reset")
		case menu.EffectManual:
			log.Printf("instrument: manual integration %s dose=%.2f", e.Manual, i.dose.Dose())
		case menu.EffectTableUpdated:
			log.Printf("instrument: calibration table updated (%d points)", len(i.live.Table))
			i.notify(now, e.Notice)
		case menu.EffectNotice:
			if e.Err != nil {
				log.Printf("instrument: %s: %v", e.Notice, e.Err)
			}
			i.notify(now, e.Notice)
		}
	}
}

// export hands the event log to the exporter. Failure is reported once as
// a notice; the log is kept.
func (i *Instrument) export(now time.Time) {
	if i.deps.Exporter == nil {
		return
	}
	path, err := i.deps.Exporter.Export(now, eventlog.FormatCSV(i.log.Entries()))
	if err != nil {
		log.Printf("instrument: export: %v", err)
		i.notify(now, NoticeExportFailed)
		return
	}
	log.Printf("instrument: exported %d entries to %s", i.log.Len(), path)
}

func (i *Instrument) notify(now time.Time, text string) {
	i.notice = text
	i.noticeTime = now
	if i.deps.Publisher == nil {
		return
	}
	ev := mqtt.SystemEvent{Timestamp: now, Event: mqtt.EventNotice, Reason: text}
	if err := i.deps.Publisher.PublishSystem(ev); err != nil {
		log.Printf("instrument: publish notice: %v", err)
	}
}

func (i *Instrument) buildReading(now time.Time) logic.Reading {
	dose := i.gate.Value()
	cps := i.cond.LastCountRate()
	return logic.Reading{
		Timestamp:      now,
		CountRate:      cps,
		DoseRate:       dose,
		CumulativeDose: i.dose.Dose(),
		TimeConstant:   i.cond.TimeConstant(),
		Unit:           i.live.Unit,
		Display:        logic.FormatDose(dose, i.live.Unit, cps),
		Alert:          logic.AlertFor(dose, i.live.AlarmSetPoint),
	}
}

func (i *Instrument) publishStatus() {
	if i.deps.Status != nil {
		i.deps.Status.Update(i.State())
	}
}

// State returns the instrument state for status consumers.
func (i *Instrument) State() status.Instrument {
	return status.Instrument{
		Reading:        i.reading,
		DoseRate:       i.cond.DoseRate(),
		CountRate:      i.cond.LastCountRate(),
		TimeConstant:   i.cond.TimeConstant(),
		CumulativeDose: i.dose.Dose(),
		RunState:       i.dose.RunState(),
		AlarmActive:    i.alarm.Active(),
		BlinkPhase:     i.alarm.BlinkPhase(),
		Alarms:         i.alarm.Activations(),
		Samples:        i.cond.Samples(),
		LogEntries:     i.log.Len(),
		Live:           i.live,
		Menu:           i.menu.View(),
		Notice:         i.notice,
		NoticeTime:     i.noticeTime,
	}
}

// Live returns a copy of the live configuration.
func (i *Instrument) Live() logic.LiveConfig {
	live := i.live
	live.Table = live.Table.Clone()
	return live
}

// Log returns the retained log entries, oldest first.
func (i *Instrument) Log() []logic.LogEntry {
	return i.log.Entries()
}

// CSV returns the event log in export format.
func (i *Instrument) CSV() []byte {
	return eventlog.FormatCSV(i.log.Entries())
}

// Screen returns the active menu screen.
func (i *Instrument) Screen() menu.Screen {
	return i.menu.Screen()
}

// Reading returns the currently displayed reading.
func (i *Instrument) Reading() logic.Reading {
	return i.reading
}
