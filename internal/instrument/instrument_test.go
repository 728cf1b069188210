package instrument

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/radmon/internal/eventlog"
	"github.com/sweeney/radmon/internal/gpio"
	"github.com/sweeney/radmon/internal/logic"
	"github.com/sweeney/radmon/internal/menu"
	"github.com/sweeney/radmon/internal/mqtt"
	"github.com/sweeney/radmon/internal/status"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

type rig struct {
	inst     *Instrument
	pub      *mqtt.FakePublisher
	out      *gpio.FakeOutputs
	exporter *eventlog.FakeExporter
	tracker  *status.Tracker
}

func newRig(t *testing.T, live logic.LiveConfig) *rig {
	t.Helper()
	r := &rig{
		pub:      mqtt.NewFakePublisher(),
		out:      gpio.NewFakeOutputs(),
		exporter: &eventlog.FakeExporter{},
		tracker:  status.NewTracker("test", t0, status.Config{}),
	}
	r.inst = New(live, t0, Deps{
		Publisher: r.pub,
		Outputs:   r.out,
		Exporter:  r.exporter,
		Status:    r.tracker,
		Now:       func() time.Time { return t0 },
	})
	return r
}

func (r *rig) press(t *testing.T, buttons ...menu.Button) {
	t.Helper()
	for _, b := range buttons {
		require.NoError(t, r.inst.HandleAction(Press(b), t0))
	}
}

func TestHandleFrameDropsNoise(t *testing.T) {
	r := newRig(t, logic.DefaultLiveConfig())

	assert.False(t, r.inst.HandleFrame("hello", t0))
	assert.False(t, r.inst.HandleFrame("Cnts:!", t0))
	assert.Equal(t, uint64(0), r.inst.State().Samples)

	assert.True(t, r.inst.HandleFrame("junk Cnts:100! Cnts:5!", t0))
	st := r.inst.State()
	assert.Equal(t, uint64(1), st.Samples)
	assert.Equal(t, 100, st.CountRate)
	assert.InDelta(t, 10.0, st.DoseRate, 1e-9)
	assert.Equal(t, logic.TimeConstantLow, st.TimeConstant)
}

func TestSamplePublishesStatus(t *testing.T) {
	r := newRig(t, logic.DefaultLiveConfig())

	r.inst.HandleSample(100, t0)

	snap := r.tracker.Snapshot()
	assert.Equal(t, uint64(1), snap.Instrument.Samples)
	assert.Equal(t, menu.ScreenNormal, snap.Instrument.Menu.Screen)
}

func TestAlarmEdges(t *testing.T) {
	live := logic.DefaultLiveConfig()
	live.AlarmSetPoint = 5
	r := newRig(t, live)

	r.inst.HandleSample(100, t0)
	require.True(t, r.inst.State().AlarmActive)

	on, pulses := r.out.Snapshot()
	assert.True(t, on, "buzzer should sound")
	assert.Equal(t, []logic.Haptic{logic.HapticError}, pulses)
	require.Len(t, r.pub.Alarms, 1)
	assert.Equal(t, logic.EventAlarmOn, r.pub.Alarms[0].Type)

	for k := 1; k <= 5; k++ {
		r.inst.HandleSample(0, t0.Add(time.Duration(k)*time.Second))
	}

	assert.False(t, r.inst.State().AlarmActive)
	on, _ = r.out.Snapshot()
	assert.False(t, on, "buzzer should stop")
	require.Len(t, r.pub.Alarms, 2)
	assert.Equal(t, logic.EventAlarmOff, r.pub.Alarms[1].Type)
	assert.Equal(t, 1, r.inst.State().Alarms)
}

func TestBlinkOnlyWhileActive(t *testing.T) {
	live := logic.DefaultLiveConfig()
	live.AlarmSetPoint = 5
	r := newRig(t, live)

	assert.False(t, r.inst.HandleBlink())

	r.inst.HandleSample(100, t0)
	assert.True(t, r.inst.HandleBlink())
	assert.False(t, r.inst.HandleBlink())
	assert.True(t, r.inst.HandleBlink())
	assert.True(t, r.tracker.Snapshot().Instrument.BlinkPhase)
}

func TestIntegratorIdleBeforeFirstSample(t *testing.T) {
	r := newRig(t, logic.DefaultLiveConfig())

	assert.Nil(t, r.inst.HandleIntegratorTick(t0.Add(time.Hour)))
	assert.Empty(t, r.inst.Log())
}

func TestIntegratorFiresOnTimeConstant(t *testing.T) {
	r := newRig(t, logic.DefaultLiveConfig())

	r.inst.HandleSample(100, t0)
	assert.Nil(t, r.inst.HandleIntegratorTick(t0.Add(7*time.Second)))

	entry := r.inst.HandleIntegratorTick(t0.Add(8 * time.Second))
	require.NotNil(t, entry)
	assert.Equal(t, 100, entry.CountRate)
	assert.InDelta(t, 10.0/3600*8, entry.CumulativeDose, 1e-9)
	assert.Equal(t, logic.AlertNormal, entry.Alert)

	assert.Len(t, r.inst.Log(), 1)
	assert.Len(t, r.pub.Logs, 1)
	assert.Equal(t, 1, r.tracker.Snapshot().Instrument.LogEntries)
}

func TestIntegratorCheckedOnSample(t *testing.T) {
	r := newRig(t, logic.DefaultLiveConfig())

	r.inst.HandleSample(100, t0)
	r.inst.HandleSample(100, t0.Add(8*time.Second))

	assert.Len(t, r.inst.Log(), 1)
}

func TestManualModeHoldsDoseUntilStarted(t *testing.T) {
	live := logic.DefaultLiveConfig()
	live.CumDoseMode = logic.ModeManual
	r := newRig(t, live)

	r.inst.HandleSample(100, t0)
	entry := r.inst.HandleIntegratorTick(t0.Add(8 * time.Second))
	require.NotNil(t, entry)
	assert.Zero(t, entry.CumulativeDose)

	r.press(t, menu.ButtonEnt)
	assert.Equal(t, logic.RunRunning, r.inst.State().RunState)

	entry = r.inst.HandleIntegratorTick(t0.Add(16 * time.Second))
	require.NotNil(t, entry)
	assert.Greater(t, entry.CumulativeDose, 0.0)

	r.press(t, menu.ButtonExt)
	assert.Equal(t, logic.RunArmedRestart, r.inst.State().RunState)
}

func TestDisplayThrottle(t *testing.T) {
	r := newRig(t, logic.DefaultLiveConfig())

	r.inst.HandleDisplayTick(t0.Add(5 * time.Second))
	assert.Empty(t, r.pub.Readings, "no reading before the first sample")

	r.inst.HandleSample(100, t0)
	r.inst.HandleDisplayTick(t0.Add(1 * time.Second))
	assert.Empty(t, r.pub.Readings)

	r.inst.HandleDisplayTick(t0.Add(4 * time.Second))
	require.Len(t, r.pub.Readings, 1)
	got := r.pub.Readings[0]
	assert.Equal(t, "10.00 mR/h", got.Display)
	assert.Equal(t, 100, got.CountRate)
	assert.Equal(t, got, r.inst.Reading())
	assert.Equal(t, got.Display, r.tracker.Snapshot().Instrument.Reading.Display)
}

func TestButtonPulsesHaptic(t *testing.T) {
	r := newRig(t, logic.DefaultLiveConfig())

	r.press(t, menu.ButtonPrg, menu.ButtonDown, menu.ButtonEnt)

	_, pulses := r.out.Snapshot()
	assert.Equal(t, []logic.Haptic{logic.HapticMedium, logic.HapticLight, logic.HapticHeavy}, pulses)
	assert.Equal(t, menu.ScreenAlarmSetPointSelect, r.inst.Screen())
}

func TestSaveAppliesLiveAndRechecksAlarm(t *testing.T) {
	r := newRig(t, logic.DefaultLiveConfig())
	r.inst.HandleSample(100, t0)
	require.False(t, r.inst.State().AlarmActive)

	// Alarm Set Point, wrap from 200 to 5, then Save Parameters.
	r.press(t, menu.ButtonPrg, menu.ButtonDown, menu.ButtonEnt, menu.ButtonDown, menu.ButtonEnt)
	assert.Equal(t, 1000.0, r.inst.Live().AlarmSetPoint, "staged value must not leak into live")

	r.press(t, menu.ButtonUp, menu.ButtonUp, menu.ButtonEnt)
	// Cursor was on option 1; two UPs land on 7.
	assert.Equal(t, menu.ScreenSaveConfirmation, r.inst.Screen())
	assert.Equal(t, 5.0, r.inst.Live().AlarmSetPoint)
	assert.True(t, r.inst.State().AlarmActive)
	assert.Equal(t, menu.NoticeSaved, r.inst.State().Notice)
	assert.Contains(t, r.pub.SystemEventNames(), mqtt.EventNotice)
}

func TestExportHandsCSVToExporter(t *testing.T) {
	r := newRig(t, logic.DefaultLiveConfig())
	r.inst.HandleSample(100, t0)
	r.inst.HandleIntegratorTick(t0.Add(8 * time.Second))

	// Data Download is two UPs from the top.
	r.press(t, menu.ButtonPrg, menu.ButtonUp, menu.ButtonUp, menu.ButtonEnt)

	require.Equal(t, 1, r.exporter.Count())
	assert.Equal(t, r.inst.CSV(), r.exporter.Exports[0])
	assert.Equal(t, menu.ScreenNormal, r.inst.Screen())
	assert.Empty(t, r.inst.State().Notice)
}

func TestExportFailureRaisesNotice(t *testing.T) {
	r := newRig(t, logic.DefaultLiveConfig())
	r.exporter.ExportError = errors.New("share sheet dismissed")

	r.press(t, menu.ButtonPrg, menu.ButtonUp, menu.ButtonUp, menu.ButtonEnt)

	assert.Equal(t, NoticeExportFailed, r.inst.State().Notice)
	require.NotEmpty(t, r.pub.SystemEvents)
	last := r.pub.SystemEvents[len(r.pub.SystemEvents)-1]
	assert.Equal(t, mqtt.EventNotice, last.Event)
	assert.Equal(t, NoticeExportFailed, last.Reason)
}

func openTable(t *testing.T, r *rig) {
	t.Helper()
	// Read/Set Lookup Table is option 5: three UPs from the top.
	r.press(t, menu.ButtonPrg, menu.ButtonUp, menu.ButtonUp, menu.ButtonUp, menu.ButtonEnt)
	require.Equal(t, menu.ScreenLookupTableEdit, r.inst.Screen())
}

func TestSetCalibrationReplacesTable(t *testing.T) {
	r := newRig(t, logic.DefaultLiveConfig())
	openTable(t, r)

	n := len(logic.DefaultCalibrationTable())
	require.NoError(t, r.inst.HandleAction(Action{Kind: ActionSelectCell, Row: n, Col: menu.ColCountRate}, t0))
	require.NoError(t, r.inst.HandleAction(Action{Kind: ActionEditCell, Text: "30000"}, t0))
	require.NoError(t, r.inst.HandleAction(Action{Kind: ActionSelectCell, Row: n, Col: menu.ColDose}, t0))
	require.NoError(t, r.inst.HandleAction(Action{Kind: ActionEditCell, Text: "12000"}, t0))
	require.NoError(t, r.inst.HandleAction(Action{Kind: ActionSetCalibration}, t0))

	table := r.inst.Live().Table
	require.Len(t, table, n+1)
	assert.Equal(t, logic.CalibrationPoint{CountRate: 30000, Dose: 12000}, table[n])
	assert.Equal(t, menu.ScreenPrgMenu, r.inst.Screen())
	assert.Equal(t, menu.NoticeCalibrationUpdated, r.inst.State().Notice)
}

func TestSetCalibrationRejectsInvalidTable(t *testing.T) {
	r := newRig(t, logic.DefaultLiveConfig())
	openTable(t, r)

	require.NoError(t, r.inst.HandleAction(Action{Kind: ActionSelectCell, Row: 1, Col: menu.ColCountRate}, t0))
	require.NoError(t, r.inst.HandleAction(Action{Kind: ActionEditCell, Text: "50"}, t0))

	err := r.inst.HandleAction(Action{Kind: ActionSetCalibration}, t0)
	require.ErrorIs(t, err, logic.ErrTableNotAscending)
	assert.Equal(t, menu.ScreenLookupTableEdit, r.inst.Screen())
	assert.Equal(t, menu.NoticeInvalidTable, r.inst.State().Notice)
	assert.Equal(t, logic.DefaultCalibrationTable(), r.inst.Live().Table)
}

func TestCellActionsOutsideEditor(t *testing.T) {
	r := newRig(t, logic.DefaultLiveConfig())

	err := r.inst.HandleAction(Action{Kind: ActionSelectCell, Row: 0, Col: 0}, t0)
	assert.ErrorIs(t, err, menu.ErrNotEditingTable)
}

func TestUnknownAction(t *testing.T) {
	r := newRig(t, logic.DefaultLiveConfig())

	err := r.inst.HandleAction(Action{Kind: "DANCE"}, t0)
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestCollaboratorFailuresAreAbsorbed(t *testing.T) {
	live := logic.DefaultLiveConfig()
	live.AlarmSetPoint = 5
	r := newRig(t, live)
	r.pub.PublishError = errors.New("broker down")
	r.out.PulseError = errors.New("motor stuck")

	r.inst.HandleSample(100, t0)
	r.inst.HandleDisplayTick(t0.Add(4 * time.Second))
	r.press(t, menu.ButtonPrg)

	assert.True(t, r.inst.State().AlarmActive)
	assert.Equal(t, menu.ScreenPrgMenu, r.inst.Screen())
}

func TestNilCollaborators(t *testing.T) {
	inst := New(logic.DefaultLiveConfig(), t0, Deps{})

	inst.HandleSample(30000, t0)
	inst.HandleDisplayTick(t0.Add(2 * time.Second))
	require.NoError(t, inst.HandleAction(Press(menu.ButtonPrg), t0))
	assert.Equal(t, 10000.0, inst.Reading().DoseRate)
}

func TestLiveIsACopy(t *testing.T) {
	r := newRig(t, logic.DefaultLiveConfig())

	live := r.inst.Live()
	live.Table[1].Dose = math.Pi

	assert.Equal(t, logic.DefaultCalibrationTable(), r.inst.Live().Table)
}
