package panel

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/radmon/internal/instrument"
	"github.com/sweeney/radmon/internal/logic"
	"github.com/sweeney/radmon/internal/menu"
	"github.com/sweeney/radmon/internal/status"
)

var t0 = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

// directController applies actions to an instrument on the caller's goroutine.
type directController struct {
	inst    *instrument.Instrument
	actions []instrument.Action
	err     error
}

func (c *directController) Do(_ context.Context, a instrument.Action) error {
	c.actions = append(c.actions, a)
	if c.err != nil {
		return c.err
	}
	return c.inst.HandleAction(a, t0)
}

func newTestModel(t *testing.T) (*Model, *directController) {
	t.Helper()
	return newTestModelWith(t, logic.DefaultLiveConfig())
}

func newTestModelWith(t *testing.T, live logic.LiveConfig) (*Model, *directController) {
	t.Helper()
	tracker := status.NewTracker("test", t0, status.Config{})
	inst := instrument.New(live, t0, instrument.Deps{
		Status: tracker,
		Now:    func() time.Time { return t0 },
	})
	ctrl := &directController{inst: inst}
	return NewModel(ctrl, tracker, nil, nil), ctrl
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m *Model, keys ...string) {
	for _, k := range keys {
		m.Update(key(k))
	}
}

func buttons(actions []instrument.Action) []menu.Button {
	var out []menu.Button
	for _, a := range actions {
		if a.Kind == instrument.ActionButton {
			out = append(out, a.Button)
		}
	}
	return out
}

func TestKeysMapToButtons(t *testing.T) {
	m, ctrl := newTestModel(t)

	send(m, "p", "down", "j", "up", "k", "enter", "esc")

	assert.Equal(t, []menu.Button{
		menu.ButtonPrg, menu.ButtonDown, menu.ButtonDown,
		menu.ButtonUp, menu.ButtonUp, menu.ButtonEnt, menu.ButtonExt,
	}, buttons(ctrl.actions))
}

func TestPrgMenuRendersOptions(t *testing.T) {
	m, _ := newTestModel(t)

	send(m, "p", "down")

	out := m.View()
	assert.Contains(t, out, "PRG Menu")
	assert.Contains(t, out, "> "+menu.PrgOptions[1])
	assert.Contains(t, out, menu.PrgOptions[7])
}

func TestNormalScreenShowsReading(t *testing.T) {
	m, ctrl := newTestModel(t)
	ctrl.inst.HandleSample(100, t0)
	ctrl.inst.HandleDisplayTick(t0.Add(5 * time.Second))

	m.Update(statusMsg{})

	out := m.View()
	assert.Contains(t, out, "RADIATION MONITOR")
	assert.Contains(t, out, "10.00 mR/h")
	assert.Contains(t, out, "CPS 100")
	assert.NotContains(t, out, "ALARM")
}

func TestAlarmShownInView(t *testing.T) {
	live := logic.DefaultLiveConfig()
	live.AlarmSetPoint = 5
	m, ctrl := newTestModelWith(t, live)
	ctrl.inst.HandleSample(100, t0)

	m.Update(statusMsg{})

	assert.True(t, m.snap.Instrument.AlarmActive)
	assert.Contains(t, m.View(), "ALARM")
}

func openTable(m *Model) {
	send(m, "p")
	for range 5 {
		send(m, "down")
	}
	send(m, "enter")
}

func TestTableEditing(t *testing.T) {
	m, ctrl := newTestModel(t)
	openTable(m)
	require.Equal(t, menu.ScreenLookupTableEdit, m.snap.Instrument.Menu.Screen)

	send(m, "down", "enter")
	require.True(t, m.input.Focused())
	assert.Equal(t, "20", m.input.Value())

	send(m, "0", "enter")
	assert.False(t, m.input.Focused())
	assert.Equal(t, "200", m.snap.Instrument.Menu.Table[1].CountRate.Text)

	var kinds []instrument.ActionKind
	for _, a := range ctrl.actions {
		kinds = append(kinds, a.Kind)
	}
	assert.Contains(t, kinds, instrument.ActionSelectCell)
	assert.Contains(t, kinds, instrument.ActionEditCell)
	assert.Contains(t, kinds, instrument.ActionCommitCell)

	last := ctrl.actions[len(ctrl.actions)-1]
	assert.Equal(t, instrument.ActionCommitCell, last.Kind)
}

func TestTableCursorMovesBetweenColumns(t *testing.T) {
	m, ctrl := newTestModel(t)
	openTable(m)

	send(m, "down", "right", "enter")

	a := ctrl.actions[len(ctrl.actions)-1]
	assert.Equal(t, instrument.ActionSelectCell, a.Kind)
	assert.Equal(t, 1, a.Row)
	assert.Equal(t, menu.ColDose, a.Col)
	assert.Equal(t, "2", m.input.Value())
}

func TestSetCalibrationFromTable(t *testing.T) {
	m, ctrl := newTestModel(t)
	openTable(m)

	send(m, "s")

	assert.Equal(t, instrument.ActionSetCalibration, ctrl.actions[len(ctrl.actions)-1].Kind)
	assert.Equal(t, menu.NoticeCalibrationUpdated, m.snap.Instrument.Notice)
	assert.Contains(t, m.View(), menu.NoticeCalibrationUpdated)
}

func TestLeavingTableResetsCursor(t *testing.T) {
	m, _ := newTestModel(t)
	openTable(m)
	send(m, "down")
	assert.Equal(t, 1, m.row)

	send(m, "esc")

	assert.Equal(t, menu.ScreenPrgMenu, m.snap.Instrument.Menu.Screen)
	assert.Equal(t, 0, m.row)
}

func TestControllerErrorShown(t *testing.T) {
	m, ctrl := newTestModel(t)
	ctrl.err = errors.New("instrument stopped")

	send(m, "p")

	assert.Contains(t, m.View(), "instrument stopped")

	ctrl.err = nil
	send(m, "esc")
	assert.NotContains(t, m.View(), "instrument stopped")
}

func TestQuitKeys(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	_, cmd = m.Update(key("ctrl+c"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestStatusWakeup(t *testing.T) {
	tracker := status.NewTracker("test", t0, status.Config{})
	wake, unsubscribe := tracker.Subscribe()
	defer unsubscribe()
	m := NewModel(&directController{}, tracker, wake, nil)

	cmd := m.Init()
	require.NotNil(t, cmd)

	tracker.Update(status.Instrument{CountRate: 42})
	msg := cmd()
	assert.Equal(t, statusMsg{}, msg)

	_, next := m.Update(msg)
	assert.NotNil(t, next)
	assert.Equal(t, 42, m.snap.Instrument.CountRate)
}

func TestWindowSizeCentersView(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	assert.Equal(t, 100, m.width)
	assert.Contains(t, m.View(), "RADIATION MONITOR")
}

func TestPrgIgnoredInTableEditor(t *testing.T) {
	m, ctrl := newTestModel(t)
	openTable(m)

	send(m, "p")

	assert.Equal(t, menu.ButtonPrg, ctrl.actions[len(ctrl.actions)-1].Button)
	assert.Equal(t, menu.ScreenLookupTableEdit, m.snap.Instrument.Menu.Screen)
}

func TestAnnunciatorShownInView(t *testing.T) {
	tracker := status.NewTracker("test", t0, status.Config{})
	ann := NewAnnunciator()
	m := NewModel(&directController{}, tracker, nil, ann)

	assert.NotContains(t, m.View(), "BUZZER")

	require.NoError(t, ann.Buzzer(true))
	require.NoError(t, ann.Pulse(logic.HapticHeavy))

	out := m.View()
	assert.Contains(t, out, "BUZZER")
	assert.Contains(t, out, string(logic.HapticHeavy))
}
