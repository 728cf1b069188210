// Package panel provides the Bubble Tea terminal front panel: keys map onto
// the five instrument buttons and the lookup-table cell actions, and the
// screen mirrors the instrument status.
package panel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/sweeney/radmon/internal/instrument"
	"github.com/sweeney/radmon/internal/logic"
	"github.com/sweeney/radmon/internal/menu"
	"github.com/sweeney/radmon/internal/status"
)

const (
	actionTimeout = 2 * time.Second
	cellWidth     = 10
)

// Controller reaches the running instrument. *instrument.Remote implements it.
type Controller interface {
	Do(ctx context.Context, a instrument.Action) error
}

type statusMsg struct{}

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	readingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	alarmStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	alarmDimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E1F20")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	boxStyle      = lipgloss.NewStyle().
			Padding(0, 2).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

// Model implements the Bubble Tea front panel.
type Model struct {
	ctrl    Controller
	tracker *status.Tracker
	ann     *Annunciator
	wake    <-chan struct{}

	snap status.Snapshot

	width  int
	height int

	row, col int
	input    textinput.Model
	err      string
}

// NewModel creates a panel that sends actions to ctrl and redraws on every
// tracker update received on wake. ann may be nil.
func NewModel(ctrl Controller, tracker *status.Tracker, wake <-chan struct{}, ann *Annunciator) *Model {
	input := textinput.New()
	input.Prompt = "Value: "
	input.Placeholder = "digits"
	input.CharLimit = 9
	return &Model{
		ctrl:    ctrl,
		tracker: tracker,
		ann:     ann,
		wake:    wake,
		snap:    tracker.Snapshot(),
		input:   input,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.waitForStatus()
}

func (m *Model) waitForStatus() tea.Cmd {
	if m.wake == nil {
		return nil
	}
	wake := m.wake
	return func() tea.Msg {
		<-wake
		return statusMsg{}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case statusMsg:
		m.refresh()
		return m, m.waitForStatus()
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.input.Focused() {
			return m.updateInput(msg)
		}
		if m.snap.Instrument.Menu.Screen == menu.ScreenLookupTableEdit {
			return m.updateTable(msg)
		}
		return m.updateButtons(msg)
	}
	return m, nil
}

func (m *Model) updateButtons(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "p":
		m.press(menu.ButtonPrg)
	case "enter", " ":
		m.press(menu.ButtonEnt)
	case "esc", "backspace":
		m.press(menu.ButtonExt)
	case "up", "k":
		m.press(menu.ButtonUp)
	case "down", "j":
		m.press(menu.ButtonDown)
	}
	return m, nil
}

// updateTable drives the lookup-table editor: arrows move between cells,
// enter edits the selected cell, s sets the table, esc leaves without it.
func (m *Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := len(m.snap.Instrument.Menu.Table)
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.row > 0 {
			m.row--
		}
	case "down", "j":
		if m.row < rows-1 {
			m.row++
		}
	case "left", "h", "right", "l", "tab":
		m.col = 1 - m.col
	case "enter":
		if !m.do(instrument.Action{Kind: instrument.ActionSelectCell, Row: m.row, Col: m.col}) {
			return m, nil
		}
		m.input.SetValue(m.cellText())
		m.input.CursorEnd()
		return m, m.input.Focus()
	case "s":
		m.do(instrument.Action{Kind: instrument.ActionSetCalibration})
	case "p":
		m.press(menu.ButtonPrg)
	case "esc":
		m.press(menu.ButtonExt)
	}
	return m, nil
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc, tea.KeyTab:
		m.input.Blur()
		m.do(instrument.Action{Kind: instrument.ActionCommitCell})
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.do(instrument.Action{Kind: instrument.ActionEditCell, Text: m.input.Value()})
	return m, cmd
}

func (m *Model) cellText() string {
	table := m.snap.Instrument.Menu.Table
	if m.row >= len(table) {
		return ""
	}
	c := table[m.row].CountRate
	if m.col == menu.ColDose {
		c = table[m.row].Dose
	}
	if c.Placeholder {
		return ""
	}
	return c.Text
}

func (m *Model) press(b menu.Button) {
	m.do(instrument.Press(b))
}

// do runs a inside the instrument loop and refreshes the snapshot.
func (m *Model) do(a instrument.Action) bool {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()
	err := m.ctrl.Do(ctx, a)
	m.refresh()
	if err != nil {
		m.err = err.Error()
		return false
	}
	m.err = ""
	return true
}

func (m *Model) refresh() {
	prev := m.snap.Instrument.Menu.Screen
	m.snap = m.tracker.Snapshot()
	if m.snap.Instrument.Menu.Screen != prev {
		m.row, m.col = 0, 0
		m.input.Blur()
	}
	if rows := len(m.snap.Instrument.Menu.Table); m.row >= rows && rows > 0 {
		m.row = rows - 1
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	inst := m.snap.Instrument
	sections := []string{
		titleStyle.Render("RADIATION MONITOR"),
		m.renderReading(inst),
		m.renderStats(inst),
		"",
		m.renderMenu(inst.Menu),
	}
	if inst.Notice != "" {
		sections = append(sections, noticeStyle.Render(inst.Notice))
	}
	if m.err != "" {
		sections = append(sections, errorStyle.Render(m.err))
	}
	body := boxStyle.Render(strings.Join(sections, "\n"))
	footer := footerStyle.Render(m.renderFooter(inst.Menu.Screen))

	if m.width == 0 || m.height == 0 {
		return body + "\n" + footer
	}
	return lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, body) + "\n" +
		lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
}

func (m *Model) renderReading(inst status.Instrument) string {
	text := inst.Reading.Display
	if text == "" {
		text = "--"
	}
	switch {
	case inst.AlarmActive && inst.BlinkPhase:
		return alarmDimStyle.Render(text + "  ALARM")
	case inst.AlarmActive:
		return alarmStyle.Render(text + "  ALARM")
	}
	return readingStyle.Render(text)
}

func (m *Model) renderStats(inst status.Instrument) string {
	mode := string(inst.Live.CumDoseMode)
	if inst.Live.CumDoseMode == logic.ModeManual {
		mode += " " + string(inst.RunState)
	}
	line := fmt.Sprintf("CPS %d  TC %d  Dose %s  %s",
		inst.CountRate, inst.TimeConstant,
		logic.FormatCumulativeDose(inst.CumulativeDose, inst.Live.Unit, inst.CountRate), mode)
	if m.ann != nil {
		if m.ann.BuzzerOn() {
			line += "  BUZZER"
		}
		if kind, ok := m.ann.Recent(time.Now()); ok {
			line += "  ~" + string(kind)
		}
	}
	return mutedStyle.Render(line)
}

func (m *Model) renderMenu(v menu.View) string {
	if v.Screen == menu.ScreenNormal {
		return mutedStyle.Render(fmt.Sprintf("Set point %.0f mR/h  Unit %s", m.snap.Instrument.Live.AlarmSetPoint, m.snap.Instrument.Live.Unit))
	}

	lines := []string{titleStyle.Render(v.Title)}
	for _, r := range v.Rows {
		if r.Selected {
			lines = append(lines, selectedStyle.Render("> "+r.Label))
		} else {
			lines = append(lines, "  "+r.Label)
		}
	}
	if len(v.Digits) > 0 {
		var b strings.Builder
		for i, d := range v.Digits {
			if i == 1 {
				b.WriteString(".")
			}
			s := fmt.Sprintf("%d", d)
			if i == v.Digit {
				s = selectedStyle.Render("[" + s + "]")
			}
			b.WriteString(s)
		}
		lines = append(lines, b.String())
	}
	for i, r := range v.Table {
		lines = append(lines, m.renderCell(i, 0, r.CountRate)+"  "+m.renderCell(i, 1, r.Dose))
	}
	if m.input.Focused() {
		lines = append(lines, m.input.View())
	}
	if v.Message != "" {
		lines = append(lines, mutedStyle.Render(v.Message))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderCell(row, col int, c menu.Cell) string {
	text := runewidth.FillRight(runewidth.Truncate(c.Text, cellWidth, ""), cellWidth)
	switch {
	case row == m.row && col == m.col:
		return selectedStyle.Render("[" + text + "]")
	case c.Placeholder:
		return " " + mutedStyle.Render(text) + " "
	}
	return " " + text + " "
}

func (m *Model) renderFooter(screen menu.Screen) string {
	switch {
	case m.input.Focused():
		return "digits: value  enter: commit"
	case screen == menu.ScreenLookupTableEdit:
		return "arrows: cell  enter: edit  s: set calibration  esc: back"
	case screen == menu.ScreenNormal:
		return "p: PRG  enter: ENT/SRT  esc: EXT/STP  q: quit"
	}
	return "up/down: move  enter: ENT  esc: EXT  p: PRG  q: quit"
}
