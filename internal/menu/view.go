package menu

import (
	"fmt"
	"strconv"

	"github.com/sweeney/radmon/internal/logic"
)

// PlaceholderText marks an unused lookup-table cell.
const PlaceholderText = "Tap to add"

// Row is one visible line of a list screen.
type Row struct {
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// Cell is one rendered lookup-table cell.
type Cell struct {
	Text        string `json:"text"`
	Placeholder bool   `json:"placeholder"`
	Editing     bool   `json:"editing"`
}

// TableRow is one rendered lookup-table row.
type TableRow struct {
	CountRate Cell `json:"cps"`
	Dose      Cell `json:"dose"`
}

// View is a render-ready description of the active screen.
type View struct {
	Screen  Screen     `json:"screen"`
	Title   string     `json:"title,omitempty"`
	Rows    []Row      `json:"rows,omitempty"`
	Digits  []int      `json:"digits,omitempty"`
	Digit   int        `json:"digit"`
	Table   []TableRow `json:"table,omitempty"`
	Message string     `json:"message,omitempty"`
	Notice  string     `json:"notice,omitempty"`
	Staged  Staged     `json:"staged"`
}

// View describes the active screen.
func (c *Controller) View() View {
	v := View{Screen: c.screen, Notice: c.notice, Staged: c.staged}
	switch c.screen {
	case ScreenPrgMenu:
		v.Title = "PRG Menu"
		v.Rows = rows(c.prg, func(i int) string { return PrgOptions[i] })
	case ScreenUnitSelect:
		v.Title = "Select Unit:"
		v.Rows = rows(c.unit, func(i int) string { return string(logic.Units[i]) })
	case ScreenAlarmSetPointSelect:
		v.Title = "Alarm Set Point:"
		v.Rows = rows(c.alarm, func(i int) string { return fmt.Sprintf("%.1f mR/h", c.alarmOptions[i]) })
	case ScreenCalibrationEdit:
		v.Title = "Calibration Factor"
		digits := c.digits
		v.Digits = digits[:]
		v.Digit = c.digit
		v.Message = "Use UP/DOWN to change, ENT to select next digit"
	case ScreenCumDoseResetConfirm:
		v.Title = "Reset Cum Dose?"
		v.Rows = rows(c.choice, func(i int) string { return []string{"Yes", "No"}[i] })
	case ScreenCumDoseModeSelect:
		v.Title = "Cum Dose Mode:"
		v.Rows = rows(c.choice, func(i int) string { return []string{"Auto", "Manual"}[i] })
	case ScreenLookupTableEdit:
		v.Title = "CPS vs Dose Calibration Table"
		v.Table = tableRows(c.table)
	case ScreenSaveConfirmation:
		v.Title = "Save Parameters"
		v.Message = "Result: Saved"
	}
	return v
}

func rows(c Cursor, label func(int) string) []Row {
	start, end := c.Window()
	out := make([]Row, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, Row{Label: label(i), Selected: i == c.Index})
	}
	return out
}

func tableRows(e *TableEditor) []TableRow {
	if e == nil {
		return nil
	}
	out := make([]TableRow, len(e.rows))
	for i, p := range e.rows {
		out[i].CountRate = cell(i, p.CountRate == 0, strconv.Itoa(p.CountRate))
		out[i].Dose = cell(i, p.Dose == 0, strconv.FormatFloat(p.Dose, 'f', -1, 64))
		if e.editing && e.row == i {
			target := &out[i].CountRate
			if e.col == ColDose {
				target = &out[i].Dose
			}
			*target = Cell{Text: e.buffer, Editing: true}
		}
	}
	return out
}

func cell(row int, zero bool, text string) Cell {
	if zero && row > 0 {
		return Cell{Text: PlaceholderText, Placeholder: true}
	}
	return Cell{Text: text}
}
