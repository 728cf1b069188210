package menu

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sweeney/radmon/internal/logic"
)

// Lookup-table columns.
const (
	ColCountRate = 0
	ColDose      = 1
)

// placeholderRows are appended to the working copy for authoring new points.
const placeholderRows = 2

// TableEditor is the working copy of the calibration table while the
// lookup-table screen is open.
type TableEditor struct {
	rows    logic.CalibrationTable
	editing bool
	row     int
	col     int
	buffer  string
}

func newTableEditor(live logic.CalibrationTable) *TableEditor {
	rows := live.Clone()
	for i := 0; i < placeholderRows; i++ {
		rows = append(rows, logic.CalibrationPoint{})
	}
	return &TableEditor{rows: rows}
}

// Rows returns a copy of the working rows, placeholders included.
func (e *TableEditor) Rows() logic.CalibrationTable {
	return e.rows.Clone()
}

// Editing returns the cell being edited and its buffer.
func (e *TableEditor) Editing() (row, col int, buffer string, ok bool) {
	return e.row, e.col, e.buffer, e.editing
}

func (e *TableEditor) selectCell(row, col int) error {
	if row < 0 || row >= len(e.rows) || (col != ColCountRate && col != ColDose) {
		return fmt.Errorf("select cell: (%d, %d) out of range", row, col)
	}
	e.commit()
	e.editing = true
	e.row, e.col = row, col
	if col == ColCountRate {
		e.buffer = strconv.Itoa(e.rows[row].CountRate)
	} else {
		e.buffer = strconv.FormatFloat(e.rows[row].Dose, 'f', -1, 64)
	}
	return nil
}

func (e *TableEditor) edit(text string) {
	if !e.editing {
		return
	}
	e.buffer = digitsOnly(text)
}

// commit writes the buffer to the selected cell. An empty or unparsable
// buffer leaves the cell unchanged.
func (e *TableEditor) commit() {
	if !e.editing {
		return
	}
	if v, err := strconv.Atoi(e.buffer); err == nil {
		if e.col == ColCountRate {
			e.rows[e.row].CountRate = v
		} else {
			e.rows[e.row].Dose = float64(v)
		}
	}
	e.editing = false
	e.buffer = ""
}

// result drops cleared rows after the origin and orders the rest by count rate.
func (e *TableEditor) result() (logic.CalibrationTable, error) {
	e.commit()
	out := make(logic.CalibrationTable, 0, len(e.rows))
	for i, p := range e.rows {
		if i > 0 && p.CountRate == 0 && p.Dose == 0 {
			continue
		}
		out = append(out, p)
	}
	out = out.Sorted()
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
