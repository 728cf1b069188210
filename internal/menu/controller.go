package menu

import (
	"fmt"
	"math"

	"github.com/sweeney/radmon/internal/logic"
)

// Binary option indices for the two-choice screens.
const (
	choiceYes    = 0
	choiceNo     = 1
	choiceAuto   = 0
	choiceManual = 1
)

// Controller is the menu state machine.
type Controller struct {
	screen       Screen
	staged       Staged
	alarmOptions []float64

	prg    Cursor
	unit   Cursor
	alarm  Cursor
	choice Cursor

	digits [3]int
	digit  int

	table  *TableEditor
	notice string
}

// NewController creates a controller on the Normal screen. An empty
// alarmOptions selects DefaultAlarmOptions.
func NewController(alarmOptions []float64) *Controller {
	if len(alarmOptions) == 0 {
		alarmOptions = DefaultAlarmOptions
	}
	return &Controller{
		screen:       ScreenNormal,
		alarmOptions: append([]float64(nil), alarmOptions...),
		prg:          NewCursor(len(PrgOptions), WindowSize, 0),
	}
}

// Screen returns the active screen.
func (c *Controller) Screen() Screen {
	return c.screen
}

// Staged returns the staged configuration.
func (c *Controller) Staged() Staged {
	return c.staged
}

// Notice returns the last user-visible notice, cleared by the next press.
func (c *Controller) Notice() string {
	return c.notice
}

// AlarmOptions returns the selectable alarm set points.
func (c *Controller) AlarmOptions() []float64 {
	return append([]float64(nil), c.alarmOptions...)
}

// Press handles one button event and returns the side effects to perform.
// The first effect is always the haptic pulse for the button.
func (c *Controller) Press(b Button, env Env) []Effect {
	c.notice = ""
	effects := []Effect{{Kind: EffectHaptic, Haptic: b.Haptic()}}

	switch b {
	case ButtonPrg:
		c.pressPrg(env)
	case ButtonUp:
		c.move(true)
	case ButtonDown:
		c.move(false)
	case ButtonEnt:
		effects = append(effects, c.pressEnt(env)...)
	case ButtonExt:
		effects = append(effects, c.pressExt(env)...)
	}
	return effects
}

// pressPrg toggles Normal and PrgMenu. Editor screens ignore it.
func (c *Controller) pressPrg(env Env) {
	switch c.screen {
	case ScreenNormal:
		c.openPrgMenu(env)
	case ScreenPrgMenu:
		c.screen = ScreenNormal
	}
}

func (c *Controller) openPrgMenu(env Env) {
	c.staged = stageFrom(env.Live)
	c.prg = NewCursor(len(PrgOptions), WindowSize, 0)
	c.screen = ScreenPrgMenu
}

func (c *Controller) move(up bool) {
	var cur *Cursor
	switch c.screen {
	case ScreenPrgMenu:
		cur = &c.prg
	case ScreenUnitSelect:
		cur = &c.unit
	case ScreenAlarmSetPointSelect:
		cur = &c.alarm
	case ScreenCumDoseResetConfirm, ScreenCumDoseModeSelect:
		cur = &c.choice
	case ScreenCalibrationEdit:
		c.stepDigit(up)
		return
	default:
		return
	}
	if up {
		cur.Up()
	} else {
		cur.Down()
	}
}

// stepDigit changes the selected calibration digit. The integer digit
// toggles between 0 and 1; decimals wrap modulo 10.
func (c *Controller) stepDigit(up bool) {
	d := &c.digits[c.digit]
	if c.digit == 0 {
		*d = 1 - *d
		return
	}
	if up {
		*d = (*d + 1) % 10
	} else {
		*d = (*d + 9) % 10
	}
}

func (c *Controller) pressEnt(env Env) []Effect {
	switch c.screen {
	case ScreenNormal:
		if env.Live.CumDoseMode == logic.ModeManual && env.Dose != nil {
			return []Effect{{Kind: EffectManual, Manual: env.Dose.Start()}}
		}
	case ScreenPrgMenu:
		return c.dispatch(env)
	case ScreenUnitSelect:
		c.staged.Unit = logic.Units[c.unit.Index]
		c.screen = ScreenPrgMenu
	case ScreenAlarmSetPointSelect:
		c.staged.AlarmSetPoint = c.alarmOptions[c.alarm.Index]
		c.screen = ScreenPrgMenu
	case ScreenCalibrationEdit:
		c.digit = (c.digit + 1) % len(c.digits)
	case ScreenCumDoseResetConfirm:
		c.screen = ScreenPrgMenu
		if c.choice.Index == choiceYes {
			if env.Dose != nil {
				env.Dose.Reset()
			}
			return []Effect{{Kind: EffectCumDoseReset}}
		}
	case ScreenCumDoseModeSelect:
		c.staged.CumDoseMode = logic.ModeAuto
		if c.choice.Index == choiceManual {
			c.staged.CumDoseMode = logic.ModeManual
		}
		c.screen = ScreenPrgMenu
	case ScreenSaveConfirmation:
		c.screen = ScreenNormal
	}
	return nil
}

// dispatch opens the PRG menu option under the cursor.
func (c *Controller) dispatch(env Env) []Effect {
	switch c.prg.Index {
	case OptionUnit:
		c.unit = NewCursor(len(logic.Units), WindowSize, unitIndex(c.staged.Unit))
		c.screen = ScreenUnitSelect
	case OptionAlarmSetPoint:
		c.alarm = NewCursor(len(c.alarmOptions), WindowSize, nearest(c.alarmOptions, c.staged.AlarmSetPoint))
		c.screen = ScreenAlarmSetPointSelect
	case OptionCalibration:
		c.digits = factorDigits(c.staged.CalibrationFactor)
		c.digit = 0
		c.screen = ScreenCalibrationEdit
	case OptionCumDoseReset:
		c.choice = NewCursor(2, 2, choiceYes)
		c.screen = ScreenCumDoseResetConfirm
	case OptionCumDoseMode:
		idx := choiceAuto
		if c.staged.CumDoseMode == logic.ModeManual {
			idx = choiceManual
		}
		c.choice = NewCursor(2, 2, idx)
		c.screen = ScreenCumDoseModeSelect
	case OptionLookupTable:
		c.table = newTableEditor(env.Live.Table)
		c.screen = ScreenLookupTableEdit
	case OptionExport:
		c.screen = ScreenNormal
		return []Effect{{Kind: EffectExport}}
	case OptionSave:
		c.staged.applyTo(env.Live)
		c.screen = ScreenSaveConfirmation
		c.notice = NoticeSaved
		return []Effect{{Kind: EffectSaved}}
	}
	return nil
}

func (c *Controller) pressExt(env Env) []Effect {
	switch c.screen {
	case ScreenNormal:
		if env.Live.CumDoseMode == logic.ModeManual && env.Dose != nil {
			return []Effect{{Kind: EffectManual, Manual: env.Dose.Stop()}}
		}
	case ScreenPrgMenu, ScreenSaveConfirmation:
		c.screen = ScreenNormal
	case ScreenCalibrationEdit:
		v := AssembleFactor(c.digits)
		if err := ValidateFactor(v); err != nil {
			c.notice = NoticeInvalidValue
			return []Effect{{Kind: EffectNotice, Notice: NoticeInvalidValue, Err: err}}
		}
		c.staged.CalibrationFactor = v
		c.screen = ScreenPrgMenu
	case ScreenLookupTableEdit:
		c.table = nil
		c.screen = ScreenPrgMenu
	case ScreenUnitSelect, ScreenAlarmSetPointSelect, ScreenCumDoseResetConfirm, ScreenCumDoseModeSelect:
		c.screen = ScreenPrgMenu
	}
	return nil
}

// SelectCell opens inline entry on a lookup-table cell, committing any
// entry already in progress.
func (c *Controller) SelectCell(row, col int) ([]Effect, error) {
	if c.screen != ScreenLookupTableEdit {
		return nil, ErrNotEditingTable
	}
	if err := c.table.selectCell(row, col); err != nil {
		return nil, err
	}
	return []Effect{{Kind: EffectHaptic, Haptic: logic.HapticLight}}, nil
}

// EditCell replaces the entry buffer. Non-digit characters are stripped.
func (c *Controller) EditCell(text string) error {
	if c.screen != ScreenLookupTableEdit {
		return ErrNotEditingTable
	}
	c.table.edit(text)
	return nil
}

// CommitCell writes the entry buffer to the selected cell.
func (c *Controller) CommitCell() error {
	if c.screen != ScreenLookupTableEdit {
		return ErrNotEditingTable
	}
	c.table.commit()
	return nil
}

// SetCalibration replaces the live calibration table with the working copy,
// less any cleared rows after the origin, and returns to the PRG menu. A
// result that is not a valid table is rejected and the editor stays open.
func (c *Controller) SetCalibration(env Env) ([]Effect, error) {
	if c.screen != ScreenLookupTableEdit {
		return nil, ErrNotEditingTable
	}
	table, err := c.table.result()
	if err != nil {
		c.notice = NoticeInvalidTable
		return []Effect{{Kind: EffectNotice, Notice: NoticeInvalidTable, Err: err}}, fmt.Errorf("set calibration: %w", err)
	}
	env.Live.Table = table
	c.table = nil
	c.screen = ScreenPrgMenu
	c.notice = NoticeCalibrationUpdated
	return []Effect{
		{Kind: EffectHaptic, Haptic: logic.HapticHeavy},
		{Kind: EffectTableUpdated, Notice: NoticeCalibrationUpdated},
	}, nil
}

// AssembleFactor reads the digits as d0.d1d2.
func AssembleFactor(d [3]int) float64 {
	return float64(d[0]*100+d[1]*10+d[2]) / 100
}

func factorDigits(v float64) [3]int {
	n := int(math.Round(v * 100))
	if n < 0 || n > 199 {
		n = 100
	}
	return [3]int{n / 100, n / 10 % 10, n % 10}
}

func unitIndex(u logic.Unit) int {
	for i, x := range logic.Units {
		if x == u {
			return i
		}
	}
	return 0
}

// nearest returns the index of the option closest to v; ties keep the first.
func nearest(options []float64, v float64) int {
	best := 0
	for i, o := range options {
		if math.Abs(o-v) < math.Abs(options[best]-v) {
			best = i
		}
	}
	return best
}
