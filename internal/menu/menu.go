// Package menu implements the five-button front-panel state machine of the
// radiation monitor. Exactly one Screen is active at a time; the controller
// owns the staged configuration and the lookup-table editor and is the only
// writer of the live configuration.
//
// Like internal/logic it performs no I/O. Side effects (haptics, export,
// notices) are returned to the caller as Effects.
package menu

import (
	"errors"
	"fmt"

	"github.com/sweeney/radmon/internal/logic"
)

// Button is one of the five front-panel buttons.
type Button string

const (
	ButtonUp   Button = "UP"
	ButtonDown Button = "DOWN"
	ButtonEnt  Button = "ENT_SRT"
	ButtonExt  Button = "EXT_STP"
	ButtonPrg  Button = "PRG"
)

// Buttons lists every button in the order the GPIO lines are scanned.
var Buttons = []Button{ButtonPrg, ButtonEnt, ButtonExt, ButtonUp, ButtonDown}

// ParseButton maps a wire name to a Button.
func ParseButton(s string) (Button, error) {
	for _, b := range Buttons {
		if string(b) == s {
			return b, nil
		}
	}
	return "", fmt.Errorf("parse button: unknown button %q", s)
}

// Haptic returns the feedback pulse a press of b requests.
func (b Button) Haptic() logic.Haptic {
	switch b {
	case ButtonUp, ButtonDown:
		return logic.HapticLight
	case ButtonEnt:
		return logic.HapticHeavy
	default:
		return logic.HapticMedium
	}
}

// Screen is the active menu state.
type Screen string

const (
	ScreenNormal              Screen = "Normal"
	ScreenPrgMenu             Screen = "PrgMenu"
	ScreenUnitSelect          Screen = "UnitSelect"
	ScreenAlarmSetPointSelect Screen = "AlarmSetPointSelect"
	ScreenCalibrationEdit     Screen = "CalibrationEdit"
	ScreenCumDoseResetConfirm Screen = "CumDoseResetConfirm"
	ScreenCumDoseModeSelect   Screen = "CumDoseModeSelect"
	ScreenLookupTableEdit     Screen = "LookupTableEdit"
	ScreenSaveConfirmation    Screen = "SaveConfirmation"
)

// PrgOptions are the PRG menu entries, dispatched by index on ENT.
var PrgOptions = []string{
	"1. Rad Units",
	"2. Alarm Set Point",
	"3. Calibration Factor",
	"4. Cum Dose Reset",
	"5. Cum Dose Mode",
	"6. Read/Set Lookup Table",
	"7. Data Download",
	"8. Save Parameters",
}

// PRG menu option indices.
const (
	OptionUnit = iota
	OptionAlarmSetPoint
	OptionCalibration
	OptionCumDoseReset
	OptionCumDoseMode
	OptionLookupTable
	OptionExport
	OptionSave
)

// DefaultAlarmOptions are the selectable alarm set points in mR/h.
var DefaultAlarmOptions = []float64{5, 50, 100, 200}

// WindowSize is the number of rows visible in a list screen.
const WindowSize = 4

// Calibration factor limits accepted by the digit editor.
const (
	MinCalibrationFactor = 0.75
	MaxCalibrationFactor = 1.25
)

var (
	// ErrCalibrationOutOfRange is returned for a factor outside [0.75, 1.25].
	ErrCalibrationOutOfRange = errors.New("calibration factor out of range")
	// ErrNotEditingTable is returned for cell operations outside the lookup-table screen.
	ErrNotEditingTable = errors.New("lookup table editor is not open")
)

// ValidateFactor checks a calibration factor against the accepted range.
func ValidateFactor(v float64) error {
	if v < MinCalibrationFactor || v > MaxCalibrationFactor {
		return fmt.Errorf("%w: %.2f not in [%.2f, %.2f]", ErrCalibrationOutOfRange, v, MinCalibrationFactor, MaxCalibrationFactor)
	}
	return nil
}

// Notice texts shown to the user.
const (
	NoticeInvalidValue       = "Invalid Value"
	NoticeCalibrationUpdated = "Calibration Updated"
	NoticeInvalidTable       = "Invalid Table"
	NoticeSaved              = "Saved"
)

// EffectKind identifies a side effect requested by a menu transition.
type EffectKind string

const (
	EffectHaptic       EffectKind = "HAPTIC"
	EffectExport       EffectKind = "EXPORT"
	EffectSaved        EffectKind = "SAVED"
	EffectCumDoseReset EffectKind = "CUM_DOSE_RESET"
	EffectManual       EffectKind = "MANUAL"
	EffectTableUpdated EffectKind = "TABLE_UPDATED"
	EffectNotice       EffectKind = "NOTICE"
)

// Effect is a fire-and-forget request for the caller to carry out.
type Effect struct {
	Kind   EffectKind
	Haptic logic.Haptic
	Manual logic.ManualAction
	Notice string
	Err    error
}

// Staged is the editable subset of the live configuration.
// It reaches the live configuration only through Save Parameters.
type Staged struct {
	Unit              logic.Unit
	AlarmSetPoint     float64
	CalibrationFactor float64
	CumDoseMode       logic.CumDoseMode
}

func stageFrom(live *logic.LiveConfig) Staged {
	return Staged{
		Unit:              live.Unit,
		AlarmSetPoint:     live.AlarmSetPoint,
		CalibrationFactor: live.CalibrationFactor,
		CumDoseMode:       live.CumDoseMode,
	}
}

func (s Staged) applyTo(live *logic.LiveConfig) {
	live.Unit = s.Unit
	live.AlarmSetPoint = s.AlarmSetPoint
	live.CalibrationFactor = s.CalibrationFactor
	live.CumDoseMode = s.CumDoseMode
}

// Env is the state a press may read or write besides the controller's own.
type Env struct {
	Live *logic.LiveConfig
	Dose *logic.Integrator
}
