// Package logic contains the pure measurement logic of the radiation monitor.
// This package has NO external I/O (no serial, MQTT, GPIO, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Unit is a display unit for the dose rate.
type Unit string

const (
	UnitMRh  Unit = "mR/h"
	UnitUSvh Unit = "uSv/h"
	UnitCGyh Unit = "cGy/h"
	UnitCPS  Unit = "CPS"
	UnitCPM  Unit = "CPM"
)

// Units lists the selectable display units in menu order.
var Units = []Unit{UnitMRh, UnitUSvh, UnitCGyh, UnitCPS, UnitCPM}

// CumDoseMode controls when the cumulative dose integrates.
type CumDoseMode string

const (
	ModeAuto   CumDoseMode = "Auto"
	ModeManual CumDoseMode = "Manual"
)

// ManualRunState is the start/stop control used in Manual mode.
type ManualRunState string

const (
	RunStopped      ManualRunState = "STOPPED"
	RunRunning      ManualRunState = "RUNNING"
	RunArmedRestart ManualRunState = "ARMED_RESTART"
)

// Alert is the alarm column of a log entry.
type Alert string

const (
	AlertAlarm  Alert = "ALARM"
	AlertNormal Alert = "NORMAL"
)

// AlertFor classifies a dose rate against the alarm set point.
func AlertFor(doseRate, setPoint float64) Alert {
	if doseRate >= setPoint {
		return AlertAlarm
	}
	return AlertNormal
}

// Sample is one decoded count-rate reading.
type Sample struct {
	CountRate int
	Seq       uint64 // arrival order
}

// LiveConfig is the configuration the pipeline runs with.
// Only explicit commit actions in the menu write it.
type LiveConfig struct {
	Unit              Unit
	AlarmSetPoint     float64
	CalibrationFactor float64
	CumDoseMode       CumDoseMode
	Table             CalibrationTable
}

// DefaultLiveConfig returns the power-on configuration of the instrument.
func DefaultLiveConfig() LiveConfig {
	return LiveConfig{
		Unit:              UnitMRh,
		AlarmSetPoint:     1000,
		CalibrationFactor: 1,
		CumDoseMode:       ModeAuto,
		Table:             DefaultCalibrationTable(),
	}
}

// LogEntry is one record of the event log.
type LogEntry struct {
	Timestamp      time.Time
	CountRate      int
	DoseRate       float64
	CumulativeDose float64
	Alert          Alert
}

// AlarmEventType represents an alarm edge.
type AlarmEventType string

const (
	EventAlarmOn  AlarmEventType = "ALARM_ON"
	EventAlarmOff AlarmEventType = "ALARM_OFF"
)

// AlarmEvent is emitted on an alarm transition.
type AlarmEvent struct {
	Timestamp time.Time
	Type      AlarmEventType
	DoseRate  float64
	SetPoint  float64
}

// Reading is a published (display-rate) view of the pipeline output.
type Reading struct {
	Timestamp      time.Time
	CountRate      int
	DoseRate       float64
	CumulativeDose float64
	TimeConstant   int
	Unit           Unit
	Display        string
	Alert          Alert
}

// Haptic is a feedback pulse requested from the haptics collaborator.
type Haptic string

const (
	HapticLight  Haptic = "impactLight"
	HapticMedium Haptic = "impactMedium"
	HapticHeavy  Haptic = "impactHeavy"
	HapticError  Haptic = "notificationError"
)
