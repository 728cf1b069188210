package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/radmon/internal/eventlog"
	"github.com/sweeney/radmon/internal/logic"
	"github.com/sweeney/radmon/internal/menu"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Session       string        `json:"session"`
	Ready         bool          `json:"ready"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	Radiation     RadiationJSON `json:"radiation"`
	Alarm         AlarmJSON     `json:"alarm"`
	Settings      SettingsJSON  `json:"settings"`
	Menu          menu.View     `json:"menu"`
	Notice        string        `json:"notice,omitempty"`
	Log           LogJSON       `json:"log"`
	Buttons       ButtonsJSON   `json:"buttons"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Config        ConfigJSON    `json:"config"`
}

// RadiationJSON reports the pipeline output.
type RadiationJSON struct {
	CPS              int     `json:"cps"`
	DoseRate         float64 `json:"dose_rate"`
	DisplayDoseRate  float64 `json:"display_dose_rate"`
	Display          string  `json:"display"`
	CumulativeDose   float64 `json:"cumulative_dose"`
	CumulativeString string  `json:"cumulative_display"`
	TimeConstant     int     `json:"time_constant"`
	RunState         string  `json:"run_state"`
	Samples          uint64  `json:"samples"`
}

// AlarmJSON reports alarm state.
type AlarmJSON struct {
	Active      bool    `json:"active"`
	Blink       bool    `json:"blink"`
	SetPoint    float64 `json:"set_point"`
	Activations int     `json:"activations"`
}

// SettingsJSON is the live configuration.
type SettingsJSON struct {
	Unit              string                 `json:"unit"`
	AlarmSetPoint     float64                `json:"alarm_set_point"`
	CalibrationFactor float64                `json:"calibration_factor"`
	CumDoseMode       string                 `json:"cum_dose_mode"`
	Table             logic.CalibrationTable `json:"calibration_table"`
}

// LogJSON reports the event log size.
type LogJSON struct {
	Entries  int `json:"entries"`
	Capacity int `json:"capacity"`
}

// ButtonsJSON reports the front-panel debouncer state.
type ButtonsJSON struct {
	Ready   bool           `json:"ready"`
	Presses map[string]int `json:"presses,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Source     string `json:"source"`
	PollMs     int64  `json:"poll_ms"`
	DebounceMs int64  `json:"debounce_ms"`
	Broker     string `json:"broker"`
	HTTPAddr   string `json:"http_addr"`
	ExportDir  string `json:"export_dir"`
}

func buildInner(snap Snapshot) StatusInner {
	inst := snap.Instrument
	rawCPS := inst.CountRate
	return StatusInner{
		Session:       snap.SessionID,
		Ready:         inst.Samples > 0,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Radiation: RadiationJSON{
			CPS:              rawCPS,
			DoseRate:         inst.DoseRate,
			DisplayDoseRate:  inst.Reading.DoseRate,
			Display:          logic.FormatDose(inst.Reading.DoseRate, inst.Live.Unit, rawCPS),
			CumulativeDose:   inst.CumulativeDose,
			CumulativeString: logic.FormatCumulativeDose(inst.CumulativeDose, inst.Live.Unit, rawCPS),
			TimeConstant:     inst.TimeConstant,
			RunState:         string(inst.RunState),
			Samples:          inst.Samples,
		},
		Alarm: AlarmJSON{
			Active:      inst.AlarmActive,
			Blink:       inst.BlinkPhase,
			SetPoint:    inst.Live.AlarmSetPoint,
			Activations: inst.Alarms,
		},
		Settings: SettingsJSON{
			Unit:              string(inst.Live.Unit),
			AlarmSetPoint:     inst.Live.AlarmSetPoint,
			CalibrationFactor: inst.Live.CalibrationFactor,
			CumDoseMode:       string(inst.Live.CumDoseMode),
			Table:             inst.Live.Table,
		},
		Menu:    inst.Menu,
		Notice:  inst.Notice,
		Log:     LogJSON{Entries: inst.LogEntries, Capacity: eventlog.Capacity},
		Buttons: ButtonsJSON{Ready: snap.Buttons.Baselined, Presses: snap.Buttons.Presses},
		MQTT:    MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			Source:     snap.Config.Source,
			PollMs:     snap.Config.PollMs,
			DebounceMs: snap.Config.DebounceMs,
			Broker:     snap.Config.Broker,
			HTTPAddr:   snap.Config.HTTPAddr,
			ExportDir:  snap.Config.ExportDir,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
