// Package mqtt publishes instrument output to an MQTT broker, with a fake
// for tests.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/radmon/internal/logic"
)

// Topics under which the instrument publishes.
const (
	TopicReading = "radiation/monitor/reading"
	TopicAlarm   = "radiation/monitor/alarm"
	TopicLog     = "radiation/monitor/log"
	TopicSystem  = "radiation/monitor/system"
)

// System event names.
const (
	EventStartup     = "STARTUP"
	EventShutdown    = "SHUTDOWN"
	EventNotice      = "NOTICE"
	EventReconnected = "RECONNECTED"
	EventOffline     = "OFFLINE"
)

// Publisher publishes instrument output to MQTT.
// Errors are reported to the caller, which logs and carries on.
type Publisher interface {
	// PublishReading sends the displayed dose rate.
	PublishReading(r logic.Reading) error

	// PublishAlarm sends an alarm edge.
	PublishAlarm(e logic.AlarmEvent) error

	// PublishLog sends an event-log entry as it is appended.
	PublishLog(e logic.LogEntry) error

	// PublishSystem sends a system lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (startup, shutdown, notice).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "NOTICE"
	Reason     string // signal name, notice text
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// ReadingPayload is the message published on TopicReading.
type ReadingPayload struct {
	Reading ReadingInner `json:"reading"`
}

// ReadingInner contains the reading details.
type ReadingInner struct {
	Timestamp      string  `json:"timestamp"`
	CPS            int     `json:"cps"`
	DoseRate       float64 `json:"dose_rate"`
	CumulativeDose float64 `json:"cumulative_dose"`
	TimeConstant   int     `json:"time_constant"`
	Unit           string  `json:"unit"`
	Display        string  `json:"display"`
	Alert          string  `json:"alert"`
}

// FormatReading creates the JSON payload for a reading.
func FormatReading(r logic.Reading) ([]byte, error) {
	return json.Marshal(ReadingPayload{Reading: ReadingInner{
		Timestamp:      r.Timestamp.UTC().Format(time.RFC3339),
		CPS:            r.CountRate,
		DoseRate:       r.DoseRate,
		CumulativeDose: r.CumulativeDose,
		TimeConstant:   r.TimeConstant,
		Unit:           string(r.Unit),
		Display:        r.Display,
		Alert:          string(r.Alert),
	}})
}

// AlarmPayload is the message published on TopicAlarm.
type AlarmPayload struct {
	Alarm AlarmInner `json:"alarm"`
}

// AlarmInner contains the alarm edge details.
type AlarmInner struct {
	Timestamp string  `json:"timestamp"`
	Event     string  `json:"event"`
	DoseRate  float64 `json:"dose_rate"`
	SetPoint  float64 `json:"set_point"`
}

// FormatAlarm creates the JSON payload for an alarm edge.
func FormatAlarm(e logic.AlarmEvent) ([]byte, error) {
	return json.Marshal(AlarmPayload{Alarm: AlarmInner{
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
		Event:     string(e.Type),
		DoseRate:  e.DoseRate,
		SetPoint:  e.SetPoint,
	}})
}

// LogPayload is the message published on TopicLog.
type LogPayload struct {
	Log LogInner `json:"log"`
}

// LogInner mirrors one CSV row.
type LogInner struct {
	Timestamp      string  `json:"timestamp"`
	CPS            int     `json:"cps"`
	DoseRate       float64 `json:"dose_rate"`
	CumulativeDose float64 `json:"cumulative_dose"`
	Alert          string  `json:"alert"`
}

// FormatLog creates the JSON payload for a log entry.
func FormatLog(e logic.LogEntry) ([]byte, error) {
	return json.Marshal(LogPayload{Log: LogInner{
		Timestamp:      e.Timestamp.UTC().Format(time.RFC3339),
		CPS:            e.CountRate,
		DoseRate:       e.DoseRate,
		CumulativeDose: e.CumulativeDose,
		Alert:          string(e.Alert),
	}})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED, NOTICE) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
