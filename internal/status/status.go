// Package status provides a thread-safe status tracker for the radmon daemon.
// The instrument loop writes it; HTTP handlers, the websocket stream and the
// terminal panel read it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/radmon/internal/logic"
	"github.com/sweeney/radmon/internal/menu"
)

// Config contains daemon configuration for display.
type Config struct {
	Source     string
	PollMs     int64
	DebounceMs int64
	Broker     string
	HTTPAddr   string
	ExportDir  string
}

// Instrument is the state published by the instrument loop after every event.
type Instrument struct {
	Reading        logic.Reading // throttled, as displayed
	DoseRate       float64       // smoothed, updated per sample
	CountRate      int
	TimeConstant   int
	CumulativeDose float64
	RunState       logic.ManualRunState
	AlarmActive    bool
	BlinkPhase     bool
	Alarms         int
	Samples        uint64
	LogEntries     int
	Live           logic.LiveConfig
	Menu           menu.View
	Notice         string
	NoticeTime     time.Time
}

// Buttons reports the front-panel debouncer state.
type Buttons struct {
	Baselined bool
	Presses   map[string]int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	SessionID     string
	StartTime     time.Time
	Now           time.Time
	Instrument    Instrument
	Buttons       Buttons
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu        sync.RWMutex
	snap      Snapshot
	listeners []chan struct{}
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(sessionID string, startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			SessionID: sessionID,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update replaces the instrument state and wakes subscribers.
// The calibration table is copied so the caller may keep mutating its own.
func (t *Tracker) Update(inst Instrument) {
	inst.Live.Table = inst.Live.Table.Clone()
	t.mu.Lock()
	t.snap.Instrument = inst
	t.notifyLocked()
	t.mu.Unlock()
}

// SetButtons sets the front-panel debouncer state.
func (t *Tracker) SetButtons(baselined bool, presses map[string]int) {
	t.mu.Lock()
	t.snap.Buttons = Buttons{Baselined: baselined, Presses: presses}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Subscribe returns a channel that receives a signal after each Update,
// and a function that releases it. Signals are coalesced: a slow reader
// sees at most one pending wakeup.
func (t *Tracker) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	t.mu.Lock()
	t.listeners = append(t.listeners, ch)
	t.mu.Unlock()

	return ch, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, l := range t.listeners {
			if l == ch {
				t.listeners = append(t.listeners[:i], t.listeners[i+1:]...)
				return
			}
		}
	}
}

func (t *Tracker) notifyLocked() {
	for _, l := range t.listeners {
		select {
		case l <- struct{}{}:
		default:
		}
	}
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
