package mqtt

import (
	"sync"

	"github.com/sweeney/radmon/internal/logic"
)

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	mu sync.Mutex

	// Readings contains all readings that were published.
	Readings []logic.Reading

	// Alarms contains all alarm edges that were published.
	Alarms []logic.AlarmEvent

	// Logs contains all log entries that were published.
	Logs []logic.LogEntry

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// Payloads contains every JSON payload in publish order, keyed by topic.
	Payloads map[string][][]byte

	// PublishError, if set, will be returned by the reading, alarm and log publishers.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Payloads: make(map[string][][]byte)}
}

func (f *FakePublisher) record(topic string, payload []byte) {
	if f.Payloads == nil {
		f.Payloads = make(map[string][][]byte)
	}
	f.Payloads[topic] = append(f.Payloads[topic], payload)
}

// PublishReading records the reading.
func (f *FakePublisher) PublishReading(r logic.Reading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatReading(r)
	if err != nil {
		return err
	}
	f.Readings = append(f.Readings, r)
	f.record(TopicReading, payload)
	return nil
}

// PublishAlarm records the alarm edge.
func (f *FakePublisher) PublishAlarm(e logic.AlarmEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatAlarm(e)
	if err != nil {
		return err
	}
	f.Alarms = append(f.Alarms, e)
	f.record(TopicAlarm, payload)
	return nil
}

// PublishLog records the log entry.
func (f *FakePublisher) PublishLog(e logic.LogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatLog(e)
	if err != nil {
		return err
	}
	f.Logs = append(f.Logs, e)
	f.record(TopicLog, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.record(TopicSystem, payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// SystemEventNames returns the names of the recorded system events in order.
func (f *FakePublisher) SystemEventNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.SystemEvents))
	for i, e := range f.SystemEvents {
		out[i] = e.Event
	}
	return out
}

// Reset clears recorded messages.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Readings = nil
	f.Alarms = nil
	f.Logs = nil
	f.SystemEvents = nil
	f.Payloads = make(map[string][][]byte)
	f.Closed = false
	f.PublishError = nil
	f.PublishSystemError = nil
	f.Connected = false
}
