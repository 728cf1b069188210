package gpio

import (
	"errors"
	"sync"

	"github.com/sweeney/radmon/internal/logic"
)

// FakeReader is a test double that returns scripted button states.
type FakeReader struct {
	// Samples contains scripted pressed maps to return.
	// Each call to Read() consumes the next sample.
	Samples []map[string]bool

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples ...map[string]bool) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (map[string]bool, error) {
	if f.ReadError != nil {
		return nil, f.ReadError
	}

	if len(f.Samples) == 0 {
		return nil, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	out := make(map[string]bool, len(sample))
	for k, v := range sample {
		out[k] = v
	}
	return out, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeOutputs records buzzer and motor activity.
type FakeOutputs struct {
	mu sync.Mutex

	BuzzerOn      bool
	BuzzerToggles []bool
	Pulses        []logic.Haptic
	Closed        bool

	// PulseError, if set, will be returned by Pulse()
	PulseError error
}

// NewFakeOutputs creates an idle FakeOutputs.
func NewFakeOutputs() *FakeOutputs {
	return &FakeOutputs{}
}

// Buzzer records the new buzzer state.
func (f *FakeOutputs) Buzzer(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.BuzzerOn = on
	f.BuzzerToggles = append(f.BuzzerToggles, on)
	return nil
}

// Pulse records a haptic pulse.
func (f *FakeOutputs) Pulse(kind logic.Haptic) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PulseError != nil {
		return f.PulseError
	}
	f.Pulses = append(f.Pulses, kind)
	return nil
}

// Close switches the buzzer off and marks the outputs closed.
func (f *FakeOutputs) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.BuzzerOn = false
	f.Closed = true
	return nil
}

// Snapshot returns copies of the recorded state.
func (f *FakeOutputs) Snapshot() (buzzer bool, pulses []logic.Haptic) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.BuzzerOn, append([]logic.Haptic(nil), f.Pulses...)
}
