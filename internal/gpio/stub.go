//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/radmon/internal/logic"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// NewRealReader returns an error on non-Linux platforms.
func NewRealReader(pins Pins) (*RealReader, error) {
	return nil, errUnsupported
}

// Read is not implemented on non-Linux platforms.
func (r *RealReader) Read() (map[string]bool, error) {
	return nil, errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (r *RealReader) Close() error {
	return nil
}

// RealOutputs is not available on non-Linux platforms.
type RealOutputs struct{}

// NewRealOutputs returns an error on non-Linux platforms.
func NewRealOutputs(pins Pins) (*RealOutputs, error) {
	return nil, errUnsupported
}

// Buzzer is not implemented on non-Linux platforms.
func (o *RealOutputs) Buzzer(on bool) error {
	return errUnsupported
}

// Pulse is not implemented on non-Linux platforms.
func (o *RealOutputs) Pulse(kind logic.Haptic) error {
	return errUnsupported
}

// Close is not implemented on non-Linux platforms.
func (o *RealOutputs) Close() error {
	return nil
}
