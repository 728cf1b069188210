package telemetry

import (
	"context"
	"fmt"
	"log"

	"go.bug.st/serial"
)

// DefaultBaud is the UART rate of the detector's wireless bridge.
const DefaultBaud = 115200

// SerialSource reads frames from a serial port, one frame per line.
type SerialSource struct {
	Path string
	Baud int
}

// Run opens the port and forwards frames until ctx is cancelled.
func (s SerialSource) Run(ctx context.Context, frames chan<- string) error {
	baud := s.Baud
	if baud <= 0 {
		baud = DefaultBaud
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(s.Path, mode)
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", s.Path, err)
	}
	log.Printf("telemetry: reading %s at %d baud", s.Path, baud)

	// Closing the port unblocks the scanner goroutine in ReadFrames.
	stop := context.AfterFunc(ctx, func() { port.Close() })
	defer func() {
		if stop() {
			port.Close()
		}
	}()

	if err := ReadFrames(ctx, port, frames); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read serial port %s: %w", s.Path, err)
	}
	return ctx.Err()
}

// ListPorts returns the serial ports present on the system.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}
