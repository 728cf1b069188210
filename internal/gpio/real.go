//go:build linux

package gpio

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/radmon/internal/logic"
)

const consumer = "radmon"

// RealReader reads the buttons from actual hardware using the Linux GPIO character device.
type RealReader struct {
	chip  *gpiocdev.Chip
	lines map[string]*gpiocdev.Line
}

// NewRealReader requests every button line as an input with pull-up.
func NewRealReader(pins Pins) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(pins.Chip, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealReader{chip: chip, lines: make(map[string]*gpiocdev.Line)}
	buttons := pins.Buttons()
	names := make([]string, 0, len(buttons))
	for name := range buttons {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		// Pull-up: the button shorts the line to ground when pressed.
		line, err := chip.RequestLine(buttons[name], gpiocdev.AsInput, gpiocdev.WithPullUp)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", name, buttons[name], err)
		}
		r.lines[name] = line
	}
	return r, nil
}

// Read returns the logical pressed state of every button.
// Inverts raw GPIO: raw 0 = pressed.
func (r *RealReader) Read() (map[string]bool, error) {
	out := make(map[string]bool, len(r.lines))
	for name, line := range r.lines {
		raw, err := line.Value()
		if err != nil {
			return nil, fmt.Errorf("read %s pin: %w", name, err)
		}
		out[name] = raw == 0
	}
	return out, nil
}

// Close releases GPIO resources.
// Lines are returned to input with pull-down (the Pi boot default) first.
func (r *RealReader) Close() error {
	var errs []error
	for name, line := range r.lines {
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", name, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", name, err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealOutputs drives the buzzer and motor lines.
type RealOutputs struct {
	chip   *gpiocdev.Chip
	buzzer *gpiocdev.Line
	motor  *gpiocdev.Line

	mu    sync.Mutex
	timer *time.Timer
}

// NewRealOutputs requests the buzzer and motor lines as outputs, initially low.
func NewRealOutputs(pins Pins) (*RealOutputs, error) {
	chip, err := gpiocdev.NewChip(pins.Chip, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	buzzer, err := chip.RequestLine(pins.Buzzer, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request buzzer pin %d: %w", pins.Buzzer, err)
	}

	motor, err := chip.RequestLine(pins.Motor, gpiocdev.AsOutput(0))
	if err != nil {
		buzzer.Close()
		chip.Close()
		return nil, fmt.Errorf("request motor pin %d: %w", pins.Motor, err)
	}

	return &RealOutputs{chip: chip, buzzer: buzzer, motor: motor}, nil
}

// Buzzer switches the buzzer line.
func (o *RealOutputs) Buzzer(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := o.buzzer.SetValue(v); err != nil {
		return fmt.Errorf("set buzzer: %w", err)
	}
	return nil
}

// Pulse raises the motor line and lowers it after the pulse duration.
// A new pulse replaces one still running.
func (o *RealOutputs) Pulse(kind logic.Haptic) error {
	d := PulseDuration(kind)
	if d == 0 {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.timer != nil {
		o.timer.Stop()
	}
	if err := o.motor.SetValue(1); err != nil {
		return fmt.Errorf("set motor: %w", err)
	}
	o.timer = time.AfterFunc(d, func() {
		o.motor.SetValue(0)
	})
	return nil
}

// Close switches both outputs off and releases the lines.
func (o *RealOutputs) Close() error {
	o.mu.Lock()
	if o.timer != nil {
		o.timer.Stop()
	}
	o.mu.Unlock()

	var errs []error
	for name, line := range map[string]*gpiocdev.Line{"buzzer": o.buzzer, "motor": o.motor} {
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear %s pin: %w", name, err))
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", name, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", name, err))
		}
	}
	if err := o.chip.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close chip: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
