// Package gpio provides the physical front panel with hardware abstraction:
// five push buttons in, a buzzer and a vibration motor out.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"time"

	"github.com/sweeney/radmon/internal/logic"
	"github.com/sweeney/radmon/internal/menu"
)

// Reader reads the button lines.
type Reader interface {
	// Read returns the logical pressed state of every button, keyed by
	// button name. Buttons are wired active-low: raw 0 = pressed.
	Read() (map[string]bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Outputs drives the buzzer and haptic motor.
type Outputs interface {
	// Buzzer switches the continuous audible alert.
	Buzzer(on bool) error

	// Pulse runs the motor for the duration of kind. It does not block.
	Pulse(kind logic.Haptic) error

	// Close switches outputs off and releases GPIO resources.
	Close() error
}

// Pins maps the front panel onto GPIO line offsets (BCM numbering).
type Pins struct {
	Chip   string
	Prg    int
	Ent    int
	Ext    int
	Up     int
	Down   int
	Buzzer int
	Motor  int
}

// DefaultPins is the reference wiring.
var DefaultPins = Pins{
	Chip:   "gpiochip0",
	Prg:    5,
	Ent:    6,
	Ext:    13,
	Up:     19,
	Down:   26,
	Buzzer: 18,
	Motor:  12,
}

// Buttons returns the button line offsets keyed by button name.
func (p Pins) Buttons() map[string]int {
	return map[string]int{
		string(menu.ButtonPrg):  p.Prg,
		string(menu.ButtonEnt):  p.Ent,
		string(menu.ButtonExt):  p.Ext,
		string(menu.ButtonUp):   p.Up,
		string(menu.ButtonDown): p.Down,
	}
}

// ButtonNames lists the buttons in scan order.
func ButtonNames() []string {
	out := make([]string, len(menu.Buttons))
	for i, b := range menu.Buttons {
		out[i] = string(b)
	}
	return out
}

// PulseDuration is how long the motor runs for each haptic kind.
func PulseDuration(kind logic.Haptic) time.Duration {
	switch kind {
	case logic.HapticLight:
		return 15 * time.Millisecond
	case logic.HapticMedium:
		return 30 * time.Millisecond
	case logic.HapticHeavy:
		return 50 * time.Millisecond
	case logic.HapticError:
		return 400 * time.Millisecond
	}
	return 0
}
