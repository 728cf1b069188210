package config

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/sweeney/radmon/internal/gpio"
	"github.com/sweeney/radmon/internal/logic"
	"github.com/sweeney/radmon/internal/menu"
	"github.com/sweeney/radmon/internal/telemetry"
)

// Telemetry sources.
const (
	SourceSerial   = "serial"
	SourceMQTT     = "mqtt"
	SourceSimulate = "simulate"
)

// Config is the effective daemon configuration.
type Config struct {
	Telemetry   Telemetry        `toml:"telemetry"`
	MQTT        MQTT             `toml:"mqtt"`
	HTTP        HTTP             `toml:"http"`
	GPIO        GPIO             `toml:"gpio"`
	Export      Export           `toml:"export"`
	Instrument  Instrument       `toml:"instrument"`
	Calibration []CalibrationRow `toml:"calibration"`
}

// Telemetry selects where count-rate frames come from.
type Telemetry struct {
	Source           string        `toml:"source"`
	Port             string        `toml:"port"`
	Baud             int           `toml:"baud"`
	Topic            string        `toml:"topic"`
	SimulateCPS      float64       `toml:"simulate-cps"`
	SimulateInterval time.Duration `toml:"simulate-interval"`
}

// MQTT configures the broker connection.
type MQTT struct {
	Broker   string `toml:"broker"`
	ClientID string `toml:"client-id"`
	Publish  bool   `toml:"publish"`
}

// HTTP configures the status server. An empty Addr disables it.
type HTTP struct {
	Addr string `toml:"addr"`
}

// GPIO configures the physical front panel.
type GPIO struct {
	Enabled  bool          `toml:"enabled"`
	Chip     string        `toml:"chip"`
	Prg      int           `toml:"prg"`
	Ent      int           `toml:"ent"`
	Ext      int           `toml:"ext"`
	Up       int           `toml:"up"`
	Down     int           `toml:"down"`
	Buzzer   int           `toml:"buzzer"`
	Motor    int           `toml:"motor"`
	Poll     time.Duration `toml:"poll"`
	Debounce time.Duration `toml:"debounce"`
}

// Export configures where exported logs are written.
type Export struct {
	Dir string `toml:"dir"`
}

// Instrument holds the power-on settings.
type Instrument struct {
	Unit              string    `toml:"unit"`
	AlarmSetPoint     float64   `toml:"alarm-set-point"`
	CalibrationFactor float64   `toml:"calibration-factor"`
	CumDoseMode       string    `toml:"cum-dose-mode"`
	AlarmOptions      []float64 `toml:"alarm-options"`
}

// Default returns the built-in configuration.
func Default() Config {
	live := logic.DefaultLiveConfig()
	pins := gpio.DefaultPins
	return Config{
		Telemetry: Telemetry{
			Source:           SourceSimulate,
			Port:             "/dev/ttyUSB0",
			Baud:             telemetry.DefaultBaud,
			Topic:            telemetry.DefaultTopic,
			SimulateCPS:      100,
			SimulateInterval: time.Second,
		},
		MQTT: MQTT{
			Broker:   "tcp://localhost:1883",
			ClientID: "radmon",
			Publish:  true,
		},
		HTTP: HTTP{Addr: ":8080"},
		GPIO: GPIO{
			Enabled:  false,
			Chip:     pins.Chip,
			Prg:      pins.Prg,
			Ent:      pins.Ent,
			Ext:      pins.Ext,
			Up:       pins.Up,
			Down:     pins.Down,
			Buzzer:   pins.Buzzer,
			Motor:    pins.Motor,
			Poll:     20 * time.Millisecond,
			Debounce: 50 * time.Millisecond,
		},
		Export: Export{Dir: DefaultExportDir()},
		Instrument: Instrument{
			Unit:              string(live.Unit),
			AlarmSetPoint:     live.AlarmSetPoint,
			CalibrationFactor: live.CalibrationFactor,
			CumDoseMode:       string(live.CumDoseMode),
			AlarmOptions:      slices.Clone(menu.DefaultAlarmOptions),
		},
		Calibration: rowsFrom(live.Table),
	}
}

// Resolve overlays the values present in fc onto the defaults.
func Resolve(fc FileConfig) Config {
	c := Default()

	set(&c.Telemetry.Source, fc.Telemetry.Source)
	set(&c.Telemetry.Port, fc.Telemetry.Port)
	set(&c.Telemetry.Baud, fc.Telemetry.Baud)
	set(&c.Telemetry.Topic, fc.Telemetry.Topic)
	set(&c.Telemetry.SimulateCPS, fc.Telemetry.SimulateCPS)
	set(&c.Telemetry.SimulateInterval, fc.Telemetry.SimulateInterval)

	set(&c.MQTT.Broker, fc.MQTT.Broker)
	set(&c.MQTT.ClientID, fc.MQTT.ClientID)
	set(&c.MQTT.Publish, fc.MQTT.Publish)

	set(&c.HTTP.Addr, fc.HTTP.Addr)

	set(&c.GPIO.Enabled, fc.GPIO.Enabled)
	set(&c.GPIO.Chip, fc.GPIO.Chip)
	set(&c.GPIO.Prg, fc.GPIO.Prg)
	set(&c.GPIO.Ent, fc.GPIO.Ent)
	set(&c.GPIO.Ext, fc.GPIO.Ext)
	set(&c.GPIO.Up, fc.GPIO.Up)
	set(&c.GPIO.Down, fc.GPIO.Down)
	set(&c.GPIO.Buzzer, fc.GPIO.Buzzer)
	set(&c.GPIO.Motor, fc.GPIO.Motor)
	set(&c.GPIO.Poll, fc.GPIO.Poll)
	set(&c.GPIO.Debounce, fc.GPIO.Debounce)

	set(&c.Export.Dir, fc.Export.Dir)

	set(&c.Instrument.Unit, fc.Instrument.Unit)
	set(&c.Instrument.AlarmSetPoint, fc.Instrument.AlarmSetPoint)
	set(&c.Instrument.CalibrationFactor, fc.Instrument.CalibrationFactor)
	set(&c.Instrument.CumDoseMode, fc.Instrument.CumDoseMode)
	if fc.Instrument.AlarmOptions != nil {
		c.Instrument.AlarmOptions = slices.Clone(fc.Instrument.AlarmOptions)
	}
	if fc.Calibration != nil {
		c.Calibration = slices.Clone(fc.Calibration)
	}
	return c
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Validate checks the configuration and reports every problem found.
func (c Config) Validate() error {
	var errs []error

	switch c.Telemetry.Source {
	case SourceSerial:
		if c.Telemetry.Port == "" {
			errs = append(errs, fmt.Errorf("telemetry.port is required for the serial source"))
		}
		if c.Telemetry.Baud <= 0 {
			errs = append(errs, fmt.Errorf("telemetry.baud must be > 0"))
		}
	case SourceMQTT:
		if c.Telemetry.Topic == "" {
			errs = append(errs, fmt.Errorf("telemetry.topic is required for the mqtt source"))
		}
		if c.MQTT.Broker == "" {
			errs = append(errs, fmt.Errorf("mqtt.broker is required for the mqtt source"))
		}
	case SourceSimulate:
		if c.Telemetry.SimulateCPS < 0 {
			errs = append(errs, fmt.Errorf("telemetry.simulate-cps must be >= 0"))
		}
		if c.Telemetry.SimulateInterval <= 0 {
			errs = append(errs, fmt.Errorf("telemetry.simulate-interval must be > 0"))
		}
	default:
		errs = append(errs, fmt.Errorf("telemetry.source %q must be one of serial, mqtt, simulate", c.Telemetry.Source))
	}

	if c.MQTT.Publish && c.MQTT.Broker == "" {
		errs = append(errs, fmt.Errorf("mqtt.broker is required when publishing"))
	}

	if c.GPIO.Enabled {
		if c.GPIO.Poll <= 0 {
			errs = append(errs, fmt.Errorf("gpio.poll must be > 0"))
		}
		if c.GPIO.Debounce < c.GPIO.Poll {
			errs = append(errs, fmt.Errorf("gpio.debounce (%v) must be >= gpio.poll (%v)", c.GPIO.Debounce, c.GPIO.Poll))
		}
	}

	if !slices.Contains(logic.Units, logic.Unit(c.Instrument.Unit)) {
		errs = append(errs, fmt.Errorf("instrument.unit %q is not a known unit", c.Instrument.Unit))
	}
	if c.Instrument.AlarmSetPoint <= 0 {
		errs = append(errs, fmt.Errorf("instrument.alarm-set-point must be > 0"))
	}
	if err := menu.ValidateFactor(c.Instrument.CalibrationFactor); err != nil {
		errs = append(errs, fmt.Errorf("instrument.calibration-factor: %w", err))
	}
	switch logic.CumDoseMode(c.Instrument.CumDoseMode) {
	case logic.ModeAuto, logic.ModeManual:
	default:
		errs = append(errs, fmt.Errorf("instrument.cum-dose-mode %q must be Auto or Manual", c.Instrument.CumDoseMode))
	}
	if len(c.Instrument.AlarmOptions) == 0 {
		errs = append(errs, fmt.Errorf("instrument.alarm-options must not be empty"))
	}
	if err := c.Table().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("calibration: %w", err))
	}

	return errors.Join(errs...)
}

// Live returns the power-on live configuration.
func (c Config) Live() logic.LiveConfig {
	return logic.LiveConfig{
		Unit:              logic.Unit(c.Instrument.Unit),
		AlarmSetPoint:     c.Instrument.AlarmSetPoint,
		CalibrationFactor: c.Instrument.CalibrationFactor,
		CumDoseMode:       logic.CumDoseMode(c.Instrument.CumDoseMode),
		Table:             c.Table(),
	}
}

// Table returns the configured calibration table.
func (c Config) Table() logic.CalibrationTable {
	out := make(logic.CalibrationTable, len(c.Calibration))
	for i, r := range c.Calibration {
		out[i] = logic.CalibrationPoint{CountRate: r.CPS, Dose: r.Dose}
	}
	return out
}

// Pins returns the GPIO wiring.
func (c Config) Pins() gpio.Pins {
	return gpio.Pins{
		Chip:   c.GPIO.Chip,
		Prg:    c.GPIO.Prg,
		Ent:    c.GPIO.Ent,
		Ext:    c.GPIO.Ext,
		Up:     c.GPIO.Up,
		Down:   c.GPIO.Down,
		Buzzer: c.GPIO.Buzzer,
		Motor:  c.GPIO.Motor,
	}
}

// Write encodes c as TOML.
func (c Config) Write(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

func rowsFrom(t logic.CalibrationTable) []CalibrationRow {
	out := make([]CalibrationRow, len(t))
	for i, p := range t {
		out[i] = CalibrationRow{CPS: p.CountRate, Dose: p.Dose}
	}
	return out
}
