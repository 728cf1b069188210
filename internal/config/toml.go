package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file. Pointer fields are
// nil when the key is absent.
type FileConfig struct {
	Telemetry   TelemetryFile    `toml:"telemetry"`
	MQTT        MQTTFile         `toml:"mqtt"`
	HTTP        HTTPFile         `toml:"http"`
	GPIO        GPIOFile         `toml:"gpio"`
	Export      ExportFile       `toml:"export"`
	Instrument  InstrumentFile   `toml:"instrument"`
	Calibration []CalibrationRow `toml:"calibration"`
}

// TelemetryFile maps the [telemetry] table.
type TelemetryFile struct {
	Source           *string        `toml:"source"`
	Port             *string        `toml:"port"`
	Baud             *int           `toml:"baud"`
	Topic            *string        `toml:"topic"`
	SimulateCPS      *float64       `toml:"simulate-cps"`
	SimulateInterval *time.Duration `toml:"simulate-interval"`
}

// MQTTFile maps the [mqtt] table.
type MQTTFile struct {
	Broker   *string `toml:"broker"`
	ClientID *string `toml:"client-id"`
	Publish  *bool   `toml:"publish"`
}

// HTTPFile maps the [http] table.
type HTTPFile struct {
	Addr *string `toml:"addr"`
}

// GPIOFile maps the [gpio] table.
type GPIOFile struct {
	Enabled  *bool          `toml:"enabled"`
	Chip     *string        `toml:"chip"`
	Prg      *int           `toml:"prg"`
	Ent      *int           `toml:"ent"`
	Ext      *int           `toml:"ext"`
	Up       *int           `toml:"up"`
	Down     *int           `toml:"down"`
	Buzzer   *int           `toml:"buzzer"`
	Motor    *int           `toml:"motor"`
	Poll     *time.Duration `toml:"poll"`
	Debounce *time.Duration `toml:"debounce"`
}

// ExportFile maps the [export] table.
type ExportFile struct {
	Dir *string `toml:"dir"`
}

// InstrumentFile maps the [instrument] table.
type InstrumentFile struct {
	Unit              *string   `toml:"unit"`
	AlarmSetPoint     *float64  `toml:"alarm-set-point"`
	CalibrationFactor *float64  `toml:"calibration-factor"`
	CumDoseMode       *string   `toml:"cum-dose-mode"`
	AlarmOptions      []float64 `toml:"alarm-options"`
}

// CalibrationRow is one [[calibration]] entry.
type CalibrationRow struct {
	CPS  int     `toml:"cps"`
	Dose float64 `toml:"dose"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("decode config: unknown key %q", undecoded[0].String())
	}
	return cfg, nil
}
