package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/radmon/internal/config"
	"github.com/sweeney/radmon/internal/gpio"
	"github.com/sweeney/radmon/internal/instrument"
	"github.com/sweeney/radmon/internal/logic"
	"github.com/sweeney/radmon/internal/menu"
	"github.com/sweeney/radmon/internal/panel"
	"github.com/sweeney/radmon/internal/status"
	"github.com/sweeney/radmon/internal/telemetry"
)

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigCmdPrintsDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "none.toml")

	out, _, err := execute(t, "", "config", "--config", missing)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	for _, want := range []string{`source = "simulate"`, `addr = ":8080"`, "[[calibration]]"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	path := writeConfig(t, `
[telemetry]
source = "serial"
port = "/dev/ttyAMA0"

[http]
addr = ":9000"
`)

	out, _, err := execute(t, "", "config", "--config", path, "--http", ":9090")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if !strings.Contains(out, `source = "serial"`) {
		t.Errorf("file value lost:\n%s", out)
	}
	if !strings.Contains(out, `port = "/dev/ttyAMA0"`) {
		t.Errorf("file port lost:\n%s", out)
	}
	if !strings.Contains(out, `addr = ":9090"`) {
		t.Errorf("flag did not override file:\n%s", out)
	}
}

func TestUnsetFlagKeepsFileValue(t *testing.T) {
	path := writeConfig(t, "[mqtt]\npublish = false\n")

	out, _, err := execute(t, "", "config", "--config", path)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if !strings.Contains(out, "publish = false") {
		t.Errorf("default flag value overrode file:\n%s", out)
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "none.toml")

	_, _, err := execute(t, "", "config", "--config", missing, "--source", "carrier-pigeon")
	if err == nil {
		t.Fatal("expected error for unknown source")
	}
	if !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestBadConfigFileRejected(t *testing.T) {
	path := writeConfig(t, "[telemetry]\nsauce = \"serial\"\n")

	_, _, err := execute(t, "", "config", "--config", path)
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestDecodeCmd(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "none.toml")
	in := telemetry.Encode(100) + "\nstatic\n" + telemetry.Encode(0) + "\n"

	out, stderr, err := execute(t, in, "decode", "--config", missing)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := "cps=100 dose=10.00 mR/h\ncps=0 dose=0.00 mR/h\n"
	if out != want {
		t.Errorf("output: got %q, want %q", out, want)
	}
	if !strings.Contains(stderr, `skip: "static"`) {
		t.Errorf("stderr: got %q", stderr)
	}
}

func TestNewSource(t *testing.T) {
	cfg := config.Default()
	id := "0123456789abcdef"

	cfg.Telemetry.Source = config.SourceSerial
	src, err := newSource(cfg, id)
	if err != nil {
		t.Fatalf("serial: %v", err)
	}
	if s, ok := src.(telemetry.SerialSource); !ok || s.Path != cfg.Telemetry.Port || s.Baud != cfg.Telemetry.Baud {
		t.Errorf("serial source: got %#v", src)
	}

	cfg.Telemetry.Source = config.SourceMQTT
	src, err = newSource(cfg, id)
	if err != nil {
		t.Fatalf("mqtt: %v", err)
	}
	if s, ok := src.(telemetry.MQTTSource); !ok || s.ClientID != "radmon-telemetry-01234567" {
		t.Errorf("mqtt source: got %#v", src)
	}

	cfg.Telemetry.Source = config.SourceSimulate
	src, err = newSource(cfg, id)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if s, ok := src.(telemetry.Simulator); !ok || s.Mean != cfg.Telemetry.SimulateCPS {
		t.Errorf("simulator: got %#v", src)
	}

	cfg.Telemetry.Source = "radio"
	if _, err := newSource(cfg, id); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestStatusConfig(t *testing.T) {
	cfg := config.Default()
	cfg.MQTT.Publish = false

	sc := statusConfig(cfg)
	if sc.Broker != "" {
		t.Errorf("broker shown without MQTT: %q", sc.Broker)
	}
	if sc.PollMs != 0 {
		t.Errorf("poll shown without GPIO: %d", sc.PollMs)
	}

	cfg.MQTT.Publish = true
	cfg.GPIO.Enabled = true
	sc = statusConfig(cfg)
	if sc.Broker != cfg.MQTT.Broker {
		t.Errorf("broker: got %q", sc.Broker)
	}
	if sc.PollMs != 20 || sc.DebounceMs != 50 {
		t.Errorf("gpio timing: got %d/%d", sc.PollMs, sc.DebounceMs)
	}
}

func TestShutdownReason(t *testing.T) {
	tests := []struct {
		cause error
		want  string
	}{
		{signalError{sig: syscall.SIGINT}, "SIGINT"},
		{signalError{sig: syscall.SIGTERM}, "SIGTERM"},
		{signalError{sig: syscall.SIGHUP}, "UNKNOWN"},
		{errQuit, "QUIT"},
		{fmt.Errorf("wrapped: %w", errQuit), "QUIT"},
		{errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		ctx, cancel := context.WithCancelCause(context.Background())
		cancel(tt.cause)
		if got := shutdownReason(ctx); got != tt.want {
			t.Errorf("shutdownReason(%v): got %q, want %q", tt.cause, got, tt.want)
		}
	}

	if got := shutdownReason(context.Background()); got != "" {
		t.Errorf("live context: got %q", got)
	}
}

func TestAnnunciatorsFanOut(t *testing.T) {
	fake := gpio.NewFakeOutputs()
	ann := panel.NewAnnunciator()
	outs := annunciators{fake, ann}

	if err := outs.Buzzer(true); err != nil {
		t.Fatalf("buzzer: %v", err)
	}
	if err := outs.Pulse(logic.HapticHeavy); err != nil {
		t.Fatalf("pulse: %v", err)
	}

	on, pulses := fake.Snapshot()
	if !on || len(pulses) != 1 || pulses[0] != logic.HapticHeavy {
		t.Errorf("gpio outputs: on=%v pulses=%v", on, pulses)
	}
	if !ann.BuzzerOn() {
		t.Error("annunciator buzzer not on")
	}

	fake.PulseError = errors.New("motor stalled")
	if err := outs.Pulse(logic.HapticLight); err == nil {
		t.Error("expected pulse error to propagate")
	}
}

func daemonConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.MQTT.Publish = false
	cfg.HTTP.Addr = ""
	cfg.Export.Dir = t.TempDir()
	cfg.Telemetry.SimulateInterval = 10 * time.Millisecond
	return cfg
}

func TestRunDaemonStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- runDaemon(ctx, daemonConfig(t), nil) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runDaemon: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
}

func TestRunDaemonPanelQuit(t *testing.T) {
	var screen menu.Screen
	var samples uint64
	fp := &frontPanel{
		outputs: panel.NewAnnunciator(),
		run: func(ctx context.Context, tracker *status.Tracker, remote *instrument.Remote) error {
			deadline := time.After(3 * time.Second)
			for tracker.Snapshot().Instrument.Samples == 0 {
				select {
				case <-deadline:
					return errors.New("no samples")
				case <-time.After(10 * time.Millisecond):
				}
			}
			if err := remote.Do(ctx, instrument.Press(menu.ButtonPrg)); err != nil {
				return err
			}
			snap := tracker.Snapshot()
			screen = snap.Instrument.Menu.Screen
			samples = snap.Instrument.Samples
			return nil
		},
	}

	done := make(chan error, 1)
	go func() { done <- runDaemon(context.Background(), daemonConfig(t), fp) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runDaemon: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop after panel quit")
	}
	if screen != menu.ScreenPrgMenu {
		t.Errorf("screen: got %q, want %q", screen, menu.ScreenPrgMenu)
	}
	if samples == 0 {
		t.Error("expected simulated samples before quit")
	}
}

func TestRunDaemonRejectsUnknownSource(t *testing.T) {
	cfg := daemonConfig(t)
	cfg.Telemetry.Source = "radio"

	if err := runDaemon(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error")
	}
}
