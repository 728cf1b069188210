package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/radmon/internal/config"
	"github.com/sweeney/radmon/internal/eventlog"
	"github.com/sweeney/radmon/internal/gpio"
	"github.com/sweeney/radmon/internal/instrument"
	"github.com/sweeney/radmon/internal/logic"
	"github.com/sweeney/radmon/internal/mqtt"
	"github.com/sweeney/radmon/internal/status"
	"github.com/sweeney/radmon/internal/telemetry"
	"github.com/sweeney/radmon/internal/web"
)

// frontPanel runs an interactive front end alongside the instrument loop.
// It returns when the user quits or ctx is cancelled.
type frontPanel struct {
	outputs instrument.Outputs
	run     func(ctx context.Context, tracker *status.Tracker, remote *instrument.Remote) error
}

// errQuit is the shutdown cause when the terminal panel exits.
var errQuit = errors.New("panel closed")

type signalError struct {
	sig os.Signal
}

func (e signalError) Error() string {
	return "received " + e.sig.String()
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// shutdownReason names why ctx ended, for the SHUTDOWN event.
func shutdownReason(ctx context.Context) string {
	var se signalError
	cause := context.Cause(ctx)
	switch {
	case errors.As(cause, &se):
		return signalName(se.sig)
	case errors.Is(cause, errQuit):
		return "QUIT"
	case cause != nil:
		return cause.Error()
	}
	return ""
}

// annunciators fans buzzer and haptic commands out to every output.
type annunciators []instrument.Outputs

func (a annunciators) Buzzer(on bool) error {
	var errs []error
	for _, o := range a {
		errs = append(errs, o.Buzzer(on))
	}
	return errors.Join(errs...)
}

func (a annunciators) Pulse(kind logic.Haptic) error {
	var errs []error
	for _, o := range a {
		errs = append(errs, o.Pulse(kind))
	}
	return errors.Join(errs...)
}

func newSource(cfg config.Config, sessionID string) (telemetry.Source, error) {
	switch cfg.Telemetry.Source {
	case config.SourceSerial:
		return telemetry.SerialSource{Path: cfg.Telemetry.Port, Baud: cfg.Telemetry.Baud}, nil
	case config.SourceMQTT:
		return telemetry.MQTTSource{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.Telemetry.Topic,
			ClientID: cfg.MQTT.ClientID + "-telemetry-" + sessionID[:8],
		}, nil
	case config.SourceSimulate:
		return telemetry.Simulator{Mean: cfg.Telemetry.SimulateCPS, Interval: cfg.Telemetry.SimulateInterval}, nil
	}
	return nil, fmt.Errorf("unknown telemetry source %q", cfg.Telemetry.Source)
}

func statusConfig(cfg config.Config) status.Config {
	sc := status.Config{
		Source:    cfg.Telemetry.Source,
		HTTPAddr:  cfg.HTTP.Addr,
		ExportDir: cfg.Export.Dir,
	}
	if cfg.MQTT.Publish || cfg.Telemetry.Source == config.SourceMQTT {
		sc.Broker = cfg.MQTT.Broker
	}
	if cfg.GPIO.Enabled {
		sc.PollMs = cfg.GPIO.Poll.Milliseconds()
		sc.DebounceMs = cfg.GPIO.Debounce.Milliseconds()
	}
	return sc
}

// runDaemon wires the instrument to its telemetry source, publishers and
// front panels, and runs until a signal arrives or fp returns.
func runDaemon(parent context.Context, cfg config.Config, fp *frontPanel) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancelCause(parent)
	defer cancel(nil)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case s := <-sigCh:
			log.Printf("received %v, shutting down", s)
			cancel(signalError{sig: s})
		case <-ctx.Done():
		}
	}()

	sessionID := uuid.NewString()
	start := time.Now()

	source, err := newSource(cfg, sessionID)
	if err != nil {
		return err
	}

	tracker := status.NewTracker(sessionID, start, statusConfig(cfg))

	// Initialize MQTT
	var publisher mqtt.Publisher
	if cfg.MQTT.Publish {
		p, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:             cfg.MQTT.Broker,
			ClientID:           cfg.MQTT.ClientID + "-" + sessionID[:8],
			OnConnectionChange: tracker.SetMQTTConnected,
		})
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer p.Close()
		publisher = p
	}

	// Initialize GPIO
	var outputs annunciators
	var reader gpio.Reader
	if cfg.GPIO.Enabled {
		r, err := gpio.NewRealReader(cfg.Pins())
		if err != nil {
			return fmt.Errorf("init gpio buttons: %w", err)
		}
		defer r.Close()
		reader = r

		o, err := gpio.NewRealOutputs(cfg.Pins())
		if err != nil {
			return fmt.Errorf("init gpio outputs: %w", err)
		}
		defer o.Close()
		outputs = append(outputs, o)
	}
	if fp != nil && fp.outputs != nil {
		outputs = append(outputs, fp.outputs)
	}

	deps := instrument.Deps{
		Publisher:    publisher,
		Exporter:     eventlog.FileExporter{Dir: cfg.Export.Dir},
		Status:       tracker,
		AlarmOptions: cfg.Instrument.AlarmOptions,
		Now:          time.Now,
	}
	if len(outputs) > 0 {
		deps.Outputs = outputs
	}
	inst := instrument.New(cfg.Live(), start, deps)
	remote := inst.Remote()

	publishSystem(publisher, tracker, mqtt.EventStartup, "")

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, remote)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	frames := make(chan string, 16)
	wg.Go(func() {
		defer close(frames)
		if err := source.Run(ctx, frames); err != nil && ctx.Err() == nil {
			log.Printf("telemetry: %v", err)
		}
	})

	if reader != nil {
		detector := logic.NewButtonDetector(cfg.GPIO.Debounce, gpio.ButtonNames())
		ticker := time.NewTicker(cfg.GPIO.Poll)
		wg.Go(func() {
			defer ticker.Stop()
			if err := instrument.PollButtons(ctx, reader, detector, ticker.C, time.Now, remote, tracker); err != nil {
				log.Printf("gpio: %v", err)
			}
		})
	}

	if fp != nil {
		wg.Go(func() {
			if err := fp.run(ctx, tracker, remote); err != nil {
				log.Printf("panel: %v", err)
			}
			cancel(errQuit)
		})
	}

	log.Printf("started: session=%s source=%s publish=%v gpio=%v http=%q",
		sessionID, cfg.Telemetry.Source, cfg.MQTT.Publish, cfg.GPIO.Enabled, cfg.HTTP.Addr)

	display := time.NewTicker(logic.DisplayRefresh)
	defer display.Stop()

	runErr := inst.Run(ctx, frames, display.C)
	reason := shutdownReason(ctx)
	// Release the source, button and panel goroutines before wg.Wait.
	cancel(nil)

	publishSystem(publisher, tracker, mqtt.EventShutdown, reason)
	if runErr != nil {
		return fmt.Errorf("instrument: %w", runErr)
	}
	return nil
}

func publishSystem(publisher mqtt.Publisher, tracker *status.Tracker, event, reason string) {
	if publisher == nil {
		return
	}
	snap := tracker.Snapshot()
	e := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      event,
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, event, reason),
	}
	if err := publisher.PublishSystem(e); err != nil {
		log.Printf("failed to publish %s event: %v", event, err)
		return
	}
	log.Printf("published %s event", event)
}
