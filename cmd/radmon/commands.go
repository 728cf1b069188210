package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sweeney/radmon/internal/config"
	"github.com/sweeney/radmon/internal/instrument"
	"github.com/sweeney/radmon/internal/logic"
	"github.com/sweeney/radmon/internal/panel"
	"github.com/sweeney/radmon/internal/status"
	"github.com/sweeney/radmon/internal/telemetry"
)

func newPanelCmd(fv *flagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "panel",
		Short: "Run the monitor with a terminal front panel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, *fv)
			if err != nil {
				return err
			}
			if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
				return errors.New("panel needs an interactive terminal")
			}

			// Log lines would tear the alt screen.
			logPath := config.DefaultPanelLogPath()
			if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
				return fmt.Errorf("failed to create log directory: %w", err)
			}
			f, err := tea.LogToFile(logPath, "radmon")
			if err != nil {
				return fmt.Errorf("failed to open log file: %w", err)
			}
			defer f.Close()

			ann := panel.NewAnnunciator()
			return runDaemon(cmd.Context(), cfg, &frontPanel{
				outputs: ann,
				run: func(ctx context.Context, tracker *status.Tracker, remote *instrument.Remote) error {
					return runPanel(ctx, tracker, remote, ann)
				},
			})
		},
	}
}

func runPanel(ctx context.Context, tracker *status.Tracker, remote *instrument.Remote, ann *panel.Annunciator) error {
	wake, unsubscribe := tracker.Subscribe()
	defer unsubscribe()

	model := panel.NewModel(remote, tracker, wake, ann)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx), tea.WithoutSignalHandler())
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newDecodeCmd(fv *flagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "decode",
		Short: "Decode detector frames from stdin and print the calibrated dose rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, *fv)
			if err != nil {
				return err
			}
			return decodeFrames(cmd.Context(), cmd, cfg.Live())
		},
	}
}

func decodeFrames(ctx context.Context, cmd *cobra.Command, live logic.LiveConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	frames := make(chan string)
	errCh := make(chan error, 1)
	go func() {
		errCh <- telemetry.ReadFrames(ctx, cmd.InOrStdin(), frames)
		close(frames)
	}()

	out := cmd.OutOrStdout()
	for frame := range frames {
		cps, ok := telemetry.Decode(frame)
		if !ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "skip: %q\n", frame)
			continue
		}
		dose := live.Table.Interpolate(float64(cps)) * live.CalibrationFactor
		fmt.Fprintf(out, "cps=%d dose=%s\n", cps, logic.FormatDose(dose, live.Unit, cps))
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("read frames: %w", err)
	}
	return nil
}

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports, err := telemetry.ListPorts()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "no serial ports found")
				return nil
			}
			for _, p := range ports {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}
