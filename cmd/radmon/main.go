// Command radmon runs the radiation monitor: it decodes detector telemetry,
// drives the alarm and dose log, and exposes the front panel over GPIO, HTTP
// and the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sweeney/radmon/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// flagValues holds the command-line overrides. A flag only replaces the
// config file value when it was set explicitly.
type flagValues struct {
	configPath  string
	source      string
	port        string
	baud        int
	topic       string
	simulateCPS float64
	broker      string
	publish     bool
	httpAddr    string
	gpio        bool
	exportDir   string
}

func newRootCmd() *cobra.Command {
	var fv flagValues
	def := config.Default()

	rootCmd := &cobra.Command{
		Use:           "radmon",
		Short:         "Radiation monitor daemon",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, fv)
			if err != nil {
				return err
			}
			return runDaemon(cmd.Context(), cfg, nil)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&fv.configPath, "config", config.DefaultConfigPath(), "config file path")
	pf.StringVar(&fv.source, "source", def.Telemetry.Source, "telemetry source: serial, mqtt or simulate")
	pf.StringVar(&fv.port, "port", def.Telemetry.Port, "serial port of the detector bridge")
	pf.IntVar(&fv.baud, "baud", def.Telemetry.Baud, "serial baud rate")
	pf.StringVar(&fv.topic, "topic", def.Telemetry.Topic, "MQTT topic carrying raw detector frames")
	pf.Float64Var(&fv.simulateCPS, "simulate-cps", def.Telemetry.SimulateCPS, "mean count rate of the simulator")
	pf.StringVar(&fv.broker, "broker", def.MQTT.Broker, "MQTT broker address")
	pf.BoolVar(&fv.publish, "publish", def.MQTT.Publish, "publish readings and events to MQTT")
	pf.StringVar(&fv.httpAddr, "http", def.HTTP.Addr, "HTTP status address (empty to disable)")
	pf.BoolVar(&fv.gpio, "gpio", def.GPIO.Enabled, "drive the physical buttons, buzzer and motor")
	pf.StringVar(&fv.exportDir, "export-dir", def.Export.Dir, "directory for exported logs")

	rootCmd.AddCommand(newPanelCmd(&fv))
	rootCmd.AddCommand(newConfigCmd(&fv))
	rootCmd.AddCommand(newDecodeCmd(&fv))
	rootCmd.AddCommand(newPortsCmd())

	return rootCmd
}

// loadConfig reads the config file, overlays explicit flags and validates.
func loadConfig(cmd *cobra.Command, fv flagValues) (config.Config, error) {
	fileCfg, err := config.LoadConfig(fv.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := config.Resolve(fileCfg)

	applyFlag(cmd, "source", &cfg.Telemetry.Source, fv.source)
	applyFlag(cmd, "port", &cfg.Telemetry.Port, fv.port)
	applyFlag(cmd, "baud", &cfg.Telemetry.Baud, fv.baud)
	applyFlag(cmd, "topic", &cfg.Telemetry.Topic, fv.topic)
	applyFlag(cmd, "simulate-cps", &cfg.Telemetry.SimulateCPS, fv.simulateCPS)
	applyFlag(cmd, "broker", &cfg.MQTT.Broker, fv.broker)
	applyFlag(cmd, "publish", &cfg.MQTT.Publish, fv.publish)
	applyFlag(cmd, "http", &cfg.HTTP.Addr, fv.httpAddr)
	applyFlag(cmd, "gpio", &cfg.GPIO.Enabled, fv.gpio)
	applyFlag(cmd, "export-dir", &cfg.Export.Dir, fv.exportDir)

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyFlag[T any](cmd *cobra.Command, name string, dst *T, v T) {
	if cmd.Flags().Changed(name) {
		*dst = v
	}
}

func newConfigCmd(fv *flagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, *fv)
			if err != nil {
				return err
			}
			return cfg.Write(cmd.OutOrStdout())
		},
	}
}
