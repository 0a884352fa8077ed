// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"synesthesia/internal/config"
	"synesthesia/pkg/build"
)

// ParseArgs builds the CLI, executes it and returns the resulting
// configuration. Flags override values from the config file; only flags
// the user actually set are applied.
func ParseArgs() (*config.Config, error) {
	buildInfo := build.GetBuildFlags()

	var (
		cfg        *config.Config
		configPath string

		deviceID        int
		sampleRate      float64
		framesPerBuffer int
		lowLatency      bool
		oscTarget       string
		rulesPath       string
		monitorEnabled  bool
		monitorPort     string
		record          bool
		outputFile      string
		verbose         bool
	)

	// load reads the config file and layers the set flags on top.
	load := func(cmd *cobra.Command) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("device") {
			loaded.Audio.InputDevice = deviceID
		}
		if flags.Changed("sample-rate") {
			loaded.Audio.SampleRate = sampleRate
		}
		if flags.Changed("frames-per-buffer") {
			loaded.Audio.FramesPerBuffer = framesPerBuffer
		}
		if flags.Changed("low-latency") {
			loaded.Audio.LowLatency = lowLatency
		}
		if flags.Changed("target") {
			loaded.OSC.TargetAddress = oscTarget
		}
		if flags.Changed("rules") {
			loaded.Rules.Path = rulesPath
		}
		if flags.Changed("monitor") {
			loaded.Monitor.Enabled = monitorEnabled
		}
		if flags.Changed("monitor-port") {
			loaded.Monitor.Port = monitorPort
		}
		if flags.Changed("record") {
			loaded.Record.Enabled = record
		}
		if flags.Changed("output") {
			loaded.Record.OutputFile = outputFile
		}
		if flags.Changed("verbose") && verbose {
			loaded.Debug = true
			loaded.LogLevel = "debug"
		}

		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		cfg = loaded
		return nil
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Maps live audio to visual commands over OSC",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := load(cmd); err != nil {
				return err
			}
			cfg.RunSession = true
			return nil
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := load(cmd); err != nil {
				return err
			}
			cfg.Command = "list"
			return nil
		},
	}
	rootCmd.AddCommand(listCmd)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to YAML config file. Default reads config.yaml if present.")

	// Audio Device Configuration
	rootCmd.PersistentFlags().IntVarP(&deviceID, "device", "d", config.MinDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	rootCmd.PersistentFlags().Float64VarP(&sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	rootCmd.PersistentFlags().IntVarP(&framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	rootCmd.PersistentFlags().BoolVarP(&lowLatency, "low-latency", "l", false,
		"Use low latency mode for real-time processing")

	// Mapping and Output Configuration
	rootCmd.PersistentFlags().StringVarP(&oscTarget, "target", "t", config.DefaultOSCTarget,
		"Renderer OSC address as host:port")
	rootCmd.PersistentFlags().StringVar(&rulesPath, "rules", "",
		"Path to mapping rules JSON. Default uses built-in rules.")

	// Monitoring Configuration
	rootCmd.PersistentFlags().BoolVarP(&monitorEnabled, "monitor", "m", false,
		"Serve a WebSocket monitoring feed")
	rootCmd.PersistentFlags().StringVar(&monitorPort, "monitor-port", config.DefaultMonitorPort,
		"Port for the WebSocket monitoring feed")

	// Recording Configuration
	rootCmd.PersistentFlags().BoolVarP(&record, "record", "r", false,
		"Record captured audio to a WAV file")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "",
		"Output file name. Default is recording-DD-MM-YYYY-HHMMSS.wav")

	// Debug Configuration
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Show verbose output")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return cfg, nil
}
