// SPDX-License-Identifier: MIT

// Package cmd parses command-line arguments into a config.Config, the
// same structure as the teacher's cmd/cli.go: a spf13/cobra root
// command with persistent device/channel/sample-rate flags and a
// `list` subcommand, extended with this domain's own flags for the
// transport layer and scheduler demo knobs (spec §4.9).
package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"mayaflux/internal/config"
	"mayaflux/pkg/build"
)

// ParseArgs loads configuration from configPath (if set via --config),
// then applies any flags the user passed as overrides, and returns the
// resulting Config, with a `list` subcommand request recorded in its
// Command field.
func ParseArgs() (*config.Config, error) {
	buildInfo := build.GetBuildFlags()

	var (
		configPath   string
		listDevices  bool
		deviceID     int
		channels     int
		sampleRate   float64
		framesPerBuf int
		lowLatency   bool
		record       bool
		outputDir    string
		fftBands     int
		wsAddr       string
		udpAddr      string
		metro        time.Duration
		fps          float64
		verbose      bool
		gate         bool
		gateThresh   float64
	)

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Real-time multimodal processing engine",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			listDevices = true
		},
	}
	rootCmd.AddCommand(listCmd)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")

	// Audio device configuration.
	rootCmd.PersistentFlags().IntVarP(&deviceID, "device", "d", 0,
		"Input device ID. Use the 'list' command to see available devices.")
	rootCmd.PersistentFlags().IntVarP(&channels, "channels", "c", 0,
		"Number of input channels (0 keeps the config/default value)")
	rootCmd.PersistentFlags().Float64VarP(&sampleRate, "sample-rate", "s", 0,
		"Sample rate in Hertz (0 keeps the config/default value)")
	rootCmd.PersistentFlags().IntVarP(&framesPerBuf, "frames-per-buffer", "b", 0,
		"Frames per buffer, affects latency (0 keeps the config/default value)")
	rootCmd.PersistentFlags().BoolVarP(&lowLatency, "low-latency", "l", false,
		"Use low latency mode for real-time processing")
	rootCmd.PersistentFlags().BoolVar(&gate, "gate", false,
		"Enable the noise gate, skipping silent blocks entirely")
	rootCmd.PersistentFlags().Float64Var(&gateThresh, "gate-threshold", 0,
		"Noise gate threshold as a fraction of full scale in [0, 1] (0 keeps the config/default value)")

	// Recording configuration.
	rootCmd.PersistentFlags().BoolVarP(&record, "record", "r", false,
		"Record the input stream to a WAV file")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "o", "",
		"Directory recordings are written to (overrides config)")

	// Transport and scheduler demo knobs specific to this engine.
	rootCmd.PersistentFlags().IntVar(&fftBands, "fft-bands", 0,
		"FFT size used by the spectrum analyzer (0 keeps the config/default value)")
	rootCmd.PersistentFlags().StringVar(&wsAddr, "ws-addr", "",
		"Address the websocket transport listens on, e.g. :8080")
	rootCmd.PersistentFlags().StringVar(&udpAddr, "udp-addr", "",
		"Target address for the UDP telemetry transport, e.g. 127.0.0.1:9090")
	rootCmd.PersistentFlags().DurationVar(&metro, "metro", 0,
		"Interval for the demo metronome routine, e.g. 500ms")
	rootCmd.PersistentFlags().Float64Var(&fps, "fps", 0,
		"Frame rate for the demo FrameTicker (0 keeps the config/default value)")

	// Debug configuration.
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose output")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if listDevices {
		cfg.Command = "list"
	}
	if rootCmd.Flags().Changed("device") {
		cfg.Audio.InputDevice = deviceID
	}
	if channels > 0 {
		cfg.Audio.InputChannels = channels
	}
	if sampleRate > 0 {
		cfg.Audio.SampleRate = sampleRate
	}
	if framesPerBuf > 0 {
		cfg.Audio.FramesPerBuffer = framesPerBuf
	}
	if lowLatency {
		cfg.Audio.LowLatency = true
	}
	if gate {
		cfg.Audio.GateEnabled = true
	}
	if gateThresh > 0 {
		cfg.Audio.GateThreshold = gateThresh
	}
	if record {
		cfg.Recording.Enabled = true
	}
	if outputDir != "" {
		cfg.Recording.OutputDir = outputDir
	}
	if fftBands > 0 {
		cfg.Audio.FFTSize = fftBands
	}
	if wsAddr != "" {
		cfg.Transport.WSAddr = wsAddr
	}
	if udpAddr != "" {
		cfg.Transport.UDPEnabled = true
		cfg.Transport.UDPTargetAddress = udpAddr
	}
	if metro > 0 {
		cfg.Demo.MetroInterval = metro
	}
	if fps > 0 {
		cfg.Demo.FPS = fps
	}

	if verbose {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}
