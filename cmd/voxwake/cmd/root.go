// Package cmd implements the voxwake command line.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emmett/voxwake/internal/config"
	"github.com/emmett/voxwake/internal/logging"
)

// Build information, set via -ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

var (
	cfgFile     string
	logLevel    string
	voiceFlag   string
	deviceFlag  string
	engineFlag  string
	backendFlag string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "voxwake",
	Short: "Wake-word voice assistant",
	Long: `voxwake listens for a wake word, captures the spoken command that
follows and runs the matching entry from the command registry.

Configuration is read from --config, ~/.voxwake.yaml or
/etc/voxwake/config.yaml, in that order.`,
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Assigned here rather than in the literal to avoid an initialization
	// cycle: setup -> applyFlags -> rootCmd.
	rootCmd.PersistentPreRunE = setup
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.voxwake.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&voiceFlag, "voice", "", "voice profile directory under the sound directory")
	rootCmd.PersistentFlags().StringVar(&deviceFlag, "device", "", "capture device name (partial match)")
	rootCmd.PersistentFlags().StringVar(&engineFlag, "engine", "", "wake-word engine: vosk, whisper, template")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "audio output backend: malgo, portaudio")
}

func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(loaded)
	cfg = loaded

	logger, err = logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	return nil
}

// applyFlags lets explicitly set flags override the config file
func applyFlags(c *config.Config) {
	flags := rootCmd.PersistentFlags()
	if flags.Changed("log-level") {
		c.Log.Level = logLevel
	}
	if flags.Changed("voice") {
		c.Voice.Profile = voiceFlag
	}
	if flags.Changed("device") {
		c.Audio.Device = deviceFlag
	}
	if flags.Changed("engine") {
		c.Wake.Engine = engineFlag
	}
	if flags.Changed("backend") {
		c.Audio.Backend = backendFlag
	}
}
