package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// MaxFrameSeconds bounds audio.frame_length to the capture buffer size
const MaxFrameSeconds = 5

// Config represents the application configuration
type Config struct {
	// Wake-word settings
	Wake struct {
		Engine       string   `yaml:"engine"`
		Keywords     []string `yaml:"keywords"`
		ModelPath    string   `yaml:"model_path"`
		TemplatesDir string   `yaml:"templates_dir"`
		Threshold    float64  `yaml:"threshold"`
		VADMode      int      `yaml:"vad_mode"`
	} `yaml:"wake"`

	// Speech-to-text settings
	STT struct {
		Engine    string `yaml:"engine"`
		Model     string `yaml:"model"`
		ModelPath string `yaml:"model_path"`
		Language  string `yaml:"language"`
	} `yaml:"stt"`

	// Audio settings
	Audio struct {
		Device      string `yaml:"device"`
		Backend     string `yaml:"backend"`
		SampleRate  uint32 `yaml:"sample_rate"`
		FrameLength int    `yaml:"frame_length"`
	} `yaml:"audio"`

	// Voice profile settings
	Voice struct {
		SoundDir string `yaml:"sound_dir"`
		Profile  string `yaml:"profile"`
		Default  string `yaml:"default"`
	} `yaml:"voice"`

	// Timing settings
	Timing struct {
		PlaybackWakeMute time.Duration `yaml:"playback_wake_mute"`
		WarmupMute       time.Duration `yaml:"warmup_mute"`
		WaitDelay        time.Duration `yaml:"wait_delay"`
	} `yaml:"timing"`

	// FillerPhrases are stripped from recognized text before matching
	FillerPhrases []string `yaml:"filler_phrases"`

	// Command registry settings
	Commands struct {
		Dir            string        `yaml:"dir"`
		FuzzyThreshold float64       `yaml:"fuzzy_threshold"`
		Timeout        time.Duration `yaml:"timeout"`
	} `yaml:"commands"`

	// Manual activation
	Hotkey struct {
		Enabled bool   `yaml:"enabled"`
		Keys    string `yaml:"keys"`
	} `yaml:"hotkey"`

	// Log settings
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	// Session journal settings
	Journal struct {
		Format string `yaml:"format"`
		File   string `yaml:"file"`
	} `yaml:"journal"`

	// Debug settings
	Debug struct {
		DumpDir string `yaml:"dump_dir"`
	} `yaml:"debug"`

	// Status server settings
	Server struct {
		Enabled     bool   `yaml:"enabled"`
		Host        string `yaml:"host"`
		Port        int    `yaml:"port"`
		MetricsPort int    `yaml:"metrics_port"`
	} `yaml:"server"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Wake defaults
	cfg.Wake.Engine = "vosk"
	cfg.Wake.Keywords = []string{"jarvis"}
	cfg.Wake.TemplatesDir = "keywords"
	cfg.Wake.Threshold = 0.35
	cfg.Wake.VADMode = 2

	// STT defaults
	cfg.STT.Engine = "vosk"
	cfg.STT.Model = ""
	cfg.STT.Language = "en"

	// Audio defaults
	cfg.Audio.Device = ""
	cfg.Audio.Backend = "malgo"
	cfg.Audio.SampleRate = 16000
	cfg.Audio.FrameLength = 512

	// Voice defaults
	cfg.Voice.SoundDir = "sound"
	cfg.Voice.Profile = "jarvis-og"
	cfg.Voice.Default = "jarvis-og"

	// Timing defaults
	cfg.Timing.PlaybackWakeMute = 1500 * time.Millisecond
	cfg.Timing.WarmupMute = 600 * time.Millisecond
	cfg.Timing.WaitDelay = 10 * time.Second

	cfg.FillerPhrases = []string{"hey jarvis", "jarvis", "please"}

	// Command defaults
	cfg.Commands.Dir = "commands"
	cfg.Commands.FuzzyThreshold = 0.92
	cfg.Commands.Timeout = 30 * time.Second

	// Hotkey defaults
	cfg.Hotkey.Enabled = false
	cfg.Hotkey.Keys = "ctrl+shift+j"

	// Log defaults
	cfg.Log.Level = "info"
	cfg.Log.Format = "console"

	// Journal defaults
	cfg.Journal.Format = ""
	cfg.Journal.File = ""

	// Server defaults
	cfg.Server.Enabled = false
	cfg.Server.Host = "localhost"
	cfg.Server.Port = 50151
	cfg.Server.MetricsPort = 0

	return cfg
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadWithFallback attempts to load configuration from multiple locations
// Priority: explicit path > ~/.voxwake.yaml > /etc/voxwake/config.yaml
func LoadWithFallback(explicitPath string) (*Config, error) {
	if explicitPath != "" {
		return Load(explicitPath)
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(homeDir, ".voxwake.yaml")
		if _, err := os.Stat(userConfigPath); err == nil {
			cfg, err := Load(userConfigPath)
			if err == nil {
				return cfg, nil
			}
		}
	}

	systemConfigPath := "/etc/voxwake/config.yaml"
	if _, err := os.Stat(systemConfigPath); err == nil {
		cfg, err := Load(systemConfigPath)
		if err == nil {
			return cfg, nil
		}
	}

	return DefaultConfig(), nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error

	switch c.Wake.Engine {
	case "vosk", "whisper", "template":
	default:
		errs = append(errs, fmt.Errorf("wake.engine: unknown engine %q", c.Wake.Engine))
	}
	if len(c.Wake.Keywords) == 0 {
		errs = append(errs, errors.New("wake.keywords: at least one keyword is required"))
	}
	if c.Wake.VADMode < 0 || c.Wake.VADMode > 3 {
		errs = append(errs, fmt.Errorf("wake.vad_mode: must be between 0 and 3, got %d", c.Wake.VADMode))
	}

	switch c.STT.Engine {
	case "vosk", "whisper":
	default:
		errs = append(errs, fmt.Errorf("stt.engine: unknown engine %q", c.STT.Engine))
	}

	switch c.Audio.Backend {
	case "malgo", "portaudio":
	default:
		errs = append(errs, fmt.Errorf("audio.backend: unknown backend %q", c.Audio.Backend))
	}
	if c.Audio.SampleRate == 0 {
		errs = append(errs, errors.New("audio.sample_rate: must be positive"))
	}
	if c.Audio.FrameLength <= 0 {
		errs = append(errs, errors.New("audio.frame_length: must be positive"))
	} else if c.Audio.FrameLength > int(c.Audio.SampleRate)*MaxFrameSeconds {
		// a frame larger than the capture buffer can never be filled
		errs = append(errs, fmt.Errorf("audio.frame_length: %d exceeds %d seconds of audio at %d Hz",
			c.Audio.FrameLength, MaxFrameSeconds, c.Audio.SampleRate))
	}

	if c.Voice.SoundDir == "" {
		errs = append(errs, errors.New("voice.sound_dir: must not be empty"))
	}
	if c.Voice.Default == "" {
		errs = append(errs, errors.New("voice.default: must not be empty"))
	}

	if c.Timing.PlaybackWakeMute < 0 || c.Timing.WarmupMute < 0 || c.Timing.WaitDelay <= 0 {
		errs = append(errs, errors.New("timing: durations must not be negative and wait_delay must be positive"))
	}

	if c.Commands.FuzzyThreshold < 0 || c.Commands.FuzzyThreshold > 1 {
		errs = append(errs, fmt.Errorf("commands.fuzzy_threshold: must be within [0,1], got %g", c.Commands.FuzzyThreshold))
	}

	return errors.Join(errs...)
}
