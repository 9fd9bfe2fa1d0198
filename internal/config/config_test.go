package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "vosk", cfg.Wake.Engine)
	assert.Equal(t, "malgo", cfg.Audio.Backend)
	assert.Equal(t, 10*time.Second, cfg.Timing.WaitDelay)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
wake:
  engine: template
  keywords: [friday, computer]
voice:
  profile: friday
timing:
  warmup_mute: 250ms
  wait_delay: 4s
filler_phrases: ["hey friday"]
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "template", cfg.Wake.Engine)
	assert.Equal(t, []string{"friday", "computer"}, cfg.Wake.Keywords)
	assert.Equal(t, "friday", cfg.Voice.Profile)
	assert.Equal(t, "jarvis-og", cfg.Voice.Default)
	assert.Equal(t, 250*time.Millisecond, cfg.Timing.WarmupMute)
	assert.Equal(t, 4*time.Second, cfg.Timing.WaitDelay)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timing.PlaybackWakeMute)
	assert.Equal(t, []string{"hey friday"}, cfg.FillerPhrases)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadWithFallbackExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "explicit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("audio:\n  backend: portaudio\n"), 0644))

	cfg, err := LoadWithFallback(path)
	require.NoError(t, err)
	assert.Equal(t, "portaudio", cfg.Audio.Backend)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Voice.Profile = "custom"
	cfg.Timing.WaitDelay = 7 * time.Second

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", loaded.Voice.Profile)
	assert.Equal(t, 7*time.Second, loaded.Timing.WaitDelay)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown wake engine", func(c *Config) { c.Wake.Engine = "porcupine" }},
		{"no keywords", func(c *Config) { c.Wake.Keywords = nil }},
		{"bad vad mode", func(c *Config) { c.Wake.VADMode = 5 }},
		{"unknown stt engine", func(c *Config) { c.STT.Engine = "deepspeech" }},
		{"unknown backend", func(c *Config) { c.Audio.Backend = "kira" }},
		{"zero frame length", func(c *Config) { c.Audio.FrameLength = 0 }},
		{"frame longer than capture buffer", func(c *Config) { c.Audio.FrameLength = 16000*5 + 1 }},
		{"empty default voice", func(c *Config) { c.Voice.Default = "" }},
		{"zero wait delay", func(c *Config) { c.Timing.WaitDelay = 0 }},
		{"fuzzy threshold out of range", func(c *Config) { c.Commands.FuzzyThreshold = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
