// Package wakeword detects wake phrases in a stream of 16-bit PCM frames.
//
// Three engines are available: a grammar-restricted Vosk recognizer, a
// VAD-gated whisper.cpp keyword spotter and a template matcher comparing
// spectral features against reference recordings. The engine is chosen once
// from configuration and wrapped by a Detector, which owns the playback
// mute window.
package wakeword

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var (
	// ErrUnknownEngine is returned for an engine name outside the supported set
	ErrUnknownEngine = errors.New("unknown wake-word engine")

	// ErrNotInitialized is returned when an engine is used before Init
	ErrNotInitialized = errors.New("wake-word engine not initialized")
)

// Engine is one wake-word implementation
type Engine interface {
	// Init loads models. Calling it more than once has no further effect.
	Init() error

	// Process consumes one frame and returns the index of the matched keyword
	Process(frame []int16) (int, bool)

	// Close releases engine resources
	Close() error
}

// Kind identifies an engine implementation
type Kind string

const (
	KindVosk     Kind = "vosk"
	KindWhisper  Kind = "whisper"
	KindTemplate Kind = "template"
)

// ParseKind validates an engine name from configuration
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindVosk, KindWhisper, KindTemplate:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEngine, s)
	}
}

// EngineConfig carries everything any engine may need
type EngineConfig struct {
	Keywords     []string
	ModelPath    string
	TemplatesDir string
	Threshold    float64
	VADMode      int
	SampleRate   int
	Language     string
	Fs           afero.Fs
	Logger       *zap.Logger
}

// NewEngine constructs the engine for kind. Models are not loaded until Init.
func NewEngine(kind Kind, cfg EngineConfig) (Engine, error) {
	if len(cfg.Keywords) == 0 {
		return nil, errors.New("at least one keyword is required")
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}

	switch kind {
	case KindVosk:
		cfg.Logger.Warn("Using Vosk as wake-word engine is not recommended, it is slow for this task")
		return NewVoskEngine(cfg)
	case KindWhisper:
		return NewWhisperEngine(cfg)
	case KindTemplate:
		return NewTemplateEngine(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, kind)
	}
}
