// Package stt converts captured speech into text.
package stt

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotInitialized is returned when an engine is used before Initialize
	ErrNotInitialized = errors.New("engine not initialized")

	// ErrUnknownEngine is returned for an unsupported engine name
	ErrUnknownEngine = errors.New("unknown stt engine")
)

// Result represents a speech recognition result
type Result struct {
	// Text is the recognized text
	Text string

	// Partial indicates if this is a partial result (still processing)
	// or a final result (sentence/phrase complete)
	Partial bool

	// Confidence is the recognition confidence (0.0 to 1.0)
	Confidence float64
}

// Config holds configuration for the STT engine
type Config struct {
	// ModelPath is the path to the STT model (directory for Vosk, file for whisper)
	ModelPath string

	// SampleRate is the audio sample rate in Hz
	SampleRate int

	// Language is the spoken language, used by whisper
	Language string

	// VADMode is the WebRTC VAD aggressiveness used to cut utterances
	VADMode int
}

// Engine is the interface for speech-to-text engines
type Engine interface {
	// Initialize initializes the engine with the given configuration.
	// Calling it again after success has no effect.
	Initialize(config Config) error

	// ProcessAudio processes audio data and returns recognition results
	// Audio data should be 16-bit PCM
	ProcessAudio(ctx context.Context, audioData []byte) (*Result, error)

	// FinalResult returns the final result and resets the recognizer
	FinalResult() (*Result, error)

	// Reset resets the recognizer state
	Reset() error

	// Close releases resources
	Close() error

	// IsInitialized returns true if the engine is initialized
	IsInitialized() bool
}

// DefaultConfig returns a default STT configuration
func DefaultConfig(modelPath string) Config {
	return Config{
		ModelPath:  modelPath,
		SampleRate: 16000,
		Language:   "en",
		VADMode:    2,
	}
}

// NewEngine creates the engine registered under name
func NewEngine(name string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "vosk":
		return NewVoskEngine(), nil
	case "whisper":
		return NewWhisperEngine(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
}
