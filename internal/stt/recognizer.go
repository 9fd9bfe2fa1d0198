package stt

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/emmett/voxwake/internal/audio"
)

// Recognizer adapts an Engine to the frame-at-a-time contract of the
// listener: each frame yields text only when the engine produced a final,
// non-empty result. Partial results are never surfaced.
type Recognizer struct {
	engine Engine
	config Config
	logger *zap.Logger

	mu          sync.Mutex
	initialized bool
}

// NewRecognizer wraps engine; Init must be called before Recognize
func NewRecognizer(engine Engine, config Config, logger *zap.Logger) (*Recognizer, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recognizer{engine: engine, config: config, logger: logger}, nil
}

// Init initializes the engine once
func (r *Recognizer) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return nil
	}
	if err := r.engine.Initialize(r.config); err != nil {
		return fmt.Errorf("failed to initialize STT engine: %w", err)
	}
	r.initialized = true
	return nil
}

// Recognize feeds one frame and returns recognized text, if any
func (r *Recognizer) Recognize(frame []int16) (string, bool) {
	result, err := r.engine.ProcessAudio(context.Background(), audio.Int16ToBytes(frame))
	if err != nil {
		r.logger.Warn("speech recognition failed", zap.Error(err))
		return "", false
	}
	if result == nil || result.Partial {
		return "", false
	}
	text := strings.TrimSpace(result.Text)
	if text == "" {
		return "", false
	}
	return text, true
}

// Reset drops audio buffered from a previous session
func (r *Recognizer) Reset() {
	if err := r.engine.Reset(); err != nil {
		r.logger.Debug("failed to reset recognizer", zap.Error(err))
	}
}

// Close releases the engine
func (r *Recognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initialized = false
	return r.engine.Close()
}
