package wakeword

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Detector gates an Engine behind the playback mute window
type Detector struct {
	engine Engine
	mute   *MuteWindow
	logger *zap.Logger

	mu          sync.Mutex
	initialized bool
}

// NewDetector wraps engine. mute must be the same window the player arms.
func NewDetector(engine Engine, mute *MuteWindow, logger *zap.Logger) (*Detector, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine is nil")
	}
	if mute == nil {
		return nil, fmt.Errorf("mute window is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{engine: engine, mute: mute, logger: logger}, nil
}

// Init initializes the engine once. Later calls return nil without touching
// the engine; a failed Init may be retried.
func (d *Detector) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		return nil
	}
	if err := d.engine.Init(); err != nil {
		return fmt.Errorf("failed to initialize wake-word engine: %w", err)
	}
	d.initialized = true
	return nil
}

// OnFrame returns the matched keyword index. While the mute window is active
// the engine is not invoked at all.
func (d *Detector) OnFrame(frame []int16) (int, bool) {
	if d.mute.IsActive() {
		return 0, false
	}

	d.mu.Lock()
	ready := d.initialized
	d.mu.Unlock()
	if !ready {
		d.logger.Error("wake-word detector used before initialization")
		return 0, false
	}

	return d.engine.Process(frame)
}

// Close releases the engine
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return nil
	}
	d.initialized = false
	return d.engine.Close()
}
