package wakeword

import (
	"sync"
	"time"
)

// MuteWindow holds the deadline until which wake detection is suppressed.
// It is armed by the sound player and read by the Detector, so it may be
// touched from different goroutines.
type MuteWindow struct {
	mu    sync.Mutex
	until time.Time
	now   func() time.Time
}

// NewMuteWindow creates an unarmed window. A nil clock means time.Now.
func NewMuteWindow(clock func() time.Time) *MuteWindow {
	if clock == nil {
		clock = time.Now
	}
	return &MuteWindow{now: clock}
}

// Arm suppresses detection for d starting now, replacing any earlier deadline
func (w *MuteWindow) Arm(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.until = w.now().Add(d)
}

// IsActive reports whether the window is armed and unexpired. An expired
// window is cleared.
func (w *MuteWindow) IsActive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.until.IsZero() {
		return false
	}
	if w.now().Before(w.until) {
		return true
	}
	w.until = time.Time{}
	return false
}

// Until returns the current deadline, zero when unarmed
func (w *MuteWindow) Until() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.until
}
