// Package input provides a global hotkey that opens a listening session
// without saying the wake word.
package input

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.design/x/hotkey"
)

// HotkeyTrigger fires once per key press
type HotkeyTrigger struct {
	mu     sync.Mutex
	hk     *hotkey.Hotkey
	fired  chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHotkeyTrigger creates an unregistered trigger
func NewHotkeyTrigger() *HotkeyTrigger {
	return &HotkeyTrigger{
		fired: make(chan struct{}, 1),
	}
}

// Triggered delivers a value for each press not yet consumed. Presses
// arriving while one is pending are coalesced.
func (h *HotkeyTrigger) Triggered() <-chan struct{} {
	return h.fired
}

// Start registers keys (e.g. "ctrl+shift+j") and begins listening
func (h *HotkeyTrigger) Start(ctx context.Context, keys string) error {
	mods, key, err := parseHotkey(keys)
	if err != nil {
		return fmt.Errorf("invalid hotkey: %w", err)
	}

	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return fmt.Errorf("failed to register hotkey: %w", err)
	}

	h.mu.Lock()
	h.hk = hk
	h.done = make(chan struct{})
	ctx, h.cancel = context.WithCancel(ctx)
	done := h.done
	h.mu.Unlock()

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-hk.Keydown():
				if !ok {
					return
				}
				h.fire()
			}
		}
	}()

	return nil
}

func (h *HotkeyTrigger) fire() {
	select {
	case h.fired <- struct{}{}:
	default:
	}
}

// Stop unregisters the hotkey
func (h *HotkeyTrigger) Stop() {
	h.mu.Lock()
	cancel, hk, done := h.cancel, h.hk, h.done
	h.cancel, h.hk = nil, nil
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if hk != nil {
		_ = hk.Unregister()
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
		}
	}
}

var namedKeys = map[string]hotkey.Key{
	"space":  hotkey.KeySpace,
	"return": hotkey.KeyReturn,
	"enter":  hotkey.KeyReturn,
	"tab":    hotkey.KeyTab,
	"escape": hotkey.KeyEscape,
	"esc":    hotkey.KeyEscape,
	"f1":     hotkey.KeyF1,
	"f2":     hotkey.KeyF2,
	"f3":     hotkey.KeyF3,
	"f4":     hotkey.KeyF4,
	"f5":     hotkey.KeyF5,
	"f6":     hotkey.KeyF6,
	"f7":     hotkey.KeyF7,
	"f8":     hotkey.KeyF8,
	"f9":     hotkey.KeyF9,
	"f10":    hotkey.KeyF10,
	"f11":    hotkey.KeyF11,
	"f12":    hotkey.KeyF12,
}

var letterKeys = []hotkey.Key{
	hotkey.KeyA, hotkey.KeyB, hotkey.KeyC, hotkey.KeyD, hotkey.KeyE, hotkey.KeyF,
	hotkey.KeyG, hotkey.KeyH, hotkey.KeyI, hotkey.KeyJ, hotkey.KeyK, hotkey.KeyL,
	hotkey.KeyM, hotkey.KeyN, hotkey.KeyO, hotkey.KeyP, hotkey.KeyQ, hotkey.KeyR,
	hotkey.KeyS, hotkey.KeyT, hotkey.KeyU, hotkey.KeyV, hotkey.KeyW, hotkey.KeyX,
	hotkey.KeyY, hotkey.KeyZ,
}

var digitKeys = []hotkey.Key{
	hotkey.Key0, hotkey.Key1, hotkey.Key2, hotkey.Key3, hotkey.Key4,
	hotkey.Key5, hotkey.Key6, hotkey.Key7, hotkey.Key8, hotkey.Key9,
}

// parseHotkey parses a string like "ctrl+shift+j" into modifiers and key
func parseHotkey(s string) ([]hotkey.Modifier, hotkey.Key, error) {
	if strings.TrimSpace(s) == "" {
		return nil, 0, fmt.Errorf("empty hotkey string")
	}

	var mods []hotkey.Modifier
	var key hotkey.Key
	var keyFound bool

	for _, part := range strings.Split(strings.ToLower(s), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "ctrl", "control":
			mods = append(mods, hotkey.ModCtrl)
		case "shift":
			mods = append(mods, hotkey.ModShift)
		case "alt", "option":
			mods = append(mods, modAlt())
		case "cmd", "command", "super", "win":
			mods = append(mods, modSuper())
		default:
			if keyFound {
				return nil, 0, fmt.Errorf("multiple keys specified")
			}
			k, err := parseKey(part)
			if err != nil {
				return nil, 0, err
			}
			key = k
			keyFound = true
		}
	}

	if !keyFound {
		return nil, 0, fmt.Errorf("no key specified")
	}

	return mods, key, nil
}

func parseKey(s string) (hotkey.Key, error) {
	if k, ok := namedKeys[s]; ok {
		return k, nil
	}
	if len(s) == 1 {
		switch c := s[0]; {
		case c >= 'a' && c <= 'z':
			return letterKeys[c-'a'], nil
		case c >= '0' && c <= '9':
			return digitKeys[c-'0'], nil
		}
	}
	return 0, fmt.Errorf("unknown key: %s", s)
}
