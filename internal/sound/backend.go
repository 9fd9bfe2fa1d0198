package sound

import (
	"fmt"
	"strings"

	"github.com/emmett/voxwake/internal/audio"
)

// Backend renders decoded audio to an output device
type Backend interface {
	// Name identifies the backend in logs
	Name() string

	// Init opens the output system. Calling it again has no effect.
	Init() error

	// Play renders clip. When blocking is true it returns after the last
	// sample has been output.
	Play(clip *audio.PCM, blocking bool) error

	// Close stops playback and releases the device
	Close() error
}

// Kind identifies a backend implementation
type Kind string

const (
	KindMalgo     Kind = "malgo"
	KindPortAudio Kind = "portaudio"
)

// ParseKind validates a backend name from configuration
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindMalgo, KindPortAudio:
		return k, nil
	default:
		return "", fmt.Errorf("unknown audio backend %q", s)
	}
}

// NewBackend constructs the backend for kind
func NewBackend(kind Kind) (Backend, error) {
	switch kind {
	case KindMalgo:
		return NewMalgoBackend(), nil
	case KindPortAudio:
		return NewPortAudioBackend(), nil
	default:
		return nil, fmt.Errorf("unknown audio backend %q", kind)
	}
}
