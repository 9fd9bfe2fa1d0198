package sound

import (
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Muter is armed before every playback so the wake-word detector ignores
// the assistant's own voice.
type Muter interface {
	Arm(d time.Duration)
}

// PlayerConfig configures a Player
type PlayerConfig struct {
	Fs      afero.Fs
	Backend Backend // renders everything except mp3
	MP3     Backend // renders mp3; may be the same value as Backend
	Mute    Muter
	MuteFor time.Duration
	Logger  *zap.Logger
}

// Player plays sound files. Failures are logged and never returned.
type Player struct {
	fs      afero.Fs
	backend Backend
	mp3     Backend
	mute    Muter
	muteFor time.Duration
	logger  *zap.Logger
}

// NewPlayer initializes the configured backends. A backend that fails to
// initialize is dropped and playback routed to it becomes silent.
func NewPlayer(cfg PlayerConfig) *Player {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fs := cfg.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	p := &Player{
		fs:      fs,
		mute:    cfg.Mute,
		muteFor: cfg.MuteFor,
		logger:  logger,
	}
	p.backend = p.initBackend(cfg.Backend)
	if cfg.MP3 == cfg.Backend {
		p.mp3 = p.backend
	} else {
		p.mp3 = p.initBackend(cfg.MP3)
	}
	return p
}

func (p *Player) initBackend(b Backend) Backend {
	if b == nil {
		return nil
	}
	if err := b.Init(); err != nil {
		p.logger.Error("Failed to initialize audio backend",
			zap.String("backend", b.Name()), zap.Error(err))
		return nil
	}
	return b
}

// Play renders the file at path. The mute window is armed first whether
// or not the file can be played.
func (p *Player) Play(path string, blocking bool) {
	if p.mute != nil {
		p.mute.Arm(p.muteFor)
	}

	backend := p.backend
	if IsMP3(path) {
		backend = p.mp3
	}
	if backend == nil {
		p.logger.Warn("No audio backend available", zap.String("path", path))
		return
	}

	clip, err := DecodeFile(p.fs, path)
	if err != nil {
		p.logger.Error("Failed to open sound file", zap.String("path", path), zap.Error(err))
		return
	}

	p.logger.Debug("Playing sound",
		zap.String("path", path),
		zap.String("backend", backend.Name()),
		zap.Bool("blocking", blocking))

	if err := backend.Play(clip, blocking); err != nil {
		p.logger.Error("Playback failed", zap.String("path", path), zap.Error(err))
	}
}

// Close releases the backends
func (p *Player) Close() error {
	var err error
	if p.backend != nil {
		err = p.backend.Close()
	}
	if p.mp3 != nil && p.mp3 != p.backend {
		if mErr := p.mp3.Close(); err == nil {
			err = mErr
		}
	}
	return err
}
