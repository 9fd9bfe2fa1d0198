package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/emmett/voxwake/internal/audio"
	"github.com/emmett/voxwake/internal/commands"
	"github.com/emmett/voxwake/internal/config"
	"github.com/emmett/voxwake/internal/input"
	"github.com/emmett/voxwake/internal/models"
	"github.com/emmett/voxwake/internal/observe"
	"github.com/emmett/voxwake/internal/output"
	"github.com/emmett/voxwake/internal/sound"
	"github.com/emmett/voxwake/internal/stt"
	"github.com/emmett/voxwake/internal/wakeword"
)

// Options tune Bootstrap for the caller's environment
type Options struct {
	// AutoDownload fetches missing models without asking
	AutoDownload bool

	// In and Out are used for the download prompt. Defaults are stdin/stdout.
	In  io.Reader
	Out io.Writer

	// Fs defaults to the OS filesystem
	Fs afero.Fs
}

// Runtime holds every subsystem built from configuration. Close releases
// them in reverse order of construction.
type Runtime struct {
	Config    *config.Config
	Logger    *zap.Logger
	Assistant *Assistant
	Player    *sound.Player
	Resolver  *sound.Resolver
	Registry  *commands.Registry
	Matcher   *commands.Matcher
	Executor  *commands.Executor
	Metrics   *observe.Metrics
	Provider  *observe.Provider
	Hotkey    *input.HotkeyTrigger

	closers []func() error
}

// Close releases all subsystems and joins their errors
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

func (r *Runtime) onClose(fn func() error) {
	r.closers = append(r.closers, fn)
}

// NewSoundStack builds the resolver and player from cfg. The player arms
// mute on every call; mute may be nil for tools that never listen.
func NewSoundStack(fs afero.Fs, cfg *config.Config, mute sound.Muter, logger *zap.Logger) (*sound.Resolver, *sound.Player, error) {
	resolver := sound.NewResolver(fs, cfg.Voice.SoundDir, cfg.Voice.Profile, cfg.Voice.Default)

	kind, err := sound.ParseKind(cfg.Audio.Backend)
	if err != nil {
		return nil, nil, err
	}
	backend, err := sound.NewBackend(kind)
	if err != nil {
		return nil, nil, err
	}
	var mp3 sound.Backend = backend
	if kind != sound.KindMalgo {
		mp3 = sound.NewMalgoBackend()
	}

	player := sound.NewPlayer(sound.PlayerConfig{
		Fs:      fs,
		Backend: backend,
		MP3:     mp3,
		Mute:    mute,
		MuteFor: cfg.Timing.PlaybackWakeMute,
		Logger:  logger,
	})
	return resolver, player, nil
}

// LoadCommands loads the registry from cfg.Commands.Dir. A missing
// directory yields an empty registry.
func LoadCommands(fs afero.Fs, cfg *config.Config, logger *zap.Logger) (*commands.Registry, error) {
	exists, err := afero.DirExists(fs, cfg.Commands.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat commands directory: %w", err)
	}
	if !exists {
		logger.Warn("Commands directory not found, no commands loaded",
			zap.String("dir", cfg.Commands.Dir))
		return commands.NewRegistry()
	}
	return commands.LoadRegistry(fs, cfg.Commands.Dir)
}

// Bootstrap builds the listening loop and its collaborators from cfg
func Bootstrap(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	rt := &Runtime{Config: cfg, Logger: logger}
	fail := func(err error) (*Runtime, error) {
		_ = rt.Close()
		return nil, err
	}

	mute := wakeword.NewMuteWindow(time.Now)

	resolver, player, err := NewSoundStack(fs, cfg, mute, logger)
	if err != nil {
		return fail(err)
	}
	rt.Resolver = resolver
	rt.Player = player
	rt.onClose(player.Close)

	registry, err := LoadCommands(fs, cfg, logger)
	if err != nil {
		return fail(err)
	}
	rt.Registry = registry
	rt.Matcher = commands.NewMatcher(registry, cfg.Commands.FuzzyThreshold)
	rt.Executor = commands.NewExecutor(commands.ExecutorConfig{
		Player:   player,
		Resolver: resolver,
		Timeout:  cfg.Commands.Timeout,
		Logger:   logger,
	})
	logger.Info("Commands loaded", zap.Int("count", registry.Len()))

	modelMgr := NewModelManager(models.NewManager(models.ManagerConfig{Fs: fs}), opts.Out, opts.In)

	sttPath, err := modelMgr.EnsureModel(ctx, cfg.STT.Engine, cfg.STT.ModelPath, cfg.STT.Model, opts.AutoDownload)
	if err != nil {
		return fail(fmt.Errorf("failed to resolve speech model: %w", err))
	}
	sttEngine, err := stt.NewEngine(cfg.STT.Engine)
	if err != nil {
		return fail(err)
	}
	sttConfig := stt.DefaultConfig(sttPath)
	sttConfig.SampleRate = int(cfg.Audio.SampleRate)
	sttConfig.Language = cfg.STT.Language
	sttConfig.VADMode = cfg.Wake.VADMode
	recognizer, err := stt.NewRecognizer(sttEngine, sttConfig, logger)
	if err != nil {
		return fail(err)
	}
	rt.onClose(recognizer.Close)

	wakeKind, err := wakeword.ParseKind(cfg.Wake.Engine)
	if err != nil {
		return fail(err)
	}
	wakeModel := cfg.Wake.ModelPath
	if wakeKind != wakeword.KindTemplate {
		// The wake engine falls back to the speech model of the same engine
		wakeModel, err = modelMgr.EnsureModel(ctx, string(wakeKind), cfg.Wake.ModelPath, "", opts.AutoDownload)
		if err != nil {
			return fail(fmt.Errorf("failed to resolve wake-word model: %w", err))
		}
	}
	engine, err := wakeword.NewEngine(wakeKind, wakeword.EngineConfig{
		Keywords:     cfg.Wake.Keywords,
		ModelPath:    wakeModel,
		TemplatesDir: cfg.Wake.TemplatesDir,
		Threshold:    cfg.Wake.Threshold,
		VADMode:      cfg.Wake.VADMode,
		SampleRate:   int(cfg.Audio.SampleRate),
		Language:     cfg.STT.Language,
		Fs:           fs,
		Logger:       logger,
	})
	if err != nil {
		return fail(err)
	}
	detector, err := wakeword.NewDetector(engine, mute, logger)
	if err != nil {
		return fail(err)
	}
	rt.onClose(detector.Close)

	capture := audio.DefaultConfig()
	capture.SampleRate = cfg.Audio.SampleRate
	capture.FrameLength = cfg.Audio.FrameLength
	capture.DeviceName = cfg.Audio.Device
	source, err := audio.NewFrameSource(capture)
	if err != nil {
		return fail(fmt.Errorf("failed to create frame source: %w", err))
	}

	if cfg.Server.MetricsPort > 0 {
		provider, err := observe.InitProvider()
		if err != nil {
			return fail(err)
		}
		rt.Provider = provider
		rt.onClose(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return provider.Shutdown(ctx)
		})
	}
	rt.Metrics, err = observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return fail(err)
	}

	var journal Journal
	if cfg.Journal.Format != "" || cfg.Journal.File != "" {
		// The formatter must not close stdout; the journal file is closed separately
		w := struct{ io.Writer }{opts.Out}
		if cfg.Journal.File != "" {
			if err := fs.MkdirAll(filepath.Dir(cfg.Journal.File), 0755); err != nil {
				return fail(fmt.Errorf("failed to create journal directory: %w", err))
			}
			f, err := fs.OpenFile(cfg.Journal.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err != nil {
				return fail(fmt.Errorf("failed to open journal file: %w", err))
			}
			rt.onClose(f.Close)
			w.Writer = f
		}
		formatter, err := output.NewFormatter(cfg.Journal.Format, w)
		if err != nil {
			return fail(err)
		}
		rt.onClose(formatter.Flush)
		journal = formatter
	}

	var recorder SessionRecorder
	if cfg.Debug.DumpDir != "" {
		dumper, err := audio.NewSessionDumper(fs, cfg.Debug.DumpDir, int(cfg.Audio.SampleRate))
		if err != nil {
			return fail(err)
		}
		rt.onClose(func() error {
			_, err := dumper.End()
			return err
		})
		recorder = dumper
	}

	var trigger Trigger
	if cfg.Hotkey.Enabled {
		hk := input.NewHotkeyTrigger()
		if err := hk.Start(ctx, cfg.Hotkey.Keys); err != nil {
			logger.Warn("Manual activation disabled", zap.Error(err))
		} else {
			rt.Hotkey = hk
			rt.onClose(func() error {
				hk.Stop()
				return nil
			})
			trigger = hk
		}
	}

	assistant, err := NewAssistant(AssistantConfig{
		Source:        source,
		Detector:      detector,
		Recognizer:    recognizer,
		Player:        player,
		Sounds:        resolver,
		Matcher:       rt.Matcher,
		Executor:      rt.Executor,
		FillerPhrases: cfg.FillerPhrases,
		WarmupMute:    cfg.Timing.WarmupMute,
		WaitDelay:     cfg.Timing.WaitDelay,
		Trigger:       trigger,
		Recorder:      recorder,
		Journal:       journal,
		Metrics:       rt.Metrics,
		States:        NewStateMachine(time.Now),
		Logger:        logger,
	})
	if err != nil {
		return fail(err)
	}
	rt.Assistant = assistant

	return rt, nil
}
