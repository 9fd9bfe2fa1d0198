// Package app wires the frame source, wake-word detector, recognizer,
// player and command executor into the listening loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/emmett/voxwake/internal/audio"
	"github.com/emmett/voxwake/internal/commands"
	"github.com/emmett/voxwake/internal/observe"
	"github.com/emmett/voxwake/internal/output"
)

// Cue file names looked up in the sound directories
const (
	StartupCue    = "run.wav"
	ActivationCue = "activate.mp3"
	AcceptCue     = "ok1.wav"
	CancelCue     = "cancel.mp3"
	NotFoundCue   = "not_found.wav"
)

var (
	ErrRecorderStart  = errors.New("failed to start recorder")
	ErrWakeInit       = errors.New("failed to initialize wake-word engine")
	ErrRecognizerInit = errors.New("failed to initialize speech recognizer")
)

// WakeDetector reports wake-word hits frame by frame
type WakeDetector interface {
	Init() error
	OnFrame(frame []int16) (int, bool)
}

// SpeechRecognizer turns frames into final text fragments
type SpeechRecognizer interface {
	Init() error
	Recognize(frame []int16) (string, bool)
	Reset()
}

// SoundPlayer plays a cue file
type SoundPlayer interface {
	Play(path string, blocking bool)
}

// SoundLocator finds cue files
type SoundLocator interface {
	Resolve(name string) (string, bool)
	SoundDirectory() (string, bool)
	DefaultVoiceDirectory() (string, bool)
	Exists(path string) bool
}

// CommandMatcher maps filtered text to a command
type CommandMatcher interface {
	Match(text string) (commands.Match, bool)
}

// CommandExecutor runs a matched command
type CommandExecutor interface {
	Execute(ctx context.Context, entry commands.Entry) (commands.Outcome, error)
}

// Trigger opens a session without the wake word
type Trigger interface {
	Triggered() <-chan struct{}
}

// SessionRecorder captures each session's audio
type SessionRecorder interface {
	Begin(sessionID string, start time.Time) error
	Write(frame []int16) error
	End() (string, error)
}

// Journal receives session events
type Journal interface {
	WriteEvent(event output.Event) error
}

// AssistantConfig holds every collaborator of the listening loop. Trigger,
// Recorder, Journal, Metrics and States are optional.
type AssistantConfig struct {
	Source     audio.FrameSource
	Detector   WakeDetector
	Recognizer SpeechRecognizer
	Player     SoundPlayer
	Sounds     SoundLocator
	Matcher    CommandMatcher
	Executor   CommandExecutor

	FillerPhrases []string
	WarmupMute    time.Duration
	WaitDelay     time.Duration

	Trigger  Trigger
	Recorder SessionRecorder
	Journal  Journal
	Metrics  *observe.Metrics
	States   *StateMachine

	Clock  func() time.Time
	Logger *zap.Logger
}

// Assistant runs the WakeIdle/Listening loop
type Assistant struct {
	source     audio.FrameSource
	detector   WakeDetector
	recognizer SpeechRecognizer
	player     SoundPlayer
	sounds     SoundLocator
	matcher    CommandMatcher
	executor   CommandExecutor

	fillers   []string
	warmup    time.Duration
	waitDelay time.Duration

	trigger  Trigger
	recorder SessionRecorder
	journal  Journal
	metrics  *observe.Metrics
	states   *StateMachine

	clock  func() time.Time
	logger *zap.Logger
}

// NewAssistant validates cfg and creates an assistant
func NewAssistant(cfg AssistantConfig) (*Assistant, error) {
	switch {
	case cfg.Source == nil:
		return nil, fmt.Errorf("frame source is required")
	case cfg.Detector == nil:
		return nil, fmt.Errorf("wake detector is required")
	case cfg.Recognizer == nil:
		return nil, fmt.Errorf("recognizer is required")
	case cfg.Player == nil, cfg.Sounds == nil:
		return nil, fmt.Errorf("player and sound locator are required")
	case cfg.Matcher == nil, cfg.Executor == nil:
		return nil, fmt.Errorf("command matcher and executor are required")
	}

	a := &Assistant{
		source:     cfg.Source,
		detector:   cfg.Detector,
		recognizer: cfg.Recognizer,
		player:     cfg.Player,
		sounds:     cfg.Sounds,
		matcher:    cfg.Matcher,
		executor:   cfg.Executor,
		fillers:    cfg.FillerPhrases,
		warmup:     cfg.WarmupMute,
		waitDelay:  cfg.WaitDelay,
		trigger:    cfg.Trigger,
		recorder:   cfg.Recorder,
		journal:    cfg.Journal,
		metrics:    cfg.Metrics,
		states:     cfg.States,
		clock:      cfg.Clock,
		logger:     cfg.Logger,
	}
	if a.clock == nil {
		a.clock = time.Now
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.states == nil {
		a.states = NewStateMachine(a.clock)
	}
	return a, nil
}

// States returns the state machine driven by the loop
func (a *Assistant) States() *StateMachine { return a.states }

// Run plays the startup cue, starts the recorder and loops until ctx is
// cancelled, capture stops or a terminate command runs. Fatal startup
// failures wrap ErrRecorderStart, ErrWakeInit or ErrRecognizerInit.
func (a *Assistant) Run(ctx context.Context) error {
	a.playStartupCue()

	if err := a.source.Start(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRecorderStart, err)
	}
	defer a.source.Stop()

	if err := a.detector.Init(); err != nil {
		return fmt.Errorf("%w: %w", ErrWakeInit, err)
	}
	if err := a.recognizer.Init(); err != nil {
		return fmt.Errorf("%w: %w", ErrRecognizerInit, err)
	}

	a.logger.Info("Listening for wake word")

	frame := make([]int16, a.source.FrameLength())
	for {
		kind, index, err := a.waitForWake(ctx, frame)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if a.listen(ctx, frame, kind, index) {
			a.logger.Info("Terminate command received")
			return nil
		}
	}
}

// waitForWake reads frames until the detector fires or the trigger is
// pressed
func (a *Assistant) waitForWake(ctx context.Context, frame []int16) (TriggerKind, int, error) {
	var manual <-chan struct{}
	if a.trigger != nil {
		manual = a.trigger.Triggered()
	}

	for {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		if err := a.source.Read(frame); err != nil {
			return "", 0, fmt.Errorf("failed to read frame: %w", err)
		}

		select {
		case <-manual:
			return TriggerManual, ManualIndex, nil
		default:
		}

		if index, ok := a.detector.OnFrame(frame); ok {
			return TriggerKeyword, index, nil
		}
	}
}

// listen runs one session. It reports whether the executed command asked
// the assistant to stop.
func (a *Assistant) listen(ctx context.Context, frame []int16, kind TriggerKind, index int) bool {
	session := newSession(a.clock(), kind, index)
	id := session.ID.String()

	a.logger.Info("Wake word detected",
		zap.Int("index", index),
		zap.String("trigger", string(kind)),
		zap.String("session", id))

	a.states.Transition(StateListening)
	a.metrics.RecordWake(ctx, string(kind))
	a.record(output.Event{Session: id, Kind: output.EventWake, Trigger: string(kind), Index: &index})

	if a.recorder != nil {
		if err := a.recorder.Begin(id, session.Start); err != nil {
			a.logger.Warn("Failed to start session dump", zap.Error(err))
		}
	}

	a.playActivationCue()
	session.Start = a.clock()
	a.recognizer.Reset()

	outcome := output.EventCancelled
	defer func() { a.endSession(ctx, session, outcome) }()

	for {
		if ctx.Err() != nil {
			return false
		}
		if err := a.source.Read(frame); err != nil {
			a.logger.Warn("Frame source stopped while listening", zap.Error(err))
			return false
		}
		if a.recorder != nil {
			if err := a.recorder.Write(frame); err != nil {
				a.logger.Debug("Failed to write session dump", zap.Error(err))
			}
		}

		elapsed := session.Elapsed(a.clock())
		if elapsed < a.warmup {
			continue
		}

		if text, ok := a.recognizer.Recognize(frame); ok {
			filtered := StripFillers(text, a.fillers)
			if filtered == "" {
				continue
			}
			a.logger.Info("Recognized", zap.String("text", filtered))
			a.record(output.Event{Session: id, Kind: output.EventRecognized, Text: filtered, Elapsed: elapsed})

			match, found := a.matcher.Match(filtered)
			a.metrics.RecordRecognition(ctx, found)
			if !found {
				a.logger.Debug("No command matched; continue listening", zap.String("text", filtered))
				a.record(output.Event{Session: id, Kind: output.EventUnmatched, Text: filtered})
				continue
			}

			result, err := a.executor.Execute(ctx, match.Entry)
			a.metrics.RecordCommand(ctx, string(match.Entry.Type), result.Duration, err)
			if err != nil {
				a.logger.Error("Command failed", zap.String("command", match.Entry.Path()), zap.Error(err))
				outcome = output.EventFailed
				a.record(output.Event{Session: id, Kind: outcome, Command: match.Entry.Path(), Error: err.Error()})
				return false
			}

			outcome = output.EventExecuted
			a.record(output.Event{Session: id, Kind: outcome, Command: match.Entry.Path(), Output: result.Output, Elapsed: result.Duration})
			return result.Terminate
		}

		if elapsed > a.waitDelay {
			a.playCancelCue()
			a.logger.Info("Listening timeout reached")
			outcome = output.EventTimeout
			a.record(output.Event{Session: id, Kind: outcome, Elapsed: elapsed})
			return false
		}
	}
}

func (a *Assistant) endSession(ctx context.Context, session ListeningSession, outcome output.EventKind) {
	if a.recorder != nil {
		path, err := a.recorder.End()
		if err != nil {
			a.logger.Warn("Failed to finish session dump", zap.Error(err))
		} else if path != "" {
			a.logger.Debug("Session audio saved", zap.String("path", path))
		}
	}
	a.recognizer.Reset()
	a.metrics.RecordSessionEnd(ctx, string(outcome), session.Elapsed(a.clock()))
	a.states.Transition(StateWakeIdle)
}

func (a *Assistant) record(event output.Event) {
	if a.journal == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = a.clock()
	}
	if err := a.journal.WriteEvent(event); err != nil {
		a.logger.Warn("Failed to write journal event", zap.Error(err))
	}
}

func (a *Assistant) playStartupCue() {
	dir, ok := a.sounds.SoundDirectory()
	if !ok {
		a.logger.Warn("No sound directory found; skipping startup cue")
		return
	}
	a.player.Play(filepath.Join(dir, StartupCue), false)
}

func (a *Assistant) playActivationCue() {
	if p, ok := a.sounds.Resolve(ActivationCue); ok {
		a.player.Play(p, false)
		return
	}
	dir, ok := a.sounds.SoundDirectory()
	if !ok {
		a.logger.Warn("No activation sound found")
		return
	}
	a.player.Play(filepath.Join(dir, AcceptCue), false)
}

// playCancelCue plays the first existing cancellation cue and waits for
// it to finish
func (a *Assistant) playCancelCue() {
	if p, ok := a.sounds.Resolve(CancelCue); ok {
		a.player.Play(p, true)
		return
	}

	var candidates []string
	defaultDir, haveDefault := a.sounds.DefaultVoiceDirectory()
	if haveDefault {
		candidates = append(candidates, filepath.Join(defaultDir, CancelCue))
	}
	if dir, ok := a.sounds.SoundDirectory(); ok {
		candidates = append(candidates, filepath.Join(dir, NotFoundCue))
	}
	if haveDefault {
		candidates = append(candidates, filepath.Join(defaultDir, NotFoundCue))
	}

	for _, p := range candidates {
		if a.sounds.Exists(p) {
			a.player.Play(p, true)
			return
		}
	}
	a.logger.Warn("No cancel sound found in any location.")
}

// ExitCode maps an error returned by Run to a process exit status
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
