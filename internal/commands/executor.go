package commands

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds cli commands
const DefaultTimeout = 30 * time.Second

// ErrSoundNotFound is returned when a sound command's file cannot be resolved
var ErrSoundNotFound = errors.New("command sound not found")

// Outcome describes a successful execution
type Outcome struct {
	Path     string
	Output   string
	Duration time.Duration

	// Terminate asks the caller to stop the assistant
	Terminate bool
}

// SoundPlayer plays a file, optionally waiting for it to finish
type SoundPlayer interface {
	Play(path string, blocking bool)
}

// SoundResolver maps a logical sound name to a file
type SoundResolver interface {
	Resolve(name string) (string, bool)
}

// RunFunc runs a process and returns its combined output
type RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// OpenFunc opens a URL with the desktop's handler
type OpenFunc func(ctx context.Context, url string) error

// ExecutorConfig configures an Executor
type ExecutorConfig struct {
	Player   SoundPlayer
	Resolver SoundResolver
	Timeout  time.Duration
	Run      RunFunc
	Open     OpenFunc
	Logger   *zap.Logger
}

// Executor runs command entries
type Executor struct {
	player   SoundPlayer
	resolver SoundResolver
	timeout  time.Duration
	run      RunFunc
	open     OpenFunc
	logger   *zap.Logger
	now      func() time.Time
}

// NewExecutor creates an executor. Run and Open default to os/exec.
func NewExecutor(cfg ExecutorConfig) *Executor {
	e := &Executor{
		player:   cfg.Player,
		resolver: cfg.Resolver,
		timeout:  cfg.Timeout,
		run:      cfg.Run,
		open:     cfg.Open,
		logger:   cfg.Logger,
		now:      time.Now,
	}
	if e.timeout <= 0 {
		e.timeout = DefaultTimeout
	}
	if e.run == nil {
		e.run = runProcess
	}
	if e.open == nil {
		e.open = func(ctx context.Context, url string) error {
			name, args := openerCommand(runtime.GOOS, url)
			_, err := e.run(ctx, name, args...)
			return err
		}
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// Execute runs entry
func (e *Executor) Execute(ctx context.Context, entry Entry) (Outcome, error) {
	start := e.now()
	out := Outcome{Path: entry.Path()}

	e.logger.Info("Executing command",
		zap.String("path", out.Path),
		zap.String("type", string(entry.Type)))

	var err error
	switch entry.Type {
	case TypeCLI:
		out.Output, err = e.execCLI(ctx, entry)
	case TypeSound:
		err = e.playSound(entry)
	case TypeURL:
		err = e.open(ctx, entry.URL)
		if err != nil {
			err = fmt.Errorf("failed to open %s: %w", entry.URL, err)
		}
	case TypeTerminate:
		out.Terminate = true
	default:
		err = fmt.Errorf("%w %q", ErrUnknownType, entry.Type)
	}

	out.Duration = e.now().Sub(start)
	if err != nil {
		return out, fmt.Errorf("command %s failed: %w", out.Path, err)
	}
	return out, nil
}

func (e *Executor) execCLI(ctx context.Context, entry Entry) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	exe := entry.Exe
	if entry.Dir != "" && !filepath.IsAbs(exe) && strings.ContainsRune(exe, filepath.Separator) {
		exe = filepath.Join(entry.Dir, exe)
	}

	output, err := e.run(ctx, exe, entry.Args...)
	text := strings.TrimSpace(string(output))
	if err != nil {
		if text != "" {
			return text, fmt.Errorf("%w: %s", err, text)
		}
		return text, err
	}
	return text, nil
}

func (e *Executor) playSound(entry Entry) error {
	if e.resolver == nil || e.player == nil {
		return fmt.Errorf("%w: no player configured", ErrSoundNotFound)
	}
	p, ok := e.resolver.Resolve(entry.Sound)
	if !ok {
		return fmt.Errorf("%w: %s", ErrSoundNotFound, entry.Sound)
	}
	e.player.Play(p, true)
	return nil
}

func runProcess(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

func openerCommand(goos, url string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{url}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	default:
		return "xdg-open", []string{url}
	}
}
