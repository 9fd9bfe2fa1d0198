package audio

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	wave "github.com/zenwerk/go-wave"
)

// SessionDumper writes the audio of each listening session to its own WAV
// file. Used for debugging misrecognitions.
type SessionDumper struct {
	fs         afero.Fs
	dir        string
	sampleRate int

	mu     sync.Mutex
	writer *wave.Writer
	path   string
}

// NewSessionDumper creates a dumper writing into dir on fs
func NewSessionDumper(fs afero.Fs, dir string, sampleRate int) (*SessionDumper, error) {
	if dir == "" {
		return nil, fmt.Errorf("dump directory must not be empty")
	}
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create dump directory: %w", err)
	}
	return &SessionDumper{fs: fs, dir: dir, sampleRate: sampleRate}, nil
}

// Begin opens a new file for the session. Any open file is finished first.
func (d *SessionDumper) Begin(sessionID string, start time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.finishLocked(); err != nil {
		return err
	}

	name := fmt.Sprintf("%s-%s.wav", start.Format("20060102-150405"), sessionID)
	path := filepath.Join(d.dir, name)

	f, err := d.fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dump file: %w", err)
	}
	w, err := wave.NewWriter(wave.WriterParam{
		Out:           f,
		Channel:       1,
		SampleRate:    d.sampleRate,
		BitsPerSample: 16,
	})
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to create wav writer: %w", err)
	}

	d.writer = w
	d.path = path
	return nil
}

// Write appends a frame to the open session file
func (d *SessionDumper) Write(frame []int16) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.writer == nil {
		return nil
	}
	if _, err := d.writer.WriteSample16(frame); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	return nil
}

// End finishes the open session file and returns its path
func (d *SessionDumper) End() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	path := d.path
	return path, d.finishLocked()
}

func (d *SessionDumper) finishLocked() error {
	if d.writer == nil {
		return nil
	}
	err := d.writer.Close()
	d.writer = nil
	d.path = ""
	if err != nil {
		return fmt.Errorf("failed to close dump file: %w", err)
	}
	return nil
}
