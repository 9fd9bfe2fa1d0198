package sound

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/go-mp3"
	"github.com/spf13/afero"

	"github.com/emmett/voxwake/internal/audio"
)

// ErrUnsupportedFormat is returned for file extensions no decoder handles
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// IsMP3 reports whether path has an .mp3 extension, ignoring case
func IsMP3(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".mp3")
}

// DecodeFile decodes a WAV or MP3 file into 16-bit PCM
func DecodeFile(fs afero.Fs, path string) (*audio.PCM, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav", ".wave":
		return audio.ReadWAV(fs, path)
	case ".mp3":
		return decodeMP3(fs, path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// decodeMP3 decodes to interleaved stereo, which is what go-mp3 always emits
func decodeMP3(fs afero.Fs, path string) (*audio.PCM, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	d, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	data, err := io.ReadAll(d)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return &audio.PCM{
		Samples:    audio.BytesToInt16(data),
		SampleRate: d.SampleRate(),
		Channels:   2,
	}, nil
}
