package sound

import (
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmett/voxwake/internal/audio"
)

func TestDecodeWAV(t *testing.T) {
	fs := afero.NewMemMapFs()
	samples := []int16{0, 1000, -1000, 32767}
	require.NoError(t, audio.WriteWAV(fs, "/a.wav", samples, 22050))

	clip, err := DecodeFile(fs, "/a.wav")
	require.NoError(t, err)
	assert.Equal(t, samples, clip.Samples)
	assert.Equal(t, 22050, clip.SampleRate)
	assert.Equal(t, 1, clip.Channels)
}

// loadFixture copies a file from testdata into fs at path
func loadFixture(t *testing.T, fs afero.Fs, name, path string) {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, path, data, 0644))
}

func TestDecodeMP3(t *testing.T) {
	fs := afero.NewMemMapFs()
	loadFixture(t, fs, "silence.mp3", "/cancel.mp3")

	clip, err := DecodeFile(fs, "/cancel.mp3")
	require.NoError(t, err)
	assert.Equal(t, 44100, clip.SampleRate)
	assert.Equal(t, 2, clip.Channels)
	require.NotEmpty(t, clip.Samples)
	assert.Zero(t, len(clip.Samples)%2)
	for _, s := range clip.Samples {
		require.Zero(t, s)
	}
}

func TestDecodeUnsupported(t *testing.T) {
	_, err := DecodeFile(afero.NewMemMapFs(), "/a.ogg")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestIsMP3(t *testing.T) {
	assert.True(t, IsMP3("cancel.mp3"))
	assert.True(t, IsMP3("/x/ACTIVATE.Mp3"))
	assert.False(t, IsMP3("ok1.wav"))
	assert.False(t, IsMP3("mp3"))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" PortAudio ")
	require.NoError(t, err)
	assert.Equal(t, KindPortAudio, k)

	_, err = ParseKind("rodio")
	assert.Error(t, err)
}
