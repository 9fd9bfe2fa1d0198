package audio

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWAVRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	samples := []int16{0, 100, -100, 32767, -32768}

	require.NoError(t, WriteWAV(fs, "/clip.wav", samples, 16000))

	pcm, err := ReadWAV(fs, "/clip.wav")
	require.NoError(t, err)
	assert.Equal(t, 16000, pcm.SampleRate)
	assert.Equal(t, 1, pcm.Channels)
	assert.Equal(t, samples, pcm.Mono())
}

func TestReadWAVRejectsGarbage(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bad.wav", []byte("definitely not a wav file, just text"), 0644))

	_, err := ReadWAV(fs, "/bad.wav")
	require.ErrorIs(t, err, ErrInvalidWAV)
}

func TestToInt16BitDepths(t *testing.T) {
	assert.Equal(t, []int16{0}, toInt16([]int{128}, 8))
	assert.Equal(t, []int16{256}, toInt16([]int{65536}, 24))
	assert.Equal(t, []int16{-5}, toInt16([]int{-5}, 16))
}
