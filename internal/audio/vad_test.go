package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantFrame(n int, v int16) []int16 {
	f := make([]int16, n)
	for i := range f {
		f[i] = v
	}
	return f
}

func TestEnergy(t *testing.T) {
	assert.Equal(t, 0.0, Energy(nil))
	assert.Equal(t, 0.0, Energy(constantFrame(160, 0)))
	assert.InDelta(t, 0.5, Energy(constantFrame(160, 16384)), 1e-9)
}

func TestVADProcessFrame(t *testing.T) {
	v := NewVAD(VADConfig{EnergyThreshold: 0.1, SpeechFrames: 2, SilenceFrames: 2})
	loud := constantFrame(160, 10000)
	quiet := constantFrame(160, 10)

	active, started, _ := v.ProcessFrame(loud)
	assert.False(t, active)
	assert.False(t, started)

	active, started, _ = v.ProcessFrame(loud)
	assert.True(t, active)
	assert.True(t, started)

	active, _, ended := v.ProcessFrame(quiet)
	assert.True(t, active)
	assert.False(t, ended)

	active, _, ended = v.ProcessFrame(quiet)
	assert.False(t, active)
	assert.True(t, ended)

	speech, err := v.IsSpeech(loud)
	require.NoError(t, err)
	assert.True(t, speech)

	v.Reset()
	assert.False(t, v.IsSpeaking())
}
