package stt

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmett/voxwake/internal/audio"
)

func loudFrame(n int) []int16 {
	f := make([]int16, n)
	for i := range f {
		f[i] = int16(12000 * math.Sin(2*math.Pi*300*float64(i)/16000))
	}
	return f
}

func TestWhisperEngineTranscribesUtterance(t *testing.T) {
	w := NewWhisperEngine()
	_, err := w.ProcessAudio(context.Background(), nil)
	require.ErrorIs(t, err, ErrNotInitialized)

	var got int
	w.setup(DefaultConfig("model.bin"), audio.NewVAD(audio.VADConfig{EnergyThreshold: 0.01}), func(samples []float32) (string, error) {
		got = len(samples)
		return "turn on the lights", nil
	})
	assert.True(t, w.IsInitialized())

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		res, err := w.ProcessAudio(ctx, audio.Int16ToBytes(loudFrame(512)))
		require.NoError(t, err)
		assert.True(t, res.Partial)
	}

	var final *Result
	for i := 0; i < 20 && final == nil; i++ {
		res, err := w.ProcessAudio(ctx, audio.Int16ToBytes(make([]int16, 512)))
		require.NoError(t, err)
		if !res.Partial {
			final = res
		}
	}
	require.NotNil(t, final)
	assert.Equal(t, "turn on the lights", final.Text)
	assert.Greater(t, got, 4*512-1)
}

func TestWhisperEngineFinalResultFlushes(t *testing.T) {
	w := NewWhisperEngine()
	w.setup(DefaultConfig("model.bin"), audio.NewVAD(audio.VADConfig{EnergyThreshold: 0.01}), func([]float32) (string, error) {
		return "hello", nil
	})

	res, err := w.FinalResult()
	require.NoError(t, err)
	assert.Empty(t, res.Text)

	_, err = w.ProcessAudio(context.Background(), audio.Int16ToBytes(loudFrame(512)))
	require.NoError(t, err)

	res, err = w.FinalResult()
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Text)
}

func TestWhisperEngineInitializeRequiresModel(t *testing.T) {
	w := NewWhisperEngine()
	assert.Error(t, w.Initialize(Config{SampleRate: 16000}))
}
