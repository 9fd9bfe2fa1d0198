package wakeword

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDTWDistance(t *testing.T) {
	fe := newFeatureExtractor(16000)

	a := fe.Extract(tone(2000, 10000, 8000, 16000))
	b := fe.Extract(tone(440, 10000, 8000, 16000))
	require.NotEmpty(t, a)
	require.NotEmpty(t, b)

	assert.InDelta(t, 0, dtwDistance(a, a), 1e-9)
	assert.Greater(t, dtwDistance(a, b), DefaultTemplateThreshold)
}

func TestExtractTooShort(t *testing.T) {
	fe := newFeatureExtractor(16000)
	assert.Nil(t, fe.Extract(make([]int16, featureWindow-1)))
}

func TestTrimSilence(t *testing.T) {
	signal := append(make([]int16, 480), tone(1000, 10000, 800, 16000)...)
	signal = append(signal, make([]int16, 320)...)

	trimmed := trimSilence(signal, 0.01, 160)
	assert.Len(t, trimmed, 800)
}

func TestCosineDistanceZeroVectors(t *testing.T) {
	zero := []float64{0, 0}
	assert.Equal(t, 0.0, cosineDistance(zero, zero))
	assert.Equal(t, 1.0, cosineDistance(zero, []float64{1, 0}))
	assert.InDelta(t, 2.0, cosineDistance([]float64{1, 0}, []float64{-1, 0}), 1e-12)
}

func TestMelBandsCoverSpectrum(t *testing.T) {
	bands := melBands(featureWindow, 16000, featureBands)
	require.NotEmpty(t, bands)
	assert.Equal(t, 1, bands[0][0])
	for i := 1; i < len(bands); i++ {
		assert.Equal(t, bands[i-1][1], bands[i][0], "bands are contiguous")
	}
}
