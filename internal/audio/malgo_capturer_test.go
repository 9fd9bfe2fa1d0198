package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMalgoCapturerSessionRestart(t *testing.T) {
	m, err := NewMalgoCapturer(CaptureConfig{SampleRate: 16000, FrameLength: 4})
	require.NoError(t, err)

	for session := 0; session < 3; session++ {
		buffer, _, err := m.begin()
		require.NoError(t, err)
		assert.True(t, m.IsRunning())

		_, _, err = m.begin()
		assert.Error(t, err, "second begin while running")

		buffer.Write([]int16{1, 2, 3, 4})
		frame := make([]int16, 4)
		require.NoError(t, m.Read(frame))
		assert.Equal(t, []int16{1, 2, 3, 4}, frame)

		require.NoError(t, m.Stop())
		require.NoError(t, m.Stop())
		assert.False(t, m.IsRunning())
		assert.ErrorIs(t, m.Read(frame), ErrCaptureStopped)
	}
}

func TestNewMalgoCapturerValidation(t *testing.T) {
	_, err := NewMalgoCapturer(CaptureConfig{FrameLength: 512})
	assert.Error(t, err)

	_, err = NewMalgoCapturer(CaptureConfig{SampleRate: 16000})
	assert.Error(t, err)

	_, err = NewMalgoCapturer(CaptureConfig{SampleRate: 16000, FrameLength: 16000*2 + 1, BufferSeconds: 2})
	assert.Error(t, err)
}
