package sound

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmett/voxwake/internal/audio"
)

func TestClipReaderDrainsBeforeDone(t *testing.T) {
	clip := &audio.PCM{Samples: []int16{1, 2, 3, 4, 5}, SampleRate: 16000, Channels: 1}
	r := newClipReader(clip, 2)
	out := make([]byte, 4)

	assert.False(t, r.Fill(out))
	assert.Equal(t, []byte{1, 0, 2, 0}, out)

	assert.False(t, r.Fill(out))
	assert.Equal(t, []byte{3, 0, 4, 0}, out)

	// last chunk is padded but still has to be played out
	assert.False(t, r.Fill(out))
	assert.Equal(t, []byte{5, 0, 0, 0}, out)

	assert.False(t, r.Fill(out))
	assert.Equal(t, []byte{0, 0, 0, 0}, out)
	assert.True(t, r.Fill(out))
	assert.Equal(t, []byte{0, 0, 0, 0}, out)
}

func TestClipReaderEmptyClip(t *testing.T) {
	r := newClipReader(&audio.PCM{SampleRate: 16000, Channels: 1}, 1)
	assert.True(t, r.Fill(make([]byte, 8)))
}

func TestMalgoBackendUninitialized(t *testing.T) {
	b := NewMalgoBackend()
	err := b.Play(&audio.PCM{Samples: []int16{0}, SampleRate: 16000, Channels: 1}, true)
	require.Error(t, err)

	done := make(chan struct{})
	go func() {
		_ = b.Close()
		_ = b.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close blocked")
	}
}
