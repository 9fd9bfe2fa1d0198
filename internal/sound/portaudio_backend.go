package sound

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/emmett/voxwake/internal/audio"
)

const portAudioFramesPerBuffer = 1024

// PortAudioBackend plays clips through a PortAudio output stream.
// Clips are played one at a time.
type PortAudioBackend struct {
	mu          sync.Mutex
	initialized bool
	playMu      sync.Mutex
	wg          sync.WaitGroup
}

// NewPortAudioBackend creates an uninitialized PortAudio backend
func NewPortAudioBackend() *PortAudioBackend {
	return &PortAudioBackend{}
}

// Name returns "portaudio"
func (b *PortAudioBackend) Name() string { return string(KindPortAudio) }

// Init initializes the PortAudio library
func (b *PortAudioBackend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	b.initialized = true
	return nil
}

// Play writes the clip to a default output stream
func (b *PortAudioBackend) Play(clip *audio.PCM, blocking bool) error {
	b.mu.Lock()
	ready := b.initialized
	b.mu.Unlock()
	if !ready {
		return fmt.Errorf("portaudio backend not initialized")
	}

	if blocking {
		return b.play(clip)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		_ = b.play(clip)
	}()
	return nil
}

func (b *PortAudioBackend) play(clip *audio.PCM) error {
	b.playMu.Lock()
	defer b.playMu.Unlock()

	channels := clip.Channels
	if channels <= 0 {
		channels = 1
	}
	buffer := make([]int16, portAudioFramesPerBuffer*channels)

	stream, err := portaudio.OpenDefaultStream(
		0,
		channels,
		float64(clip.SampleRate),
		portAudioFramesPerBuffer,
		&buffer,
	)
	if err != nil {
		return fmt.Errorf("failed to open output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start output stream: %w", err)
	}
	defer stream.Stop()

	for position := 0; position < len(clip.Samples); position += len(buffer) {
		n := copy(buffer, clip.Samples[position:])
		for i := n; i < len(buffer); i++ {
			buffer[i] = 0
		}
		if err := stream.Write(); err != nil {
			return fmt.Errorf("failed to write to stream: %w", err)
		}
	}

	return nil
}

// Close waits for queued clips and terminates PortAudio
func (b *PortAudioBackend) Close() error {
	b.wg.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return nil
	}
	b.initialized = false
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}
