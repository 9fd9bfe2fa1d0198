package sound

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/emmett/voxwake/internal/audio"
)

// drainPeriods is how many all-silence device periods follow the clip
// before the device is stopped, so the final chunk is not cut off.
const drainPeriods = 2

// MalgoBackend plays clips through miniaudio. Each clip gets its own
// playback device so overlapping cues mix in the OS mixer.
type MalgoBackend struct {
	mu           sync.Mutex
	malgoContext *malgo.AllocatedContext
	active       map[*malgo.Device]struct{}
	closing      chan struct{}
	wg           sync.WaitGroup
}

// NewMalgoBackend creates an uninitialized malgo backend
func NewMalgoBackend() *MalgoBackend {
	return &MalgoBackend{active: make(map[*malgo.Device]struct{})}
}

// Name returns "malgo"
func (b *MalgoBackend) Name() string { return string(KindMalgo) }

// Init creates the miniaudio context
func (b *MalgoBackend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.malgoContext != nil {
		return nil
	}
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	b.malgoContext = ctx
	b.closing = make(chan struct{})
	return nil
}

// Play opens a playback device for the clip and starts it
func (b *MalgoBackend) Play(clip *audio.PCM, blocking bool) error {
	b.mu.Lock()
	ctx, closing := b.malgoContext, b.closing
	b.mu.Unlock()
	if ctx == nil {
		return fmt.Errorf("malgo backend not initialized")
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(clip.Channels)
	deviceConfig.SampleRate = uint32(clip.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	src := newClipReader(clip, drainPeriods)
	done := make(chan struct{})
	var once sync.Once

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, framecount uint32) {
			if src.Fill(pOutputSample) {
				once.Do(func() { close(done) })
			}
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	b.mu.Lock()
	if b.malgoContext != ctx {
		b.mu.Unlock()
		device.Uninit()
		return fmt.Errorf("malgo backend closed")
	}
	b.active[device] = struct{}{}
	b.mu.Unlock()

	if err := device.Start(); err != nil {
		b.release(device)
		return fmt.Errorf("failed to start playback device: %w", err)
	}

	finish := func() {
		select {
		case <-done:
		case <-closing:
		}
		b.release(device)
	}

	if blocking {
		finish()
		return nil
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		finish()
	}()
	return nil
}

// release stops and frees device unless Close already did
func (b *MalgoBackend) release(device *malgo.Device) {
	b.mu.Lock()
	_, owned := b.active[device]
	delete(b.active, device)
	b.mu.Unlock()
	if owned {
		_ = device.Stop()
		device.Uninit()
	}
}

// Close stops every active device, waits for pending clips to be released
// and frees the context
func (b *MalgoBackend) Close() error {
	b.mu.Lock()
	if b.closing != nil {
		close(b.closing)
		b.closing = nil
	}
	devices := make([]*malgo.Device, 0, len(b.active))
	for device := range b.active {
		devices = append(devices, device)
		delete(b.active, device)
	}
	ctx := b.malgoContext
	b.malgoContext = nil
	b.mu.Unlock()

	for _, device := range devices {
		_ = device.Stop()
		device.Uninit()
	}
	b.wg.Wait()

	if ctx != nil {
		_ = ctx.Uninit()
		ctx.Free()
	}
	return nil
}

// clipReader hands out a clip as little-endian bytes in device-sized chunks
type clipReader struct {
	data    []byte
	pos     int
	drain   int
	drained int
}

func newClipReader(clip *audio.PCM, drain int) *clipReader {
	return &clipReader{data: audio.Int16ToBytes(clip.Samples), drain: drain}
}

// Fill copies the next chunk into out, padding with silence. It reports
// true once the whole clip has been handed out and drain further
// all-silence chunks have followed it.
func (r *clipReader) Fill(out []byte) bool {
	n := copy(out, r.data[r.pos:])
	r.pos += n
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
	if n > 0 {
		return false
	}
	r.drained++
	return r.drained >= r.drain
}
