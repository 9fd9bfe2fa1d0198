package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

// MalgoCapturer implements FrameSource using malgo
type MalgoCapturer struct {
	config       CaptureConfig
	device       *malgo.Device
	malgoContext *malgo.AllocatedContext
	buffer       *SampleBuffer
	bufferSize   int
	running      bool
	mu           sync.RWMutex
	stopChan     chan struct{}
}

// NewMalgoCapturer creates a new malgo-based frame source
func NewMalgoCapturer(config CaptureConfig) (*MalgoCapturer, error) {
	if config.SampleRate == 0 {
		return nil, fmt.Errorf("sample rate must be positive")
	}
	if config.FrameLength <= 0 {
		return nil, fmt.Errorf("frame length must be positive")
	}
	if config.Channels == 0 {
		config.Channels = 1
	}
	seconds := config.BufferSeconds
	if seconds <= 0 {
		seconds = 5
	}
	if config.FrameLength > int(config.SampleRate)*seconds {
		return nil, fmt.Errorf("frame length %d exceeds the %d second capture buffer", config.FrameLength, seconds)
	}

	m := &MalgoCapturer{
		config:     config,
		bufferSize: int(config.SampleRate) * seconds,
	}
	m.prepare()
	return m, nil
}

// prepare gives a fresh session its own stop channel and buffer, since
// Stop closes both. Callers hold mu or own m exclusively.
func (m *MalgoCapturer) prepare() (*SampleBuffer, chan struct{}) {
	m.buffer = NewSampleBuffer(m.bufferSize)
	m.stopChan = make(chan struct{})
	return m.buffer, m.stopChan
}

// begin marks the capturer running and returns the session's buffer and
// stop channel, replacing them if a previous Stop closed them
func (m *MalgoCapturer) begin() (*SampleBuffer, chan struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return nil, nil, fmt.Errorf("capturer is already running")
	}
	m.running = true
	select {
	case <-m.stopChan:
		m.device = nil
		buffer, stopChan := m.prepare()
		return buffer, stopChan, nil
	default:
		return m.buffer, m.stopChan, nil
	}
}

// Start opens the capture device. A stopped capturer may be started again.
func (m *MalgoCapturer) Start(ctx context.Context) error {
	buffer, stopChan, err := m.begin()
	if err != nil {
		return err
	}

	fail := func(err error) error {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
		return err
	}

	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize malgo context: %w", err))
	}
	m.malgoContext = malgoCtx

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = m.config.Channels
	deviceConfig.SampleRate = m.config.SampleRate
	deviceConfig.PeriodSizeInFrames = m.config.BufferFrames

	if m.config.DeviceName != "" {
		info, err := findCaptureDevice(malgoCtx, m.config.DeviceName)
		if err != nil {
			m.releaseContext()
			return fail(err)
		}
		deviceConfig.Capture.DeviceID = info.ID.Pointer()
	}

	channels := int(m.config.Channels)
	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutputSample, pInputSamples []byte, framecount uint32) {
			samples := BytesToInt16(pInputSamples)
			if channels > 1 {
				samples = downmix(samples, channels)
			}
			buffer.Write(samples)
		},
	}

	device, err := malgo.InitDevice(m.malgoContext.Context, deviceConfig, callbacks)
	if err != nil {
		m.releaseContext()
		return fail(fmt.Errorf("failed to initialize device: %w", err))
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		m.releaseContext()
		return fail(fmt.Errorf("failed to start device: %w", err))
	}
	m.mu.Lock()
	m.device = device
	m.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			m.Stop()
		case <-stopChan:
		}
	}()

	return nil
}

// Read blocks until a full frame has been captured
func (m *MalgoCapturer) Read(frame []int16) error {
	return m.currentBuffer().ReadFull(frame)
}

// FrameLength returns the configured frame size in samples
func (m *MalgoCapturer) FrameLength() int {
	return m.config.FrameLength
}

// Stop stops audio capture and unblocks readers
func (m *MalgoCapturer) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	device := m.device
	close(m.stopChan)
	m.buffer.Close()
	m.mu.Unlock()

	var stopErr error
	if device != nil {
		if err := device.Stop(); err != nil {
			stopErr = fmt.Errorf("failed to stop device: %w", err)
		}
		device.Uninit()
	}
	m.releaseContext()

	return stopErr
}

// IsRunning returns true if capture is currently active
func (m *MalgoCapturer) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// Dropped returns the number of samples lost to a slow reader
func (m *MalgoCapturer) Dropped() uint64 {
	return m.currentBuffer().Dropped()
}

func (m *MalgoCapturer) currentBuffer() *SampleBuffer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.buffer
}

func (m *MalgoCapturer) releaseContext() {
	if m.malgoContext != nil {
		_ = m.malgoContext.Uninit()
		m.malgoContext.Free()
		m.malgoContext = nil
	}
}

// downmix averages interleaved channels into mono
func downmix(samples []int16, channels int) []int16 {
	out := make([]int16, len(samples)/channels)
	for i := range out {
		var sum int
		for c := 0; c < channels; c++ {
			sum += int(samples[i*channels+c])
		}
		out[i] = int16(sum / channels)
	}
	return out
}
