package audio

import (
	"context"
	"errors"
)

// ErrCaptureStopped is returned by Read once the frame source has been stopped
var ErrCaptureStopped = errors.New("audio capture stopped")

// CaptureConfig holds configuration for audio capture
type CaptureConfig struct {
	// SampleRate is the number of samples per second (Hz)
	// Wake-word and STT engines expect 16000
	SampleRate uint32

	// Channels is the number of audio channels, always 1 for the listener
	Channels uint32

	// BufferFrames is the device period size in frames
	// Smaller = lower latency, higher CPU usage
	BufferFrames uint32

	// FrameLength is the number of samples handed to the detector per Read
	FrameLength int

	// BufferSeconds is how much unread audio is kept before the oldest
	// samples are dropped
	BufferSeconds int

	// DeviceName selects a capture device by case-insensitive partial match
	// Empty string = use default device
	DeviceName string
}

// DefaultConfig returns the capture configuration used by the listener
func DefaultConfig() CaptureConfig {
	return CaptureConfig{
		SampleRate:    16000, // 16kHz is what every engine here expects
		Channels:      1,     // Mono
		BufferFrames:  480,   // 30ms at 16kHz
		FrameLength:   512,   // 32ms at 16kHz
		BufferSeconds: 5,
		DeviceName:    "",
	}
}

// FrameSource supplies fixed-length frames of signed 16-bit PCM
type FrameSource interface {
	// Start opens the microphone
	Start(ctx context.Context) error

	// Read blocks until len(frame) samples have been copied into frame
	Read(frame []int16) error

	// FrameLength is the engine-mandated frame size in samples
	FrameLength() int

	// Stop closes the microphone and unblocks pending reads
	Stop() error
}

// NewFrameSource creates the microphone frame source for the given configuration
func NewFrameSource(config CaptureConfig) (FrameSource, error) {
	return NewMalgoCapturer(config)
}
