package audio

import (
	"fmt"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
)

// WebRTCVAD classifies frames with the WebRTC voice activity detector
type WebRTCVAD struct {
	vad        *webrtcvad.VAD
	sampleRate int
	mode       int
}

// NewWebRTCVAD creates a WebRTC VAD with aggressiveness mode 0-3
func NewWebRTCVAD(sampleRate, mode int) (*WebRTCVAD, error) {
	if mode < 0 || mode > 3 {
		return nil, fmt.Errorf("vad mode must be between 0 and 3, got %d", mode)
	}

	vad, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create WebRTC VAD: %w", err)
	}
	if !vad.ValidRateAndFrameLength(sampleRate, sampleRate/100) {
		return nil, fmt.Errorf("unsupported vad sample rate %d", sampleRate)
	}
	if err := vad.SetMode(mode); err != nil {
		return nil, fmt.Errorf("failed to set VAD mode: %w", err)
	}

	return &WebRTCVAD{
		vad:        vad,
		sampleRate: sampleRate,
		mode:       mode,
	}, nil
}

// IsSpeech splits the frame into 10ms windows and reports speech if any
// window contains it. A tail shorter than 10ms is ignored.
func (w *WebRTCVAD) IsSpeech(frame []int16) (bool, error) {
	window := w.sampleRate / 100
	if len(frame) < window {
		padded := make([]int16, window)
		copy(padded, frame)
		frame = padded
	}

	for i := 0; i+window <= len(frame); i += window {
		active, err := w.vad.Process(w.sampleRate, Int16ToBytes(frame[i:i+window]))
		if err != nil {
			return false, fmt.Errorf("VAD processing failed: %w", err)
		}
		if active {
			return true, nil
		}
	}

	return false, nil
}

// Mode returns the aggressiveness mode
func (w *WebRTCVAD) Mode() int {
	return w.mode
}
