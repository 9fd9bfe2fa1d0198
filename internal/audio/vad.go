package audio

import (
	"math"
)

// VoiceDetector classifies a single frame as speech or silence
type VoiceDetector interface {
	IsSpeech(frame []int16) (bool, error)
}

// VADConfig holds configuration for energy-based Voice Activity Detection
type VADConfig struct {
	// EnergyThreshold is the minimum RMS energy level to consider as speech
	// Typical values: 0.001 to 0.1 (lower = more sensitive)
	EnergyThreshold float64

	// SilenceFrames is the number of consecutive silent frames before speech ends
	SilenceFrames int

	// SpeechFrames is the number of consecutive speech frames before speech starts
	SpeechFrames int
}

// DefaultVADConfig returns a default VAD configuration for 32ms frames
func DefaultVADConfig() VADConfig {
	return VADConfig{
		EnergyThreshold: 0.01, // Moderate sensitivity
		SilenceFrames:   12,   // ~400ms of silence
		SpeechFrames:    3,    // ~100ms of speech
	}
}

// VAD (Voice Activity Detector) detects speech vs silence from frame energy
type VAD struct {
	config            VADConfig
	silenceFrameCount int
	speechFrameCount  int
	isSpeaking        bool
}

// NewVAD creates a new voice activity detector
func NewVAD(config VADConfig) *VAD {
	return &VAD{
		config: config,
	}
}

// IsSpeech reports whether the frame alone is above the energy threshold
func (v *VAD) IsSpeech(frame []int16) (bool, error) {
	return calculateEnergy(frame) > v.config.EnergyThreshold, nil
}

// ProcessFrame processes an audio frame and returns whether speech is active
// Returns: (isSpeechActive, speechStarted, speechEnded)
func (v *VAD) ProcessFrame(frame []int16) (bool, bool, bool) {
	frameHasSpeech := calculateEnergy(frame) > v.config.EnergyThreshold

	speechStarted := false
	speechEnded := false

	if frameHasSpeech {
		v.speechFrameCount++
		v.silenceFrameCount = 0

		if !v.isSpeaking && v.speechFrameCount >= v.config.SpeechFrames {
			v.isSpeaking = true
			speechStarted = true
		}
	} else {
		v.silenceFrameCount++
		v.speechFrameCount = 0

		if v.isSpeaking && v.silenceFrameCount >= v.config.SilenceFrames {
			v.isSpeaking = false
			speechEnded = true
		}
	}

	return v.isSpeaking, speechStarted, speechEnded
}

// IsSpeaking returns whether speech is currently active
func (v *VAD) IsSpeaking() bool {
	return v.isSpeaking
}

// Reset resets the VAD state
func (v *VAD) Reset() {
	v.silenceFrameCount = 0
	v.speechFrameCount = 0
	v.isSpeaking = false
}

// calculateEnergy calculates the RMS energy of a frame
func calculateEnergy(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		normalized := float64(s) / 32768.0
		sum += normalized * normalized
	}

	return math.Sqrt(sum / float64(len(samples)))
}
