package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	vosk "github.com/alphacep/vosk-api/go"
)

// VoskEngine implements the Engine interface using Vosk
type VoskEngine struct {
	model       *vosk.VoskModel
	recognizer  *vosk.VoskRecognizer
	config      Config
	mu          sync.Mutex
	initialized bool
}

// VoskResult represents the JSON result from Vosk
type VoskResult struct {
	Text   string `json:"text"`
	Result []struct {
		Conf  float64 `json:"conf"`
		End   float64 `json:"end"`
		Start float64 `json:"start"`
		Word  string  `json:"word"`
	} `json:"result,omitempty"`
	Partial string `json:"partial,omitempty"`
}

// NewVoskEngine creates a new Vosk STT engine
func NewVoskEngine() *VoskEngine {
	return &VoskEngine{}
}

// Initialize loads the model and creates the recognizer
func (v *VoskEngine) Initialize(config Config) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.initialized {
		return nil
	}

	vosk.SetLogLevel(-1)

	model, err := vosk.NewModel(config.ModelPath)
	if err != nil {
		return fmt.Errorf("failed to load model from %s: %w", config.ModelPath, err)
	}
	if model == nil {
		return fmt.Errorf("failed to load model from %s: model returned nil", config.ModelPath)
	}
	v.model = model

	recognizer, err := vosk.NewRecognizer(model, float64(config.SampleRate))
	if err != nil {
		model.Free()
		v.model = nil
		return fmt.Errorf("failed to create recognizer: %w", err)
	}
	v.recognizer = recognizer

	// Word results carry the per-word confidence
	v.recognizer.SetWords(1)

	v.config = config
	v.initialized = true

	return nil
}

// ProcessAudio processes audio data and returns recognition results
func (v *VoskEngine) ProcessAudio(ctx context.Context, audioData []byte) (*Result, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.initialized {
		return nil, ErrNotInitialized
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if v.recognizer.AcceptWaveform(audioData) > 0 {
		var voskResult VoskResult
		if err := json.Unmarshal([]byte(v.recognizer.Result()), &voskResult); err != nil {
			return nil, fmt.Errorf("failed to parse result: %w", err)
		}
		return &Result{
			Text:       voskResult.Text,
			Partial:    false,
			Confidence: calculateAverageConfidence(voskResult),
		}, nil
	}

	var voskResult VoskResult
	if err := json.Unmarshal([]byte(v.recognizer.PartialResult()), &voskResult); err != nil {
		return nil, fmt.Errorf("failed to parse partial result: %w", err)
	}
	return &Result{Text: voskResult.Partial, Partial: true}, nil
}

// FinalResult returns the final result and resets the recognizer
func (v *VoskEngine) FinalResult() (*Result, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.initialized {
		return nil, ErrNotInitialized
	}

	var voskResult VoskResult
	if err := json.Unmarshal([]byte(v.recognizer.FinalResult()), &voskResult); err != nil {
		return nil, fmt.Errorf("failed to parse final result: %w", err)
	}

	return &Result{
		Text:       voskResult.Text,
		Partial:    false,
		Confidence: calculateAverageConfidence(voskResult),
	}, nil
}

// Reset drops any audio the recognizer has buffered
func (v *VoskEngine) Reset() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.initialized {
		return ErrNotInitialized
	}
	v.recognizer.Reset()
	return nil
}

// Close releases resources
func (v *VoskEngine) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.initialized {
		return nil
	}

	if v.recognizer != nil {
		v.recognizer.Free()
		v.recognizer = nil
	}
	if v.model != nil {
		v.model.Free()
		v.model = nil
	}

	v.initialized = false
	return nil
}

// IsInitialized returns true if the engine is initialized
func (v *VoskEngine) IsInitialized() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.initialized
}

// calculateAverageConfidence calculates the average confidence from word results
func calculateAverageConfidence(result VoskResult) float64 {
	if len(result.Result) == 0 {
		return 0.0
	}

	var sum float64
	for _, word := range result.Result {
		sum += word.Conf
	}

	return sum / float64(len(result.Result))
}
