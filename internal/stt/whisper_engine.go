package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/emmett/voxwake/internal/audio"
)

// WhisperEngine implements the Engine interface with whisper.cpp. Audio is
// cut into utterances with a VAD and each utterance is transcribed once.
type WhisperEngine struct {
	model       whisperlib.Model
	segmenter   *audio.Segmenter
	transcribe  func(samples []float32) (string, error)
	config      Config
	mu          sync.Mutex
	initialized bool
}

// NewWhisperEngine creates a new whisper STT engine
func NewWhisperEngine() *WhisperEngine {
	return &WhisperEngine{}
}

// Initialize loads the model and the VAD
func (w *WhisperEngine) Initialize(config Config) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.initialized {
		return nil
	}
	if config.ModelPath == "" {
		return errors.New("whisper: model path must not be empty")
	}
	if config.Language == "" {
		config.Language = "en"
	}

	vad, err := audio.NewWebRTCVAD(config.SampleRate, config.VADMode)
	if err != nil {
		return fmt.Errorf("whisper: %w", err)
	}

	model, err := whisperlib.New(config.ModelPath)
	if err != nil {
		return fmt.Errorf("whisper: load model %q: %w", config.ModelPath, err)
	}

	w.model = model
	w.setup(config, vad, func(samples []float32) (string, error) {
		return TranscribeWhisper(model, config.Language, samples)
	})
	return nil
}

// setup finishes initialization; split from Initialize for tests
func (w *WhisperEngine) setup(config Config, detector audio.VoiceDetector, transcribe func([]float32) (string, error)) {
	segCfg := audio.DefaultSegmenterConfig()
	if config.SampleRate > 0 {
		segCfg.MaxSamples = config.SampleRate * 8
	}
	w.segmenter = audio.NewSegmenter(detector, segCfg)
	w.transcribe = transcribe
	w.config = config
	w.initialized = true
}

// ProcessAudio buffers audio and returns a final result when an utterance
// has ended, otherwise an empty partial result
func (w *WhisperEngine) ProcessAudio(ctx context.Context, audioData []byte) (*Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.initialized {
		return nil, ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	utterance, done, err := w.segmenter.Push(audio.BytesToInt16(audioData))
	if err != nil {
		return nil, fmt.Errorf("whisper: vad: %w", err)
	}
	if !done {
		return &Result{Partial: true}, nil
	}
	return w.run(utterance)
}

// FinalResult transcribes whatever speech is still buffered
func (w *WhisperEngine) FinalResult() (*Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.initialized {
		return nil, ErrNotInitialized
	}
	utterance, ok := w.segmenter.Flush()
	if !ok {
		return &Result{}, nil
	}
	return w.run(utterance)
}

func (w *WhisperEngine) run(utterance []int16) (*Result, error) {
	text, err := w.transcribe(audio.Int16ToFloat32(utterance, w.config.SampleRate))
	if err != nil {
		return nil, err
	}
	return &Result{Text: text}, nil
}

// Reset drops buffered audio
func (w *WhisperEngine) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.initialized {
		return ErrNotInitialized
	}
	w.segmenter.Reset()
	return nil
}

// Close releases the model
func (w *WhisperEngine) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.initialized = false
	w.segmenter = nil
	if w.model != nil {
		err := w.model.Close()
		w.model = nil
		return err
	}
	return nil
}

// IsInitialized returns true if the engine is initialized
func (w *WhisperEngine) IsInitialized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.initialized
}

// TranscribeWhisper runs one inference on a fresh context and joins the
// segment texts. Bracketed segments such as [MUSIC] are dropped.
func TranscribeWhisper(model whisperlib.Model, language string, samples []float32) (string, error) {
	wctx, err := model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper: create context: %w", err)
	}
	if err := wctx.SetLanguage(language); err != nil {
		return "", fmt.Errorf("whisper: set language %q: %w", language, err)
	}
	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper: read segment: %w", err)
		}
		text := strings.TrimSpace(segment.Text)
		if text == "" || strings.HasPrefix(text, "[") || strings.HasPrefix(text, "(") {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " "), nil
}
