package wakeword

import (
	"errors"
	"fmt"
	"sync"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"go.uber.org/zap"

	"github.com/emmett/voxwake/internal/audio"
	"github.com/emmett/voxwake/internal/stt"
)

// maxKeywordSeconds bounds how much audio is sent to whisper per attempt
const maxKeywordSeconds = 2

// transcribeFunc turns mono float samples into text
type transcribeFunc func(samples []float32) (string, error)

// WhisperEngine buffers speech with a VAD and runs whisper.cpp on each
// short utterance, looking for the keywords in the transcript
type WhisperEngine struct {
	config  EngineConfig
	matcher *keywordMatcher
	logger  *zap.Logger

	mu          sync.Mutex
	model       whisperlib.Model
	segmenter   *audio.Segmenter
	transcribe  transcribeFunc
	initialized bool
}

// NewWhisperEngine creates a whisper keyword engine
func NewWhisperEngine(cfg EngineConfig) (*WhisperEngine, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("whisper: model path must not be empty")
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	return &WhisperEngine{
		config:  cfg,
		matcher: newKeywordMatcher(cfg.Keywords),
		logger:  cfg.Logger,
	}, nil
}

// Init loads the whisper model and the WebRTC VAD
func (w *WhisperEngine) Init() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.initialized {
		return nil
	}

	vad, err := audio.NewWebRTCVAD(w.config.SampleRate, w.config.VADMode)
	if err != nil {
		return fmt.Errorf("whisper: %w", err)
	}

	model, err := whisperlib.New(w.config.ModelPath)
	if err != nil {
		return fmt.Errorf("whisper: load model %q: %w", w.config.ModelPath, err)
	}

	w.model = model
	w.setup(vad, func(samples []float32) (string, error) {
		return stt.TranscribeWhisper(model, w.config.Language, samples)
	})
	w.initialized = true
	return nil
}

// setup wires the segmenter and transcriber; split from Init for tests
func (w *WhisperEngine) setup(detector audio.VoiceDetector, transcribe transcribeFunc) {
	segCfg := audio.DefaultSegmenterConfig()
	segCfg.MaxSamples = w.config.SampleRate * maxKeywordSeconds
	segCfg.SilenceFrames = 6
	w.segmenter = audio.NewSegmenter(detector, segCfg)
	w.transcribe = transcribe
}

// Process buffers the frame and transcribes completed utterances
func (w *WhisperEngine) Process(frame []int16) (int, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.segmenter == nil {
		return 0, false
	}

	utterance, done, err := w.segmenter.Push(frame)
	if err != nil {
		w.logger.Debug("whisper: vad failed", zap.Error(err))
		return 0, false
	}
	if !done {
		return 0, false
	}

	text, err := w.transcribe(audio.Int16ToFloat32(utterance, w.config.SampleRate))
	if err != nil {
		w.logger.Warn("whisper: keyword transcription failed", zap.Error(err))
		return 0, false
	}
	w.logger.Debug("whisper: heard", zap.String("text", text))

	return w.matcher.Match(text)
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
