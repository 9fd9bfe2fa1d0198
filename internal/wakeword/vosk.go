package wakeword

import (
	"encoding/json"
	"fmt"
	"sync"

	vosk "github.com/alphacep/vosk-api/go"
	"go.uber.org/zap"

	"github.com/emmett/voxwake/internal/audio"
)

// VoskEngine spots keywords with a Vosk recognizer restricted to a grammar
// of the keywords themselves
type VoskEngine struct {
	config  EngineConfig
	matcher *keywordMatcher
	logger  *zap.Logger

	mu          sync.Mutex
	model       *vosk.VoskModel
	recognizer  *vosk.VoskRecognizer
	initialized bool
}

type voskText struct {
	Text    string `json:"text"`
	Partial string `json:"partial"`
}

// NewVoskEngine creates a Vosk keyword engine
func NewVoskEngine(cfg EngineConfig) (*VoskEngine, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("vosk wake engine requires a model path")
	}
	return &VoskEngine{
		config:  cfg,
		matcher: newKeywordMatcher(cfg.Keywords),
		logger:  cfg.Logger,
	}, nil
}

// Init loads the model and builds the grammar-restricted recognizer
func (v *VoskEngine) Init() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.initialized {
		return nil
	}

	vosk.SetLogLevel(-1)

	model, err := vosk.NewModel(v.config.ModelPath)
	if err != nil {
		return fmt.Errorf("failed to load model from %s: %w", v.config.ModelPath, err)
	}
	if model == nil {
		return fmt.Errorf("failed to load model from %s: model returned nil", v.config.ModelPath)
	}

	grammar, err := json.Marshal(v.matcher.Grammar())
	if err != nil {
		model.Free()
		return fmt.Errorf("failed to build grammar: %w", err)
	}

	recognizer, err := vosk.NewRecognizerGrm(model, float64(v.config.SampleRate), string(grammar))
	if err != nil {
		model.Free()
		return fmt.Errorf("failed to create recognizer: %w", err)
	}

	v.model = model
	v.recognizer = recognizer
	v.initialized = true
	v.logger.Info("Vosk wake-word engine ready", zap.Strings("keywords", v.config.Keywords))
	return nil
}

// Process feeds one frame and checks both partial and final text
func (v *VoskEngine) Process(frame []int16) (int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.initialized {
		return 0, false
	}

	var raw string
	if v.recognizer.AcceptWaveform(audio.Int16ToBytes(frame)) > 0 {
		raw = v.recognizer.Result()
	} else {
		raw = v.recognizer.PartialResult()
	}

	var res voskText
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		v.logger.Debug("failed to parse vosk result", zap.Error(err))
		return 0, false
	}

	text := res.Text
	if text == "" {
		text = res.Partial
	}
	idx, ok := v.matcher.Match(text)
	if ok {
		v.recognizer.Reset()
	}
	return idx, ok
}

// Close frees the recognizer and model
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
