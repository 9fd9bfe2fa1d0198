package stt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedEngine struct {
	results     []*Result
	errs        []error
	calls       int
	initCalls   int
	resetCalls  int
	initialized bool
}

func (s *scriptedEngine) Initialize(Config) error {
	s.initCalls++
	s.initialized = true
	return nil
}

func (s *scriptedEngine) ProcessAudio(ctx context.Context, data []byte) (*Result, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i < len(s.results) {
		return s.results[i], nil
	}
	return &Result{Partial: true}, nil
}

func (s *scriptedEngine) FinalResult() (*Result, error) { return &Result{}, nil }
func (s *scriptedEngine) Reset() error                  { s.resetCalls++; return nil }
func (s *scriptedEngine) Close() error                  { s.initialized = false; return nil }
func (s *scriptedEngine) IsInitialized() bool           { return s.initialized }

func TestRecognizerSurfacesOnlyFinalText(t *testing.T) {
	engine := &scriptedEngine{
		results: []*Result{
			{Text: "turn on", Partial: true},
			{Text: "   ", Partial: false},
			{Text: " turn on the lights ", Partial: false},
			nil,
		},
		errs: []error{nil, nil, nil, errors.New("decoder failed")},
	}
	r, err := NewRecognizer(engine, DefaultConfig("model"), nil)
	require.NoError(t, err)
	require.NoError(t, r.Init())
	require.NoError(t, r.Init())
	assert.Equal(t, 1, engine.initCalls)

	frame := make([]int16, 8)

	_, ok := r.Recognize(frame)
	assert.False(t, ok, "partial results are ignored")

	_, ok = r.Recognize(frame)
	assert.False(t, ok, "blank final results are ignored")

	text, ok := r.Recognize(frame)
	assert.True(t, ok)
	assert.Equal(t, "turn on the lights", text)

	_, ok = r.Recognize(frame)
	assert.False(t, ok, "engine errors yield no text")

	r.Reset()
	assert.Equal(t, 1, engine.resetCalls)
}

func TestNewEngine(t *testing.T) {
	e, err := NewEngine("Vosk")
	require.NoError(t, err)
	assert.IsType(t, &VoskEngine{}, e)

	e, err = NewEngine("whisper")
	require.NoError(t, err)
	assert.IsType(t, &WhisperEngine{}, e)

	_, err = NewEngine("deepspeech")
	assert.ErrorIs(t, err, ErrUnknownEngine)
}

func TestCalculateAverageConfidence(t *testing.T) {
	var r VoskResult
	assert.Equal(t, 0.0, calculateAverageConfidence(r))

	r.Result = append(r.Result,
		struct {
			Conf  float64 `json:"conf"`
			End   float64 `json:"end"`
			Start float64 `json:"start"`
			Word  string  `json:"word"`
		}{Conf: 0.5, Word: "a"},
		struct {
			Conf  float64 `json:"conf"`
			End   float64 `json:"end"`
			Start float64 `json:"start"`
			Word  string  `json:"word"`
		}{Conf: 1.0, Word: "b"},
	)
	assert.InDelta(t, 0.75, calculateAverageConfidence(r), 1e-9)
}
