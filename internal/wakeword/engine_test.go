package wakeword

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
		err  bool
	}{
		{in: "vosk", want: KindVosk},
		{in: " Whisper ", want: KindWhisper},
		{in: "TEMPLATE", want: KindTemplate},
		{in: "porcupine", err: true},
		{in: "", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.err {
				require.ErrorIs(t, err, ErrUnknownEngine)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewEngine(t *testing.T) {
	_, err := NewEngine(KindVosk, EngineConfig{})
	assert.Error(t, err, "keywords are required")

	_, err = NewEngine(KindVosk, EngineConfig{Keywords: []string{"jarvis"}})
	assert.Error(t, err, "vosk needs a model path")

	_, err = NewEngine(KindWhisper, EngineConfig{Keywords: []string{"jarvis"}})
	assert.Error(t, err, "whisper needs a model path")

	e, err := NewEngine(KindTemplate, EngineConfig{Keywords: []string{"jarvis"}, TemplatesDir: "kw"})
	require.NoError(t, err)
	assert.IsType(t, &TemplateEngine{}, e)

	_, err = NewEngine(Kind("other"), EngineConfig{Keywords: []string{"jarvis"}})
	assert.ErrorIs(t, err, ErrUnknownEngine)
}
