package app

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TriggerKind says what opened a session
type TriggerKind string

const (
	TriggerKeyword TriggerKind = "keyword"
	TriggerManual  TriggerKind = "manual"
)

// ManualIndex is the keyword index reported for hotkey activations
const ManualIndex = -1

// ListeningSession is the interval from a wake to the end of command capture
type ListeningSession struct {
	ID      uuid.UUID
	Start   time.Time
	Trigger TriggerKind
	Index   int
}

func newSession(start time.Time, trigger TriggerKind, index int) ListeningSession {
	return ListeningSession{
		ID:      uuid.New(),
		Start:   start,
		Trigger: trigger,
		Index:   index,
	}
}

// Elapsed returns the time since the session started
func (s ListeningSession) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.Start)
}

// StripFillers lowercases text, removes every filler phrase as a literal
// substring and trims the result.
func StripFillers(text string, fillers []string) string {
	text = strings.ToLower(text)
	for _, f := range fillers {
		if f == "" {
			continue
		}
		text = strings.ReplaceAll(text, strings.ToLower(f), "")
	}
	return strings.TrimSpace(text)
}
