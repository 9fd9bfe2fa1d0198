package commands

import (
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

// DefaultFuzzyThreshold is the minimum Jaro-Winkler similarity for a
// fuzzy match
const DefaultFuzzyThreshold = 0.92

// MatchKind records which tier produced a match
type MatchKind string

const (
	MatchExact     MatchKind = "exact"
	MatchContained MatchKind = "contained"
	MatchFuzzy     MatchKind = "fuzzy"
)

// Match is a matched entry with the phrase that selected it
type Match struct {
	Entry  Entry
	Phrase string
	Kind   MatchKind
	Score  float64
}

// Matcher maps filtered text to a registry entry. It has no side effects
// and gives the same answer for the same text and registry.
type Matcher struct {
	registry  *Registry
	threshold float64
}

// NewMatcher creates a matcher. A threshold <= 0 disables fuzzy matching.
func NewMatcher(registry *Registry, threshold float64) *Matcher {
	return &Matcher{registry: registry, threshold: threshold}
}

// Registry returns the registry being matched against
func (m *Matcher) Registry() *Registry { return m.registry }

// Match tries exact phrase equality, then whole-word phrase containment
// (longest phrase wins), then fuzzy similarity. Ties go to the entry
// that comes first in the registry.
func (m *Matcher) Match(text string) (Match, bool) {
	text = normalize(text)
	if text == "" || m.registry == nil {
		return Match{}, false
	}
	padded := " " + text + " "

	var contained, fuzzy Match
	haveContained, haveFuzzy := false, false

	for _, e := range m.registry.entries {
		for _, phrase := range e.Phrases {
			p := normalize(phrase)
			if p == text {
				return Match{Entry: e, Phrase: p, Kind: MatchExact, Score: 1}, true
			}

			if strings.Contains(padded, " "+p+" ") {
				if !haveContained || len(p) > len(contained.Phrase) {
					contained = Match{Entry: e, Phrase: p, Kind: MatchContained, Score: 1}
					haveContained = true
				}
				continue
			}

			if m.threshold > 0 && !haveContained {
				score := matchr.JaroWinkler(text, p, false)
				if score >= m.threshold && (!haveFuzzy || score > fuzzy.Score) {
					fuzzy = Match{Entry: e, Phrase: p, Kind: MatchFuzzy, Score: score}
					haveFuzzy = true
				}
			}
		}
	}

	if haveContained {
		return contained, true
	}
	if haveFuzzy {
		return fuzzy, true
	}
	return Match{}, false
}

// normalize lowercases s, turns punctuation into spaces and collapses runs
// of whitespace
func normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case r == '\'':
			return -1
		default:
			return ' '
		}
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
