package wakeword

import (
	"strings"
	"unicode"
)

// keywordMatcher finds configured phrases in recognized text
type keywordMatcher struct {
	phrases [][]string
}

func newKeywordMatcher(keywords []string) *keywordMatcher {
	m := &keywordMatcher{}
	for _, k := range keywords {
		m.phrases = append(m.phrases, tokenize(k))
	}
	return m
}

// Match returns the index of the first keyword occurring in text as a whole
// word sequence
func (m *keywordMatcher) Match(text string) (int, bool) {
	words := tokenize(text)
	for i, phrase := range m.phrases {
		if len(phrase) > 0 && containsSequence(words, phrase) {
			return i, true
		}
	}
	return 0, false
}

// Grammar lists the keyword phrases plus the unknown-word token, as Vosk
// expects for a restricted recognizer
func (m *keywordMatcher) Grammar() []string {
	out := make([]string, 0, len(m.phrases)+1)
	for _, p := range m.phrases {
		out = append(out, strings.Join(p, " "))
	}
	return append(out, "[unk]")
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func containsSequence(words, seq []string) bool {
	for i := 0; i+len(seq) <= len(words); i++ {
		match := true
		for j := range seq {
			if words[i+j] != seq[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
