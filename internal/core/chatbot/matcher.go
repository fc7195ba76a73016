package chatbot

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Matcher decides whether a keyword occurs in already-normalized text.
type Matcher interface {
	Matches(keyword, text string) bool
}

// SubstringMatcher reports plain substring containment, so "season" also
// matches inside "seasonal".
type SubstringMatcher struct{}

func (SubstringMatcher) Matches(keyword, text string) bool {
	return strings.Contains(text, keyword)
}

// WordMatcher only matches keywords that start and end on word boundaries.
type WordMatcher struct{}

func (WordMatcher) Matches(keyword, text string) bool {
	if keyword == "" {
		return true
	}
	for offset := 0; offset <= len(text)-len(keyword); {
		i := strings.Index(text[offset:], keyword)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(keyword)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		offset = start + 1
	}
	return false
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// MatcherByName resolves a configured matcher name; unknown names use substring matching.
func MatcherByName(name string) Matcher {
	switch strings.ToLower(name) {
	case "word", "word_boundary":
		return WordMatcher{}
	default:
		return SubstringMatcher{}
	}
}

// normalize is the only text preparation applied before matching.
func normalize(message string) string {
	return strings.ToLower(message)
}

func containsAny(m Matcher, text string, keywords ...string) bool {
	for _, kw := range keywords {
		if m.Matches(kw, text) {
			return true
		}
	}
	return false
}
