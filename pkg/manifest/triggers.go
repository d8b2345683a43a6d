package manifest

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultMinTriggerLength drops articles and prepositions from trigger sets
const DefaultMinTriggerLength = 3

var quotedPhrase = regexp.MustCompile(`"([^"]+)"`)

// TriggerSet is the set of lowercase trigger tokens of one skill
type TriggerSet map[string]struct{}

// NewTriggerSet builds a set from the given tokens as-is
func NewTriggerSet(tokens ...string) TriggerSet {
	set := make(TriggerSet, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

// ExtractTriggers collects the whitespace-separated words of every
// double-quoted phrase in description. Words shorter than minLength runes
// are skipped.
func ExtractTriggers(description string, minLength int) TriggerSet {
	triggers := make(TriggerSet)

	for _, match := range quotedPhrase.FindAllStringSubmatch(description, -1) {
		phrase := strings.ToLower(strings.TrimSpace(match[1]))
		for _, word := range strings.Fields(phrase) {
			if utf8.RuneCountInString(word) < minLength {
				continue
			}
			triggers[word] = struct{}{}
		}
	}

	return triggers
}

// Len returns the number of tokens
func (s TriggerSet) Len() int {
	return len(s)
}

// Contains reports whether token is in the set
func (s TriggerSet) Contains(token string) bool {
	_, ok := s[token]
	return ok
}

// Intersect returns the tokens present in both sets
func (s TriggerSet) Intersect(other TriggerSet) TriggerSet {
	shared := make(TriggerSet)
	for token := range s {
		if other.Contains(token) {
			shared[token] = struct{}{}
		}
	}
	return shared
}

// Union returns the tokens present in either set
func (s TriggerSet) Union(other TriggerSet) TriggerSet {
	all := make(TriggerSet, len(s)+len(other))
	for token := range s {
		all[token] = struct{}{}
	}
	for token := range other {
		all[token] = struct{}{}
	}
	return all
}

// Sorted returns the tokens in lexicographic order
func (s TriggerSet) Sorted() []string {
	tokens := make([]string, 0, len(s))
	for token := range s {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}
