package grading

import (
	"sort"
	"strings"
)

// AnswerSet is the set of upper-cased option tokens read from one cell.
// It is either a key's accepted answers for a question or a student's marks.
// Tokens are not checked against the option alphabet here.
type AnswerSet map[string]struct{}

// ParseAnswerSet turns a raw cell into an AnswerSet. Blank cells yield the
// empty set; otherwise the text is split on commas and every token is
// trimmed and upper-cased. Empty tokens are dropped and duplicates collapse.
func ParseAnswerSet(cell string) AnswerSet {
	set := AnswerSet{}
	if strings.TrimSpace(cell) == "" {
		return set
	}
	for _, tok := range strings.Split(cell, ",") {
		tok = strings.ToUpper(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		set[tok] = struct{}{}
	}
	return set
}

// Has reports whether tok is in the set.
func (s AnswerSet) Has(tok string) bool {
	_, ok := s[tok]
	return ok
}

// Len returns the number of distinct tokens.
func (s AnswerSet) Len() int { return len(s) }

// Sorted returns the tokens in ascending order.
func (s AnswerSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for tok := range s {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

// Minus returns the tokens of s that are not in the option set, sorted.
func (s AnswerSet) Minus(opts OptionSet) []string {
	var out []string
	for _, tok := range s.Sorted() {
		if !opts.Has(tok) {
			out = append(out, tok)
		}
	}
	return out
}
