package grading

import "fmt"

// Alphabet is the ordered, full list of option letters an exam may use.
// Each letter is a single character; the option-count scan ranks one rune
// at a time.
type Alphabet []string

// DefaultAlphabet is A to E.
var DefaultAlphabet = Alphabet{"A", "B", "C", "D", "E"}

// Active returns the first n letters of the alphabet. n is clamped to the
// alphabet length.
func (a Alphabet) Active(n int) OptionSet {
	if n < 0 {
		n = 0
	}
	if n > len(a) {
		n = len(a)
	}
	out := make(OptionSet, n)
	copy(out, a[:n])
	return out
}

// Rank returns the 1-based position of letter in the alphabet, or 0.
func (a Alphabet) Rank(letter string) int {
	for i, l := range a {
		if l == letter {
			return i + 1
		}
	}
	return 0
}

// OptionSet is an ordered prefix of an Alphabet: the options in play.
type OptionSet []string

// Has reports whether letter is an active option.
func (o OptionSet) Has(letter string) bool {
	for _, l := range o {
		if l == letter {
			return true
		}
	}
	return false
}

// Without returns the active options not in correct, in alphabet order.
func (o OptionSet) Without(correct AnswerSet) OptionSet {
	var out OptionSet
	for _, l := range o {
		if !correct.Has(l) {
			out = append(out, l)
		}
	}
	return out
}

// Config is the immutable marking configuration shared by the validator,
// the scoring engine and the aggregator.
type Config struct {
	Alphabet Alphabet
	// PassMark is the lowest score counted as a pass.
	PassMark float64
}

// DefaultConfig uses the A-E alphabet and a pass mark of 5.
func DefaultConfig() Config {
	return Config{Alphabet: DefaultAlphabet, PassMark: 5.0}
}

// Shape is the declared exam shape of an upload.
type Shape struct {
	Questions int
	Options   int
}

func (s Shape) String() string {
	return fmt.Sprintf("%d questions x %d options", s.Questions, s.Options)
}
