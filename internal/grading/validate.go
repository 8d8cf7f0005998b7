package grading

import (
	"fmt"
	"strings"

	"github.com/Spectrumgrid/grade-pilot/internal/model"
)

// Rule identifies the structural check an answer sheet failed.
type Rule string

const (
	RuleInvalidShape        Rule = "INVALID_SHAPE"
	RuleEmptySheet          Rule = "EMPTY_SHEET"
	RuleColumnCount         Rule = "COLUMN_COUNT"
	RuleEmptyKey            Rule = "EMPTY_KEY"
	RuleOptionCountMismatch Rule = "OPTION_COUNT_MISMATCH"
	RuleKeyMissingAnswer    Rule = "KEY_MISSING_ANSWER"
	RuleKeyInvalidOption    Rule = "KEY_INVALID_OPTION"
	RuleNoStudents          Rule = "NO_STUDENTS"
	RuleEmptyIDs            Rule = "EMPTY_IDS"
)

// ValidationError describes the first structural rule an answer sheet broke.
// Message is safe to show to the uploader.
type ValidationError struct {
	Rule    Rule
	Message string
	// Question is the 1-based question number, 0 when the rule is sheet-wide.
	Question int
	Letters  []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Rule, e.Message)
}

// Fields returns the error details as a flat map for API responses.
func (e *ValidationError) Fields() map[string]string {
	fields := map[string]string{"rule": string(e.Rule)}
	if e.Question > 0 {
		fields["question"] = QuestionLabel(e.Question)
	}
	if len(e.Letters) > 0 {
		fields["letters"] = strings.Join(e.Letters, ",")
	}
	return fields
}

func reject(rule Rule, format string, args ...any) *ValidationError {
	return &ValidationError{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// Validate checks an answer sheet against the declared shape before any
// scoring happens. It returns nil or a *ValidationError for the first rule
// violated, in this order: shape, rows present, column count, key not blank,
// option-count consistency, key entries, students present, identifiers present.
//
// A sheet that passes Validate can always be scored.
func Validate(sheet *model.Sheet, shape Shape, cfg Config) error {
	if shape.Questions < 1 {
		return reject(RuleInvalidShape, "the exam must have at least one question")
	}
	if shape.Options < 1 || shape.Options > len(cfg.Alphabet) {
		return reject(RuleInvalidShape, "the number of options must be between 1 and %d", len(cfg.Alphabet))
	}

	if sheet == nil || len(sheet.Rows) == 0 {
		return reject(RuleEmptySheet, "the spreadsheet is empty; upload a file with data")
	}

	if w := sheet.Width(); w != shape.Questions+1 {
		return reject(RuleColumnCount,
			"the spreadsheet must have exactly %d columns (1 for the DNI and %d for the questions); found %d",
			shape.Questions+1, shape.Questions, w)
	}

	keyBlank := true
	for q := 1; q <= shape.Questions; q++ {
		if !sheet.IsBlank(0, q) {
			keyBlank = false
			break
		}
	}
	if keyBlank {
		return reject(RuleEmptyKey, "row 2 (the answer key) is completely empty; the exam cannot be graded without solutions")
	}

	if err := checkOptionCount(sheet, shape, cfg.Alphabet); err != nil {
		return err
	}

	active := cfg.Alphabet.Active(shape.Options)
	for q := 1; q <= shape.Questions; q++ {
		key := ParseAnswerSet(sheet.Cell(0, q))
		if key.Len() == 0 {
			e := reject(RuleKeyMissingAnswer, "question %s in the answer key (row 2) has no answer selected", QuestionLabel(q))
			e.Question = q
			return e
		}
		if invalid := key.Minus(active); len(invalid) > 0 {
			e := reject(RuleKeyInvalidOption,
				"question %s in the answer key (row 2) uses '%s', but the exam is configured with only %d options",
				QuestionLabel(q), strings.Join(invalid, ","), shape.Options)
			e.Question = q
			e.Letters = invalid
			return e
		}
	}

	if sheet.StudentCount() == 0 {
		return reject(RuleNoStudents, "there are no student rows; list the students from row 3 onwards")
	}

	idsBlank := true
	for r := 1; r < len(sheet.Rows); r++ {
		if !sheet.IsBlank(r, 0) {
			idsBlank = false
			break
		}
	}
	if idsBlank {
		return reject(RuleEmptyIDs, "the DNI column is empty; students cannot be identified")
	}

	return nil
}

// checkOptionCount scans every student answer cell (the key row excluded)
// for alphabet letters and compares the highest one seen with the declared
// option count. Nothing is checked when no letter appears at all.
func checkOptionCount(sheet *model.Sheet, shape Shape, alphabet Alphabet) error {
	maxRank := 0
	for r := 1; r < len(sheet.Rows); r++ {
		for q := 1; q <= shape.Questions; q++ {
			for _, ch := range strings.ToUpper(sheet.Cell(r, q)) {
				if rank := alphabet.Rank(string(ch)); rank > maxRank {
					maxRank = rank
				}
			}
		}
	}
	if maxRank == 0 {
		return nil
	}

	letter := alphabet[maxRank-1]
	switch {
	case maxRank > shape.Options:
		e := reject(RuleOptionCountMismatch,
			"the exam is configured with %d options, but answers use the letter '%s'; select %d options",
			shape.Options, letter, maxRank)
		e.Letters = []string{letter}
		return e
	case maxRank < shape.Options:
		e := reject(RuleOptionCountMismatch,
			"the exam looks like a %d-option exam (the highest letter is '%s'), but %d options were selected; this would distort the wrong-answer penalty",
			maxRank, letter, shape.Options)
		e.Letters = []string{letter}
		return e
	}
	return nil
}
