package grading

import (
	"errors"
	"fmt"

	"github.com/Spectrumgrid/grade-pilot/internal/model"
)

// ErrEmptyKeyEntry is returned when a question's key has no correct option.
// Validate rejects such sheets, so seeing it means scoring ran on
// unvalidated input.
var ErrEmptyKeyEntry = errors.New("answer key entry has no correct option")

// ExamKey holds the accepted answers of each question, P1 first.
type ExamKey []AnswerSet

// ParseKey reads the key row of a sheet for the given number of questions.
func ParseKey(sheet *model.Sheet, questions int) ExamKey {
	key := make(ExamKey, questions)
	for q := 1; q <= questions; q++ {
		key[q-1] = ParseAnswerSet(sheet.Cell(0, q))
	}
	return key
}

// StudentScore is the outcome of scoring one student row.
type StudentScore struct {
	// Contributions holds the signed score of each question (may be negative).
	Contributions []float64
	// Raw is the unclamped sum of Contributions.
	Raw float64
	// Final is max(0, Raw) rounded to two decimals.
	Final     float64
	Attempted bool
}

// ScoreQuestion scores one selection against a question key.
// Each correct token earns 1/|correct|, each wrong active option costs
// 1/|incorrect|, tokens outside the active options count for nothing.
// An empty selection scores 0.
func ScoreQuestion(selected, correct AnswerSet, active OptionSet) (float64, error) {
	if selected.Len() == 0 {
		return 0, nil
	}
	if correct.Len() == 0 {
		return 0, ErrEmptyKeyEntry
	}

	incorrect := active.Without(correct)
	credit := 1 / float64(correct.Len())
	penalty := 0.0
	if len(incorrect) > 0 {
		penalty = 1 / float64(len(incorrect))
	}

	score := 0.0
	for _, tok := range selected.Sorted() {
		switch {
		case correct.Has(tok):
			score += credit
		case incorrect.Has(tok):
			score -= penalty
		}
	}
	return score, nil
}

// ScoreStudent scores the answer cells of one student, one cell per
// question. Missing trailing cells count as unanswered. The final score is
// clamped at zero on the total, not per question.
func ScoreStudent(answers []string, key ExamKey, active OptionSet) (StudentScore, error) {
	res := StudentScore{Contributions: make([]float64, len(key))}
	for i, correct := range key {
		var cell string
		if i < len(answers) {
			cell = answers[i]
		}
		selected := ParseAnswerSet(cell)
		if selected.Len() == 0 {
			continue
		}
		res.Attempted = true

		c, err := ScoreQuestion(selected, correct, active)
		if err != nil {
			return StudentScore{}, fmt.Errorf("question %s: %w", QuestionLabel(i+1), err)
		}
		res.Contributions[i] = c
		res.Raw += c
	}
	res.Final = Round(max(0, res.Raw), 2)
	return res, nil
}

// StudentResult is a scored student row.
type StudentResult struct {
	DNI        string
	Selections []AnswerSet
	StudentScore
}

// Preview returns the public view of the result.
func (r StudentResult) Preview() model.StudentPreview {
	return model.StudentPreview{DNI: r.DNI, Score: r.Final, Attempted: r.Attempted}
}

// Graded is a fully scored and aggregated answer sheet.
type Graded struct {
	Shape    Shape
	Active   OptionSet
	Key      ExamKey
	Students []StudentResult
	Metrics  model.MetricsReport
}

// Previews returns the per-student preview list in sheet order.
func (g *Graded) Previews() []model.StudentPreview {
	out := make([]model.StudentPreview, len(g.Students))
	for i, s := range g.Students {
		out[i] = s.Preview()
	}
	return out
}

// GradeSheet validates the sheet, scores every student and aggregates the
// class and per-question statistics. Validation failures are returned as
// *ValidationError before any scoring happens.
func GradeSheet(sheet *model.Sheet, shape Shape, cfg Config) (*Graded, error) {
	if err := Validate(sheet, shape, cfg); err != nil {
		return nil, err
	}

	g := &Graded{
		Shape:  shape,
		Active: cfg.Alphabet.Active(shape.Options),
		Key:    ParseKey(sheet, shape.Questions),
	}

	for r := 1; r < len(sheet.Rows); r++ {
		answers := make([]string, shape.Questions)
		selections := make([]AnswerSet, shape.Questions)
		for q := 1; q <= shape.Questions; q++ {
			answers[q-1] = sheet.Cell(r, q)
			selections[q-1] = ParseAnswerSet(answers[q-1])
		}

		score, err := ScoreStudent(answers, g.Key, g.Active)
		if err != nil {
			return nil, fmt.Errorf("score row %d: %w", r+2, err)
		}
		g.Students = append(g.Students, StudentResult{
			DNI:          StudentID(sheet.Cell(r, 0)),
			Selections:   selections,
			StudentScore: score,
		})
	}

	stats, err := AggregatePerQuestion(g.Students, g.Key, g.Active)
	if err != nil {
		return nil, fmt.Errorf("aggregate questions: %w", err)
	}
	g.Metrics = model.MetricsReport{
		ClassMetrics:  Aggregate(g.Students, cfg.PassMark),
		QuestionStats: stats,
		OptionCount:   shape.Options,
		QuestionCount: shape.Questions,
		Options:       append([]string(nil), g.Active...),
	}
	return g, nil
}
