package grading

import (
	"fmt"

	"github.com/Spectrumgrid/grade-pilot/internal/model"
)

// Aggregate computes class-wide metrics. Score figures only cover students
// who attempted the exam; with no attempters they fall back to zero.
func Aggregate(results []StudentResult, passMark float64) model.ClassMetrics {
	m := EmptyClassMetrics()
	m.TotalStudents = len(results)

	var scores []float64
	for _, r := range results {
		if r.Attempted {
			scores = append(scores, r.Final)
		}
	}
	m.Attempted = len(scores)
	m.NotAttempted = m.TotalStudents - m.Attempted
	if m.Attempted == 0 {
		return m
	}

	sum, hi, lo := 0.0, scores[0], scores[0]
	for _, s := range scores {
		sum += s
		hi = max(hi, s)
		lo = min(lo, s)
		if s >= passMark {
			m.Passing++
		}
	}
	m.MeanScore = Round(sum/float64(m.Attempted), 2)
	m.MaxScore = Round(hi, 2)
	m.MinScore = Round(lo, 2)
	m.Failing = m.Attempted - m.Passing
	m.PassingPct = Round(float64(m.Passing)/float64(m.Attempted)*100, 1)
	return m
}

// AggregatePerQuestion computes, for each question, the mean score among
// students who answered it (each contribution clamped at zero), how many
// answered, and per active option the percentage of the whole class whose
// mark on that option agrees with the key. Students who left the question
// blank agree on every option outside the key.
func AggregatePerQuestion(results []StudentResult, key ExamKey, active OptionSet) ([]model.QuestionStat, error) {
	stats := make([]model.QuestionStat, len(key))
	total := len(results)

	for q, correct := range key {
		answered := 0
		sum := 0.0
		agree := make([]int, len(active))

		for _, r := range results {
			selected := AnswerSet{}
			if q < len(r.Selections) && r.Selections[q] != nil {
				selected = r.Selections[q]
			}

			if selected.Len() > 0 {
				answered++
				c, err := ScoreQuestion(selected, correct, active)
				if err != nil {
					return nil, fmt.Errorf("question %s: %w", QuestionLabel(q+1), err)
				}
				sum += max(0, c)
			}

			for i, opt := range active {
				if correct.Has(opt) == selected.Has(opt) {
					agree[i]++
				}
			}
		}

		st := model.QuestionStat{
			Question:      QuestionLabel(q + 1),
			TotalAnswered: answered,
			Options:       make([]model.OptionAccuracy, len(active)),
		}
		if answered > 0 {
			st.AvgScore = Round(sum/float64(answered), 2)
		}
		for i, opt := range active {
			st.Options[i] = model.OptionAccuracy{Option: opt, AccuracyPct: Percent(agree[i], total)}
		}
		stats[q] = st
	}
	return stats, nil
}
