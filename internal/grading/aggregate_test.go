package grading

import (
	"testing"
)

func attempted(scores ...float64) []StudentResult {
	out := make([]StudentResult, len(scores))
	for i, s := range scores {
		out[i] = StudentResult{StudentScore: StudentScore{Final: s, Attempted: true}}
	}
	return out
}

func TestAggregate(t *testing.T) {
	m := Aggregate(attempted(9, 6, 4, 3), 5)

	if m.TotalStudents != 4 || m.Attempted != 4 || m.NotAttempted != 0 {
		t.Errorf("unexpected counts: %+v", m)
	}
	if m.Passing != 2 || m.Failing != 2 {
		t.Errorf("expected 2 passing and 2 failing, got %+v", m)
	}
	assertFloat(t, "passing pct", m.PassingPct, 50.0)
	assertFloat(t, "mean", m.MeanScore, 5.5)
	assertFloat(t, "max", m.MaxScore, 9)
	assertFloat(t, "min", m.MinScore, 3)
}

func TestAggregate_IgnoresNonAttempters(t *testing.T) {
	results := append(attempted(7.25, 4.5, 5), StudentResult{DNI: "absent"})
	m := Aggregate(results, 5)

	if m.TotalStudents != 4 || m.Attempted != 3 || m.NotAttempted != 1 {
		t.Errorf("unexpected counts: %+v", m)
	}
	assertFloat(t, "mean", m.MeanScore, 5.58)
	assertFloat(t, "min", m.MinScore, 4.5)
	assertFloat(t, "passing pct", m.PassingPct, 66.7)
}

func TestAggregate_NoAttemptersIsZeroed(t *testing.T) {
	m := Aggregate([]StudentResult{{DNI: "a"}, {DNI: "b"}}, 5)
	want := EmptyClassMetrics()
	want.TotalStudents = 2
	want.NotAttempted = 2
	if m != want {
		t.Errorf("expected %+v, got %+v", want, m)
	}

	if empty := Aggregate(nil, 5); empty != EmptyClassMetrics() {
		t.Errorf("expected zero metrics for no students, got %+v", empty)
	}
}

func TestAggregatePerQuestion(t *testing.T) {
	active := DefaultAlphabet.Active(3)
	key := ExamKey{ParseAnswerSet("A"), ParseAnswerSet("B,C")}
	results := []StudentResult{
		{Selections: []AnswerSet{ParseAnswerSet("A"), ParseAnswerSet("B")}},
		{Selections: []AnswerSet{ParseAnswerSet("B"), ParseAnswerSet("B,C")}},
		{Selections: []AnswerSet{ParseAnswerSet(""), ParseAnswerSet("")}},
		{Selections: nil},
	}

	stats, err := AggregatePerQuestion(results, key, active)
	if err != nil {
		t.Fatalf("AggregatePerQuestion: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 stats, got %d", len(stats))
	}

	p1 := stats[0]
	if p1.Question != "P1" || p1.TotalAnswered != 2 {
		t.Errorf("unexpected P1: %+v", p1)
	}
	// Student 2 scores -0.5 on P1, clamped to 0 before averaging.
	assertFloat(t, "P1 avg", p1.AvgScore, 0.5)
	// A: only student 1 agrees. B: students 1, 3, 4. C: everyone.
	assertFloat(t, "P1 A", p1.AccuracyFor("A"), 25)
	assertFloat(t, "P1 B", p1.AccuracyFor("B"), 75)
	assertFloat(t, "P1 C", p1.AccuracyFor("C"), 100)

	p2 := stats[1]
	if p2.TotalAnswered != 2 {
		t.Errorf("unexpected P2 answered: %d", p2.TotalAnswered)
	}
	assertFloat(t, "P2 avg", p2.AvgScore, 0.75)
	assertFloat(t, "P2 A", p2.AccuracyFor("A"), 100)
	assertFloat(t, "P2 B", p2.AccuracyFor("B"), 50)
	assertFloat(t, "P2 C", p2.AccuracyFor("C"), 25)
	if len(p2.Options) != 3 || p2.Options[0].Option != "A" || p2.Options[2].Option != "C" {
		t.Errorf("options must follow the alphabet: %+v", p2.Options)
	}
}

func TestAggregatePerQuestion_NobodyAnswered(t *testing.T) {
	stats, err := AggregatePerQuestion(
		[]StudentResult{{}, {}},
		ExamKey{ParseAnswerSet("A")},
		DefaultAlphabet.Active(2),
	)
	if err != nil {
		t.Fatalf("AggregatePerQuestion: %v", err)
	}
	if stats[0].AvgScore != 0 || stats[0].TotalAnswered != 0 {
		t.Errorf("expected zero stats, got %+v", stats[0])
	}
	assertFloat(t, "A", stats[0].AccuracyFor("A"), 0)
	assertFloat(t, "B", stats[0].AccuracyFor("B"), 100)
}
