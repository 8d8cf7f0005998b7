package model

import (
	"fmt"
	"time"
)

// StudentPreview is the per-student line returned by the preview endpoint.
type StudentPreview struct {
	DNI       string  `json:"dni"`
	Score     float64 `json:"score"`
	Attempted bool    `json:"attempted"`
}

// ClassMetrics are class-wide figures over one graded sheet.
// Score figures only consider students who attempted the exam.
type ClassMetrics struct {
	TotalStudents int     `json:"total_students"`
	Attempted     int     `json:"attempted"`
	NotAttempted  int     `json:"not_attempted"`
	MeanScore     float64 `json:"mean_score"`
	MaxScore      float64 `json:"max_score"`
	MinScore      float64 `json:"min_score"`
	Passing       int     `json:"passing"`
	Failing       int     `json:"failing"`
	PassingPct    float64 `json:"passing_pct"`
}

// OptionAccuracy is the share of the class whose marked/unmarked state for
// an option agrees with the key.
type OptionAccuracy struct {
	Option      string  `json:"option"`
	AccuracyPct float64 `json:"accuracy_pct"`
}

// QuestionStat summarises one question across the class.
type QuestionStat struct {
	Question      string           `json:"question"`
	AvgScore      float64          `json:"avg_score"`
	TotalAnswered int              `json:"total_answered"`
	Options       []OptionAccuracy `json:"options"`
}

// AccuracyFor returns the accuracy recorded for option, or 0 when absent.
func (q QuestionStat) AccuracyFor(option string) float64 {
	for _, o := range q.Options {
		if o.Option == option {
			return o.AccuracyPct
		}
	}
	return 0
}

// MetricsReport is the full metrics record persisted per session.
type MetricsReport struct {
	ClassMetrics
	QuestionStats []QuestionStat `json:"question_stats"`
	OptionCount   int            `json:"option_count"`
	QuestionCount int            `json:"question_count"`
	Options       []string       `json:"options"`
}

// ArtifactBundle is everything persisted for one grading session.
type ArtifactBundle struct {
	Preview   []StudentPreview
	Metrics   MetricsReport
	Workbook  []byte
	CreatedAt time.Time
}

// GradeSummary is returned by the grade endpoint.
type GradeSummary struct {
	SessionID string       `json:"session_id"`
	Filename  string       `json:"filename"`
	Metrics   ClassMetrics `json:"metrics"`
}

// MetricRow is one labelled line of the class metrics table.
type MetricRow struct {
	Label string
	Value any
}

// Table lists the class metrics in report order. The passing percentage is
// rendered as text with a percent sign.
func (m ClassMetrics) Table() []MetricRow {
	return []MetricRow{
		{"Total students", m.TotalStudents},
		{"Attempted", m.Attempted},
		{"Not attempted", m.NotAttempted},
		{"Mean score", m.MeanScore},
		{"Max score", m.MaxScore},
		{"Min score", m.MinScore},
		{"Passing", m.Passing},
		{"Failing", m.Failing},
		{"% passing", fmt.Sprintf("%.1f%%", m.PassingPct)},
	}
}

// ValidationSummary is returned by the validate endpoint for an accepted sheet.
type ValidationSummary struct {
	Filename      string `json:"filename"`
	QuestionCount int    `json:"question_count"`
	OptionCount   int    `json:"option_count"`
	Students      int    `json:"students"`
	Message       string `json:"message"`
}
