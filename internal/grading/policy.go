package grading

import (
	"math"
	"strconv"
	"strings"

	"github.com/Spectrumgrid/grade-pilot/internal/model"
)

// MissingStudentID replaces a blank identifier cell.
const MissingStudentID = "S/DNI"

// StudentID returns the trimmed identifier, or MissingStudentID when blank.
func StudentID(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" {
		return MissingStudentID
	}
	return id
}

// EmptyClassMetrics is the metrics record of a class with no attempters:
// every figure is zero rather than undefined.
func EmptyClassMetrics() model.ClassMetrics {
	return model.ClassMetrics{}
}

// QuestionLabel returns "P<n>" for a 1-based question number.
func QuestionLabel(n int) string {
	return "P" + strconv.Itoa(n)
}

// Round rounds x to the given number of decimals. Exact halves go to the
// even neighbour, so a mean of 0.125 reports as 0.12.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.RoundToEven(x*p) / p
}

// Percent returns part/whole as a percentage with one decimal, or 0 when
// whole is zero.
func Percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return Round(float64(part)/float64(whole)*100, 1)
}
