package grading

import (
	"math"
	"testing"

	"github.com/Spectrumgrid/grade-pilot/internal/model"
)

// newSheet builds a sheet whose header matches the width of the first row.
func newSheet(rows ...[]string) *model.Sheet {
	width := 0
	if len(rows) > 0 {
		width = len(rows[0])
	}
	header := make([]string, width)
	for i := range header {
		if i == 0 {
			header[i] = "DNI"
			continue
		}
		header[i] = QuestionLabel(i)
	}
	return &model.Sheet{Name: "Sheet1", Header: header, Rows: rows}
}

func assertFloat(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s: expected %v, got %v", name, want, got)
	}
}
