package spreadsheet

import (
	"fmt"

	"github.com/Spectrumgrid/grade-pilot/internal/model"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the graded workbook.
const (
	SheetOriginal = "Original"
	SheetGraded   = "Graded"
	SheetMetrics  = "Metrics"
)

// ScoreHeader titles the score column appended to the graded sheet.
const ScoreHeader = "Score"

// Build renders the graded workbook: the uploaded data as-is, the student
// rows with a score column, and a metrics sheet with the class table, the
// per-question tables and two column charts.
// previews must be in the order of src.Rows[1:].
func Build(src *model.Sheet, previews []model.StudentPreview, metrics model.MetricsReport) ([]byte, error) {
	if len(previews) != src.StudentCount() {
		return nil, fmt.Errorf("build workbook: %d scores for %d student rows", len(previews), src.StudentCount())
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetOriginal); err != nil {
		return nil, fmt.Errorf("rename default sheet: %w", err)
	}
	for _, name := range []string{SheetGraded, SheetMetrics} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"D9D9D9"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	w := &writer{f: f, headerStyle: headerStyle}
	w.original(src)
	w.graded(src, previews)
	w.metrics(metrics)
	if w.err != nil {
		return nil, w.err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// writer carries the first error so the sheet builders read top to bottom.
type writer struct {
	f           *excelize.File
	headerStyle int
	err         error
}

func (w *writer) row(sheet string, row int, values []any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		w.err = fmt.Errorf("write %s!%s: %w", sheet, cell, err)
	}
}

func (w *writer) header(sheet string, row int, values []any) {
	w.row(sheet, row, values)
	if w.err != nil || len(values) == 0 {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, err := excelize.CoordinatesToCellName(len(values), row)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetCellStyle(sheet, first, last, w.headerStyle); err != nil {
		w.err = fmt.Errorf("style %s!%s:%s: %w", sheet, first, last, err)
	}
}

func (w *writer) chart(sheet, cell string, chart *excelize.Chart) {
	if w.err != nil {
		return
	}
	if err := w.f.AddChart(sheet, cell, chart); err != nil {
		w.err = fmt.Errorf("add chart to %s!%s: %w", sheet, cell, err)
	}
}

func (w *writer) original(src *model.Sheet) {
	width := src.Width()
	w.header(SheetOriginal, 1, padded(src.Header, width))
	for i, r := range src.Rows {
		w.row(SheetOriginal, i+2, padded(r, width))
	}
}

func (w *writer) graded(src *model.Sheet, previews []model.StudentPreview) {
	width := src.Width()
	w.header(SheetGraded, 1, append(padded(src.Header, width), ScoreHeader))
	for i, p := range previews {
		w.row(SheetGraded, i+2, append(padded(src.Rows[i+1], width), p.Score))
	}
}

func (w *writer) metrics(m model.MetricsReport) {
	w.header(SheetMetrics, 1, []any{"Metric", "Value"})
	table := m.ClassMetrics.Table()
	for i, r := range table {
		w.row(SheetMetrics, i+2, []any{r.Label, r.Value})
	}
	if w.err == nil {
		w.err = w.f.SetColWidth(SheetMetrics, "A", "A", 18)
	}

	n := len(m.QuestionStats)
	if n == 0 {
		return
	}

	meanStart := len(table) + 4
	w.header(SheetMetrics, meanStart, []any{"Question", "Mean score"})
	for i, q := range m.QuestionStats {
		w.row(SheetMetrics, meanStart+i+1, []any{q.Question, q.AvgScore})
	}

	accStart := meanStart + n + 4
	head := []any{"Question"}
	for _, opt := range m.Options {
		head = append(head, opt)
	}
	w.header(SheetMetrics, accStart, head)
	for i, q := range m.QuestionStats {
		line := []any{q.Question}
		for _, opt := range m.Options {
			line = append(line, q.AccuracyFor(opt))
		}
		w.row(SheetMetrics, accStart+i+1, line)
	}

	w.chart(SheetMetrics, "H2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       ref(2, meanStart, meanStart),
			Categories: ref(1, meanStart+1, meanStart+n),
			Values:     ref(2, meanStart+1, meanStart+n),
		}},
		Title:     []excelize.RichTextRun{{Text: "Mean score per question"}},
		XAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Question"}}},
		YAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Score"}}, MajorGridLines: true},
		Legend:    excelize.ChartLegend{Position: "none"},
		Dimension: excelize.ChartDimension{Width: 640, Height: 300},
	})

	series := make([]excelize.ChartSeries, 0, len(m.Options))
	for j := range m.Options {
		col := j + 2
		series = append(series, excelize.ChartSeries{
			Name:       ref(col, accStart, accStart),
			Categories: ref(1, accStart+1, accStart+n),
			Values:     ref(col, accStart+1, accStart+n),
		})
	}
	w.chart(SheetMetrics, "H20", &excelize.Chart{
		Type:      excelize.Col,
		Series:    series,
		Title:     []excelize.RichTextRun{{Text: "Accuracy per option (%)"}},
		XAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Question"}}},
		YAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "% accuracy"}}, MajorGridLines: true},
		Legend:    excelize.ChartLegend{Position: "bottom"},
		Dimension: excelize.ChartDimension{Width: 640, Height: 320},
	})
}

// ref returns an absolute range on the metrics sheet, or a single cell when
// the rows match.
func ref(col, fromRow, toRow int) string {
	from, _ := excelize.CoordinatesToCellName(col, fromRow, true)
	if fromRow == toRow {
		return SheetMetrics + "!" + from
	}
	to, _ := excelize.CoordinatesToCellName(col, toRow, true)
	return SheetMetrics + "!" + from + ":" + to
}

func padded(cells []string, width int) []any {
	out := make([]any, width)
	for i := range out {
		if i < len(cells) {
			out[i] = cells[i]
		} else {
			out[i] = ""
		}
	}
	return out
}
