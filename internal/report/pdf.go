package report

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/Spectrumgrid/grade-pilot/internal/model"
	"github.com/signintech/gopdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// ErrNothingToExport is returned when a session has no student rows.
var ErrNothingToExport = errors.New("no student data to export")

const (
	fontRegular = "go"
	fontBold    = "go-bold"

	marginX   = 50.0
	marginTop = 50.0
	rowHeight = 20.0
)

type rgb struct{ r, g, b uint8 }

var (
	headerFill = rgb{128, 128, 128}
	gridColor  = rgb{0, 0, 0}
	meanColor  = rgb{0x45, 0xB7, 0xD1}
	// optionColors cycles over the active options of the accuracy chart.
	optionColors = []rgb{
		{0xFF, 0x6B, 0x6B},
		{0x4E, 0xCD, 0xC4},
		{0x45, 0xB7, 0xD1},
		{0xFF, 0xA0, 0x7A},
		{0x98, 0xD8, 0xC8},
	}
)

// Render builds the printable report of a graded session: a grades table,
// then a page with the class metrics and two bar charts (mean score per
// question, agreement with the key per option and question).
func Render(preview []model.StudentPreview, metrics model.MetricsReport) ([]byte, error) {
	if len(preview) == 0 {
		return nil, ErrNothingToExport
	}

	r := &renderer{pdf: &gopdf.GoPdf{}}
	r.pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeLetter})
	if err := r.pdf.AddTTFFontData(fontRegular, goregular.TTF); err != nil {
		return nil, fmt.Errorf("load regular font: %w", err)
	}
	if err := r.pdf.AddTTFFontData(fontBold, gobold.TTF); err != nil {
		return nil, fmt.Errorf("load bold font: %w", err)
	}

	r.page()
	r.title("Grades")
	rows := make([][]string, len(preview))
	for i, p := range preview {
		rows[i] = []string{p.DNI, fmt.Sprintf("%.2f", p.Score)}
	}
	r.table([]string{"DNI", "Score"}, rows, []float64{160, 90})

	r.page()
	r.title("Metrics")
	table := metrics.ClassMetrics.Table()
	rows = make([][]string, len(table))
	for i, m := range table {
		rows[i] = []string{m.Label, fmt.Sprint(m.Value)}
	}
	r.table([]string{"Metric", "Value"}, rows, []float64{160, 90})

	if len(metrics.QuestionStats) > 0 {
		r.y += 20
		r.meanChart(metrics.QuestionStats)
		r.y += 20
		r.accuracyChart(metrics.QuestionStats, metrics.Options)
	}
	if r.err != nil {
		return nil, r.err
	}

	var buf bytes.Buffer
	if _, err := r.pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// renderer keeps the cursor and the first drawing error.
type renderer struct {
	pdf *gopdf.GoPdf
	y   float64
	err error
}

func (r *renderer) page() {
	r.pdf.AddPage()
	r.y = marginTop
}

func (r *renderer) ensure(height float64) bool {
	if r.y+height > gopdf.PageSizeLetter.H-marginTop {
		r.page()
		return true
	}
	return false
}

func (r *renderer) font(family string, size float64) {
	if r.err != nil {
		return
	}
	if err := r.pdf.SetFont(family, "", size); err != nil {
		r.err = fmt.Errorf("set font %s: %w", family, err)
	}
}

func (r *renderer) fill(c rgb)   { r.pdf.SetFillColor(c.r, c.g, c.b) }
func (r *renderer) stroke(c rgb) { r.pdf.SetStrokeColor(c.r, c.g, c.b) }
func (r *renderer) ink(c rgb)    { r.pdf.SetTextColor(c.r, c.g, c.b) }

func (r *renderer) text(x, y, w, h float64, s string, align int) {
	if r.err != nil {
		return
	}
	r.pdf.SetXY(x, y)
	if err := r.pdf.CellWithOption(&gopdf.Rect{W: w, H: h}, s, gopdf.CellOption{Align: align}); err != nil {
		r.err = fmt.Errorf("draw text %q: %w", s, err)
	}
}

func (r *renderer) title(s string) {
	r.font(fontBold, 20)
	r.ink(gridColor)
	r.text(marginX, r.y, gopdf.PageSizeLetter.W-2*marginX, 30, s, gopdf.Center|gopdf.Middle)
	r.y += 42
}

// table draws a centred grid with a grey header row, repeating the header
// on every new page.
func (r *renderer) table(head []string, rows [][]string, widths []float64) {
	total := 0.0
	for _, w := range widths {
		total += w
	}
	x0 := (gopdf.PageSizeLetter.W - total) / 2

	drawRow := func(cells []string, header bool) {
		x := x0
		r.stroke(gridColor)
		r.pdf.SetLineWidth(1)
		for i, w := range widths {
			if header {
				r.fill(headerFill)
				r.pdf.RectFromUpperLeftWithStyle(x, r.y, w, rowHeight, "FD")
			} else {
				r.pdf.RectFromUpperLeftWithStyle(x, r.y, w, rowHeight, "D")
			}
			var s string
			if i < len(cells) {
				s = cells[i]
			}
			r.text(x, r.y, w, rowHeight, s, gopdf.Center|gopdf.Middle)
			x += w
		}
		r.y += rowHeight
	}

	header := func() {
		r.font(fontBold, 11)
		r.ink(rgb{255, 255, 255})
		drawRow(head, true)
		r.font(fontRegular, 10)
		r.ink(gridColor)
	}

	r.ensure(2 * rowHeight)
	header()
	for _, row := range rows {
		if r.ensure(rowHeight) {
			header()
		}
		drawRow(row, false)
	}
}

// chartFrame draws the title, the axes and dashed horizontal grid lines of a
// bar chart and returns the plot origin (bottom-left) and size.
func (r *renderer) chartFrame(title string, height, maxValue, step float64) (x0, y0, w, h float64) {
	const labelW = 34.0
	r.ensure(height + 30)

	r.font(fontBold, 12)
	r.ink(gridColor)
	r.text(marginX, r.y, gopdf.PageSizeLetter.W-2*marginX, 18, title, gopdf.Center|gopdf.Middle)
	r.y += 24

	x0 = marginX + labelW
	w = gopdf.PageSizeLetter.W - 2*marginX - labelW
	h = height - 40
	y0 = r.y + h

	r.font(fontRegular, 8)
	r.pdf.SetLineWidth(0.5)
	for v := 0.0; v <= maxValue+1e-9; v += step {
		y := y0 - v/maxValue*h
		r.stroke(rgb{200, 200, 200})
		r.pdf.SetLineType("dashed")
		r.pdf.Line(x0, y, x0+w, y)
		r.pdf.SetLineType("solid")
		r.text(marginX, y-5, labelW-4, 10, trimFloat(v), gopdf.Right|gopdf.Middle)
	}
	r.stroke(gridColor)
	r.pdf.Line(x0, y0, x0+w, y0)
	r.pdf.Line(x0, y0, x0, y0-h)
	return x0, y0, w, h
}

func (r *renderer) meanChart(stats []model.QuestionStat) {
	maxValue := 1.1
	for _, q := range stats {
		maxValue = math.Max(maxValue, q.AvgScore)
	}
	x0, y0, w, h := r.chartFrame("Mean score per question", 250, maxValue, 0.2)

	slot := w / float64(len(stats))
	barW := slot * 0.6
	r.fill(meanColor)
	for i, q := range stats {
		x := x0 + float64(i)*slot + (slot-barW)/2
		bh := q.AvgScore / maxValue * h
		if bh > 0 {
			r.pdf.RectFromUpperLeftWithStyle(x, y0-bh, barW, bh, "F")
		}
		r.text(x0+float64(i)*slot, y0+4, slot, 10, q.Question, gopdf.Center|gopdf.Middle)
	}
	r.y = y0 + 24
}

func (r *renderer) accuracyChart(stats []model.QuestionStat, options []string) {
	if len(options) == 0 {
		return
	}
	x0, y0, w, h := r.chartFrame("Accuracy per option (%)", 280, 105, 20)

	slot := w / float64(len(stats))
	barW := slot * 0.8 / float64(len(options))
	for i, q := range stats {
		left := x0 + float64(i)*slot + slot*0.1
		for j, opt := range options {
			bh := q.AccuracyFor(opt) / 105 * h
			if bh <= 0 {
				continue
			}
			r.fill(optionColors[j%len(optionColors)])
			r.pdf.RectFromUpperLeftWithStyle(left+float64(j)*barW, y0-bh, barW, bh, "F")
		}
		r.text(x0+float64(i)*slot, y0+4, slot, 10, q.Question, gopdf.Center|gopdf.Middle)
	}

	// Legend below the axis labels.
	ly := y0 + 18
	lx := x0
	for j, opt := range options {
		r.fill(optionColors[j%len(optionColors)])
		r.pdf.RectFromUpperLeftWithStyle(lx, ly+2, 8, 8, "F")
		r.text(lx+10, ly, 20, 12, opt, gopdf.Left|gopdf.Middle)
		lx += 36
	}
	r.y = ly + 20
}

func trimFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}
