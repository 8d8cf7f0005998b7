package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Spectrumgrid/grade-pilot/internal/model"
	"github.com/xuri/excelize/v2"
)

// ErrNoWorksheet is returned for a workbook without any worksheet.
var ErrNoWorksheet = errors.New("workbook has no worksheets")

// Read parses the first worksheet of an .xlsx workbook. Row 1 becomes the
// header and the remaining rows the data rows; trailing blank rows are dropped.
func Read(r io.Reader) (*model.Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, ErrNoWorksheet
	}

	rows, err := f.GetRows(names[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows of %q: %w", names[0], err)
	}

	sheet := &model.Sheet{Name: names[0]}
	for len(rows) > 0 && blankRow(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 {
		return sheet, nil
	}
	sheet.Header = rows[0]
	sheet.Rows = rows[1:]
	return sheet, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
