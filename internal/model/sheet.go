package model

import "strings"

// Sheet is the first worksheet of an uploaded answer workbook.
// Header is spreadsheet row 1; Rows[0] is the answer key (row 2) and
// Rows[1:] are the students (row 3 onwards). Column 0 holds the student
// identifier, columns 1..n hold one question each.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Width returns the number of columns spanned by the header or any data row.
func (s *Sheet) Width() int {
	w := len(s.Header)
	for _, r := range s.Rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// Cell returns the raw text at (row, col) of the data rows, or "" when the
// cell lies outside the stored row.
func (s *Sheet) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) {
		return ""
	}
	r := s.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// IsBlank reports whether the cell at (row, col) is missing or whitespace.
func (s *Sheet) IsBlank(row, col int) bool {
	return strings.TrimSpace(s.Cell(row, col)) == ""
}

// StudentCount is the number of data rows after the key row.
func (s *Sheet) StudentCount() int {
	if len(s.Rows) <= 1 {
		return 0
	}
	return len(s.Rows) - 1
}
