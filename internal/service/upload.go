package service

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Spectrumgrid/grade-pilot/internal/grading"
)

// Sentinel errors for answer-sheet uploads.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrInvalidShape        = errors.New("invalid exam shape")
	ErrInvalidSpreadsheet  = errors.New("could not read the spreadsheet")
)

// Allowed spreadsheet extensions. Legacy .xls passes this check but only
// Office Open XML workbooks can be parsed.
var allowedExtensions = []string{".xlsx", ".xls"}

// Upload is an answer sheet received from a client.
type Upload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// checkUpload rejects uploads by name, size and declared shape before the
// workbook is parsed.
func (s *GradingService) checkUpload(up Upload, shape grading.Shape) error {
	g := s.cfg.Grading
	if shape.Questions < g.MinQuestions || shape.Questions > g.MaxQuestions {
		return fmt.Errorf("%w: question count must be between %d and %d",
			ErrInvalidShape, g.MinQuestions, g.MaxQuestions)
	}
	if shape.Options < 1 || shape.Options > len(s.grading.Alphabet) {
		return fmt.Errorf("%w: option count must be between 1 and %d",
			ErrInvalidShape, len(s.grading.Alphabet))
	}

	ext := strings.ToLower(filepath.Ext(up.Filename))
	allowed := false
	for _, e := range allowedExtensions {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %q (allowed: %s)",
			ErrUnsupportedFileType, up.Filename, strings.Join(allowedExtensions, ", "))
	}

	if up.Size > s.cfg.MaxUploadBytes {
		return fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, up.Size, s.cfg.MaxUploadBytes)
	}
	return nil
}
