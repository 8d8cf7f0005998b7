package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/Spectrumgrid/grade-pilot/internal/config"
	"github.com/Spectrumgrid/grade-pilot/internal/grading"
	"github.com/Spectrumgrid/grade-pilot/internal/model"
	"github.com/Spectrumgrid/grade-pilot/internal/report"
	"github.com/Spectrumgrid/grade-pilot/internal/repository"
)

func testConfig() *config.Config {
	return &config.Config{
		MaxUploadBytes: 1 << 20,
		Grading: config.Grading{
			OptionAlphabet: []string{"A", "B", "C", "D", "E"},
			PassMark:       5,
			MinQuestions:   5,
			MaxQuestions:   20,
		},
	}
}

// answerSheet is a 5-question, 4-option exam with two students scoring 5
// and 0.
var answerSheet = [][]any{
	{"DNI", "P1", "P2", "P3", "P4", "P5"},
	{"KEY", "A", "B,C", "D", "A", "C"},
	{"111", "A", "B,C", "D", "A", "C"},
	{"222", "B", "B", "", "", "D"},
}

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		row := r
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf.Bytes()
}

func upload(name string, data []byte) Upload {
	return Upload{Filename: name, Size: int64(len(data)), Body: bytes.NewReader(data)}
}

func newGradingService(repo repository.ArtifactRepository) *GradingService {
	s := NewGradingService(testConfig(), repo, zerolog.Nop())
	s.newID = func() string { return "sess-1" }
	return s
}

func TestGradingService_Grade(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryArtifactRepository()
	s := newGradingService(repo)

	sum, err := s.Grade(ctx, upload("exam.xlsx", workbook(t, answerSheet)), grading.Shape{Questions: 5, Options: 4})
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if sum.SessionID != "sess-1" || sum.Filename != "exam.xlsx" {
		t.Errorf("unexpected summary: %+v", sum)
	}
	m := sum.Metrics
	if m.TotalStudents != 2 || m.Passing != 1 || m.Failing != 1 || m.MaxScore != 5 || m.PassingPct != 50 {
		t.Errorf("unexpected metrics: %+v", m)
	}

	b, err := repo.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("session not stored: %v", err)
	}
	if len(b.Preview) != 2 || b.Preview[0].DNI != "111" || b.Preview[0].Score != 5 {
		t.Errorf("unexpected preview: %+v", b.Preview)
	}
	if b.Metrics.QuestionCount != 5 || b.Metrics.OptionCount != 4 || len(b.Metrics.QuestionStats) != 5 {
		t.Errorf("unexpected stored metrics: %+v", b.Metrics)
	}
	if !bytes.HasPrefix(b.Workbook, []byte("PK")) {
		t.Error("expected a zipped workbook")
	}
}

func TestGradingService_RejectsBeforeWriting(t *testing.T) {
	valid := workbook(t, answerSheet)
	shape := grading.Shape{Questions: 5, Options: 4}

	tests := []struct {
		name   string
		upload Upload
		shape  grading.Shape
		target error
		rule   grading.Rule
	}{
		{name: "csv file", upload: upload("exam.csv", valid), shape: shape, target: ErrUnsupportedFileType},
		{name: "no extension", upload: upload("exam", valid), shape: shape, target: ErrUnsupportedFileType},
		{name: "too few questions", upload: upload("exam.xlsx", valid), shape: grading.Shape{Questions: 4, Options: 4}, target: ErrInvalidShape},
		{name: "too many questions", upload: upload("exam.xlsx", valid), shape: grading.Shape{Questions: 21, Options: 4}, target: ErrInvalidShape},
		{name: "too many options", upload: upload("exam.xlsx", valid), shape: grading.Shape{Questions: 5, Options: 6}, target: ErrInvalidShape},
		{
			name:   "oversized upload",
			upload: Upload{Filename: "exam.xlsx", Size: 2 << 20, Body: bytes.NewReader(valid)},
			shape:  shape,
			target: ErrFileTooLarge,
		},
		{name: "corrupt workbook", upload: upload("exam.xlsx", []byte("not a zip")), shape: shape, target: ErrInvalidSpreadsheet},
		{name: "legacy xls bytes", upload: upload("exam.XLS", []byte{0xD0, 0xCF, 0x11, 0xE0}), shape: shape, target: ErrInvalidSpreadsheet},
		{name: "option count mismatch", upload: upload("exam.xlsx", valid), shape: grading.Shape{Questions: 5, Options: 5}, rule: grading.RuleOptionCountMismatch},
		{name: "column count mismatch", upload: upload("exam.xlsx", valid), shape: grading.Shape{Questions: 6, Options: 4}, rule: grading.RuleColumnCount},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			repo := repository.NewMemoryArtifactRepository()
			s := newGradingService(repo)

			_, err := s.Grade(ctx, tc.upload, tc.shape)
			if tc.target != nil && !errors.Is(err, tc.target) {
				t.Fatalf("expected %v, got %v", tc.target, err)
			}
			if tc.rule != "" {
				var ve *grading.ValidationError
				if !errors.As(err, &ve) || ve.Rule != tc.rule {
					t.Fatalf("expected rule %s, got %v", tc.rule, err)
				}
			}
			if _, err := repo.Get(ctx, "sess-1"); !errors.Is(err, repository.ErrSessionNotFound) {
				t.Errorf("rejected upload must not be stored, got %v", err)
			}
		})
	}
}

func TestGradingService_Validate(t *testing.T) {
	s := newGradingService(repository.NewMemoryArtifactRepository())

	sum, err := s.Validate(context.Background(), upload("exam.xlsx", workbook(t, answerSheet)), grading.Shape{Questions: 5, Options: 4})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if sum.Students != 2 || sum.QuestionCount != 5 || sum.OptionCount != 4 {
		t.Errorf("unexpected summary: %+v", sum)
	}

	_, err = s.Validate(context.Background(), upload("exam.xlsx", workbook(t, answerSheet[:2])), grading.Shape{Questions: 5, Options: 4})
	var ve *grading.ValidationError
	if !errors.As(err, &ve) || ve.Rule != grading.RuleNoStudents {
		t.Errorf("expected NO_STUDENTS, got %v", err)
	}
}

func seededSessions(t *testing.T) (*SessionService, *repository.MemoryArtifactRepository) {
	t.Helper()
	repo := repository.NewMemoryArtifactRepository()
	gs := newGradingService(repo)
	if _, err := gs.Grade(context.Background(), upload("exam.xlsx", workbook(t, answerSheet)), grading.Shape{Questions: 5, Options: 4}); err != nil {
		t.Fatalf("Grade: %v", err)
	}
	return NewSessionService(repo, zerolog.Nop()), repo
}

func TestSessionService_Reads(t *testing.T) {
	ctx := context.Background()
	s, _ := seededSessions(t)

	preview, err := s.Preview(ctx, "sess-1")
	if err != nil || len(preview) != 2 {
		t.Fatalf("Preview: %v %+v", err, preview)
	}
	metrics, err := s.Metrics(ctx, "sess-1")
	if err != nil || metrics.TotalStudents != 2 {
		t.Fatalf("Metrics: %v %+v", err, metrics)
	}
	wb, err := s.Workbook(ctx, "sess-1")
	if err != nil || len(wb) == 0 {
		t.Fatalf("Workbook: %v (%d bytes)", err, len(wb))
	}
	pdf, err := s.ExportReport(ctx, "sess-1")
	if err != nil {
		t.Fatalf("ExportReport: %v", err)
	}
	if !strings.HasPrefix(string(pdf), "%PDF") {
		t.Error("expected PDF bytes")
	}

	if _, err := s.Preview(ctx, "missing"); !errors.Is(err, repository.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionService_ExportEmptySession(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryArtifactRepository()
	if err := repo.Put(ctx, "empty", &model.ArtifactBundle{}); err != nil {
		t.Fatal(err)
	}
	s := NewSessionService(repo, zerolog.Nop())

	if _, err := s.ExportReport(ctx, "empty"); !errors.Is(err, report.ErrNothingToExport) {
		t.Errorf("expected ErrNothingToExport, got %v", err)
	}
	preview, err := s.Preview(ctx, "empty")
	if err != nil || preview == nil || len(preview) != 0 {
		t.Errorf("expected empty non-nil preview, got %v %v", preview, err)
	}
}
