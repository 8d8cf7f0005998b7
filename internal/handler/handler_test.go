package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/Spectrumgrid/grade-pilot/internal/config"
	"github.com/Spectrumgrid/grade-pilot/internal/model"
	"github.com/Spectrumgrid/grade-pilot/internal/repository"
	"github.com/Spectrumgrid/grade-pilot/internal/response"
	"github.com/Spectrumgrid/grade-pilot/internal/service"
	"github.com/Spectrumgrid/grade-pilot/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    response.ErrCode  `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

type testServer struct {
	engine *gin.Engine
	repo   *repository.MemoryArtifactRepository
}

func newTestServer(t *testing.T, maxUpload int64) *testServer {
	t.Helper()
	cfg := &config.Config{
		MaxUploadBytes: maxUpload,
		Grading: config.Grading{
			OptionAlphabet: []string{"A", "B", "C", "D", "E"},
			PassMark:       5,
			MinQuestions:   5,
			MaxQuestions:   20,
		},
	}
	repo := repository.NewMemoryArtifactRepository()
	gh := NewGradingHandler(service.NewGradingService(cfg, repo, zerolog.Nop()), cfg.MaxUploadBytes, zerolog.Nop())
	sh := NewSessionHandler(service.NewSessionService(repo, zerolog.Nop()), zerolog.Nop())

	r := gin.New()
	r.Use(response.RequestIDMiddleware())
	api := r.Group("/api/v1")
	api.POST("/grade", gh.Grade)
	api.POST("/validate", gh.Validate)
	api.GET("/preview/:session_id", sh.Preview)
	api.GET("/metrics/:session_id", sh.Metrics)
	api.GET("/download/:session_id", sh.Download)
	api.GET("/export-report/:session_id", sh.ExportReport)
	return &testServer{engine: r, repo: repo}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return env
}

// answerSheet is a 5-question, 4-option exam with two students.
func answerSheet(t *testing.T) []byte {
	t.Helper()
	rows := [][]any{
		{"DNI", "P1", "P2", "P3", "P4", "P5"},
		{"KEY", "A", "B,C", "D", "A", "C"},
		{"111", "A", "B,C", "D", "A", "C"},
		{"222", "B", "B", "", "", "D"},
	}
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

func uploadRequest(t *testing.T, path, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

var examShape = map[string]string{"option_count": "4", "question_count": "5"}

func TestGradeAndReadSession(t *testing.T) {
	s := newTestServer(t, 1<<20)

	w := s.do(uploadRequest(t, "/api/v1/grade", "exam.xlsx", answerSheet(t), examShape))
	if w.Code != http.StatusOK {
		t.Fatalf("grade: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var summary model.GradeSummary
	if err := json.Unmarshal(decode(t, w).Data, &summary); err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(summary.SessionID); err != nil {
		t.Fatalf("session id %q is not a UUID", summary.SessionID)
	}
	if summary.Metrics.TotalStudents != 2 || summary.Metrics.Passing != 1 {
		t.Errorf("unexpected metrics: %+v", summary.Metrics)
	}
	id := summary.SessionID

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/preview/"+id, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("preview: expected 200, got %d", w.Code)
	}
	var preview []model.StudentPreview
	if err := json.Unmarshal(decode(t, w).Data, &preview); err != nil {
		t.Fatal(err)
	}
	if len(preview) != 2 || preview[0] != (model.StudentPreview{DNI: "111", Score: 5, Attempted: true}) {
		t.Errorf("unexpected preview: %+v", preview)
	}

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/metrics/"+id, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", w.Code)
	}
	var metrics model.MetricsReport
	if err := json.Unmarshal(decode(t, w).Data, &metrics); err != nil {
		t.Fatal(err)
	}
	if metrics.QuestionCount != 5 || metrics.OptionCount != 4 || len(metrics.QuestionStats) != 5 {
		t.Errorf("unexpected metrics report: %+v", metrics)
	}

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/download/"+id, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("download: expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, workbookFilename) {
		t.Errorf("unexpected disposition %q", cd)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Error("expected workbook bytes")
	}

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/v1/export-report/"+id, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != pdfContentType {
		t.Errorf("unexpected content type %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Error("expected PDF bytes")
	}
}

func TestValidateEndpoint(t *testing.T) {
	s := newTestServer(t, 1<<20)

	w := s.do(uploadRequest(t, "/api/v1/validate", "exam.xlsx", answerSheet(t), examShape))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var summary model.ValidationSummary
	if err := json.Unmarshal(decode(t, w).Data, &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Students != 2 || summary.Filename != "exam.xlsx" {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestUploadErrors(t *testing.T) {
	sheet := answerSheet(t)

	tests := []struct {
		name     string
		path     string
		filename string
		data     []byte
		fields   map[string]string
		maxBytes int64
		status   int
		code     response.ErrCode
		rule     string
	}{
		{name: "missing file", path: "/api/v1/grade", fields: examShape, status: http.StatusBadRequest, code: response.ErrFileRequired},
		{name: "csv upload", path: "/api/v1/grade", filename: "exam.csv", data: sheet, fields: examShape, status: http.StatusBadRequest, code: response.ErrUnsupportedFile},
		{
			name: "question count out of range", path: "/api/v1/grade", filename: "exam.xlsx", data: sheet,
			fields: map[string]string{"option_count": "4", "question_count": "25"},
			status: http.StatusBadRequest, code: response.ErrValidation,
		},
		{
			name: "non-numeric option count", path: "/api/v1/validate", filename: "exam.xlsx", data: sheet,
			fields: map[string]string{"option_count": "four", "question_count": "5"},
			status: http.StatusBadRequest, code: response.ErrValidation,
		},
		{name: "corrupt workbook", path: "/api/v1/grade", filename: "exam.xlsx", data: []byte("garbage"), fields: examShape, status: http.StatusBadRequest, code: response.ErrInvalidSpreadsheet},
		{name: "file too large", path: "/api/v1/grade", filename: "exam.xlsx", data: sheet, fields: examShape, maxBytes: 100, status: http.StatusBadRequest, code: response.ErrFileTooLarge},
		{
			name: "declared options exceed sheet", path: "/api/v1/grade", filename: "exam.xlsx", data: sheet,
			fields: map[string]string{"option_count": "5", "question_count": "5"},
			status: http.StatusUnprocessableEntity, code: response.ErrSheetValidation, rule: "OPTION_COUNT_MISMATCH",
		},
		{
			name: "default question count", path: "/api/v1/validate", filename: "exam.xlsx", data: sheet,
			fields: map[string]string{"option_count": "4"},
			status: http.StatusUnprocessableEntity, code: response.ErrSheetValidation, rule: "COLUMN_COUNT",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			maxBytes := tc.maxBytes
			if maxBytes == 0 {
				maxBytes = 1 << 20
			}
			s := newTestServer(t, maxBytes)

			w := s.do(uploadRequest(t, tc.path, tc.filename, tc.data, tc.fields))
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
			env := decode(t, w)
			if env.Error == nil || env.Error.Code != tc.code {
				t.Fatalf("expected error code %s, got %s", tc.code, w.Body.String())
			}
			if tc.rule != "" && env.Error.Fields["rule"] != tc.rule {
				t.Errorf("expected rule %s, got %v", tc.rule, env.Error.Fields)
			}
		})
	}
}

func TestSessionErrors(t *testing.T) {
	s := newTestServer(t, 1<<20)
	emptyID := uuid.NewString()
	if err := s.repo.Put(context.Background(), emptyID, &model.ArtifactBundle{}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		path   string
		status int
		code   response.ErrCode
	}{
		{"malformed id", "/api/v1/preview/not-a-uuid", http.StatusBadRequest, response.ErrInvalidID},
		{"unknown preview", "/api/v1/preview/" + uuid.NewString(), http.StatusNotFound, response.ErrSessionNotFound},
		{"unknown metrics", "/api/v1/metrics/" + uuid.NewString(), http.StatusNotFound, response.ErrSessionNotFound},
		{"unknown download", "/api/v1/download/" + uuid.NewString(), http.StatusNotFound, response.ErrSessionNotFound},
		{"unknown export", "/api/v1/export-report/" + uuid.NewString(), http.StatusNotFound, response.ErrSessionNotFound},
		{"empty export", "/api/v1/export-report/" + emptyID, http.StatusBadRequest, response.ErrNothingToExport},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := s.do(httptest.NewRequest(http.MethodGet, tc.path, nil))
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, w.Code, w.Body.String())
			}
			if env := decode(t, w); env.Error == nil || env.Error.Code != tc.code {
				t.Errorf("expected %s, got %s", tc.code, w.Body.String())
			}
		})
	}
}
