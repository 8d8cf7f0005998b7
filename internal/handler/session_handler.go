package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Spectrumgrid/grade-pilot/internal/report"
	"github.com/Spectrumgrid/grade-pilot/internal/repository"
	"github.com/Spectrumgrid/grade-pilot/internal/response"
	"github.com/Spectrumgrid/grade-pilot/internal/service"
)

// Download names and content types of the session artifacts.
const (
	workbookFilename = "graded_exam.xlsx"
	reportFilename   = "exam_report.pdf"

	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfContentType  = "application/pdf"
)

// SessionHandler serves the artifacts of graded sessions.
type SessionHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
}

func NewSessionHandler(sessionService *service.SessionService, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "session_handler").Logger(),
	}
}

// Preview godoc
// GET /api/v1/preview/:session_id
func (h *SessionHandler) Preview(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	preview, err := h.sessionService.Preview(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, preview)
}

// Metrics godoc
// GET /api/v1/metrics/:session_id
func (h *SessionHandler) Metrics(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	metrics, err := h.sessionService.Metrics(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, metrics)
}

// Download godoc
// GET /api/v1/download/:session_id
// Streams the graded workbook as an attachment.
func (h *SessionHandler) Download(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	data, err := h.sessionService.Workbook(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Attachment(c, workbookFilename, xlsxContentType, data)
}

// ExportReport godoc
// GET /api/v1/export-report/:session_id
// Renders the PDF report of the session as an attachment.
func (h *SessionHandler) ExportReport(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	data, err := h.sessionService.ExportReport(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Attachment(c, reportFilename, pdfContentType, data)
}

// sessionID returns the canonical form of the session_id path parameter.
func sessionID(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return "", false
	}
	return id.String(), true
}

func (h *SessionHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrSessionNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
	case errors.Is(err, report.ErrNothingToExport):
		response.Fail(c, http.StatusBadRequest, response.ErrNothingToExport)
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Session request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
