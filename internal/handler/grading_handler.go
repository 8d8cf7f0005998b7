package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Spectrumgrid/grade-pilot/internal/grading"
	"github.com/Spectrumgrid/grade-pilot/internal/model"
	"github.com/Spectrumgrid/grade-pilot/internal/response"
	"github.com/Spectrumgrid/grade-pilot/internal/service"
	"github.com/Spectrumgrid/grade-pilot/internal/validator"
)

// multipartOverhead is the slack allowed on top of the file size for the
// multipart envelope and the other form fields.
const multipartOverhead = 1 << 20

// GradingHandler handles answer-sheet upload endpoints.
type GradingHandler struct {
	gradingService *service.GradingService
	maxUploadBytes int64
	log            zerolog.Logger
}

// NewGradingHandler creates a new GradingHandler.
func NewGradingHandler(gradingService *service.GradingService, maxUploadBytes int64, log zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		gradingService: gradingService,
		maxUploadBytes: maxUploadBytes,
		log:            log.With().Str("component", "grading_handler").Logger(),
	}
}

// Grade godoc
// POST /api/v1/grade
// Grades an answer sheet and returns the new session id with the class metrics.
func (h *GradingHandler) Grade(c *gin.Context) {
	up, shape, done, ok := h.bindUpload(c)
	if !ok {
		return
	}
	defer done()

	summary, err := h.gradingService.Grade(c.Request.Context(), up, shape)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}

// Validate godoc
// POST /api/v1/validate
// Checks an answer sheet against the declared shape without grading it.
func (h *GradingHandler) Validate(c *gin.Context) {
	up, shape, done, ok := h.bindUpload(c)
	if !ok {
		return
	}
	defer done()

	summary, err := h.gradingService.Validate(c.Request.Context(), up, shape)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}

// bindUpload reads the multipart form. On failure the response has already
// been written and ok is false.
func (h *GradingHandler) bindUpload(c *gin.Context) (up service.Upload, shape grading.Shape, done func(), ok bool) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	}

	if _, err := c.FormFile("file"); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Fail(c, http.StatusBadRequest, response.ErrFileTooLarge)
		} else {
			response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		}
		return
	}

	var form model.GradeForm
	if fields := validator.Bind(c, &form); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	file, err := form.File.Open()
	if err != nil {
		h.log.Error().Err(err).Str("filename", form.File.Filename).Msg("Failed to open upload")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	up = service.Upload{Filename: form.File.Filename, Size: form.File.Size, Body: file}
	shape = grading.Shape{Questions: form.QuestionCount, Options: form.OptionCount}
	return up, shape, func() { file.Close() }, true
}

func (h *GradingHandler) fail(c *gin.Context, err error) {
	var ve *grading.ValidationError
	switch {
	case errors.As(err, &ve):
		response.FailWithMessage(c, http.StatusUnprocessableEntity, response.ErrSheetValidation, ve.Message, ve.Fields())
	case errors.Is(err, service.ErrInvalidShape):
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrValidation, err.Error(), nil)
	case errors.Is(err, service.ErrUnsupportedFileType):
		response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
	case errors.Is(err, service.ErrFileTooLarge):
		response.Fail(c, http.StatusBadRequest, response.ErrFileTooLarge)
	case errors.Is(err, service.ErrInvalidSpreadsheet):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidSpreadsheet)
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Grading request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
