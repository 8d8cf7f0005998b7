package response

import (
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Response is the standardized API response envelope.
type Response struct {
	Data     any        `json:"data"`
	Error    *ErrorBody `json:"error,omitempty"`
	Metadata Metadata   `json:"metadata"`
}

// ErrorBody represents a structured error response. Sheet rejections carry
// the failed rule and, when known, the question and offending letters in
// Fields.
type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Metadata includes request tracing and timing.
type Metadata struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

var now = time.Now

// ────────────────────────────────────────────────────────────────────────────
// JSON envelopes
// ────────────────────────────────────────────────────────────────────────────

// Success sends a successful JSON response with the given status code and data.
func Success(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, Response{Data: data, Metadata: buildMetadata(c)})
}

// Fail sends an error response with an error code and no field-level details.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	sendError(c, statusCode, &ErrorBody{Code: code, Message: GetMessage(code)}, false)
}

// FailWithFields sends an error response with field-level validation details.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	sendError(c, statusCode, &ErrorBody{Code: code, Message: GetMessage(code), Fields: fields}, false)
}

// FailWithMessage sends an error response whose message is specific to the
// request instead of the generic text of the code. An empty message falls
// back to the generic text.
func FailWithMessage(c *gin.Context, statusCode int, code ErrCode, message string, fields map[string]string) {
	if message == "" {
		message = GetMessage(code)
	}
	sendError(c, statusCode, &ErrorBody{Code: code, Message: message, Fields: fields}, false)
}

// AbortFail aborts the middleware chain and sends an error response.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	sendError(c, statusCode, &ErrorBody{Code: code, Message: GetMessage(code)}, true)
}

func sendError(c *gin.Context, statusCode int, body *ErrorBody, abort bool) {
	res := Response{Error: body, Metadata: buildMetadata(c)}
	if abort {
		c.AbortWithStatusJSON(statusCode, res)
		return
	}
	c.JSON(statusCode, res)
}

// ────────────────────────────────────────────────────────────────────────────
// File downloads
// ────────────────────────────────────────────────────────────────────────────

// Attachment serves data as a download named filename. Artifacts are sent
// whole, so the length is always known up front.
func Attachment(c *gin.Context, filename, contentType string, data []byte) {
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	if disposition == "" {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", disposition)
	c.Header("Content-Length", strconv.Itoa(len(data)))
	c.Data(http.StatusOK, contentType, data)
}

// ────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ────────────────────────────────────────────────────────────────────────────

// buildMetadata reuses the request ID assigned by RequestID, or assigns one
// so every envelope of the same request reports the same ID.
func buildMetadata(c *gin.Context) Metadata {
	id := c.GetString(ContextKeyRequestID)
	if id == "" {
		id = uuid.NewString()
		c.Set(ContextKeyRequestID, id)
	}
	return Metadata{
		RequestID: id,
		Timestamp: now().UTC().Format(time.RFC3339),
	}
}
