package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"
	ErrInvalidID  ErrCode = "INVALID_ID"

	// ─── Upload ────────────────────────────────────────────────────────
	ErrFileRequired       ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile    ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge       ErrCode = "FILE_TOO_LARGE"
	ErrInvalidSpreadsheet ErrCode = "INVALID_SPREADSHEET"

	// ─── Grading ───────────────────────────────────────────────────────
	ErrSheetValidation ErrCode = "SHEET_VALIDATION_FAILED"
	ErrSessionNotFound ErrCode = "SESSION_NOT_FOUND"
	ErrNothingToExport ErrCode = "NOTHING_TO_EXPORT"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid session ID format."

	// ─── Upload ────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A spreadsheet upload is required."
	case ErrUnsupportedFile:
		return "The file must be an Excel workbook (.xlsx or .xls)."
	case ErrFileTooLarge:
		return "The file exceeds the upload size limit."
	case ErrInvalidSpreadsheet:
		return "The Excel file could not be read. Make sure it is not corrupted."

	// ─── Grading ───────────────────────────────────────────────────────
	case ErrSheetValidation:
		return "The answer sheet does not match the declared exam."
	case ErrSessionNotFound:
		return "Session not found."
	case ErrNothingToExport:
		return "The session has no student data to export."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
