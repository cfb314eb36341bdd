// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorHandler normalizes errors and writes them as HTTP responses.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// statusByCode maps error codes to HTTP statuses. Codes absent from the map
// fall back to 500.
var statusByCode = map[ErrorCode]int{
	ErrCodeSectionLocked:    http.StatusForbidden,
	ErrCodeSaveInProgress:   http.StatusConflict,
	ErrCodeSessionClosed:    http.StatusGone,
	ErrCodeAlreadySubmitted: http.StatusConflict,

	ErrCodeOpportunityNotFound: http.StatusNotFound,
	ErrCodeTemplateNotFound:    http.StatusNotFound,
	ErrCodeSessionNotFound:     http.StatusNotFound,
	ErrCodeSubmissionNotFound:  http.StatusNotFound,
	ErrCodeUserNotFound:        http.StatusNotFound,

	ErrCodeForbidden:      http.StatusForbidden,
	ErrCodeInvalidRequest: http.StatusBadRequest,

	ErrCodeDatabaseConnectionFailed: http.StatusServiceUnavailable,
	ErrCodeDraftSaveFailed:          http.StatusServiceUnavailable,
	ErrCodeDraftLoadFailed:          http.StatusServiceUnavailable,
	ErrCodeSubmissionStoreFailed:    http.StatusServiceUnavailable,
	ErrCodeSearchQueryFailed:        http.StatusServiceUnavailable,
	ErrCodeNotificationSendFailed:   http.StatusServiceUnavailable,
}

// WriteHTTP normalizes err to a StandardError and writes it as JSON.
func (h *ErrorHandler) WriteHTTP(w http.ResponseWriter, err error) {
	stdErr := h.normalizeError(err)

	status, ok := statusByCode[stdErr.Code]
	if !ok {
		status = http.StatusInternalServerError
	}

	h.logger.Error("request failed", map[string]interface{}{
		"errorCode": string(stdErr.Code),
		"message":   stdErr.Message,
		"details":   stdErr.Details,
		"retryable": stdErr.Retryable,
		"status":    status,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(stdErr)
}

// normalizeError ensures we always have a StandardError
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr
	}
	return &StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
