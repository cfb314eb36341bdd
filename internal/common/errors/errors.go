// Package errors provides standardized error handling for the grant service.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Form / engine errors. All of these are user-correctable outcomes,
	// never fatal states.
	ErrCodeSectionLocked    ErrorCode = "SECTION_LOCKED"
	ErrCodeSaveInProgress   ErrorCode = "SAVE_IN_PROGRESS"
	ErrCodeSessionClosed    ErrorCode = "SESSION_CLOSED"
	ErrCodeAlreadySubmitted ErrorCode = "ALREADY_SUBMITTED"

	// Resource lookup errors.
	ErrCodeOpportunityNotFound ErrorCode = "OPPORTUNITY_NOT_FOUND"
	ErrCodeTemplateNotFound    ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeSessionNotFound     ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeSubmissionNotFound  ErrorCode = "SUBMISSION_NOT_FOUND"
	ErrCodeUserNotFound        ErrorCode = "USER_NOT_FOUND"

	// Authorization errors.
	ErrCodeForbidden      ErrorCode = "FORBIDDEN"
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"

	// Infrastructure errors.
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDraftSaveFailed          ErrorCode = "DRAFT_SAVE_FAILED"
	ErrCodeDraftLoadFailed          ErrorCode = "DRAFT_LOAD_FAILED"
	ErrCodeSubmissionStoreFailed    ErrorCode = "SUBMISSION_STORE_FAILED"
	ErrCodeSearchQueryFailed        ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeTemplateRegistryInvalid  ErrorCode = "TEMPLATE_REGISTRY_INVALID"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is lets errors.Is match on the code of another StandardError.
func (e *StandardError) Is(target error) bool {
	se, ok := target.(*StandardError)
	return ok && se.Code == e.Code
}

// ==========================
// 2. Error Constructors
// ==========================

// NewSectionLockedError creates a non-retryable gating violation error.
func NewSectionLockedError(target, current string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSectionLocked,
		Message:   "Complete the current section before moving ahead",
		Details:   fmt.Sprintf("target: %s, current: %s", target, current),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSaveInProgressError creates a non-retryable overlapping-save error.
func NewSaveInProgressError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSaveInProgress,
		Message:   "A save is already in progress",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionClosedError creates a non-retryable torn-down-session error.
func NewSessionClosedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionClosed,
		Message:   "Form session has been closed",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAlreadySubmittedError creates a non-retryable terminal-state error.
func NewAlreadySubmittedError(applicationID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAlreadySubmitted,
		Message:   "Application has already been submitted",
		Details:   fmt.Sprintf("applicationId: %s", applicationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewOpportunityNotFoundError creates a non-retryable catalog lookup error.
func NewOpportunityNotFoundError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeOpportunityNotFound,
		Message:   "Funding opportunity not found",
		Details:   fmt.Sprintf("opportunityId: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateNotFoundError creates a non-retryable template registry error.
func NewTemplateNotFoundError(opportunityID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "No demo template registered for opportunity",
		Details:   fmt.Sprintf("opportunityId: %s", opportunityID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionNotFoundError creates a non-retryable session lookup error.
func NewSessionNotFoundError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionNotFound,
		Message:   "Application session not found",
		Details:   fmt.Sprintf("sessionId: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmissionNotFoundError creates a non-retryable submission lookup error.
func NewSubmissionNotFoundError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionNotFound,
		Message:   "Submission not found",
		Details:   fmt.Sprintf("submissionId: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserNotFoundError creates a non-retryable user lookup error.
func NewUserNotFoundError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUserNotFound,
		Message:   "User not found",
		Details:   fmt.Sprintf("userId: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewForbiddenError creates a non-retryable authorization error.
func NewForbiddenError(role, action string) *StandardError {
	return &StandardError{
		Code:      ErrCodeForbidden,
		Message:   "Role is not allowed to perform this action",
		Details:   fmt.Sprintf("role: %s, action: %s", role, action),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequestError creates a non-retryable malformed-request error.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Request could not be processed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDraftSaveFailedError creates a retryable draft persistence error.
func NewDraftSaveFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDraftSaveFailed,
		Message:   "Failed to save application draft",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDraftLoadFailedError creates a retryable draft load error.
func NewDraftLoadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDraftLoadFailed,
		Message:   "Failed to load application draft",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmissionStoreFailedError creates a retryable submission persistence error.
func NewSubmissionStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionStoreFailed,
		Message:   "Failed to record submission",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchQueryFailedError creates a retryable search error.
func NewSearchQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Opportunity search failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable delivery error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Failed to deliver notification",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateRegistryInvalidError creates a non-retryable registry load error.
func NewTemplateRegistryInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateRegistryInvalid,
		Message:   "Demo template registry failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Helpers
// ==========================

// CodeOf extracts the ErrorCode from an error, or empty when it is not a
// StandardError.
func CodeOf(err error) ErrorCode {
	if se, ok := err.(*StandardError); ok {
		return se.Code
	}
	return ""
}

// IsRetryable reports whether the error is a transient infrastructure failure.
func IsRetryable(err error) bool {
	if se, ok := err.(*StandardError); ok {
		return se.Retryable
	}
	return false
}
