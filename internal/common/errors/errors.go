// internal/common/errors/errors.go

// Package errors provides standardized error handling for the formation
// wizard. Every remote failure is normalized into a StandardError carrying a
// stable code plus the single human-readable message the UI shows in its
// save-error banner.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeSaveFailed       ErrorCode = "SAVE_FAILED"
	ErrCodeUploadFailed     ErrorCode = "UPLOAD_FAILED"
	ErrCodeConfirmFailed    ErrorCode = "CONFIRM_FAILED"
	ErrCodeSubmitFailed     ErrorCode = "SUBMIT_FAILED"
	ErrCodeExtractionFailed ErrorCode = "EXTRACTION_FAILED"
	ErrCodeNameCheckFailed  ErrorCode = "NAME_CHECK_FAILED"
	ErrCodeCreateFailed     ErrorCode = "CREATE_FAILED"
	ErrCodeFetchFailed      ErrorCode = "FETCH_FAILED"

	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeSessionStore    ErrorCode = "SESSION_STORE_FAILED"

	ErrCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrCodeValidationBlock  ErrorCode = "VALIDATION_BLOCK"
	ErrCodeActivitySearch   ErrorCode = "ACTIVITY_SEARCH_FAILED"
	ErrCodeActivitySync     ErrorCode = "ACTIVITY_SYNC_FAILED"
	ErrCodeNotificationSend ErrorCode = "NOTIFICATION_SEND_FAILED"
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

// UserMessage returns the message the presentation layer shows. It never
// includes details; those stay in logs.
func (e *StandardError) UserMessage() string {
	return e.Message
}

// ==========================
// Error Constructors
// ==========================

// NewSaveFailedError wraps a failed step-persistence call. Retryable: the
// payload builder is pure, so pressing Next again re-sends the same data.
func NewSaveFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSaveFailed,
		Message:   "Failed to save your changes. Please try again.",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewUploadFailedError wraps a failed passport-upload batch. The metadata
// update has already committed server-side; re-running Next is safe because
// uploads are idempotent writes keyed by shareholder id.
func NewUploadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUploadFailed,
		Message:   "Failed to save changes or upload files. Please try again.",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfirmFailedError wraps a failed passport-confirmation batch.
func NewConfirmFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfirmFailed,
		Message:   "Failed to save passport details. Please try again.",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmitFailedError wraps a failed terminal submission call.
func NewSubmitFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmitFailed,
		Message:   "Failed to submit application. Please try again.",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewExtractionFailedError is scoped to one shareholder card; it carries the
// raw upstream reason because the card shows it inline.
func NewExtractionFailedError(shareholderID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionFailed,
		Message:   err.Error(),
		Details:   fmt.Sprintf("shareholderId: %s", shareholderID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNameCheckFailedError marks a company-name validation call that failed at
// the transport level, as opposed to an explicit "invalid name" verdict.
func NewNameCheckFailedError(name string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNameCheckFailed,
		Message:   "Could not verify the company name. Please try again.",
		Details:   fmt.Sprintf("name: %q, error: %s", name, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCreateFailedError wraps a failed application-create call.
func NewCreateFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCreateFailed,
		Message:   "Failed to start a new application. Please try again.",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewFetchFailedError wraps a failed application-fetch call during resume.
func NewFetchFailedError(applicationID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFetchFailed,
		Message:   "Failed to load your application. Please try again.",
		Details:   fmt.Sprintf("applicationId: %s, error: %s", applicationID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionNotFoundError marks a wizard session missing from the store.
func NewSessionNotFoundError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionNotFound,
		Message:   "Application session not found.",
		Details:   fmt.Sprintf("id: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequestError marks a malformed or schema-invalid request body.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid request.",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewActivitySyncError wraps a failed catalog sync run.
func NewActivitySyncError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeActivitySync,
		Message:   "Failed to sync the activity catalog.",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// Utility Functions
// ==========================

// IsRetryable reports whether the error is a retryable StandardError.
func IsRetryable(err error) bool {
	if stdErr, ok := err.(*StandardError); ok {
		return stdErr.Retryable
	}
	return false
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
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
