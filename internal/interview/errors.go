package interview

import (
	"errors"
	"fmt"
)

// Error types for interview operations

// Error represents errors related to interview operations
type Error struct {
	Type    string
	Token   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	scope := ""
	if e.Token != "" {
		scope = fmt.Sprintf(" for interview %s", e.Token)
	}
	if e.Cause != nil {
		return fmt.Sprintf("interview error [%s]%s: %s (caused by: %v)", e.Type, scope, e.Message, e.Cause)
	}
	return fmt.Sprintf("interview error [%s]%s: %s", e.Type, scope, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Interview error types
const (
	ErrorTypeNotFound            = "not_found"
	ErrorTypeInvalidInput        = "invalid_input"
	ErrorTypeCompleted           = "completed"
	ErrorTypeInsufficientData    = "insufficient_data"
	ErrorTypeUpstreamUnavailable = "upstream_unavailable"
	ErrorTypeMalformedResult     = "malformed_upstream_result"
	ErrorTypeSummaryFailed       = "summary_generation_failed"
)

// NewNotFoundError creates an error for when an interview is not found
func NewNotFoundError(token string) *Error {
	return &Error{
		Type:    ErrorTypeNotFound,
		Token:   token,
		Message: "interview not found",
	}
}

// NewInvalidInputError creates an error for rejected turn submissions
func NewInvalidInputError(token, message string) *Error {
	return &Error{
		Type:    ErrorTypeInvalidInput,
		Token:   token,
		Message: message,
	}
}

// NewCompletedError creates an error for operations against a completed interview
func NewCompletedError(token string) *Error {
	return &Error{
		Type:    ErrorTypeCompleted,
		Token:   token,
		Message: "interview is already completed and accepts no further turns",
	}
}

// NewInsufficientDataError creates an error for summary generation against an empty transcript
func NewInsufficientDataError(token string) *Error {
	return &Error{
		Type:    ErrorTypeInsufficientData,
		Token:   token,
		Message: "transcript is empty, nothing to summarize",
	}
}

// NewUpstreamError creates an error for a failed or timed-out model call
func NewUpstreamError(token string, cause error) *Error {
	return &Error{
		Type:    ErrorTypeUpstreamUnavailable,
		Token:   token,
		Message: "language model call failed",
		Cause:   cause,
	}
}

// NewMalformedResultError creates an error for a structured result that fails validation
func NewMalformedResultError(token string, cause error) *Error {
	return &Error{
		Type:    ErrorTypeMalformedResult,
		Token:   token,
		Message: "language model returned a result that does not match the required shape",
		Cause:   cause,
	}
}

// NewSummaryFailedError creates the umbrella error for summary pipeline failures
func NewSummaryFailedError(token string, cause error) *Error {
	return &Error{
		Type:    ErrorTypeSummaryFailed,
		Token:   token,
		Message: "summary generation failed, existing summary fields are unchanged",
		Cause:   cause,
	}
}

// IsKind reports whether err is an interview Error of the given type,
// inspecting the whole unwrap chain.
func IsKind(err error, errorType string) bool {
	for err != nil {
		var ie *Error
		if errors.As(err, &ie) {
			if ie.Type == errorType {
				return true
			}
			err = ie.Cause
			continue
		}
		return false
	}
	return false
}
