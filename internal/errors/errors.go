package errors

import (
	"errors"
	"fmt"
)

// Kind represents different categories of job errors
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindRender        Kind = "render"
	KindClassifier    Kind = "classifier"
	KindValidation    Kind = "validation"
	KindCancelled     Kind = "cancelled"
	KindIO            Kind = "io"
)

// AppError represents a structured job error.
//
// Page is the 1-based page the error belongs to, or 0 for job-level errors.
type AppError struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Page    int    `json:"page,omitempty"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	prefix := string(e.Kind)
	if e.Page > 0 {
		prefix = fmt.Sprintf("%s (page %d)", e.Kind, e.Page)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewConfigurationError reports unusable job configuration (missing reference
// directory, no usable templates, bad thresholds). Always fatal.
func NewConfigurationError(message string, cause error) *AppError {
	return &AppError{Kind: KindConfiguration, Message: message, Cause: cause}
}

// NewRenderError reports a page that could not be rasterized.
func NewRenderError(page int, message string, cause error) *AppError {
	return &AppError{Kind: KindRender, Message: message, Page: page, Cause: cause}
}

// NewClassifierError reports a failed call to the external vision classifier.
func NewClassifierError(page int, message string, cause error) *AppError {
	return &AppError{Kind: KindClassifier, Message: message, Page: page, Cause: cause}
}

// NewValidationError reports invalid job settings.
func NewValidationError(message string, cause error) *AppError {
	return &AppError{Kind: KindValidation, Message: message, Cause: cause}
}

// NewCancelledError reports a job stopped by context cancellation or timeout.
func NewCancelledError(cause error) *AppError {
	return &AppError{Kind: KindCancelled, Message: "job cancelled", Cause: cause}
}

// NewIOError reports a failure reading input or writing output.
func NewIOError(message string, cause error) *AppError {
	return &AppError{Kind: KindIO, Message: message, Cause: cause}
}

// WithPage returns a copy of err tagged with a page number if it is an
// *AppError without one; other errors are returned unchanged.
func WithPage(err error, page int) error {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Page == 0 {
		cp := *appErr
		cp.Page = page
		return &cp
	}
	return err
}

// IsKind checks if the error chain contains an *AppError of the given kind
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// KindOf extracts the error kind, or "" for foreign errors
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}
