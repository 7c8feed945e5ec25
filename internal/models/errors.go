package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures for the API error envelope.
type ErrorKind string

// Error kinds
const (
	KindNotFound   ErrorKind = "not_found"
	KindValidation ErrorKind = "validation"
	KindInvalidID  ErrorKind = "invalid_id"
	KindBadRequest ErrorKind = "bad_request"
	KindStore      ErrorKind = "store"
)

// AppError represents a classified application error
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error returns the message, followed by the cause when there is one
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError reports a missing document
func NewNotFoundError(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

// NewValidationError reports a document that failed validation
func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

// NewInvalidIDError reports an id that is not a valid ObjectID
func NewInvalidIDError(value string, err error) *AppError {
	return &AppError{
		Kind:    KindInvalidID,
		Message: fmt.Sprintf("invalid id %q", value),
		Err:     err,
	}
}

// NewBadRequestError reports a request body that could not be read
func NewBadRequestError(message string, err error) *AppError {
	return &AppError{Kind: KindBadRequest, Message: message, Err: err}
}

// NewStoreError wraps an adapter failure. The message is fixed so store
// internals never leak into responses.
func NewStoreError(err error) *AppError {
	return &AppError{Kind: KindStore, Message: "store operation failed", Err: err}
}

// KindOf reports the kind of err. Unclassified errors count as store failures.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStore
}

// MessageOf returns the client-facing message for err.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "store operation failed"
}
