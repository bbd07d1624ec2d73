package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return "validation failed"
	}
	return err.Err.Error()
}

// NotFoundError is returned when a referenced entity does not exist.
type NotFoundError struct {
	Resource string
}

func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

func (err NotFoundError) Error() string {
	return err.Resource + " not found"
}

// ConflictError is a uniqueness violation (duplicate type, duplicate key, already taken...).
type ConflictError struct {
	Code    string
	Message string
}

func NewConflictError(code, msg string) *ConflictError {
	return &ConflictError{Code: code, Message: msg}
}

func (err ConflictError) Error() string {
	return err.Message
}

// AuthError means the caller could not be identified.
type AuthError struct {
	Code    string
	Message string
}

func NewAuthError(code, msg string) *AuthError {
	return &AuthError{Code: code, Message: msg}
}

func (err AuthError) Error() string {
	return err.Message
}

// ForbiddenError means the caller is known but not allowed. Reason is set for eligibility failures.
type ForbiddenError struct {
	Reason  string
	Message string
}

func NewForbiddenError(reason, msg string) *ForbiddenError {
	return &ForbiddenError{Reason: reason, Message: msg}
}

func (err ForbiddenError) Error() string {
	return err.Message
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
