// Package errors defines the application error taxonomy for the hazard engine.
//
// Three categories matter operationally:
//   - InvalidParameter: the caller handed us bad input (bad geometry,
//     non-positive buffer). Fail fast, never retried.
//   - UpstreamUnavailable: the open-data portal or the datastore is
//     unreachable or timing out. The whole batch cycle aborts non-zero.
//   - PerUnitFailure: one record or one subscription failed. Recorded in the
//     cycle summary, processing continues.
package errors

import (
	"net/http"

	"airscout/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code for the API surface
	ErrorCode() string // Business error code
	Message() string   // Human-readable error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the human-readable error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	// ErrInvalidParameter covers caller mistakes: malformed routes, buffers
	// that are zero or negative, severities outside 1..5.
	ErrInvalidParameter = NewBaseError(
		http.StatusBadRequest,
		"INVALID_PARAMETER",
		"invalid parameter",
		"",
	)

	// ErrInvalidRoute is the geometry-specific flavor of ErrInvalidParameter
	// used when a route has fewer than two points.
	ErrInvalidRoute = NewBaseError(
		http.StatusBadRequest,
		"INVALID_ROUTE",
		"route must have at least 2 coordinate pairs",
		"",
	)

	// ErrUpstreamUnavailable aborts the whole cycle: the data portal or the
	// spatial datastore failed. Persisted state stays consistent because every
	// write is a self-contained upsert.
	ErrUpstreamUnavailable = NewBaseError(
		http.StatusBadGateway,
		"UPSTREAM_UNAVAILABLE",
		"upstream data source or datastore unavailable",
		"",
	)

	ErrHazardNotFound = NewBaseError(
		http.StatusNotFound,
		"HAZARD_NOT_FOUND",
		"hazard not found",
		"",
	)

	ErrNotFound = NewBaseError(
		http.StatusNotFound,
		"NOT_FOUND",
		"resource not found",
		"",
	)

	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"request validation failed",
		"",
	)

	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"internal error",
		"",
	)
)

// DatabaseExecuteError represents a datastore execution error, implementing
// the AppError interface. It is treated as UpstreamUnavailable at cycle level.
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a datastore-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the human-readable error message
func (e *DatabaseExecuteError) Message() string {
	return "database execution failed"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}
