// Package errors defines custom error types for better error handling and debugging.
// StreamError provides context-aware error reporting with type classification.
package errors

import (
	stderrors "errors"
	"fmt"
)

// StreamError represents errors that occur during stream resolution
type StreamError struct {
	Type    string
	Message string
	Cause   error
}

func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *StreamError) Unwrap() error {
	return e.Cause
}

// Error type constants
const (
	ErrorTypeConfigurationInvalid = "CONFIGURATION_INVALID"
	ErrorTypeAPIKeyMissing        = "API_KEY_MISSING"
	ErrorTypeInvalidID            = "INVALID_ID"
	ErrorTypeMetadataNotFound     = "METADATA_NOT_FOUND"
	ErrorTypeFetchFailure         = "FETCH_FAILURE"
	ErrorTypeParseFailure         = "PARSE_FAILURE"
	ErrorTypeTimeout              = "TIMEOUT"
)

// NewStreamError creates a new StreamError
func NewStreamError(errorType, message string, cause error) *StreamError {
	return &StreamError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// IsType reports whether err, or anything it wraps, is a StreamError of errorType.
func IsType(err error, errorType string) bool {
	var se *StreamError
	return stderrors.As(err, &se) && se.Type == errorType
}

// NewConfigurationError creates a configuration-related error
func NewConfigurationError(message string, cause error) *StreamError {
	return NewStreamError(ErrorTypeConfigurationInvalid, message, cause)
}

// NewAPIKeyMissingError creates an API key missing error
func NewAPIKeyMissingError(service string) *StreamError {
	return NewStreamError(ErrorTypeAPIKeyMissing, fmt.Sprintf("API key missing for %s", service), nil)
}

// NewInvalidIDError creates an invalid ID error
func NewInvalidIDError(id string) *StreamError {
	return NewStreamError(ErrorTypeInvalidID, fmt.Sprintf("Invalid ID format: %s", id), nil)
}

func NewMetadataNotFoundError(id string) *StreamError {
	return NewStreamError(ErrorTypeMetadataNotFound, fmt.Sprintf("No title found for %s", id), nil)
}

func NewFetchError(message string, cause error) *StreamError {
	return NewStreamError(ErrorTypeFetchFailure, message, cause)
}

func NewParseError(message string, cause error) *StreamError {
	return NewStreamError(ErrorTypeParseFailure, message, cause)
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(operation string) *StreamError {
	return NewStreamError(ErrorTypeTimeout, fmt.Sprintf("Operation timeout: %s", operation), nil)
}
