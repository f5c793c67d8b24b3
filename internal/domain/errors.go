package domain

import (
	"fmt"
	"strings"
)

// Error codes for the different failure classes
const (
	ErrConfiguration = "CONFIGURATION_ERROR"
	ErrValidation    = "VALIDATION_ERROR"
	ErrGuard         = "GUARD_ERROR"
	ErrTransport     = "TRANSPORT_ERROR"
	ErrDecode        = "DECODE_ERROR"
)

// ConfigError is raised when options fail validation at construction time
type ConfigError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration for '%s': %s (got %v)", e.Field, e.Message, e.Value)
}

// Code returns the error code
func (e *ConfigError) Code() string { return ErrConfiguration }

// ValidationError represents a query parameter that could not be validated
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// Code returns the error code
func (e *ValidationError) Code() string { return ErrValidation }

// GuardError is a usability guard tripped before any network I/O
type GuardError struct {
	Message string `json:"message"`
}

// Error implements the error interface
func (e *GuardError) Error() string {
	return e.Message
}

// Code returns the error code
func (e *GuardError) Code() string { return ErrGuard }

// TransportError reports that no candidate URL could be downloaded
type TransportError struct {
	URLs []string `json:"urls"`
	Err  error    `json:"-"`
}

// Error implements the error interface
func (e *TransportError) Error() string {
	msg := fmt.Sprintf("failed to download from any of [%s]", strings.Join(e.URLs, ", "))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the last transport failure
func (e *TransportError) Unwrap() error { return e.Err }

// Code returns the error code
func (e *TransportError) Code() string { return ErrTransport }

// DecodeError wraps a failure to parse a downloaded body
type DecodeError struct {
	URL string `json:"url"`
	Err error  `json:"-"`
}

// Error implements the error interface
func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response from %s: %v", e.URL, e.Err)
}

// Unwrap returns the decoder error
func (e *DecodeError) Unwrap() error { return e.Err }

// Code returns the error code
func (e *DecodeError) Code() string { return ErrDecode }

// NewConfigError creates a new ConfigError
func NewConfigError(field, message string, value interface{}) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// NewGuardError creates a new GuardError
func NewGuardError(format string, args ...interface{}) *GuardError {
	return &GuardError{Message: fmt.Sprintf(format, args...)}
}

// NewTransportError creates a new TransportError
func NewTransportError(urls []string, err error) *TransportError {
	return &TransportError{URLs: urls, Err: err}
}

// NewDecodeError creates a new DecodeError
func NewDecodeError(url string, err error) *DecodeError {
	return &DecodeError{URL: url, Err: err}
}
