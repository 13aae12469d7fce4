// Package errors provides custom error types for the chat backend client.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for common cases
var (
	ErrInvalidResponse = errors.New("invalid response format")
	ErrNoContent       = errors.New("no content in response")
	ErrChatNotFound    = errors.New("chat not found")
	ErrStreamInFlight  = errors.New("a reply is still streaming")
	ErrNoModels        = errors.New("no models available")
	ErrClientClosed    = errors.New("client is closed")
)

// APIError represents a non-2xx answer from the backend
type APIError struct {
	StatusCode int
	Status     string // status text, e.g. "NOT FOUND"
	Endpoint   string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("API error at %s: %s", e.Endpoint, e.Message)
}

// Is matches ErrChatNotFound for 404 answers of the chat endpoints.
func (e *APIError) Is(target error) bool {
	if target == ErrChatNotFound {
		return e.StatusCode == http.StatusNotFound
	}
	_, ok := target.(*APIError)
	return ok
}

// NewAPIError creates a new APIError
func NewAPIError(statusCode int, endpoint, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Status:     strings.ToUpper(http.StatusText(statusCode)),
		Endpoint:   endpoint,
		Message:    message,
	}
}

// NewAPIErrorWithBody creates an APIError that keeps the raw response body.
func NewAPIErrorWithBody(statusCode int, endpoint, message, body string) *APIError {
	e := NewAPIError(statusCode, endpoint, message)
	e.Body = body
	return e
}

// NewHTTPStatusError builds the error raised when the prompt stream is refused.
// The message carries code, status text and body in one line.
func NewHTTPStatusError(statusCode int, status, endpoint, body string) *APIError {
	if status == "" {
		status = strings.ToUpper(http.StatusText(statusCode))
	}
	return &APIError{
		StatusCode: statusCode,
		Status:     status,
		Endpoint:   endpoint,
		Message:    fmt.Sprintf("HTTP error! status: %d %s%s", statusCode, status, body),
		Body:       body,
	}
}

// NetworkError wraps a transport failure
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error at %s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a new NetworkError
func NewNetworkError(endpoint string, err error) *NetworkError {
	return &NetworkError{Endpoint: endpoint, Err: err}
}

// TimeoutError represents a request timeout
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string {
	if e.Message == "" {
		return "request timed out"
	}
	return fmt.Sprintf("request timed out: %s", e.Message)
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(message string) *TimeoutError {
	return &TimeoutError{Message: message}
}

// ModelError represents a model-related error
type ModelError struct {
	Message string
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model error: %s", e.Message)
}

// Is matches ErrNoModels.
func (e *ModelError) Is(target error) bool {
	return target == ErrNoModels
}

// NewModelError creates a new ModelError
func NewModelError(message string) *ModelError {
	return &ModelError{Message: message}
}

// ParseError represents a response parsing error
type ParseError struct {
	Message string
	Path    string
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("parse error at %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

// NewParseError creates a new ParseError
func NewParseError(message, path string) *ParseError {
	return &ParseError{Message: message, Path: path}
}

// Is allows comparison with sentinel errors
func (e *ParseError) Is(target error) bool {
	if target == ErrInvalidResponse {
		return true
	}
	_, ok := target.(*ParseError)
	return ok
}

// GetHTTPStatus returns the HTTP status carried by err, or 0.
func GetHTTPStatus(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// GetEndpoint returns the endpoint carried by err, or "".
func GetEndpoint(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Endpoint
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.Endpoint
	}
	return ""
}

// GetResponseBody returns the response body carried by err, or "".
func GetResponseBody(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Body
	}
	return ""
}

// IsNetworkError reports whether err is a transport failure.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsTimeoutError reports whether err is a timeout.
func IsTimeoutError(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

// IsNotFound reports whether the backend answered 404.
func IsNotFound(err error) bool {
	return GetHTTPStatus(err) == http.StatusNotFound
}
