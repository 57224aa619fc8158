package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common error conditions.
var (
	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSearchFailed indicates that the identifier search stage could not complete.
	ErrSearchFailed = errors.New("search failed")

	// ErrFetchFailed indicates that the metadata fetch stage could not complete.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrTransport indicates an HTTP or network failure talking to an external service.
	ErrTransport = errors.New("transport failure")

	// ErrUnknownStrategy indicates that no retriever is registered under the requested name.
	ErrUnknownStrategy = errors.New("unknown retrieval strategy")
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// TransportError describes a failed call to an external service.
// StatusCode is zero when no response was received.
type TransportError struct {
	Endpoint   string
	StatusCode int
	Body       string
	Cause      error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		msg := fmt.Sprintf("transport: %s returned status %d", e.Endpoint, e.StatusCode)
		if body := strings.TrimSpace(e.Body); body != "" {
			msg += ": " + truncate(body, 200)
		}
		return msg
	}
	return fmt.Sprintf("transport: %s: %v", e.Endpoint, e.Cause)
}

// Unwrap exposes both the transport sentinel and the underlying cause,
// so errors.Is works for ErrTransport and for context.DeadlineExceeded.
func (e *TransportError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Cause}
}

// SearchError reports that the identifier search stage failed.
type SearchError struct {
	Query string
	Cause error
}

// Error implements the error interface.
func (e *SearchError) Error() string {
	return fmt.Sprintf("search %q: %v", e.Query, e.Cause)
}

// Unwrap returns the search sentinel and the cause.
func (e *SearchError) Unwrap() []error {
	return []error{ErrSearchFailed, e.Cause}
}

// FetchError reports that the metadata fetch stage failed after a successful search.
type FetchError struct {
	IDs   []string
	Cause error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %d record(s): %v", len(e.IDs), e.Cause)
}

// Unwrap returns the fetch sentinel and the cause.
func (e *FetchError) Unwrap() []error {
	return []error{ErrFetchFailed, e.Cause}
}

// ParseWarning records a field-level or record-level anomaly found while
// parsing a payload. Warnings are logged and never returned as errors.
type ParseWarning struct {
	RecordID string
	Field    string
	Message  string
}

// String returns a human-readable form of the warning.
func (w ParseWarning) String() string {
	if w.RecordID == "" {
		return fmt.Sprintf("%s: %s", w.Field, w.Message)
	}
	return fmt.Sprintf("record %s: %s: %s", w.RecordID, w.Field, w.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewTransportError creates a new TransportError.
func NewTransportError(endpoint string, statusCode int, body string, cause error) *TransportError {
	return &TransportError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Body:       body,
		Cause:      cause,
	}
}

// NewSearchError creates a new SearchError.
func NewSearchError(query string, cause error) *SearchError {
	return &SearchError{
		Query: query,
		Cause: cause,
	}
}

// NewFetchError creates a new FetchError.
func NewFetchError(ids []string, cause error) *FetchError {
	return &FetchError{
		IDs:   ids,
		Cause: cause,
	}
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
