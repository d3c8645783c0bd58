package errors

import "fmt"

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents an API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeServerError:
		return true
	case ErrorTypeRateLimit:
		// Rate limits are waited out by the gate, not hammered by retries.
		return false
	default:
		return false
	}
}

// TypeForStatus maps an HTTP status code to an ErrorType
func TypeForStatus(statusCode int) ErrorType {
	switch {
	case statusCode == 0:
		return ErrorTypeNetwork
	case statusCode == 401 || statusCode == 403:
		return ErrorTypeAuth
	case statusCode == 404:
		return ErrorTypeNotFound
	case statusCode == 429:
		return ErrorTypeRateLimit
	case statusCode >= 500:
		return ErrorTypeServerError
	default:
		return ErrorTypeUnknown
	}
}

// DownloadError is returned when a media file could not be fetched or written.
// The item being archived continues without that file.
type DownloadError struct {
	URL  string
	Path string
	Err  error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s -> %s: %v", e.URL, e.Path, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// PersistenceError is returned when an archive entry directory or its metadata
// file could not be written. Processing of that single item stops.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// RemoteActionError is returned when a delete or un-like request fails.
// It is logged and never retried.
type RemoteActionError struct {
	Action string
	ID     string
	Err    error
}

func (e *RemoteActionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Action, e.ID, e.Err)
}

func (e *RemoteActionError) Unwrap() error {
	return e.Err
}
