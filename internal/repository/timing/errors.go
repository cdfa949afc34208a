package timing

import (
	"errors"
	"fmt"
)

// ConfigError is returned by NewRepository when no token or no usable
// transport is available. No request has been made at that point.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return "timing: " + e.Message
}

// RequestError is a failure tied to one HTTP exchange.
type RequestError struct {
	Message    string
	URL        string
	StatusCode int
	StatusText string
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("timing: %s (%s)", e.Message, e.URL)
	}
	return fmt.Sprintf("timing: %s (%d %s, %s)", e.Message, e.StatusCode, e.StatusText, e.URL)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// APIError is returned when the server answers with a status outside 200-299.
// Message is the server's "message" when the body carried one.
type APIError struct {
	RequestError
	// Errors holds the per-field messages of validation failures (422).
	Errors map[string][]string
}

func (e *APIError) Unwrap() error {
	return &e.RequestError
}

// NotFoundError is an APIError for a resource that does not exist.
type NotFoundError struct {
	APIError
}

func (e *NotFoundError) Unwrap() error {
	return &e.APIError
}

// ParseError is returned when a successful response does not contain valid JSON.
type ParseError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("timing: malformed response body (%d, %s): %v", e.StatusCode, e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is, or wraps, a *NotFoundError.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}
