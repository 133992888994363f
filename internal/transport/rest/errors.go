package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCanceled marks a request aborted through its context before a response
// was fully received.
var ErrCanceled = errors.New("request canceled")

// Error is a non-2xx response from the remote service. The body is kept
// verbatim; the message fields are filled when the body is a JSON error object.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte

	Message   string
	ErrorCode string
	ErrorType string
	ErrorLink string
}

func (e *Error) Error() string {
	if e.Message != "" {
		if e.ErrorCode != "" {
			return fmt.Sprintf("%s %s: status %d: %s (%s)", e.Method, e.Path, e.StatusCode, e.Message, e.ErrorCode)
		}
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	if len(e.Body) > 0 {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, string(e.Body))
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// NetworkError is a failure below HTTP: DNS, connection, TLS, socket timeout.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func newError(method, path string, status int, body []byte) *Error {
	e := &Error{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Body:       body,
	}
	var parsed struct {
		Message   string `json:"message"`
		ErrorCode string `json:"errorCode"`
		ErrorType string `json:"errorType"`
		ErrorLink string `json:"errorLink"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		e.Message = parsed.Message
		e.ErrorCode = parsed.ErrorCode
		e.ErrorType = parsed.ErrorType
		e.ErrorLink = parsed.ErrorLink
	}
	return e
}

// canceled reports ctx's cause under ErrCanceled so both
// errors.Is(err, ErrCanceled) and errors.Is(err, context.Canceled) hold.
func canceled(ctx context.Context) error {
	cause := context.Cause(ctx)
	if cause == nil {
		cause = ctx.Err()
	}
	return fmt.Errorf("%w: %w", ErrCanceled, cause)
}
