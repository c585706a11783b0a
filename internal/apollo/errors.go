package apollo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Sentinel errors for the two statuses callers act on.
var (
	ErrRateLimited        = errors.New("Apollo API rate limit exceeded. Please wait and try again.")
	ErrInvalidCredentials = errors.New("Invalid Apollo API key. Please check your configuration.")
)

// APIError is any other failed call. Transient marks errors worth retrying.
type APIError struct {
	StatusCode int
	Message    string
	Transient  bool
	Cause      error
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if msg == "" {
		msg = fmt.Sprintf("status %d", e.StatusCode)
	}
	return "Failed to fetch contacts from Apollo: " + msg
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsTransient reports whether a call that failed with err should be retried.
// Rate limiting, server errors and timeouts are transient; bad credentials and
// other client errors are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrInvalidCredentials) {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// classifyStatus maps a non-2xx response to the package's error types.
func classifyStatus(statusCode int, body string) error {
	switch statusCode {
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusUnauthorized:
		return ErrInvalidCredentials
	}

	msg := fmt.Sprintf("status %d", statusCode)
	if body = strings.TrimSpace(body); body != "" {
		if len(body) > 200 {
			body = body[:200]
		}
		msg = fmt.Sprintf("%s: %s", msg, body)
	}
	return &APIError{
		StatusCode: statusCode,
		Message:    msg,
		Transient:  statusCode >= http.StatusInternalServerError,
	}
}
