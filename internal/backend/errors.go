// Package backend error types.
package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized indicates the backend rejected the session (expired or
// never established). Use errors.Is() to detect it in calling code.
var ErrUnauthorized = errors.New("authentication required")

// APIError is a backend response with success:false or a non-2xx status.
// Message carries the backend's error field when present, else the HTTP
// status text.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error (%d): %s", e.Status, e.Message)
}

// Unwrap exposes ErrUnauthorized on 401 responses so callers can keep
// using errors.Is while still reading the backend's message off the
// APIError itself.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// UserMessage extracts the text to surface for a failed backend call: the
// backend-provided message when there is one, else a generic connection
// failure line.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Sorry, I'm having trouble connecting to the server. Please try again."
}
