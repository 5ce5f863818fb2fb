package backend

import (
	"errors"
	"fmt"
	"strings"
)

// ConnectionError means no candidate base URL answered, or the request
// itself failed at the network level.
type ConnectionError struct {
	Tried []string
	Err   error
}

func (e *ConnectionError) Error() string {
	if len(e.Tried) > 0 {
		return fmt.Sprintf("backend unreachable (tried %s)", strings.Join(e.Tried, ", "))
	}
	return fmt.Sprintf("backend unreachable: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TimeoutError means the request deadline fired before a response arrived.
type TimeoutError struct {
	Endpoint string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out", e.Endpoint)
}

// AuthError is a 401/403 answer. The stored API key has already been
// discarded when it is returned.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (%d): %s", e.Status, e.Message)
}

// APIError is a non-2xx answer, or a 200 carrying success:false.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error (%d): %s", e.Status, e.Message)
}

// MalformedResponseError is a 200 answer missing required fields.
type MalformedResponseError struct {
	Endpoint string
	Reason   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %s", e.Endpoint, e.Reason)
}

// UserMessage turns a backend error into text fit for the result panel or
// the on-page error modal.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		connErr    *ConnectionError
		timeoutErr *TimeoutError
		authErr    *AuthError
		apiErr     *APIError
		malformed  *MalformedResponseError
	)
	switch {
	case errors.As(err, &connErr):
		return "Unable to reach the ScamShield service. Please check your internet connection and try again."
	case errors.As(err, &timeoutErr):
		return "The analysis took too long to complete. Please try again."
	case errors.As(err, &authErr):
		return "Your session with the ScamShield service expired. Please try again."
	case errors.As(err, &apiErr):
		if apiErr.Message != "" {
			return "Analysis failed: " + apiErr.Message
		}
		return "The ScamShield service returned an error. Please try again later."
	case errors.As(err, &malformed):
		return "The ScamShield service returned an unexpected response. Please try again later."
	}
	return "Something went wrong while analysing this content. Please try again."
}
