package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValidationError reports input rejected on the client before any request
// was dispatched.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// AuthError is a 401 from the backend. Callers holding a persisted token
// treat it as a forced logout.
type AuthError struct {
	Detail string
}

func (e *AuthError) Error() string {
	if e.Detail == "" {
		return "authentication rejected"
	}
	return "authentication rejected: " + e.Detail
}

// NotFoundError is a 404, typically from operating on a stale or deleted id.
type NotFoundError struct {
	Detail string
}

func (e *NotFoundError) Error() string {
	if e.Detail == "" {
		return "not found"
	}
	return "not found: " + e.Detail
}

// ServerError is any other non-2xx response.
type ServerError struct {
	StatusCode int
	Detail     string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("request failed: status=%d detail=%s", e.StatusCode, e.Detail)
}

// NetworkError wraps a transport-level failure (no HTTP response at all).
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// errorBody is the FastAPI-style error payload.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// detailFromBody extracts a human-readable detail string from an error
// response body. Validation errors arrive as structured arrays; everything
// else is a plain string.
func detailFromBody(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}
	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(eb.Detail))
}

// statusError maps a non-2xx response to the typed taxonomy.
func statusError(statusCode int, body []byte) error {
	detail := detailFromBody(body)
	switch statusCode {
	case 401:
		return &AuthError{Detail: detail}
	case 404:
		return &NotFoundError{Detail: detail}
	default:
		return &ServerError{StatusCode: statusCode, Detail: detail}
	}
}
