package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyBody is returned when a 2xx response has a missing or unparsable payload.
var ErrEmptyBody = errors.New("api: empty or malformed response body")

// NetworkError is a transport failure: no HTTP response was received.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("api: %s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response.
type ServerError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %s: server returned %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("api: %s: server returned %d: %s", e.Op, e.StatusCode, e.Message)
}

// ErrorKind classifies failures returned by the client.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindNetwork
	KindServer
	KindEmptyBody
	KindOther
)

// KindOf classifies err.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var netErr *NetworkError
	var srvErr *ServerError
	switch {
	case errors.As(err, &srvErr):
		return KindServer
	case errors.As(err, &netErr):
		return KindNetwork
	case errors.Is(err, ErrEmptyBody):
		return KindEmptyBody
	default:
		return KindOther
	}
}

// StatusCode returns the HTTP status of a ServerError, or 0.
func StatusCode(err error) int {
	var srvErr *ServerError
	if errors.As(err, &srvErr) {
		return srvErr.StatusCode
	}
	return 0
}

// IsUnauthorized reports a rejected or expired bearer token.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsNotFound reports a 404.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsRetryable reports failures that an idempotent request may retry:
// transport errors and 5xx responses. Cancellation is never retried.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch KindOf(err) {
	case KindNetwork:
		return true
	case KindServer:
		return StatusCode(err) >= 500
	default:
		return false
	}
}

// Message renders err for display to the user.
func Message(err error) string {
	var srvErr *ServerError
	switch KindOf(err) {
	case KindNone:
		return ""
	case KindNetwork:
		return "Network error, check your connection"
	case KindServer:
		errors.As(err, &srvErr)
		if srvErr.StatusCode == http.StatusUnauthorized {
			return "Session expired, please sign in again"
		}
		if srvErr.Message != "" {
			return fmt.Sprintf("%d %s", srvErr.StatusCode, srvErr.Message)
		}
		return fmt.Sprintf("%d %s", srvErr.StatusCode, http.StatusText(srvErr.StatusCode))
	case KindEmptyBody:
		return "Unexpected response from server"
	default:
		return err.Error()
	}
}
