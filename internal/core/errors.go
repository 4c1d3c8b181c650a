package core

import (
	"errors"
	"fmt"
)

// Error codes for domain errors.
const (
	ErrCodeSessionFull   = "session_full"
	ErrCodeAlreadyJoined = "already_joined"
	ErrCodeStaleEvent    = "stale_event"
	ErrCodeConfiguration = "configuration_error"
	ErrCodeSessionClosed = "session_closed"
	ErrCodeBadRequest    = "bad_request"
	ErrCodeUnauthorized  = "unauthorized"
	ErrCodeUnknown       = "unknown"
)

var (
	ErrSessionFull   = errors.New("session is full")
	ErrAlreadyJoined = errors.New("already joined")
	// ErrStaleEvent marks an action for an unknown message, a non-owner or a
	// participant whose turn is over. Transports drop it without a reply.
	ErrStaleEvent    = errors.New("stale event")
	ErrConfiguration = errors.New("configuration error")
	ErrSessionClosed = errors.New("session closed")
	ErrBadRequest    = errors.New("bad request")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// ConfigurationError aborts the current operation of one session. It never
// leaks into other sessions.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() []error {
	return []error{ErrConfiguration, e.Err}
}

func configurationError(format string, args ...any) error {
	return &ConfigurationError{Err: fmt.Errorf(format, args...)}
}

// CodeOf maps err to one of the ErrCode constants.
func CodeOf(err error) string {
	var ce *CoreError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ce):
		return ce.Code
	case errors.Is(err, ErrSessionFull):
		return ErrCodeSessionFull
	case errors.Is(err, ErrAlreadyJoined):
		return ErrCodeAlreadyJoined
	case errors.Is(err, ErrStaleEvent):
		return ErrCodeStaleEvent
	case errors.Is(err, ErrConfiguration):
		return ErrCodeConfiguration
	case errors.Is(err, ErrSessionClosed):
		return ErrCodeSessionClosed
	case errors.Is(err, ErrBadRequest):
		return ErrCodeBadRequest
	default:
		return ErrCodeUnknown
	}
}
