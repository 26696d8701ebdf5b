package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrTurnPending is returned when a chat message is sent while the
	// previous turn is still awaiting its reply.
	ErrTurnPending = errors.New("a chat turn is already pending")

	// ErrAlreadyListening is returned when a recognition session is
	// requested while one is active.
	ErrAlreadyListening = errors.New("voice channel is already listening")

	// ErrNoSpeech is returned when recognition ends without a transcript.
	ErrNoSpeech = errors.New("no speech recognized")

	// ErrBreakerOpen is wrapped in a NetworkError when the client's
	// circuit breaker refuses the exchange.
	ErrBreakerOpen = errors.New("circuit breaker open")
)

// NetworkError represents an exchange that could not complete
type NetworkError struct {
	Op  string // "cart.add", "chat", ...
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error [%s]: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ApplicationError represents a response in which the remote service
// declared failure
type ApplicationError struct {
	Op      string
	Status  int
	Message string // server supplied, may be empty
}

func (e *ApplicationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("application error [%s] status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("application error [%s] status %d: %s", e.Op, e.Status, e.Message)
}

// UnauthorizedError represents a 401 from the remote service
type UnauthorizedError struct {
	Op      string
	Message string
}

func (e *UnauthorizedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unauthorized [%s]", e.Op)
	}
	return fmt.Sprintf("unauthorized [%s]: %s", e.Op, e.Message)
}

// UnsupportedCapabilityError represents a missing platform service
type UnsupportedCapabilityError struct {
	Capability string // "speech recognition", "speech synthesis"
}

func (e *UnsupportedCapabilityError) Error() string {
	return fmt.Sprintf("unsupported capability: %s", e.Capability)
}

// ValidationError represents rejected input
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s %s", e.Field, e.Reason)
}

// ServerMessage returns the message the remote service attached to err,
// if any.
func ServerMessage(err error) (string, bool) {
	var appErr *ApplicationError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message, true
	}
	var authErr *UnauthorizedError
	if errors.As(err, &authErr) && authErr.Message != "" {
		return authErr.Message, true
	}
	return "", false
}

// IsNetwork reports whether err is a transport-level failure.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
