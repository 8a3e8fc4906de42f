package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/scenesync/internal/transport"
)

// TransportError reports a socket that could not be used. It names the
// channel and endpoint so the user can act on it.
type TransportError struct {
	// Code identifies the error category.
	Code TransportErrorCode

	// Channel is the session channel that failed.
	Channel transport.Channel

	// Endpoint is the address the socket was opened on.
	Endpoint string

	// Err is the underlying transport error.
	Err error
}

// TransportErrorCode categorizes transport errors.
type TransportErrorCode string

const (
	// ErrCodeOpenFailed indicates a socket could not be bound or connected.
	ErrCodeOpenFailed TransportErrorCode = "OPEN_FAILED"

	// ErrCodeAlreadyStarted indicates Start was called on a running engine.
	ErrCodeAlreadyStarted TransportErrorCode = "ALREADY_STARTED"
)

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("%s: %s channel at %s: %v", e.Code, e.Channel, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportError returns true if err is or wraps a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsOpenFailed returns true if a socket failed to open.
// Uses errors.As to handle wrapped errors.
func IsOpenFailed(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Code == ErrCodeOpenFailed
	}
	return false
}

func newOpenError(ch transport.Channel, endpoint string, err error) *TransportError {
	return &TransportError{
		Code:     ErrCodeOpenFailed,
		Channel:  ch,
		Endpoint: endpoint,
		Err:      err,
	}
}
