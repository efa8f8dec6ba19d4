package obsws

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned by calls made while no session is ready.
	ErrNotConnected = errors.New("obsws: not connected")

	// ErrTimeout is returned when no reply arrives within the request timeout.
	ErrTimeout = errors.New("obsws: request timed out")

	// ErrConnectionLost fails calls that were pending on a dead connection.
	ErrConnectionLost = errors.New("obsws: connection lost")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("obsws: client closed")

	// ErrAlreadyConnected is returned by Connect on a live client.
	ErrAlreadyConnected = errors.New("obsws: already connected")
)

// AuthError reports a failed handshake. It is never retried with the same
// credentials.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("obsws: authentication failed: %s: %v", e.Reason, e.Err)
	}
	return "obsws: authentication failed: " + e.Reason
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// RequestError is a reply whose requestStatus.result is false.
type RequestError struct {
	RequestType string
	Code        int
	Comment     string
}

func (e *RequestError) Error() string {
	if e.Comment != "" {
		return fmt.Sprintf("obsws: %s failed (code %d): %s", e.RequestType, e.Code, e.Comment)
	}
	return fmt.Sprintf("obsws: %s failed (code %d)", e.RequestType, e.Code)
}

// NotFound reports whether the server said the resource does not exist.
func (e *RequestError) NotFound() bool {
	return e.Code == StatusResourceNotFound
}

// ShapeError is a reply that lacks a field the client depends on.
type ShapeError struct {
	RequestType string
	Field       string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("obsws: malformed %s reply: missing %s", e.RequestType, e.Field)
}
