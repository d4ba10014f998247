package bridge

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotReady is returned when a call is made before the callback listener is bound
	// or after shutdown has begun.
	ErrNotReady = errors.New("bridge is not ready")

	// ErrCancelled is returned when the caller's context is cancelled while waiting.
	ErrCancelled = errors.New("call cancelled")

	// ErrBridgeClosed is delivered to waiters that are still pending at shutdown.
	ErrBridgeClosed = errors.New("bridge shut down while waiting for callback")

	// ErrUnknownFamily is returned for a family that was not registered at construction.
	ErrUnknownFamily = errors.New("unknown operation family")
)

// ExternalActionError is the failure Bear reports through the x-error callback.
type ExternalActionError struct {
	Family  string
	Code    int
	Message string
}

// Error implements the error interface.
func (e *ExternalActionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: bear reported error %d", e.Family, e.Code)
	}
	return fmt.Sprintf("%s: bear reported error %d: %s", e.Family, e.Code, e.Message)
}

// TimeoutError means no callback arrived before the call's deadline.
type TimeoutError struct {
	Family  string
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("%s: no callback from bear within %s", e.Family, e.Timeout)
	}
	return fmt.Sprintf("%s: no callback from bear before deadline", e.Family)
}

// ListenerStartupError is returned when the callback listener cannot bind.
type ListenerStartupError struct {
	Addr  string
	Cause error
}

// Error implements the error interface.
func (e *ListenerStartupError) Error() string {
	return fmt.Sprintf("callback listener failed to bind %s: %v", e.Addr, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ListenerStartupError) Unwrap() error {
	return e.Cause
}

// DispatchError is returned when the outbound URI could not be handed to the opener.
type DispatchError struct {
	Family string
	Cause  error
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s: failed to dispatch action: %v", e.Family, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *DispatchError) Unwrap() error {
	return e.Cause
}
