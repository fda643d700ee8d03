package flowbridge

import (
	"errors"
	"fmt"
)

var (
	// ErrMisuse reports a call that violates the EventSource contract, such as
	// ticking a source with no registered callback. The call has no effect.
	ErrMisuse = errors.New("flowbridge: misuse")

	// ErrActivationLive ends an activation that was started while another
	// activation of the same Bridge, or of any Bridge over the same Claimer
	// source, was live.
	ErrActivationLive = errors.New("flowbridge: bridge already has a live activation")
)

// APIError is the terminal error of an activation whose source signalled an
// error through Callback.OnAPIError.
type APIError struct {
	Cause error
}

func (e *APIError) Error() string {
	if e.Cause == nil {
		return "flowbridge: api error"
	}
	return fmt.Sprintf("flowbridge: api error: %v", e.Cause)
}

// Unwrap returns the original cause.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// DeliveryError reports a value the activation could not accept.
type DeliveryError struct {
	Err   error
	Value int
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("flowbridge: deliver %d: %v", e.Value, e.Err)
}

// Unwrap returns the underlying buffer error.
func (e *DeliveryError) Unwrap() error {
	return e.Err
}
