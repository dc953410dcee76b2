package controller

import (
	"errors"
	"fmt"
)

// Sentinel errors for the controller package.
var (
	// ErrTransportFailure is wrapped by every PublishError.
	ErrTransportFailure = errors.New("controller: transport failure")

	// ErrUnroutable is returned for topics outside the device and sensor trees.
	ErrUnroutable = errors.New("controller: unroutable topic")
)

// ReasonTransportFailure is the PublishError reason.
const ReasonTransportFailure = "transport-failure"

// ReasonUnroutable is the rejection reason for unknown topics.
const ReasonUnroutable = "unroutable"

// PublishError reports an outbound message the transport did not accept.
// The message is not retried.
type PublishError struct {
	Topic string
	Err   error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("controller: %s publishing to %q: %v", ReasonTransportFailure, e.Topic, e.Err)
}

// Unwrap exposes both ErrTransportFailure and the transport error.
func (e *PublishError) Unwrap() []error {
	return []error{ErrTransportFailure, e.Err}
}
