package reading

import (
	"errors"
	"fmt"
)

// Sentinel errors for the reading package.
var (
	// ErrIOFailure is wrapped by every StoreError.
	ErrIOFailure = errors.New("reading: store i/o failure")

	ErrInvalidTopic     = errors.New("reading: invalid topic")
	ErrUnknownMetric    = errors.New("reading: unknown metric")
	ErrMissingField     = errors.New("reading: missing field")
	ErrMalformedPayload = errors.New("reading: malformed payload")
)

// Decode error reasons.
const (
	ReasonInvalidTopic     = "invalid-topic"
	ReasonUnknownMetric    = "unknown-metric"
	ReasonMissingField     = "missing-field"
	ReasonMalformedPayload = "malformed-payload"
)

// ReasonIOFailure is the StoreError reason.
const ReasonIOFailure = "io-failure"

var reasonSentinels = map[string]error{
	ReasonInvalidTopic:     ErrInvalidTopic,
	ReasonUnknownMetric:    ErrUnknownMetric,
	ReasonMissingField:     ErrMissingField,
	ReasonMalformedPayload: ErrMalformedPayload,
}

// StoreError reports a persistence failure. The reading it concerns was not stored.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("reading: %s: %s: %v", ReasonIOFailure, e.Op, e.Err)
}

// Unwrap exposes both ErrIOFailure and the driver error.
func (e *StoreError) Unwrap() []error {
	return []error{ErrIOFailure, e.Err}
}

// DecodeError reports an inbound sensor message that could not become a Reading.
type DecodeError struct {
	Reason string
	Topic  string
	Field  string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("reading: %s on %q", e.Reason, e.Topic)
	if e.Field != "" {
		msg += fmt.Sprintf(" (field %q)", e.Field)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the reason sentinel and the underlying cause, if any.
func (e *DecodeError) Unwrap() []error {
	errs := []error{reasonSentinels[e.Reason]}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
