package command

import (
	"errors"
	"fmt"
)

// Sentinel errors for the command package.
var (
	ErrInvalidTopic     = errors.New("command: invalid topic")
	ErrUnknownCategory  = errors.New("command: unknown category")
	ErrMissingField     = errors.New("command: missing field")
	ErrMalformedPayload = errors.New("command: malformed payload")
)

// Decode error reasons.
const (
	ReasonInvalidTopic     = "invalid-topic"
	ReasonUnknownCategory  = "unknown-category"
	ReasonMissingField     = "missing-field"
	ReasonMalformedPayload = "malformed-payload"
)

var reasonSentinels = map[string]error{
	ReasonInvalidTopic:     ErrInvalidTopic,
	ReasonUnknownCategory:  ErrUnknownCategory,
	ReasonMissingField:     ErrMissingField,
	ReasonMalformedPayload: ErrMalformedPayload,
}

// DecodeError reports a device message that could not become a Command.
type DecodeError struct {
	Reason string
	Topic  string
	Field  string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("command: %s on %q", e.Reason, e.Topic)
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
