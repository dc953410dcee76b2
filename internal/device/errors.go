package device

import (
	"errors"
	"fmt"
)

// Domain errors for the device package.
//
//	if errors.Is(err, device.ErrInvalidFieldForCategory) {
//	    // command rejected, prior state untouched
//	}
var (
	// ErrDeviceNotFound is returned when no device exists for (category, id).
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrUnknownCategory is returned for a category outside AllCategories.
	ErrUnknownCategory = errors.New("device: unknown category")

	// ErrInvalidDeviceID is returned for an empty device id.
	ErrInvalidDeviceID = errors.New("device: invalid id")

	// ErrInvalidFieldForCategory is wrapped by every CommandError.
	ErrInvalidFieldForCategory = errors.New("device: invalid field for category")
)

// ReasonInvalidFieldForCategory is the only CommandError reason.
const ReasonInvalidFieldForCategory = "invalid-field-for-category"

// CommandError reports a command whose fields are not legal for its category,
// such as a temperature sent to a lock or "locked" sent to a light.
type CommandError struct {
	Reason   string
	Category Category
	Field    string
	Value    string
}

func (e *CommandError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("device: %s: field %q not allowed for %s", e.Reason, e.Field, e.Category)
	}
	return fmt.Sprintf("device: %s: %s=%q not allowed for %s", e.Reason, e.Field, e.Value, e.Category)
}

// Unwrap lets errors.Is match ErrInvalidFieldForCategory.
func (e *CommandError) Unwrap() error {
	return ErrInvalidFieldForCategory
}
