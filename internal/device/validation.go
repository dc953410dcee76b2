package device

import (
	"fmt"
	"math"
	"strconv"
)

// allowedStates lists the legal state values per category.
var allowedStates = map[Category]map[StateValue]struct{}{
	CategoryLight:      {StateOn: {}, StateOff: {}},
	CategoryThermostat: {StateOn: {}, StateOff: {}},
	CategoryLock:       {StateLocked: {}, StateUnlocked: {}},
}

// ValidateCommand checks that every field of cmd is legal for its category.
// It returns ErrUnknownCategory, ErrInvalidDeviceID or a *CommandError.
func ValidateCommand(cmd Command) error {
	if !cmd.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, cmd.Category)
	}
	if cmd.DeviceID == "" {
		return ErrInvalidDeviceID
	}

	if _, ok := allowedStates[cmd.Category][cmd.State]; !ok {
		return &CommandError{
			Reason:   ReasonInvalidFieldForCategory,
			Category: cmd.Category,
			Field:    "state",
			Value:    string(cmd.State),
		}
	}

	if cmd.TargetTemperature != nil {
		if cmd.Category != CategoryThermostat {
			return &CommandError{
				Reason:   ReasonInvalidFieldForCategory,
				Category: cmd.Category,
				Field:    "temperature",
			}
		}
		if t := *cmd.TargetTemperature; math.IsNaN(t) || math.IsInf(t, 0) {
			return &CommandError{
				Reason:   ReasonInvalidFieldForCategory,
				Category: cmd.Category,
				Field:    "temperature",
				Value:    strconv.FormatFloat(t, 'g', -1, 64),
			}
		}
	}

	return nil
}
