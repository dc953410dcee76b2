// Package command decodes inbound device commands.
//
// Commands arrive on {root}/devices/{category}/{device_id} with a JSON body:
//
//	{"state": "on"}
//	{"state": "on", "temperature": 21.5}
//
// Decoding is pure: the decoder never touches the device registry. Field
// legality per category (a temperature sent to a lock, "locked" sent to a
// light) is checked by device.ValidateCommand when the command is applied.
package command
