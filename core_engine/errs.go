package core_engine

import (
	"errors"

	"github.com/nepx/halfix-go/core_engine/devices"
)

// Disposition says what the caller owes the guest/process after an error.
type Disposition int

const (
	// DeviceAbort: set error register, raise IRQ, keep running.
	DeviceAbort Disposition = iota
	// Fatal: log and terminate the process.
	Fatal
	// Dropped: silently discard with a log line.
	Dropped
)

// Classify maps an error kind to its propagation policy per the error
// handling design. Unknown errors default to DeviceAbort, the conservative
// choice for a guest-triggered failure of unspecified kind.
func Classify(err error) Disposition {
	switch {
	case errors.Is(err, devices.ErrCommandUnsupported),
		errors.Is(err, devices.ErrGeometryInvalid),
		errors.Is(err, devices.ErrMediaMissing),
		errors.Is(err, devices.ErrWriteProtected),
		errors.Is(err, devices.ErrDriveIOError):
		return DeviceAbort
	case errors.Is(err, devices.ErrProtocolBufferOverrun), errors.Is(err, devices.ErrConfigInvalid):
		return Fatal
	case errors.Is(err, devices.ErrBusyViolation):
		return Dropped
	default:
		return DeviceAbort
	}
}
