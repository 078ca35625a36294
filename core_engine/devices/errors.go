package devices

import "errors"

// Error kinds shared by the Block Layer, IDE/ATA, and FDC. Propagation
// policy (which of these are device aborts, fatal, or dropped) lives in
// core_engine.Classify, which matches these sentinels with errors.Is.
var (
	ErrGeometryInvalid       = errors.New("geometry invalid")
	ErrMediaMissing          = errors.New("media missing")
	ErrWriteProtected        = errors.New("write protected")
	ErrAddressOutOfRange     = errors.New("address out of range")
	ErrCommandUnsupported    = errors.New("command unsupported")
	ErrDriveIOError          = errors.New("drive I/O error")
	ErrBusyViolation         = errors.New("busy violation")
	ErrConfigInvalid         = errors.New("config invalid")
	ErrProtocolBufferOverrun = errors.New("protocol buffer overrun")
)
