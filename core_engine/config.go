package core_engine

import "github.com/nepx/halfix-go/core_engine/devices"

// Config holds the subset of [general]/[ataN-master|slave]/[fda]/[fdb]/[boot]
// keys the machine harness consumes. Parsing INI text into a Config is an
// external collaborator's job; this struct is the data contract only.
type Config struct {
	MemoryBytes   uint64
	VGAMemoryBytes uint64
	BIOSPath      string
	VGABIOSPath   string
	PCI           bool
	APIC          bool
	ACPI          bool
	VBE           bool
	Floppy        bool
	Now           uint64 // seconds; not read by the machine, the RTC always reports the host wall clock

	ATA [2][2]DriveConfig // [controller][master=0/slave=1]
	FDA *DriveConfig
	FDB *DriveConfig

	BootOrder [3]BootDevice
}

// DriveKind enumerates the drive types a DriveConfig may describe.
type DriveKind int

const (
	DriveKindNone DriveKind = iota
	DriveKindHD
	DriveKindCD
)

// BackendDriver selects which Block Layer backend backs a drive.
type BackendDriver int

const (
	BackendSync BackendDriver = iota
	BackendChunked
	BackendNetwork
)

// DriveConfig is one [ataN-master|slave]/[fda]/[fdb] section.
type DriveConfig struct {
	Kind      DriveKind
	File      string
	Inserted  bool
	Driver    BackendDriver
	Writeback bool
	Geometry  devices.CHSGeometry
}

// BootDevice enumerates the boot.a/b/c values.
type BootDevice int

const (
	BootNone BootDevice = iota
	BootHD
	BootCD
	BootFD
)
