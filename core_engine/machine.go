package core_engine

import (
	"github.com/nepx/halfix-go/core_engine/devices"
	"github.com/nepx/halfix-go/core_engine/hypervisor"
)

// Machine owns every device, the I/O Bus, the Interrupt Router, the block
// layer's drive handles, the clock, and the CPU core, wiring them the way a
// single-threaded cooperative harness requires: one owning value lent by
// exclusive reference to the execution loop, borrowed by exclusive
// reference during device dispatch.
type Machine struct {
	Bus   *devices.IOBus
	Clock *Clock

	PIC    *devices.PICDevice
	IOAPIC *devices.IOAPICDevice
	DMA    *devices.DMAEngine
	PIT    *devices.PITDevice
	RTC    *devices.RTCDevice
	Serial *devices.SerialPortDevice
	Keyboard *devices.KeyboardDevice

	IDEPrimary   *devices.IDEController
	IDESecondary *devices.IDEController
	FDC          *devices.FDCDevice

	Scheduler *TimerScheduler
	Savestate *SavestateWriter

	cpu    hypervisor.CPUCore
	cfg    Config
	ticksSinceCheckpoint uint64
	checkpointInterval   uint64

	lastDriveHandles []*devices.DriveHandle
}

// ReceiveBusMessage implements devices.BusMessageSink: the I/O APIC's (or
// legacy PIC's) delivery reaches the CPU core directly, since this harness
// does not model a separate local APIC delivery pipeline.
func (m *Machine) ReceiveBusMessage(vector uint8, deliveryMode uint8, level bool) {
	m.cpu.InjectInterrupt(vector)
}

// RaiseIRQ implements devices.InterruptRaiser for devices that only know
// the legacy PIC's 8 (or 16, via master/slave) IRQ lines; it always goes
// through the PIC, which itself fans out to the I/O APIC when attached.
func (m *Machine) RaiseIRQ(line uint8) {
	m.PIC.RaiseIRQ(line)
}

// NewMachine constructs and wires a complete machine: I/O Bus, Interrupt
// Router (PIC + I/O APIC), DMA Engine, PIT, CMOS/RTC, serial, keyboard, two
// IDE controllers, and an FDC, registering every device's port/MMIO ranges
// and Resetters, then seeding CMOS and applying the configured boot order.
func NewMachine(cfg Config, cpu hypervisor.CPUCore) (*Machine, error) {
	if cfg.MemoryBytes == 0 {
		return nil, devices.ErrConfigInvalid
	}

	m := &Machine{
		Bus:                devices.NewIOBus(),
		Clock:              NewClock(),
		cpu:                cpu,
		cfg:                cfg,
		checkpointInterval: 10_000_000,
	}

	m.PIC = devices.NewPICDevice()
	m.IOAPIC = devices.NewIOAPICDevice(m)
	m.PIC.AttachIOAPIC(m.IOAPIC)
	m.IOAPIC.AttachPIC(m.PIC)

	m.DMA = devices.NewDMAEngine()
	m.PIT = devices.NewPITDevice(m, TicksPerSecond, func() uint64 { return uint64(m.Clock.Now()) })
	m.RTC = devices.NewRTCDevice(m)
	m.Serial = devices.NewSerialPortDevice(nopWriter{}, m)
	m.Keyboard = devices.NewKeyboardDevice()

	m.IDEPrimary = devices.NewIDEController(devices.IDE_PRIMARY_BASE, devices.IDE_PRIMARY_CTRL, devices.IDE_PRIMARY_IRQ, m)
	m.IDESecondary = devices.NewIDEController(devices.IDE_SECONDARY_BASE, devices.IDE_SECONDARY_CTRL, devices.IDE_SECONDARY_IRQ, m)
	m.FDC = devices.NewFDCDevice(m, m.DMA)

	m.Scheduler = NewTimerScheduler(m.PIT, m.RTC)
	m.Savestate = NewSavestateWriter()
	m.Savestate.Register(m.PIC)
	m.Savestate.Register(m.PIT)
	m.Savestate.Register(m.IDEPrimary)
	m.Savestate.Register(m.IDESecondary)
	m.Savestate.Register(m.FDC)

	m.registerBus()

	if err := m.attachDrives(); err != nil {
		return nil, err
	}

	m.Bus.TriggerReset()
	SeedCMOS(m.RTC, cfg)
	return m, nil
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func (m *Machine) registerBus() {
	m.Bus.RegisterDevice(0x20, 0x21, m.PIC)
	m.Bus.RegisterDevice(0xA0, 0xA1, m.PIC)
	m.Bus.RegisterDevice(0x00, 0x1F, m.DMA)
	m.Bus.RegisterDevice(0x80, 0x8F, m.DMA)
	m.Bus.RegisterDevice(0xC0, 0xDF, m.DMA)
	m.Bus.RegisterDevice(devices.PIT_PORT_COUNTER0, devices.PIT_PORT_STATUS, m.PIT)
	m.Bus.RegisterDevice(devices.RTC_PORT_INDEX, devices.RTC_PORT_DATA, m.RTC)
	m.Bus.RegisterDevice(devices.COM1_PORT_BASE, devices.COM1_PORT_END, m.Serial)
	m.Bus.RegisterDevice(devices.KEYBOARD_PORT_DATA, devices.KEYBOARD_PORT_DATA, m.Keyboard)
	m.Bus.RegisterDevice(devices.KEYBOARD_PORT_STATUS, devices.KEYBOARD_PORT_STATUS, m.Keyboard)

	m.Bus.RegisterDevice(devices.IDE_PRIMARY_BASE, devices.IDE_PRIMARY_BASE+7, m.IDEPrimary)
	m.Bus.RegisterDevice(devices.IDE_PRIMARY_CTRL, devices.IDE_PRIMARY_CTRL, m.IDEPrimary)
	m.Bus.RegisterDevice(devices.IDE_SECONDARY_BASE, devices.IDE_SECONDARY_BASE+7, m.IDESecondary)
	m.Bus.RegisterDevice(devices.IDE_SECONDARY_CTRL, devices.IDE_SECONDARY_CTRL, m.IDESecondary)

	m.Bus.RegisterDevice(0x3F0, 0x3F5, m.FDC)
	m.Bus.RegisterDevice(0x3F7, 0x3F7, m.FDC)

	m.Bus.RegisterMMIO(0xFEC00000, 1, m.IOAPIC)
}

// attachDrives builds Block Layer handles from cfg and wires them into the
// IDE controllers' master/slave slots and the FDC's drive slots.
func (m *Machine) attachDrives() error {
	for ctrl := 0; ctrl < 2; ctrl++ {
		for unit := 0; unit < 2; unit++ {
			drvCfg := m.cfg.ATA[ctrl][unit]
			if drvCfg.Kind == DriveKindNone {
				continue
			}
			handle, err := newDriveHandle(drvCfg)
			if err != nil {
				return err
			}
			m.lastDriveHandles = append(m.lastDriveHandles, handle)
			kind := devices.DriveDisk
			if drvCfg.Kind == DriveKindCD {
				kind = devices.DriveCDROM
			}
			controller := m.IDEPrimary
			if ctrl == 1 {
				controller = m.IDESecondary
			}
			controller.AttachDrive(unit, kind, drvCfg.Geometry, handle.TotalSectors, handle)
		}
	}

	for slot, drvCfg := range []*DriveConfig{m.cfg.FDA, m.cfg.FDB} {
		if drvCfg == nil {
			continue
		}
		handle, err := newDriveHandle(*drvCfg)
		if err != nil {
			return err
		}
		m.lastDriveHandles = append(m.lastDriveHandles, handle)
		m.FDC.AttachDrive(slot, handle, drvCfg.Geometry)
	}
	return nil
}

func newDriveHandle(drvCfg DriveConfig) (*devices.DriveHandle, error) {
	if !drvCfg.Inserted {
		kind := devices.DriveDisk
		if drvCfg.Kind == DriveKindCD {
			kind = devices.DriveCDROM
		}
		return devices.NewDriveHandle(kind, devices.CHSGeometry{}, 0, false, nil), nil
	}

	var backend devices.DriveBackend
	var err error
	writable := drvCfg.Kind != DriveKindCD

	switch drvCfg.Driver {
	case BackendChunked:
		backend, err = devices.NewChunkedFileBackend(drvCfg.File, writable)
	case BackendNetwork:
		backend, err = devices.NewNetworkBackend(drvCfg.File)
	default:
		backend, err = devices.NewSyncRawFileBackend(drvCfg.File, writable)
	}
	if err != nil {
		return nil, devices.ErrConfigInvalid
	}

	totalSectors := uint64(drvCfg.Geometry.Cylinders) * uint64(drvCfg.Geometry.Heads) * uint64(drvCfg.Geometry.SectorsPerTrack)
	kind := devices.DriveDisk
	if drvCfg.Kind == DriveKindCD {
		kind = devices.DriveCDROM
	}
	return devices.NewDriveHandle(kind, drvCfg.Geometry, totalSectors, writable, backend), nil
}

// Reset fans out to every registered Resetter and clears pending interrupt
// state on the CPU core.
func (m *Machine) Reset() {
	m.Bus.TriggerReset()
	m.cpu.Reset()
	SeedCMOS(m.RTC, m.cfg)
}

// CheckForPendingInterrupts drains each drive handle's async completions
// (which may raise interrupts from their callbacks) and reports whether the
// CPU core has an interrupt awaiting delivery. Callers that go on to call
// Run afterward should use drainDriveCompletions instead: PendingInterrupt
// consumes the flag it reports, so a Run immediately following this call
// would never observe the interrupt it just found.
func (m *Machine) CheckForPendingInterrupts() bool {
	m.drainDriveCompletions()
	return m.cpu.PendingInterrupt()
}

// drainDriveCompletions delivers every ready async drive completion without
// touching the CPU core's pending-interrupt flag, leaving it for Run to
// observe and consume on its own next call.
func (m *Machine) drainDriveCompletions() {
	for _, h := range m.lastDriveHandles {
		h.CheckComplete()
	}
}
