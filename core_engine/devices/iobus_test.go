package devices_test

import (
	"testing"

	"github.com/nepx/halfix-go/core_engine/devices"
)

type eightBitOnlyDevice struct {
	reads []uint16
}

func (d *eightBitOnlyDevice) HandleIO(port uint16, direction uint8, size uint8, data []byte) error {
	if size != 1 {
		return devices.ErrWidthUnsupported
	}
	d.reads = append(d.reads, port)
	if direction == devices.IODirectionIn {
		data[0] = byte(port & 0xFF)
	}
	return nil
}

func TestIOBusSynthesizesWordReadFromByteHandler(t *testing.T) {
	bus := devices.NewIOBus()
	dev := &eightBitOnlyDevice{}
	bus.RegisterDevice(0x300, 0x301, dev)

	data := make([]byte, 2)
	if err := bus.HandleIO(0x300, devices.IODirectionIn, 2, data); err != nil {
		t.Fatalf("HandleIO: %v", err)
	}

	if got, want := len(dev.reads), 2; got != want {
		t.Fatalf("expected 2 sub-reads, got %d", got)
	}
	if dev.reads[0] != 0x300 || dev.reads[1] != 0x301 {
		t.Fatalf("expected reads in port order [0x300,0x301], got %v", dev.reads)
	}

	lo, hi := uint16(data[0]), uint16(data[1])
	got := (hi << 8) | lo
	want := uint16((byte(0x300&0xFF)))|uint16(byte(0x301&0xFF))<<8
	if got != want {
		t.Fatalf("got 0x%x, want 0x%x", got, want)
	}
}

func TestIOBusUnhandledPortReadsAllOnes(t *testing.T) {
	bus := devices.NewIOBus()
	data := make([]byte, 1)
	if err := bus.HandleIO(0x999, devices.IODirectionIn, 1, data); err != nil {
		t.Fatalf("HandleIO: %v", err)
	}
	if data[0] != 0xFF {
		t.Fatalf("expected 0xFF for unhandled port, got 0x%x", data[0])
	}
}

type resettableDevice struct{ resetCount int }

func (d *resettableDevice) HandleIO(port uint16, direction uint8, size uint8, data []byte) error {
	return nil
}
func (d *resettableDevice) Reset() { d.resetCount++ }

func TestIOBusTriggerResetFansOutOnce(t *testing.T) {
	bus := devices.NewIOBus()
	dev := &resettableDevice{}
	bus.RegisterDevice(0x10, 0x11, dev)
	bus.RegisterDevice(0x12, 0x12, dev) // same device, second range

	bus.TriggerReset()

	if dev.resetCount != 1 {
		t.Fatalf("expected Reset called exactly once, got %d", dev.resetCount)
	}
}

func TestIOBusUnregisterReadFallsThroughToUnhandled(t *testing.T) {
	bus := devices.NewIOBus()
	dev := &eightBitOnlyDevice{}
	bus.RegisterDevice(0x300, 0x301, dev)

	bus.UnregisterRead(0x300, 2)

	data := make([]byte, 1)
	if err := bus.HandleIO(0x300, devices.IODirectionIn, 1, data); err != nil {
		t.Fatalf("HandleIO: %v", err)
	}
	if data[0] != 0xFF {
		t.Fatalf("expected unregistered port to read 0xFF, got 0x%x", data[0])
	}
	if len(dev.reads) != 0 {
		t.Fatalf("expected the unregistered device to see no reads, got %v", dev.reads)
	}
}

func TestIOBusUnregisterMMIOFallsThroughToUnhandled(t *testing.T) {
	bus := devices.NewIOBus()
	dev := &eightBitOnlyMMIODevice{}
	bus.RegisterMMIO(0x1000, 1, dev)

	bus.UnregisterMMIO(0x1000, 1)

	data := make([]byte, 1)
	if err := bus.HandleMMIO(0x1000, devices.IODirectionIn, 1, data); err != nil {
		t.Fatalf("HandleMMIO: %v", err)
	}
	if data[0] != 0xFF {
		t.Fatalf("expected unregistered page to read 0xFF, got 0x%x", data[0])
	}
	if dev.reads != 0 {
		t.Fatalf("expected the unregistered device to see no reads, got %d", dev.reads)
	}
}

type eightBitOnlyMMIODevice struct{ reads int }

func (d *eightBitOnlyMMIODevice) HandleMMIO(addr uint64, direction uint8, size uint8, data []byte) error {
	d.reads++
	return nil
}
