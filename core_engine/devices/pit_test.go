package devices_test

import (
	"testing"

	"github.com/nepx/halfix-go/core_engine/devices"
)

func TestPITChannel0Mode3SquareWave(t *testing.T) {
	irq := &MockInterruptRaiser{}
	now := uint64(0)
	p := devices.NewPITDevice(irq, devices.PITFrequencyHz, func() uint64 { return now })

	// Command byte: channel=0 (00), access=lo/hi (11), mode=3 (011), binary (0) -> 0b00_11_011_0 = 0x36.
	cmd := []byte{0x36}
	if err := p.HandleIO(devices.PIT_PORT_COMMAND, devices.IODirectionOut, 1, cmd); err != nil {
		t.Fatalf("command write: %v", err)
	}

	lo := []byte{0x34}
	hi := []byte{0x12}
	if err := p.HandleIO(devices.PIT_PORT_COUNTER0, devices.IODirectionOut, 1, lo); err != nil {
		t.Fatalf("lo write: %v", err)
	}
	if err := p.HandleIO(devices.PIT_PORT_COUNTER0, devices.IODirectionOut, 1, hi); err != nil {
		t.Fatalf("hi write: %v", err)
	}

	// count=0x1234 is even, so mode 3's transition point is (count-1)/2.
	const count = 0x1234
	transition := uint64((count - 1) / 2)

	now = transition - 1
	if !p.GetOut(0, now) {
		t.Fatalf("expected OUT=1 just before the transition point, at tick %d", now)
	}

	now = transition
	if p.GetOut(0, now) {
		t.Fatalf("expected OUT=0 at the transition point, at tick %d", now)
	}
}

func TestPITOutPeriodicity(t *testing.T) {
	irq := &MockInterruptRaiser{}
	now := uint64(0)
	p := devices.NewPITDevice(irq, devices.PITFrequencyHz, func() uint64 { return now })

	cmd := []byte{0x34} // channel 0, lo/hi, mode 2, binary
	p.HandleIO(devices.PIT_PORT_COMMAND, devices.IODirectionOut, 1, cmd)
	lo := []byte{0x64}
	hi := []byte{0x00}
	p.HandleIO(devices.PIT_PORT_COUNTER0, devices.IODirectionOut, 1, lo)
	p.HandleIO(devices.PIT_PORT_COUNTER0, devices.IODirectionOut, 1, hi)

	const count = 0x64
	for k := uint64(0); k < 3; k++ {
		a := p.GetOut(0, 10)
		b := p.GetOut(0, 10+k*count)
		if a != b {
			t.Fatalf("mode 2 OUT not periodic at k=%d: %v vs %v", k, a, b)
		}
	}
}

func TestPITSettingMode2RaisesIRQ0Immediately(t *testing.T) {
	irq := &MockInterruptRaiser{}
	p := devices.NewPITDevice(irq, devices.PITFrequencyHz, func() uint64 { return 0 })

	cmd := []byte{0x34} // channel 0, lo/hi, mode 2
	if err := p.HandleIO(devices.PIT_PORT_COMMAND, devices.IODirectionOut, 1, cmd); err != nil {
		t.Fatalf("command write: %v", err)
	}

	if irq.Count() != 1 {
		t.Fatalf("expected exactly one IRQ0 raised by the mode-2 side effect, got %d", irq.Count())
	}
}

// TestPITLatchedMSBReadReturnsHighByteTwice confirms a channel programmed
// for MSB-only access returns the latched count's high byte on every read,
// rather than falling into the LOHI low-then-high alternation.
func TestPITLatchedMSBReadReturnsHighByteTwice(t *testing.T) {
	irq := &MockInterruptRaiser{}
	p := devices.NewPITDevice(irq, devices.PITFrequencyHz, func() uint64 { return 0 })

	// channel=0, rwMode=MSB(10), mode=2(010), binary(0) -> 0b00_10_010_0 = 0x24.
	cmd := []byte{0x24}
	if err := p.HandleIO(devices.PIT_PORT_COMMAND, devices.IODirectionOut, 1, cmd); err != nil {
		t.Fatalf("command write: %v", err)
	}
	hi := []byte{0x12}
	if err := p.HandleIO(devices.PIT_PORT_COUNTER0, devices.IODirectionOut, 1, hi); err != nil {
		t.Fatalf("hi write: %v", err)
	}

	// Latch channel 0: channel=0, rwMode=LATCH(00) -> 0x00.
	latch := []byte{0x00}
	if err := p.HandleIO(devices.PIT_PORT_COMMAND, devices.IODirectionOut, 1, latch); err != nil {
		t.Fatalf("latch command write: %v", err)
	}

	buf := make([]byte, 1)
	if err := p.HandleIO(devices.PIT_PORT_COUNTER0, devices.IODirectionIn, 1, buf); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if buf[0] != 0x12 {
		t.Fatalf("expected the latched high byte 0x12 on an MSB-mode read, got 0x%x", buf[0])
	}

	if err := p.HandleIO(devices.PIT_PORT_COUNTER0, devices.IODirectionIn, 1, buf); err != nil {
		t.Fatalf("second read: %v", err)
	}
	if buf[0] != 0x12 {
		t.Fatalf("expected the high byte 0x12 again on a second MSB-mode read, got 0x%x", buf[0])
	}
}
