package devices_test

import (
	"encoding/binary"
	"testing"

	"github.com/nepx/halfix-go/core_engine/devices"
)

type recordingSink struct {
	messages []struct {
		vector uint8
		mode   uint8
		level  bool
	}
}

func (s *recordingSink) ReceiveBusMessage(vector uint8, deliveryMode uint8, level bool) {
	s.messages = append(s.messages, struct {
		vector uint8
		mode   uint8
		level  bool
	}{vector, deliveryMode, level})
}

func programRedirection(t *testing.T, d *devices.IOAPICDevice, line uint8, vector uint8, trigger uint8) {
	t.Helper()
	sel := make([]byte, 4)
	sel[0] = 0x10 + 2*line
	if err := d.HandleMMIO(0xFEC00000, devices.IODirectionOut, 4, sel); err != nil {
		t.Fatalf("select write: %v", err)
	}

	val := uint32(vector) | uint32(trigger&1)<<15
	win := make([]byte, 4)
	binary.LittleEndian.PutUint32(win, val)
	if err := d.HandleMMIO(0xFEC00010, devices.IODirectionOut, 4, win); err != nil {
		t.Fatalf("window write: %v", err)
	}
}

func TestIOAPICEdgeDeliveryExactlyOncePerRisingTransition(t *testing.T) {
	sink := &recordingSink{}
	d := devices.NewIOAPICDevice(sink)
	programRedirection(t, d, 1, 0x30, devices.IOAPIC_TRIGGER_EDGE)

	d.RaiseIRQ(1)
	d.LowerIRQ(1)
	d.RaiseIRQ(1)

	if got, want := len(sink.messages), 2; got != want {
		t.Fatalf("expected 2 bus messages, got %d", got)
	}
	for _, m := range sink.messages {
		if m.vector != 0x30 {
			t.Fatalf("expected vector 0x30, got 0x%x", m.vector)
		}
	}
}

func TestIOAPICMaskedLineNeverDelivers(t *testing.T) {
	sink := &recordingSink{}
	d := devices.NewIOAPICDevice(sink)
	// Every line starts masked per Reset(); never program it.
	d.RaiseIRQ(2)
	if len(sink.messages) != 0 {
		t.Fatalf("expected no deliveries for a masked line, got %d", len(sink.messages))
	}
}

func TestIOAPICLevelLineDeliversUntilRemoteEOI(t *testing.T) {
	sink := &recordingSink{}
	d := devices.NewIOAPICDevice(sink)
	programRedirection(t, d, 3, 0x41, devices.IOAPIC_TRIGGER_LEVEL)

	d.RaiseIRQ(3)
	d.RaiseIRQ(3) // still asserted; must not redeliver before EOI
	if got, want := len(sink.messages), 1; got != want {
		t.Fatalf("expected 1 delivery before EOI, got %d", got)
	}

	d.RemoteEOI(0x41)
	d.RaiseIRQ(3)
	if got, want := len(sink.messages), 2; got != want {
		t.Fatalf("expected 2 deliveries after EOI + re-raise, got %d", got)
	}
}
