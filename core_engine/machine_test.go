package core_engine_test

import (
	"encoding/binary"
	"testing"
	"time"

	core_engine "github.com/nepx/halfix-go/core_engine"
	"github.com/nepx/halfix-go/core_engine/devices"
	"github.com/nepx/halfix-go/core_engine/hypervisor"
)

// unmaskIOAPICLine programs a fixed-mode, edge-triggered, unmasked
// redirection entry for line, the minimum setup a BIOS would do before an
// IRQ line can reach the CPU through the I/O APIC.
func unmaskIOAPICLine(t *testing.T, ioapic *devices.IOAPICDevice, line uint8, vector uint8) {
	t.Helper()
	const mmioBase = 0xFEC00000

	sel := make([]byte, 4)
	binary.LittleEndian.PutUint32(sel, uint32(devices.IOAPIC_REGIDX_REDIR_BASE)+2*uint32(line))
	if err := ioapic.HandleMMIO(mmioBase+devices.IOAPIC_REG_SELECT, devices.IODirectionOut, 4, sel); err != nil {
		t.Fatalf("select redirection entry %d: %v", line, err)
	}

	low := make([]byte, 4)
	binary.LittleEndian.PutUint32(low, uint32(vector)) // delivery mode 0 (fixed), edge, unmasked
	if err := ioapic.HandleMMIO(mmioBase+devices.IOAPIC_REG_WINDOW, devices.IODirectionOut, 4, low); err != nil {
		t.Fatalf("write redirection entry %d: %v", line, err)
	}
}

// asyncBlockBackend never completes an operation synchronously; the test
// controls exactly when the outstanding request finishes.
type asyncBlockBackend struct{ done chan error }

func newAsyncBlockBackend() *asyncBlockBackend { return &asyncBlockBackend{done: make(chan error, 1)} }

func (b *asyncBlockBackend) ReadAt(buf []byte, offsetBytes int64) (bool, error, devices.AsyncResult) {
	return false, nil, devices.AsyncResult{Done: b.done}
}
func (b *asyncBlockBackend) WriteAt(buf []byte, offsetBytes int64) (bool, error, devices.AsyncResult) {
	return false, nil, devices.AsyncResult{Done: b.done}
}
func (b *asyncBlockBackend) PrefetchAt(offsetBytes int64, size int) (bool, error, devices.AsyncResult) {
	return false, nil, devices.AsyncResult{Done: b.done}
}
func (b *asyncBlockBackend) Cancel() {}

// TestMachineAsyncDriveCompletionWakesHaltedCPU covers end-to-end scenario
// 6: a CPU core parked in HLT with no pending interrupt stays halted until
// an in-flight drive request completes and its callback raises an IRQ that
// reaches the core through the legacy PIC's I/O APIC bus-message path.
func TestMachineAsyncDriveCompletionWakesHaltedCPU(t *testing.T) {
	cpu := hypervisor.NewStubCPUCore()
	cfg := core_engine.Config{MemoryBytes: 1 << 20}
	m, err := core_engine.NewMachine(cfg, cpu)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}

	unmaskIOAPICLine(t, m.IOAPIC, devices.IDE_PRIMARY_IRQ, 0x76)

	backend := newAsyncBlockBackend()
	handle := devices.NewDriveHandle(devices.DriveDisk, devices.CHSGeometry{Cylinders: 16, Heads: 4, SectorsPerTrack: 17}, 16, true, backend)

	buf := make([]byte, 512)
	completion, err := handle.Read(buf, 0, nil, func(interface{}, error) {
		m.RaiseIRQ(devices.IDE_PRIMARY_IRQ)
	})
	if completion != devices.CompletionAsync || err != nil {
		t.Fatalf("expected the read to go async with no error, got (%v, %v)", completion, err)
	}

	cpu.Halt()

	if pending := m.CheckForPendingInterrupts(); pending {
		t.Fatalf("expected no pending interrupt before the drive request completes")
	}
	if _, reason := cpu.Run(1000); reason != hypervisor.ExitHalt {
		t.Fatalf("expected the core to remain halted before the completion arrives, got %v", reason)
	}

	backend.done <- nil
	time.Sleep(10 * time.Millisecond) // let the issuing goroutine deliver the completion
	handle.CheckComplete()            // this standalone handle isn't one of m's attached drives; Execute would reach it via drainDriveCompletions

	cycles, reason := cpu.Run(1000)
	if reason != hypervisor.ExitNormal || cycles != 1000 {
		t.Fatalf("expected the completed request's IRQ to wake the halted core, got (%d, %v)", cycles, reason)
	}
}
