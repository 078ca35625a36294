package hypervisor_test

import (
	"testing"

	"github.com/nepx/halfix-go/core_engine/hypervisor"
)

// TestStubCPUCoreHaltBlocksUntilInterrupt covers end-to-end scenario 6: a
// core halted with no pending interrupt reports ExitHalt and zero cycles
// consumed, and resumes once an interrupt is injected.
func TestStubCPUCoreHaltBlocksUntilInterrupt(t *testing.T) {
	c := hypervisor.NewStubCPUCore()
	c.Halt()

	cycles, reason := c.Run(1000)
	if reason != hypervisor.ExitHalt || cycles != 0 {
		t.Fatalf("expected (0, ExitHalt) while halted with no pending interrupt, got (%d, %v)", cycles, reason)
	}

	c.InjectInterrupt(0x30)
	cycles, reason = c.Run(1000)
	if reason != hypervisor.ExitNormal || cycles != 1000 {
		t.Fatalf("expected (1000, ExitNormal) once an interrupt wakes the core, got (%d, %v)", cycles, reason)
	}
}

func TestStubCPUCorePendingInterruptConsumedOnce(t *testing.T) {
	c := hypervisor.NewStubCPUCore()
	c.InjectInterrupt(0x20)

	if !c.PendingInterrupt() {
		t.Fatalf("expected a pending interrupt after InjectInterrupt")
	}
	if c.PendingInterrupt() {
		t.Fatalf("expected PendingInterrupt to clear after being observed once")
	}
}

func TestStubCPUCoreResetClearsHaltAndPending(t *testing.T) {
	c := hypervisor.NewStubCPUCore()
	c.Halt()
	c.InjectInterrupt(0x20)
	c.Reset()

	cycles, reason := c.Run(500)
	if reason != hypervisor.ExitNormal || cycles != 500 {
		t.Fatalf("expected a running core after Reset, got (%d, %v)", cycles, reason)
	}
}
