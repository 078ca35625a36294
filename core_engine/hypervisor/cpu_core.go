package hypervisor

// ExitReason says why CPUCore.Run returned control to the execution loop.
type ExitReason int

const (
	// ExitNormal: the requested cycle count ran to completion.
	ExitNormal ExitReason = iota
	// ExitHalt: the guest executed HLT; the core idles until an interrupt
	// or device completion is pending.
	ExitHalt
	// ExitAsync: the guest touched a port/MMIO address whose device
	// handler returned an asynchronous completion and needs the loop to
	// drain it before resuming.
	ExitAsync
)

func (r ExitReason) String() string {
	switch r {
	case ExitNormal:
		return "Normal"
	case ExitHalt:
		return "Halt"
	case ExitAsync:
		return "Async"
	default:
		return "Unknown"
	}
}

// CPUCore is the execution loop's only collaborator for instruction
// execution. It replaces the source's setjmp/signal-driven KVM preemption
// with a cooperative contract: Run always returns control to the caller,
// reporting how much of its budget it actually consumed and why it
// stopped short.
type CPUCore interface {
	// Run executes up to cyclesToRun cycles (or instructions, at the
	// core's discretion — the execution loop only interprets the return
	// value) and reports cyclesRun ≤ cyclesToRun and why it returned.
	Run(cyclesToRun uint64) (cyclesRun uint64, reason ExitReason)

	// InjectInterrupt delivers a pending vector at the core's next
	// instruction boundary.
	InjectInterrupt(vector uint8)

	// PendingInterrupt reports whether an injected interrupt is still
	// awaiting delivery.
	PendingInterrupt() bool

	// Reset reinitializes architectural state (registers, mode, paging)
	// to its power-on values, without touching I/O Bus wiring.
	Reset()
}
