package hypervisor

import "sync"

// StubCPUCore is a CPUCore that burns its entire cycle budget doing nothing,
// honoring HLT/interrupt bookkeeping so the rest of the machine harness
// (timer scheduling, interrupt routing, block-layer async completion) can be
// exercised and tested independent of an instruction decoder, which this
// module does not implement.
type StubCPUCore struct {
	mu      sync.Mutex
	halted  bool
	pending bool
}

// NewStubCPUCore returns a running (non-halted) core.
func NewStubCPUCore() *StubCPUCore { return &StubCPUCore{} }

// Halt puts the core into the halted state a guest's HLT instruction would.
func (c *StubCPUCore) Halt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.halted = true
}

// Run reports ExitHalt with zero cycles consumed while halted and no
// interrupt is pending, or ExitNormal having consumed the full budget
// otherwise — it resumes automatically once InjectInterrupt clears the halt.
func (c *StubCPUCore) Run(cyclesToRun uint64) (uint64, ExitReason) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.halted && !c.pending {
		return 0, ExitHalt
	}
	if c.pending {
		c.halted = false
	}
	return cyclesToRun, ExitNormal
}

// InjectInterrupt marks an interrupt pending and wakes a halted core.
func (c *StubCPUCore) InjectInterrupt(vector uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = true
}

// PendingInterrupt reports and clears the pending flag, modeling delivery
// at the next instruction boundary.
func (c *StubCPUCore) PendingInterrupt() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	had := c.pending
	c.pending = false
	return had
}

// Reset clears halted/pending state.
func (c *StubCPUCore) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.halted = false
	c.pending = false
}
