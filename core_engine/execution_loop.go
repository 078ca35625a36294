package core_engine

import "github.com/nepx/halfix-go/core_engine/hypervisor"

// maxLoopIterations bounds how many times Execute re-enters cpu_run on a
// clean ExitNormal before returning control to the caller with no sleep
// required, per "loop up to ten iterations before returning 0".
const maxLoopIterations = 10

// Execute runs pc_execute once: checkpoints savestate periodically, drains
// ready async block-layer completions, computes the next CPU run quantum
// from the Timer Scheduler, and runs the CPU core for that quantum. It
// returns the number of milliseconds the host should sleep before calling
// Execute again (0 if the CPU ran to completion and immediately has more
// work available).
func (m *Machine) Execute() uint64 {
	for iter := 0; iter < maxLoopIterations; iter++ {
		m.maybeCheckpoint()
		m.drainDriveCompletions()

		now := m.Clock.Now()
		quantum, devicesNeedServicing := m.Scheduler.NextQuantum(uint64(now))

		cyclesRun, reason := m.cpu.Run(quantum)
		m.Clock.RetireCycles(Tick(cyclesRun))
		m.Scheduler.Run(uint64(m.Clock.Now()))

		if reason == hypervisor.ExitNormal {
			continue
		}

		skip := quantum - cyclesRun
		if reason == hypervisor.ExitHalt {
			skip += devicesNeedServicing
		}
		m.Clock.Advance(Tick(skip))

		if TicksPerSecond == 0 {
			return 0
		}
		return skip * 1000 / TicksPerSecond
	}
	return 0
}

func (m *Machine) maybeCheckpoint() {
	m.ticksSinceCheckpoint++
	if m.checkpointInterval == 0 || m.ticksSinceCheckpoint < m.checkpointInterval {
		return
	}
	m.ticksSinceCheckpoint = 0
	_ = m.Savestate.Dump()
}
