package core_engine_test

import (
	"testing"

	core_engine "github.com/nepx/halfix-go/core_engine"
)

type fixedDeadlineDevice struct {
	deadline int64
	lastRun  uint64
	ran      int
}

func (d *fixedDeadlineDevice) NextDeadline(now uint64) int64 { return d.deadline }
func (d *fixedDeadlineDevice) Run(now uint64)                { d.lastRun = now; d.ran++ }

func TestTimerSchedulerNextQuantumTakesMinimum(t *testing.T) {
	a := &fixedDeadlineDevice{deadline: 500}
	b := &fixedDeadlineDevice{deadline: 120}
	c := &fixedDeadlineDevice{deadline: -1} // nothing scheduled
	s := core_engine.NewTimerScheduler(a, b, c)

	quantum, _ := s.NextQuantum(0)
	if quantum != 120 {
		t.Fatalf("expected the minimum of the devices' deadlines (120), got %d", quantum)
	}
}

func TestTimerSchedulerClampsToMaxQuantum(t *testing.T) {
	idle := &fixedDeadlineDevice{deadline: -1}
	s := core_engine.NewTimerScheduler(idle)

	quantum, _ := s.NextQuantum(0)
	if quantum != core_engine.MaxQuantum {
		t.Fatalf("expected MaxQuantum when no device has a deadline, got %d", quantum)
	}
}

func TestTimerSchedulerNextQuantumReportsExcessBeyondMaxQuantum(t *testing.T) {
	farOut := &fixedDeadlineDevice{deadline: int64(core_engine.MaxQuantum) + 4_000}
	s := core_engine.NewTimerScheduler(farOut)

	quantum, devicesNeedServicing := s.NextQuantum(0)
	if quantum != core_engine.MaxQuantum {
		t.Fatalf("expected quantum clamped to MaxQuantum, got %d", quantum)
	}
	if devicesNeedServicing != 4_000 {
		t.Fatalf("expected devicesNeedServicing to report the 4000-tick excess beyond MaxQuantum, got %d", devicesNeedServicing)
	}
}

func TestTimerSchedulerNextQuantumNoExcessWhenNothingScheduled(t *testing.T) {
	idle := &fixedDeadlineDevice{deadline: -1}
	s := core_engine.NewTimerScheduler(idle)

	_, devicesNeedServicing := s.NextQuantum(0)
	if devicesNeedServicing != 0 {
		t.Fatalf("expected no excess when no device has a deadline, got %d", devicesNeedServicing)
	}
}

func TestTimerSchedulerRunFansOutToEveryDevice(t *testing.T) {
	a := &fixedDeadlineDevice{deadline: -1}
	b := &fixedDeadlineDevice{deadline: -1}
	s := core_engine.NewTimerScheduler(a, b)

	s.Run(42)

	if a.ran != 1 || a.lastRun != 42 {
		t.Fatalf("expected device a run once at tick 42, got ran=%d lastRun=%d", a.ran, a.lastRun)
	}
	if b.ran != 1 || b.lastRun != 42 {
		t.Fatalf("expected device b run once at tick 42, got ran=%d lastRun=%d", b.ran, b.lastRun)
	}
}

func TestTimerSchedulerRegisterAddsDevice(t *testing.T) {
	s := core_engine.NewTimerScheduler()
	d := &fixedDeadlineDevice{deadline: 77}
	s.Register(d)

	quantum, _ := s.NextQuantum(0)
	if quantum != 77 {
		t.Fatalf("expected the registered device's deadline (77), got %d", quantum)
	}
}
