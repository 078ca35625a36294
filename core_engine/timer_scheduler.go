package core_engine

// MaxQuantum bounds how far the scheduler lets the CPU run before the
// soonest device deadline is reconsidered.
const MaxQuantum uint64 = 200_000

// Tickable is a device whose state depends on elapsed time: it reports how
// many ticks remain until it next needs servicing, and is driven forward by
// Run at that (or an earlier) tick.
type Tickable interface {
	// NextDeadline returns the ticks remaining until this device must run
	// again, or -1 if it has nothing scheduled.
	NextDeadline(now uint64) int64
	// Run advances the device's internal state to now.
	Run(now uint64)
}

// TimerScheduler aggregates every timed device's deadline into the next CPU
// run quantum, replacing the source's per-device device_next_N functions
// with one uniform Tickable contract.
type TimerScheduler struct {
	devices []Tickable
}

// NewTimerScheduler constructs a scheduler over devices.
func NewTimerScheduler(devices ...Tickable) *TimerScheduler {
	return &TimerScheduler{devices: devices}
}

// Register adds a device to the scheduler.
func (s *TimerScheduler) Register(d Tickable) {
	s.devices = append(s.devices, d)
}

// NextQuantum returns the next CPU run length in ticks (clamped to
// MaxQuantum) and devicesNeedServicing, the ticks by which the true minimum
// device deadline exceeds MaxQuantum (0 if no device's deadline lies beyond
// the clamp, or no device has a deadline at all). A Halt exit must add this
// excess back into the clock advance, since the clamp itself only bounds how
// long the CPU runs before devices are reconsidered — it does not shrink how
// far the clock may jump while idling.
func (s *TimerScheduler) NextQuantum(now uint64) (quantum uint64, devicesNeedServicing uint64) {
	trueMin := int64(-1)
	for _, d := range s.devices {
		deadline := d.NextDeadline(now)
		if deadline < 0 {
			continue
		}
		if trueMin < 0 || deadline < trueMin {
			trueMin = deadline
		}
	}
	quantum = MaxQuantum
	if trueMin >= 0 && uint64(trueMin) < quantum {
		quantum = uint64(trueMin)
	}
	if trueMin >= 0 && uint64(trueMin) > MaxQuantum {
		devicesNeedServicing = uint64(trueMin) - MaxQuantum
	}
	return quantum, devicesNeedServicing
}

// Run advances every registered device to now.
func (s *TimerScheduler) Run(now uint64) {
	for _, d := range s.devices {
		d.Run(now)
	}
}
