package devices

import (
	"sync"
)

// PITFrequencyHz is the 8254's crystal-divided input frequency.
const PITFrequencyHz uint64 = 1193182

// pitChannel holds one 8254 counter's programmed state and the last load
// point used to derive its current value from elapsed ticks.
type pitChannel struct {
	count uint32 // reload value; 0 represents 65536
	mode  byte   // operating mode 0-5
	bcd   bool
	rwMode byte // PIT_RW_LATCH/LSB/MSB/LOHI

	loWritten bool // LOHI write in progress, low byte already taken
	pendingLo byte

	latched       bool
	latchedValue  uint16
	latchReadHigh bool

	statusLatched bool
	latchedStatus byte

	lastLoadTime uint64
	lastCurrent  uint32 // current value observed at the previous Tick(), for rollover edge detection
	running      bool
}

// PITDevice implements the 8254 Programmable Interval Timer: three
// channels, six counting modes, IRQ0 on channel 0.
type PITDevice struct {
	lock      sync.Mutex
	irqRaiser InterruptRaiser
	channels  [3]pitChannel

	ticksPerSecond uint64
	speakerGate    bool
	nowFn          func() uint64
}

// NewPITDevice creates a PIT whose tick domain runs at ticksPerSecond
// (the machine's Clock rate), converted internally to the 8254's own
// 1.193182MHz domain. nowFn supplies the current machine tick for counter
// loads triggered by a port write.
func NewPITDevice(irqRaiser InterruptRaiser, ticksPerSecond uint64, nowFn func() uint64) *PITDevice {
	p := &PITDevice{irqRaiser: irqRaiser, ticksPerSecond: ticksPerSecond, nowFn: nowFn}
	p.Reset()
	return p
}

// Reset reinitializes every channel to its power-on state.
func (p *PITDevice) Reset() {
	p.lock.Lock()
	defer p.lock.Unlock()
	for i := range p.channels {
		p.channels[i] = pitChannel{mode: 3, rwMode: PIT_RW_LOHI}
	}
	p.speakerGate = false
}

func (p *PITDevice) toPitTicks(hostTicks uint64) uint64 {
	if p.ticksPerSecond == 0 {
		return hostTicks
	}
	return hostTicks * PITFrequencyHz / p.ticksPerSecond
}

// effectiveCount returns the channel's divisor, mapping the 0 encoding to
// 65536.
func effectiveCount(count uint32) uint32 {
	if count == 0 {
		return 65536
	}
	return count
}

// current computes elapsed (in PIT ticks) and the channel's position
// within its count, per "elapsed = to_pit_ticks(now - last_load_time);
// current = elapsed % count (if count==0, treat as 0 for reads)".
func (p *PITDevice) current(ch *pitChannel, now uint64) uint32 {
	if ch.count == 0 {
		return 0
	}
	elapsed := p.toPitTicks(now - ch.lastLoadTime)
	return uint32(elapsed % uint64(ch.count))
}

// GetOut computes the channel's OUT level at tick now per the mode-specific
// formulas in the PIT design.
func (p *PITDevice) GetOut(channel int, now uint64) bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	ch := &p.channels[channel]
	return p.outLevel(ch, now)
}

func (p *PITDevice) outLevel(ch *pitChannel, now uint64) bool {
	count := ch.count
	current := p.current(ch, now)
	switch ch.mode {
	case 0:
		return count >= current
	case 1:
		return count < current
	case 2:
		return current != 1
	case 3:
		if count%2 == 1 {
			return current >= (count+1)/2
		}
		return current < (count-1)/2
	case 4, 5:
		return current != 0
	default:
		return true
	}
}

// NextDeadline returns the tick delta until channel 0's next rollover, or
// -1 if it is not running, implementing pit_next(now).
func (p *PITDevice) NextDeadline(now uint64) int64 {
	p.lock.Lock()
	defer p.lock.Unlock()
	ch := &p.channels[0]
	if !ch.running || ch.count == 0 {
		return -1
	}
	elapsed := p.toPitTicks(now - ch.lastLoadTime)
	count := uint64(effectiveCount(ch.count))
	remainder := elapsed % count
	pitTicksLeft := count - remainder
	if p.ticksPerSecond == 0 {
		return int64(pitTicksLeft)
	}
	hostTicksLeft := pitTicksLeft * p.ticksPerSecond / PITFrequencyHz
	if hostTicksLeft == 0 {
		hostTicksLeft = 1
	}
	return int64(hostTicksLeft)
}

// Run implements Tickable for the timer scheduler.
func (p *PITDevice) Run(now uint64) { p.Tick(now) }

// Tick is polled by the Timer Scheduler. It detects channel-0 rollover
// (current < the previously observed current) and calls RaiseIRQ(0) once
// per rollover. InterruptRaiser has no lower operation, so IRQ0 is not
// lowered before it is raised.
func (p *PITDevice) Tick(now uint64) {
	p.lock.Lock()
	defer p.lock.Unlock()
	ch := &p.channels[0]
	if !ch.running {
		return
	}
	cur := p.current(ch, now)
	if cur < ch.lastCurrent {
		if p.irqRaiser != nil {
			p.irqRaiser.RaiseIRQ(0)
		}
	}
	ch.lastCurrent = cur
}

// HandleIO processes I/O for the PIT's data and command ports, and the PC
// speaker/gate port 0x61.
func (p *PITDevice) HandleIO(port uint16, direction uint8, size uint8, data []byte) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if size != 1 {
		return ErrWidthUnsupported
	}

	val := byte(0)
	if direction == IODirectionOut {
		val = data[0]
	}

	switch port {
	case PIT_PORT_COUNTER0, PIT_PORT_COUNTER1, PIT_PORT_COUNTER2:
		index := int(port - PIT_PORT_COUNTER0)
		if direction == IODirectionOut {
			p.writeCounterPort(index, val)
		} else {
			data[0] = p.readCounterPort(index)
		}
	case PIT_PORT_COMMAND:
		if direction == IODirectionOut {
			p.writeCommandPort(val)
		} else {
			data[0] = 0xFF
		}
	case PIT_PORT_STATUS:
		if direction == IODirectionOut {
			p.speakerGate = val&0x01 != 0
		} else {
			status := byte(0x20) // A20 reported high
			if p.speakerGate {
				status |= 0x01
			}
			data[0] = status
		}
	default:
		return ErrCommandUnsupported
	}
	return nil
}

func (p *PITDevice) writeCounterPort(index int, val byte) {
	ch := &p.channels[index]

	var loaded bool
	switch ch.rwMode {
	case PIT_RW_LSB:
		ch.count = uint32(val)
		loaded = true
	case PIT_RW_MSB:
		ch.count = uint32(val) << 8
		loaded = true
	case PIT_RW_LOHI:
		if !ch.loWritten {
			ch.pendingLo = val
			ch.loWritten = true
			return
		}
		ch.count = uint32(ch.pendingLo) | uint32(val)<<8
		ch.loWritten = false
		loaded = true
	default:
		return
	}

	if loaded {
		now := uint64(0)
		if p.nowFn != nil {
			now = p.nowFn()
		}
		ch.lastLoadTime = now
		ch.lastCurrent = 0
		ch.running = true
	}
}

func (p *PITDevice) readCounterPort(index int) byte {
	ch := &p.channels[index]

	if ch.latched {
		var b byte
		switch {
		case ch.rwMode == PIT_RW_MSB:
			b = byte(ch.latchedValue >> 8)
		case ch.rwMode == PIT_RW_LOHI && !ch.latchReadHigh:
			b = byte(ch.latchedValue & 0xFF)
			ch.latchReadHigh = true
			return b
		case ch.rwMode == PIT_RW_LOHI:
			b = byte(ch.latchedValue >> 8)
		default: // PIT_RW_LSB
			b = byte(ch.latchedValue & 0xFF)
		}
		ch.latched = false
		ch.latchReadHigh = false
		return b
	}

	if ch.statusLatched {
		ch.statusLatched = false
		return ch.latchedStatus
	}

	switch ch.rwMode {
	case PIT_RW_LSB:
		return byte(ch.count & 0xFF)
	case PIT_RW_MSB:
		return byte((ch.count >> 8) & 0xFF)
	case PIT_RW_LOHI:
		if !ch.latchReadHigh {
			ch.latchReadHigh = true
			return byte(ch.count & 0xFF)
		}
		ch.latchReadHigh = false
		return byte((ch.count >> 8) & 0xFF)
	default:
		return byte(ch.count & 0xFF)
	}
}

func (p *PITDevice) writeCommandPort(val byte) {
	counterSel := int((val >> 6) & 0x3)
	rwMode := (val >> 4) & 0x3
	opMode := (val >> 1) & 0x7
	bcd := (val & 0x1) != 0

	if counterSel == 3 {
		p.readBack(val)
		return
	}

	ch := &p.channels[counterSel]

	if rwMode == PIT_RW_LATCH {
		ch.latchedValue = uint16(ch.count)
		ch.latched = true
		ch.latchReadHigh = false
		return
	}

	ch.rwMode = rwMode
	ch.mode = opMode
	ch.bcd = bcd
	ch.loWritten = false
	ch.latchReadHigh = false

	if counterSel == 0 && opMode == 2 {
		// "Setting channel 0 to mode 2 raises IRQ0 immediately" — BIOS
		// self-test exploits this side effect.
		if p.irqRaiser != nil {
			p.irqRaiser.RaiseIRQ(0)
		}
	}
}

// channelObject names the snapshot object for channel i, e.g. "pit.channel0".
func channelObject(i int) string {
	return "pit.channel" + string(rune('0'+i))
}

// Snapshot implements Snapshotter, emitting every channel's programmed
// divisor, mode, latch state, and rollover-edge tracking.
func (p *PITDevice) Snapshot() []Field {
	p.lock.Lock()
	defer p.lock.Unlock()
	var out []Field
	for i := range p.channels {
		ch := &p.channels[i]
		object := channelObject(i)
		out = append(out,
			field(object, "count", u32(ch.count)),
			field(object, "mode", u8(ch.mode)),
			field(object, "bcd", boolByte(ch.bcd)),
			field(object, "rwMode", u8(ch.rwMode)),
			field(object, "loWritten", boolByte(ch.loWritten)),
			field(object, "pendingLo", u8(ch.pendingLo)),
			field(object, "latched", boolByte(ch.latched)),
			field(object, "latchedValue", u16(ch.latchedValue)),
			field(object, "latchReadHigh", boolByte(ch.latchReadHigh)),
			field(object, "statusLatched", boolByte(ch.statusLatched)),
			field(object, "latchedStatus", u8(ch.latchedStatus)),
			field(object, "lastLoadTime", u64(ch.lastLoadTime)),
			field(object, "lastCurrent", u32(ch.lastCurrent)),
			field(object, "running", boolByte(ch.running)),
		)
	}
	out = append(out, field("pit", "speakerGate", boolByte(p.speakerGate)))
	return out
}

// Restore implements Restorer, reproducing every channel's counter state so
// the next read/Tick observes exactly what Snapshot captured.
func (p *PITDevice) Restore(fields []Field) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	byObject := map[string]map[string][]byte{}
	for _, f := range fields {
		if byObject[f.Object] == nil {
			byObject[f.Object] = map[string][]byte{}
		}
		byObject[f.Object][f.Name] = f.Bytes
	}
	for i := range p.channels {
		ch := &p.channels[i]
		byName := byObject[channelObject(i)]
		if b, ok := byName["count"]; ok {
			ch.count = uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
		}
		if b, ok := byName["mode"]; ok {
			ch.mode = b[0]
		}
		if b, ok := byName["bcd"]; ok {
			ch.bcd = b[0] != 0
		}
		if b, ok := byName["rwMode"]; ok {
			ch.rwMode = b[0]
		}
		if b, ok := byName["loWritten"]; ok {
			ch.loWritten = b[0] != 0
		}
		if b, ok := byName["pendingLo"]; ok {
			ch.pendingLo = b[0]
		}
		if b, ok := byName["latched"]; ok {
			ch.latched = b[0] != 0
		}
		if b, ok := byName["latchedValue"]; ok {
			ch.latchedValue = uint16(b[0]) | uint16(b[1])<<8
		}
		if b, ok := byName["latchReadHigh"]; ok {
			ch.latchReadHigh = b[0] != 0
		}
		if b, ok := byName["statusLatched"]; ok {
			ch.statusLatched = b[0] != 0
		}
		if b, ok := byName["latchedStatus"]; ok {
			ch.latchedStatus = b[0]
		}
		if b, ok := byName["lastLoadTime"]; ok {
			var v uint64
			for i, by := range b {
				v |= uint64(by) << (8 * i)
			}
			ch.lastLoadTime = v
		}
		if b, ok := byName["lastCurrent"]; ok {
			ch.lastCurrent = uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
		}
		if b, ok := byName["running"]; ok {
			ch.running = b[0] != 0
		}
	}
	if b, ok := byObject["pit"]["speakerGate"]; ok {
		p.speakerGate = b[0] != 0
	}
	return nil
}

// readBack implements the channel=3 read-back command: bit5 clear latches
// count, bit4 clear latches status, for every channel selected in bits 3-1.
func (p *PITDevice) readBack(val byte) {
	latchCount := val&0x20 == 0
	latchStatus := val&0x10 == 0
	for i := 0; i < 3; i++ {
		if val&(1<<uint(3-i)) == 0 {
			continue
		}
		ch := &p.channels[i]
		if latchCount {
			ch.latchedValue = uint16(ch.count)
			ch.latched = true
			ch.latchReadHigh = false
		}
		if latchStatus {
			status := (ch.rwMode << 4) | (ch.mode << 1)
			if ch.bcd {
				status |= 1
			}
			if p.outLevel(ch, 0) {
				status |= 0x80
			}
			ch.latchedStatus = status
			ch.statusLatched = true
		}
	}
}
