package devices

import (
	"fmt"
	"sync"
)

// fdcDriveState is one of the up to four floppy drives the controller can
// address (only drives 0/1 are normally wired to physical DriveHandles by
// the Machine Harness; 2/3 read back as not-ready).
type fdcDriveState struct {
	handle       *DriveHandle
	geometry     CHSGeometry
	present      bool
	seekCylinder byte
	head         byte
	sector       byte
}

// FDCDevice implements the 8272-style Floppy Disk Controller: command and
// response FIFOs, a DMA-coupled transfer path through a DMAEngine, and the
// drive/seek/interrupt bookkeeping the BIOS's INT 13h floppy path depends on.
type FDCDevice struct {
	lock sync.Mutex

	irq InterruptRaiser
	dma *DMAEngine

	drives   [4]fdcDriveState
	selected int

	dor           byte
	msr           byte
	ccr           byte
	interruptCountdown int
	locked        bool

	commandBuf  []byte
	commandLen  int
	response    []byte
	responsePos int

	stepRateHeadUnload byte
	headLoadTime       byte
	nonDMAMode         bool

	perpendicular byte
	configureA    byte
	precomp       byte

	fillByte byte

	st0 byte
	st1 byte
	st2 byte

	formatRemaining int
}

// NewFDCDevice constructs a controller driving DMA channel 2 through dma and
// signaling IRQ6 through irq.
func NewFDCDevice(irq InterruptRaiser, dma *DMAEngine) *FDCDevice {
	f := &FDCDevice{irq: irq, dma: dma}
	f.Reset()
	return f
}

// AttachDrive installs a physical drive in slot 0-3.
func (f *FDCDevice) AttachDrive(slot int, handle *DriveHandle, geo CHSGeometry) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.drives[slot] = fdcDriveState{handle: handle, geometry: geo, present: handle != nil, sector: 1}
}

// Reset implements power-on and DOR.RESET (1->0->1) reinitialization: every
// present drive seeks to (its current cylinder, head 0, sector 1), IRQ6
// fires once, and interrupt_countdown loads to 4 so the next four Sense
// Interrupt commands report per-drive completion.
func (f *FDCDevice) Reset() {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.dor = 0
	f.msr = FDC_MSR_RQM
	f.commandBuf = nil
	f.commandLen = 0
	f.response = nil
	f.responsePos = 0
	f.fillByte = 0xF6
	for i := range f.drives {
		f.drives[i].head = 0
		f.drives[i].sector = 1
	}
	f.interruptCountdown = 4
	f.st0 = 0
	f.raiseIRQ()
}

func (f *FDCDevice) raiseIRQ() {
	if f.irq != nil {
		f.irq.RaiseIRQ(FDC_IRQ)
	}
}

// HandleIO dispatches the FDC's byte-granular port map.
func (f *FDCDevice) HandleIO(port uint16, direction uint8, size uint8, data []byte) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if size != 1 {
		return ErrWidthUnsupported
	}

	switch port {
	case FDC_PORT_DOR:
		if direction == IODirectionOut {
			f.writeDOR(data[0])
		} else {
			data[0] = f.dor
		}
	case FDC_PORT_MSR:
		if direction == IODirectionIn {
			data[0] = f.msr
		}
	case FDC_PORT_FIFO:
		if direction == IODirectionOut {
			f.writeFIFO(data[0])
		} else {
			data[0] = f.readFIFO()
		}
	case FDC_PORT_DIR:
		if direction == IODirectionOut {
			f.ccr = data[0]
		} else {
			data[0] = f.readDIR()
		}
	case FDC_PORT_STATUS_A, FDC_PORT_STATUS_B, FDC_PORT_TAPE:
		if direction == IODirectionIn {
			data[0] = 0
		}
	default:
		return ErrCommandUnsupported
	}
	return nil
}

func (f *FDCDevice) writeDOR(val byte) {
	prev := f.dor
	f.dor = val
	f.selected = int(val & FDC_DOR_DRIVE_SEL_MASK)
	if prev&FDC_DOR_RESET == 0 && val&FDC_DOR_RESET != 0 {
		f.resetLocked()
	}
}

func (f *FDCDevice) resetLocked() {
	f.msr = FDC_MSR_RQM
	f.commandBuf = nil
	f.commandLen = 0
	f.response = nil
	f.responsePos = 0
	for i := range f.drives {
		f.drives[i].head = 0
		f.drives[i].sector = 1
	}
	f.interruptCountdown = 4
	f.st0 = 0
	f.raiseIRQ()
}

func (f *FDCDevice) readDIR() byte {
	var v byte
	drv := &f.drives[f.selected]
	if drv.present {
		v |= 0x80 // disk-change reporting not modeled beyond the always-set bit
	}
	if f.dor&(FDC_DOR_MOTOR0<<uint(f.selected)) != 0 {
		v |= 0x80
	}
	return v
}

func (f *FDCDevice) writeFIFO(val byte) {
	if f.response != nil && f.responsePos < len(f.response) {
		return // host must finish draining the response FIFO first
	}
	if f.commandLen == 0 {
		size := fdcCommandSize(val)
		if size == 0 {
			f.commandBuf = []byte{val}
			f.commandLen = 1
			f.completeUnsupported()
			return
		}
		f.commandBuf = make([]byte, 1, size)
		f.commandBuf[0] = val
		f.commandLen = size
		f.msr |= FDC_MSR_CB
		if size == 1 {
			f.dispatch()
		}
		return
	}
	f.commandBuf = append(f.commandBuf, val)
	if len(f.commandBuf) >= f.commandLen {
		f.dispatch()
	}
}

func (f *FDCDevice) readFIFO() byte {
	if f.response == nil || f.responsePos >= len(f.response) {
		return 0xFF
	}
	b := f.response[f.responsePos]
	f.responsePos++
	if f.responsePos >= len(f.response) {
		f.response = nil
		f.responsePos = 0
		f.msr &^= (FDC_MSR_DIO | FDC_MSR_RQM | FDC_MSR_CB)
		f.msr |= FDC_MSR_RQM
	}
	return b
}

func (f *FDCDevice) setResponse(bytes []byte) {
	f.response = bytes
	f.responsePos = 0
	f.commandBuf = nil
	f.commandLen = 0
	f.msr = FDC_MSR_RQM | FDC_MSR_DIO
	if len(bytes) == 0 {
		f.msr = FDC_MSR_RQM
	}
}

func (f *FDCDevice) completeUnsupported() {
	f.commandBuf = nil
	f.commandLen = 0
	f.msr = FDC_MSR_RQM
}

func (f *FDCDevice) dispatch() {
	cmd := f.commandBuf[0]
	switch cmd & fdcCommandOpcodeMask {
	case FDC_CMD_SPECIFY:
		f.stepRateHeadUnload = f.commandBuf[1]
		f.headLoadTime = f.commandBuf[2] &^ 1
		f.nonDMAMode = f.commandBuf[2]&1 != 0
		f.commandBuf, f.commandLen = nil, 0
		f.msr = FDC_MSR_RQM
	case FDC_CMD_SENSE_DRIVE:
		drive := f.commandBuf[1] & 0x03
		st3 := drive
		if int(drive) < len(f.drives) && f.drives[drive].present {
			st3 |= 0x20 | 0x08 // track0 + ready, simplistic but matches a present drive at rest
		}
		f.setResponse([]byte{st3})
	case FDC_CMD_RECALIBRATE:
		drive := f.commandBuf[1] & 0x03
		f.seek(int(drive), 0, 0, 1)
		f.st0 = drive | FDC_ST0_SEEK_END
		f.commandBuf, f.commandLen = nil, 0
		f.msr = FDC_MSR_RQM
		f.raiseIRQ()
	case FDC_CMD_SENSE_INTERRUPT:
		if f.interruptCountdown > 0 {
			id := 3 ^ f.interruptCountdown
			f.interruptCountdown--
			drv := &f.drives[id&3]
			f.setResponse([]byte{0xC0 | (drv.head&1)<<2 | byte(id&3), drv.seekCylinder})
		} else {
			f.setResponse([]byte{f.st0, f.drives[f.selected].seekCylinder})
		}
	case FDC_CMD_DUMP_REGISTERS:
		resp := make([]byte, 10)
		resp[0] = f.drives[0].seekCylinder
		resp[1] = f.drives[1].seekCylinder
		if f.nonDMAMode {
			resp[5] = 1
		}
		lockedBit := byte(0)
		if f.locked {
			lockedBit = 0x80
		}
		resp[7] = lockedBit | f.perpendicular
		resp[8] = f.configureA
		resp[9] = f.precomp
		f.setResponse(resp)
	case FDC_CMD_SEEK:
		drive := f.commandBuf[1] & 0x03
		head := (f.commandBuf[1] >> 2) & 1
		cyl := f.commandBuf[2]
		f.seek(int(drive), cyl, head, f.drives[drive].sector)
		f.st0 = drive | FDC_ST0_SEEK_END
		f.commandBuf, f.commandLen = nil, 0
		f.msr = FDC_MSR_RQM
		f.raiseIRQ()
	case FDC_CMD_VERSION:
		f.setResponse([]byte{0x90})
	case FDC_CMD_PERPENDICULAR:
		f.perpendicular = f.commandBuf[1] & 0x7F
		f.commandBuf, f.commandLen = nil, 0
		f.msr = FDC_MSR_RQM
	case FDC_CMD_CONFIGURE:
		// commandBuf[1] is unused by real hardware.
		f.configureA = f.commandBuf[2]
		f.precomp = f.commandBuf[3]
		f.commandBuf, f.commandLen = nil, 0
		f.msr = FDC_MSR_RQM
	case FDC_CMD_LOCK:
		f.locked = cmd&0x80 != 0
		lockedBit := byte(0)
		if f.locked {
			lockedBit = 1
		}
		f.setResponse([]byte{lockedBit << 4})
	case FDC_CMD_UNDOCUMENTED_18:
		f.setResponse([]byte{0x80})
	case FDC_CMD_READ_TRACK:
		f.beginReadWrite(false, true)
	case FDC_CMD_READ:
		f.beginReadWrite(false, false)
	case FDC_CMD_WRITE:
		f.beginReadWrite(true, false)
	case FDC_CMD_FORMAT_TRACK:
		f.beginFormat()
	default:
		f.st0 = FDC_ST0_IC_INVALID
		f.setResponse([]byte{f.st0})
	}
}

func (f *FDCDevice) seek(drive int, cyl, head, sector byte) {
	if drive < 0 || drive >= len(f.drives) {
		return
	}
	d := &f.drives[drive]
	d.seekCylinder = cyl
	d.head = head
	d.sector = sector
}

func (f *FDCDevice) currentDrive() *fdcDriveState { return &f.drives[f.selected] }

func (f *FDCDevice) chsOffset(drv *fdcDriveState) int64 {
	geo := drv.geometry
	sector := int64(drv.sector)
	if sector == 0 {
		sector = 1
	}
	lba := (int64(drv.seekCylinder)*int64(geo.Heads)+int64(drv.head))*int64(geo.SectorsPerTrack) + (sector - 1)
	return lba * 512
}

func (f *FDCDevice) advanceCHS(drv *fdcDriveState) {
	geo := drv.geometry
	drv.sector++
	if uint32(drv.sector) > geo.SectorsPerTrack {
		drv.sector = 1
		drv.head++
		if uint32(drv.head) >= geo.Heads {
			drv.head = 0
			drv.seekCylinder++
			if uint32(drv.seekCylinder) >= geo.Cylinders {
				drv.seekCylinder = 0
			}
		}
	}
}

// beginReadWrite validates geometry/write-protect then kicks the transfer;
// the register layout is head<<2|drive at commandBuf[1], cyl/head/sector at
// [2]/[3]/[4], sector size code N at [5], end-of-track sector at [6].
func (f *FDCDevice) beginReadWrite(write bool, wholeTrack bool) {
	drv := f.currentDrive()
	if !drv.present || drv.handle == nil {
		f.failReadWrite(FDC_ST0_NOT_READY|FDC_ST0_IC_ABNORMAL, 0x04, 0)
		return
	}
	if write && !drv.handle.Writable {
		f.failReadWrite(FDC_ST0_IC_ABNORMAL, 0x04, 0)
		return
	}
	drv.head = (f.commandBuf[1] >> 2) & 1
	drv.seekCylinder = f.commandBuf[2]
	if wholeTrack {
		drv.sector = 1
	} else {
		drv.sector = f.commandBuf[4]
	}
	n := f.commandBuf[5]
	size := 128 << n

	offset := f.chsOffset(drv)
	buf := make([]byte, size)

	if write {
		nDMA, tc := f.dma.Service(FloppyDMAChannel, buf, false)
		_ = tc
		if nDMA < size {
			f.failReadWrite(FDC_ST0_IC_ABNORMAL, 0x04, 0)
			return
		}
		if _, err := drv.handle.Write(buf, offset, nil, nil); err != nil {
			f.failReadWrite(FDC_ST0_IC_ABNORMAL, 0x04, 0)
			return
		}
	} else {
		if _, err := drv.handle.Read(buf, offset, nil, nil); err != nil {
			f.failReadWrite(FDC_ST0_IC_ABNORMAL, 0x04, 0)
			return
		}
		f.dma.Service(FloppyDMAChannel, buf, true)
	}

	f.advanceCHS(drv)
	f.st0 = byte(f.selected)
	f.st1 = 0
	f.st2 = 0
	resp := []byte{f.st0, f.st1, f.st2, drv.seekCylinder, drv.head, drv.sector, n}
	f.setResponse(resp)
	f.raiseIRQ()
}

func (f *FDCDevice) failReadWrite(st0 byte, st1 byte, st2 byte) {
	drv := f.currentDrive()
	resp := []byte{st0, st1, st2, drv.seekCylinder, drv.head, drv.sector, 0}
	f.setResponse(resp)
	f.raiseIRQ()
}

// beginFormat implements Format Track: the DMA channel supplies one (C,H,S,N)
// 4-tuple per sector; N must encode 512 bytes. fill_byte is written to each
// addressed sector until format_bytes_to_read (sectorsPerTrack * 4) is
// exhausted, then the same 7-byte response as read/write is emitted.
func (f *FDCDevice) beginFormat() {
	drv := f.currentDrive()
	if !drv.present || drv.handle == nil || !drv.handle.Writable {
		f.failReadWrite(FDC_ST0_IC_ABNORMAL, 0x27, 0x31)
		return
	}
	n := f.commandBuf[2]
	spt := int(f.commandBuf[3])
	f.fillByte = f.commandBuf[5]

	if n != 2 {
		f.failReadWrite(FDC_ST0_IC_ABNORMAL, 0x27, 0x31)
		return
	}

	tuple := make([]byte, 4)
	fill := make([]byte, 512)
	for i := range fill {
		fill[i] = f.fillByte
	}

	for s := 0; s < spt; s++ {
		if nDMA, _ := f.dma.Service(FloppyDMAChannel, tuple, false); nDMA < 4 {
			f.failReadWrite(FDC_ST0_IC_ABNORMAL, 0x27, 0x31)
			return
		}
		cyl, head, sector := tuple[0], tuple[1], tuple[2]
		offset := (int64(cyl)*int64(drv.geometry.Heads)+int64(head))*int64(drv.geometry.SectorsPerTrack) + int64(sector-1)
		offset *= 512
		if _, err := drv.handle.Write(fill, offset, nil, nil); err != nil {
			f.failReadWrite(FDC_ST0_IC_ABNORMAL, 0x27, 0x31)
			return
		}
	}

	f.st0 = byte(f.selected)
	resp := []byte{f.st0, 0, 0, drv.seekCylinder, drv.head, drv.sector, n}
	f.setResponse(resp)
	f.raiseIRQ()
}

// Snapshot implements Snapshotter, emitting the controller's register file,
// the in-flight command/response FIFOs, and each drive's seek position — the
// state a guest's INT 13h retry path depends on surviving a restore intact.
func (f *FDCDevice) Snapshot() []Field {
	f.lock.Lock()
	defer f.lock.Unlock()
	out := []Field{
		field("fdc", "selected", u8(byte(f.selected))),
		field("fdc", "dor", u8(f.dor)),
		field("fdc", "msr", u8(f.msr)),
		field("fdc", "ccr", u8(f.ccr)),
		field("fdc", "interruptCountdown", u8(byte(f.interruptCountdown))),
		field("fdc", "locked", boolByte(f.locked)),
		field("fdc", "commandBuf", append([]byte(nil), f.commandBuf...)),
		field("fdc", "commandLen", u8(byte(f.commandLen))),
		field("fdc", "response", append([]byte(nil), f.response...)),
		field("fdc", "responsePos", u8(byte(f.responsePos))),
		field("fdc", "stepRateHeadUnload", u8(f.stepRateHeadUnload)),
		field("fdc", "headLoadTime", u8(f.headLoadTime)),
		field("fdc", "nonDMAMode", boolByte(f.nonDMAMode)),
		field("fdc", "perpendicular", u8(f.perpendicular)),
		field("fdc", "configureA", u8(f.configureA)),
		field("fdc", "precomp", u8(f.precomp)),
		field("fdc", "fillByte", u8(f.fillByte)),
		field("fdc", "st0", u8(f.st0)),
		field("fdc", "st1", u8(f.st1)),
		field("fdc", "st2", u8(f.st2)),
		field("fdc", "formatRemaining", u32(uint32(f.formatRemaining))),
	}
	for i := range f.drives {
		drv := &f.drives[i]
		object := fmt.Sprintf("fdc.drive%d", i)
		out = append(out,
			field(object, "seekCylinder", u8(drv.seekCylinder)),
			field(object, "head", u8(drv.head)),
			field(object, "sector", u8(drv.sector)),
		)
	}
	return out
}

// Restore implements Restorer, reproducing the controller's register file
// and FIFOs and every drive's seek position exactly as Snapshot observed it.
func (f *FDCDevice) Restore(fields []Field) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	byObject := map[string]map[string][]byte{}
	for _, fl := range fields {
		if byObject[fl.Object] == nil {
			byObject[fl.Object] = map[string][]byte{}
		}
		byObject[fl.Object][fl.Name] = fl.Bytes
	}
	fdc := byObject["fdc"]
	if b, ok := fdc["selected"]; ok {
		f.selected = int(b[0])
	}
	if b, ok := fdc["dor"]; ok {
		f.dor = b[0]
	}
	if b, ok := fdc["msr"]; ok {
		f.msr = b[0]
	}
	if b, ok := fdc["ccr"]; ok {
		f.ccr = b[0]
	}
	if b, ok := fdc["interruptCountdown"]; ok {
		f.interruptCountdown = int(b[0])
	}
	if b, ok := fdc["locked"]; ok {
		f.locked = b[0] != 0
	}
	if b, ok := fdc["commandBuf"]; ok {
		f.commandBuf = append([]byte(nil), b...)
	}
	if b, ok := fdc["commandLen"]; ok {
		f.commandLen = int(b[0])
	}
	if b, ok := fdc["response"]; ok {
		f.response = append([]byte(nil), b...)
	}
	if b, ok := fdc["responsePos"]; ok {
		f.responsePos = int(b[0])
	}
	if b, ok := fdc["stepRateHeadUnload"]; ok {
		f.stepRateHeadUnload = b[0]
	}
	if b, ok := fdc["headLoadTime"]; ok {
		f.headLoadTime = b[0]
	}
	if b, ok := fdc["nonDMAMode"]; ok {
		f.nonDMAMode = b[0] != 0
	}
	if b, ok := fdc["perpendicular"]; ok {
		f.perpendicular = b[0]
	}
	if b, ok := fdc["configureA"]; ok {
		f.configureA = b[0]
	}
	if b, ok := fdc["precomp"]; ok {
		f.precomp = b[0]
	}
	if b, ok := fdc["fillByte"]; ok {
		f.fillByte = b[0]
	}
	if b, ok := fdc["st0"]; ok {
		f.st0 = b[0]
	}
	if b, ok := fdc["st1"]; ok {
		f.st1 = b[0]
	}
	if b, ok := fdc["st2"]; ok {
		f.st2 = b[0]
	}
	if b, ok := fdc["formatRemaining"]; ok {
		f.formatRemaining = int(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24)
	}
	for i := range f.drives {
		drv := &f.drives[i]
		byName := byObject[fmt.Sprintf("fdc.drive%d", i)]
		if b, ok := byName["seekCylinder"]; ok {
			drv.seekCylinder = b[0]
		}
		if b, ok := byName["head"]; ok {
			drv.head = b[0]
		}
		if b, ok := byName["sector"]; ok {
			drv.sector = b[0]
		}
	}
	return nil
}
