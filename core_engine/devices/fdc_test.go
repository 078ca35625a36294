package devices_test

import (
	"testing"

	"github.com/nepx/halfix-go/core_engine/devices"
)

func fdcWriteFIFO(t *testing.T, f *devices.FDCDevice, b byte) {
	t.Helper()
	if err := f.HandleIO(devices.FDC_PORT_FIFO, devices.IODirectionOut, 1, []byte{b}); err != nil {
		t.Fatalf("FIFO write 0x%x: %v", b, err)
	}
}

func fdcReadFIFO(t *testing.T, f *devices.FDCDevice) byte {
	t.Helper()
	buf := make([]byte, 1)
	if err := f.HandleIO(devices.FDC_PORT_FIFO, devices.IODirectionIn, 1, buf); err != nil {
		t.Fatalf("FIFO read: %v", err)
	}
	return buf[0]
}

// TestFDCResetThenFourSenseInterrupts covers the reset sequence's documented
// behavior: a master clear primes interrupt_countdown to 4, and each of the
// next four Sense Interrupt commands reports one drive via the 3^countdown
// index before falling back to the controller's last ST0.
func TestFDCResetThenFourSenseInterrupts(t *testing.T) {
	irq := &MockInterruptRaiser{}
	dma := devices.NewDMAEngine()
	f := devices.NewFDCDevice(irq, dma)

	// DOR RESET edge: 1 -> 0 -> 1.
	if err := f.HandleIO(devices.FDC_PORT_DOR, devices.IODirectionOut, 1, []byte{devices.FDC_DOR_RESET}); err != nil {
		t.Fatalf("DOR write: %v", err)
	}
	if err := f.HandleIO(devices.FDC_PORT_DOR, devices.IODirectionOut, 1, []byte{0}); err != nil {
		t.Fatalf("DOR write: %v", err)
	}
	if err := f.HandleIO(devices.FDC_PORT_DOR, devices.IODirectionOut, 1, []byte{devices.FDC_DOR_RESET}); err != nil {
		t.Fatalf("DOR write: %v", err)
	}

	wantIDs := []byte{3, 0, 1, 2}
	for i, want := range wantIDs {
		fdcWriteFIFO(t, f, devices.FDC_CMD_SENSE_INTERRUPT)
		st0 := fdcReadFIFO(t, f)
		_ = fdcReadFIFO(t, f) // seek cylinder byte

		got := st0 & 0x03
		if got != want {
			t.Fatalf("sense interrupt %d: expected drive id %d, got %d", i, want, got)
		}
	}

	// A fifth Sense Interrupt falls back to reporting the controller's ST0
	// rather than indexing into interruptCountdown again.
	fdcWriteFIFO(t, f, devices.FDC_CMD_SENSE_INTERRUPT)
	st0 := fdcReadFIFO(t, f)
	if st0&0xC0 != 0 {
		t.Fatalf("expected a quiescent ST0 after the countdown is exhausted, got 0x%x", st0)
	}
}

// TestFDCVersionCommand exercises the simplest command/response round trip:
// write the opcode, read back the single response byte.
func TestFDCVersionCommand(t *testing.T) {
	irq := &MockInterruptRaiser{}
	dma := devices.NewDMAEngine()
	f := devices.NewFDCDevice(irq, dma)

	fdcWriteFIFO(t, f, devices.FDC_CMD_VERSION)
	if got, want := fdcReadFIFO(t, f), byte(0x90); got != want {
		t.Fatalf("expected version byte 0x%x, got 0x%x", want, got)
	}
}

// TestFDCReadSectorDMA exercises a Read Data command pulling a 512-byte
// sector through the shared DMA channel.
func TestFDCReadSectorDMA(t *testing.T) {
	irq := &MockInterruptRaiser{}
	dma := devices.NewDMAEngine()
	mem := make([]byte, 64*1024)
	dma.AttachMemory(mem)

	f := devices.NewFDCDevice(irq, dma)

	backend := newMemBackend(1440 * 1024)
	for i := range backend.data[:512] {
		backend.data[i] = byte(i)
	}
	geo := devices.CHSGeometry{Cylinders: 80, Heads: 2, SectorsPerTrack: 18}
	handle := devices.NewDriveHandle(devices.DriveDisk, geo, 2880, true, backend)
	f.AttachDrive(0, handle, geo)

	// Program DMA channel 2 for a 512-byte device-to-memory transfer
	// starting at guest address 0x1000.
	writeDMAAddrCount(t, dma, devices.FloppyDMAChannel, 0x1000, 512)

	// DOR: motor0 on, drive 0 selected, no reset pulse pending.
	if err := f.HandleIO(devices.FDC_PORT_DOR, devices.IODirectionOut, 1, []byte{devices.FDC_DOR_MOTOR0}); err != nil {
		t.Fatalf("DOR write: %v", err)
	}

	// Read Data: cmd, head<<2|drive, cyl, head, sector, N(=2 => 512 bytes), EOT, GPL, DTL.
	cmdBytes := []byte{devices.FDC_CMD_READ, 0x00, 0x00, 0x00, 0x01, 0x02, 0x12, 0x1B, 0xFF}
	for _, b := range cmdBytes {
		fdcWriteFIFO(t, f, b)
	}

	resp := make([]byte, 7)
	for i := range resp {
		resp[i] = fdcReadFIFO(t, f)
	}
	if resp[0]&0xC0 != 0 {
		t.Fatalf("expected normal termination ST0, got 0x%x", resp[0])
	}
	if irq.Count() == 0 {
		t.Fatalf("expected Read Data to raise IRQ6")
	}

	for i := 0; i < 512; i++ {
		if mem[0x1000+i] != backend.data[i] {
			t.Fatalf("byte %d: DMA'd 0x%x, want 0x%x", i, mem[0x1000+i], backend.data[i])
		}
	}
}

// TestFDCDumpRegisters covers the full 10-byte Dump Registers response: the
// first two drives' seek cylinders, the NDMA/locked/perpendicular flags, and
// the Configure command's config/precomp bytes, not just response[0:1].
func TestFDCDumpRegisters(t *testing.T) {
	irq := &MockInterruptRaiser{}
	dma := devices.NewDMAEngine()
	f := devices.NewFDCDevice(irq, dma)

	seek := func(drive int, cyl byte) {
		fdcWriteFIFO(t, f, devices.FDC_CMD_SEEK)
		fdcWriteFIFO(t, f, byte(drive))
		fdcWriteFIFO(t, f, cyl)
	}
	seek(0, 5)
	seek(1, 9)

	// Specify: step rate/head unload (unused here), then head load time with
	// the non-DMA bit (bit 0) set.
	fdcWriteFIFO(t, f, devices.FDC_CMD_SPECIFY)
	fdcWriteFIFO(t, f, 0x00)
	fdcWriteFIFO(t, f, 0x01)

	// Lock: the lock flag rides in the command byte's bit 7, not a parameter.
	fdcWriteFIFO(t, f, devices.FDC_CMD_LOCK|0x80)
	fdcReadFIFO(t, f) // lock status response byte

	fdcWriteFIFO(t, f, devices.FDC_CMD_PERPENDICULAR)
	fdcWriteFIFO(t, f, 0x05)

	fdcWriteFIFO(t, f, devices.FDC_CMD_CONFIGURE)
	fdcWriteFIFO(t, f, 0x00)
	fdcWriteFIFO(t, f, 0xAB)
	fdcWriteFIFO(t, f, 0xCD)

	fdcWriteFIFO(t, f, devices.FDC_CMD_DUMP_REGISTERS)
	resp := make([]byte, 10)
	for i := range resp {
		resp[i] = fdcReadFIFO(t, f)
	}

	want := []byte{5, 9, 0, 0, 0, 1, 0, 0x80 | 0x05, 0xAB, 0xCD}
	for i := range want {
		if resp[i] != want[i] {
			t.Fatalf("response[%d] = 0x%x, want 0x%x (full response %v)", i, resp[i], want[i], resp)
		}
	}
}

// writeDMAAddrCount programs controller 1 (channels 0-3) register pair for
// channel, assuming the flip-flop starts low (true after Reset/ClearFF).
func writeDMAAddrCount(t *testing.T, dma *devices.DMAEngine, channel int, addr uint32, count uint32) {
	t.Helper()
	addrPort := devices.DMA1_PORT_BASE + uint16(channel)*2
	countPort := addrPort + 1
	pagePort := uint16(0x81) // channel 2's page register on PC/AT

	writeByte(t, dma, addrPort, byte(addr))
	writeByte(t, dma, addrPort, byte(addr>>8))
	writeByte(t, dma, countPort, byte(count))
	writeByte(t, dma, countPort, byte(count>>8))
	writeByte(t, dma, pagePort, byte(addr>>16))

	// Unmask the channel (bit 2 clear, channel number in bits 0-1).
	writeByte(t, dma, devices.DMA1_PORT_SINGLE_MASK, byte(channel))
}

func writeByte(t *testing.T, dma *devices.DMAEngine, port uint16, val byte) {
	t.Helper()
	if err := dma.HandleIO(port, devices.IODirectionOut, 1, []byte{val}); err != nil {
		t.Fatalf("DMA write port 0x%x: %v", port, err)
	}
}
