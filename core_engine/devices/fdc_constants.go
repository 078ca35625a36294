package devices

// Floppy Disk Controller port map: 0x3F0-0x3F5, 0x3F7 (0x3F6 belongs to the
// primary IDE controller and is never claimed here).
const (
	FDC_PORT_STATUS_A  uint16 = 0x3F0
	FDC_PORT_STATUS_B  uint16 = 0x3F1
	FDC_PORT_DOR       uint16 = 0x3F2
	FDC_PORT_TAPE      uint16 = 0x3F3
	FDC_PORT_MSR       uint16 = 0x3F4 // read
	FDC_PORT_DSR       uint16 = 0x3F4 // write
	FDC_PORT_FIFO      uint16 = 0x3F5
	FDC_PORT_DIR       uint16 = 0x3F7 // read
	FDC_PORT_CCR       uint16 = 0x3F7 // write

	FDC_IRQ uint8 = 6
)

// Digital Output Register bits.
const (
	FDC_DOR_DRIVE_SEL_MASK byte = 0x03
	FDC_DOR_RESET          byte = 0x04
	FDC_DOR_DMA_ENABLE     byte = 0x08
	FDC_DOR_MOTOR0         byte = 0x10
)

// Main Status Register bits.
const (
	FDC_MSR_DRIVE_BUSY_BASE byte = 0x01 // bits 0-3, one per drive seeking
	FDC_MSR_CB              byte = 0x10 // command busy (FDC busy executing)
	FDC_MSR_NDMA            byte = 0x20
	FDC_MSR_DIO             byte = 0x40 // 1 = controller-to-host
	FDC_MSR_RQM             byte = 0x80 // ready for data transfer
)

// ST0 bits.
const (
	FDC_ST0_DRIVE_MASK byte = 0x03
	FDC_ST0_HEAD       byte = 0x04
	FDC_ST0_NOT_READY  byte = 0x08
	FDC_ST0_EQUIP_CHK  byte = 0x10
	FDC_ST0_SEEK_END   byte = 0x20
	FDC_ST0_IC_MASK    byte = 0xC0
	FDC_ST0_IC_ABNORMAL byte = 0x40
	FDC_ST0_IC_INVALID byte = 0x80
)

// Command opcodes (low 5/6 bits, MT/MFM/SK bits masked off by the caller
// where the table lists multiple encodings for one behavior).
const (
	FDC_CMD_READ_TRACK      byte = 0x02
	FDC_CMD_SPECIFY         byte = 0x03
	FDC_CMD_SENSE_DRIVE     byte = 0x04
	FDC_CMD_WRITE           byte = 0x05
	FDC_CMD_READ            byte = 0x06
	FDC_CMD_RECALIBRATE     byte = 0x07
	FDC_CMD_SENSE_INTERRUPT byte = 0x08
	FDC_CMD_WRITE_DELETED   byte = 0x09
	FDC_CMD_READ_ID         byte = 0x0A
	FDC_CMD_FORMAT_TRACK    byte = 0x0D
	FDC_CMD_DUMP_REGISTERS  byte = 0x0E
	FDC_CMD_SEEK            byte = 0x0F
	FDC_CMD_VERSION         byte = 0x10
	FDC_CMD_PERPENDICULAR   byte = 0x12
	FDC_CMD_CONFIGURE       byte = 0x13
	FDC_CMD_LOCK            byte = 0x14
	FDC_CMD_VERIFY          byte = 0x16
	FDC_CMD_UNDOCUMENTED_18 byte = 0x18
)

const fdcCommandOpcodeMask byte = 0x1F

// fdcCommandSize reports the total byte count (opcode inclusive) for a command,
// or 0 if unrecognized, keyed on the opcode's low bits since MT/MFM/SK
// modifier bits vary per invocation of the same command.
func fdcCommandSize(opcode byte) int {
	switch opcode & fdcCommandOpcodeMask {
	case FDC_CMD_SPECIFY:
		return 3
	case FDC_CMD_SENSE_DRIVE:
		return 2
	case FDC_CMD_RECALIBRATE:
		return 2
	case FDC_CMD_SENSE_INTERRUPT:
		return 1
	case FDC_CMD_DUMP_REGISTERS:
		return 1
	case FDC_CMD_SEEK:
		return 3
	case FDC_CMD_VERSION:
		return 1
	case FDC_CMD_PERPENDICULAR:
		return 2
	case FDC_CMD_CONFIGURE:
		return 4
	case FDC_CMD_LOCK:
		return 1
	case FDC_CMD_UNDOCUMENTED_18:
		return 1
	case FDC_CMD_READ_TRACK:
		return 9
	case FDC_CMD_READ:
		return 9
	case FDC_CMD_WRITE:
		return 9
	case FDC_CMD_FORMAT_TRACK:
		return 6
	default:
		return 0
	}
}
