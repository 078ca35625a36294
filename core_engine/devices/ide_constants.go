package devices

// IDE/ATA port offsets from a controller's base (primary 0x1F0, secondary
// 0x170). The alt-status/device-control register lives at base+0x206
// (0x3F6/0x376).
const (
	IDE_REG_DATA         uint16 = 0
	IDE_REG_ERROR_FEATURE uint16 = 1
	IDE_REG_SECTOR_COUNT uint16 = 2
	IDE_REG_SECTOR_NUMBER uint16 = 3
	IDE_REG_CYL_LO       uint16 = 4
	IDE_REG_CYL_HI       uint16 = 5
	IDE_REG_DRIVE_HEAD   uint16 = 6
	IDE_REG_STATUS_CMD   uint16 = 7

	IDE_PRIMARY_BASE    uint16 = 0x1F0
	IDE_PRIMARY_CTRL    uint16 = 0x3F6
	IDE_SECONDARY_BASE  uint16 = 0x170
	IDE_SECONDARY_CTRL  uint16 = 0x376

	IDE_PRIMARY_IRQ   uint8 = 14
	IDE_SECONDARY_IRQ uint8 = 15
)

// Status register bits.
const (
	IDE_STATUS_ERR  byte = 0x01
	IDE_STATUS_DRQ  byte = 0x08
	IDE_STATUS_DSC  byte = 0x10
	IDE_STATUS_DF   byte = 0x20
	IDE_STATUS_DRDY byte = 0x40
	IDE_STATUS_BSY  byte = 0x80
)

// Error register bits.
const (
	IDE_ERROR_ABRT byte = 0x04
)

// Device control register bits (0x3F6/0x376).
const (
	IDE_CTRL_NIEN byte = 0x02
	IDE_CTRL_SRST byte = 0x04
)

// Drive/head register bits.
const (
	IDE_DH_LBA   byte = 0x40
	IDE_DH_DRIVE byte = 0x10
)

// Command opcodes.
const (
	IDE_CMD_CALIBRATE_LOW  byte = 0x10
	IDE_CMD_CALIBRATE_HIGH byte = 0x1F
	IDE_CMD_READ_SECTORS        byte = 0x20
	IDE_CMD_READ_SECTORS_NORETRY byte = 0x21
	IDE_CMD_READ_SECTORS_EXT     byte = 0x24
	IDE_CMD_READ_MULTIPLE_EXT    byte = 0x29
	IDE_CMD_READ_MULTIPLE        byte = 0xC4
	IDE_CMD_WRITE_SECTORS        byte = 0x30
	IDE_CMD_WRITE_SECTORS_NORETRY byte = 0x31
	IDE_CMD_WRITE_SECTORS_EXT    byte = 0x34
	IDE_CMD_WRITE_MULTIPLE_EXT   byte = 0x39
	IDE_CMD_WRITE_MULTIPLE       byte = 0xC5
	IDE_CMD_VERIFY               byte = 0x40
	IDE_CMD_VERIFY_NORETRY       byte = 0x41
	IDE_CMD_VERIFY_EXT           byte = 0x42
	IDE_CMD_INIT_DRIVE_PARAMS    byte = 0x91
	IDE_CMD_SET_MULTIPLE         byte = 0xC6
	IDE_CMD_SET_FEATURES         byte = 0xEF
	IDE_CMD_IDENTIFY             byte = 0xEC
	IDE_CMD_IDENTIFY_PACKET      byte = 0xA1
	IDE_CMD_IDLE_LOW             byte = 0xE0
	IDE_CMD_IDLE_HIGH            byte = 0xEA
)

var ideAcceptedFeatures = map[byte]bool{0x02: true, 0x66: true, 0x82: true, 0x95: true}
