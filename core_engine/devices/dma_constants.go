package devices

// 8237 DMA controller 1 (channels 0-3) port range.
const (
	DMA1_PORT_BASE          uint16 = 0x00
	DMA1_PORT_STATUS_CMD    uint16 = 0x08 // status (R) / command (W)
	DMA1_PORT_REQUEST       uint16 = 0x09
	DMA1_PORT_SINGLE_MASK   uint16 = 0x0A
	DMA1_PORT_MODE          uint16 = 0x0B
	DMA1_PORT_CLEAR_FF      uint16 = 0x0C
	DMA1_PORT_MASTER_CLEAR  uint16 = 0x0D
	DMA1_PORT_CLEAR_MASK    uint16 = 0x0E
	DMA1_PORT_WRITE_ALLMASK uint16 = 0x0F
	DMA1_PORT_END           uint16 = 0x0F

	DMA_PAGE_PORT_BASE uint16 = 0x80
	DMA_PAGE_PORT_END  uint16 = 0x8F

	DMA2_PORT_BASE          uint16 = 0xC0
	DMA2_PORT_STATUS_CMD    uint16 = 0xD0
	DMA2_PORT_REQUEST       uint16 = 0xD2
	DMA2_PORT_SINGLE_MASK   uint16 = 0xD4
	DMA2_PORT_MODE          uint16 = 0xD6
	DMA2_PORT_CLEAR_FF      uint16 = 0xD8
	DMA2_PORT_MASTER_CLEAR  uint16 = 0xDA
	DMA2_PORT_CLEAR_MASK    uint16 = 0xDC
	DMA2_PORT_WRITE_ALLMASK uint16 = 0xDE
	DMA2_PORT_END           uint16 = 0xDF
)

// FloppyDMAChannel is the channel the FDC uses for floppy transfers.
const FloppyDMAChannel = 2

// DMA mode register bits.
const (
	DMA_MODE_CHANNEL_MASK    byte = 0x03
	DMA_MODE_TRANSFER_MASK   byte = 0x0C
	DMA_MODE_TRANSFER_VERIFY byte = 0x00
	DMA_MODE_TRANSFER_WRITE  byte = 0x04 // device -> memory
	DMA_MODE_TRANSFER_READ   byte = 0x08 // memory -> device
	DMA_MODE_AUTOINIT        byte = 0x10
	DMA_MODE_DOWN            byte = 0x20
)

// pageRegisterForChannel maps a DMA channel to its PC/AT page-register port.
var pageRegisterForChannel = map[int]uint16{
	0: 0x87, 1: 0x83, 2: 0x81, 3: 0x82,
	4: 0x8F, 5: 0x8B, 6: 0x89, 7: 0x8A,
}
