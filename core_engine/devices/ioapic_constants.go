package devices

// I/O APIC MMIO register offsets (relative to its one 4KB page).
const (
	IOAPIC_REG_SELECT uint64 = 0x00 // IOREGSEL
	IOAPIC_REG_WINDOW uint64 = 0x10 // IOWIN
)

// I/O APIC register indices selected via IOREGSEL.
const (
	IOAPIC_REGIDX_ID           uint8 = 0x00
	IOAPIC_REGIDX_VERSION      uint8 = 0x01
	IOAPIC_REGIDX_ARBITRATION  uint8 = 0x02
	IOAPIC_REGIDX_REDIR_BASE   uint8 = 0x10 // entry n occupies 0x10+2n (low), 0x10+2n+1 (high)
)

// Delivery modes for a redirection entry.
const (
	IOAPIC_DELIVERY_FIXED          uint8 = 0
	IOAPIC_DELIVERY_LOWEST_PRIORITY uint8 = 1
	IOAPIC_DELIVERY_SMI            uint8 = 2
	IOAPIC_DELIVERY_NMI            uint8 = 4
	IOAPIC_DELIVERY_INIT           uint8 = 5
	IOAPIC_DELIVERY_EXTINT         uint8 = 7
)

// Trigger modes.
const (
	IOAPIC_TRIGGER_EDGE  uint8 = 0
	IOAPIC_TRIGGER_LEVEL uint8 = 1
)

const ioapicLineCount = 24
