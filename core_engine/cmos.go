package core_engine

import "github.com/nepx/halfix-go/core_engine/devices"

// largeTranslationThreshold is the sector count at or above which a drive's
// BIOS translation nibble reports LARGE (CHS bit-shift) rather than LBA.
const largeTranslationThreshold = 1_032_192

// SeedCMOS writes the power-on CMOS layout described for the BIOS's POST
// path: floppy types, memory-size pairs, boot-device encoding, and the
// per-disk geometry blocks IDE's IDENTIFY/INT13h translation reads back.
func SeedCMOS(rtc *devices.RTCDevice, cfg Config) {
	rtc.SeedExtendedRAM(0x0F, 0)

	floppyTypes := byte(0)
	if cfg.FDA != nil {
		floppyTypes |= 0x40 // type 4: 1.44MB
	}
	if cfg.FDB != nil {
		floppyTypes |= 0x04
	}
	rtc.SeedExtendedRAM(0x10, floppyTypes)

	equipment := byte(0x06) // math coprocessor absent bit cleared, 2 floppies wired below
	rtc.SeedExtendedRAM(0x14, equipment|0x06)

	const conventionalKB = 640
	rtc.SeedExtendedRAM(0x15, byte(conventionalKB))
	rtc.SeedExtendedRAM(0x16, byte(conventionalKB>>8))

	extendedKB := extendedMemoryKB(cfg.MemoryBytes)
	rtc.SeedExtendedRAM(0x17, byte(extendedKB))
	rtc.SeedExtendedRAM(0x18, byte(extendedKB>>8))
	rtc.SeedExtendedRAM(0x30, byte(extendedKB))
	rtc.SeedExtendedRAM(0x31, byte(extendedKB>>8))

	pagesAbove16M := pagesAbove16MB(cfg.MemoryBytes)
	rtc.SeedExtendedRAM(0x34, byte(pagesAbove16M))
	rtc.SeedExtendedRAM(0x35, byte(pagesAbove16M>>8))

	if cfg.BootOrder[0] == BootFD {
		rtc.SeedExtendedRAM(0x2D, 0x20)
	}

	rtc.SeedExtendedRAM(0x32, 0x19)
	rtc.SeedExtendedRAM(0x37, 0x19)

	rtc.SeedExtendedRAM(0x38, byte(cfg.BootOrder[2])<<4)
	rtc.SeedExtendedRAM(0x3D, byte(cfg.BootOrder[1])<<4|byte(cfg.BootOrder[0]))

	for ctrl := 0; ctrl < 2; ctrl++ {
		for unit := 0; unit < 2; unit++ {
			id := ctrl*2 + unit
			drv := cfg.ATA[ctrl][unit]
			base := 0x1B + 9*id
			if drv.Kind == DriveKindNone {
				continue
			}
			writeDiskBlock(rtc, base, drv)
			transIdx := 0x39 + id/2
			shift := uint(4 * (id % 2))
			trans := byte(0) // LBA/normal
			if drv.Geometry.Cylinders*drv.Geometry.Heads*drv.Geometry.SectorsPerTrack >= largeTranslationThreshold {
				trans = 2 // LARGE
			}
			current := rtc.PeekExtendedRAM(byte(transIdx))
			current = (current &^ (0x03 << shift)) | (trans << shift)
			rtc.SeedExtendedRAM(byte(transIdx), current)
		}
	}
}

func writeDiskBlock(rtc *devices.RTCDevice, base int, drv DriveConfig) {
	cyl := uint16(drv.Geometry.Cylinders)
	heads := byte(drv.Geometry.Heads)
	spt := byte(drv.Geometry.SectorsPerTrack)
	rtc.SeedExtendedRAM(byte(base+0), byte(cyl))
	rtc.SeedExtendedRAM(byte(base+1), byte(cyl>>8))
	rtc.SeedExtendedRAM(byte(base+2), heads)
	rtc.SeedExtendedRAM(byte(base+3), 0xFF)
	rtc.SeedExtendedRAM(byte(base+4), 0xFF)
	rtc.SeedExtendedRAM(byte(base+5), 0xC0) // control byte: >8 heads disabled, retries enabled
	rtc.SeedExtendedRAM(byte(base+6), byte(cyl))
	rtc.SeedExtendedRAM(byte(base+7), byte(cyl>>8))
	rtc.SeedExtendedRAM(byte(base+8), spt)
}

func extendedMemoryKB(memBytes uint64) uint16 {
	const base = 1 << 20 // first 1MB is conventional+reserved, not extended
	if memBytes <= base {
		return 0
	}
	kb := (memBytes - base) / 1024
	if kb > 0x3C00 { // extended memory above ~15MB is reported via 0x34/0x35 instead
		kb = 0x3C00
	}
	return uint16(kb)
}

func pagesAbove16MB(memBytes uint64) uint16 {
	const sixteenMB = 16 << 20
	if memBytes <= sixteenMB {
		return 0
	}
	pages := (memBytes - sixteenMB) / (64 * 1024)
	if pages > 0xFFFF {
		pages = 0xFFFF
	}
	return uint16(pages)
}
