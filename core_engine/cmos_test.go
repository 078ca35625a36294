package core_engine_test

import (
	"testing"

	core_engine "github.com/nepx/halfix-go/core_engine"
	"github.com/nepx/halfix-go/core_engine/devices"
)

// TestSeedCMOSFloppyAndEquipment covers the floppy-type and equipment-byte
// fields a BIOS POST reads before probing anything else.
func TestSeedCMOSFloppyAndEquipment(t *testing.T) {
	rtc := devices.NewRTCDevice(&MockInterruptRaiser{})
	fda := core_engine.DriveConfig{Kind: core_engine.DriveKindNone}
	cfg := core_engine.Config{
		MemoryBytes: 16 << 20,
		FDA:         &fda,
	}

	core_engine.SeedCMOS(rtc, cfg)

	if got := rtc.PeekExtendedRAM(0x10); got&0x40 == 0 {
		t.Fatalf("expected floppy A type 4 (1.44MB) bit set, got 0x%x", got)
	}
	if got := rtc.PeekExtendedRAM(0x14); got&0x06 == 0 {
		t.Fatalf("expected the two-floppies equipment bits set, got 0x%x", got)
	}
}

// TestSeedCMOSConventionalAndExtendedMemory covers the 0x15/0x16 and
// 0x17/0x18 memory-size pairs for a machine with RAM above 1MB.
func TestSeedCMOSConventionalAndExtendedMemory(t *testing.T) {
	rtc := devices.NewRTCDevice(&MockInterruptRaiser{})
	cfg := core_engine.Config{MemoryBytes: 8 << 20} // 8MB: 7MB extended

	core_engine.SeedCMOS(rtc, cfg)

	conventional := uint16(rtc.PeekExtendedRAM(0x15)) | uint16(rtc.PeekExtendedRAM(0x16))<<8
	if conventional != 640 {
		t.Fatalf("expected 640KB conventional memory, got %d", conventional)
	}

	extended := uint16(rtc.PeekExtendedRAM(0x17)) | uint16(rtc.PeekExtendedRAM(0x18))<<8
	wantExtendedKB := uint16((8<<20 - 1<<20) / 1024)
	if extended != wantExtendedKB {
		t.Fatalf("expected %dKB extended memory at 0x17/0x18, got %d", wantExtendedKB, extended)
	}

	extendedMirror := uint16(rtc.PeekExtendedRAM(0x30)) | uint16(rtc.PeekExtendedRAM(0x31))<<8
	if extendedMirror != wantExtendedKB {
		t.Fatalf("expected the 0x30/0x31 mirror to match 0x17/0x18, got %d", extendedMirror)
	}
}

// TestSeedCMOSExtendedMemoryClampedAt15MB covers the boundary where reported
// extended memory tops out and the rest is reported via pages-above-16MB.
func TestSeedCMOSExtendedMemoryClampedAt15MB(t *testing.T) {
	rtc := devices.NewRTCDevice(&MockInterruptRaiser{})
	cfg := core_engine.Config{MemoryBytes: 32 << 20}

	core_engine.SeedCMOS(rtc, cfg)

	extended := uint16(rtc.PeekExtendedRAM(0x17)) | uint16(rtc.PeekExtendedRAM(0x18))<<8
	if extended != 0x3C00 {
		t.Fatalf("expected extended memory clamped to 0x3C00, got 0x%x", extended)
	}

	pages := uint16(rtc.PeekExtendedRAM(0x34)) | uint16(rtc.PeekExtendedRAM(0x35))<<8
	wantPages := uint16((32<<20 - 16<<20) / (64 * 1024))
	if pages != wantPages {
		t.Fatalf("expected %d pages above 16MB, got %d", wantPages, pages)
	}
}

// TestSeedCMOSBootOrderNibbles covers the 0x38/0x3D boot-device nibble
// packing and the 0x2D floppy-boot-enabled bit.
func TestSeedCMOSBootOrderNibbles(t *testing.T) {
	rtc := devices.NewRTCDevice(&MockInterruptRaiser{})
	cfg := core_engine.Config{
		MemoryBytes: 16 << 20,
		BootOrder:   [3]core_engine.BootDevice{core_engine.BootFD, core_engine.BootHD, core_engine.BootCD},
	}

	core_engine.SeedCMOS(rtc, cfg)

	if got := rtc.PeekExtendedRAM(0x2D); got&0x20 == 0 {
		t.Fatalf("expected floppy-boot-enabled bit set when boot[0]=FD, got 0x%x", got)
	}

	low := rtc.PeekExtendedRAM(0x3D)
	if byte(low&0x0F) != byte(core_engine.BootFD) {
		t.Fatalf("expected boot[0] nibble to be BootFD, got 0x%x", low&0x0F)
	}
	if byte(low>>4) != byte(core_engine.BootHD) {
		t.Fatalf("expected boot[1] nibble to be BootHD, got 0x%x", low>>4)
	}

	high := rtc.PeekExtendedRAM(0x38)
	if byte(high>>4) != byte(core_engine.BootCD) {
		t.Fatalf("expected boot[2] nibble to be BootCD, got 0x%x", high>>4)
	}
}

// TestSeedCMOSDiskBlockAndTranslation covers a single ATA drive's geometry
// block and its BIOS translation nibble for a small (non-LARGE) disk.
func TestSeedCMOSDiskBlockAndTranslation(t *testing.T) {
	rtc := devices.NewRTCDevice(&MockInterruptRaiser{})
	var cfg core_engine.Config
	cfg.MemoryBytes = 16 << 20
	cfg.ATA[0][0] = core_engine.DriveConfig{
		Kind:     core_engine.DriveKindHD,
		Inserted: true,
		Geometry: devices.CHSGeometry{Cylinders: 100, Heads: 16, SectorsPerTrack: 17},
	}

	core_engine.SeedCMOS(rtc, cfg)

	base := 0x1B
	cyl := uint16(rtc.PeekExtendedRAM(byte(base))) | uint16(rtc.PeekExtendedRAM(byte(base+1)))<<8
	if cyl != 100 {
		t.Fatalf("expected cylinder count 100 in the disk block, got %d", cyl)
	}
	if got := rtc.PeekExtendedRAM(byte(base + 2)); got != 16 {
		t.Fatalf("expected head count 16 in the disk block, got %d", got)
	}
	if got := rtc.PeekExtendedRAM(byte(base + 8)); got != 17 {
		t.Fatalf("expected sectors-per-track 17 in the disk block, got %d", got)
	}

	// 100*16*17 is well under the LARGE threshold, so drive 0's translation
	// nibble (low nibble of 0x39) should read 0 (LBA/normal), not 2 (LARGE).
	trans := rtc.PeekExtendedRAM(0x39) & 0x03
	if trans != 0 {
		t.Fatalf("expected normal (non-LARGE) translation for a small drive, got %d", trans)
	}
}

// TestSeedCMOSLargeTranslation covers the LARGE-translation nibble for a
// drive whose CHS capacity crosses the documented threshold.
func TestSeedCMOSLargeTranslation(t *testing.T) {
	rtc := devices.NewRTCDevice(&MockInterruptRaiser{})
	var cfg core_engine.Config
	cfg.MemoryBytes = 16 << 20
	cfg.ATA[0][0] = core_engine.DriveConfig{
		Kind:     core_engine.DriveKindHD,
		Inserted: true,
		Geometry: devices.CHSGeometry{Cylinders: 2000, Heads: 16, SectorsPerTrack: 63}, // 2,016,000 sectors
	}

	core_engine.SeedCMOS(rtc, cfg)

	trans := rtc.PeekExtendedRAM(0x39) & 0x03
	if trans != 2 {
		t.Fatalf("expected LARGE translation (2) for a drive past the threshold, got %d", trans)
	}
}
