// Command halfix boots a machine harness and runs its execution loop until
// the guest halts the system or the process is interrupted.
package main

import (
	"flag"
	"os"
	"os/signal"
	"time"

	"golang.org/x/term"

	core_engine "github.com/nepx/halfix-go/core_engine"
	"github.com/nepx/halfix-go/core_engine/devices"
	"github.com/nepx/halfix-go/core_engine/hypervisor"
)

func main() {
	memMB := flag.Int("memory", 32, "guest RAM in megabytes")
	hddPath := flag.String("hda", "", "path to a raw hard-disk image for ata0-master")
	console := flag.Bool("console", false, "bridge COM1 to a host PTY instead of /dev/null")
	flag.Parse()

	cfg := core_engine.Config{
		MemoryBytes: uint64(*memMB) << 20,
		BootOrder:   [3]core_engine.BootDevice{core_engine.BootHD, core_engine.BootNone, core_engine.BootNone},
	}
	if *hddPath != "" {
		cfg.ATA[0][0] = core_engine.DriveConfig{
			Kind:     core_engine.DriveKindHD,
			File:     *hddPath,
			Inserted: true,
			Driver:   core_engine.BackendSync,
			Geometry: devices.CHSGeometry{Cylinders: 1024, Heads: 16, SectorsPerTrack: 63},
		}
	}

	cpu := hypervisor.NewStubCPUCore()
	machine, err := core_engine.NewMachine(cfg, cpu)
	if err != nil {
		core_engine.Log.Fatalf("failed to build machine: %v", err)
	}

	if *console {
		bridge, err := devices.NewSerialConsole(machine.Serial)
		if err != nil {
			core_engine.Log.Fatalf("failed to open serial console: %v", err)
		}
		defer bridge.Close()
		bridge.Start()
		core_engine.Log.Printf("COM1 bridged to %s", bridge.SlavePath())
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
		if err == nil {
			defer term.Restore(int(os.Stdin.Fd()), oldState)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	for {
		select {
		case <-sigCh:
			core_engine.Log.Println("interrupted, shutting down")
			return
		default:
		}

		sleepMs := machine.Execute()
		if sleepMs > 0 {
			time.Sleep(time.Duration(sleepMs) * time.Millisecond)
		}
	}
}
