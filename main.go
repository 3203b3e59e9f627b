// main.go - CLI entry point
//
// Flag-parsed configuration, a single constructed top-level object, then
// a run loop until the backend or a signal asks it to stop. There is no
// subcommand dispatch - this core only ever runs one CPU type - so the
// file stays flat rather than building a dispatch table.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	backend := flag.String("backend", "headless", "video backend: ebiten or headless")
	romPath := flag.String("rom", "", "path to a raw firmware ROM image to load at address 0")
	statePath := flag.String("state", "", "path to a saved machine state to load instead of -rom")
	savePath := flag.String("save-on-exit", "", "path to write machine state to on clean shutdown")
	hostSerial := flag.String("serial-port", "", "host tty to bridge the serial UART to, e.g. /dev/ttyUSB0")
	ramSize := flag.Uint("ram-size", 0x4000, "RAM size in bytes")
	cyclesPerSecond := flag.Int("cycles-per-second", 2457600, "CPU clock rate, in Hz (VT100's real 8080 ran at 2.4576MHz)")
	displayListHead := flag.Uint("display-list-head", 0x2000, "address of the first display-list line")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	log := newLogSink(os.Stderr, parseLogLevel(*logLevel))

	cfg := MachineConfig{
		RAMAddr:         0,
		RAMSize:         uint32(*ramSize),
		DisplayListHead: uint32(*displayListHead),
		CyclesPerSecond: *cyclesPerSecond,
		FrameDriven:     true,
		HistoryCapacity: 256,
	}

	m, err := NewMachine(cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "vt100core:", err)
		os.Exit(1)
	}

	switch *backend {
	case "ebiten":
		eb := NewEbitenBackend(m.Video, m.Kbd, m.Chips)
		m.Backend = eb
	case "headless":
		hb := NewHeadlessBackend(m.Video, m.Kbd, m.Chips)
		if err := hb.Start(); err != nil {
			fmt.Fprintln(os.Stderr, "vt100core:", err)
			os.Exit(1)
		}
		defer hb.Close()
		m.Backend = hb
	default:
		fmt.Fprintf(os.Stderr, "vt100core: unknown backend %q\n", *backend)
		os.Exit(1)
	}

	m.PowerOn()

	if *statePath != "" {
		if err := m.LoadFrom(*statePath); err != nil {
			fmt.Fprintln(os.Stderr, "vt100core: loading state:", err)
			os.Exit(1)
		}
	} else if *romPath != "" {
		if err := loadROM(m, *romPath); err != nil {
			fmt.Fprintln(os.Stderr, "vt100core: loading rom:", err)
			os.Exit(1)
		}
	}

	if *hostSerial != "" {
		if err := m.AttachHostSerial(*hostSerial); err != nil {
			fmt.Fprintln(os.Stderr, "vt100core:", err)
			os.Exit(1)
		}
	}
	defer m.Close()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)

	if eb, ok := m.Backend.(*EbitenBackend); ok {
		go runLoop(m, sigc)
		if err := eb.Run("VT100 CORE"); err != nil {
			fmt.Fprintln(os.Stderr, "vt100core:", err)
		}
	} else {
		runLoop(m, sigc)
	}

	if *savePath != "" {
		if err := m.SaveTo(*savePath); err != nil {
			fmt.Fprintln(os.Stderr, "vt100core: saving state:", err)
		}
	}
}

// runLoop drives the machine one frame at a time until a signal arrives
// or (for the windowed backend) the window closes.
func runLoop(m *Machine, sigc <-chan os.Signal) {
	burst := m.Clock.CyclesPerSecond() / 60
	if burst <= 0 {
		burst = 1
	}
	for {
		select {
		case <-sigc:
			return
		default:
		}
		if eb, ok := m.Backend.(*EbitenBackend); ok && eb.Closed() {
			return
		}
		m.RunFrame(burst)
	}
}

// loadROM reads path and writes it into memory starting at address 0.
func loadROM(m *Machine, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	for i, b := range data {
		m.Mem.WriteData(uint32(i), b)
	}
	return nil
}

func parseLogLevel(s string) logLevel {
	switch s {
	case "debug":
		return logDebug
	case "warn":
		return logWarn
	case "error":
		return logError
	default:
		return logInfo
	}
}
