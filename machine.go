// machine.go - Machine orchestrator: construction order, wiring, lifecycle
//
// Devices attach to a pair of shared buses; the machine owns construction
// order and power/reset sequencing for the fixed VT100 CORE device set:
// one CPU, two buses, the chip ensemble, two UARTs, the video processor
// and the scheduler.
package main

import "fmt"

// MachineConfig names the RAM window SaveTo/LoadFrom persist (RAMAddr,
// RAMSize; the memory bus itself always maps the full 64 KiB read/write)
// and the display list's starting address.
type MachineConfig struct {
	RAMAddr uint32
	RAMSize uint32

	DisplayListHead uint32

	CyclesPerSecond int
	FrameDriven     bool

	HistoryCapacity int
}

// drawingSurface is the interface both video backends satisfy: a machine
// doesn't know or care whether it's driving an ebiten window or an ANSI
// terminal.
type drawingSurface interface {
	Present()
}

// Machine owns every device and the scheduler that drives them, and is
// the unit persistence.go saves/loads and lifecycle.go resets.
type Machine struct {
	cfg MachineConfig

	Mem *Bus
	IO  *Bus

	CPU    *CPU8080
	NVR    *NVR
	Chips  *VT100Chips
	Kbd    *KeyboardUART
	Serial *SerialUART
	Video  *VideoProcessor
	Clock  *Time

	Backend drawingSurface

	hostSerial *HostSerialBridge
	log        *logSink
}

// NewMachine constructs and wires every device per cfg, but does not
// power it on - callers call PowerOn (or Restore a saved state) before
// running the scheduler.
func NewMachine(cfg MachineConfig, log *logSink) (*Machine, error) {
	if cfg.RAMSize == 0 {
		return nil, fmt.Errorf("%w: RAMSize must be non-zero", ErrConfigMissingField)
	}

	m := &Machine{cfg: cfg, log: log}

	m.Mem = NewBus("memory", BusStatic, 16, 1, 8, true, log)
	m.IO = NewBus("io", BusDynamic, 16, 1, 8, true, log)

	if err := m.Mem.AddBlocks(0, 0x10000, BlockReadWrite, nil); err != nil {
		return nil, fmt.Errorf("machine: mapping memory: %w", err)
	}
	if err := m.IO.AddPortsBlock(0, 0x10000); err != nil {
		return nil, fmt.Errorf("machine: mapping io: %w", err)
	}

	m.Clock = NewTime(cfg.CyclesPerSecond, cfg.FrameDriven)
	m.CPU = NewCPU8080(m.Mem, m.IO, m.Clock, log, cfg.HistoryCapacity)
	m.Clock.Attach(m.CPU)

	m.NVR = NewNVR(log)
	m.NVR.loadFactoryDefaults()

	m.Kbd = NewKeyboardUART(m.CPU, log)
	m.Serial = NewSerialUART(m.CPU, log)

	m.Chips = NewVT100Chips(m.CPU, m.NVR, m.Kbd, m.Serial)

	m.Video = NewVideoProcessor(m.Mem, m.Chips, log)
	m.Video.SetDisplayListHead(cfg.DisplayListHead)
	m.Chips.SetVideo(m.Video)

	if err := m.wirePorts(); err != nil {
		return nil, err
	}
	return m, nil
}

// wirePorts installs every port listener onto the IO bus, binding
// registers.go's port constants to the devices that own them.
func (m *Machine) wirePorts() error {
	type binding struct {
		port   uint32
		input  func(port uint32) byte
		output func(port uint32, value byte)
	}
	bindings := []binding{
		{PortSerialData, func(p uint32) byte { return m.Serial.ReadData(p) }, func(p uint32, v byte) { m.Serial.WriteData(p, v) }},
		{PortSerialControl, func(p uint32) byte { return m.Serial.ReadStatus(p) }, func(p uint32, v byte) { m.Serial.WriteControl(p, v) }},
		{PortSerialBaud, nil, func(_ uint32, v byte) { m.Serial.WriteBaud(v) }},
		{PortFlags, func(uint32) byte { return m.Chips.ReadFlags() }, func(_ uint32, v byte) { m.Chips.WriteBrightness(v) }},
		{PortNVRLatch, nil, func(_ uint32, v byte) { m.Chips.WriteNVRLatch(v) }},
		{PortKeyboardUART, func(p uint32) byte { return m.Kbd.ReadAddress(p) }, func(p uint32, v byte) { m.Kbd.WriteStatus(p, v) }},
		{PortDC012, nil, func(_ uint32, v byte) { m.Chips.WriteDC012(v) }},
		{PortDC011, nil, func(_ uint32, v byte) { m.Chips.WriteDC011(v) }},
	}
	for _, b := range bindings {
		if err := m.IO.AddListener(b.port, b.input, b.output); err != nil {
			return fmt.Errorf("machine: wiring port %#x: %w", b.port, err)
		}
	}
	return nil
}

// AttachHostSerial connects the serial UART to a real host tty, replacing
// any previous host-serial connection.
func (m *Machine) AttachHostSerial(path string) error {
	if m.hostSerial != nil {
		m.hostSerial.Close()
	}
	b, err := NewHostSerialBridge(path, m.Serial, m.log)
	if err != nil {
		return err
	}
	m.hostSerial = b
	return nil
}

// PowerOn resets every device to its cold-boot state and starts the
// scheduler. The buses keep the memory and port mappings NewMachine
// installed. Order matches component_reset.go's convention: leaf devices
// first, then the CPU, then the scheduler, so the CPU's first fetch sees
// already-reset chips.
func (m *Machine) PowerOn() {
	resetAll(m.NVR, m.Chips, m.Kbd, m.Serial, m.Video, m.CPU, m.Clock)
	m.Video.SetDisplayListHead(m.cfg.DisplayListHead)
	m.NVR.loadFactoryDefaults()
	m.Clock.Resume()
}

// HardReset is PowerOn without reloading NVR factory defaults - it models
// the front-panel reset button, which a real VT100 never wires to the
// NVR's erase cycle.
func (m *Machine) HardReset() {
	resetAll(m.NVR, m.Chips, m.Kbd, m.Serial, m.Video, m.CPU, m.Clock)
	m.Video.SetDisplayListHead(m.cfg.DisplayListHead)
	m.Clock.Resume()
}

// RunFrame pumps the host serial bridge (if attached), advances the
// machine by one burst of burstCycles, resolves the display list, and
// presents it through the attached backend.
func (m *Machine) RunFrame(burstCycles int) {
	if m.hostSerial != nil {
		m.hostSerial.Pump()
	}
	m.Clock.Step(burstCycles)
	m.Video.Resolve(m.Video.RowCount())
	if m.Backend != nil {
		m.Backend.Present()
	}
}

// SaveTo captures and writes the machine's full state to path.
func (m *Machine) SaveTo(path string) error {
	st := CaptureState(m.CPU, m.Mem, m.cfg.RAMAddr, m.cfg.RAMSize, m.NVR, m.Chips, m.Serial)
	return SaveStateToFile(st, path)
}

// LoadFrom reads a state file and restores it into the machine.
func (m *Machine) LoadFrom(path string) error {
	st, err := LoadStateFromFile(path)
	if err != nil {
		return err
	}
	return st.Restore(m.CPU, m.Mem, m.cfg.RAMAddr, m.cfg.RAMSize, m.NVR, m.Chips, m.Serial)
}

// Close releases any host resources (serial port, video backend) the
// machine opened.
func (m *Machine) Close() error {
	if m.hostSerial != nil {
		return m.hostSerial.Close()
	}
	return nil
}
