// persistence.go - Save/load machine state
//
// A magic string, a version uint32, then a flat sequence of
// binary.LittleEndian-encoded fields, with the bulk memory payload
// gzip-compressed. An ordered walk of the CPU, RAM, NVR, chip ensemble
// and serial UART (the keyboard UART and video processor are not saved),
// each device writing/reading its own section so a version
// bump only has to touch the section that actually changed shape.
package main

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const (
	stateMagic   = "VT1C"
	stateVersion = 1
)

// MachineState is the full persisted state of one VT100 CORE machine.
type MachineState struct {
	CPU    CPUState
	Memory []byte // raw RAM block contents, in address order
	NVR    NVRState
	Chips  ChipsState
	Serial SerialState
}

// CPUState mirrors CPU8080's register file and scratch flags.
type CPUState struct {
	A, B, C, D, E, H, L byte
	SP, PC              uint16
	Rzc                 uint16
	Rps, Rao            byte
	IF                  bool
	IntFlags            uint16
	CyclesClocked       uint64
}

// NVRState mirrors NVR's stored 100-word array (the shift registers are
// transient per-transaction state, not persisted).
type NVRState struct {
	Words [100]uint16
}

// ChipsState mirrors VT100Chips' latched configuration registers.
type ChipsState struct {
	DC011Cols, DC011Rate         byte
	ScrollLow, ScrollHigh        byte
	Blink, VertFreqPending       bool
	Reverse, Attr                byte
	Brightness                   byte
}

// SerialState mirrors the 8251 UART's mode/command latches, so a
// reloaded machine doesn't have to renegotiate MODE/COMMAND before its
// next transmit.
type SerialState struct {
	ExpectMode  bool
	Mode        byte
	Command     byte
	RTS, DTR    bool
}

// CaptureState reads the live state of cpu, the RAM portion of mem (the
// addr..addr+size range the caller knows is writable RAM, since ROM
// content is reloaded from the image rather than persisted), nvr, chips
// and serial into a MachineState.
func CaptureState(cpu *CPU8080, mem *Bus, ramAddr, ramSize uint32, nvr *NVR, chips *VT100Chips, serial *SerialUART) *MachineState {
	st := &MachineState{
		CPU: CPUState{
			A: cpu.A, B: cpu.B, C: cpu.C, D: cpu.D, E: cpu.E, H: cpu.H, L: cpu.L,
			SP: cpu.SP, PC: cpu.PC,
			Rzc: cpu.rzc, Rps: cpu.rps, Rao: cpu.rao,
			IF: cpu.ifFlag, IntFlags: cpu.intFlags,
			CyclesClocked: cpu.cyclesClocked,
		},
		Memory: make([]byte, ramSize),
	}
	for i := uint32(0); i < ramSize; i++ {
		st.Memory[i] = mem.ReadData(ramAddr + i)
	}
	if nvr != nil {
		for i := 0; i < 100; i++ {
			st.NVR.Words[i] = nvr.Word(i)
		}
	}
	if chips != nil {
		st.Chips = ChipsState{
			DC011Cols: chips.dc011Cols, DC011Rate: chips.dc011Rate,
			ScrollLow: chips.scrollLow, ScrollHigh: chips.scrollHigh,
			Blink: chips.blink, VertFreqPending: chips.vertFreqPending,
			Reverse: chips.reverse, Attr: chips.attr,
			Brightness: chips.brightness,
		}
	}
	if serial != nil {
		st.Serial = SerialState{
			ExpectMode: serial.expectMode, Mode: serial.mode, Command: serial.command,
			RTS: serial.rts, DTR: serial.dtr,
		}
	}
	return st
}

// Restore writes a previously captured MachineState back into the live
// devices. ramAddr/ramSize must match the values CaptureState used -
// a mismatch returns ErrStateMismatch rather than silently truncating or
// overrunning the RAM region.
func (st *MachineState) Restore(cpu *CPU8080, mem *Bus, ramAddr, ramSize uint32, nvr *NVR, chips *VT100Chips, serial *SerialUART) error {
	if uint32(len(st.Memory)) != ramSize {
		return fmt.Errorf("%w: memory size %d, expected %d", ErrStateMismatch, len(st.Memory), ramSize)
	}
	cpu.A, cpu.B, cpu.C, cpu.D, cpu.E, cpu.H, cpu.L = st.CPU.A, st.CPU.B, st.CPU.C, st.CPU.D, st.CPU.E, st.CPU.H, st.CPU.L
	cpu.SP, cpu.PC = st.CPU.SP, st.CPU.PC
	cpu.rzc, cpu.rps, cpu.rao = st.CPU.Rzc, st.CPU.Rps, st.CPU.Rao
	cpu.ifFlag, cpu.intFlags = st.CPU.IF, st.CPU.IntFlags
	cpu.cyclesClocked = st.CPU.CyclesClocked

	for i, b := range st.Memory {
		mem.WriteData(ramAddr+uint32(i), b)
	}
	if nvr != nil {
		for i, w := range st.NVR.Words {
			nvr.SetWord(i, w)
		}
	}
	if chips != nil {
		chips.dc011Cols, chips.dc011Rate = st.Chips.DC011Cols, st.Chips.DC011Rate
		chips.scrollLow, chips.scrollHigh = st.Chips.ScrollLow, st.Chips.ScrollHigh
		chips.blink, chips.vertFreqPending = st.Chips.Blink, st.Chips.VertFreqPending
		chips.reverse, chips.attr = st.Chips.Reverse, st.Chips.Attr
		chips.brightness = st.Chips.Brightness
	}
	if serial != nil {
		serial.expectMode, serial.mode, serial.command = st.Serial.ExpectMode, st.Serial.Mode, st.Serial.Command
		serial.rts, serial.dtr = st.Serial.RTS, st.Serial.DTR
	}
	return nil
}

// SaveStateToFile encodes st as magic + version + fixed-width fields,
// gzip-compressing the memory payload, and writes it to path.
func SaveStateToFile(st *MachineState, path string) error {
	var buf bytes.Buffer
	buf.WriteString(stateMagic)
	binary.Write(&buf, binary.LittleEndian, uint32(stateVersion))
	binary.Write(&buf, binary.LittleEndian, st.CPU)

	binary.Write(&buf, binary.LittleEndian, uint32(len(st.Memory)))
	var compressed bytes.Buffer
	gz := gzip.NewWriter(&compressed)
	if _, err := gz.Write(st.Memory); err != nil {
		return fmt.Errorf("state: compressing memory: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("state: closing gzip: %w", err)
	}
	binary.Write(&buf, binary.LittleEndian, uint32(compressed.Len()))
	buf.Write(compressed.Bytes())

	binary.Write(&buf, binary.LittleEndian, st.NVR)
	binary.Write(&buf, binary.LittleEndian, st.Chips)
	writeBool(&buf, st.Serial.ExpectMode)
	buf.WriteByte(st.Serial.Mode)
	buf.WriteByte(st.Serial.Command)
	writeBool(&buf, st.Serial.RTS)
	writeBool(&buf, st.Serial.DTR)

	return os.WriteFile(path, buf.Bytes(), 0644)
}

func writeBool(buf *bytes.Buffer, b bool) {
	if b {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func readBool(r io.Reader) (bool, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// LoadStateFromFile reads and decodes a state file written by
// SaveStateToFile.
func LoadStateFromFile(path string) (*MachineState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r := bytes.NewReader(data)

	magic := make([]byte, len(stateMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("state: reading magic: %w", err)
	}
	if string(magic) != stateMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrStateMismatch, string(magic))
	}
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("state: reading version: %w", err)
	}
	if version != stateVersion {
		return nil, fmt.Errorf("%w: version %d, expected %d", ErrStateMismatch, version, stateVersion)
	}

	st := &MachineState{}
	if err := binary.Read(r, binary.LittleEndian, &st.CPU); err != nil {
		return nil, fmt.Errorf("state: reading cpu: %w", err)
	}

	var memLen, compLen uint32
	if err := binary.Read(r, binary.LittleEndian, &memLen); err != nil {
		return nil, fmt.Errorf("state: reading memory length: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &compLen); err != nil {
		return nil, fmt.Errorf("state: reading compressed length: %w", err)
	}
	compressed := make([]byte, compLen)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, fmt.Errorf("state: reading compressed memory: %w", err)
	}
	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("state: opening gzip reader: %w", err)
	}
	defer gz.Close()
	st.Memory = make([]byte, memLen)
	if _, err := io.ReadFull(gz, st.Memory); err != nil {
		return nil, fmt.Errorf("state: decompressing memory: %w", err)
	}

	if err := binary.Read(r, binary.LittleEndian, &st.NVR); err != nil {
		return nil, fmt.Errorf("state: reading nvr: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &st.Chips); err != nil {
		return nil, fmt.Errorf("state: reading chips: %w", err)
	}
	if st.Serial.ExpectMode, err = readBool(r); err != nil {
		return nil, fmt.Errorf("state: reading serial expect-mode: %w", err)
	}
	var modeCmd [2]byte
	if _, err := io.ReadFull(r, modeCmd[:]); err != nil {
		return nil, fmt.Errorf("state: reading serial mode/command: %w", err)
	}
	st.Serial.Mode, st.Serial.Command = modeCmd[0], modeCmd[1]
	if st.Serial.RTS, err = readBool(r); err != nil {
		return nil, fmt.Errorf("state: reading serial rts: %w", err)
	}
	if st.Serial.DTR, err = readBool(r); err != nil {
		return nil, fmt.Errorf("state: reading serial dtr: %w", err)
	}

	return st, nil
}
