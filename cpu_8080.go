// cpu_8080.go - Intel 8080 register file, flags and arithmetic primitives
//
// A plain register struct guarded by the caller's single-threaded burst
// loop (no per-field mutex - the whole machine runs on Time's one logical
// thread), a lookup table for parity, and small arithmetic helpers that
// update a handful of "scratch" registers instead of five independent
// booleans: result_zero_carry, result_parity_sign and result_aux_overflow
// combine to derive all five PSW flags, because the ALU helpers map onto
// that encoding almost verbatim.

package main

import "fmt"

// Flag bit positions within the packed Program Status Word (PSW low byte).
const (
	psCF   = 0x01 // carry
	psAlw1 = 0x02 // always 1
	psPF   = 0x04 // parity
	psAlw0 = 0x08 // always 0
	psAF   = 0x10 // auxiliary carry
	psAlw2 = 0x20 // always 0
	psZF   = 0x40 // zero
	psSF   = 0x80 // sign
)

// int_flags bit layout: bits 0-7 are pending RST-level requests, bit 8 is HALT.
const (
	intHaltBit = 8
)

var parityTable [256]bool

func init() {
	for i := 0; i < 256; i++ {
		bits := 0
		for v := i; v != 0; v >>= 1 {
			bits += v & 1
		}
		parityTable[i] = bits%2 == 0
	}
}

// CPU8080 is the fetch/decode/execute core: the register file, the three
// scratch flag registers, interrupt/HALT state, and the buses it drives.
type CPU8080 struct {
	A, B, C, D, E, H, L byte
	SP, PC              uint16
	regPCLast           uint16

	rzc uint16 // result_zero_carry: low8 -> Z, bit8 -> C
	rps byte   // result_parity_sign: low8 -> P, bit7 -> S
	rao byte   // result_aux_overflow: combines with rps for A

	ifFlag   bool
	intFlags uint16 // bits 0-7 pending RST levels, bit 8 HALT

	cyclesClocked uint64 // monotonically increasing CPU cycle counter

	mem *Bus
	io  *Bus
	sch scheduler
	log *logSink

	history  []historyEntry
	histNext int
	watch    []uint32

	faulted    bool
	lastFault  error
}

type historyEntry struct {
	pc     uint16
	opcode byte
	cycles uint64
}

// scheduler is the subset of Time the CPU needs: a way to end the current
// burst early (so an interrupt or HALT is observed promptly) and to stop
// the machine outright on an unrecoverable fault.
type scheduler interface {
	EndBurst()
	Stop()
	Running() bool
}

// NewCPU8080 constructs a CPU wired to its memory and IO buses and the
// scheduler that drives it. history capacity 0 disables instruction-history
// collection (watchpoints and instruction-history collection are a
// bus/CPU capability here, not a debugger UI - none is built).
func NewCPU8080(mem, io *Bus, sch scheduler, log *logSink, historyCapacity int) *CPU8080 {
	c := &CPU8080{mem: mem, io: io, sch: sch, log: log}
	if historyCapacity > 0 {
		c.history = make([]historyEntry, historyCapacity)
	}
	return c
}

// Cycles reports the monotonically increasing CPU cycle counter, used by
// chips_vt100.go's simulated LBA7 and uart_keyboard.go's scan-write
// timestamp.
func (c *CPU8080) Cycles() uint64 { return c.cyclesClocked }

func (c *CPU8080) HL() uint16 { return uint16(c.H)<<8 | uint16(c.L) }
func (c *CPU8080) BC() uint16 { return uint16(c.B)<<8 | uint16(c.C) }
func (c *CPU8080) DE() uint16 { return uint16(c.D)<<8 | uint16(c.E) }

func (c *CPU8080) setHL(v uint16) { c.H = byte(v >> 8); c.L = byte(v) }
func (c *CPU8080) setBC(v uint16) { c.B = byte(v >> 8); c.C = byte(v) }
func (c *CPU8080) setDE(v uint16) { c.D = byte(v >> 8); c.E = byte(v) }

// --- Flag derivation --------------------------------------------------------

func (c *CPU8080) getCF() bool { return c.rzc&0x100 != 0 }
func (c *CPU8080) getZF() bool { return c.rzc&0xFF == 0 }
func (c *CPU8080) getSF() bool { return c.rps&0x80 != 0 }
func (c *CPU8080) getPF() bool { return parityTable[c.rps] }
func (c *CPU8080) getAF() bool { return (c.rps^c.rao)&0x10 != 0 }

// setCF adjusts only the carry bit, leaving Z/S/P/A untouched - used by the
// rotate instructions, which affect CF alone.
func (c *CPU8080) setCF(v bool) {
	if v {
		c.rzc |= 0x100
	} else {
		c.rzc &^= 0x100
	}
}

// GetPS packs the derived flags into a PSW low byte.
func (c *CPU8080) GetPS() byte {
	ps := byte(psAlw1)
	if c.getCF() {
		ps |= psCF
	}
	if c.getPF() {
		ps |= psPF
	}
	if c.getAF() {
		ps |= psAF
	}
	if c.getZF() {
		ps |= psZF
	}
	if c.getSF() {
		ps |= psSF
	}
	return ps
}

// SetPS materialises an arbitrary PSW low byte into the three scratch
// registers such that GetPS() afterwards reproduces it.
func (c *CPU8080) SetPS(v byte) {
	cf := v&psCF != 0
	pf := v&psPF != 0
	af := v&psAF != 0
	zf := v&psZF != 0
	sf := v&psSF != 0

	var rzc uint16
	if cf {
		rzc |= 0x100
	}
	if !zf {
		rzc |= 1
	}
	var rps byte
	if sf {
		rps |= 0x80
	}
	if parityTable[rps] != pf {
		rps ^= 0x01
	}
	var rao byte
	if af {
		rao = 0x10
	}
	c.rzc, c.rps, c.rao = rzc, rps, rao
}

// --- Arithmetic primitives ---------------------------------------------------

func (c *CPU8080) addByte(src byte) byte {
	aux := c.A ^ src
	rzc := uint16(c.A) + uint16(src)
	c.rzc = rzc
	c.rps = byte(rzc)
	c.rao = aux
	return byte(rzc)
}

func (c *CPU8080) addByteCarry(src byte) byte {
	aux := c.A ^ src
	var cf uint16
	if c.getCF() {
		cf = 1
	}
	rzc := uint16(c.A) + uint16(src) + cf
	c.rzc = rzc
	c.rps = byte(rzc)
	c.rao = aux
	return byte(rzc)
}

func (c *CPU8080) subByte(src byte) byte {
	inv := ^src
	aux := c.A ^ inv
	rzc := (uint16(c.A) + uint16(inv) + 1) ^ 0x100
	c.rzc = rzc
	c.rps = byte(rzc)
	c.rao = aux
	return byte(rzc)
}

func (c *CPU8080) subByteBorrow(src byte) byte {
	inv := ^src
	aux := c.A ^ inv
	var carry uint16 = 1
	if c.getCF() {
		carry = 0
	}
	rzc := (uint16(c.A) + uint16(inv) + carry) ^ 0x100
	c.rzc = rzc
	c.rps = byte(rzc)
	c.rao = aux
	return byte(rzc)
}

func (c *CPU8080) andByte(src byte) byte {
	v := c.A & src
	c.rzc = uint16(v)
	c.rps = v
	c.rao = v
	if (c.A|src)&0x08 != 0 {
		c.rao ^= 0x10
	}
	return v
}

func (c *CPU8080) orByte(src byte) byte {
	v := c.A | src
	c.rzc = uint16(v)
	c.rps = v
	c.rao = v
	return v
}

func (c *CPU8080) xorByte(src byte) byte {
	v := c.A ^ src
	c.rzc = uint16(v)
	c.rps = v
	c.rao = v
	return v
}

func (c *CPU8080) incByte(b byte) byte {
	raux := b
	b = b + 1
	c.rps = b
	c.rao = raux
	c.rzc = (c.rzc & 0x100) | uint16(b)
	return b
}

func (c *CPU8080) decByte(b byte) byte {
	raux := b ^ 0xFF
	b = b - 1
	c.rps = b
	c.rao = raux
	c.rzc = (c.rzc & 0x100) | uint16(b)
	return b
}

func (c *CPU8080) rlc() {
	carry := uint16(c.A) << 1
	c.A = byte(carry&0xFF) | byte(carry>>8)
	c.setCF(carry&0x100 != 0)
}

func (c *CPU8080) rrc() {
	bit0 := c.A & 0x01
	c.A = (c.A >> 1) | (bit0 << 7)
	c.setCF(bit0 != 0)
}

func (c *CPU8080) ral() {
	oldCF := byte(0)
	if c.getCF() {
		oldCF = 1
	}
	carry := uint16(c.A) << 1
	c.A = byte(carry&0xFF) | oldCF
	c.setCF(carry&0x100 != 0)
}

func (c *CPU8080) rar() {
	bit0 := c.A & 0x01
	oldCF := byte(0)
	if c.getCF() {
		oldCF = 1
	}
	c.A = (c.A >> 1) | (oldCF << 7)
	c.setCF(bit0 != 0)
}

func (c *CPU8080) daa() {
	origCF := c.getCF()
	var src byte
	if c.getAF() || (c.A&0x0F) > 9 {
		src |= 0x06
	}
	forceCF := false
	if origCF || c.A >= 0x9A {
		src |= 0x60
		forceCF = true
	}
	c.addByte(src)
	if origCF || forceCF {
		c.setCF(true)
	}
}

// --- Stack helpers -----------------------------------------------------

func (c *CPU8080) pushWord(w uint16) {
	c.SP -= 2
	c.mem.WritePair(uint32(c.SP), w)
}

func (c *CPU8080) popWord() uint16 {
	w := c.mem.ReadPair(uint32(c.SP))
	c.SP += 2
	return w
}

// --- Register decode (3-bit field -> B,C,D,E,H,L,M,A) -----------------

func (c *CPU8080) getReg(code byte) byte {
	switch code & 7 {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.H
	case 5:
		return c.L
	case 6:
		return c.mem.ReadData(uint32(c.HL()))
	default:
		return c.A
	}
}

func (c *CPU8080) setReg(code, v byte) {
	switch code & 7 {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		c.H = v
	case 5:
		c.L = v
	case 6:
		c.mem.WriteData(uint32(c.HL()), v)
	default:
		c.A = v
	}
}

// getRP/setRP decode the 2-bit register-pair field used by LXI/DAD/LDAX/STAX
// (00=BC, 01=DE, 10=HL, 11=SP).
func (c *CPU8080) getRP(rp byte) uint16 {
	switch rp & 3 {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		return c.HL()
	default:
		return c.SP
	}
}

func (c *CPU8080) setRP(rp byte, v uint16) {
	switch rp & 3 {
	case 0:
		c.setBC(v)
	case 1:
		c.setDE(v)
	case 2:
		c.setHL(v)
	default:
		c.SP = v
	}
}

// getRPPush/setRPPush decode the PUSH/POP variant where 11=PSW instead of SP.
func (c *CPU8080) getRPPush(rp byte) uint16 {
	if rp&3 == 3 {
		return uint16(c.A)<<8 | uint16(c.GetPS())
	}
	return c.getRP(rp)
}

func (c *CPU8080) setRPPush(rp byte, v uint16) {
	if rp&3 == 3 {
		c.A = byte(v >> 8)
		c.SetPS(byte(v))
		return
	}
	c.setRP(rp, v)
}

// checkCond evaluates one of the eight 3-bit condition codes.
func (c *CPU8080) checkCond(cc byte) bool {
	switch cc & 7 {
	case 0:
		return !c.getZF()
	case 1:
		return c.getZF()
	case 2:
		return !c.getCF()
	case 3:
		return c.getCF()
	case 4:
		return !c.getPF()
	case 5:
		return c.getPF()
	case 6:
		return !c.getSF()
	default:
		return c.getSF()
	}
}

func (c *CPU8080) fetch8() byte {
	v := c.mem.ReadData(uint32(c.PC))
	c.PC++
	return v
}

func (c *CPU8080) fetch16() uint16 {
	v := c.mem.ReadPair(uint32(c.PC))
	c.PC += 2
	return v
}

func (c *CPU8080) recordHistory(pc uint16, op byte) {
	if len(c.history) == 0 {
		return
	}
	c.history[c.histNext] = historyEntry{pc: pc, opcode: op, cycles: c.cyclesClocked}
	c.histNext = (c.histNext + 1) % len(c.history)
}

// History returns the instruction-history ring buffer, oldest entries first.
func (c *CPU8080) History() []historyEntry {
	if len(c.history) == 0 {
		return nil
	}
	out := make([]historyEntry, 0, len(c.history))
	for i := 0; i < len(c.history); i++ {
		idx := (c.histNext + i) % len(c.history)
		out = append(out, c.history[idx])
	}
	return out
}

// AddWatchpoint registers a debugger watchpoint address (data only, no UI
// is built on top of it).
func (c *CPU8080) AddWatchpoint(addr uint32) { c.watch = append(c.watch, addr) }

func (c *CPU8080) String() string {
	return fmt.Sprintf("PC=%04X SP=%04X A=%02X PS=%02X B=%02X C=%02X D=%02X E=%02X H=%02X L=%02X",
		c.PC, c.SP, c.A, c.GetPS(), c.B, c.C, c.D, c.E, c.H, c.L)
}
