// cpu_8080_ops.go - 8080 instruction dispatch, interrupts and the burst loop
//
// A single big decode/execute switch over the opcode byte: a 256-entry
// function table or explicit per-opcode handlers would work equally well,
// but the switch keeps related opcode groups textually close together.

package main

// opcode cycle counts (Intel 8080 datasheet). Conditional Jcc takes the
// listed 10 cycles either way; conditional CALL/RET are listed at their
// not-taken counts (11/5), and execCondCall/execCondRet add 6 more when
// the branch is taken (17/11).
var cycles8080 = [256]int{
	4, 10, 7, 5, 5, 5, 7, 4, 4, 10, 7, 5, 5, 5, 7, 4,
	4, 10, 7, 5, 5, 5, 7, 4, 4, 10, 7, 5, 5, 5, 7, 4,
	4, 10, 16, 5, 5, 5, 7, 4, 4, 10, 16, 5, 5, 5, 7, 4,
	4, 10, 13, 5, 10, 10, 10, 4, 4, 10, 13, 5, 5, 5, 7, 4,
	5, 5, 5, 5, 5, 5, 7, 5, 5, 5, 5, 5, 5, 5, 7, 5,
	5, 5, 5, 5, 5, 5, 7, 5, 5, 5, 5, 5, 5, 5, 7, 5,
	5, 5, 5, 5, 5, 5, 7, 5, 5, 5, 5, 5, 5, 5, 7, 5,
	7, 7, 7, 7, 7, 7, 7, 7, 5, 5, 5, 5, 5, 5, 7, 5,
	4, 4, 4, 4, 4, 4, 7, 4, 4, 4, 4, 4, 4, 4, 7, 4,
	4, 4, 4, 4, 4, 4, 7, 4, 4, 4, 4, 4, 4, 4, 7, 4,
	4, 4, 4, 4, 4, 4, 7, 4, 4, 4, 4, 4, 4, 4, 7, 4,
	4, 4, 4, 4, 4, 4, 7, 4, 4, 4, 4, 4, 4, 4, 7, 4,
	5, 10, 10, 10, 11, 11, 7, 11, 5, 10, 10, 10, 11, 17, 7, 11,
	5, 10, 10, 10, 11, 11, 7, 11, 5, 10, 10, 10, 11, 17, 7, 11,
	5, 10, 10, 18, 11, 11, 7, 11, 5, 5, 10, 5, 11, 17, 7, 11,
	5, 10, 10, 4, 11, 11, 7, 11, 5, 5, 10, 4, 11, 17, 7, 11,
}

// Clock runs instructions until at least nCyclesTarget cycles have been
// consumed (or the scheduler is stopped, or HALT is pending with no
// interrupt to wake it), returning the number of cycles actually spent.
// Execution stops early if the scheduler signals it should.
func (c *CPU8080) Clock(nCyclesTarget int) int {
	start := c.cyclesClocked
	target := start + uint64(nCyclesTarget)
	for c.cyclesClocked < target {
		if c.sch != nil && !c.sch.Running() {
			break
		}
		if c.intFlags&(1<<intHaltBit) != 0 {
			if c.intFlags&0xFF == 0 {
				// HALT with nothing pending: spend the rest of the burst idle.
				c.cyclesClocked = target
				break
			}
			c.serviceInterrupt()
			continue
		}
		c.step()
	}
	return int(c.cyclesClocked - start)
}

// step fetches, decodes and executes exactly one instruction (or services a
// pending interrupt first, if IF is set).
func (c *CPU8080) step() {
	if c.ifFlag && c.intFlags&0xFF != 0 {
		c.serviceInterrupt()
		return
	}
	c.regPCLast = c.PC
	op := c.fetch8()
	c.recordHistory(c.regPCLast, op)
	c.execute(op)
}

// RequestIntr raises a pending interrupt at the given RST level (0-7); the
// core services it (if IF is set, or it is currently halted) on the next
// instruction boundary. It also asks the scheduler to end
// the current burst early so latency stays within one instruction.
func (c *CPU8080) RequestIntr(level int) {
	c.intFlags |= 1 << uint(level&7)
	if c.sch != nil {
		c.sch.EndBurst()
	}
}

// CheckIntr reports whether any interrupt is currently pending.
func (c *CPU8080) CheckIntr() bool { return c.intFlags&0xFF != 0 }

// RequestHalt puts the core into the HALT state (as if a HLT instruction
// had executed), used by reset/power-on paths that need to start halted.
func (c *CPU8080) RequestHalt() { c.intFlags |= 1 << intHaltBit }

// serviceInterrupt picks the highest-priority (lowest-numbered) pending RST
// level and executes it as
// an implicit CALL, matching the 8080's interrupt-acknowledge behaviour
// (the interrupting device is expected to have placed an RST opcode on the
// data bus; this core always takes the lowest (highest-priority) pending
// level's natural RST n instruction rather than modelling the data-bus
// handshake).
func (c *CPU8080) serviceInterrupt() {
	pending := c.intFlags & 0xFF
	if pending == 0 {
		return
	}
	level := 0
	for level < 8 && pending&(1<<uint(level)) == 0 {
		level++
	}
	c.intFlags &^= 1 << uint(level)
	c.intFlags &^= 1 << intHaltBit
	c.ifFlag = false
	c.pushWord(c.PC)
	c.PC = uint16(level) * 8
	c.cyclesClocked += 11
}

// execute decodes and runs a single opcode, advancing cyclesClocked by its
// documented cycle count.
func (c *CPU8080) execute(op byte) {
	c.cyclesClocked += uint64(cycles8080[op])

	switch {
	case op == 0x00:
		// NOP
	case op == 0x76:
		c.RequestHalt()
	case op >= 0x40 && op <= 0x7F:
		// MOV r,r' (0x76 handled above as HLT)
		c.setReg(op>>3, c.getReg(op))
	case op >= 0x80 && op <= 0xBF:
		c.execALU(op)
	case op&0xC7 == 0x04:
		// INR r
		r := (op >> 3) & 7
		c.setReg(r, c.incByte(c.getReg(r)))
	case op&0xC7 == 0x05:
		// DCR r
		r := (op >> 3) & 7
		c.setReg(r, c.decByte(c.getReg(r)))
	case op&0xC7 == 0x06:
		// MVI r,d8
		r := (op >> 3) & 7
		c.setReg(r, c.fetch8())
	case op&0xCF == 0x01:
		// LXI rp,d16
		c.setRP((op>>4)&3, c.fetch16())
	case op&0xCF == 0x09:
		// DAD rp
		hl := uint32(c.HL()) + uint32(c.getRP((op>>4)&3))
		c.setHL(uint16(hl))
		c.setCF(hl&0x10000 != 0)
	case op&0xCF == 0x03:
		// INX rp
		c.setRP((op>>4)&3, c.getRP((op>>4)&3)+1)
	case op&0xCF == 0x0B:
		// DCX rp
		c.setRP((op>>4)&3, c.getRP((op>>4)&3)-1)
	case op&0xC7 == 0xC0:
		// conditional RET
		c.execCondRet(op)
	case op&0xC7 == 0xC2 && (op&0x07) == 2:
		c.execCondJmp(op)
	case op&0xC7 == 0xC4 && (op&0x07) == 4:
		c.execCondCall(op)
	case op&0xCF == 0xC5:
		// PUSH rp
		c.pushWord(c.getRPPush((op >> 4) & 3))
	case op&0xCF == 0xC1:
		// POP rp
		c.setRPPush((op>>4)&3, c.popWord())
	case op&0xC7 == 0xC7:
		// RST n
		n := (op >> 3) & 7
		c.pushWord(c.PC)
		c.PC = uint16(n) * 8
	default:
		c.executeMisc(op)
	}
}

func (c *CPU8080) execALU(op byte) {
	src := c.getReg(op)
	switch (op >> 3) & 7 {
	case 0:
		c.A = c.addByte(src)
	case 1:
		c.A = c.addByteCarry(src)
	case 2:
		c.A = c.subByte(src)
	case 3:
		c.A = c.subByteBorrow(src)
	case 4:
		c.A = c.andByte(src)
	case 5:
		c.A = c.xorByte(src)
	case 6:
		c.A = c.orByte(src)
	case 7:
		c.subByte(src) // CMP: discard the result, keep the flags
	}
}

func (c *CPU8080) execCondRet(op byte) {
	cc := (op >> 3) & 7
	if c.checkCond(cc) {
		c.PC = c.popWord()
		c.cyclesClocked += 6
	}
}

func (c *CPU8080) execCondJmp(op byte) {
	cc := (op >> 3) & 7
	addr := c.fetch16()
	if c.checkCond(cc) {
		c.PC = addr
	}
}

func (c *CPU8080) execCondCall(op byte) {
	cc := (op >> 3) & 7
	addr := c.fetch16()
	if c.checkCond(cc) {
		c.pushWord(c.PC)
		c.PC = addr
		c.cyclesClocked += 6
	}
}

// executeMisc handles every opcode not captured by the systematic bit-field
// decode above: unconditional jump/call/ret, immediate ALU, the I/O and
// exchange instructions, rotates/DAA/CMA/STC/CMC, and the undocumented
// opcodes aliased the way real 8080 silicon decodes them (0x08/0x10/0x18/
// 0x20/0x28/0x30/0x38 -> NOP, 0xCB -> JMP, 0xD9 -> RET, 0xDD/0xED/0xFD -> CALL).
func (c *CPU8080) executeMisc(op byte) {
	switch op {
	case 0x02:
		c.mem.WriteData(uint32(c.BC()), c.A)
	case 0x0A:
		c.A = c.mem.ReadData(uint32(c.BC()))
	case 0x12:
		c.mem.WriteData(uint32(c.DE()), c.A)
	case 0x1A:
		c.A = c.mem.ReadData(uint32(c.DE()))
	case 0x22:
		addr := c.fetch16()
		c.mem.WritePair(uint32(addr), c.HL())
	case 0x2A:
		addr := c.fetch16()
		c.setHL(c.mem.ReadPair(uint32(addr)))
	case 0x32:
		addr := c.fetch16()
		c.mem.WriteData(uint32(addr), c.A)
	case 0x3A:
		addr := c.fetch16()
		c.A = c.mem.ReadData(uint32(addr))
	case 0x07:
		c.rlc()
	case 0x0F:
		c.rrc()
	case 0x17:
		c.ral()
	case 0x1F:
		c.rar()
	case 0x27:
		c.daa()
	case 0x2F:
		c.A = ^c.A
	case 0x37:
		c.setCF(true)
	case 0x3F:
		c.setCF(!c.getCF())
	case 0xC3, 0xCB:
		c.PC = c.fetch16()
	case 0xC9, 0xD9:
		c.PC = c.popWord()
	case 0xCD, 0xDD, 0xED, 0xFD:
		addr := c.fetch16()
		c.pushWord(c.PC)
		c.PC = addr
	case 0xC6:
		c.A = c.addByte(c.fetch8())
	case 0xCE:
		c.A = c.addByteCarry(c.fetch8())
	case 0xD6:
		c.A = c.subByte(c.fetch8())
	case 0xDE:
		c.A = c.subByteBorrow(c.fetch8())
	case 0xE6:
		c.A = c.andByte(c.fetch8())
	case 0xEE:
		c.A = c.xorByte(c.fetch8())
	case 0xF6:
		c.A = c.orByte(c.fetch8())
	case 0xFE:
		c.subByte(c.fetch8())
	case 0xE9:
		c.PC = c.HL()
	case 0xF9:
		c.SP = c.HL()
	case 0xEB:
		c.H, c.D = c.D, c.H
		c.L, c.E = c.E, c.L
	case 0xE3:
		lo := c.mem.ReadData(uint32(c.SP))
		hi := c.mem.ReadData(uint32(c.SP) + 1)
		c.mem.WriteData(uint32(c.SP), c.L)
		c.mem.WriteData(uint32(c.SP)+1, c.H)
		c.L, c.H = lo, hi
	case 0xF3:
		c.ifFlag = false
	case 0xFB:
		c.ifFlag = true
	case 0xD3:
		port := uint32(c.fetch8())
		c.io.WriteData(port, c.A)
	case 0xDB:
		port := uint32(c.fetch8())
		c.A = c.io.ReadData(port)
	case 0x08, 0x10, 0x18, 0x20, 0x28, 0x30, 0x38:
		// undocumented: alias to NOP
	default:
		if c.log != nil {
			c.log.Warnf("cpu: unhandled opcode %#02x at %#04x (should be unreachable)", op, c.regPCLast)
		}
	}
}
