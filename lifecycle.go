// lifecycle.go - Reset() methods for all hardware components
//
// One file holding every component's Reset method, restoring constructor
// defaults in place rather than reallocating, so callers (machine.go's
// power-on/reset path) can treat "reset" the same way regardless of which
// component it targets.
package main

// Reset restores the CPU to its post-power-on state: PC/SP/registers
// zeroed, flags cleared, interrupts disabled, pending RST/HALT state
// cleared. Does not touch the attached buses, scheduler or history log.
func (c *CPU8080) Reset() {
	c.A, c.B, c.C, c.D, c.E, c.H, c.L = 0, 0, 0, 0, 0, 0, 0
	c.SP, c.PC, c.regPCLast = 0, 0, 0
	c.rzc, c.rps, c.rao = 0, 0, 0
	c.ifFlag = false
	c.intFlags = 0
	c.cyclesClocked = 0
	c.faulted = false
	c.lastFault = nil
}

// Reset clears every installed block back to BlockNone and drops all
// traps, returning the bus to its just-constructed state.
func (bus *Bus) Reset() {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	shared := newBlock(0, bus.blockSize, BlockNone)
	for i := range bus.blocks {
		bus.blocks[i] = shared
	}
}

// Reset restores the NVR's shift registers, latch and data-out bit to
// idle, leaving the stored 100-word array untouched - a real ER1400
// keeps its contents across a host reset, they are only rewritten by a
// deliberate store cycle.
func (n *NVR) Reset() {
	n.latch = 0
	n.addrReg = 0
	n.dataReg = 0
	n.out = false
}

// Reset restores the DC011/DC012/brightness latches to their power-on
// values (columns=80, rate unset until firmware programs one, scroll/
// blink/reverse/attr all zero, minimum brightness).
func (v *VT100Chips) Reset() {
	v.dc011Cols = 0
	v.dc011Rate = 0
	v.scrollLow, v.scrollHigh = 0, 0
	v.blink = false
	v.vertFreqPending = false
	v.reverse = 0
	v.attr = 0
	v.brightness = 0
	v.lastLBA7 = false
}

// Reset drops the active-key set and returns the scan cursor to idle.
func (k *KeyboardUART) Reset() {
	k.status = 0
	k.address = 0
	k.busy = false
	k.keyNext = -1
	k.active = k.active[:0]
}

// Reset restores the serial UART to its internal post-power-on state
// (see internalReset) and drops the peer connection, matching a hard
// reset disconnecting any attached cable.
func (s *SerialUART) Reset() {
	s.internalReset()
	s.peer = nil
}

// Reset clears the processor's cached rows so the next Resolve starts
// from a blank frame instead of diffing against stale content, and
// returns the column/rate configuration to their power-on defaults.
func (p *VideoProcessor) Reset() {
	p.rows = nil
	p.lastRows = nil
	p.displayListHead = 0
	p.scrollOffset = 0
	p.lineWidth = 80
	p.rate = 60
}

// Reset cancels all pending timers and animations and stops the clock.
// cyclesClocked lives on the CPU (the scheduler's own notion of "now" is
// derived from it), so Time itself has nothing to zero there.
func (t *Time) Reset() {
	t.timers = nil
	t.nextTimer = 0
	t.anims = nil
	t.running = false
	t.endBurst = false
}

// resetter is implemented by every component lifecycle.go restores.
type resetter interface {
	Reset()
}

// resetAll calls Reset on every component in order, skipping nil ones.
// machine.go lists the chips and UARTs before the CPU, so the CPU's own
// Reset runs after theirs and clears any interrupt request still pending.
func resetAll(components ...resetter) {
	for _, c := range components {
		if c != nil {
			c.Reset()
		}
	}
}
