// chips_vt100.go - DC011/DC012/brightness/FLAGS chip ensemble
//
// Grounded on the same bit-serial/command-table idiom as chips_nvr.go:
// DC011 and DC012 are each a single command byte the firmware writes
// over the IO bus, decoded here into the video timing and video control
// knobs the video processor (video_processor.go) reads back or is
// pushed. FLAGS aggregates live state from the NVR and both UARTs, plus
// fixed option bits, into one read-only status byte, with a simulated LBA7 bit
// standing in for the real video chip's scan-timing reference (there
// being no CRT deflection circuit in this core to derive a genuine one
// from) that also clocks the NVR's latched command on every rising edge
// this register observes.
package main

// DC011 command byte bits (write-only, PortDC011). Bit 5 selects whether
// the remaining bits are a column count or a refresh rate.
const (
	dc011RateSelect = 0x20 // bit 5: set = rate-setting write, clear = column-setting write
	dc011FieldMask  = 0x30

	dc011Cols80  = 0x00
	dc011Cols132 = 0x10
	dc011Rate60  = 0x20
	dc011Rate50  = 0x30
)

// DC012 command byte fields (write-only, PortDC012): bits 3:2 select the
// command, bits 1:0 carry its 2-bit option.
const (
	dc012CmdShift = 2
	dc012CmdMask  = 0x3
	dc012OptMask  = 0x3

	dc012CmdScrollLow  = 0x0
	dc012CmdScrollHigh = 0x1
	dc012CmdMisc       = 0x2
	dc012CmdAttr       = 0x3

	dc012OptToggleBlink  = 0x0
	dc012OptClearVertInt = 0x1
)

// FLAGS register bits (read-only, PortFlags).
const (
	flagUARTXmit = 0x01 // serial UART transmitter ready
	flagNoAVO    = 0x02 // fixed set: no Advanced Video Option installed
	flagNoGFX    = 0x04 // fixed set: no graphics option installed
	flagOption   = 0x08 // fixed clear: no processor option module present
	flagNoEven   = 0x10 // fixed clear
	flagNVRData  = 0x20 // current NVR serial data-out line
	flagNVRClock = 0x40 // simulated LBA7 state, also clocks the NVR
	flagKBDXmit  = 0x80 // keyboard UART busy (TransmitReady: status written, scan not yet at KEYLAST)
)

// lba7Period is the cycle count over which simulatedLBA7 toggles: the
// ROM's NVR polling loop only needs transitions often enough to complete
// a command sequence, not a faithful video-timing reproduction.
const lba7Period = 64

// VT100Chips owns DC011, DC012, the brightness latch and the composite
// FLAGS register, and wires together the NVR, both UARTs and the video
// processor so FLAGS can report live status and DC012 commands can push
// updates straight to video.
type VT100Chips struct {
	dc011Cols byte
	dc011Rate byte

	scrollLow, scrollHigh byte
	blink                 bool
	vertFreqPending        bool
	reverse                byte
	attr                   byte

	brightness byte

	lastLBA7 bool

	cpu    *CPU8080
	nvr    *NVR
	kbd    uartXmitStatus
	serial uartXmitStatus
	video  *VideoProcessor
}

// uartXmitStatus is the sliver of UART state FLAGS needs to read, kept as
// an interface so chips_vt100.go does not need to import either UART's
// full type.
type uartXmitStatus interface {
	TransmitReady() bool
}

// NewVT100Chips wires the chip ensemble to the CPU (for LBA7 timing), the
// NVR, and both UARTs. The video processor is not yet constructed at this
// point (video_processor.go depends on this chip ensemble for column
// count and scroll offset), so it is supplied afterward through SetVideo.
func NewVT100Chips(cpu *CPU8080, nvr *NVR, kbd, serial uartXmitStatus) *VT100Chips {
	return &VT100Chips{cpu: cpu, nvr: nvr, kbd: kbd, serial: serial}
}

// SetVideo completes the circular chips<->video wiring once both devices
// exist, so DC012 scroll-high writes can push video.UpdateScrollOffset
// immediately instead of it being lazily polled during Resolve.
func (v *VT100Chips) SetVideo(video *VideoProcessor) { v.video = video }

// WriteDC011 programs the video timing chip: bit 5 selects whether the
// write sets the refresh rate or the column count, each change notified
// to video immediately.
func (v *VT100Chips) WriteDC011(b byte) {
	if b&dc011RateSelect != 0 {
		rate := b & dc011FieldMask
		if rate == v.dc011Rate {
			return
		}
		v.dc011Rate = rate
		if v.video != nil {
			v.video.UpdateRate(v.RefreshRate())
		}
		return
	}
	cols := b & dc011FieldMask
	if cols == v.dc011Cols {
		return
	}
	v.dc011Cols = cols
	if v.video != nil {
		v.video.UpdateDimensions(v.Columns(), v.Rows())
	}
}

// Columns132 reports whether DC011 is set for 132-column mode.
func (v *VT100Chips) Columns132() bool { return v.dc011Cols == dc011Cols132 }

// Columns reports the currently configured column count.
func (v *VT100Chips) Columns() int {
	if v.Columns132() {
		return 132
	}
	return 80
}

// Rows reports the currently configured row count: 14 rows when in
// 132-column mode, since this core never models the Advanced Video
// Option board that would otherwise keep 24 rows available.
func (v *VT100Chips) Rows() int {
	if v.Columns() > 80 {
		return 14
	}
	return 24
}

// Rate60Hz reports whether DC011 is set for 60 Hz refresh.
func (v *VT100Chips) Rate60Hz() bool { return v.dc011Rate == dc011Rate60 }

// RefreshRate reports the configured refresh rate in Hz.
func (v *VT100Chips) RefreshRate() int {
	if v.Rate60Hz() {
		return 60
	}
	return 50
}

// WriteDC012 decodes one DC012 command byte: bits 3:2 select the command,
// bits 1:0 carry its option.
func (v *VT100Chips) WriteDC012(b byte) {
	cmd := (b >> dc012CmdShift) & dc012CmdMask
	opt := b & dc012OptMask

	switch cmd {
	case dc012CmdScrollLow:
		v.scrollLow = opt
	case dc012CmdScrollHigh:
		v.scrollHigh = opt
		if v.video != nil {
			v.video.UpdateScrollOffset(v.ScrollOffset())
		}
	case dc012CmdMisc:
		switch opt {
		case dc012OptToggleBlink:
			v.blink = !v.blink
		case dc012OptClearVertInt:
			v.vertFreqPending = false
		default: // 10 or 11: set reverse-field = 3 - opt
			v.reverse = 3 - opt
		}
	case dc012CmdAttr:
		v.attr = opt
	}
}

// ScrollOffset assembles the 4-bit smooth-scroll offset from the
// separately latched low and high halves DC012's two-step command writes.
func (v *VT100Chips) ScrollOffset() int {
	return int(v.scrollHigh)<<2 | int(v.scrollLow)
}

// ReverseVideo reports the screen-wide reverse-field state set by DC012's
// cmd=10, opt={10,11} command.
func (v *VT100Chips) ReverseVideo() bool { return v.reverse != 0 }

// BlinkPhase reports the current state of the blink flip-flop DC012's
// cmd=10, opt=00 command toggles.
func (v *VT100Chips) BlinkPhase() bool { return v.blink }

// Attribute reports the basic attribute DC012's cmd=11 command last set.
func (v *VT100Chips) Attribute() byte { return v.attr }

// RequestVertFreqInterrupt flags a pending vertical-frequency interrupt;
// DC012's cmd=10 opt=01 command clears it. There is no spec-assigned RST
// vector for this signal (only keyboard=1 and serial-receive are
// numbered), so this core tracks it as plain state rather than inventing
// a CPU interrupt level nothing else in the core raises.
func (v *VT100Chips) RequestVertFreqInterrupt() { v.vertFreqPending = true }

// VertFreqInterruptPending reports whether a vertical-frequency interrupt
// is latched and not yet cleared by firmware.
func (v *VT100Chips) VertFreqInterruptPending() bool { return v.vertFreqPending }

// WriteBrightness latches the 4-bit screen brightness value.
func (v *VT100Chips) WriteBrightness(b byte) { v.brightness = b & 0x0F }
func (v *VT100Chips) Brightness() byte       { return v.brightness }

// WriteNVRLatch stores the command latch the ER1400 executes on the next
// observed LBA7 rising edge.
func (v *VT100Chips) WriteNVRLatch(b byte) {
	if v.nvr != nil {
		v.nvr.WriteLatch(b)
	}
}

// simulatedLBA7 derives a pseudo video-scan-timing bit from the CPU's
// running cycle count, standing in for the real DC011/DC012's line-buffer
// address counter: it toggles every lba7Period cycles, which is not a
// faithful wall-clock LBA7 reproduction but is sufficient for the ROM's
// NVR polling loop to observe transitions on its own polling cadence.
func (v *VT100Chips) simulatedLBA7() bool {
	if v.cpu == nil {
		return false
	}
	return (v.cpu.cyclesClocked/lba7Period)&1 != 0
}

// ReadFlags assembles the composite FLAGS status byte. Every NVR_CLK
// rising edge observed relative to the previous read clocks one ER1400
// command, matching the ROM's own protocol of polling this register to
// drive the NVR state machine.
func (v *VT100Chips) ReadFlags() byte {
	lba7 := v.simulatedLBA7()
	rising := lba7 && !v.lastLBA7
	v.lastLBA7 = lba7
	if rising && v.nvr != nil {
		v.nvr.ExecuteCommand()
	}

	f := byte(flagNoAVO | flagNoGFX) // fixed set
	if v.serial != nil && v.serial.TransmitReady() {
		f |= flagUARTXmit
	}
	if v.nvr != nil && v.nvr.ReadDataOut() {
		f |= flagNVRData
	}
	if lba7 {
		f |= flagNVRClock
	}
	if v.kbd != nil && v.kbd.TransmitReady() {
		f |= flagKBDXmit
	}
	return f
}
