// uart_serial.go - Host 8251-style serial UART
//
// MODE/line-state handling and one-byte RX/TX holding registers built around an actual
// 8251-style MODE/COMMAND instruction sequence, plus a software baud-rate
// table rather than the real chip's external-clock-factor scheme
// (programmable baud via a 16-entry table). Two UARTs connect peer-to-peer
// through ReceiveData/ReceiveStatus - a synchronous push interface standing
// in for a null-modem cable's crossed TX/RX and RTS/CTS/DTR/DSR wiring -
// so two machine instances (or a machine and host_serial_passthrough.go's
// real-port bridge) can be wired together without a shared buffer.
package main

// serialIntrLevel is the RST vector level raised when a received byte
// becomes available to read.
const serialIntrLevel = 2

var baudTable = [16]int{
	50, 75, 110, 134, 150, 200, 300, 600,
	1200, 1800, 2000, 2400, 4800, 9600, 19200, 38400,
}

// MODE register bits (first control-port write after a reset).
const (
	modeBaudMask   = 0x0F
	modeDataBits5  = 0x00
	modeDataBits6  = 0x10
	modeDataBits7  = 0x20
	modeDataBits8  = 0x30
	modeDataMask   = 0x30
	modeParityEn   = 0x40
	modeParityEven = 0x80
)

// COMMAND register bits (subsequent control-port writes).
const (
	cmdTxEnable    = 0x01
	cmdDTR         = 0x02
	cmdRxEnable    = 0x04
	cmdSendBreak   = 0x08
	cmdErrorReset  = 0x10
	cmdRTS         = 0x20
	cmdInternalRst = 0x40
)

// STATUS register bits (control-port read).
const (
	statTxReady   = 0x01
	statRxReady   = 0x02
	statTxEmpty   = 0x04
	statParityErr = 0x08
	statOverrun   = 0x10
	statFraming   = 0x20
	statDSR       = 0x80
)

// modemLines is the pair of output control lines (RTS, DTR) a serial
// peer pushes across the connection whenever either changes.
type modemLines struct {
	RTS, DTR bool
}

// serialPeer is the far end of a null-modem connection: another SerialUART,
// or host_serial_passthrough.go's real-serial-port bridge.
type serialPeer interface {
	ReceiveData(b byte)
	ReceiveStatus(lines modemLines)
}

// SerialUART is an 8251-style asynchronous serial controller: a MODE/
// COMMAND instruction sequencer, one-byte TX and RX holding registers, and
// a cross-wired modem-control connection to a peer.
type SerialUART struct {
	expectMode bool // true until the first control-port write after reset
	mode       byte
	command    byte

	txBuf   byte
	txReady bool
	rxBuf   byte
	rxReady bool
	overrun bool

	rts, dtr bool // local output lines
	cts, dsr bool // lines received from the peer

	peer serialPeer

	cpu *CPU8080
	log *logSink
}

// NewSerialUART constructs a serial UART wired to the CPU it interrupts.
func NewSerialUART(cpu *CPU8080, log *logSink) *SerialUART {
	s := &SerialUART{cpu: cpu, log: log}
	s.internalReset()
	return s
}

func (s *SerialUART) internalReset() {
	s.expectMode = true
	s.txReady = true
	s.rxReady = false
	s.overrun = false
}

// Connect wires this UART to a peer (another SerialUART, or a host-serial
// bridge), null-modem style: each end's RTS drives the other's CTS and
// each end's DTR drives the other's DSR.
func (s *SerialUART) Connect(p serialPeer) {
	s.peer = p
	s.pushStatus()
}

// TransmitReady reports whether the TX holding register is empty, surfaced
// through FLAGS' UART_XMIT bit.
func (s *SerialUART) TransmitReady() bool { return s.txReady }

// BaudRate returns the currently selected baud rate from the 16-entry table.
func (s *SerialUART) BaudRate() int { return baudTable[s.mode&modeBaudMask] }

// WriteBaud handles a PortSerialBaud write, programming the baud-rate
// divisor independently of the MODE register's data-bits/parity fields.
func (s *SerialUART) WriteBaud(v byte) {
	s.mode = (s.mode &^ modeBaudMask) | (v & modeBaudMask)
}

// WriteControl handles a PortSerialControl write: the first one after a
// reset is the MODE instruction, every one after that is a COMMAND
// instruction, matching the real 8251's instruction sequencing.
func (s *SerialUART) WriteControl(port uint32, v byte) {
	if s.expectMode {
		s.mode = v
		s.expectMode = false
		return
	}
	s.command = v
	if v&cmdInternalRst != 0 {
		s.internalReset()
		return
	}
	if v&cmdErrorReset != 0 {
		s.overrun = false
	}
	rts := v&cmdRTS != 0
	dtr := v&cmdDTR != 0
	if rts != s.rts || dtr != s.dtr {
		s.rts, s.dtr = rts, dtr
		s.pushStatus()
	}
}

func (s *SerialUART) pushStatus() {
	if s.peer != nil {
		s.peer.ReceiveStatus(modemLines{RTS: s.rts, DTR: s.dtr})
	}
}

// ReadStatus assembles the STATUS register for a PortSerialControl read.
func (s *SerialUART) ReadStatus(port uint32) byte {
	var v byte
	if s.txReady {
		v |= statTxReady | statTxEmpty
	}
	if s.rxReady {
		v |= statRxReady
	}
	if s.overrun {
		v |= statOverrun
	}
	if s.dsr {
		v |= statDSR
	}
	return v
}

// WriteData loads the TX holding register and, if the transmitter is
// enabled, immediately "sends" it to the connected peer - this core models
// the wire as instantaneous rather than bit-clocked, trading cycle-exact
// serial framing for functional equivalence.
func (s *SerialUART) WriteData(port uint32, v byte) {
	if s.command&cmdTxEnable == 0 {
		return
	}
	s.txBuf = v
	s.txReady = false
	if s.peer != nil {
		s.peer.ReceiveData(v)
	}
	s.txReady = true
}

// ReadData returns the RX holding register and clears RxReady.
func (s *SerialUART) ReadData(port uint32) byte {
	v := s.rxBuf
	s.rxReady = false
	return v
}

// ReceiveData implements serialPeer: a byte has arrived from the connected
// peer. If the receiver is disabled the byte is simply dropped.
func (s *SerialUART) ReceiveData(b byte) {
	if s.command&cmdRxEnable == 0 {
		return
	}
	if s.rxReady {
		s.overrun = true
		return
	}
	s.rxBuf = b
	s.rxReady = true
	if s.cpu != nil {
		s.cpu.RequestIntr(serialIntrLevel)
	}
}

// ReceiveStatus implements serialPeer: the connected peer's RTS/DTR lines
// changed, which on a null-modem cable arrive here as CTS/DSR.
func (s *SerialUART) ReceiveStatus(lines modemLines) {
	s.cts = lines.RTS
	s.dsr = lines.DTR
}
