// host_serial_passthrough.go - Optional bridge to a real host serial port
//
// Wraps a real tty (via github.com/daedaluz/goserial) with the same
// serialPeer interface uart_serial.go uses for machine-to-machine
// connections, so a SerialUART
// can be wired to an actual RS-232 port (or a socat/pty pair) exactly like
// it would be wired to another emulated UART. Reads happen on their own
// goroutine (the underlying fd blocks); delivery into the single-threaded
// machine is funnelled through a channel drained by Pump, called once per
// scheduler burst, rather than calling into SerialUART from that goroutine.
package main

import (
	"fmt"
	"time"

	serial "github.com/daedaluz/goserial"
)

// HostSerialBridge connects a SerialUART to a real serial device.
type HostSerialBridge struct {
	port *serial.Port
	uart *SerialUART

	rxChan chan byte
	stop   chan struct{}
	log    *logSink
}

// NewHostSerialBridge opens path (e.g. "/dev/ttyUSB0") in raw mode and
// connects it to uart.
func NewHostSerialBridge(path string, uart *SerialUART, log *logSink) (*HostSerialBridge, error) {
	opts := serial.NewOptions().SetReadTimeout(50 * time.Millisecond)
	p, err := serial.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("host serial: open %s: %w", path, err)
	}
	if err := p.MakeRaw(); err != nil {
		p.Close()
		return nil, fmt.Errorf("host serial: make raw %s: %w", path, err)
	}
	b := &HostSerialBridge{
		port:   p,
		uart:   uart,
		rxChan: make(chan byte, 256),
		stop:   make(chan struct{}),
		log:    log,
	}
	uart.Connect(b)
	go b.readLoop()
	return b, nil
}

func (b *HostSerialBridge) readLoop() {
	buf := make([]byte, 64)
	for {
		select {
		case <-b.stop:
			return
		default:
		}
		n, err := b.port.Read(buf)
		if err != nil {
			continue // read-timeout or transient error; retry
		}
		for i := 0; i < n; i++ {
			select {
			case b.rxChan <- buf[i]:
			default:
				if b.log != nil {
					b.log.Warnf("host serial: rx buffer full, dropping byte")
				}
			}
		}
	}
}

// Pump delivers any bytes received since the last call, and refreshes the
// attached UART's CTS/DSR lines from the real port's modem status. Called
// once per scheduler burst (machine.go's RunFrame, before Step), from the
// same goroutine that drives the CPU.
func (b *HostSerialBridge) Pump() {
drain:
	for {
		select {
		case by := <-b.rxChan:
			b.uart.ReceiveData(by)
		default:
			break drain
		}
	}
	if m, err := b.port.GetModemLines(); err == nil {
		b.uart.ReceiveStatus(modemLines{
			RTS: m&serial.TIOCM_CTS != 0,
			DTR: m&serial.TIOCM_DSR != 0,
		})
	}
}

// ReceiveData implements serialPeer: forward a byte transmitted by the
// machine out to the real port.
func (b *HostSerialBridge) ReceiveData(by byte) {
	if _, err := b.port.Write([]byte{by}); err != nil && b.log != nil {
		b.log.Warnf("host serial: write: %v", err)
	}
}

// ReceiveStatus implements serialPeer: drive the real port's RTS/DTR output
// pins from the machine's UART.
func (b *HostSerialBridge) ReceiveStatus(lines modemLines) {
	var set, clear serial.ModemLine
	if lines.RTS {
		set |= serial.TIOCM_RTS
	} else {
		clear |= serial.TIOCM_RTS
	}
	if lines.DTR {
		set |= serial.TIOCM_DTR
	} else {
		clear |= serial.TIOCM_DTR
	}
	if set != 0 {
		b.port.EnableModemLines(set)
	}
	if clear != 0 {
		b.port.DisableModemLines(clear)
	}
}

// Close stops the read goroutine and closes the underlying port.
func (b *HostSerialBridge) Close() error {
	close(b.stop)
	return b.port.Close()
}
