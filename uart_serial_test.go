package main

import "testing"

// Scenario: two SerialUARTs wired peer-to-peer, null-modem style, deliver
// a byte written on one side to the other's RX register and raise its
// interrupt, with RTS/DTR on one side arriving as CTS/DSR on the other.
func TestSerialUARTPeerToPeerLoopback(t *testing.T) {
	cpuA, _, _ := newTestCPU(t)
	cpuB, _, _ := newTestCPU(t)
	a := NewSerialUART(cpuA, nil)
	b := NewSerialUART(cpuB, nil)
	a.Connect(b)
	b.Connect(a)

	// MODE then COMMAND: enable TX/RX and assert RTS/DTR on both ends.
	a.WriteControl(PortSerialControl, modeDataBits8|0x0B) // mode
	a.WriteControl(PortSerialControl, cmdTxEnable|cmdRxEnable|cmdRTS|cmdDTR)
	b.WriteControl(PortSerialControl, modeDataBits8|0x0B)
	b.WriteControl(PortSerialControl, cmdTxEnable|cmdRxEnable|cmdRTS|cmdDTR)

	if !a.cts || !a.dsr {
		t.Fatal("a's CTS/DSR not asserted after b raised RTS/DTR")
	}
	if !b.cts || !b.dsr {
		t.Fatal("b's CTS/DSR not asserted after a raised RTS/DTR")
	}

	a.WriteData(PortSerialData, 0x55)

	if cpuB.intFlags&(1<<serialIntrLevel) == 0 {
		t.Error("b's serial interrupt not raised on received data")
	}
	got := b.ReadData(PortSerialData)
	if got != 0x55 {
		t.Fatalf("b received %#02x, want 0x55", got)
	}
	if b.ReadStatus(PortSerialControl)&statRxReady != 0 {
		t.Error("RxReady still set after ReadData")
	}
}

// Scenario: a byte received while RX is still full sets the overrun flag
// and the new byte is dropped.
func TestSerialUARTOverrun(t *testing.T) {
	cpu, _, _ := newTestCPU(t)
	s := NewSerialUART(cpu, nil)
	s.WriteControl(PortSerialControl, modeDataBits8)
	s.WriteControl(PortSerialControl, cmdRxEnable)

	s.ReceiveData(0x01)
	s.ReceiveData(0x02)

	if !s.overrun {
		t.Fatal("overrun not set on a second byte arriving before ReadData")
	}
	if got := s.ReadData(PortSerialControl); got != 0x01 {
		t.Fatalf("RX holding register = %#02x, want the first byte 0x01", got)
	}
}

// Scenario: the MODE byte selects baud from the 16-entry table.
func TestSerialUARTBaudTable(t *testing.T) {
	cpu, _, _ := newTestCPU(t)
	s := NewSerialUART(cpu, nil)
	s.WriteControl(PortSerialControl, 0x0D) // baud index 13 -> 9600
	if got := s.BaudRate(); got != 9600 {
		t.Fatalf("BaudRate() = %d, want 9600", got)
	}
}

func TestSerialUARTInternalResetCommand(t *testing.T) {
	cpu, _, _ := newTestCPU(t)
	s := NewSerialUART(cpu, nil)
	s.WriteControl(PortSerialControl, modeDataBits8)
	s.WriteControl(PortSerialControl, cmdRxEnable)
	s.ReceiveData(0x7F)
	s.WriteControl(PortSerialControl, cmdInternalRst)
	if s.rxReady {
		t.Error("rxReady survived an internal-reset command")
	}
	if !s.expectMode {
		t.Error("expectMode not restored by an internal-reset command")
	}
}
