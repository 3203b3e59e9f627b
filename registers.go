// registers.go - VT100 core I/O port map
//
// A single file of named port/register constants, documenting the
// machine's I/O map instead of leaving magic numbers scattered through
// each chip file. Port numbers below match the real VT100's IO map
// (spec's external-interfaces port table): an unmodified ROM image
// addresses these same absolute port numbers with IN/OUT, so this map is
// not this core's own invention to renumber.
package main

const (
	// PortSerialData (read/write) is the host 8251 serial UART's data
	// register.
	PortSerialData uint32 = 0x00

	// PortSerialControl (write) is the 8251's MODE/COMMAND register;
	// (read) returns its STATUS register.
	PortSerialControl uint32 = 0x01

	// PortSerialBaud (write) programs the 8251's baud-rate divisor.
	PortSerialBaud uint32 = 0x02

	// PortFlags (read) returns the composite FLAGS byte: UART_XMIT,
	// NO_AVO, NO_GFX, OPTION, NO_EVEN, NVR_DATA, NVR_CLK, KBD_XMIT.
	PortFlags uint32 = 0x42

	// PortBrightness (write) latches the screen brightness DAC value;
	// shares PortFlags' port number, distinguished by direction.
	PortBrightness uint32 = 0x42

	// PortNVRLatch (write) stores the ER1400's one-byte command latch
	// (serial data bit + 3-bit opcode); the latched command executes on
	// the next LBA7 rising edge observed during a PortFlags read.
	PortNVRLatch uint32 = 0x62

	// PortKeyboardUART (read) returns the scanned key address (bit 7
	// masked off, KEYLAST ending a scan) from the keyboard scanner UART;
	// (write) loads the
	// UART status byte (LEDs, START bit) that begins a new scan.
	PortKeyboardUART uint32 = 0x82

	// PortDC012 (write) drives the video control chip's command table:
	// scroll offset, blink toggle, vertical-frequency interrupt clear,
	// reverse field and basic attribute.
	PortDC012 uint32 = 0xA2

	// PortDC011 (write) programs the video timing chip: column count
	// (80/132) and refresh rate (50/60 Hz).
	PortDC011 uint32 = 0xC2
)
