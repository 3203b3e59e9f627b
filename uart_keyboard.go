// uart_keyboard.go - Keyboard scanner UART
//
// Grounded on the same status-register-plus-index-cursor idiom the scan
// protocol itself specifies: `out_uart_status` loads a status byte (LEDs,
// LOCKED, LOCAL, START, CLICK) and, on its START bit, begins a scan that
// `in_uart_address` drains one active key at a time by index, ending in a
// KEYLAST sentinel. The host-input interface this core consumes
// (get_active_key(index, map_aware)) is modelled as a plain slice of
// currently-pressed scan codes, kept current by a push-based PressKey/
// ReleaseKey pair - host_keyboard.go's ingestion API - so the scan loop
// always reads a live snapshot of what's down.
package main

// keyboardIntrLevel is the RST vector level the scanner raises: once when
// START begins a scan, then again after every key address it delivers.
// Latching the final KEYLAST raises no interrupt.
const keyboardIntrLevel = 1

// Keyboard status byte bits (write side of port 0x82).
const (
	statusLEDMask = 0x3F // bits 0-5: LED indicator bits the output device mirrors
	statusLocked  = 0x10
	statusLocal   = 0x20
	statusStart   = 0x40 // begins a new scan
	statusClick   = 0x80
)

// KEYLAST terminates a scan: latched once the active-key index runs past
// the last currently-pressed key.
const KEYLAST = 0x7F

// KeyboardUART models the keyboard scanner: a status latch the firmware
// writes to begin a scan, and a per-scan cursor (i_key_next) walking the
// host's active-key array one interrupt at a time until it is exhausted.
type KeyboardUART struct {
	status   byte
	address  byte
	busy     bool
	uartSnap uint64
	keyNext  int // -1 idle, else the next active-key index to deliver

	active []byte // currently-pressed scan codes, in press order

	cpu *CPU8080
	log *logSink
}

// NewKeyboardUART constructs a scanner wired to the CPU it interrupts.
func NewKeyboardUART(cpu *CPU8080, log *logSink) *KeyboardUART {
	return &KeyboardUART{keyNext: -1, cpu: cpu, log: log}
}

// TransmitReady reports whether the scanner is busy (from any firmware
// status write, with or without START, until KEYLAST has been delivered),
// surfaced through FLAGS' KBD_XMIT bit.
func (k *KeyboardUART) TransmitReady() bool { return k.busy }

// PressKey adds code (already mapped to a 7-bit VT100 key code) to the
// active-key set, idempotently.
func (k *KeyboardUART) PressKey(code byte) {
	code &= 0x7F
	for _, c := range k.active {
		if c == code {
			return
		}
	}
	k.active = append(k.active, code)
}

// ReleaseKey removes code from the active-key set, if present.
func (k *KeyboardUART) ReleaseKey(code byte) {
	code &= 0x7F
	for i, c := range k.active {
		if c == code {
			k.active = append(k.active[:i], k.active[i+1:]...)
			return
		}
	}
}

// GetActiveKey is the host-input interface's get_active_key(index,
// map_aware): it returns the index-th currently-pressed scan code. There
// is no separate key-map table in this core (host_keyboard.go's
// runeToScanCode already produces VT100 scan codes directly), so
// mapAware is accepted for interface parity but does not change the
// result.
func (k *KeyboardUART) GetActiveKey(index int, mapAware bool) (byte, bool) {
	if index < 0 || index >= len(k.active) {
		return 0, false
	}
	return k.active[index], true
}

// WriteStatus is out_uart_status: it diffs the incoming byte against the
// latched status for LED-bit changes, records the write, and on START
// begins a new scan.
func (k *KeyboardUART) WriteStatus(port uint32, value byte) {
	diff := value ^ k.status
	if diff&statusLEDMask != 0 && k.log != nil {
		k.log.Debugf("keyboard: LED bits changed %#02x -> %#02x", k.status&statusLEDMask, value&statusLEDMask)
	}
	k.status = value
	if k.cpu != nil {
		k.uartSnap = k.cpu.Cycles()
	}
	k.busy = true

	if value&statusStart != 0 {
		k.keyNext = 0
		if k.cpu != nil {
			k.cpu.RequestIntr(keyboardIntrLevel)
		}
	}
}

// ReadAddress is in_uart_address: while a scan is in progress it delivers
// the next active key (masking off bit 7 and treating it as if SHIFT
// were concurrently active, per the scan protocol), or KEYLAST once the
// active-key set is exhausted. Outside a scan it simply returns the last
// latched address.
func (k *KeyboardUART) ReadAddress(port uint32) byte {
	if k.keyNext < 0 {
		return k.address
	}

	code, ok := k.GetActiveKey(k.keyNext, true)
	if ok {
		if code&0x80 != 0 {
			code &= 0x7F
		}
		k.keyNext++
		k.address = code
		if k.cpu != nil {
			k.cpu.RequestIntr(keyboardIntrLevel)
		}
		return k.address
	}

	k.address = KEYLAST
	k.keyNext = -1
	k.busy = false
	return k.address
}
