// host_keyboard.go - Host input adapter shared by both video backends
//
// The same rune/special-key-to-scan-code table and clipboard paste logic
// are needed by both video_backend_ebiten.go (via ebiten's input polling)
// and video_backend_headless.go (via golang.org/x/term's raw-mode stdin
// reads), so this file holds the backend-independent half.
package main

import "golang.design/x/clipboard"

// pasteByteCap bounds how much clipboard text a single Ctrl+Shift+V paste
// injects, so a huge clipboard can't feed the keyboard UART's active-key
// set for an unreasonable stretch.
const pasteByteCap = 4096

// Scan codes for host "named" keys (not representable as a single rune) in
// this core's own keyboard scan-code space; codes 0-0x1F here are reserved
// for keys with no direct ASCII rune.
const (
	scanReturn    = 0x00
	scanBackspace = 0x01
	scanTab       = 0x02
	scanEscape    = 0x03
	scanArrowUp   = 0x04
	scanArrowDown = 0x05
	scanArrowLeft = 0x06
	scanArrowRight = 0x07
	scanHome      = 0x08
	scanEnd       = 0x09
	scanDelete    = 0x0A
)

// runeToScanCode maps a printable rune onto a scan code equal to its ASCII
// value (0x20-0x7E), the simplest code space VT100 CORE's firmware-facing
// API can use directly.
func runeToScanCode(r rune) (byte, bool) {
	if r < 0x20 || r > 0x7E {
		return 0, false
	}
	return byte(r), true
}

// clipboardPasteScanCodes reads the system clipboard and returns the scan
// codes to feed into a KeyboardUART as a burst of press/release pairs.
// clipboardOK should be cached by the caller (clipboard.Init() talks to
// the host windowing system and is not cheap to call per keystroke).
func clipboardPasteScanCodes() []byte {
	data := clipboard.Read(clipboard.FmtText)
	if len(data) == 0 {
		return nil
	}
	data = normalizePasteText(data)
	if len(data) > pasteByteCap {
		data = data[:pasteByteCap]
	}
	out := make([]byte, 0, len(data))
	for _, b := range data {
		if b == '\n' {
			out = append(out, scanReturn)
			continue
		}
		if code, ok := runeToScanCode(rune(b)); ok {
			out = append(out, code)
		}
	}
	return out
}

// normalizePasteText collapses CRLF and lone CR into a single LF, matching
// how a VT100 keyboard's own Return key is encoded.
func normalizePasteText(raw []byte) []byte {
	norm := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\r' {
			if i+1 < len(raw) && raw[i+1] == '\n' {
				i++
			}
			norm = append(norm, '\n')
			continue
		}
		norm = append(norm, raw[i])
	}
	return norm
}

// feedKeyPress presses and, for backends with no discrete key-up event,
// immediately releases a scan code on kbd.
func feedKeyPress(kbd *KeyboardUART, code byte) {
	kbd.PressKey(code)
	kbd.ReleaseKey(code)
}

// pasteInto feeds a whole clipboard burst through kbd as a rapid sequence
// of discrete press/release transitions, exactly as if they had been typed.
func pasteInto(kbd *KeyboardUART) {
	for _, code := range clipboardPasteScanCodes() {
		feedKeyPress(kbd, code)
	}
}
