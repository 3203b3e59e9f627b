// video_backend_headless.go - ANSI terminal pixel-drawing-surface backend
//
// Shares host_keyboard.go's input-handling functions with the ebiten
// backend, using golang.org/x/term for raw-mode stdin instead of ebiten's
// input polling. This backend renders CellRows as plain text with ANSI
// SGR reverse-video escapes rather than pixels, making it the default for
// CI and headless CLI runs where no window server exists.
package main

import (
	"bufio"
	"fmt"
	"os"

	"golang.org/x/term"
)

// HeadlessBackend presents VideoProcessor output as an ANSI text stream
// and reads raw keystrokes from stdin.
type HeadlessBackend struct {
	proc  *VideoProcessor
	kbd   *KeyboardUART
	chips *VT100Chips

	out    *bufio.Writer
	in     *os.File
	oldFd  int
	state  *term.State
	raw    bool
	closed bool
}

// NewHeadlessBackend constructs a backend writing to stdout and reading
// from stdin.
func NewHeadlessBackend(proc *VideoProcessor, kbd *KeyboardUART, chips *VT100Chips) *HeadlessBackend {
	return &HeadlessBackend{
		proc:  proc,
		kbd:   kbd,
		chips: chips,
		out:   bufio.NewWriter(os.Stdout),
		in:    os.Stdin,
	}
}

// Start puts stdin into raw mode and launches the background read loop
// feeding keystrokes into kbd. Call Close to restore terminal state.
func (h *HeadlessBackend) Start() error {
	fd := int(h.in.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("headless backend: make raw: %w", err)
	}
	h.oldFd = fd
	h.state = state
	h.raw = true
	go h.readLoop()
	return nil
}

func (h *HeadlessBackend) readLoop() {
	buf := make([]byte, 1)
	for {
		n, err := h.in.Read(buf)
		if err != nil {
			return
		}
		if n == 0 || h.closed {
			continue
		}
		h.dispatchByte(buf[0])
	}
}

func (h *HeadlessBackend) dispatchByte(b byte) {
	if h.kbd == nil {
		return
	}
	switch b {
	case 0x16: // Ctrl+V: paste from clipboard
		pasteInto(h.kbd)
	case '\r':
		feedKeyPress(h.kbd, scanReturn)
	case 0x7F, 0x08:
		feedKeyPress(h.kbd, scanBackspace)
	case '\t':
		feedKeyPress(h.kbd, scanTab)
	case 0x1B:
		feedKeyPress(h.kbd, scanEscape)
	default:
		if code, ok := runeToScanCode(rune(b)); ok {
			feedKeyPress(h.kbd, code)
		}
	}
}

// Present renders the processor's resolved rows as a full-screen ANSI
// repaint. Incremental redraw is intentionally not attempted here - an
// 80/132-column text repaint is cheap enough that the dirty-row tracking
// video_processor.go offers mainly benefits the pixel backend.
func (h *HeadlessBackend) Present() {
	fmt.Fprint(h.out, "\x1b[H")
	for _, row := range h.proc.Rows() {
		h.writeRow(row)
		fmt.Fprint(h.out, "\x1b[K\r\n")
	}
	h.out.Flush()
}

func (h *HeadlessBackend) writeRow(row CellRow) {
	reverse := h.chips != nil && h.chips.ReverseVideo()
	if reverse {
		fmt.Fprint(h.out, "\x1b[7m")
	}
	for _, ch := range row.Chars {
		if ch < 0x20 || ch == 0x7F {
			ch = ' '
		}
		h.out.WriteByte(ch)
	}
	if reverse {
		fmt.Fprint(h.out, "\x1b[0m")
	}
}

// Close restores the terminal's original mode.
func (h *HeadlessBackend) Close() error {
	h.closed = true
	if !h.raw {
		return nil
	}
	return term.Restore(h.oldFd, h.state)
}
