// video_processor.go - Character-cell video processor
//
// A backing cell grid plus dirty-region redraw, built by walking the
// self-linked display list the VT100 firmware maintains in RAM: each
// line is a run of character bytes terminated by 0x7F, followed by one
// attribute/address-descriptor byte and one address-low byte that
// together name the font variation for the *next* line and that line's
// start address (a 12-bit offset plus a 0x2000/0x4000 bias selected by
// the descriptor's bit 4). The processor does not draw pixels itself -
// it resolves the display list into a flat slice of cell rows that a
// drawingSurface (video_backend_ebiten.go / video_backend_headless.go)
// paints.
package main

// Display-list byte layout.
const (
	dlTerminator = 0x7F

	// Font field occupies bits 6-5 of the line descriptor byte.
	dlFontMask    = 0x60
	dlFontNorml   = 0x60
	dlFontDWide   = 0x40
	dlFontDHigh   = 0x20
	dlFontDHighBT = 0x00

	dlAddrHighMask = 0x0F // descriptor bits 3-0: high nibble of next address
	dlBiasBit      = 0x10 // descriptor bit 4: 0 -> bias 0x4000, 1 -> bias 0x2000
)

// FontVariation selects how a display-list line's characters are rendered.
type FontVariation int

const (
	FontNormal FontVariation = iota
	FontDoubleWide
	FontDoubleHighTop
	FontDoubleHighBottom
)

func fontFromAttr(attr byte) FontVariation {
	switch attr & dlFontMask {
	case dlFontNorml:
		return FontNormal
	case dlFontDWide:
		return FontDoubleWide
	case dlFontDHigh:
		return FontDoubleHighTop
	default: // dlFontDHighBT
		return FontDoubleHighBottom
	}
}

// CellRow is one resolved, visible scan line: the character bytes read
// between the line's start and its 0x7F terminator, and the font
// variation that applies to the whole row (VT100 double-height/width
// lines are whole-row, never per-character). Reverse video is not a
// per-cell attribute in this wire format - it is a whole-screen flag
// DC012 latches, read through VT100Chips.ReverseVideo by whatever backend
// paints these rows.
type CellRow struct {
	Chars []byte
	Font  FontVariation
	dirty bool
}

// VideoProcessor walks the display list each frame and caches the
// resolved rows, so a backend can redraw only rows whose content or font
// actually changed since the previous frame.
type VideoProcessor struct {
	mem *Bus
	vt  *VT100Chips

	displayListHead uint32
	lineWidth       int // 80 or 132, pushed by VT100Chips.WriteDC011
	rate            int // 50 or 60, pushed by VT100Chips.WriteDC011

	rows     []CellRow
	lastRows []CellRow

	scrollOffset int
	log          *logSink
}

// NewVideoProcessor constructs a processor reading character data from
// mem, seeding its column/rate configuration from vt's current settings
// (vt itself is wired up after construction via VT100Chips.SetVideo).
func NewVideoProcessor(mem *Bus, vt *VT100Chips, log *logSink) *VideoProcessor {
	p := &VideoProcessor{mem: mem, vt: vt, lineWidth: 80, rate: 60, log: log}
	if vt != nil {
		p.lineWidth = vt.Columns()
		p.rate = vt.RefreshRate()
	}
	return p
}

// SetDisplayListHead points the processor at the first line of the
// display list (normally written once by the firmware's screen-init code,
// then left alone - the list is self-linked from there).
func (p *VideoProcessor) SetDisplayListHead(addr uint32) { p.displayListHead = addr }

// UpdateRate is pushed by VT100Chips.WriteDC011 on a refresh-rate change;
// it sets the fill-line count Resolve computes, which does not change
// which lines the walk reads.
func (p *VideoProcessor) UpdateRate(hz int) { p.rate = hz }

// UpdateDimensions is pushed by VT100Chips.WriteDC011 on a column-count
// change; rows is accepted for parity with the chip's notification but
// this processor derives visible row count from VT100Chips.Rows at
// Resolve time rather than caching it twice.
func (p *VideoProcessor) UpdateDimensions(cols, rows int) {
	p.lineWidth = cols
	p.rows = nil
	p.lastRows = nil
}

// UpdateScrollOffset is pushed immediately by VT100Chips.WriteDC012's
// scroll-high command, rather than lazily polled during Resolve.
func (p *VideoProcessor) UpdateScrollOffset(offset int) { p.scrollOffset = offset }

// RowCount reports how many visible rows the next Resolve call should
// produce, driven by the chip ensemble's current 24/14-row configuration.
func (p *VideoProcessor) RowCount() int {
	if p.vt != nil {
		return p.vt.Rows()
	}
	return 24
}

// maxWalk bounds a single display-list walk independent of the visible
// row count, guarding against an unbounded loop on a corrupt/cyclic list.
const maxWalk = 4096

// Resolve walks the display list from the head, filling p.rows with
// visibleRows resolved lines. A rate-dependent count of fill lines (2 @
// 60Hz, 5 @ 50Hz) elapses first - time the real chip spends on
// unaddressed scan lines while its line buffer warms up, touching neither
// memory nor the display-list pointer - so the walk proper always starts
// reading from the display-list head itself, never partway through it.
func (p *VideoProcessor) Resolve(visibleRows int) {
	fillLines := 2
	if p.rate != 60 {
		fillLines = 5
	}
	_ = fillLines // pure delay: no memory read, no pointer change

	p.lastRows = p.rows
	p.rows = p.rows[:0]

	addr := p.displayListHead
	font := FontNormal // font_next sentinel: the first row renders NORML until a line descriptor overrides it

	limit := visibleRows
	if limit > maxWalk {
		limit = maxWalk
	}
	for i := 0; i < limit; i++ {
		chars, descriptor, low, ok := p.readLine(addr)
		if !ok {
			break
		}

		thisFont := font
		font = fontFromAttr(descriptor)

		next := uint32(descriptor&dlAddrHighMask)<<8 | uint32(low)
		if descriptor&dlBiasBit != 0 {
			next += 0x2000
		} else {
			next += 0x4000
		}

		p.appendRow(len(p.rows), chars, thisFont)

		if next == addr {
			break // non-advancing link: corrupt or truncated list
		}
		addr = next
	}

	if len(p.rows) < visibleRows {
		p.fillRemainder(visibleRows)
	}
}

// readLine reads one display-list line starting at addr: character bytes
// up to (not including) the 0x7F terminator, then the descriptor byte and
// the next-line low-address byte that follow it.
func (p *VideoProcessor) readLine(addr uint32) (chars []byte, descriptor, low byte, ok bool) {
	cursor := addr
	for n := 0; n < maxWalk; n++ {
		b := p.mem.ReadData(cursor)
		cursor++
		if b == dlTerminator {
			descriptor = p.mem.ReadData(cursor)
			cursor++
			low = p.mem.ReadData(cursor)
			return chars, descriptor, low, true
		}
		chars = append(chars, b)
	}
	return nil, 0, 0, false
}

func (p *VideoProcessor) appendRow(idx int, chars []byte, font FontVariation) {
	row := CellRow{Chars: chars, Font: font}
	row.dirty = p.rowChanged(idx, row)
	p.rows = append(p.rows, row)
}

// fillRemainder pads a short display list with blank rows, so a backend
// always gets a full frame even mid-reconfiguration.
func (p *VideoProcessor) fillRemainder(visibleRows int) {
	blank := CellRow{Chars: make([]byte, p.lineWidth), Font: FontNormal}
	for len(p.rows) < visibleRows {
		p.rows = append(p.rows, blank)
	}
}

func (p *VideoProcessor) rowChanged(idx int, row CellRow) bool {
	if idx >= len(p.lastRows) {
		return true
	}
	prev := p.lastRows[idx]
	if prev.Font != row.Font || len(prev.Chars) != len(row.Chars) {
		return true
	}
	for i := range row.Chars {
		if prev.Chars[i] != row.Chars[i] {
			return true
		}
	}
	return false
}

// Rows returns the most recently resolved cell rows.
func (p *VideoProcessor) Rows() []CellRow { return p.rows }

// DirtyRows returns the indices of rows that changed since the previous
// Resolve call, for backends that redraw incrementally.
func (p *VideoProcessor) DirtyRows() []int {
	var dirty []int
	for i, r := range p.rows {
		if r.dirty {
			dirty = append(dirty, i)
		}
	}
	return dirty
}

// ColumnCount reports the currently configured line width (80 or 132).
func (p *VideoProcessor) ColumnCount() int { return p.lineWidth }

// ScrollOffset reports the smooth-scroll offset last pushed by DC012.
func (p *VideoProcessor) ScrollOffset() int { return p.scrollOffset }
