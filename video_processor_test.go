package main

import "testing"

func newTestVideoProcessor(t *testing.T) (*VideoProcessor, *Bus) {
	t.Helper()
	log := newLogSink(nil, logError)
	mem := NewBus("mem", BusStatic, 16, 1, 8, true, log)
	if err := mem.AddBlocks(0, 0x10000, BlockReadWrite, nil); err != nil {
		t.Fatalf("AddBlocks: %v", err)
	}
	p := NewVideoProcessor(mem, nil, log)
	return p, mem
}

// writeLine writes one display-list line at addr: the character bytes,
// then the 0x7F terminator, then the descriptor byte, then the next-line
// low-address byte.
func writeLine(mem *Bus, addr uint32, chars []byte, descriptor, nextLow byte) {
	cursor := addr
	for _, c := range chars {
		mem.WriteData(cursor, c)
		cursor++
	}
	mem.WriteData(cursor, dlTerminator)
	cursor++
	mem.WriteData(cursor, descriptor)
	cursor++
	mem.WriteData(cursor, nextLow)
}

// Scenario 6 (spec §8): memory at 0x2000 holds "//" terminated by 0x7F, a
// descriptor 0x20 (DHIGH font for the next line, bias 0x4000) and
// next-low 0x10, and - after the rate=60 fill-line delay elapses
// untouched - row 0 carries that line's content verbatim in the NORML
// font every walk starts with.
func TestVideoProcessorResolvesScenario6(t *testing.T) {
	p, mem := newTestVideoProcessor(t)
	mem.WriteData(0x2000, 0x2F)
	mem.WriteData(0x2001, 0x2F)
	mem.WriteData(0x2002, 0x7F)
	mem.WriteData(0x2003, 0x20)
	mem.WriteData(0x2004, 0x10)
	p.SetDisplayListHead(0x2000)
	p.UpdateRate(60)

	p.Resolve(1)

	rows := p.Rows()
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if string(rows[0].Chars) != "//" {
		t.Fatalf("row 0 chars = %q, want %q", rows[0].Chars, "//")
	}
	if rows[0].Font != FontNormal {
		t.Fatalf("row 0 font = %v, want FontNormal", rows[0].Font)
	}
}

// Scenario: a multi-line display list resolves each row from its own
// descriptor-named address, following the self-linked chain.
func TestVideoProcessorResolvesMultiLineList(t *testing.T) {
	p, mem := newTestVideoProcessor(t)
	writeLine(mem, 0x2000, []byte("AB"), dlFontNorml|dlBiasBit, 0x10) // next = 0x2000+0x10 = 0x2010
	writeLine(mem, 0x2010, []byte("CD"), dlFontNorml|dlBiasBit, 0x10) // next = 0x2010 (self-link), unused: walk stops at visibleRows
	p.SetDisplayListHead(0x2000)
	p.UpdateRate(60)

	p.Resolve(2)

	rows := p.Rows()
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if string(rows[0].Chars) != "AB" {
		t.Fatalf("row 0 chars = %q, want %q", rows[0].Chars, "AB")
	}
	if string(rows[1].Chars) != "CD" {
		t.Fatalf("row 1 chars = %q, want %q", rows[1].Chars, "CD")
	}
}

func TestVideoProcessorFillsShortList(t *testing.T) {
	p, mem := newTestVideoProcessor(t)
	writeLine(mem, 0x4000, []byte("X"), dlFontNorml, 0x00) // bias clear, nibble 0 -> next = 0x4000, self-link
	p.SetDisplayListHead(0x4000)
	p.UpdateRate(60)

	p.Resolve(4)

	rows := p.Rows()
	if len(rows) != 4 {
		t.Fatalf("len(rows) = %d, want 4", len(rows))
	}
	if string(rows[0].Chars) != "X" {
		t.Fatalf("row 0 chars = %q, want %q", rows[0].Chars, "X")
	}
	for i := 1; i < 4; i++ {
		if len(rows[i].Chars) != p.ColumnCount() {
			t.Fatalf("row %d len = %d, want blank row of width %d", i, len(rows[i].Chars), p.ColumnCount())
		}
	}
}

// A line whose descriptor/low bytes resolve to its own start address must
// stop the walk rather than loop forever, padding the remaining rows blank.
func TestVideoProcessorNonAdvancingLinkStopsWalk(t *testing.T) {
	p, mem := newTestVideoProcessor(t)
	writeLine(mem, 0x2000, []byte("Z"), dlFontNorml|dlBiasBit, 0x00)
	p.SetDisplayListHead(0x2000)
	p.UpdateRate(60)

	p.Resolve(3)

	rows := p.Rows()
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	if string(rows[0].Chars) != "Z" {
		t.Fatalf("row 0 chars = %q, want %q", rows[0].Chars, "Z")
	}
	for i := 1; i < 3; i++ {
		if len(rows[i].Chars) != p.ColumnCount() {
			t.Fatalf("row %d not padded blank: %q", i, rows[i].Chars)
		}
	}
}

// Resolving twice with unchanged memory must leave every row undirtied on
// the second pass, and a changed line must mark only that row dirty.
func TestVideoProcessorDirtyRowTracking(t *testing.T) {
	p, mem := newTestVideoProcessor(t)
	writeLine(mem, 0x2000, []byte("A"), dlFontNorml|dlBiasBit, 0x10)
	writeLine(mem, 0x2010, []byte("B"), dlFontNorml|dlBiasBit, 0x10)
	p.SetDisplayListHead(0x2000)
	p.UpdateRate(60)

	p.Resolve(2)
	if dirty := p.DirtyRows(); len(dirty) != 2 {
		t.Fatalf("first resolve dirty rows = %v, want both rows dirty", dirty)
	}

	p.Resolve(2)
	if dirty := p.DirtyRows(); len(dirty) != 0 {
		t.Fatalf("second resolve (unchanged) dirty rows = %v, want none", dirty)
	}

	mem.WriteData(0x2010, 'C')
	p.Resolve(2)
	dirty := p.DirtyRows()
	if len(dirty) != 1 || dirty[0] != 1 {
		t.Fatalf("third resolve dirty rows = %v, want [1]", dirty)
	}
}

func TestVideoProcessorRateChangeTakesEffectImmediately(t *testing.T) {
	p, _ := newTestVideoProcessor(t)
	if p.rate != 60 {
		t.Fatalf("default rate = %d, want 60", p.rate)
	}
	p.UpdateRate(50)
	if p.rate != 50 {
		t.Fatalf("rate after UpdateRate(50) = %d, want 50", p.rate)
	}
}
