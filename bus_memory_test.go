package main

import (
	"errors"
	"testing"
)

func newTestBus() *Bus {
	log := newLogSink(nil, logError)
	return NewBus("test", BusStatic, 16, 0x100, 8, true, log)
}

func TestAddBlocksRejectsMisalignment(t *testing.T) {
	bus := newTestBus()
	if err := bus.AddBlocks(0x10, 0x100, BlockReadWrite, nil); !errors.Is(err, ErrBusMisaligned) {
		t.Fatalf("misaligned addr: err = %v, want ErrBusMisaligned", err)
	}
	if err := bus.AddBlocks(0x100, 0x50, BlockReadWrite, nil); !errors.Is(err, ErrBusMisaligned) {
		t.Fatalf("misaligned size: err = %v, want ErrBusMisaligned", err)
	}
}

func TestAddBlocksRejectsOverlap(t *testing.T) {
	bus := newTestBus()
	if err := bus.AddBlocks(0x0000, 0x200, BlockReadWrite, nil); err != nil {
		t.Fatalf("first AddBlocks: %v", err)
	}
	if err := bus.AddBlocks(0x0100, 0x200, BlockReadOnly, nil); !errors.Is(err, ErrBusOverlap) {
		t.Fatalf("overlapping AddBlocks: err = %v, want ErrBusOverlap", err)
	}
}

func TestReadWriteDataRoundTrip(t *testing.T) {
	bus := newTestBus()
	if err := bus.AddBlocks(0, 0x100, BlockReadWrite, nil); err != nil {
		t.Fatalf("AddBlocks: %v", err)
	}
	bus.WriteData(0x42, 0x99)
	if got := bus.ReadData(0x42); got != 0x99 {
		t.Fatalf("ReadData(0x42) = %#02x, want 0x99", got)
	}
}

func TestReadOnlyBlockIgnoresWrites(t *testing.T) {
	bus := newTestBus()
	if err := bus.AddBlocks(0, 0x100, BlockReadOnly, nil); err != nil {
		t.Fatalf("AddBlocks: %v", err)
	}
	bus.WriteData(0x10, 0x55)
	if got := bus.ReadData(0x10); got != 0x00 {
		t.Fatalf("ReadData after write to READONLY block = %#02x, want 0x00", got)
	}
}

func TestUnmappedBlockReadsAllOnes(t *testing.T) {
	bus := newTestBus()
	if got := bus.ReadData(0x1234); got != 0xFF {
		t.Fatalf("ReadData of unmapped NONE block = %#02x, want 0xFF", got)
	}
}

func TestReadPairWritePairHonourEndianness(t *testing.T) {
	little := newTestBus()
	if err := little.AddBlocks(0, 0x100, BlockReadWrite, nil); err != nil {
		t.Fatalf("AddBlocks: %v", err)
	}
	little.WritePair(0x20, 0xABCD)
	if got := little.ReadData(0x20); got != 0xCD {
		t.Fatalf("little-endian low byte = %#02x, want 0xCD", got)
	}
	if got := little.ReadData(0x21); got != 0xAB {
		t.Fatalf("little-endian high byte = %#02x, want 0xAB", got)
	}
	if got := little.ReadPair(0x20); got != 0xABCD {
		t.Fatalf("ReadPair = %#04x, want 0xABCD", got)
	}

	log := newLogSink(nil, logError)
	big := NewBus("big", BusStatic, 16, 0x100, 8, false, log)
	if err := big.AddBlocks(0, 0x100, BlockReadWrite, nil); err != nil {
		t.Fatalf("AddBlocks: %v", err)
	}
	big.WritePair(0x20, 0xABCD)
	if got := big.ReadData(0x20); got != 0xAB {
		t.Fatalf("big-endian high byte first = %#02x, want 0xAB", got)
	}
	if got := big.ReadPair(0x20); got != 0xABCD {
		t.Fatalf("big-endian ReadPair = %#04x, want 0xABCD", got)
	}
}

func TestReadPairWrapsAtAddressLimit(t *testing.T) {
	bus := newTestBus()
	if err := bus.AddBlocks(0, 0x10000, BlockReadWrite, nil); err != nil {
		t.Fatalf("AddBlocks: %v", err)
	}
	bus.WritePair(0xFFFF, 0x1234)
	if got := bus.ReadData(0xFFFF); got != 0x34 {
		t.Fatalf("low byte at top of address space = %#02x, want 0x34", got)
	}
	if got := bus.ReadData(0x0000); got != 0x12 {
		t.Fatalf("high byte wrapped to 0 = %#02x, want 0x12", got)
	}
}

func TestTrapInstallSameFuncIdentityCoalesces(t *testing.T) {
	bus := newTestBus()
	if err := bus.AddBlocks(0, 0x100, BlockReadWrite, nil); err != nil {
		t.Fatalf("AddBlocks: %v", err)
	}
	calls := 0
	trap := func(addr uint32, value byte) { calls++ }
	if !bus.TrapWrite(0x10, trap) {
		t.Fatal("first TrapWrite install failed")
	}
	if !bus.TrapWrite(0x10, trap) {
		t.Fatal("second TrapWrite with same identity should coalesce, not fail")
	}
	bus.WriteData(0x10, 1)
	if calls != 1 {
		t.Fatalf("trap called %d times for one write, want 1", calls)
	}
	// Two UntrapWrite calls are needed to fully remove a twice-installed trap.
	if !bus.UntrapWrite(0x10, trap) {
		t.Fatal("first UntrapWrite failed")
	}
	bus.WriteData(0x10, 2)
	if calls != 2 {
		t.Fatalf("trap should still be installed after one UntrapWrite, calls = %d", calls)
	}
	if !bus.UntrapWrite(0x10, trap) {
		t.Fatal("second UntrapWrite failed")
	}
	bus.WriteData(0x10, 3)
	if calls != 2 {
		t.Fatalf("trap fired after being fully removed, calls = %d", calls)
	}
}

func TestTrapInstallDifferentFuncRejected(t *testing.T) {
	bus := newTestBus()
	if err := bus.AddBlocks(0, 0x100, BlockReadWrite, nil); err != nil {
		t.Fatalf("AddBlocks: %v", err)
	}
	first := func(addr uint32, value byte) {}
	second := func(addr uint32, value byte) {}
	if !bus.TrapRead(0x10, first) {
		t.Fatal("first TrapRead install failed")
	}
	if bus.TrapRead(0x10, second) {
		t.Fatal("a distinct trap func should not install over an existing one")
	}
}

func TestPortsBlockListenerDispatch(t *testing.T) {
	log := newLogSink(nil, logError)
	bus := NewBus("io", BusDynamic, 16, 1, 8, true, log)
	if err := bus.AddPortsBlock(0, 0x10000); err != nil {
		t.Fatalf("AddPortsBlock: %v", err)
	}
	var written byte
	err := bus.AddListener(0x80,
		func(port uint32) byte { return 0x42 },
		func(port uint32, value byte) { written = value })
	if err != nil {
		t.Fatalf("AddListener: %v", err)
	}
	if got := bus.ReadData(0x80); got != 0x42 {
		t.Fatalf("ReadData on listened port = %#02x, want 0x42", got)
	}
	bus.WriteData(0x80, 0x07)
	if written != 0x07 {
		t.Fatalf("output listener saw %#02x, want 0x07", written)
	}
}

func TestPortsBlockListenerCollision(t *testing.T) {
	log := newLogSink(nil, logError)
	bus := NewBus("io", BusDynamic, 16, 1, 8, true, log)
	if err := bus.AddPortsBlock(0, 0x10000); err != nil {
		t.Fatalf("AddPortsBlock: %v", err)
	}
	in := func(port uint32) byte { return 0 }
	if err := bus.AddListener(0x20, in, nil); err != nil {
		t.Fatalf("first AddListener: %v", err)
	}
	if err := bus.AddListener(0x20, in, nil); !errors.Is(err, ErrPortCollision) {
		t.Fatalf("second input listener at same port: err = %v, want ErrPortCollision", err)
	}
	// A listener for the other direction at the same port is fine.
	if err := bus.AddListener(0x20, nil, func(port uint32, value byte) {}); err != nil {
		t.Fatalf("output listener at same port: %v", err)
	}
}

func TestUnlistenedPortReadsAllOnes(t *testing.T) {
	log := newLogSink(nil, logError)
	bus := NewBus("io", BusDynamic, 16, 1, 8, true, log)
	if err := bus.AddPortsBlock(0, 0x10000); err != nil {
		t.Fatalf("AddPortsBlock: %v", err)
	}
	if got := bus.ReadData(0x55); got != 0xFF {
		t.Fatalf("unlistened port read = %#02x, want 0xFF", got)
	}
}
