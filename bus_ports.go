// bus_ports.go - Ports block: per-address input/output listener dispatch
//
// Adapted from the Intuition Engine's MapIO/IORegion pattern in
// memory_bus.go (page-keyed callback regions over a flat byte array): here
// a PORTS block is a Memory block specialisation whose "NONE" read/write
// paths are redirected through a map from absolute port number to a pair
// of listener functions, one per direction, instead of falling through to
// the all-ones default.

package main

import "fmt"

// AddPortsBlock installs a single PORTS block spanning [addr, addr+size)
// on an IO-kind bus.
func (bus *Bus) AddPortsBlock(addr, size uint32) error {
	return bus.AddBlocks(addr, size, BlockPorts, nil)
}

// AddListener registers the input/output functions for a single absolute
// port address. It fails if a listener for that direction already exists
// at that port.
func (bus *Bus) AddListener(port uint32, input func(port uint32) byte, output func(port uint32, value byte)) error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	blk, _ := bus.slotFor(port)
	if blk.typ != BlockPorts {
		return fmt.Errorf("%w: port %#x is not on a PORTS block", ErrPortCollision, port)
	}
	existing, ok := blk.listeners[port]
	if ok {
		if input != nil && existing.input != nil {
			return fmt.Errorf("%w: input listener already registered at port %#x", ErrPortCollision, port)
		}
		if output != nil && existing.output != nil {
			return fmt.Errorf("%w: output listener already registered at port %#x", ErrPortCollision, port)
		}
		if input != nil {
			existing.input = input
		}
		if output != nil {
			existing.output = output
		}
		blk.listeners[port] = existing
		return nil
	}
	blk.listeners[port] = portListener{input: input, output: output}
	return nil
}

// readPort is invoked by Bus.ReadData when the addressed block is PORTS.
// Missing entries are logged at debug level and return the all-ones mask.
func (bus *Bus) readPort(blk *Block, port uint32) byte {
	l, ok := blk.listeners[port]
	if !ok || l.input == nil {
		if bus.log != nil {
			bus.log.Debugf("bus %s: unlistened port read %#x", bus.name, port)
		}
		return bus.dataLimit()
	}
	return l.input(port)
}

// writePort is invoked by Bus.WriteData when the addressed block is PORTS.
func (bus *Bus) writePort(blk *Block, port uint32, value byte) {
	l, ok := blk.listeners[port]
	if !ok || l.output == nil {
		if bus.log != nil {
			bus.log.Debugf("bus %s: unlistened port write %#x = %#02x", bus.name, port, value)
		}
		return
	}
	l.output(port, value)
}
