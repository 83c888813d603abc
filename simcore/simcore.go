// Package simcore provides a deterministic in-memory host for
// protocol development and tests. It implements the full capability
// surface the bridge consumes (byte-addressable little-endian RAM,
// input injection, a frame counter) without any real emulation
// behind it.
package simcore

import emucore "github.com/user-none/emubridge/api"

// Core is a RAM slab with a frame counter. It is frame-driven like a
// real core and not safe for concurrent use; the owner steps it and
// ticks the bridge from a single goroutine.
type Core struct {
	ram     []byte
	frame   uint64
	buttons uint32
}

// New creates a core with ramSize bytes of zeroed memory.
func New(ramSize int) *Core {
	return &Core{ram: make([]byte, ramSize)}
}

// Read8 reads one byte. Out-of-range addresses read as zero, the way
// open-bus reads come back on the handhelds this stands in for.
func (c *Core) Read8(addr uint32) uint32 {
	if int(addr) >= len(c.ram) {
		return 0
	}
	return uint32(c.ram[addr])
}

// Read16 reads a little-endian 16-bit value.
func (c *Core) Read16(addr uint32) uint32 {
	return c.Read8(addr) | c.Read8(addr+1)<<8
}

// Read32 reads a little-endian 32-bit value.
func (c *Core) Read32(addr uint32) uint32 {
	return c.Read16(addr) | c.Read16(addr+2)<<16
}

// SetButtons records the input mask applied for the current frame.
func (c *Core) SetButtons(buttons uint32) {
	c.buttons = buttons
}

// Buttons returns the most recently applied input mask.
func (c *Core) Buttons() uint32 {
	return c.buttons
}

// FrameCount returns the number of frames stepped.
func (c *Core) FrameCount() uint64 {
	return c.frame
}

// StepFrame advances emulated time by one frame.
func (c *Core) StepFrame() {
	c.frame++
}

// Poke8 writes one byte, silently ignoring out-of-range addresses.
func (c *Core) Poke8(addr uint32, value byte) {
	if int(addr) < len(c.ram) {
		c.ram[addr] = value
	}
}

// Poke16 writes a little-endian 16-bit value.
func (c *Core) Poke16(addr uint32, value uint16) {
	c.Poke8(addr, byte(value))
	c.Poke8(addr+1, byte(value>>8))
}

// Poke32 writes a little-endian 32-bit value.
func (c *Core) Poke32(addr uint32, value uint32) {
	c.Poke16(addr, uint16(value))
	c.Poke16(addr+2, uint16(value>>16))
}

var _ emucore.Host = (*Core)(nil)
