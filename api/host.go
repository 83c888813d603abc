package emucore

// MemoryReader is the minimal memory surface the bridge needs from a
// host: fixed-width unsigned reads from a byte-addressable bus.
type MemoryReader interface {
	// Read8 reads one byte at addr.
	Read8(addr uint32) uint32

	// Read16 reads a little-endian 16-bit value at addr.
	Read16(addr uint32) uint32

	// Read32 reads a little-endian 32-bit value at addr.
	Read32(addr uint32) uint32
}

// DomainMemoryReader is implemented by hosts whose memory is split into
// named domains (buses). Hosts with a single implicit domain implement
// only MemoryReader.
type DomainMemoryReader interface {
	// Domains returns the available memory domain names.
	Domains() []string

	// DomainReader returns a MemoryReader bound to the named domain.
	// The bool return indicates whether the domain exists.
	DomainReader(domain string) (MemoryReader, bool)
}

// InputInjector applies controller state for the current frame.
type InputInjector interface {
	// SetButtons sets the held buttons as a bitmask for exactly the
	// frame being stepped. Buttons do not latch across frames.
	SetButtons(buttons uint32)
}

// FrameCounter reports the host's running frame count.
type FrameCounter interface {
	// FrameCount returns the number of frames stepped since power-on.
	FrameCount() uint64
}

// Host is the full capability surface the bridge consumes. The host,
// not the bridge, advances emulated time: the bridge is invoked once
// per frame between input application and the next step.
type Host interface {
	MemoryReader
	InputInjector
	FrameCounter
}
