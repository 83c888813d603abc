// Package snapshot reads a fixed set of named memory cells from the
// host and packages them, with the running frame counter, into the
// per-frame state pushed to the peer.
package snapshot

import (
	"errors"
	"fmt"

	emucore "github.com/user-none/emubridge/api"
)

// FrameName is the reserved watcher name carrying the host frame
// counter instead of a memory read.
const FrameName = "frame"

// Watcher describes one named fixed-width unsigned memory read.
type Watcher struct {
	Name    string
	Address uint32
	Size    int // 1, 2 or 4 bytes
}

// ErrUnsupportedWidth reports a watcher whose width has no host read
// signature. Raised at validation, never per frame.
var ErrUnsupportedWidth = errors.New("snapshot: unsupported watcher width")

// ErrUnknownDomain reports a memory domain the host does not expose.
var ErrUnknownDomain = errors.New("snapshot: unknown memory domain")

// Source gathers snapshots for a fixed watcher list. The memory
// domain is resolved once at construction; Gather never fails.
type Source struct {
	mem      emucore.MemoryReader
	frames   emucore.FrameCounter
	watchers []Watcher
}

// NewSource validates the watcher list against the host and resolves
// the memory domain up front. A watcher that cannot be read once can
// never be read under a fixed configuration, so any problem here is a
// startup error.
func NewSource(host emucore.Host, domain string, watchers []Watcher) (*Source, error) {
	mem := emucore.MemoryReader(host)
	if domain != "" {
		dr, ok := host.(emucore.DomainMemoryReader)
		if !ok {
			return nil, fmt.Errorf("%w: %q (host has a single implicit domain)", ErrUnknownDomain, domain)
		}
		bound, ok := dr.DomainReader(domain)
		if !ok {
			return nil, fmt.Errorf("%w: %q (host exposes %v)", ErrUnknownDomain, domain, dr.Domains())
		}
		mem = bound
	}

	for _, w := range watchers {
		if w.Name == "" {
			return nil, errors.New("snapshot: watcher with empty name")
		}
		if w.Name == FrameName {
			// Reserved; carries the frame counter, not a read.
			continue
		}
		switch w.Size {
		case 1, 2, 4:
		default:
			return nil, fmt.Errorf("%w: watcher %q has size %d", ErrUnsupportedWidth, w.Name, w.Size)
		}
	}

	// The source owns its copy; the set is immutable for the session.
	owned := make([]Watcher, len(watchers))
	copy(owned, watchers)

	return &Source{mem: mem, frames: host, watchers: owned}, nil
}

// Watchers returns the session's watcher list.
func (s *Source) Watchers() []Watcher {
	return s.watchers
}

// Gather reads every watcher and returns a fresh snapshot including
// the frame counter. The returned map is never retained or mutated by
// the source.
func (s *Source) Gather() map[string]uint64 {
	snap := make(map[string]uint64, len(s.watchers)+1)
	for _, w := range s.watchers {
		if w.Name == FrameName {
			continue
		}
		switch w.Size {
		case 1:
			snap[w.Name] = uint64(s.mem.Read8(w.Address))
		case 2:
			snap[w.Name] = uint64(s.mem.Read16(w.Address))
		case 4:
			snap[w.Name] = uint64(s.mem.Read32(w.Address))
		}
	}
	snap[FrameName] = s.frames.FrameCount()
	return snap
}
