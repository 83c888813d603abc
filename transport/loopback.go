package transport

import (
	"errors"
	"sync"
)

// The loopback facility mimics hosts that expose networking as free
// functions over one implicit connection slot rather than as socket
// objects: start/stop the listener, poll a connected flag, and move
// bytes through the slot. The slot carries a generation counter so a
// conn synthesized for an earlier peer reads as closed once a new
// peer takes the slot.

var loop struct {
	mu        sync.Mutex
	started   bool
	connected bool
	gen       int
	toServer  []byte
	toPeer    []byte
}

func loopStart() {
	loop.mu.Lock()
	defer loop.mu.Unlock()
	loop.started = true
	loop.connected = false
	loop.toServer = nil
	loop.toPeer = nil
}

func loopStop() {
	loop.mu.Lock()
	defer loop.mu.Unlock()
	loop.started = false
	loop.connected = false
}

// loopLive reports whether the given generation still owns the slot.
func loopLive(gen int) bool {
	loop.mu.Lock()
	defer loop.mu.Unlock()
	return loop.connected && loop.gen == gen
}

func loopSend(gen int, toPeer bool, data []byte) bool {
	loop.mu.Lock()
	defer loop.mu.Unlock()
	if !loop.connected || loop.gen != gen {
		return false
	}
	if toPeer {
		loop.toPeer = append(loop.toPeer, data...)
	} else {
		loop.toServer = append(loop.toServer, data...)
	}
	return true
}

func loopRecv(gen int, fromPeer bool) []byte {
	loop.mu.Lock()
	defer loop.mu.Unlock()
	if loop.gen != gen {
		return nil
	}
	var data []byte
	if fromPeer {
		data = loop.toServer
		loop.toServer = nil
	} else {
		data = loop.toPeer
		loop.toPeer = nil
	}
	return data
}

func loopDrop(gen int) {
	loop.mu.Lock()
	defer loop.mu.Unlock()
	if loop.gen == gen {
		loop.connected = false
	}
}

// NewLoopback starts the in-process slot listener. Used by the sim
// host and by tests; only one loopback server can exist at a time.
func NewLoopback(cfg Config) (Server, error) {
	loop.mu.Lock()
	started := loop.started
	loop.mu.Unlock()
	if started {
		return nil, errors.New("loopback already started")
	}
	loopStart()
	return &loopServer{}, nil
}

// DialLoopback connects the peer side of the slot. It fails when the
// listener is not started or another peer already holds the slot.
func DialLoopback() (Conn, error) {
	loop.mu.Lock()
	defer loop.mu.Unlock()
	if !loop.started {
		return nil, errors.New("loopback not listening")
	}
	if loop.connected {
		return nil, errors.New("loopback slot in use")
	}
	loop.gen++
	loop.connected = true
	loop.toServer = nil
	loop.toPeer = nil
	return &loopConn{gen: loop.gen, peerSide: true}, nil
}

type loopServer struct {
	acceptedGen int
}

func (s *loopServer) Accept() (Conn, error) {
	loop.mu.Lock()
	defer loop.mu.Unlock()
	if !loop.connected || loop.gen == s.acceptedGen {
		return nil, nil
	}
	s.acceptedGen = loop.gen
	return &loopConn{gen: loop.gen}, nil
}

func (s *loopServer) Addr() string {
	return "loopback://"
}

func (s *loopServer) Close() error {
	loopStop()
	return nil
}

type loopConn struct {
	gen      int
	peerSide bool
	lb       LineBuffer
}

func (c *loopConn) Send(data []byte) error {
	if !loopSend(c.gen, !c.peerSide, data) {
		return ErrClosed
	}
	return nil
}

func (c *loopConn) ReceiveLine() (string, error) {
	if line, ok := c.lb.Line(); ok {
		return line, nil
	}
	if data := loopRecv(c.gen, !c.peerSide); len(data) > 0 {
		c.lb.Write(data)
	}
	if line, ok := c.lb.Line(); ok {
		return line, nil
	}
	if !loopLive(c.gen) {
		return "", ErrClosed
	}
	return "", ErrTimeout
}

func (c *loopConn) Close() error {
	loopDrop(c.gen)
	return nil
}
