// Package transport provides the non-blocking server and connection
// surface the bridge runs on. Several incompatible underlying
// facilities (TCP sockets, WebSocket upgrades, serial ports and an
// in-process loopback) are shimmed behind the same two interfaces so
// the frame loop never branches on the deployment.
package transport

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrTimeout reports that no complete line is buffered. It is a
// normal per-frame outcome, not a failure.
var ErrTimeout = errors.New("transport: no data pending")

// ErrClosed reports that the peer is gone. The caller tears down the
// connection and keeps the server listening.
var ErrClosed = errors.New("transport: connection closed")

// Conn is a single peer connection.
type Conn interface {
	// Send writes data to the peer. A failed send reports ErrClosed.
	Send(data []byte) error

	// ReceiveLine returns exactly one newline-terminated line, without
	// its terminator. Partial lines are buffered across calls and
	// multiple lines arriving in one underlying read are returned one
	// per call, in order. With no complete line buffered it reports
	// ErrTimeout immediately.
	ReceiveLine() (string, error)

	// Close releases the connection.
	Close() error
}

// Server accepts peer connections without blocking.
type Server interface {
	// Accept returns a pending connection, or (nil, nil) immediately
	// when no client is waiting.
	Accept() (Conn, error)

	// Addr returns a human-readable listen address for logging.
	Addr() string

	// Close stops listening.
	Close() error
}

// Config carries the backend-independent listen settings plus the
// fields individual backends need.
type Config struct {
	Host string
	Port int

	// Serial backend settings.
	SerialDevice string
	SerialBaud   int
}

// Factory binds a backend's listen entry point.
type Factory func(cfg Config) (Server, error)

// backends maps backend names to their factories. Order of probing is
// caller-defined; this map only answers what exists.
var backends = map[string]Factory{
	"tcp":       NewTCP,
	"websocket": NewWebSocket,
	"serial":    NewSerial,
	"loopback":  NewLoopback,
}

// Backends returns the names of all compiled-in backends.
func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Probe tries each named backend in order and returns the first one
// that binds. Running without a usable transport is not an option, so
// exhausting the list is a startup failure carrying every attempt.
func Probe(order []string, cfg Config) (Server, error) {
	if len(order) == 0 {
		return nil, errors.New("transport: no backends configured")
	}

	var attempts []string
	for _, name := range order {
		factory, ok := backends[name]
		if !ok {
			attempts = append(attempts, fmt.Sprintf("%s: unknown backend", name))
			continue
		}
		srv, err := factory(cfg)
		if err != nil {
			attempts = append(attempts, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		return srv, nil
	}
	return nil, fmt.Errorf("transport: no usable backend (%s)", strings.Join(attempts, "; "))
}
