package transport

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

const defaultSerialBaud = 115200

// NewSerial bridges over a serial port. A serial line has no accept
// primitive and no connection objects at all: the open port is a
// single implicit slot, so the shim synthesizes one Conn on top of it
// and re-opens the port whenever that conn fails, which stands in for
// a fresh accept.
func NewSerial(cfg Config) (Server, error) {
	if cfg.SerialDevice == "" {
		return nil, errors.New("no serial device configured")
	}
	baud := cfg.SerialBaud
	if baud == 0 {
		baud = defaultSerialBaud
	}
	s := &serialServer{device: cfg.SerialDevice, baud: baud}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

type serialServer struct {
	device string
	baud   int
	port   *serial.Port
	active bool
}

func (s *serialServer) open() error {
	port, err := serial.OpenPort(&serial.Config{
		Name:        s.device,
		Baud:        s.baud,
		ReadTimeout: pollDeadline,
	})
	if err != nil {
		return fmt.Errorf("open %s: %w", s.device, err)
	}
	s.port = port
	return nil
}

func (s *serialServer) Accept() (Conn, error) {
	if s.active {
		return nil, nil
	}
	if s.port == nil {
		// Previous conn failed; re-arm the slot.
		if err := s.open(); err != nil {
			return nil, err
		}
	}
	s.active = true
	return &serialConn{srv: s}, nil
}

func (s *serialServer) Addr() string {
	return "serial://" + s.device
}

func (s *serialServer) Close() error {
	s.active = false
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

// release marks the slot free and drops the port so the next Accept
// re-opens it.
func (s *serialServer) release() {
	s.active = false
	if s.port != nil {
		s.port.Close()
		s.port = nil
	}
}

type serialConn struct {
	srv *serialServer
	lb  LineBuffer
}

func (c *serialConn) Send(data []byte) error {
	if c.srv.port == nil {
		return ErrClosed
	}
	if _, err := c.srv.port.Write(data); err != nil {
		c.srv.release()
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return nil
}

func (c *serialConn) ReceiveLine() (string, error) {
	if line, ok := c.lb.Line(); ok {
		return line, nil
	}
	if c.srv.port == nil {
		return "", ErrClosed
	}
	var scratch [4096]byte
	deadline := time.Now().Add(pollDeadline)
	for {
		n, err := c.srv.port.Read(scratch[:])
		if n > 0 {
			c.lb.Write(scratch[:n])
			if line, ok := c.lb.Line(); ok {
				return line, nil
			}
		}
		if err != nil && err != io.EOF {
			c.srv.release()
			return "", fmt.Errorf("%w: %v", ErrClosed, err)
		}
		// A zero-byte read is the port's read timeout, not a hangup;
		// serial lines have no out-of-band disconnect signal.
		if n == 0 || time.Now().After(deadline) {
			return "", ErrTimeout
		}
	}
}

func (c *serialConn) Close() error {
	c.srv.release()
	return nil
}
