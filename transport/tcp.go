package transport

import (
	"fmt"
	"net"
	"time"
)

// pollDeadline is the near-zero deadline applied to accept and read
// calls so they return instead of blocking the frame loop.
const pollDeadline = time.Millisecond

// NewTCP listens on a plain TCP socket. Accept and read run with
// near-zero deadlines to get non-blocking semantics out of the
// blocking net API.
func NewTCP(cfg Config) (Server, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return &tcpServer{ln: ln}, nil
}

type tcpServer struct {
	ln *net.TCPListener
}

func (s *tcpServer) Accept() (Conn, error) {
	s.ln.SetDeadline(time.Now().Add(pollDeadline))
	c, err := s.ln.AcceptTCP()
	if err != nil {
		if isTimeout(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("accept: %w", err)
	}
	c.SetNoDelay(true)
	return &tcpConn{c: c}, nil
}

func (s *tcpServer) Addr() string {
	return "tcp://" + s.ln.Addr().String()
}

func (s *tcpServer) Close() error {
	return s.ln.Close()
}

type tcpConn struct {
	c  *net.TCPConn
	lb LineBuffer
}

func (c *tcpConn) Send(data []byte) error {
	c.c.SetWriteDeadline(time.Now().Add(time.Second))
	if _, err := c.c.Write(data); err != nil {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return nil
}

func (c *tcpConn) ReceiveLine() (string, error) {
	var scratch [4096]byte
	for {
		if line, ok := c.lb.Line(); ok {
			return line, nil
		}
		c.c.SetReadDeadline(time.Now().Add(pollDeadline))
		n, err := c.c.Read(scratch[:])
		if n > 0 {
			c.lb.Write(scratch[:n])
			continue
		}
		if err == nil {
			continue
		}
		if isTimeout(err) {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("%w: %v", ErrClosed, err)
	}
}

func (c *tcpConn) Close() error {
	return c.c.Close()
}

func isTimeout(err error) bool {
	netErr, ok := err.(net.Error)
	return ok && netErr.Timeout()
}
