package transport

import (
	"errors"
	"net"
	"strings"
	"testing"
	"time"
)

// pollAccept retries Accept until a connection shows up or the
// deadline passes. Accept itself never blocks, so tests poll the same
// way the frame loop does.
func pollAccept(t *testing.T, srv Server) Conn {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c, err := srv.Accept()
		if err != nil {
			t.Fatalf("Accept: %v", err)
		}
		if c != nil {
			return c
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no connection accepted before deadline")
	return nil
}

// pollLine retries ReceiveLine past ErrTimeout until a line arrives.
func pollLine(t *testing.T, c Conn) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		line, err := c.ReceiveLine()
		if err == nil {
			return line
		}
		if !errors.Is(err, ErrTimeout) {
			t.Fatalf("ReceiveLine: %v", err)
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no line received before deadline")
	return ""
}

func TestTCP_AcceptSendReceive(t *testing.T) {
	srv, err := NewTCP(Config{Host: "127.0.0.1", Port: 0})
	if err != nil {
		t.Fatalf("NewTCP: %v", err)
	}
	defer srv.Close()

	addr := strings.TrimPrefix(srv.Addr(), "tcp://")
	peer, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer peer.Close()

	conn := pollAccept(t, srv)
	defer conn.Close()

	// Split one command across two writes, then two commands in one.
	if _, err := peer.Write([]byte(`{"type":"re`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := peer.Write([]byte("set\"}\n{\"type\":\"reset\"}\n{\"type\":\"input\"}\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	for i, want := range []string{`{"type":"reset"}`, `{"type":"reset"}`, `{"type":"input"}`} {
		if got := pollLine(t, conn); got != want {
			t.Fatalf("line %d = %q, want %q", i, got, want)
		}
	}

	// Idle connection reports timeout, not an error.
	if _, err := conn.ReceiveLine(); !errors.Is(err, ErrTimeout) {
		t.Fatalf("idle conn = %v, want ErrTimeout", err)
	}

	if err := conn.Send([]byte("{\"type\":\"state\"}\n")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	reply := make([]byte, 64)
	peer.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := peer.Read(reply)
	if err != nil {
		t.Fatalf("peer read: %v", err)
	}
	if string(reply[:n]) != "{\"type\":\"state\"}\n" {
		t.Fatalf("peer got %q", reply[:n])
	}
}

func TestTCP_PeerDisconnect(t *testing.T) {
	srv, err := NewTCP(Config{Host: "127.0.0.1", Port: 0})
	if err != nil {
		t.Fatalf("NewTCP: %v", err)
	}
	defer srv.Close()

	addr := strings.TrimPrefix(srv.Addr(), "tcp://")
	peer, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn := pollAccept(t, srv)
	defer conn.Close()

	peer.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, err := conn.ReceiveLine()
		if errors.Is(err, ErrClosed) {
			break
		}
		if !errors.Is(err, ErrTimeout) {
			t.Fatalf("ReceiveLine after hangup = %v", err)
		}
		if time.Now().After(deadline) {
			t.Fatal("hangup never surfaced as ErrClosed")
		}
		time.Sleep(time.Millisecond)
	}

	// The listener survives; a new peer can connect.
	peer2, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("redial: %v", err)
	}
	defer peer2.Close()
	conn2 := pollAccept(t, srv)
	conn2.Close()
}
