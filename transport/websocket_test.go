package transport

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWebSocket_AcceptSendReceive(t *testing.T) {
	srv, err := NewWebSocket(Config{Host: "127.0.0.1", Port: 0})
	if err != nil {
		t.Fatalf("NewWebSocket: %v", err)
	}
	defer srv.Close()

	url := "ws://" + strings.TrimPrefix(srv.Addr(), "ws://")
	peer, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer peer.Close()

	conn := pollAccept(t, srv)
	defer conn.Close()

	// Two complete commands inside a single websocket message must be
	// dispatched as two lines.
	msg := "{\"type\":\"reset\"}\n{\"type\":\"input\",\"buttons\":[\"A\"]}\n"
	if err := peer.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatalf("peer write: %v", err)
	}

	if got := pollLine(t, conn); got != `{"type":"reset"}` {
		t.Fatalf("first line = %q", got)
	}
	if got := pollLine(t, conn); got != `{"type":"input","buttons":["A"]}` {
		t.Fatalf("second line = %q", got)
	}
	if _, err := conn.ReceiveLine(); !errors.Is(err, ErrTimeout) {
		t.Fatalf("drained conn = %v, want ErrTimeout", err)
	}

	if err := conn.Send([]byte("{\"type\":\"state\"}\n")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	peer.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := peer.ReadMessage()
	if err != nil {
		t.Fatalf("peer read: %v", err)
	}
	if string(data) != "{\"type\":\"state\"}\n" {
		t.Fatalf("peer got %q", data)
	}
}

func TestWebSocket_PeerDisconnect(t *testing.T) {
	srv, err := NewWebSocket(Config{Host: "127.0.0.1", Port: 0})
	if err != nil {
		t.Fatalf("NewWebSocket: %v", err)
	}
	defer srv.Close()

	url := "ws://" + strings.TrimPrefix(srv.Addr(), "ws://")
	peer, _, err := websocket.DefaultDialer.Dial(url, nil)
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
}
