package transport

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// NewWebSocket listens for a single WebSocket peer over an HTTP
// upgrade endpoint. The websocket library only supports blocking
// reads, so each accepted socket gets a reader goroutine that feeds a
// channel; the Conn methods stay non-blocking for the frame loop.
func NewWebSocket(cfg Config) (Server, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	s := &wsServer{
		ln:      ln,
		pending: make(chan *websocket.Conn, 1),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleUpgrade)
	s.httpServer = &http.Server{Handler: mux}
	go s.httpServer.Serve(ln)

	return s, nil
}

type wsServer struct {
	ln         net.Listener
	httpServer *http.Server
	upgrader   websocket.Upgrader
	pending    chan *websocket.Conn
}

func (s *wsServer) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	select {
	case s.pending <- c:
	default:
		// Exactly one peer at a time; turn away extras.
		c.Close()
	}
}

func (s *wsServer) Accept() (Conn, error) {
	select {
	case c := <-s.pending:
		wc := &wsConn{
			c:      c,
			readCh: make(chan []byte, 64),
			done:   make(chan struct{}),
		}
		go wc.readLoop()
		return wc, nil
	default:
		return nil, nil
	}
}

func (s *wsServer) Addr() string {
	return "ws://" + s.ln.Addr().String()
}

func (s *wsServer) Close() error {
	return s.httpServer.Close()
}

type wsConn struct {
	c      *websocket.Conn
	readCh chan []byte
	done   chan struct{}
	once   sync.Once
	lb     LineBuffer
}

// readLoop drains websocket messages into readCh until the peer goes
// away. Closing done signals disconnection to ReceiveLine.
func (c *wsConn) readLoop() {
	defer c.once.Do(func() { close(c.done) })
	for {
		_, data, err := c.c.ReadMessage()
		if err != nil {
			return
		}
		select {
		case c.readCh <- data:
		case <-c.done:
			return
		}
	}
}

func (c *wsConn) Send(data []byte) error {
	c.c.SetWriteDeadline(time.Now().Add(time.Second))
	if err := c.c.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return nil
}

func (c *wsConn) ReceiveLine() (string, error) {
	for {
		if line, ok := c.lb.Line(); ok {
			return line, nil
		}
		select {
		case data := <-c.readCh:
			c.lb.Write(data)
		case <-c.done:
			// Drain anything the reader delivered before exiting.
			select {
			case data := <-c.readCh:
				c.lb.Write(data)
				continue
			default:
			}
			return "", ErrClosed
		default:
			return "", ErrTimeout
		}
	}
}

func (c *wsConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return c.c.Close()
}
