package bridge

import (
	"errors"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	emucore "github.com/user-none/emubridge/api"
	"github.com/user-none/emubridge/jsonval"
	"github.com/user-none/emubridge/snapshot"
	"github.com/user-none/emubridge/transport"
)

var log = commonlog.GetLogger("bridge")

// Bridge is the single-threaded frame loop. The host invokes Tick
// once per emulated frame; everything in here is non-blocking so a
// slow or absent peer can never stall emulation. At most one peer is
// connected at a time; a dropped peer frees the slot for the next
// accept without restarting the server.
type Bridge struct {
	srv  transport.Server
	host emucore.Host
	src  *snapshot.Source

	conn   transport.Conn
	connID string
	held   uint32
	macro  macroState
	// oneShot marks held input that came from an Input command, which
	// applies for a single frame unless the peer re-sends it.
	oneShot bool
}

// New wires a bridge to its transport server, host and snapshot
// source. The caller keeps ownership of the server and closes the
// bridge when the host shuts down.
func New(srv transport.Server, host emucore.Host, src *snapshot.Source) *Bridge {
	return &Bridge{srv: srv, host: host, src: src}
}

// Connected reports whether a peer is currently attached.
func (b *Bridge) Connected() bool {
	return b.conn != nil
}

// Tick runs one frame of bridge work, in fixed order: accept, drain
// commands, advance the macro sequencer, apply input, push state.
// The host advances emulated time after Tick returns.
func (b *Bridge) Tick() {
	if b.conn == nil {
		b.accept()
	}
	if b.conn != nil {
		b.drain()
	}

	b.held = b.macro.advance(b.held)
	b.host.SetButtons(b.held)
	if b.oneShot {
		b.held = 0
		b.oneShot = false
	}

	if b.conn != nil {
		b.pushState()
	}
}

// Close drops the peer and stops listening.
func (b *Bridge) Close() {
	b.drop("shutting down")
	if err := b.srv.Close(); err != nil {
		log.Errorf("close server: %v", err)
	}
}

// accept polls for a pending peer. A fresh peer starts from a clean
// slate: no held input and no macro left over from its predecessor.
func (b *Bridge) accept() {
	conn, err := b.srv.Accept()
	if err != nil {
		log.Errorf("accept failed: %v", err)
		return
	}
	if conn == nil {
		return
	}
	b.conn = conn
	b.connID = uuid.NewString()[:8]
	b.held = 0
	b.oneShot = false
	b.macro.clear()
	log.Infof("peer %s connected", b.connID)
}

// drain applies every fully-buffered line in arrival order. A
// malformed line is logged and discarded without touching connection
// state; a transport error tears the connection down.
func (b *Bridge) drain() {
	for {
		line, err := b.conn.ReceiveLine()
		if errors.Is(err, transport.ErrTimeout) {
			return
		}
		if err != nil {
			b.drop("receive failed: " + err.Error())
			return
		}

		cmd, err := DecodeCommand(line)
		if err != nil {
			log.Warningf("peer %s: discarding bad line: %v", b.connID, err)
			continue
		}
		if cmd == nil {
			log.Debugf("peer %s: ignoring unknown command tag", b.connID)
			continue
		}
		b.apply(cmd)
	}
}

// apply executes a decoded command. An explicit command always wins
// over an in-progress macro.
func (b *Bridge) apply(cmd Command) {
	switch c := cmd.(type) {
	case InputCommand:
		b.macro.clear()
		b.held = emucore.ButtonMask(c.Buttons)
		b.oneShot = true
	case MacroCommand:
		b.macro.start(c.Steps)
		b.held = 0
		b.oneShot = false
	case ResetCommand:
		b.macro.clear()
		b.held = 0
		b.oneShot = false
	}
}

// pushState sends this frame's snapshot. A send failure means the
// peer is gone: connection state is torn down, the server keeps
// listening.
func (b *Bridge) pushState() {
	snap := b.src.Gather()
	data := make(map[string]jsonval.Value, len(snap))
	for name, value := range snap {
		data[name] = jsonval.Number(float64(value))
	}
	msg := jsonval.Object(map[string]jsonval.Value{
		"type": jsonval.String("state"),
		"data": jsonval.Object(data),
	})

	if err := b.conn.Send([]byte(jsonval.Encode(msg) + "\n")); err != nil {
		b.drop("send failed: " + err.Error())
	}
}

// drop tears down the peer connection but leaves the server
// listening for the next accept.
func (b *Bridge) drop(reason string) {
	if b.conn == nil {
		return
	}
	log.Infof("peer %s disconnected: %s", b.connID, reason)
	b.conn.Close()
	b.conn = nil
	b.held = 0
	b.oneShot = false
	b.macro.clear()
	b.host.SetButtons(0)
}
