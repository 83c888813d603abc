package bridge

import (
	"errors"
	"testing"

	emucore "github.com/user-none/emubridge/api"
	"github.com/user-none/emubridge/jsonval"
	"github.com/user-none/emubridge/simcore"
	"github.com/user-none/emubridge/snapshot"
	"github.com/user-none/emubridge/transport"
)

// testRig wires a bridge to the in-process loopback transport and the
// sim core, the same way the serve command does.
type testRig struct {
	t    *testing.T
	b    *Bridge
	core *simcore.Core
	peer transport.Conn
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()

	srv, err := transport.NewLoopback(transport.Config{})
	if err != nil {
		t.Fatalf("NewLoopback: %v", err)
	}

	core := simcore.New(256)
	core.Poke8(0x10, 1)     // in_battle_flag
	core.Poke16(0x20, 23)   // player_hp
	src, err := snapshot.NewSource(core, "", []snapshot.Watcher{
		{Name: "in_battle_flag", Address: 0x10, Size: 1},
		{Name: "player_hp", Address: 0x20, Size: 2},
	})
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	b := New(srv, core, src)
	t.Cleanup(b.Close)

	peer, err := transport.DialLoopback()
	if err != nil {
		t.Fatalf("DialLoopback: %v", err)
	}

	rig := &testRig{t: t, b: b, core: core, peer: peer}
	rig.tick() // accepts the peer and pushes the first state line
	if !b.Connected() {
		t.Fatal("peer not accepted")
	}
	return rig
}

// tick runs one bridge tick then advances the sim core one frame,
// mirroring the host's step order.
func (r *testRig) tick() {
	r.b.Tick()
	r.core.StepFrame()
}

func (r *testRig) send(line string) {
	r.t.Helper()
	if err := r.peer.Send([]byte(line + "\n")); err != nil {
		r.t.Fatalf("peer send: %v", err)
	}
}

// lastState drains every pending state line and returns the newest.
func (r *testRig) lastState() jsonval.Value {
	r.t.Helper()
	var last string
	for {
		line, err := r.peer.ReceiveLine()
		if errors.Is(err, transport.ErrTimeout) {
			break
		}
		if err != nil {
			r.t.Fatalf("peer receive: %v", err)
		}
		last = line
	}
	if last == "" {
		r.t.Fatal("no state line received")
	}
	v, err := jsonval.Decode(last)
	if err != nil {
		r.t.Fatalf("state line %q: %v", last, err)
	}
	return v
}

func TestStatePushedEveryFrame(t *testing.T) {
	rig := newTestRig(t)
	rig.tick()
	rig.tick()

	v := rig.lastState()
	if tag, _ := v.Get("type"); tag.StringOr("") != "state" {
		t.Fatalf("message type = %+v", tag)
	}
	data, ok := v.Get("data")
	if !ok {
		t.Fatal("state message missing data")
	}
	if hp, _ := data.Get("player_hp"); hp.IntOr(-1) != 23 {
		t.Fatalf("player_hp = %+v", hp)
	}
	if flag, _ := data.Get("in_battle_flag"); flag.IntOr(-1) != 1 {
		t.Fatalf("in_battle_flag = %+v", flag)
	}
	if frame, _ := data.Get("frame"); frame.Kind != jsonval.KindNumber {
		t.Fatalf("frame = %+v", frame)
	}
}

func TestInputAppliedForOneFrameOnly(t *testing.T) {
	rig := newTestRig(t)

	rig.send(`{"type":"input","buttons":["UP","A"]}`)
	rig.tick()
	want := emucore.ButtonMask([]string{"UP", "A"})
	if rig.core.Buttons() != want {
		t.Fatalf("buttons = 0x%X, want 0x%X", rig.core.Buttons(), want)
	}

	// Input does not latch: without a re-send the next frame clears it.
	rig.tick()
	if rig.core.Buttons() != 0 {
		t.Fatalf("input held across frames without a re-send: 0x%X", rig.core.Buttons())
	}

	// Re-sending each frame keeps the hold alive.
	rig.send(`{"type":"input","buttons":["UP","A"]}`)
	rig.tick()
	if rig.core.Buttons() != want {
		t.Fatalf("re-sent input not applied: 0x%X", rig.core.Buttons())
	}
}

func TestMacroTimingThroughLoop(t *testing.T) {
	rig := newTestRig(t)

	rig.send(`{"type":"macro","steps":[{"buttons":["UP"],"duration":3}]}`)
	rig.tick() // command processed; nothing applied yet
	if rig.core.Buttons() != 0 {
		t.Fatalf("receipt tick buttons = 0x%X", rig.core.Buttons())
	}

	up := emucore.ButtonMask([]string{"UP"})
	for i := 0; i < 3; i++ {
		rig.tick()
		if rig.core.Buttons() != up {
			t.Fatalf("tick %d buttons = 0x%X, want UP", i+1, rig.core.Buttons())
		}
	}

	rig.tick()
	if rig.core.Buttons() != 0 {
		t.Fatalf("post-macro buttons = 0x%X, want 0", rig.core.Buttons())
	}
}

func TestResetIdempotent(t *testing.T) {
	rig := newTestRig(t)

	rig.send(`{"type":"macro","steps":[{"buttons":["A"],"duration":60}]}`)
	rig.tick()
	rig.tick()
	if rig.core.Buttons() == 0 {
		t.Fatal("macro never started")
	}

	rig.send(`{"type":"reset"}`)
	rig.tick()
	if rig.core.Buttons() != 0 || rig.b.macro.running() {
		t.Fatal("reset did not clear state")
	}

	rig.send(`{"type":"reset"}`)
	rig.tick()
	if rig.core.Buttons() != 0 || rig.b.macro.running() {
		t.Fatal("second reset changed state")
	}
}

func TestLineFramingWithinOneDrain(t *testing.T) {
	rig := newTestRig(t)

	// Both commands arrive in one underlying write; they must apply in
	// order within the same drain pass, ending with A held.
	rig.send(`{"type":"reset"}` + "\n" + `{"type":"input","buttons":["A"]}`)
	rig.tick()

	if rig.core.Buttons() != emucore.ButtonMask([]string{"A"}) {
		t.Fatalf("buttons = 0x%X, want A", rig.core.Buttons())
	}
}

func TestMalformedLineRecovery(t *testing.T) {
	rig := newTestRig(t)

	rig.send("this is not json")
	rig.send(`{"type":"unknown-tag"}`)
	rig.send(`{"type":"input","buttons":["B"]}`)
	rig.tick()

	if !rig.b.Connected() {
		t.Fatal("malformed line closed the connection")
	}
	if rig.core.Buttons() != emucore.ButtonMask([]string{"B"}) {
		t.Fatalf("buttons = 0x%X, want B", rig.core.Buttons())
	}
}

func TestDisconnectRecovery(t *testing.T) {
	rig := newTestRig(t)

	rig.send(`{"type":"macro","steps":[{"buttons":["A"],"duration":600}]}`)
	rig.tick()
	rig.tick()
	if rig.core.Buttons() == 0 {
		t.Fatal("macro never started")
	}

	// Peer vanishes mid-macro.
	rig.peer.Close()
	rig.tick()
	if rig.b.Connected() {
		t.Fatal("dropped peer still marked connected")
	}
	if rig.core.Buttons() != 0 {
		t.Fatalf("input stuck after disconnect: 0x%X", rig.core.Buttons())
	}

	// A fresh peer starts from a clean slate: no leaked macro, no held
	// input, and state lines flow again.
	peer2, err := transport.DialLoopback()
	if err != nil {
		t.Fatalf("redial: %v", err)
	}
	rig.peer = peer2
	rig.tick()
	if !rig.b.Connected() {
		t.Fatal("new peer not accepted")
	}
	if rig.b.macro.running() || rig.core.Buttons() != 0 {
		t.Fatal("previous peer's state leaked into new connection")
	}

	rig.tick()
	v := rig.lastState()
	if tag, _ := v.Get("type"); tag.StringOr("") != "state" {
		t.Fatalf("new peer state line = %+v", v)
	}
}
