// Package client is the controller-side counterpart of the bridge. A
// controller dials the bridge, sends input and macro commands, and
// reads the per-frame state snapshots back.
package client

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"github.com/user-none/emubridge/bridge"
	"github.com/user-none/emubridge/jsonval"
)

// Client is a single connection to a running bridge. It is not safe
// for concurrent use.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
}

// Dial connects to a bridge over TCP.
func Dial(host string, port int) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}
	return NewClient(conn), nil
}

// NewClient wraps an already-established connection.
func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn, reader: bufio.NewReader(conn)}
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// SendButtons holds the named buttons for the bridge's next frame.
// The bridge releases them after one frame unless re-sent.
func (c *Client) SendButtons(buttons ...string) error {
	arr := make([]jsonval.Value, len(buttons))
	for i, b := range buttons {
		arr[i] = jsonval.String(b)
	}
	return c.send(jsonval.Object(map[string]jsonval.Value{
		"type":    jsonval.String("input"),
		"buttons": jsonval.Array(arr...),
	}))
}

// SendMacro queues a timed button sequence. The bridge plays it one
// step per frame, starting on the frame after it arrives.
func (c *Client) SendMacro(steps []bridge.MacroStep) error {
	arr := make([]jsonval.Value, len(steps))
	for i, step := range steps {
		buttons := make([]jsonval.Value, len(step.Buttons))
		for j, b := range step.Buttons {
			buttons[j] = jsonval.String(b)
		}
		arr[i] = jsonval.Object(map[string]jsonval.Value{
			"buttons":  jsonval.Array(buttons...),
			"duration": jsonval.Number(float64(step.Duration)),
		})
	}
	return c.send(jsonval.Object(map[string]jsonval.Value{
		"type":  jsonval.String("macro"),
		"steps": jsonval.Array(arr...),
	}))
}

// Reset clears all held input and any running macro on the bridge.
func (c *Client) Reset() error {
	return c.send(jsonval.Object(map[string]jsonval.Value{
		"type": jsonval.String("reset"),
	}))
}

// ReceiveState blocks until the next state snapshot arrives. Lines
// that are not state messages are skipped.
func (c *Client) ReceiveState() (GameState, error) {
	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("client: receive: %w", err)
		}
		v, err := jsonval.Decode(line[:len(line)-1])
		if err != nil {
			return nil, fmt.Errorf("client: bad state line: %w", err)
		}
		tag, _ := v.Get("type")
		if tag.StringOr("") != "state" {
			continue
		}
		data, _ := v.Get("data")
		state := make(GameState, len(data.Obj))
		for name, field := range data.Obj {
			state[name] = uint64(field.IntOr(0))
		}
		return state, nil
	}
}

func (c *Client) send(v jsonval.Value) error {
	if _, err := c.conn.Write([]byte(jsonval.Encode(v) + "\n")); err != nil {
		return fmt.Errorf("client: send: %w", err)
	}
	return nil
}
