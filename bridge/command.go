// Package bridge runs the frame-synchronized control loop: it accepts
// one peer over the transport, turns the peer's newline-delimited JSON
// commands into per-frame input, and pushes a state snapshot back
// every frame.
package bridge

import (
	"fmt"

	"github.com/user-none/emubridge/jsonval"
)

// Command is a tagged value received from the peer. Exactly one of
// the concrete types below; a nil Command means the line carried an
// unknown tag and is ignored for forward compatibility.
type Command interface {
	isCommand()
}

// InputCommand replaces the held buttons for the current frame only.
type InputCommand struct {
	Buttons []string
}

// MacroCommand replaces any in-progress macro and starts the new one
// from its first step.
type MacroCommand struct {
	Steps []MacroStep
}

// ResetCommand clears any in-progress macro and all held input.
type ResetCommand struct{}

func (InputCommand) isCommand() {}
func (MacroCommand) isCommand() {}
func (ResetCommand) isCommand() {}

// MacroStep holds a button set for a number of frames.
type MacroStep struct {
	Buttons  []string
	Duration int
}

// DecodeCommand parses one wire line into a Command. A line that is
// not valid JSON or not an object is an error (the caller discards
// that line only); an object with an unrecognized type tag decodes to
// (nil, nil).
func DecodeCommand(line string) (Command, error) {
	v, err := jsonval.Decode(line)
	if err != nil {
		return nil, err
	}
	if v.Kind != jsonval.KindObject {
		return nil, fmt.Errorf("command is %s, not an object", v.Kind)
	}

	tag, _ := v.Get("type")
	switch tag.StringOr("") {
	case "input":
		return InputCommand{Buttons: stringList(v, "buttons")}, nil
	case "macro":
		return MacroCommand{Steps: decodeSteps(v)}, nil
	case "reset":
		return ResetCommand{}, nil
	default:
		// Unknown tags are ignored so older bridges survive newer peers.
		return nil, nil
	}
}

func stringList(v jsonval.Value, key string) []string {
	field, ok := v.Get(key)
	if !ok || field.Kind != jsonval.KindArray {
		return nil
	}
	out := make([]string, 0, len(field.Arr))
	for _, item := range field.Arr {
		if item.Kind == jsonval.KindString {
			out = append(out, item.Str)
		}
	}
	return out
}

func decodeSteps(v jsonval.Value) []MacroStep {
	field, ok := v.Get("steps")
	if !ok || field.Kind != jsonval.KindArray {
		return []MacroStep{}
	}
	steps := make([]MacroStep, 0, len(field.Arr))
	for _, item := range field.Arr {
		if item.Kind != jsonval.KindObject {
			continue
		}
		dur, _ := item.Get("duration")
		step := MacroStep{
			Buttons:  stringList(item, "buttons"),
			Duration: dur.IntOr(1),
		}
		if step.Duration < 1 {
			step.Duration = 1
		}
		steps = append(steps, step)
	}
	return steps
}
