package bridge

import emucore "github.com/user-none/emubridge/api"

// macroState is the sequencer for a running macro. It is owned by the
// frame loop and replaced wholesale when a new Macro or Reset command
// arrives or when the sequence completes.
type macroState struct {
	steps     []MacroStep // nil when idle
	index     int
	remaining int
	// pending defers the first step load by one tick: a macro received
	// during the drain of frame N must first apply input on frame N+1.
	pending bool
}

// start replaces any running macro with a new one.
func (m *macroState) start(steps []MacroStep) {
	if steps == nil {
		steps = []MacroStep{}
	}
	m.steps = steps
	m.index = 0
	m.remaining = 0
	m.pending = true
}

// clear forces the sequencer idle.
func (m *macroState) clear() {
	m.steps = nil
	m.index = 0
	m.remaining = 0
	m.pending = false
}

// running reports whether a macro is in progress.
func (m *macroState) running() bool {
	return m.steps != nil
}

// advance moves the sequencer by exactly one frame tick and returns
// the held-button mask for this frame. When idle it leaves held
// untouched; when the sequence completes it clears held.
func (m *macroState) advance(held uint32) uint32 {
	if m.steps == nil {
		return held
	}
	if m.pending {
		m.pending = false
		return held
	}
	if m.remaining > 0 {
		m.remaining--
		if m.remaining > 0 {
			return held
		}
		m.index++
	}
	if m.index >= len(m.steps) {
		m.clear()
		return 0
	}
	step := m.steps[m.index]
	m.remaining = step.Duration
	return emucore.ButtonMask(step.Buttons)
}
