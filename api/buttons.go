package emucore

import "sort"

// GBA keypad bit positions, matching the KEYINPUT register layout used
// by the common emulator cores.
const (
	ButtonA = iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonRight
	ButtonLeft
	ButtonUp
	ButtonDown
	ButtonR
	ButtonL
)

var buttonBits = map[string]int{
	"A":      ButtonA,
	"B":      ButtonB,
	"SELECT": ButtonSelect,
	"START":  ButtonStart,
	"RIGHT":  ButtonRight,
	"LEFT":   ButtonLeft,
	"UP":     ButtonUp,
	"DOWN":   ButtonDown,
	"R":      ButtonR,
	"L":      ButtonL,
}

// ButtonBit returns the bit position for a button name. The bool
// return indicates whether the name is a known button.
func ButtonBit(name string) (int, bool) {
	bit, ok := buttonBits[name]
	return bit, ok
}

// ButtonMask builds an input bitmask from button names. Unknown names
// are skipped so a peer speaking a newer protocol revision cannot
// poison the whole input state.
func ButtonMask(names []string) uint32 {
	var mask uint32
	for _, name := range names {
		if bit, ok := buttonBits[name]; ok {
			mask |= 1 << uint(bit)
		}
	}
	return mask
}

// ButtonNames expands an input bitmask back into sorted button names.
func ButtonNames(mask uint32) []string {
	var names []string
	for name, bit := range buttonBits {
		if mask&(1<<uint(bit)) != 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
