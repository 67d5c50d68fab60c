// Package layer tracks which keymap layers are active and selects layers
// from encoder rotation.
package layer

import "math/bits"

// MaxLayers is the number of layers a State can address.
const MaxLayers = 32

// State is a bitmask of active layers, bit n set meaning layer n is on.
type State uint32

// Has reports whether layer n is active.
func (s State) Has(n uint8) bool {
	return n < MaxLayers && s&(1<<n) != 0
}

// Highest returns the highest active layer, or 0 when no layer is active.
func (s State) Highest() uint8 {
	if s == 0 {
		return 0
	}
	return uint8(bits.Len32(uint32(s)) - 1)
}

// Count returns the number of active layers.
func (s State) Count() int { return bits.OnesCount32(uint32(s)) }

// Layers lists the active layers from highest to lowest.
func (s State) Layers() []uint8 {
	out := make([]uint8, 0, s.Count())
	for n := int(MaxLayers) - 1; n >= 0; n-- {
		if s.Has(uint8(n)) {
			out = append(out, uint8(n))
		}
	}
	return out
}

// Stack owns the active layer state and notifies on change.
type Stack struct {
	state    State
	onChange func(State) State
}

// NewStack returns an empty stack. onChange, if non-nil, is called with every
// new state; its return value is what the stack stores.
func NewStack(onChange func(State) State) *Stack {
	return &Stack{onChange: onChange}
}

// State returns the current layer state.
func (s *Stack) State() State { return s.state }

// Set replaces the whole state.
func (s *Stack) Set(st State) {
	if s.onChange != nil {
		st = s.onChange(st)
	}
	s.state = st
}

// Clear turns every layer off.
func (s *Stack) Clear() { s.Set(0) }

// On turns layer n on.
func (s *Stack) On(n uint8) {
	if n >= MaxLayers {
		return
	}
	s.Set(s.state | 1<<n)
}

// Off turns layer n off.
func (s *Stack) Off(n uint8) {
	if n >= MaxLayers {
		return
	}
	s.Set(s.state &^ (1 << n))
}

// Invert toggles layer n.
func (s *Stack) Invert(n uint8) {
	if n >= MaxLayers {
		return
	}
	s.Set(s.state ^ 1<<n)
}

// LayerClear and LayerOn let a Stack be used as a selector Target.
func (s *Stack) LayerClear()     { s.Clear() }
func (s *Stack) LayerOn(n uint8) { s.On(n) }

// Move makes layer n the only active layer.
func (s *Stack) Move(n uint8) {
	if n >= MaxLayers {
		return
	}
	s.Set(1 << n)
}
