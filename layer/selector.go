package layer

// Selector is a bounded layer index driven by rotation events.
//
// Counter-clockwise steps move towards Max, clockwise steps towards 0. Steps
// past either end are dropped.
type Selector struct {
	max   uint8
	index uint8
}

// NewSelector returns a selector at index 0 bounded to [0, max].
func NewSelector(max uint8) *Selector {
	return &Selector{max: max}
}

// Max returns the upper bound of the index.
func (s *Selector) Max() uint8 { return s.max }

// Index returns the currently selected layer.
func (s *Selector) Index() uint8 { return s.index }

// Rotate steps the index once and returns the new value.
func (s *Selector) Rotate(clockwise bool) uint8 {
	if !clockwise && s.index < s.max {
		s.index++
	} else if clockwise && s.index > 0 {
		s.index--
	}
	return s.index
}

// Target is anything that can clear and enable layers.
type Target interface {
	LayerClear()
	LayerOn(n uint8)
}

// Apply clears the target and activates only the selected layer.
func (s *Selector) Apply(t Target) {
	t.LayerClear()
	t.LayerOn(s.index)
}

// Reset returns the index to 0.
func (s *Selector) Reset() { s.index = 0 }
