// Package keymap holds the Tidbit keymap variants and the callbacks that
// select layers from the encoder and colour the underglow per layer.
package keymap

import (
	"errors"
	"fmt"
	"slices"

	"github.com/iottabyte/tidbit/firmware"
	"github.com/iottabyte/tidbit/indicator"
	"github.com/iottabyte/tidbit/keycode"
	"github.com/iottabyte/tidbit/layer"
)

var (
	ErrLayerBound = errors.New("max layer must equal layer count - 1")
	ErrGridShape  = errors.New("layer grid does not match layout")
	ErrNoLayers   = errors.New("keymap has no layers")
)

// Layout is the physical key grid. Holes are grid cells without a switch.
type Layout struct {
	Rows, Cols int
	Holes      []firmware.Position
}

// TidbitLayout is 5 rows of 4 with the top-left cell taken by the encoder.
var TidbitLayout = Layout{
	Rows:  5,
	Cols:  4,
	Holes: []firmware.Position{{Row: 0, Col: 0}},
}

// IsHole reports whether (row, col) has no switch.
func (l Layout) IsHole(row, col int) bool {
	for _, h := range l.Holes {
		if h.Row == row && h.Col == col {
			return true
		}
	}
	return false
}

// Keys returns the number of switches.
func (l Layout) Keys() int { return l.Rows*l.Cols - len(l.Holes) }

// Layer is one grid of keycodes, indexed [row][col].
type Layer [][]keycode.Keycode

// Clone returns a deep copy of l.
func (l Layer) Clone() Layer {
	out := make(Layer, len(l))
	for r, row := range l {
		out[r] = slices.Clone(row)
	}
	return out
}

// Keymap is an immutable set of layers for one device variant.
type Keymap struct {
	Name       string
	Layout     Layout
	Layers     []Layer
	LayerNames []string
	// MaxLayer bounds the encoder layer selector.
	MaxLayer uint8
	Colors   indicator.ColorMap
	Pages    int
}

// Validate checks the layer bound and the grid shapes.
func (k *Keymap) Validate() error {
	if len(k.Layers) == 0 {
		return ErrNoLayers
	}
	if len(k.Layers) > layer.MaxLayers {
		return fmt.Errorf("%d layers: %w", len(k.Layers), ErrLayerBound)
	}
	if int(k.MaxLayer) != len(k.Layers)-1 {
		return fmt.Errorf("%s: max layer %d with %d layers: %w", k.Name, k.MaxLayer, len(k.Layers), ErrLayerBound)
	}
	for i, l := range k.Layers {
		if len(l) != k.Layout.Rows {
			return fmt.Errorf("%s: layer %d has %d rows, want %d: %w", k.Name, i, len(l), k.Layout.Rows, ErrGridShape)
		}
		for r, row := range l {
			if len(row) != k.Layout.Cols {
				return fmt.Errorf("%s: layer %d row %d has %d keys, want %d: %w", k.Name, i, r, len(row), k.Layout.Cols, ErrGridShape)
			}
		}
	}
	return nil
}

func (k *Keymap) Rows() int       { return k.Layout.Rows }
func (k *Keymap) Cols() int       { return k.Layout.Cols }
func (k *Keymap) LayerCount() int { return len(k.Layers) }

// Keycode returns the entry at (row, col) of layer l, or KC_NO when out of range.
func (k *Keymap) Keycode(l uint8, row, col int) keycode.Keycode {
	if int(l) >= len(k.Layers) || row < 0 || row >= k.Layout.Rows || col < 0 || col >= k.Layout.Cols {
		return keycode.No
	}
	if k.Layout.IsHole(row, col) {
		return keycode.No
	}
	return k.Layers[l][row][col]
}

// LayerName returns the display name of layer l.
func (k *Keymap) LayerName(l uint8) string {
	if int(l) < len(k.LayerNames) && k.LayerNames[l] != "" {
		return k.LayerNames[l]
	}
	return fmt.Sprintf("L%d", l)
}

// KeyName names a keycode, preferring the custom keycode names.
func KeyName(kc keycode.Keycode) string {
	for name, c := range CustomKeycodes {
		if c == kc {
			return name
		}
	}
	return kc.String()
}
