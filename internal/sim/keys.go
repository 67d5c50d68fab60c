package sim

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/iottabyte/tidbit/firmware"
)

// matrixRows maps terminal keys onto the 5x4 switch grid, one string per row.
var matrixRows = []string{
	"1234",
	"5678",
	"qwer",
	"asdf",
	"zxcv",
}

// position returns the grid cell bound to a terminal key.
func position(s string) (firmware.Position, bool) {
	if len(s) != 1 {
		return firmware.Position{}, false
	}
	for r, row := range matrixRows {
		for c := range row {
			if row[c] == s[0] {
				return firmware.Position{Row: r, Col: c}, true
			}
		}
	}
	return firmware.Position{}, false
}

// KeyMap holds the non-matrix bindings. It implements help.KeyMap.
type KeyMap struct {
	NextLayer key.Binding
	PrevLayer key.Binding
	Hold      key.Binding
	CapsLock  key.Binding
	Suspend   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextLayer: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "encoder ccw"),
		),
		PrevLayer: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "encoder cw"),
		),
		Hold: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "hold mode"),
		),
		CapsLock: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "host caps lock"),
		),
		Suspend: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "suspend"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextLayer, k.PrevLayer, k.Hold, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextLayer, k.PrevLayer, k.Hold},
		{k.CapsLock, k.Suspend},
		{k.Help, k.Quit},
	}
}
