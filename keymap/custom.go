package keymap

import (
	"github.com/iottabyte/tidbit/firmware"
	"github.com/iottabyte/tidbit/indicator"
	"github.com/iottabyte/tidbit/keycode"
)

// Keymap specific keycodes.
const (
	Prog keycode.Keycode = keycode.SafeRange + iota
	SelectAll
	NextPage
)

// CustomKeycodes names the keymap specific keycodes for parsing and display.
var CustomKeycodes = map[string]keycode.Keycode{
	"PROG":       Prog,
	"SELECT_ALL": SelectAll,
	"NEXT_PAGE":  NextPage,
}

// Action is a one-shot side effect bound to a custom keycode.
type Action func(h firmware.Host)

// Actions maps custom keycodes to their actions.
type Actions map[keycode.Keycode]Action

// DefaultActions returns the actions of the bundled custom keycodes.
func DefaultActions() Actions {
	return Actions{
		Prog:      enterBootloader,
		SelectAll: func(h firmware.Host) { h.TapCode(keycode.LCtrl(keycode.KeyA)) },
		NextPage:  func(h firmware.Host) { h.NextPage() },
	}
}

func enterBootloader(h firmware.Host) {
	h.StatusLED(indicator.Dim)
	h.Underglow().Disable()
	h.Bootloader()
}
