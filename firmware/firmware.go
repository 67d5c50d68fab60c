// Package firmware is the host side of a keymap: it owns the layer stack, the
// HID report and the lights, and calls into a keymap's Hooks as events arrive.
//
// A Runtime is not safe for concurrent use. Either drive it from a single
// goroutine or feed it through Run.
package firmware

import (
	"log/slog"

	"github.com/iottabyte/tidbit/device/keyboard"
	"github.com/iottabyte/tidbit/indicator"
	"github.com/iottabyte/tidbit/keycode"
	"github.com/iottabyte/tidbit/layer"
	"github.com/iottabyte/tidbit/underglow"
)

// Hooks are the callbacks a keymap implements.
type Hooks interface {
	// Init runs once after the runtime is set up.
	Init(h Host)
	// Scan runs every poll cycle.
	Scan(h Host)
	// ProcessRecord sees every key event before default handling. Returning
	// false suppresses the default handling.
	ProcessRecord(h Host, kc keycode.Keycode, pressed bool) bool
	// EncoderUpdate is called once per encoder detent.
	EncoderUpdate(h Host, index uint8, clockwise bool)
	// LayerStateSet is called whenever the active layer set changes. The
	// returned state is stored.
	LayerStateSet(h Host, st layer.State) layer.State
	// LEDSet is called when the host sends a new lock LED bitmask.
	LEDSet(h Host, leds uint8)
	// Suspend is called when the host suspends (true) or wakes (false).
	Suspend(h Host, on bool)
}

// Host is what the runtime offers to Hooks.
type Host interface {
	LayerClear()
	LayerOn(n uint8)
	LayerOff(n uint8)
	LayerState() layer.State
	RegisterCode(kc keycode.Keycode)
	UnregisterCode(kc keycode.Keycode)
	TapCode(kc keycode.Keycode)
	Bootloader()
	Underglow() *underglow.Strip
	StatusLED(level indicator.Level)
	NextPage()
	Logger() *slog.Logger
}

// Matrix is the keymap as seen by key resolution.
type Matrix interface {
	Rows() int
	Cols() int
	LayerCount() int
	Keycode(layer uint8, row, col int) keycode.Keycode
}

// ReportSink receives every changed HID report.
type ReportSink interface {
	SendReport(st keyboard.InputState) error
}

// ReportFunc adapts a function to ReportSink.
type ReportFunc func(st keyboard.InputState) error

func (f ReportFunc) SendReport(st keyboard.InputState) error { return f(st) }

// Position is a key location in the matrix.
type Position struct {
	Row, Col int
}
