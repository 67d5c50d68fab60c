package keymap

import (
	"github.com/iottabyte/tidbit/device/keyboard"
	"github.com/iottabyte/tidbit/firmware"
	"github.com/iottabyte/tidbit/indicator"
	"github.com/iottabyte/tidbit/keycode"
	"github.com/iottabyte/tidbit/layer"
)

// User implements firmware.Hooks for a Keymap.
type User struct {
	km       *Keymap
	actions  Actions
	selector *layer.Selector
	// numLockPending is set by Init and cleared by the next host LED report.
	numLockPending bool
}

// NewUser binds the default actions and a fresh selector to km.
func NewUser(km *Keymap) *User {
	return &User{
		km:       km,
		actions:  DefaultActions(),
		selector: layer.NewSelector(km.MaxLayer),
	}
}

// Bind adds or replaces the action of a custom keycode.
func (u *User) Bind(kc keycode.Keycode, a Action) {
	u.actions[kc] = a
}

// Selected returns the encoder-selected layer.
func (u *User) Selected() uint8 { return u.selector.Index() }

// Keymap returns the bound keymap.
func (u *User) Keymap() *Keymap { return u.km }

// Init arranges for Num Lock to be on so the base layer's keypad sends
// digits. The tap waits for the host's lock state so Num Lock already on
// stays on.
func (u *User) Init(h firmware.Host) {
	u.numLockPending = true
}

func (u *User) Scan(h firmware.Host) {}

// ProcessRecord runs custom keycode actions on press. It never suppresses
// default handling.
func (u *User) ProcessRecord(h firmware.Host, kc keycode.Keycode, pressed bool) bool {
	if !pressed {
		return true
	}
	if a, ok := u.actions[kc]; ok {
		a(h)
	}
	return true
}

// EncoderUpdate selects a layer with encoder 0 and makes it the only active one.
func (u *User) EncoderUpdate(h firmware.Host, index uint8, clockwise bool) {
	if index != 0 {
		return
	}
	u.selector.Rotate(clockwise)
	u.selector.Apply(h)
}

// LayerStateSet colours the underglow after the highest active layer.
func (u *User) LayerStateSet(h firmware.Host, st layer.State) layer.State {
	h.Underglow().SetRGB(u.km.Colors.Color(st.Highest()))
	return st
}

// LEDSet dims the status LED while caps lock is on. The first report after
// Init taps Num Lock if it is off; later reports leave it to the user.
func (u *User) LEDSet(h firmware.Host, leds uint8) {
	h.StatusLED(indicator.CapsLockLevel(leds))
	if !u.numLockPending {
		return
	}
	u.numLockPending = false
	if leds&keyboard.LEDNumLock == 0 {
		h.TapCode(keycode.KeyNumLock)
	}
}

func (u *User) Suspend(h firmware.Host, on bool) {
	h.Underglow().Suspend(on)
}
