// Package keycode defines the 16-bit keycodes stored in keymap layers.
//
// The low byte range holds plain HID keyboard usages. Higher ranges encode
// modified keys, layer keys, underglow controls and user defined codes.
package keycode

import "fmt"

// Keycode is a single entry of a keymap layer.
type Keycode uint16

// Ranges of the keycode space.
const (
	BasicMax Keycode = 0x00FF

	QKMods    Keycode = 0x0100
	QKModsMax Keycode = 0x1FFF

	QKTo           Keycode = 0x5200
	QKToMax        Keycode = 0x521F
	QKMomentary    Keycode = 0x5220
	QKMomentaryMax Keycode = 0x523F

	QKUnderglow    Keycode = 0x7820
	QKUnderglowMax Keycode = 0x782F

	QKBoot Keycode = 0x7C00

	// SafeRange is the first keycode free for keymap specific codes.
	SafeRange Keycode = 0x7E00
)

// Special entries.
const (
	No          Keycode = 0x0000
	Transparent Keycode = 0x0001
)

// Modifier flags packed into bits 8-12 of a QKMods keycode.
const (
	modCtrl  = 0x01
	modShift = 0x02
	modAlt   = 0x04
	modGUI   = 0x08
	modRight = 0x10
)

// Underglow control keycodes.
const (
	RGBToggle  Keycode = QKUnderglow + iota // RGB_TOG
	RGBMode                                 // RGB_MOD
	RGBModeRev                              // RGB_RMOD
	RGBHueUp                                // RGB_HUI
	RGBHueDown                              // RGB_HUD
	RGBSatUp                                // RGB_SAI
	RGBSatDown                              // RGB_SAD
	RGBValUp                                // RGB_VAI
	RGBValDown                              // RGB_VAD
)

// MO returns the momentary layer keycode for layer n.
func MO(n uint8) Keycode { return QKMomentary | Keycode(n&0x1F) }

// TO returns the keycode that switches exclusively to layer n.
func TO(n uint8) Keycode { return QKTo | Keycode(n&0x1F) }

// LCtrl wraps k with left control.
func LCtrl(k Keycode) Keycode { return withMods(modCtrl, k) }

// LShift wraps k with left shift.
func LShift(k Keycode) Keycode { return withMods(modShift, k) }

// LAlt wraps k with left alt.
func LAlt(k Keycode) Keycode { return withMods(modAlt, k) }

// LGUI wraps k with left GUI.
func LGUI(k Keycode) Keycode { return withMods(modGUI, k) }

// RCtrl wraps k with right control.
func RCtrl(k Keycode) Keycode { return withMods(modRight|modCtrl, k) }

// RShift wraps k with right shift.
func RShift(k Keycode) Keycode { return withMods(modRight|modShift, k) }

// RAlt wraps k with right alt.
func RAlt(k Keycode) Keycode { return withMods(modRight|modAlt, k) }

// RGUI wraps k with right GUI.
func RGUI(k Keycode) Keycode { return withMods(modRight|modGUI, k) }

func withMods(m uint8, k Keycode) Keycode {
	if k.IsModified() {
		m |= uint8(k>>8) & 0x1F
		k &= BasicMax
	}
	return Keycode(m)<<8 | (k & BasicMax)
}

// IsBasic reports whether k is a plain HID usage (including modifier keys).
func (k Keycode) IsBasic() bool { return k > Transparent && k <= BasicMax }

// IsModifier reports whether k is one of the eight modifier keys.
func (k Keycode) IsModifier() bool { return k >= LeftCtrl && k <= RightGUI }

// IsModified reports whether k is a basic key combined with modifiers.
func (k Keycode) IsModified() bool { return k >= QKMods && k <= QKModsMax }

// IsMomentary reports whether k is an MO(n) keycode.
func (k Keycode) IsMomentary() bool { return k >= QKMomentary && k <= QKMomentaryMax }

// IsLayerTo reports whether k is a TO(n) keycode.
func (k Keycode) IsLayerTo() bool { return k >= QKTo && k <= QKToMax }

// IsUnderglow reports whether k is an RGB_* control.
func (k Keycode) IsUnderglow() bool { return k >= QKUnderglow && k <= QKUnderglowMax }

// IsCustom reports whether k lies in the keymap specific range.
func (k Keycode) IsCustom() bool { return k >= SafeRange }

// Layer returns the target layer of MO(n) and TO(n) keycodes.
func (k Keycode) Layer() uint8 { return uint8(k & 0x1F) }

// Base returns the HID usage of a basic or modified keycode.
func (k Keycode) Base() uint8 {
	if k.IsBasic() || k.IsModified() {
		return uint8(k & BasicMax)
	}
	return 0
}

// HIDMods converts the modifier flags of a modified keycode into a HID
// modifier byte. Modifier keys themselves map to their own bit.
func (k Keycode) HIDMods() uint8 {
	if k.IsModifier() {
		return 1 << (uint8(k) - uint8(LeftCtrl))
	}
	if !k.IsModified() {
		return 0
	}
	flags := uint8(k>>8) & 0x0F
	if uint8(k>>8)&modRight != 0 {
		return flags << 4
	}
	return flags
}

func (k Keycode) String() string {
	if name, ok := names[k]; ok {
		return name
	}
	switch {
	case k.IsMomentary():
		return fmt.Sprintf("MO(%d)", k.Layer())
	case k.IsLayerTo():
		return fmt.Sprintf("TO(%d)", k.Layer())
	case k.IsModified():
		return modifiedString(k)
	case k.IsCustom():
		return fmt.Sprintf("USER(%d)", k-SafeRange)
	}
	return fmt.Sprintf("0x%04X", uint16(k))
}

// modifiedString nests one wrapper per flag. The right bit applies to every
// flag of the chord, so all wrappers share one side.
func modifiedString(k Keycode) string {
	s := Keycode(k & BasicMax).String()
	flags := uint8(k>>8) & 0x0F
	side := "L"
	if uint8(k>>8)&modRight != 0 {
		side = "R"
	}
	for _, m := range []struct {
		bit  uint8
		name string
	}{{modGUI, "GUI"}, {modAlt, "ALT"}, {modShift, "SFT"}, {modCtrl, "CTL"}} {
		if flags&m.bit != 0 {
			s = side + m.name + "(" + s + ")"
		}
	}
	return s
}
