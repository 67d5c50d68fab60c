package keymap

import (
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/iottabyte/tidbit/indicator"
	kc "github.com/iottabyte/tidbit/keycode"
)

// Layer indices of the iottabyte keymaps.
const (
	LayerBase uint8 = iota
	LayerMisc
	LayerPhotoshop
	LayerMacro
)

const (
	____ = kc.Transparent
	xxxx = kc.No
)

var (
	base = Layer{
		{xxxx, kc.KeyF1, kc.KeyMediaPrevious, kc.KeyMediaNext},
		{xxxx, kc.KeyF2, kc.KeyF5, kc.KeyF12},
		{kc.KeyKp7, kc.KeyKp8, kc.KeyKp9, kc.KeyKp0},
		{kc.KeyKp4, kc.KeyKp5, kc.KeyKp6, xxxx},
		{kc.KeyKp1, kc.KeyKp2, kc.KeyKp3, xxxx},
	}
	misc = Layer{
		{xxxx, xxxx, kc.KeyMediaPlayPause, kc.KeyMute},
		{xxxx, xxxx, kc.RGBMode, kc.RGBMode},
		{kc.KeyHome, kc.KeyUp, kc.KeyPageUp, kc.RGBHueUp},
		{kc.KeyLeft, xxxx, kc.KeyRight, kc.RGBSatUp},
		{kc.KeyEnd, kc.KeyDown, kc.KeyPageDown, kc.RGBValUp},
	}
	photoshop = Layer{
		{xxxx, kc.MO(LayerMisc), xxxx, xxxx},
		{xxxx, xxxx, xxxx, xxxx},
		{kc.KeyHome, kc.KeyUp, kc.KeyPageUp, kc.RGBHueUp},
		{kc.KeyL, kc.KeySpace, kc.KeyI, xxxx},
		{kc.KeyE, kc.KeyN, kc.KeyB, xxxx},
	}
	macro = Layer{
		{xxxx, SelectAll, NextPage, Prog},
		{xxxx, kc.LCtrl(kc.KeyC), kc.LCtrl(kc.KeyV), kc.LCtrl(kc.KeyX)},
		{kc.LCtrl(kc.KeyZ), kc.LCtrl(kc.LShift(kc.KeyZ)), kc.LCtrl(kc.KeyS), xxxx},
		{____, ____, ____, ____},
		{____, ____, ____, ____},
	}
)

var iottabyteColors = map[uint8]indicator.RGB{
	LayerBase:      indicator.Blue,
	LayerMisc:      indicator.Red,
	LayerPhotoshop: indicator.Green,
	LayerMacro:     indicator.Purple,
}

// Iottabyte is the four layer keymap: numpad, navigation, Photoshop and macros.
// Every call returns grids and colours the caller may modify.
func Iottabyte() *Keymap {
	layout := TidbitLayout
	layout.Holes = slices.Clone(TidbitLayout.Holes)
	return &Keymap{
		Name:       "iottabyte",
		Layout:     layout,
		Layers:     []Layer{base.Clone(), misc.Clone(), photoshop.Clone(), macro.Clone()},
		LayerNames: []string{"base", "misc", "photoshop", "macro"},
		MaxLayer:   3,
		Colors:     indicator.ColorMap{Layers: maps.Clone(iottabyteColors), Default: indicator.Cyan},
		Pages:      3,
	}
}

// IottabyteXL extends Iottabyte with seven pages of modified function keys,
// letting the encoder reach layer 10.
func IottabyteXL() *Keymap {
	km := Iottabyte()
	km.Name = "iottabyte-xl"
	km.MaxLayer = 10

	chords := []func(kc.Keycode) kc.Keycode{
		kc.LCtrl,
		kc.LShift,
		kc.LAlt,
		func(k kc.Keycode) kc.Keycode { return kc.LCtrl(kc.LShift(k)) },
		func(k kc.Keycode) kc.Keycode { return kc.LCtrl(kc.LAlt(k)) },
		func(k kc.Keycode) kc.Keycode { return kc.LShift(kc.LAlt(k)) },
		func(k kc.Keycode) kc.Keycode { return kc.LCtrl(kc.LShift(kc.LAlt(k))) },
	}
	for i, chord := range chords {
		km.Layers = append(km.Layers, functionPage(chord))
		km.LayerNames = append(km.LayerNames, fmt.Sprintf("fkeys-%d", i+1))
	}
	return km
}

// functionPage lays F1-F12 under the given chord on the lower three rows.
func functionPage(chord func(kc.Keycode) kc.Keycode) Layer {
	l := Layer{
		{xxxx, ____, ____, ____},
		{xxxx, ____, ____, ____},
		make([]kc.Keycode, 4),
		make([]kc.Keycode, 4),
		make([]kc.Keycode, 4),
	}
	for i := 0; i < 12; i++ {
		l[2+i/4][i%4] = chord(kc.KeyF1 + kc.Keycode(i))
	}
	return l
}

var variants = map[string]func() *Keymap{
	"iottabyte":    Iottabyte,
	"iottabyte-xl": IottabyteXL,
}

// Variants lists the bundled keymap names.
func Variants() []string {
	out := make([]string, 0, len(variants))
	for n := range variants {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Lookup returns a fresh copy of the named bundled keymap.
func Lookup(name string) (*Keymap, error) {
	f, ok := variants[name]
	if !ok {
		return nil, fmt.Errorf("unknown keymap %q (have %v)", name, Variants())
	}
	return f(), nil
}
