package keycode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownKeycode is returned by Parse for names it cannot resolve.
var ErrUnknownKeycode = errors.New("unknown keycode")

// names maps keycodes to their canonical names.
var names = map[Keycode]string{
	No:          "KC_NO",
	Transparent: "KC_TRNS",

	KeyA: "KC_A", KeyB: "KC_B", KeyC: "KC_C", KeyD: "KC_D", KeyE: "KC_E", KeyF: "KC_F", KeyG: "KC_G",
	KeyH: "KC_H", KeyI: "KC_I", KeyJ: "KC_J", KeyK: "KC_K", KeyL: "KC_L", KeyM: "KC_M", KeyN: "KC_N",
	KeyO: "KC_O", KeyP: "KC_P", KeyQ: "KC_Q", KeyR: "KC_R", KeyS: "KC_S", KeyT: "KC_T", KeyU: "KC_U",
	KeyV: "KC_V", KeyW: "KC_W", KeyX: "KC_X", KeyY: "KC_Y", KeyZ: "KC_Z",

	Key1: "KC_1", Key2: "KC_2", Key3: "KC_3", Key4: "KC_4", Key5: "KC_5",
	Key6: "KC_6", Key7: "KC_7", Key8: "KC_8", Key9: "KC_9", Key0: "KC_0",

	KeyEnter:      "KC_ENTER",
	KeyEscape:     "KC_ESCAPE",
	KeyBackspace:  "KC_BACKSPACE",
	KeyTab:        "KC_TAB",
	KeySpace:      "KC_SPACE",
	KeyMinus:      "KC_MINUS",
	KeyEqual:      "KC_EQUAL",
	KeyLeftBrace:  "KC_LEFT_BRACKET",
	KeyRightBrace: "KC_RIGHT_BRACKET",
	KeyBackslash:  "KC_BACKSLASH",
	KeySemicolon:  "KC_SEMICOLON",
	KeyApostrophe: "KC_QUOTE",
	KeyGrave:      "KC_GRAVE",
	KeyComma:      "KC_COMMA",
	KeyPeriod:     "KC_DOT",
	KeySlash:      "KC_SLASH",
	KeyCapsLock:   "KC_CAPS_LOCK",

	KeyF1: "KC_F1", KeyF2: "KC_F2", KeyF3: "KC_F3", KeyF4: "KC_F4", KeyF5: "KC_F5", KeyF6: "KC_F6",
	KeyF7: "KC_F7", KeyF8: "KC_F8", KeyF9: "KC_F9", KeyF10: "KC_F10", KeyF11: "KC_F11", KeyF12: "KC_F12",

	KeyPrintScreen: "KC_PRINT_SCREEN",
	KeyScrollLock:  "KC_SCROLL_LOCK",
	KeyPause:       "KC_PAUSE",
	KeyInsert:      "KC_INSERT",
	KeyHome:        "KC_HOME",
	KeyPageUp:      "KC_PAGE_UP",
	KeyDelete:      "KC_DELETE",
	KeyEnd:         "KC_END",
	KeyPageDown:    "KC_PAGE_DOWN",

	KeyRight: "KC_RIGHT",
	KeyLeft:  "KC_LEFT",
	KeyDown:  "KC_DOWN",
	KeyUp:    "KC_UP",

	KeyNumLock:    "KC_NUM_LOCK",
	KeyKpSlash:    "KC_KP_SLASH",
	KeyKpAsterisk: "KC_KP_ASTERISK",
	KeyKpMinus:    "KC_KP_MINUS",
	KeyKpPlus:     "KC_KP_PLUS",
	KeyKpEnter:    "KC_KP_ENTER",
	KeyKp1:        "KC_KP_1",
	KeyKp2:        "KC_KP_2",
	KeyKp3:        "KC_KP_3",
	KeyKp4:        "KC_KP_4",
	KeyKp5:        "KC_KP_5",
	KeyKp6:        "KC_KP_6",
	KeyKp7:        "KC_KP_7",
	KeyKp8:        "KC_KP_8",
	KeyKp9:        "KC_KP_9",
	KeyKp0:        "KC_KP_0",
	KeyKpDot:      "KC_KP_DOT",

	KeyApplication: "KC_APPLICATION",
	KeyMute:        "KC_MUTE",
	KeyVolumeUp:    "KC_VOLUME_UP",
	KeyVolumeDown:  "KC_VOLUME_DOWN",

	LeftCtrl:   "KC_LEFT_CTRL",
	LeftShift:  "KC_LEFT_SHIFT",
	LeftAlt:    "KC_LEFT_ALT",
	LeftGUI:    "KC_LEFT_GUI",
	RightCtrl:  "KC_RIGHT_CTRL",
	RightShift: "KC_RIGHT_SHIFT",
	RightAlt:   "KC_RIGHT_ALT",
	RightGUI:   "KC_RIGHT_GUI",

	KeyMediaPlayPause: "KC_MEDIA_PLAY_PAUSE",
	KeyMediaStop:      "KC_MEDIA_STOP",
	KeyMediaNext:      "KC_MEDIA_NEXT_TRACK",
	KeyMediaPrevious:  "KC_MEDIA_PREV_TRACK",

	RGBToggle:  "RGB_TOG",
	RGBMode:    "RGB_MOD",
	RGBModeRev: "RGB_RMOD",
	RGBHueUp:   "RGB_HUI",
	RGBHueDown: "RGB_HUD",
	RGBSatUp:   "RGB_SAI",
	RGBSatDown: "RGB_SAD",
	RGBValUp:   "RGB_VAI",
	RGBValDown: "RGB_VAD",

	QKBoot: "QK_BOOT",
}

// aliases are the short forms accepted by Parse in addition to canonical names.
var aliases = map[string]Keycode{
	"KC_TRANSPARENT": Transparent,

	"XXXXXXX": No,
	"_______": Transparent,
	"KC_ENT":  KeyEnter,
	"KC_ESC":  KeyEscape,
	"KC_BSPC": KeyBackspace,
	"KC_SPC":  KeySpace,
	"KC_CAPS": KeyCapsLock,
	"KC_PSCR": KeyPrintScreen,
	"KC_INS":  KeyInsert,
	"KC_PGUP": KeyPageUp,
	"KC_DEL":  KeyDelete,
	"KC_PGDN": KeyPageDown,
	"KC_RGHT": KeyRight,
	"KC_NLCK": KeyNumLock,
	"KC_NUM":  KeyNumLock,
	"KC_PSLS": KeyKpSlash,
	"KC_PAST": KeyKpAsterisk,
	"KC_PMNS": KeyKpMinus,
	"KC_PPLS": KeyKpPlus,
	"KC_PENT": KeyKpEnter,
	"KC_P1":   KeyKp1,
	"KC_P2":   KeyKp2,
	"KC_P3":   KeyKp3,
	"KC_P4":   KeyKp4,
	"KC_P5":   KeyKp5,
	"KC_P6":   KeyKp6,
	"KC_P7":   KeyKp7,
	"KC_P8":   KeyKp8,
	"KC_P9":   KeyKp9,
	"KC_P0":   KeyKp0,
	"KC_PDOT": KeyKpDot,
	"KC_VOLU": KeyVolumeUp,
	"KC_VOLD": KeyVolumeDown,
	"KC_LCTL": LeftCtrl,
	"KC_LSFT": LeftShift,
	"KC_LALT": LeftAlt,
	"KC_LGUI": LeftGUI,
	"KC_RCTL": RightCtrl,
	"KC_RSFT": RightShift,
	"KC_RALT": RightAlt,
	"KC_RGUI": RightGUI,
	"KC_MPLY": KeyMediaPlayPause,
	"KC_MSTP": KeyMediaStop,
	"KC_MNXT": KeyMediaNext,
	"KC_MPRV": KeyMediaPrevious,
	"RESET":   QKBoot,
}

var byName = func() map[string]Keycode {
	m := make(map[string]Keycode, len(names)+len(aliases))
	for k, n := range names {
		m[n] = k
	}
	for n, k := range aliases {
		m[n] = k
	}
	return m
}()

// Parse resolves a keycode name such as "KC_KP_7", "MO(1)", "LCTL(KC_A)" or
// "0x7E00". Names in custom take precedence over the built-in table.
func Parse(s string, custom map[string]Keycode) (Keycode, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if k, ok := custom[s]; ok {
		return k, nil
	}
	if k, ok := byName[s]; ok {
		return k, nil
	}
	if strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 16)
		if err != nil {
			return No, fmt.Errorf("%w: %s", ErrUnknownKeycode, s)
		}
		return Keycode(v), nil
	}

	fn, arg, ok := splitCall(s)
	if !ok {
		return No, fmt.Errorf("%w: %s", ErrUnknownKeycode, s)
	}
	switch fn {
	case "MO", "TO":
		n, err := strconv.ParseUint(arg, 10, 8)
		if err != nil || n > 31 {
			return No, fmt.Errorf("%w: bad layer in %s", ErrUnknownKeycode, s)
		}
		if fn == "MO" {
			return MO(uint8(n)), nil
		}
		return TO(uint8(n)), nil
	case "USER":
		n, err := strconv.ParseUint(arg, 10, 16)
		if err != nil || n > uint64(^Keycode(0)-SafeRange) {
			return No, fmt.Errorf("%w: bad index in %s", ErrUnknownKeycode, s)
		}
		return SafeRange + Keycode(n), nil
	case "LCTL", "LSFT", "LALT", "LGUI", "RCTL", "RSFT", "RALT", "RGUI":
		inner, err := Parse(arg, custom)
		if err != nil {
			return No, err
		}
		if !inner.IsBasic() && !inner.IsModified() {
			return No, fmt.Errorf("%w: %s cannot take modifiers", ErrUnknownKeycode, inner)
		}
		switch fn {
		case "LCTL":
			return LCtrl(inner), nil
		case "LSFT":
			return LShift(inner), nil
		case "LALT":
			return LAlt(inner), nil
		case "LGUI":
			return LGUI(inner), nil
		case "RCTL":
			return RCtrl(inner), nil
		case "RSFT":
			return RShift(inner), nil
		case "RALT":
			return RAlt(inner), nil
		default:
			return RGUI(inner), nil
		}
	}
	return No, fmt.Errorf("%w: %s", ErrUnknownKeycode, s)
}

func splitCall(s string) (fn, arg string, ok bool) {
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return "", "", false
	}
	return s[:open], s[open+1 : len(s)-1], true
}
