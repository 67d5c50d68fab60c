// Package indicator maps layer and lock state onto the macropad's lights.
package indicator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/iottabyte/tidbit/device/keyboard"
)

// RGB is a single underglow colour.
type RGB struct {
	R, G, B uint8
}

// Common colours used by the bundled keymaps.
var (
	Blue   = RGB{0x00, 0x00, 0xFF}
	Red    = RGB{0xFF, 0x00, 0x00}
	Green  = RGB{0x00, 0xFF, 0x00}
	Purple = RGB{0x7A, 0x00, 0xFF}
	Cyan   = RGB{0x00, 0xFF, 0xFF}
	Black  = RGB{}
)

// ErrBadColor is returned by ParseRGB for malformed colours.
var ErrBadColor = errors.New("invalid color")

// ParseRGB accepts "#RRGGBB", "0xRRGGBB" or "RRGGBB".
func ParseRGB(s string) (RGB, error) {
	h := strings.TrimSpace(s)
	h = strings.TrimPrefix(h, "#")
	if len(h) > 2 && (h[:2] == "0x" || h[:2] == "0X") {
		h = h[2:]
	}
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrBadColor, s)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// MarshalText implements encoding.TextMarshaler.
func (c RGB) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *RGB) UnmarshalText(b []byte) error {
	v, err := ParseRGB(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ColorMap assigns an underglow colour to each layer. Layers without an entry
// get Default.
type ColorMap struct {
	Layers  map[uint8]RGB
	Default RGB
}

// Color returns the colour for layer. It never fails.
func (m ColorMap) Color(layer uint8) RGB {
	if c, ok := m.Layers[layer]; ok {
		return c
	}
	return m.Default
}

// Level is the brightness of the controller's status LED.
type Level uint8

const (
	Off Level = iota
	Dim
	On
)

func (l Level) String() string {
	switch l {
	case Off:
		return "off"
	case Dim:
		return "dim"
	case On:
		return "on"
	}
	return "level(" + strconv.Itoa(int(l)) + ")"
}

// CapsLockLevel maps the host LED bitmask to a status LED level: dim while
// caps lock is on, off otherwise.
func CapsLockLevel(leds uint8) Level {
	if leds&keyboard.LEDCapsLock != 0 {
		return Dim
	}
	return Off
}
