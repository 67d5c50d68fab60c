// Package keyboard holds the HID keyboard report state streamed to a VIIPER
// keyboard device and the LED state the host sends back.
package keyboard

import (
	"io"
)

// InputState represents the keyboard state used to build a report.
// Internally uses a 256-bit bitmap for N-key rollover support.
type InputState struct {
	Modifiers uint8     // bit 0-7: LCtrl, LShift, LAlt, LGui, RCtrl, RShift, RAlt, RGui
	KeyBitmap [32]uint8 // 256 bits for HID usage codes 0x00-0xFF
}

// LEDState represents the state of keyboard LEDs controlled by the host.
type LEDState struct {
	NumLock    bool
	CapsLock   bool
	ScrollLock bool
	Compose    bool
	Kana       bool
}

// Bits returns the 1-byte LED bitmask.
func (st LEDState) Bits() uint8 {
	var b uint8
	if st.NumLock {
		b |= LEDNumLock
	}
	if st.CapsLock {
		b |= LEDCapsLock
	}
	if st.ScrollLock {
		b |= LEDScrollLock
	}
	if st.Compose {
		b |= LEDCompose
	}
	if st.Kana {
		b |= LEDKana
	}
	return b
}

// MarshalBinary encodes LEDState as the 1-byte bitmask sent by the host.
func (st *LEDState) MarshalBinary() ([]byte, error) {
	return []byte{st.Bits()}, nil
}

// UnmarshalBinary decodes a 1-byte LED bitmask into LEDState.
// Bits are defined by LEDNumLock, LEDCapsLock, LEDScrollLock, LEDCompose, LEDKana.
func (st *LEDState) UnmarshalBinary(data []byte) error {
	if len(data) < 1 {
		return io.ErrUnexpectedEOF
	}
	b := data[0]
	st.NumLock = b&LEDNumLock != 0
	st.CapsLock = b&LEDCapsLock != 0
	st.ScrollLock = b&LEDScrollLock != 0
	st.Compose = b&LEDCompose != 0
	st.Kana = b&LEDKana != 0
	return nil
}

// Press sets the bit for a HID usage code.
func (st *InputState) Press(key uint8) {
	st.KeyBitmap[key/8] |= 1 << (key % 8)
}

// Lift clears the bit for a HID usage code.
func (st *InputState) Lift(key uint8) {
	st.KeyBitmap[key/8] &^= 1 << (key % 8)
}

// Pressed reports whether key is held.
func (st InputState) Pressed(key uint8) bool {
	return st.KeyBitmap[key/8]&(1<<(key%8)) != 0
}

// Keys lists the held HID usage codes in ascending order.
func (st InputState) Keys() []uint8 {
	var keys []uint8
	for i := 0; i < 256; i++ {
		if st.Pressed(uint8(i)) {
			keys = append(keys, uint8(i))
		}
	}
	return keys
}

// BuildReport encodes an InputState into the 34-byte HID keyboard report.
//
// Report layout (34 bytes):
//
//	Byte 0: Modifiers (8 bits)
//	Byte 1: Reserved (0x00)
//	Bytes 2-33: Key bitmap (256 bits, 32 bytes)
func (st InputState) BuildReport() []byte {
	b := make([]byte, ReportSize)
	b[0] = st.Modifiers
	b[1] = 0x00 // Reserved
	copy(b[2:ReportSize], st.KeyBitmap[:])
	return b
}

// MarshalBinary encodes InputState to variable-length wire format.
//
// Wire format:
//
//	Byte 0: Modifiers
//	Byte 1: Key count
//	Bytes 2+: Key codes (HID usage codes of pressed keys)
func (st *InputState) MarshalBinary() ([]byte, error) {
	keys := st.Keys()
	b := make([]byte, 2+len(keys))
	b[0] = st.Modifiers
	b[1] = uint8(len(keys))
	copy(b[2:], keys)
	return b, nil
}

// UnmarshalBinary decodes variable-length wire format into InputState.
func (st *InputState) UnmarshalBinary(data []byte) error {
	if len(data) < 2 {
		return io.ErrUnexpectedEOF
	}

	st.Modifiers = data[0]
	keyCount := int(data[1])

	if len(data) < 2+keyCount {
		return io.ErrUnexpectedEOF
	}

	for i := range st.KeyBitmap {
		st.KeyBitmap[i] = 0
	}
	for i := 0; i < keyCount; i++ {
		st.Press(data[2+i])
	}

	return nil
}
