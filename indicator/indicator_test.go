package indicator_test

import (
	"testing"

	"github.com/iottabyte/tidbit/device/keyboard"
	"github.com/iottabyte/tidbit/indicator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorMapIsTotal(t *testing.T) {
	m := indicator.ColorMap{
		Layers: map[uint8]indicator.RGB{
			0: indicator.Blue,
			1: indicator.Red,
			2: indicator.Green,
			3: indicator.Purple,
		},
		Default: indicator.Cyan,
	}

	for n := 0; n < 256; n++ {
		first := m.Color(uint8(n))
		assert.Equal(t, first, m.Color(uint8(n)), "layer %d", n)
		if n > 3 {
			assert.Equal(t, indicator.Cyan, first, "layer %d", n)
		}
	}
	assert.Equal(t, indicator.Purple, m.Color(3))

	var empty indicator.ColorMap
	assert.Equal(t, indicator.Black, empty.Color(7))
}

func TestParseRGB(t *testing.T) {
	type testCase struct {
		input    string
		expected indicator.RGB
		wantErr  bool
	}
	testCases := []testCase{
		{input: "#7A00FF", expected: indicator.Purple},
		{input: "0x00ffff", expected: indicator.Cyan},
		{input: "FF0000", expected: indicator.Red},
		{input: " #0000ff ", expected: indicator.Blue},
		{input: "#12345", wantErr: true},
		{input: "#GG0000", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := indicator.ParseRGB(tc.input)
			if tc.wantErr {
				assert.ErrorIs(t, err, indicator.ErrBadColor)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) indicator.RGB {
	t.Helper()
	c, err := indicator.ParseRGB(s)
	require.NoError(t, err)
	return c
}

func TestCapsLockLevel(t *testing.T) {
	assert.Equal(t, indicator.Dim, indicator.CapsLockLevel(keyboard.LEDCapsLock))
	assert.Equal(t, indicator.Dim, indicator.CapsLockLevel(keyboard.LEDCapsLock|keyboard.LEDNumLock))
	assert.Equal(t, indicator.Off, indicator.CapsLockLevel(keyboard.LEDNumLock|keyboard.LEDScrollLock))
	assert.Equal(t, indicator.Off, indicator.CapsLockLevel(0))
	assert.Equal(t, "dim", indicator.Dim.String())
}
