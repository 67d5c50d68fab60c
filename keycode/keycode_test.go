package keycode_test

import (
	"testing"

	"github.com/iottabyte/tidbit/keycode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	custom := map[string]keycode.Keycode{"PROG": keycode.SafeRange}

	type testCase struct {
		name     string
		input    string
		expected keycode.Keycode
		wantErr  bool
	}
	testCases := []testCase{
		{name: "canonical", input: "KC_KP_7", expected: keycode.KeyKp7},
		{name: "alias", input: "KC_MPRV", expected: keycode.KeyMediaPrevious},
		{name: "lower case", input: "kc_f12", expected: keycode.KeyF12},
		{name: "transparent", input: "_______", expected: keycode.Transparent},
		{name: "momentary", input: "MO(1)", expected: keycode.MO(1)},
		{name: "to", input: "TO(3)", expected: keycode.TO(3)},
		{name: "ctrl chord", input: "LCTL(KC_A)", expected: keycode.LCtrl(keycode.KeyA)},
		{name: "nested chord", input: "LCTL(LSFT(KC_Z))", expected: keycode.LCtrl(keycode.LShift(keycode.KeyZ))},
		{name: "right chord", input: "RALT(KC_E)", expected: keycode.RAlt(keycode.KeyE)},
		{name: "right chord hex", input: "0x1104", expected: keycode.RCtrl(keycode.KeyA)},
		{name: "underglow", input: "RGB_HUI", expected: keycode.RGBHueUp},
		{name: "hex", input: "0x7E01", expected: keycode.SafeRange + 1},
		{name: "custom", input: "prog", expected: keycode.SafeRange},
		{name: "unknown", input: "KC_NOPE", wantErr: true},
		{name: "layer out of range", input: "MO(40)", wantErr: true},
		{name: "chord of layer key", input: "LCTL(MO(1))", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := keycode.Parse(tc.input, custom)
			if tc.wantErr {
				assert.ErrorIs(t, err, keycode.ErrUnknownKeycode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, k := range []keycode.Keycode{
		keycode.KeyKp0,
		keycode.MO(2),
		keycode.TO(10),
		keycode.LCtrl(keycode.KeyA),
		keycode.RCtrl(keycode.KeyA),
		keycode.RShift(keycode.RGUI(keycode.KeyTab)),
		keycode.Keycode(0x1F2C),
		keycode.RGBMode,
		keycode.Transparent,
	} {
		got, err := keycode.Parse(k.String(), nil)
		require.NoError(t, err, k.String())
		assert.Equal(t, k, got)
	}
}

func TestRightChordString(t *testing.T) {
	k, err := keycode.Parse("0x1104", nil)
	require.NoError(t, err)
	assert.Equal(t, "RCTL(KC_A)", k.String())
	assert.Equal(t, uint8(0x10), k.HIDMods())

	again, err := keycode.Parse(k.String(), nil)
	require.NoError(t, err)
	assert.Equal(t, keycode.Keycode(0x1104), again)

	assert.Equal(t, "RCTL(RSFT(KC_Z))", keycode.RShift(keycode.RCtrl(keycode.KeyZ)).String())
}

func TestClassification(t *testing.T) {
	assert.True(t, keycode.KeyA.IsBasic())
	assert.False(t, keycode.Transparent.IsBasic())
	assert.False(t, keycode.No.IsBasic())
	assert.True(t, keycode.LeftShift.IsModifier())
	assert.True(t, keycode.MO(3).IsMomentary())
	assert.Equal(t, uint8(3), keycode.MO(3).Layer())
	assert.True(t, keycode.RGBValDown.IsUnderglow())
	assert.True(t, (keycode.SafeRange + 2).IsCustom())
	assert.Equal(t, "USER(2)", (keycode.SafeRange + 2).String())
}

func TestHIDMods(t *testing.T) {
	assert.Equal(t, uint8(0x01), keycode.LCtrl(keycode.KeyA).HIDMods())
	assert.Equal(t, uint8(0x03), keycode.LCtrl(keycode.LShift(keycode.KeyA)).HIDMods())
	assert.Equal(t, uint8(keycode.KeyA), keycode.LCtrl(keycode.KeyA).Base())
	assert.Equal(t, uint8(0x02), keycode.LeftShift.HIDMods())
	assert.Equal(t, uint8(0x80), keycode.RightGUI.HIDMods())
	assert.Equal(t, uint8(0), keycode.KeyA.HIDMods())
}
