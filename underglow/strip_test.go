package underglow_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/iottabyte/tidbit/indicator"
	"github.com/iottabyte/tidbit/underglow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"periph.io/x/conn/v3/spi/spitest"
)

func TestSetRGBRendersEveryPixel(t *testing.T) {
	rec := &underglow.Recorder{}
	s := underglow.New(rec, 4, nil)

	s.SetRGB(indicator.Purple)

	require.Len(t, rec.Frames, 1)
	assert.Equal(t, bytes.Repeat([]byte{0x7A, 0x00, 0xFF}, 4), rec.Last())
	assert.Equal(t, indicator.Purple, s.Color())
}

func TestNegativePixelCountIsEmpty(t *testing.T) {
	rec := &underglow.Recorder{}
	s := underglow.New(rec, -1, nil)

	s.SetRGB(indicator.Red)

	require.Len(t, rec.Frames, 1)
	assert.Empty(t, rec.Last())
	assert.Empty(t, s.Frame())
}

func TestDisableBlanksAndKeepsColor(t *testing.T) {
	rec := &underglow.Recorder{}
	s := underglow.New(rec, 2, nil)
	s.SetRGB(indicator.Red)

	s.Disable()
	assert.False(t, s.Enabled())
	assert.Equal(t, make([]byte, 6), rec.Last())
	assert.Equal(t, indicator.Red, s.Color())

	s.Toggle()
	assert.Equal(t, []byte{0xFF, 0, 0, 0xFF, 0, 0}, rec.Last())
}

func TestSuspend(t *testing.T) {
	rec := &underglow.Recorder{}
	s := underglow.New(rec, 1, nil)
	s.SetRGB(indicator.Green)

	s.Suspend(true)
	assert.True(t, s.Suspended())
	assert.Equal(t, []byte{0, 0, 0}, rec.Last())

	s.Suspend(false)
	assert.Equal(t, []byte{0, 0xFF, 0}, rec.Last())
}

func TestStepMode(t *testing.T) {
	s := underglow.New(nil, 3, nil)
	assert.Equal(t, underglow.ModeStatic, s.Mode())
	s.StepMode(false)
	assert.Equal(t, underglow.ModeGradient, s.Mode())
	s.StepMode(true)
	s.StepMode(true)
	assert.Equal(t, underglow.ModeAlternate, s.Mode())
	s.StepMode(false)
	assert.Equal(t, underglow.ModeStatic, s.Mode())
}

func TestAlternateModeUsesComplement(t *testing.T) {
	s := underglow.New(nil, 2, nil)
	s.SetRGB(indicator.Red)
	s.StepMode(true)
	require.Equal(t, underglow.ModeAlternate, s.Mode())

	f := s.Frame()
	assert.Equal(t, []byte{0xFF, 0x00, 0x00}, f[:3])
	assert.Equal(t, []byte{0x00, 0xFF, 0xFF}, f[3:])
}

func TestHSVSteps(t *testing.T) {
	s := underglow.New(nil, 1, nil)
	s.SetRGB(indicator.Red)

	s.StepVal(false)
	c := s.Color()
	assert.Less(t, c.R, uint8(0xFF))
	assert.Equal(t, uint8(0), c.G)

	s.StepVal(true)
	assert.Equal(t, indicator.Red, s.Color())

	for i := 0; i < 40; i++ {
		s.StepVal(true)
	}
	assert.Equal(t, indicator.Red, s.Color(), "value saturates at full")

	s.StepHue(true)
	c = s.Color()
	assert.Equal(t, uint8(0xFF), c.R)
	assert.Greater(t, c.G, uint8(0))

	s.StepHue(false)
	c = s.Color()
	assert.Equal(t, uint8(0xFF), c.R)
	assert.LessOrEqual(t, c.G, uint8(1))
	assert.Equal(t, uint8(0), c.B)

	s.SetRGB(indicator.Red)
	s.StepSat(false)
	c = s.Color()
	assert.Greater(t, c.G, uint8(0))
	assert.Equal(t, c.G, c.B)
}

func TestWriteErrorIsKept(t *testing.T) {
	rec := &underglow.Recorder{Err: errors.New("bus gone")}
	s := underglow.New(rec, 1, nil)
	s.SetRGB(indicator.Blue)
	assert.EqualError(t, s.LastErr, "bus gone")
}

func TestClose(t *testing.T) {
	rec := &underglow.Recorder{}
	s := underglow.New(rec, 1, nil)
	require.NoError(t, s.Close())
	assert.True(t, rec.Halted)
}

func TestNRZOverSPI(t *testing.T) {
	buf := bytes.Buffer{}
	d, err := underglow.NewNRZ(spitest.NewRecordRaw(&buf), 2)
	require.NoError(t, err)
	assert.Equal(t, "nrzled{recordraw}", d.String())

	s := underglow.New(d, 2, nil)
	s.SetRGB(indicator.Cyan)
	assert.NoError(t, s.LastErr)
	assert.NotZero(t, buf.Len())
}
