package sim_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iottabyte/tidbit/firmware"
	"github.com/iottabyte/tidbit/internal/sim"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want sim.Step
	}{
		{"", sim.Step{}},
		{"   # comment", sim.Step{}},
		{"press 2 0", sim.Step{Events: []firmware.Event{firmware.KeyEvent{Row: 2, Col: 0, Pressed: true}}}},
		{"release 2 0", sim.Step{Events: []firmware.Event{firmware.KeyEvent{Row: 2, Col: 0}}}},
		{"TAP 4 1", sim.Step{Events: []firmware.Event{
			firmware.KeyEvent{Row: 4, Col: 1, Pressed: true},
			firmware.KeyEvent{Row: 4, Col: 1},
		}}},
		{"rotate ccw", sim.Step{Events: []firmware.Event{firmware.RotateEvent{}}}},
		{"rotate cw 1", sim.Step{Events: []firmware.Event{firmware.RotateEvent{Index: 1, Clockwise: true}}}},
		{"leds 0x02", sim.Step{Events: []firmware.Event{firmware.HostLEDEvent{LEDs: 2}}}},
		{"suspend on", sim.Step{Events: []firmware.Event{firmware.SuspendEvent{On: true}}}},
		{"sleep 15ms", sim.Step{Sleep: 15 * time.Millisecond}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := sim.ParseLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLineErrors(t *testing.T) {
	for _, line := range []string{
		"press 1",
		"press -1 0",
		"tap a b",
		"rotate left",
		"rotate cw 300",
		"leds 256",
		"suspend maybe",
		"sleep soon",
		"jump 1 2",
	} {
		t.Run(line, func(t *testing.T) {
			_, err := sim.ParseLine(line)
			assert.ErrorIs(t, err, sim.ErrBadScript)
		})
	}
}

func TestPlay(t *testing.T) {
	script := `
# select the photoshop layer and tap L
rotate ccw
rotate ccw
tap 3 0
leds 2
`
	out := make(chan firmware.Event, 8)
	require.NoError(t, sim.Play(context.Background(), strings.NewReader(script), out))
	close(out)

	var got []firmware.Event
	for ev := range out {
		got = append(got, ev)
	}
	assert.Equal(t, []firmware.Event{
		firmware.RotateEvent{},
		firmware.RotateEvent{},
		firmware.KeyEvent{Row: 3, Col: 0, Pressed: true},
		firmware.KeyEvent{Row: 3, Col: 0},
		firmware.HostLEDEvent{LEDs: 2},
	}, got)
}

func TestPlayReportsLine(t *testing.T) {
	out := make(chan firmware.Event, 4)
	err := sim.Play(context.Background(), strings.NewReader("tap 2 0\nbogus\n"), out)
	assert.ErrorIs(t, err, sim.ErrBadScript)
	assert.ErrorContains(t, err, "line 2")
	assert.Len(t, out, 2)
}

func TestPlayStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := make(chan firmware.Event)
	err := sim.Play(ctx, strings.NewReader("sleep 1h\n"), out)
	assert.ErrorIs(t, err, context.Canceled)
}
