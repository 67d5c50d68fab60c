package sim

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iottabyte/tidbit/device/keyboard"
	"github.com/iottabyte/tidbit/firmware"
	"github.com/iottabyte/tidbit/indicator"
	"github.com/iottabyte/tidbit/keymap"
)

func newRuntime(km *keymap.Keymap) *firmware.Runtime {
	rt := firmware.New(firmware.Config{Matrix: km, Hooks: keymap.NewUser(km)})
	rt.Init()
	return rt
}

func TestHostEventsReachRuntime(t *testing.T) {
	km := keymap.Iottabyte()
	rt := newRuntime(km)
	events := make(chan firmware.Event, 1)
	m := New(rt, km, events)

	events <- firmware.HostLEDEvent{LEDs: keyboard.LEDCapsLock}
	msg := m.waitEvent()()
	require.IsType(t, eventMsg{}, msg)

	_, next := m.Update(msg)
	assert.NotNil(t, next, "keeps listening")
	assert.Equal(t, indicator.Dim, rt.Snapshot().Status)

	close(events)
	msg = m.waitEvent()()
	require.IsType(t, eventsDoneMsg{}, msg)
	_, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestNoEventsNoWait(t *testing.T) {
	km := keymap.Iottabyte()
	m := New(newRuntime(km), km, nil)
	assert.Nil(t, m.waitEvent())
}

func TestTickScans(t *testing.T) {
	km := keymap.Iottabyte()
	rt := newRuntime(km)
	m := New(rt, km, nil)
	m.SetScanInterval(time.Hour)
	m.SetScanInterval(0)
	assert.Equal(t, time.Hour, m.interval)

	_, cmd := m.Update(tickMsg(time.Now()))
	assert.NotNil(t, cmd)
	assert.Equal(t, uint64(1), rt.Snapshot().Scans)
}

func TestPosition(t *testing.T) {
	tests := []struct {
		key  string
		want firmware.Position
		ok   bool
	}{
		{"1", firmware.Position{Row: 0, Col: 0}, true},
		{"8", firmware.Position{Row: 1, Col: 3}, true},
		{"e", firmware.Position{Row: 2, Col: 2}, true},
		{"a", firmware.Position{Row: 3, Col: 0}, true},
		{"v", firmware.Position{Row: 4, Col: 3}, true},
		{"p", firmware.Position{}, false},
		{"tab", firmware.Position{}, false},
	}
	for _, tt := range tests {
		got, ok := position(tt.key)
		assert.Equal(t, tt.ok, ok, tt.key)
		assert.Equal(t, tt.want, got, tt.key)
	}
}
