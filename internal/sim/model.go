// Package sim is a terminal macropad: terminal keys drive the switch matrix and
// the encoder of a firmware.Runtime, and the view shows what the keymap does
// with them.
package sim

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/iottabyte/tidbit/device/keyboard"
	"github.com/iottabyte/tidbit/firmware"
	"github.com/iottabyte/tidbit/keymap"
)

// DefaultScanInterval is how often the model runs a scan cycle.
const DefaultScanInterval = 10 * time.Millisecond

type tickMsg time.Time

type eventMsg struct{ ev firmware.Event }

type eventsDoneMsg struct{}

// Model is the bubbletea model of the simulator.
type Model struct {
	rt       *firmware.Runtime
	km       *keymap.Keymap
	events   <-chan firmware.Event
	interval time.Duration

	keys KeyMap
	help help.Model

	hold    bool
	latched map[firmware.Position]bool
	title   string
}

// New builds a model around an initialized runtime. events, if non-nil,
// carries host side input (LED reports) into the runtime; the model quits when
// it is closed.
func New(rt *firmware.Runtime, km *keymap.Keymap, events <-chan firmware.Event) *Model {
	return &Model{
		rt:       rt,
		km:       km,
		events:   events,
		interval: DefaultScanInterval,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		latched:  make(map[firmware.Position]bool),
		title:    km.Name,
	}
}

// SetTitle replaces the header text.
func (m *Model) SetTitle(s string) { m.title = s }

// SetScanInterval changes the scan cadence. Non-positive values are ignored.
func (m *Model) SetScanInterval(d time.Duration) {
	if d > 0 {
		m.interval = d
	}
}

// Holding reports whether hold mode is on.
func (m *Model) Holding() bool { return m.hold }

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.waitEvent())
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) waitEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsDoneMsg{}
		}
		return eventMsg{ev}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.rt.Scan()
		return m, m.tick()
	case eventMsg:
		m.rt.Apply(msg.ev)
		return m, m.waitEvent()
	case eventsDoneMsg:
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.NextLayer):
		m.rt.Rotate(0, false)
	case key.Matches(msg, m.keys.PrevLayer):
		m.rt.Rotate(0, true)
	case key.Matches(msg, m.keys.Hold):
		m.hold = !m.hold
		if !m.hold {
			m.releaseLatched()
		}
	case key.Matches(msg, m.keys.CapsLock):
		m.rt.SetHostLEDs(m.rt.Snapshot().HostLEDs ^ keyboard.LEDCapsLock)
	case key.Matches(msg, m.keys.Suspend):
		m.rt.Suspend(!m.rt.Underglow().Suspended())
	default:
		pos, ok := position(msg.String())
		if !ok {
			return nil
		}
		m.press(pos)
	}
	return nil
}

// press taps pos, or in hold mode toggles it between down and up.
func (m *Model) press(pos firmware.Position) {
	if !m.hold {
		m.rt.Tap(pos.Row, pos.Col)
		return
	}
	if m.latched[pos] {
		delete(m.latched, pos)
		m.rt.Release(pos.Row, pos.Col)
		return
	}
	m.latched[pos] = true
	m.rt.Press(pos.Row, pos.Col)
}

func (m *Model) releaseLatched() {
	for pos := range m.latched {
		m.rt.Release(pos.Row, pos.Col)
	}
	clear(m.latched)
}

// Run drives m in the alternate screen until the user quits or ctx is done.
func Run(ctx context.Context, m *Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
