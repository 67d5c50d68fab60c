package sim

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/iottabyte/tidbit/device/keyboard"
	"github.com/iottabyte/tidbit/firmware"
	"github.com/iottabyte/tidbit/indicator"
	"github.com/iottabyte/tidbit/keycode"
	"github.com/iottabyte/tidbit/keymap"
)

const (
	colorAccent    = "86"
	colorHighlight = "205"
	colorDanger    = "196"
	colorMuted     = "241"
)

const cellWidth = 11

var styles = struct {
	Title   lipgloss.Style
	Cell    lipgloss.Style
	Held    lipgloss.Style
	Empty   lipgloss.Style
	Label   lipgloss.Style
	Banner  lipgloss.Style
	Grid    lipgloss.Style
	Caption lipgloss.Style
}{
	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colorAccent)),
	Cell: lipgloss.NewStyle().
		Width(cellWidth).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(colorMuted)),
	Held: lipgloss.NewStyle().
		Width(cellWidth).
		Align(lipgloss.Center).
		Bold(true).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(colorHighlight)),
	Empty: lipgloss.NewStyle().
		Width(cellWidth).
		Align(lipgloss.Center).
		Border(lipgloss.HiddenBorder()).
		Foreground(lipgloss.Color(colorMuted)),
	Label: lipgloss.NewStyle().
		Foreground(lipgloss.Color(colorMuted)),
	Banner: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colorDanger)),
	Grid: lipgloss.NewStyle().
		Padding(0, 1),
	Caption: lipgloss.NewStyle().
		Foreground(lipgloss.Color(colorMuted)).
		Italic(true),
}

func (m *Model) View() string {
	snap := m.rt.Snapshot()

	var b strings.Builder
	b.WriteString(styles.Title.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(styles.Grid.Render(m.renderGrid()))
	b.WriteString("\n")
	b.WriteString(m.renderStatus(snap))
	b.WriteString("\n")
	if snap.Bootloader {
		b.WriteString(styles.Banner.Render("bootloader requested"))
		b.WriteString("\n")
	}
	if m.hold {
		b.WriteString(styles.Caption.Render("hold mode: keys latch until pressed again"))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderGrid() string {
	return grid(m.km, func(r, c int) string {
		held := m.latched[firmware.Position{Row: r, Col: c}]
		return cell(ShortName(m.rt.Resolve(r, c)), held)
	})
}

// RenderLayer draws one layer of km as it would appear on the pad, without
// falling through transparent entries.
func RenderLayer(km *keymap.Keymap, l uint8) string {
	glow := km.Colors.Color(l)
	title := styles.Title.Render(fmt.Sprintf("%d %s", l, km.LayerName(l))) + " " + swatch(glow, true) + " " + glow.String()
	body := grid(km, func(r, c int) string {
		kc := km.Keycode(l, r, c)
		if kc == keycode.Transparent {
			return styles.Empty.Render("▽")
		}
		return cell(ShortName(kc), false)
	})
	return title + "\n" + body
}

func grid(km *keymap.Keymap, render func(r, c int) string) string {
	rows := make([]string, 0, km.Rows())
	for r := 0; r < km.Rows(); r++ {
		cells := make([]string, 0, km.Cols())
		for c := 0; c < km.Cols(); c++ {
			if km.Layout.IsHole(r, c) {
				cells = append(cells, styles.Empty.Render("(enc)"))
				continue
			}
			cells = append(cells, render(r, c))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func cell(label string, held bool) string {
	switch {
	case label == "":
		return styles.Empty.Render("·")
	case held:
		return styles.Held.Render(label)
	}
	return styles.Cell.Render(label)
}

func (m *Model) renderStatus(snap firmware.Snapshot) string {
	top := snap.Layers.Highest()
	glow := "off"
	if snap.GlowOn {
		glow = snap.Underglow.String()
	}
	lines := []string{
		field("layer", fmt.Sprintf("%d %s", top, m.km.LayerName(top))),
		field("underglow", swatch(snap.Underglow, snap.GlowOn)+" "+glow+" "+m.rt.Underglow().Mode().String()),
		field("status", snap.Status.String()),
		field("host leds", hostLEDs(snap.HostLEDs)),
		field("page", fmt.Sprintf("%d/%d", snap.Page+1, m.km.Pages)),
		field("report", report(snap.Report)),
	}
	return strings.Join(lines, "\n")
}

func field(name, value string) string {
	return styles.Label.Render(fmt.Sprintf("%-10s", name)) + " " + value
}

func swatch(c indicator.RGB, on bool) string {
	if !on {
		c = indicator.Black
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(c.String())).
		Render("    ")
}

func hostLEDs(leds uint8) string {
	var on []string
	if leds&keyboard.LEDNumLock != 0 {
		on = append(on, "num")
	}
	if leds&keyboard.LEDCapsLock != 0 {
		on = append(on, "caps")
	}
	if leds&keyboard.LEDScrollLock != 0 {
		on = append(on, "scroll")
	}
	if len(on) == 0 {
		return "-"
	}
	return strings.Join(on, " ")
}

func report(st keyboard.InputState) string {
	keys := st.Keys()
	if st.Modifiers == 0 && len(keys) == 0 {
		return "-"
	}
	return fmt.Sprintf("mods %02x keys % x", st.Modifiers, keys)
}

// ShortName is the label of kc on a key cap: the keycode name with every KC_
// prefix dropped, or "" for KC_NO.
func ShortName(kc keycode.Keycode) string {
	if kc == keycode.No {
		return ""
	}
	return strings.ReplaceAll(keymap.KeyName(kc), "KC_", "")
}
