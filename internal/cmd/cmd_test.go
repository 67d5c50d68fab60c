package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v3"

	"github.com/iottabyte/tidbit/device/keyboard"
	"github.com/iottabyte/tidbit/firmware"
	"github.com/iottabyte/tidbit/indicator"
	"github.com/iottabyte/tidbit/keycode"
	"github.com/iottabyte/tidbit/keymap"
)

func TestConfigKey(t *testing.T) {
	tests := []struct {
		field string
		tag   reflect.StructTag
		want  string
	}{
		{"ScanInterval", "", "scan_interval"},
		{"SPI", "", "spi"},
		{"BusID", "", "bus_id"},
		{"KeymapFile", "", "keymap_file"},
		{"ConfigFile", `name:"config"`, "config"},
		{"DialTimeout", `name:"dial-timeout"`, "dial_timeout"},
	}
	for _, tt := range tests {
		f := reflect.StructField{Name: tt.field, Tag: tt.tag}
		assert.Equal(t, tt.want, configKey(f), tt.field)
	}
}

func TestLinkTemplate(t *testing.T) {
	root, err := template("link")
	require.NoError(t, err)

	assert.Equal(t, "localhost:3242", root["server"])
	assert.Equal(t, "iottabyte", root["keymap"])
	assert.Equal(t, "10ms", root["scan_interval"])
	assert.Equal(t, int64(8), root["pixels"])
	assert.Equal(t, uint64(0), root["bus_id"])
	assert.Equal(t, false, root["keep_bus"])

	api, ok := root["viiper"].(map[string]any)
	require.True(t, ok, "viiper section")
	assert.Equal(t, "3s", api["dial_timeout"])
	assert.Equal(t, "", api["password"])

	_, err = template("server")
	assert.Error(t, err)
}

func TestConfigInitWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	for _, format := range []string{"json", "yaml", "toml"} {
		t.Run(format, func(t *testing.T) {
			dest := filepath.Join(dir, "nested", "sim."+format)
			c := &ConfigInit{Command: "sim", Format: format, Output: dest}
			require.NoError(t, c.Run())

			data, err := os.ReadFile(dest)
			require.NoError(t, err)
			assert.Contains(t, string(data), "scan_interval")

			assert.Error(t, c.Run(), "refuses to overwrite")
			c.Force = true
			assert.NoError(t, c.Run())
		})
	}

	var decoded map[string]any
	data, err := os.ReadFile(filepath.Join(dir, "nested", "sim.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "iottabyte", decoded["keymap"])
}

func TestListKeymaps(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, listKeymaps(&buf))
	out := buf.String()
	assert.Contains(t, out, "iottabyte ")
	assert.Contains(t, out, "iottabyte-xl")
	assert.Contains(t, out, "base, misc, photoshop, macro")
}

func TestShowKeymap(t *testing.T) {
	km := keymap.Iottabyte()

	var buf bytes.Buffer
	require.NoError(t, showKeymap(&buf, km, nil))
	for _, name := range km.LayerNames {
		assert.Contains(t, buf.String(), name)
	}

	buf.Reset()
	one := keymap.LayerPhotoshop
	require.NoError(t, showKeymap(&buf, km, &one))
	assert.Contains(t, buf.String(), "photoshop")
	assert.NotContains(t, buf.String(), "macro")

	bad := uint8(9)
	assert.Error(t, showKeymap(&buf, km, &bad))
}

func TestKeymapExportLoadsBack(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "xl.yaml")
	c := &KeymapExport{
		KeymapSource: KeymapSource{Keymap: "iottabyte-xl"},
		Format:       "yaml",
		Output:       dest,
	}
	require.NoError(t, c.Run())

	var doc map[string]any
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(data, &doc))

	src := KeymapSource{KeymapFile: dest}
	km, err := src.load()
	require.NoError(t, err)
	assert.Equal(t, uint8(10), km.MaxLayer)
	assert.Equal(t, keymap.IottabyteXL().Layers, km.Layers)

	assert.Error(t, c.Run(), "refuses to overwrite")
}

type reportSink struct {
	reports []keyboard.InputState
}

func (s *reportSink) SendReport(st keyboard.InputState) error {
	s.reports = append(s.reports, st)
	return nil
}

func TestRunScript(t *testing.T) {
	k := &Keyboard{KeymapSource: KeymapSource{Keymap: "iottabyte"}, Pixels: 2}
	sink := &reportSink{}
	km, rt, strip, err := k.build(nopLogger(), sink, false, nil)
	require.NoError(t, err)
	defer strip.Close()
	sink.reports = nil

	script := strings.Join([]string{
		"rotate ccw",
		"rotate ccw",
		"tap 3 0",
		"leds 3",
	}, "\n")
	require.NoError(t, runScript(context.Background(), nopLogger(), rt, strings.NewReader(script), time.Hour, nil))

	snap := rt.Snapshot()
	assert.Equal(t, keymap.LayerPhotoshop, snap.Layers.Highest())
	assert.Equal(t, indicator.Green, snap.Underglow)
	assert.Equal(t, indicator.Dim, snap.Status)
	require.Len(t, sink.reports, 2)
	assert.True(t, sink.reports[0].Pressed(keycode.KeyL.Base()))

	var buf bytes.Buffer
	require.NoError(t, summary(&buf, km, snap))
	assert.Contains(t, buf.String(), "layer: 2 photoshop")
	assert.Contains(t, buf.String(), "underglow: #00FF00 on=true")
	assert.Contains(t, buf.String(), "status: dim")
}

func TestRunScriptMergesHostEvents(t *testing.T) {
	k := &Keyboard{KeymapSource: KeymapSource{Keymap: "iottabyte"}}
	_, rt, strip, err := k.build(nopLogger(), nil, false, nil)
	require.NoError(t, err)
	defer strip.Close()

	sent := make(chan struct{})
	host := func(ctx context.Context, out chan<- firmware.Event) error {
		out <- firmware.HostLEDEvent{LEDs: keyboard.LEDCapsLock}
		close(sent)
		<-ctx.Done()
		return ctx.Err()
	}
	// The script waits for the host event before it ends.
	r := &gatedReader{gate: sent, r: strings.NewReader("rotate ccw\n")}
	require.NoError(t, runScript(context.Background(), nopLogger(), rt, r, time.Hour, host))

	assert.Equal(t, indicator.Dim, rt.Snapshot().Status)
	assert.Equal(t, keymap.LayerMisc, rt.Snapshot().Layers.Highest())
}

func TestRunScriptBadLine(t *testing.T) {
	k := &Keyboard{KeymapSource: KeymapSource{Keymap: "iottabyte"}}
	_, rt, strip, err := k.build(nopLogger(), nil, false, nil)
	require.NoError(t, err)
	defer strip.Close()

	err = runScript(context.Background(), nopLogger(), rt, strings.NewReader("tap 2 0\nwiggle\n"), time.Hour, nil)
	assert.ErrorContains(t, err, "line 2")
}

func TestBuildUnknownKeymapFile(t *testing.T) {
	k := &Keyboard{KeymapSource: KeymapSource{KeymapFile: filepath.Join(t.TempDir(), "missing.yaml")}}
	_, _, _, err := k.build(nopLogger(), nil, false, nil)
	assert.ErrorContains(t, err, "keymap file")
}

func TestBuildRejectsNegativePixels(t *testing.T) {
	k := &Keyboard{KeymapSource: KeymapSource{Keymap: "iottabyte"}, Pixels: -1}
	_, _, _, err := k.build(nopLogger(), nil, false, nil)
	assert.ErrorIs(t, err, errNegativePixels)
	assert.ErrorContains(t, err, "underglow")
}

func nopLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

type gatedReader struct {
	gate <-chan struct{}
	r    *strings.Reader
}

func (g *gatedReader) Read(p []byte) (int, error) {
	n, err := g.r.Read(p)
	if err != nil {
		<-g.gate
	}
	return n, err
}
