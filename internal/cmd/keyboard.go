package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iottabyte/tidbit/firmware"
	"github.com/iottabyte/tidbit/keymap"
	"github.com/iottabyte/tidbit/underglow"
)

var errNegativePixels = errors.New("pixel count must not be negative")

// KeymapSource selects a bundled keymap or a keymap file.
type KeymapSource struct {
	Keymap     string `help:"Bundled keymap" enum:"iottabyte,iottabyte-xl" default:"iottabyte" env:"TIDBIT_KEYMAP"`
	KeymapFile string `help:"Load the keymap from a JSON, YAML or TOML file instead" type:"path" env:"TIDBIT_KEYMAP_FILE"`
}

func (s *KeymapSource) load() (*keymap.Keymap, error) {
	if s.KeymapFile != "" {
		km, err := keymap.Load(s.KeymapFile)
		if err != nil {
			return nil, fmt.Errorf("keymap file: %w", err)
		}
		return km, nil
	}
	return keymap.Lookup(s.Keymap)
}

// Keyboard holds the options shared by the commands that run a keymap.
type Keyboard struct {
	KeymapSource `embed:""`

	Pixels       int           `help:"Number of underglow pixels" default:"8" env:"TIDBIT_PIXELS"`
	SPI          string        `help:"SPI port driving the WS2812 underglow; empty leaves the strip virtual" env:"TIDBIT_SPI"`
	Console      bool          `help:"Draw the underglow strip on the terminal (headless runs only)" env:"TIDBIT_CONSOLE"`
	ScanInterval time.Duration `help:"Matrix scan interval" default:"10ms" env:"TIDBIT_SCAN_INTERVAL"`
}

func (k *Keyboard) strip(logger *slog.Logger, tui bool) (*underglow.Strip, error) {
	if k.Pixels < 0 {
		return nil, fmt.Errorf("underglow: %w: %d", errNegativePixels, k.Pixels)
	}
	switch {
	case k.SPI != "":
		d, err := underglow.OpenSPI(k.SPI, k.Pixels)
		if err != nil {
			return nil, err
		}
		logger.Info("underglow on spi", "port", k.SPI, "pixels", k.Pixels)
		return underglow.New(d, k.Pixels, logger), nil
	case k.Console && !tui:
		return underglow.New(underglow.NewConsole(k.Pixels), k.Pixels, logger), nil
	case k.Console:
		logger.Warn("console underglow is ignored in the terminal UI")
	}
	return underglow.New(nil, k.Pixels, logger), nil
}

// build loads the keymap and wires it to a runtime. The runtime is initialized
// and the strip must be closed by the caller.
func (k *Keyboard) build(logger *slog.Logger, sink firmware.ReportSink, tui bool, onBoot func()) (*keymap.Keymap, *firmware.Runtime, *underglow.Strip, error) {
	km, err := k.load()
	if err != nil {
		return nil, nil, nil, err
	}
	strip, err := k.strip(logger, tui)
	if err != nil {
		return nil, nil, nil, err
	}
	rt := firmware.New(firmware.Config{
		Matrix:       km,
		Hooks:        keymap.NewUser(km),
		Sink:         sink,
		Strip:        strip,
		Pages:        km.Pages,
		OnBootloader: onBoot,
		Logger:       logger,
	})
	rt.Init()
	logger.Info("keymap loaded", "keymap", km.Name, "layers", km.LayerCount(), "max_layer", km.MaxLayer)
	return km, rt, strip, nil
}
