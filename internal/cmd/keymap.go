package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iottabyte/tidbit/internal/configpaths"
	"github.com/iottabyte/tidbit/internal/sim"
	"github.com/iottabyte/tidbit/keymap"
)

// KeymapCommand groups keymap inspection subcommands.
type KeymapCommand struct {
	List   KeymapList   `cmd:"" help:"List the bundled keymaps"`
	Show   KeymapShow   `cmd:"" help:"Draw every layer of a keymap"`
	Export KeymapExport `cmd:"" help:"Write a keymap as JSON, YAML or TOML"`
}

// KeymapList prints the bundled keymap names.
type KeymapList struct{}

func (c *KeymapList) Run() error {
	return listKeymaps(os.Stdout)
}

func listKeymaps(w io.Writer) error {
	for _, name := range keymap.Variants() {
		km, err := keymap.Lookup(name)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%-14s %d layers  %s\n", name, km.LayerCount(), strings.Join(km.LayerNames, ", ")); err != nil {
			return err
		}
	}
	return nil
}

// KeymapShow renders the layers of a keymap.
type KeymapShow struct {
	KeymapSource `embed:""`

	Layer *uint8 `help:"Only draw this layer"`
}

func (c *KeymapShow) Run() error {
	km, err := c.load()
	if err != nil {
		return err
	}
	return showKeymap(os.Stdout, km, c.Layer)
}

func showKeymap(w io.Writer, km *keymap.Keymap, only *uint8) error {
	if only != nil && int(*only) >= km.LayerCount() {
		return fmt.Errorf("layer %d out of range (max %d)", *only, km.MaxLayer)
	}
	for l := 0; l < km.LayerCount(); l++ {
		if only != nil && uint8(l) != *only {
			continue
		}
		if _, err := fmt.Fprintln(w, sim.RenderLayer(km, uint8(l))); err != nil {
			return err
		}
	}
	return nil
}

// KeymapExport writes a keymap in one of the file formats Load accepts.
type KeymapExport struct {
	KeymapSource `embed:""`

	Format string `help:"Output format" enum:"json,yaml,toml" default:"yaml"`
	Output string `help:"Destination file path; - for stdout" default:"-"`
	Force  bool   `help:"Overwrite if the file already exists"`
}

func (c *KeymapExport) Run() error {
	km, err := c.load()
	if err != nil {
		return err
	}
	data, err := km.Encode(keymap.Format(normalizeFormat(c.Format)))
	if err != nil {
		return err
	}
	if c.Output == "" || c.Output == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if !c.Force {
		if _, err := os.Stat(c.Output); err == nil {
			return errors.New("destination exists; use --force to overwrite")
		}
	}
	if err := configpaths.EnsureDir(c.Output); err != nil {
		return err
	}
	return os.WriteFile(c.Output, data, 0o644)
}
