// Package config is the command line and config file surface of tidbit.
package config

import (
	"github.com/iottabyte/tidbit/internal/cmd"
	"github.com/iottabyte/tidbit/internal/log"
)

// CLI is the root kong model. Values come from flags, then environment
// variables, then the first config file found.
type CLI struct {
	ConfigFile string      `name:"config" help:"Config file path (JSON, YAML or TOML)" type:"path" env:"TIDBIT_CONFIG"`
	Log        log.Options `embed:"" prefix:"log."`

	Sim    cmd.Sim           `cmd:"" help:"Run a keymap on a simulated pad"`
	Link   cmd.Link          `cmd:"" help:"Attach a keymap to a VIIPER server as a virtual USB keyboard"`
	Keymap cmd.KeymapCommand `cmd:"" help:"Inspect and export keymaps"`
	Config cmd.ConfigCommand `cmd:"" help:"Configuration helpers"`
}
