package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/iottabyte/tidbit/apiclient"
	"github.com/iottabyte/tidbit/firmware"
	"github.com/iottabyte/tidbit/internal/log"
	"github.com/iottabyte/tidbit/internal/sim"
	"github.com/iottabyte/tidbit/link"
)

// Link attaches the keymap to a VIIPER server as a virtual USB keyboard.
type Link struct {
	Keyboard `embed:""`

	Server      string           `help:"VIIPER API address" default:"localhost:3242" env:"TIDBIT_VIIPER_ADDR"`
	API         apiclient.Config `embed:"" prefix:"viiper."`
	Attach      link.Options     `embed:""`
	AskPassword bool             `help:"Prompt for the VIIPER API password" env:"TIDBIT_ASK_PASSWORD"`
}

// Run is called by Kong when the link command is executed.
func (l *Link) Run(logger *slog.Logger, reports log.ReportLogger, lo log.Options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := l.API
	if l.AskPassword && cfg.Password == "" {
		pw, err := readPassword()
		if err != nil {
			return err
		}
		cfg.Password = pw
	}

	tui := term.IsTerminal(int(os.Stdin.Fd()))
	if tui {
		logger, reports = quiet(logger, reports, lo)
	}

	client := apiclient.New(l.Server, &cfg)
	pong, err := client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("viiper at %s: %w", l.Server, err)
	}
	logger.Info("connected", "addr", l.Server, "server", pong.Server, "version", pong.Version)
	sess, err := link.Open(ctx, client, l.Attach, logger, reports)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(ctx); err != nil {
			logger.Warn("detach failed", "error", err)
		}
		logger.Info("keyboard detached", "reports", sess.Sent())
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	onBoot := func() {
		logger.Info("bootloader requested, detaching")
		cancel()
	}
	km, rt, strip, err := l.build(logger, sess, tui, onBoot)
	if err != nil {
		return err
	}
	defer strip.Close()

	if !tui {
		return runScript(ctx, logger, rt, os.Stdin, l.ScanInterval, sess.Events)
	}

	events := make(chan firmware.Event, 8)
	go func() {
		defer close(events)
		if err := sess.Events(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("host events stopped", "error", err)
		}
	}()
	m := sim.New(rt, km, events)
	m.SetScanInterval(l.ScanInterval)
	dev := sess.Device()
	m.SetTitle(fmt.Sprintf("%s  bus %d dev %s (%s:%s) via %s", km.Name, dev.BusID, dev.DevId, dev.Vid, dev.Pid, l.Server))
	return sim.Run(ctx, m)
}

func readPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("password prompt needs a terminal; set TIDBIT_VIIPER_PASSWORD instead")
	}
	_, _ = fmt.Fprint(os.Stderr, "VIIPER password: ")
	b, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}
