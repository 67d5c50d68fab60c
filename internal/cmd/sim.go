package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/iottabyte/tidbit/device/keyboard"
	"github.com/iottabyte/tidbit/firmware"
	"github.com/iottabyte/tidbit/internal/log"
	"github.com/iottabyte/tidbit/internal/sim"
	"github.com/iottabyte/tidbit/keymap"
)

// Sim runs a keymap without a host. On a terminal it opens the interactive
// pad; otherwise it plays a script from stdin and prints the final state.
type Sim struct {
	Keyboard `embed:""`
}

// Run is called by Kong when the sim command is executed.
func (s *Sim) Run(logger *slog.Logger, reports log.ReportLogger, lo log.Options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tui := term.IsTerminal(int(os.Stdin.Fd()))
	if tui {
		logger, reports = quiet(logger, reports, lo)
	}
	sink := firmware.ReportFunc(func(st keyboard.InputState) error {
		reports.Log(log.ToHost, st.BuildReport())
		return nil
	})
	km, rt, strip, err := s.build(logger, sink, tui, nil)
	if err != nil {
		return err
	}
	defer strip.Close()

	if tui {
		m := sim.New(rt, km, nil)
		m.SetScanInterval(s.ScanInterval)
		return sim.Run(ctx, m)
	}
	if err := runScript(ctx, logger, rt, os.Stdin, s.ScanInterval, nil); err != nil {
		return err
	}
	return summary(os.Stdout, km, rt.Snapshot())
}

// runScript applies the script read from r to rt, interleaved with events
// from host if set, and returns when the script ends or ctx is done.
func runScript(ctx context.Context, logger *slog.Logger, rt *firmware.Runtime, r io.Reader, interval time.Duration, host func(context.Context, chan<- firmware.Event) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan firmware.Event)
	scriptErr := make(chan error, 1)
	go func() {
		scriptErr <- sim.Play(ctx, r, events)
		cancel()
	}()
	if host != nil {
		go func() {
			if err := host(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("host events stopped", "error", err)
			}
		}()
	}

	err := rt.Run(ctx, events, interval, func(ev firmware.Event) {
		logger.Debug("event", "event", fmt.Sprintf("%+v", ev))
	})
	if serr := <-scriptErr; serr != nil && !errors.Is(serr, context.Canceled) {
		return serr
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func summary(w io.Writer, km *keymap.Keymap, snap firmware.Snapshot) error {
	top := snap.Layers.Highest()
	_, err := fmt.Fprintf(w,
		"layer: %d %s\nlayers: %#x\nunderglow: %s on=%t\nstatus: %s\npage: %d\nreport: % x\nbootloader: %t\n",
		top, km.LayerName(top), uint32(snap.Layers), snap.Underglow, snap.GlowOn, snap.Status, snap.Page,
		snap.Report.BuildReport(), snap.Bootloader)
	return err
}

// quiet keeps logs and report dumps off the terminal while the UI owns it.
// Output explicitly sent to files is kept.
func quiet(logger *slog.Logger, reports log.ReportLogger, lo log.Options) (*slog.Logger, log.ReportLogger) {
	if lo.File == "" {
		logger = slog.New(slog.DiscardHandler)
	}
	if lo.ReportFile == "" {
		reports = log.NewReportLogger(nil)
	}
	return logger, reports
}
