package sim

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/iottabyte/tidbit/firmware"
)

// ErrBadScript is returned for script lines that cannot be parsed.
var ErrBadScript = errors.New("bad script line")

// Step is one parsed script line: events to apply, then an optional pause.
type Step struct {
	Events []firmware.Event
	Sleep  time.Duration
}

// ParseLine parses one script line. Blank lines and lines starting with '#'
// yield an empty step. Commands:
//
//	press R C | release R C | tap R C
//	rotate cw|ccw [INDEX]
//	leds MASK
//	suspend on|off
//	sleep DURATION
func ParseLine(line string) (Step, error) {
	f := strings.Fields(line)
	if len(f) == 0 || strings.HasPrefix(f[0], "#") {
		return Step{}, nil
	}
	bad := func(why string) (Step, error) {
		return Step{}, fmt.Errorf("%w: %q: %s", ErrBadScript, line, why)
	}

	switch cmd, args := strings.ToLower(f[0]), f[1:]; cmd {
	case "press", "release", "tap":
		if len(args) != 2 {
			return bad("want row and column")
		}
		row, err1 := strconv.Atoi(args[0])
		col, err2 := strconv.Atoi(args[1])
		if err1 != nil || err2 != nil || row < 0 || col < 0 {
			return bad("row and column must be non-negative integers")
		}
		switch cmd {
		case "press":
			return Step{Events: []firmware.Event{firmware.KeyEvent{Row: row, Col: col, Pressed: true}}}, nil
		case "release":
			return Step{Events: []firmware.Event{firmware.KeyEvent{Row: row, Col: col}}}, nil
		}
		return Step{Events: []firmware.Event{
			firmware.KeyEvent{Row: row, Col: col, Pressed: true},
			firmware.KeyEvent{Row: row, Col: col},
		}}, nil

	case "rotate":
		if len(args) < 1 || len(args) > 2 {
			return bad("want direction and optional encoder index")
		}
		var cw bool
		switch strings.ToLower(args[0]) {
		case "cw":
			cw = true
		case "ccw":
		default:
			return bad("direction must be cw or ccw")
		}
		var index uint64
		if len(args) == 2 {
			var err error
			if index, err = strconv.ParseUint(args[1], 10, 8); err != nil {
				return bad("encoder index must be 0-255")
			}
		}
		return Step{Events: []firmware.Event{firmware.RotateEvent{Index: uint8(index), Clockwise: cw}}}, nil

	case "leds":
		if len(args) != 1 {
			return bad("want a bitmask")
		}
		v, err := strconv.ParseUint(args[0], 0, 8)
		if err != nil {
			return bad("bitmask must be 0-255")
		}
		return Step{Events: []firmware.Event{firmware.HostLEDEvent{LEDs: uint8(v)}}}, nil

	case "suspend":
		if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
			return bad("want on or off")
		}
		return Step{Events: []firmware.Event{firmware.SuspendEvent{On: args[0] == "on"}}}, nil

	case "sleep":
		if len(args) != 1 {
			return bad("want a duration")
		}
		d, err := time.ParseDuration(args[0])
		if err != nil || d < 0 {
			return bad("invalid duration")
		}
		return Step{Sleep: d}, nil
	}
	return bad("unknown command")
}

// Play reads a script from r and sends its events to out in order. It returns
// at EOF, on the first bad line, or when ctx is done. out is not closed.
func Play(ctx context.Context, r io.Reader, out chan<- firmware.Event) error {
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		step, err := ParseLine(sc.Text())
		if err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		for _, ev := range step.Events {
			select {
			case out <- ev:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if step.Sleep > 0 {
			t := time.NewTimer(step.Sleep)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			}
		}
	}
	return sc.Err()
}
