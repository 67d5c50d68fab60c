package firmware

import (
	"context"
	"time"
)

// Event is an input for Run.
type Event interface{ apply(r *Runtime) }

// KeyEvent is a key going down or up.
type KeyEvent struct {
	Row, Col int
	Pressed  bool
}

func (e KeyEvent) apply(r *Runtime) {
	if e.Pressed {
		r.Press(e.Row, e.Col)
	} else {
		r.Release(e.Row, e.Col)
	}
}

// RotateEvent is one encoder detent.
type RotateEvent struct {
	Index     uint8
	Clockwise bool
}

func (e RotateEvent) apply(r *Runtime) { r.Rotate(e.Index, e.Clockwise) }

// HostLEDEvent is a lock LED bitmask from the host.
type HostLEDEvent struct {
	LEDs uint8
}

func (e HostLEDEvent) apply(r *Runtime) { r.SetHostLEDs(e.LEDs) }

// SuspendEvent is a host suspend or wake.
type SuspendEvent struct {
	On bool
}

func (e SuspendEvent) apply(r *Runtime) { r.Suspend(e.On) }

// Apply handles one event.
func (r *Runtime) Apply(ev Event) { ev.apply(r) }

// Run is the main loop: it applies events in arrival order and runs a scan
// cycle every interval. It returns when ctx is done or events is closed.
// onEvent, if non-nil, runs after each applied event.
func (r *Runtime) Run(ctx context.Context, events <-chan Event, interval time.Duration, onEvent func(Event)) error {
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			r.Apply(ev)
			if onEvent != nil {
				onEvent(ev)
			}
		case <-ticker.C:
			r.Scan()
		}
	}
}
