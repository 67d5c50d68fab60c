package firmware

import (
	"log/slog"

	"github.com/iottabyte/tidbit/device/keyboard"
	"github.com/iottabyte/tidbit/indicator"
	"github.com/iottabyte/tidbit/keycode"
	"github.com/iottabyte/tidbit/layer"
	"github.com/iottabyte/tidbit/underglow"
)

// Config wires a Runtime together. Matrix and Hooks are required.
type Config struct {
	Matrix Matrix
	Hooks  Hooks
	Sink   ReportSink
	Strip  *underglow.Strip
	// Pages is the number of display pages NextPage cycles through.
	Pages int
	// OnBootloader is called when a keymap requests the bootloader.
	OnBootloader func()
	Logger       *slog.Logger
}

// Runtime implements Host for a single keymap.
type Runtime struct {
	matrix Matrix
	hooks  Hooks
	sink   ReportSink
	strip  *underglow.Strip
	stack  *layer.Stack
	logger *slog.Logger

	report   keyboard.InputState
	held     map[Position]keycode.Keycode
	status   indicator.Level
	hostLEDs uint8
	page     int
	pages    int
	scans    uint64
	boot     bool
	onBoot   func()

	// LastErr is the most recent report delivery error.
	LastErr error
}

// New builds a runtime. Call Init before feeding events.
func New(cfg Config) *Runtime {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	strip := cfg.Strip
	if strip == nil {
		strip = underglow.New(nil, 0, logger)
	}
	pages := cfg.Pages
	if pages < 1 {
		pages = 1
	}
	r := &Runtime{
		matrix: cfg.Matrix,
		hooks:  cfg.Hooks,
		sink:   cfg.Sink,
		strip:  strip,
		logger: logger,
		held:   make(map[Position]keycode.Keycode),
		pages:  pages,
		onBoot: cfg.OnBootloader,
	}
	r.stack = layer.NewStack(func(st layer.State) layer.State {
		return r.hooks.LayerStateSet(r, st)
	})
	return r
}

// Init runs the keymap's Init hook and publishes the initial layer state.
func (r *Runtime) Init() {
	r.hooks.Init(r)
	r.stack.Set(r.stack.State())
}

// Scan runs one poll cycle.
func (r *Runtime) Scan() {
	r.scans++
	r.hooks.Scan(r)
}

// Press handles a key going down at (row, col).
func (r *Runtime) Press(row, col int) {
	pos := Position{row, col}
	if _, down := r.held[pos]; down {
		return
	}
	kc := r.Resolve(row, col)
	r.held[pos] = kc
	r.logger.Debug("key down", "row", row, "col", col, "keycode", kc)
	r.process(kc, true)
}

// Release handles a key going up. The keycode resolved on press is released,
// even if the active layers changed in between.
func (r *Runtime) Release(row, col int) {
	pos := Position{row, col}
	kc, down := r.held[pos]
	if !down {
		return
	}
	delete(r.held, pos)
	r.logger.Debug("key up", "row", row, "col", col, "keycode", kc)
	r.process(kc, false)
}

// Tap presses and releases (row, col).
func (r *Runtime) Tap(row, col int) {
	r.Press(row, col)
	r.Release(row, col)
}

// Rotate handles one encoder detent.
func (r *Runtime) Rotate(index uint8, clockwise bool) {
	r.logger.Debug("encoder", "index", index, "clockwise", clockwise)
	r.hooks.EncoderUpdate(r, index, clockwise)
}

// SetHostLEDs handles a lock LED report from the host.
func (r *Runtime) SetHostLEDs(leds uint8) {
	r.hostLEDs = leds
	r.hooks.LEDSet(r, leds)
}

// Suspend handles host suspend and wake.
func (r *Runtime) Suspend(on bool) {
	r.hooks.Suspend(r, on)
}

// Resolve returns the keycode (row, col) would produce with the current
// layers: the highest active layer with a non-transparent entry wins, then
// layer 0, then KC_NO.
func (r *Runtime) Resolve(row, col int) keycode.Keycode {
	if row < 0 || col < 0 || row >= r.matrix.Rows() || col >= r.matrix.Cols() {
		return keycode.No
	}
	for _, l := range r.stack.State().Layers() {
		if int(l) >= r.matrix.LayerCount() {
			continue
		}
		if kc := r.matrix.Keycode(l, row, col); kc != keycode.Transparent {
			return kc
		}
	}
	if kc := r.matrix.Keycode(0, row, col); kc != keycode.Transparent {
		return kc
	}
	return keycode.No
}

func (r *Runtime) process(kc keycode.Keycode, pressed bool) {
	if !r.hooks.ProcessRecord(r, kc, pressed) {
		return
	}
	switch {
	case kc.IsMomentary():
		if pressed {
			r.LayerOn(kc.Layer())
		} else {
			r.LayerOff(kc.Layer())
		}
	case kc.IsLayerTo():
		if pressed {
			r.stack.Move(kc.Layer())
		}
	case kc.IsUnderglow():
		if pressed {
			r.underglowKey(kc)
		}
	case kc == keycode.QKBoot:
		if pressed {
			r.Bootloader()
		}
	case kc.IsBasic(), kc.IsModified():
		if pressed {
			r.RegisterCode(kc)
		} else {
			r.UnregisterCode(kc)
		}
	}
}

func (r *Runtime) underglowKey(kc keycode.Keycode) {
	switch kc {
	case keycode.RGBToggle:
		r.strip.Toggle()
	case keycode.RGBMode, keycode.RGBModeRev:
		r.strip.StepMode(kc == keycode.RGBModeRev)
	case keycode.RGBHueUp, keycode.RGBHueDown:
		r.strip.StepHue(kc == keycode.RGBHueUp)
	case keycode.RGBSatUp, keycode.RGBSatDown:
		r.strip.StepSat(kc == keycode.RGBSatUp)
	case keycode.RGBValUp, keycode.RGBValDown:
		r.strip.StepVal(kc == keycode.RGBValUp)
	}
}

func (r *Runtime) LayerClear() { r.stack.Clear() }

func (r *Runtime) LayerOn(n uint8) { r.stack.On(n) }

func (r *Runtime) LayerOff(n uint8) { r.stack.Off(n) }

func (r *Runtime) LayerState() layer.State { return r.stack.State() }

// RegisterCode adds a basic or modified keycode to the report.
func (r *Runtime) RegisterCode(kc keycode.Keycode) {
	if !kc.IsBasic() && !kc.IsModified() {
		return
	}
	r.report.Modifiers |= kc.HIDMods()
	if !kc.IsModifier() {
		r.report.Press(kc.Base())
	}
	r.send()
}

// UnregisterCode removes a basic or modified keycode from the report.
func (r *Runtime) UnregisterCode(kc keycode.Keycode) {
	if !kc.IsBasic() && !kc.IsModified() {
		return
	}
	r.report.Modifiers &^= kc.HIDMods()
	if !kc.IsModifier() {
		r.report.Lift(kc.Base())
	}
	r.send()
}

// TapCode registers and immediately unregisters kc.
func (r *Runtime) TapCode(kc keycode.Keycode) {
	r.RegisterCode(kc)
	r.UnregisterCode(kc)
}

func (r *Runtime) send() {
	if r.sink == nil {
		return
	}
	if err := r.sink.SendReport(r.report); err != nil {
		r.LastErr = err
		r.logger.Warn("report delivery failed", "error", err)
	}
}

// Bootloader records the request and hands it to OnBootloader.
func (r *Runtime) Bootloader() {
	r.boot = true
	r.logger.Info("bootloader requested")
	if r.onBoot != nil {
		r.onBoot()
	}
}

func (r *Runtime) Underglow() *underglow.Strip { return r.strip }

func (r *Runtime) StatusLED(level indicator.Level) {
	if level != r.status {
		r.logger.Debug("status led", "level", level)
	}
	r.status = level
}

// NextPage advances the display page, wrapping at the page count.
func (r *Runtime) NextPage() {
	r.page = (r.page + 1) % r.pages
}

func (r *Runtime) Logger() *slog.Logger { return r.logger }

// Snapshot is a read-only view of the runtime for display.
type Snapshot struct {
	Layers     layer.State
	Report     keyboard.InputState
	Underglow  indicator.RGB
	GlowOn     bool
	Status     indicator.Level
	HostLEDs   uint8
	Page       int
	Scans      uint64
	Bootloader bool
}

// Snapshot returns the current state.
func (r *Runtime) Snapshot() Snapshot {
	return Snapshot{
		Layers:     r.stack.State(),
		Report:     r.report,
		Underglow:  r.strip.Color(),
		GlowOn:     r.strip.Enabled() && !r.strip.Suspended(),
		Status:     r.status,
		HostLEDs:   r.hostLEDs,
		Page:       r.page,
		Scans:      r.scans,
		Bootloader: r.boot,
	}
}
