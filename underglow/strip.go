// Package underglow drives the WS2812 strip under the macropad.
package underglow

import (
	"log/slog"
	"math"

	"github.com/iottabyte/tidbit/indicator"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Driver pushes raw RGB frames (3 bytes per pixel) to an LED sink.
type Driver interface {
	Write(pixels []byte) (int, error)
	Halt() error
}

// Mode selects how the base colour is spread over the pixels.
type Mode uint8

const (
	ModeStatic Mode = iota
	ModeGradient
	ModeAlternate
	modeCount
)

func (m Mode) String() string {
	switch m {
	case ModeStatic:
		return "static"
	case ModeGradient:
		return "gradient"
	case ModeAlternate:
		return "alternate"
	}
	return "unknown"
}

const (
	hueStep = 10.0
	satStep = 1.0 / 16
	valStep = 1.0 / 16
)

// Strip is the underglow state: base colour, mode and on/off flags. Every
// change renders a new frame to the driver. Write failures are logged and
// kept in LastErr; they never reach the caller.
type Strip struct {
	drv       Driver
	pixels    int
	color     indicator.RGB
	mode      Mode
	enabled   bool
	suspended bool
	frame     []byte
	logger    *slog.Logger

	LastErr error
}

// New returns an enabled strip of n pixels. A negative n gives an empty strip.
func New(drv Driver, n int, logger *slog.Logger) *Strip {
	if logger == nil {
		logger = slog.Default()
	}
	if n < 0 {
		n = 0
	}
	return &Strip{
		drv:     drv,
		pixels:  n,
		enabled: true,
		frame:   make([]byte, 3*n),
		logger:  logger,
	}
}

// Color returns the base colour.
func (s *Strip) Color() indicator.RGB { return s.color }

// Mode returns the current mode.
func (s *Strip) Mode() Mode { return s.mode }

// Enabled reports whether the strip is switched on.
func (s *Strip) Enabled() bool { return s.enabled }

// Suspended reports whether the host put the strip to sleep.
func (s *Strip) Suspended() bool { return s.suspended }

// Frame returns a copy of the last rendered frame.
func (s *Strip) Frame() []byte { return append([]byte(nil), s.frame...) }

// SetRGB sets the base colour of every pixel.
func (s *Strip) SetRGB(c indicator.RGB) {
	s.color = c
	s.render()
}

// Enable switches the strip on.
func (s *Strip) Enable() {
	s.enabled = true
	s.render()
}

// Disable switches the strip off. The setting is not persisted.
func (s *Strip) Disable() {
	s.enabled = false
	s.render()
}

// Toggle flips the on/off state.
func (s *Strip) Toggle() {
	s.enabled = !s.enabled
	s.render()
}

// Suspend blanks the strip while the host sleeps and restores it on wake.
func (s *Strip) Suspend(on bool) {
	s.suspended = on
	s.render()
}

// StepMode advances to the next mode, or the previous one when reverse is set.
func (s *Strip) StepMode(reverse bool) {
	if reverse {
		s.mode = (s.mode + modeCount - 1) % modeCount
	} else {
		s.mode = (s.mode + 1) % modeCount
	}
	s.render()
}

// StepHue rotates the base colour's hue by one step.
func (s *Strip) StepHue(up bool) { s.adjust(sign(up)*hueStep, 0, 0) }

// StepSat changes the base colour's saturation by one step.
func (s *Strip) StepSat(up bool) { s.adjust(0, sign(up)*satStep, 0) }

// StepVal changes the base colour's brightness by one step.
func (s *Strip) StepVal(up bool) { s.adjust(0, 0, sign(up)*valStep) }

func sign(up bool) float64 {
	if up {
		return 1
	}
	return -1
}

func (s *Strip) adjust(dh, ds, dv float64) {
	h, sat, v := toColorful(s.color).Hsv()
	h = math.Mod(h+dh+360, 360)
	sat = clamp01(sat + ds)
	v = clamp01(v + dv)
	s.color = fromColorful(colorful.Hsv(h, sat, v))
	s.render()
}

func (s *Strip) render() {
	for i := range s.frame {
		s.frame[i] = 0
	}
	if s.enabled && !s.suspended {
		for i := 0; i < s.pixels; i++ {
			c := s.pixel(i)
			s.frame[3*i], s.frame[3*i+1], s.frame[3*i+2] = c.R, c.G, c.B
		}
	}
	if s.drv == nil {
		return
	}
	if _, err := s.drv.Write(s.frame); err != nil {
		s.LastErr = err
		s.logger.Warn("underglow write failed", "error", err)
	}
}

func (s *Strip) pixel(i int) indicator.RGB {
	switch s.mode {
	case ModeGradient:
		if s.pixels < 2 {
			return s.color
		}
		t := float64(i) / float64(s.pixels-1)
		return fromColorful(toColorful(s.color).BlendHsv(colorful.Color{}, t*0.75))
	case ModeAlternate:
		if i%2 == 1 {
			h, sat, v := toColorful(s.color).Hsv()
			return fromColorful(colorful.Hsv(math.Mod(h+180, 360), sat, v))
		}
	}
	return s.color
}

// Close blanks and halts the driver.
func (s *Strip) Close() error {
	if s.drv == nil {
		return nil
	}
	return s.drv.Halt()
}

func toColorful(c indicator.RGB) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

func fromColorful(c colorful.Color) indicator.RGB {
	r, g, b := c.Clamped().RGB255()
	return indicator.RGB{R: r, G: g, B: b}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
