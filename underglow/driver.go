package underglow

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"
	"periph.io/x/host/v3"
)

// DefaultFreq is the NRZ bit rate of WS2812 pixels.
const DefaultFreq = 800 * physic.KiloHertz

// NewNRZ drives a WS2812 strip of n pixels through an already opened SPI port.
func NewNRZ(p spi.Port, n int) (*nrzled.Dev, error) {
	d, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: n,
		Channels:  3,
		Freq:      DefaultFreq,
	})
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	return d, nil
}

// SPIDriver owns the SPI port behind an nrzled device.
type SPIDriver struct {
	*nrzled.Dev
	port spi.PortCloser
}

// OpenSPI initializes the host drivers and opens the named SPI port ("" for the
// first one available).
func OpenSPI(name string, n int) (*SPIDriver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", name, err)
	}
	d, err := NewNRZ(p, n)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return &SPIDriver{Dev: d, port: p}, nil
}

// Halt blanks the strip and releases the SPI port.
func (d *SPIDriver) Halt() error {
	err := d.Dev.Halt()
	if cerr := d.port.Close(); err == nil {
		err = cerr
	}
	return err
}

// NewConsole renders n pixels as coloured blocks on the terminal.
func NewConsole(n int) Driver {
	return screen.New(n)
}

// Recorder keeps every frame written to it.
type Recorder struct {
	Frames [][]byte
	Halted bool
	Err    error
}

func (r *Recorder) Write(pixels []byte) (int, error) {
	if r.Err != nil {
		return 0, r.Err
	}
	r.Frames = append(r.Frames, append([]byte(nil), pixels...))
	return len(pixels), nil
}

func (r *Recorder) Halt() error {
	r.Halted = true
	return nil
}

// Last returns the most recent frame, or nil.
func (r *Recorder) Last() []byte {
	if len(r.Frames) == 0 {
		return nil
	}
	return r.Frames[len(r.Frames)-1]
}
