// Package link exposes a firmware runtime as a virtual USB keyboard on a
// VIIPER server. Reports go out over the device stream; lock LED updates from
// the host come back as firmware events.
package link

import (
	"bufio"
	"context"
	"encoding"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iottabyte/tidbit/apiclient"
	"github.com/iottabyte/tidbit/apitypes"
	"github.com/iottabyte/tidbit/device/keyboard"
	"github.com/iottabyte/tidbit/firmware"
	"github.com/iottabyte/tidbit/internal/log"
)

// DeviceType is the VIIPER device type of the keyboard.
const DeviceType = "keyboard"

// Options select where the keyboard is attached.
type Options struct {
	// BusID is the bus to use; zero reuses the lowest bus or creates one.
	BusID     uint32  `help:"Virtual bus to attach to; 0 picks or creates one" default:"0" env:"TIDBIT_BUS"`
	VendorID  *uint16 `help:"USB vendor ID override" env:"TIDBIT_VID"`
	ProductID *uint16 `help:"USB product ID override" env:"TIDBIT_PID"`
	// KeepBus leaves a bus created by the session in place on Close.
	KeepBus bool `help:"Keep a bus created by this session after exit" env:"TIDBIT_KEEP_BUS"`
}

// Session is one attached keyboard. SendReport may be called from one
// goroutine while Events is consumed from another.
type Session struct {
	client  *apiclient.Client
	stream  *apiclient.DeviceStream
	device  apitypes.Device
	bus     uint32
	created bool
	keepBus bool

	logger  *slog.Logger
	reports log.ReportLogger

	mu   sync.Mutex
	last []byte
	sent uint64
}

// Open attaches a keyboard and opens its stream. A nil reports logger
// disables report logging.
func Open(ctx context.Context, c *apiclient.Client, o Options, logger *slog.Logger, reports log.ReportLogger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if reports == nil {
		reports = log.NewReportLogger(nil)
	}
	bus, created, err := c.EnsureBus(ctx, o.BusID)
	if err != nil {
		return nil, fmt.Errorf("bus: %w", err)
	}
	if created {
		logger.Info("created bus", "bus", bus)
	}

	s := &Session{client: c, bus: bus, created: created, keepBus: o.KeepBus, logger: logger, reports: reports}
	stream, dev, err := c.AddDeviceAndConnect(ctx, bus, DeviceType, &apiclient.DeviceOptions{
		IdVendor:  o.VendorID,
		IdProduct: o.ProductID,
	})
	if dev != nil {
		s.device = *dev
	}
	if err != nil {
		s.cleanup(ctx, dev != nil)
		return nil, fmt.Errorf("attach keyboard: %w", err)
	}
	s.stream = stream
	s.logger = logger.With("bus", bus, "dev", dev.DevId)
	s.logger.Info("keyboard attached", "vid", dev.Vid, "pid", dev.Pid)
	return s, nil
}

// Device describes the attached keyboard.
func (s *Session) Device() apitypes.Device { return s.device }

// Sent is the number of reports written to the stream.
func (s *Session) Sent() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

// SendReport implements firmware.ReportSink. Identical consecutive reports
// are written once.
func (s *Session) SendReport(st keyboard.InputState) error {
	data, err := st.MarshalBinary()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last != nil && string(s.last) == string(data) {
		return nil
	}
	if _, err := s.stream.Write(data); err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	s.last = data
	s.sent++
	s.reports.Log(log.ToHost, data)
	return nil
}

func (s *Session) decodeLEDs(r *bufio.Reader) (encoding.BinaryUnmarshaler, error) {
	b, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	s.reports.Log(log.FromHost, []byte{b})
	st := new(keyboard.LEDState)
	return st, st.UnmarshalBinary([]byte{b})
}

// Events forwards host LED updates as firmware.HostLEDEvent on out until
// ctx is done or the stream ends. It returns the reason reading stopped.
func (s *Session) Events(ctx context.Context, out chan<- firmware.Event) error {
	msgs, errs := s.stream.StartReading(ctx, 8, s.decodeLEDs)
	for msg := range msgs {
		leds := msg.(*keyboard.LEDState).Bits()
		s.logger.Debug("host leds", "leds", leds)
		select {
		case out <- firmware.HostLEDEvent{LEDs: leds}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return <-errs
}

// Close releases every key, closes the stream and removes the device. A bus
// created by Open is removed too unless KeepBus was set.
func (s *Session) Close(ctx context.Context) error {
	var errs []error
	if s.stream != nil {
		if err := s.SendReport(keyboard.Release()); err != nil {
			errs = append(errs, err)
		}
		if err := s.stream.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, s.cleanup(ctx, true)...)
	return errors.Join(errs...)
}

func (s *Session) cleanup(ctx context.Context, removeDevice bool) []error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	var errs []error
	if removeDevice && s.device.DevId != "" {
		if _, err := s.client.DeviceRemove(ctx, s.bus, s.device.DevId); err != nil {
			errs = append(errs, fmt.Errorf("remove device: %w", err))
		}
	}
	if s.created && !s.keepBus {
		if _, err := s.client.BusRemove(ctx, s.bus); err != nil {
			errs = append(errs, fmt.Errorf("remove bus: %w", err))
		}
	}
	return errs
}
