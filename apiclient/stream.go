package apiclient

import (
	"bufio"
	"context"
	"encoding"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/iottabyte/tidbit/apitypes"
)

// ErrStreamClosed is returned by writes on a closed stream.
var ErrStreamClosed = errors.New("stream closed")

// DeviceStream is the bidirectional input/feedback channel of one device.
// Writes carry device input; reads carry host feedback such as LED state.
type DeviceStream struct {
	BusID uint32
	DevID string

	conn net.Conn

	mu         sync.Mutex
	closed     bool
	readCancel context.CancelFunc
}

// OpenStream connects to the stream of an existing device.
func (c *Client) OpenStream(ctx context.Context, busID uint32, devID string) (*DeviceStream, error) {
	if c.transport.mock != nil {
		return nil, errors.New("stream connections not supported with mock transport")
	}
	conn, err := c.transport.dial(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Fprintf(conn, "bus/%d/%s\x00", busID, devID); err != nil {
		conn.Close()
		return nil, fmt.Errorf("write stream path: %w", err)
	}
	return &DeviceStream{BusID: busID, DevID: devID, conn: conn}, nil
}

// AddDeviceAndConnect adds a device and opens its stream. If the stream
// cannot be opened the device is returned so the caller can remove it.
func (c *Client) AddDeviceAndConnect(ctx context.Context, busID uint32, devType string, o *DeviceOptions) (*DeviceStream, *apitypes.Device, error) {
	dev, err := c.DeviceAdd(ctx, busID, devType, o)
	if err != nil {
		return nil, nil, err
	}
	s, err := c.OpenStream(ctx, busID, dev.DevId)
	if err != nil {
		return nil, dev, err
	}
	return s, dev, nil
}

func (s *DeviceStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Write sends raw device input.
func (s *DeviceStream) Write(p []byte) (int, error) {
	if s.isClosed() {
		return 0, ErrStreamClosed
	}
	return s.conn.Write(p)
}

// WriteBinary marshals v and sends it as one input message.
func (s *DeviceStream) WriteBinary(v encoding.BinaryMarshaler) error {
	data, err := v.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	_, err = s.Write(data)
	return err
}

// StartReading decodes feedback messages in a goroutine until ctx is done,
// the stream closes or decode fails. The final error is sent on the error
// channel and both channels are closed. It may be called once per stream.
func (s *DeviceStream) StartReading(ctx context.Context, buffer int, decode func(r *bufio.Reader) (encoding.BinaryUnmarshaler, error)) (<-chan encoding.BinaryUnmarshaler, <-chan error) {
	s.mu.Lock()
	if s.readCancel != nil {
		s.mu.Unlock()
		panic("apiclient: StartReading called twice on the same stream")
	}
	readCtx, cancel := context.WithCancel(ctx)
	s.readCancel = cancel
	s.mu.Unlock()

	msgs := make(chan encoding.BinaryUnmarshaler, buffer)
	errs := make(chan error, 1)

	stop := context.AfterFunc(readCtx, func() { _ = s.conn.SetReadDeadline(time.Now()) })

	go func() {
		defer close(errs)
		defer close(msgs)
		defer stop()
		defer cancel()

		r := bufio.NewReader(s.conn)
		for {
			msg, err := decode(r)
			if err != nil {
				if readCtx.Err() != nil {
					err = readCtx.Err()
				}
				errs <- err
				return
			}
			select {
			case msgs <- msg:
			case <-readCtx.Done():
				errs <- readCtx.Err()
				return
			}
		}
	}()
	return msgs, errs
}

// Close stops reading and closes the connection.
func (s *DeviceStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cancel := s.readCancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return s.conn.Close()
}
