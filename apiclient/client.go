// Package apiclient is a client for the VIIPER management API: it creates
// virtual buses and devices and opens the per-device input streams.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/iottabyte/tidbit/apitypes"
)

// ErrEmptyResponse is returned when the server closes without answering.
var ErrEmptyResponse = errors.New("empty response")

// Client wraps a Transport with typed calls.
type Client struct{ transport *Transport }

// New creates a client for the server at addr. A nil cfg uses DefaultConfig.
func New(addr string, cfg *Config) *Client { return &Client{transport: NewTransport(addr, cfg)} }

// WithTransport creates a client on an existing transport.
func WithTransport(t *Transport) *Client { return &Client{transport: t} }

// DeviceOptions overrides the USB identity of a new device.
type DeviceOptions struct {
	IdVendor  *uint16
	IdProduct *uint16
}

func (c *Client) Ping(ctx context.Context) (*apitypes.PingResponse, error) {
	return call[apitypes.PingResponse](ctx, c, "ping", nil, nil)
}

func (c *Client) BusList(ctx context.Context) (*apitypes.BusListResponse, error) {
	return call[apitypes.BusListResponse](ctx, c, "bus/list", nil, nil)
}

// BusCreate creates bus busID. Zero lets the server pick the number.
func (c *Client) BusCreate(ctx context.Context, busID uint32) (*apitypes.BusCreateResponse, error) {
	var payload any
	if busID != 0 {
		payload = strconv.FormatUint(uint64(busID), 10)
	}
	return call[apitypes.BusCreateResponse](ctx, c, "bus/create", payload, nil)
}

func (c *Client) BusRemove(ctx context.Context, busID uint32) (*apitypes.BusRemoveResponse, error) {
	return call[apitypes.BusRemoveResponse](ctx, c, "bus/remove", strconv.FormatUint(uint64(busID), 10), nil)
}

// DeviceAdd attaches a new device of devType to busID.
func (c *Client) DeviceAdd(ctx context.Context, busID uint32, devType string, o *DeviceOptions) (*apitypes.Device, error) {
	req := apitypes.DeviceCreateRequest{Type: &devType}
	if o != nil {
		req.IdVendor, req.IdProduct = o.IdVendor, o.IdProduct
	}
	return call[apitypes.Device](ctx, c, "bus/{id}/add", req, busParam(busID))
}

func (c *Client) DeviceRemove(ctx context.Context, busID uint32, devID string) (*apitypes.DeviceRemoveResponse, error) {
	return call[apitypes.DeviceRemoveResponse](ctx, c, "bus/{id}/remove", devID, busParam(busID))
}

func (c *Client) DevicesList(ctx context.Context, busID uint32) (*apitypes.DevicesListResponse, error) {
	return call[apitypes.DevicesListResponse](ctx, c, "bus/{id}/list", nil, busParam(busID))
}

// EnsureBus returns busID if it exists, creating it otherwise. With busID
// zero the lowest existing bus is reused, or a new one created.
func (c *Client) EnsureBus(ctx context.Context, busID uint32) (uint32, bool, error) {
	list, err := c.BusList(ctx)
	if err != nil {
		return 0, false, err
	}
	if busID == 0 && len(list.Buses) > 0 {
		return slices.Min(list.Buses), false, nil
	}
	if busID != 0 && slices.Contains(list.Buses, busID) {
		return busID, false, nil
	}
	created, err := c.BusCreate(ctx, busID)
	if err != nil {
		return 0, false, err
	}
	return created.BusID, true, nil
}

func busParam(busID uint32) map[string]string {
	return map[string]string{"id": strconv.FormatUint(uint64(busID), 10)}
}

func call[T any](ctx context.Context, c *Client, path string, payload any, params map[string]string) (*T, error) {
	raw, err := c.transport.Do(ctx, path, payload, params)
	if err != nil {
		return nil, err
	}
	return parse[T](raw)
}

func parse[T any](data string) (*T, error) {
	if data == "" {
		return nil, ErrEmptyResponse
	}
	var problem apitypes.ApiError
	if err := json.Unmarshal([]byte(data), &problem); err == nil && (problem.Status != 0 || problem.Title != "") {
		return nil, &problem
	}
	var out T
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &out, nil
}
