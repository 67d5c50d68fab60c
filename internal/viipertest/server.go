// Package viipertest runs an in-process stand-in for a VIIPER API server.
// It keeps buses and devices in memory and exposes device streams to tests.
package viipertest

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/iottabyte/tidbit/apitypes"
	"github.com/iottabyte/tidbit/device/keyboard"
	"github.com/iottabyte/tidbit/internal/auth"
)

// Server is a fake VIIPER API server.
type Server struct {
	ln       net.Listener
	logger   *slog.Logger
	password string

	mu      sync.Mutex
	buses   map[uint32][]apitypes.Device
	nextDev map[uint32]int
	streams chan *Stream
}

var (
	devicePath = regexp.MustCompile(`^bus/(\d+)/(add|remove|list)$`)
	streamPath = regexp.MustCompile(`^bus/(\d+)/(\d+)$`)
)

// Start listens on a loopback port and stops when the test ends. A non-empty
// password requires the auth handshake on every connection.
func Start(t *testing.T, password string) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &Server{
		ln:       ln,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		password: password,
		buses:    map[uint32][]apitypes.Device{},
		nextDev:  map[uint32]int{},
		streams:  make(chan *Stream, 8),
	}
	go s.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return s
}

// Addr is the listen address.
func (s *Server) Addr() string { return s.ln.Addr().String() }

// Buses lists the bus numbers in ascending order.
func (s *Server) Buses() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint32, 0, len(s.buses))
	for id := range s.buses {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Devices lists the devices on bus.
func (s *Server) Devices(bus uint32) []apitypes.Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.buses[bus])
}

// AddBus creates bus id directly.
func (s *Server) AddBus(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buses[id]; !ok {
		s.buses[id] = nil
	}
}

// NextStream waits for a client to open a device stream.
func (s *Server) NextStream(t *testing.T, timeout time.Duration) *Stream {
	t.Helper()
	select {
	case st := <-s.streams:
		return st
	case <-time.After(timeout):
		t.Fatalf("no stream opened within %v", timeout)
		return nil
	}
}

func (s *Server) serve() {
	for {
		c, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(c)
	}
}

func (s *Server) handle(raw net.Conn) {
	var conn net.Conn = raw
	r := bufio.NewReader(raw)

	if s.password != "" {
		ok, err := auth.IsHandshake(r)
		if err != nil || !ok {
			writeProblem(raw, apitypes.Unauthorized("authentication required"))
			raw.Close()
			return
		}
		key, _ := auth.DeriveKey(s.password)
		cn, sn, err := auth.ServerHandshake(r, raw, key)
		if err != nil {
			writeProblem(raw, apitypes.Unauthorized(err.Error()))
			raw.Close()
			return
		}
		sealed, err := auth.Seal(raw, auth.SessionKey(key, sn, cn))
		if err != nil {
			raw.Close()
			return
		}
		conn = sealed
		r = bufio.NewReader(sealed)
	}

	req, err := r.ReadString(0)
	if err != nil {
		conn.Close()
		return
	}
	path, payload, _ := strings.Cut(strings.TrimSuffix(req, "\x00"), " ")
	path = strings.ToLower(path)
	s.logger.Debug("request", "path", path, "payload", payload)

	if m := streamPath.FindStringSubmatch(path); m != nil {
		bus, _ := strconv.ParseUint(m[1], 10, 32)
		if !s.hasDevice(uint32(bus), m[2]) {
			writeProblem(conn, apitypes.NotFound(fmt.Sprintf("device %s not found on bus %d", m[2], bus)))
			conn.Close()
			return
		}
		s.streams <- &Stream{BusID: uint32(bus), DevID: m[2], conn: conn, r: r}
		return
	}

	defer conn.Close()
	resp, err := s.route(path, payload)
	if err != nil {
		var problem apitypes.ApiError
		if !errors.As(err, &problem) {
			problem = apitypes.ApiError{Status: 500, Title: "Internal Server Error", Detail: err.Error()}
		}
		writeProblem(conn, problem)
		return
	}
	b, _ := json.Marshal(resp)
	fmt.Fprintf(conn, "%s\n", b)
}

func (s *Server) route(path, payload string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch path {
	case "ping":
		return apitypes.PingResponse{Server: "viipertest", Version: "dev"}, nil
	case "bus/list":
		out := apitypes.BusListResponse{Buses: []uint32{}}
		for id := range s.buses {
			out.Buses = append(out.Buses, id)
		}
		slices.Sort(out.Buses)
		return out, nil
	case "bus/create":
		id := uint32(1)
		if payload != "" {
			n, err := strconv.ParseUint(payload, 10, 32)
			if err != nil || n == 0 {
				return nil, apitypes.ApiError{Status: 400, Title: "Bad Request", Detail: "invalid busId"}
			}
			id = uint32(n)
		} else {
			for s.hasBus(id) {
				id++
			}
		}
		if s.hasBus(id) {
			return nil, apitypes.Conflict(fmt.Sprintf("bus %d already exists", id))
		}
		s.buses[id] = nil
		return apitypes.BusCreateResponse{BusID: id}, nil
	case "bus/remove":
		n, _ := strconv.ParseUint(payload, 10, 32)
		if !s.hasBus(uint32(n)) {
			return nil, apitypes.NotFound(fmt.Sprintf("bus %d not found", n))
		}
		delete(s.buses, uint32(n))
		return apitypes.BusRemoveResponse{BusID: uint32(n)}, nil
	}

	m := devicePath.FindStringSubmatch(path)
	if m == nil {
		return nil, apitypes.NotFound("unknown path: " + path)
	}
	n, _ := strconv.ParseUint(m[1], 10, 32)
	bus := uint32(n)
	if !s.hasBus(bus) {
		return nil, apitypes.NotFound(fmt.Sprintf("bus %d not found", bus))
	}
	switch m[2] {
	case "add":
		var req apitypes.DeviceCreateRequest
		if err := json.Unmarshal([]byte(payload), &req); err != nil || req.Type == nil {
			return nil, apitypes.ApiError{Status: 400, Title: "Bad Request", Detail: "invalid device request"}
		}
		s.nextDev[bus]++
		dev := apitypes.Device{
			BusID: bus,
			DevId: strconv.Itoa(s.nextDev[bus]),
			Vid:   "0x2e8a",
			Pid:   "0x0010",
			Type:  *req.Type,
		}
		if req.IdVendor != nil {
			dev.Vid = fmt.Sprintf("0x%04x", *req.IdVendor)
		}
		if req.IdProduct != nil {
			dev.Pid = fmt.Sprintf("0x%04x", *req.IdProduct)
		}
		s.buses[bus] = append(s.buses[bus], dev)
		return dev, nil
	case "remove":
		devs := s.buses[bus]
		i := slices.IndexFunc(devs, func(d apitypes.Device) bool { return d.DevId == payload })
		if i < 0 {
			return nil, apitypes.NotFound(fmt.Sprintf("device %s not found on bus %d", payload, bus))
		}
		s.buses[bus] = slices.Delete(devs, i, i+1)
		return apitypes.DeviceRemoveResponse{BusID: bus, DevId: payload}, nil
	default:
		return apitypes.DevicesListResponse{Devices: append([]apitypes.Device{}, s.buses[bus]...)}, nil
	}
}

func (s *Server) hasBus(id uint32) bool {
	_, ok := s.buses[id]
	return ok
}

func (s *Server) hasDevice(bus uint32, dev string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.ContainsFunc(s.buses[bus], func(d apitypes.Device) bool { return d.DevId == dev })
}

func writeProblem(w io.Writer, p apitypes.ApiError) {
	b, _ := json.Marshal(p)
	fmt.Fprintf(w, "%s\n", b)
}

// Stream is the server end of a device stream.
type Stream struct {
	BusID uint32
	DevID string

	conn net.Conn
	r    *bufio.Reader
}

// ReadReport reads one keyboard input message.
func (s *Stream) ReadReport(timeout time.Duration) (keyboard.InputState, error) {
	var st keyboard.InputState
	_ = s.conn.SetReadDeadline(time.Now().Add(timeout))
	hdr := make([]byte, 2)
	if _, err := io.ReadFull(s.r, hdr); err != nil {
		return st, err
	}
	msg := make([]byte, 2+int(hdr[1]))
	copy(msg, hdr)
	if _, err := io.ReadFull(s.r, msg[2:]); err != nil {
		return st, err
	}
	err := st.UnmarshalBinary(msg)
	return st, err
}

// SendLEDs writes a host LED bitmask to the client.
func (s *Stream) SendLEDs(leds uint8) error {
	_, err := s.conn.Write([]byte{leds})
	return err
}

// Close ends the stream.
func (s *Stream) Close() error { return s.conn.Close() }
