package apiclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/iottabyte/tidbit/internal/auth"
)

// Config controls dialing, timeouts and authentication.
type Config struct {
	DialTimeout  time.Duration `help:"VIIPER API dial timeout" default:"3s" env:"TIDBIT_VIIPER_DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `help:"VIIPER API response timeout" default:"5s" env:"TIDBIT_VIIPER_READ_TIMEOUT"`
	WriteTimeout time.Duration `help:"VIIPER API request timeout" default:"5s" env:"TIDBIT_VIIPER_WRITE_TIMEOUT"`
	Password     string        `help:"VIIPER API password; empty disables authentication" env:"TIDBIT_VIIPER_PASSWORD"`
}

// DefaultConfig returns the timeouts used when none are configured.
func DefaultConfig() Config {
	return Config{
		DialTimeout:  3 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

// Responder answers requests in place of a server. It receives the path
// pattern before parameter substitution.
type Responder func(path string, payload any, pathParams map[string]string) (string, error)

// Transport speaks the VIIPER management protocol.
//
// A request is `<path>[ SP <payload>]` terminated by \x00. The server answers
// with one JSON document and closes the connection, so the response is read
// to EOF and a single trailing newline trimmed.
type Transport struct {
	addr string
	cfg  Config
	mock Responder
}

// NewTransport creates a transport for addr. A nil cfg uses DefaultConfig.
func NewTransport(addr string, cfg *Config) *Transport {
	c := DefaultConfig()
	if cfg != nil {
		c = *cfg
	}
	return &Transport{addr: addr, cfg: c}
}

// NewMockTransport creates a transport that never touches the network.
func NewMockTransport(r Responder) *Transport {
	return &Transport{addr: "mock", cfg: DefaultConfig(), mock: r}
}

// Addr returns the server address.
func (t *Transport) Addr() string { return t.addr }

// dial connects and, when a password is configured, authenticates and seals
// the connection.
func (t *Transport) dial(ctx context.Context) (net.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	d := &net.Dialer{Timeout: t.cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.SetNoDelay(true); err != nil {
			slog.Warn("failed to set TCP_NODELAY", "error", err)
		}
	}
	if t.cfg.Password == "" {
		return conn, nil
	}

	key, err := auth.DeriveKey(t.cfg.Password)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if t.cfg.WriteTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(t.cfg.WriteTimeout))
	}
	cn, sn, err := auth.ClientHandshake(bufio.NewReader(conn), conn, key)
	if err != nil {
		conn.Close()
		return nil, err
	}
	_ = conn.SetDeadline(time.Time{})
	sealed, err := auth.Seal(conn, auth.SessionKey(key, sn, cn))
	if err != nil {
		conn.Close()
		return nil, err
	}
	return sealed, nil
}

// Do sends one request and returns the response line.
//
// Payloads: []byte and string are sent as-is, nil sends none, anything else
// is JSON encoded.
func (t *Transport) Do(ctx context.Context, path string, payload any, pathParams map[string]string) (string, error) {
	if t.mock != nil {
		return t.mock(path, payload, pathParams)
	}
	body, err := payloadBytes(payload)
	if err != nil {
		return "", err
	}
	line := []byte(fillPath(path, pathParams))
	if len(body) > 0 {
		line = append(append(line, ' '), body...)
	}

	conn, err := t.dial(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if t.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteTimeout))
	}
	if _, err := conn.Write(append(line, 0)); err != nil {
		return "", fmt.Errorf("write: %w", err)
	}
	if t.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(t.cfg.ReadTimeout))
	}
	resp, err := io.ReadAll(conn)
	if err != nil && len(resp) == 0 {
		return "", fmt.Errorf("read: %w", err)
	}
	return strings.TrimSuffix(string(resp), "\n"), nil
}

func fillPath(pattern string, params map[string]string) string {
	out := pattern
	for k, v := range params {
		out = strings.ReplaceAll(out, "{"+k+"}", url.PathEscape(v))
	}
	return strings.ToLower(out)
}

func payloadBytes(v any) ([]byte, error) {
	switch p := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return p, nil
	case string:
		return []byte(p), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		return b, nil
	}
}
