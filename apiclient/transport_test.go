package apiclient_test

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/iottabyte/tidbit/apiclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureServer accepts one connection, records the request up to the null
// terminator and replies with response.
func captureServer(t *testing.T, response string) (string, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	got := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var sb strings.Builder
		buf := make([]byte, 1)
		for {
			if _, err := conn.Read(buf); err != nil {
				break
			}
			sb.WriteByte(buf[0])
			if buf[0] == 0 {
				break
			}
		}
		got <- sb.String()
		_, _ = conn.Write([]byte(response))
	}()
	return ln.Addr().String(), got
}

func TestTransportRequestFraming(t *testing.T) {
	type payload struct {
		A int `json:"a"`
	}
	testCases := []struct {
		name     string
		path     string
		params   map[string]string
		payload  any
		expected string
	}{
		{name: "nil payload", path: "bus/list", expected: "bus/list\x00"},
		{name: "empty string", path: "bus/list", payload: "", expected: "bus/list\x00"},
		{name: "string", path: "bus/create", payload: "7", expected: "bus/create 7\x00"},
		{name: "bytes", path: "echo", payload: []byte("raw\nlines"), expected: "echo raw\nlines\x00"},
		{name: "json", path: "echo", payload: payload{A: 1}, expected: "echo {\"a\":1}\x00"},
		{name: "path params", path: "BUS/{id}/LIST", params: map[string]string{"id": "12"}, expected: "bus/12/list\x00"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			addr, got := captureServer(t, "{}\n")
			tr := apiclient.NewTransport(addr, nil)
			resp, err := tr.Do(context.Background(), tc.path, tc.payload, tc.params)
			require.NoError(t, err)
			assert.Equal(t, "{}", resp)
			assert.Equal(t, tc.expected, <-got)
		})
	}
}

func TestTransportKeepsEmbeddedNewlines(t *testing.T) {
	addr, _ := captureServer(t, "line1\nline2\n")
	resp, err := apiclient.NewTransport(addr, nil).Do(context.Background(), "x", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2", resp)
}

func TestTransportDialError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	cfg := apiclient.DefaultConfig()
	cfg.DialTimeout = 200 * time.Millisecond
	_, err = apiclient.NewTransport(addr, &cfg).Do(context.Background(), "ping", nil, nil)
	assert.ErrorContains(t, err, "dial:")
}
