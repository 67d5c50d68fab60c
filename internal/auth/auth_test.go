package auth_test

import (
	"bufio"
	"bytes"
	"io"
	"net"
	"testing"

	"github.com/iottabyte/tidbit/apitypes"
	"github.com/iottabyte/tidbit/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	type testCase struct {
		name        string
		password    string
		expectedKey []byte
		expectedErr error
	}
	testCases := []testCase{
		{
			name:        "normal password",
			password:    "password123",
			expectedKey: []byte{0x94, 0x50, 0x29, 0x55, 0x1, 0xd7, 0x3, 0xf, 0x4, 0x61, 0xf, 0x81, 0x6a, 0xdf, 0x43, 0x1c, 0xaf, 0x8f, 0xc8, 0x21, 0xd4, 0xc1, 0x2f, 0x2f, 0x21, 0x2c, 0x1b, 0xf8, 0x64, 0x46, 0x9, 0x82},
		},
		{
			name:        "single character",
			password:    "1",
			expectedKey: []byte{0xfe, 0xdf, 0xdf, 0x4d, 0xab, 0xd2, 0x5d, 0x9f, 0xfd, 0x97, 0x96, 0xec, 0x76, 0xd2, 0xa2, 0xec, 0x2, 0x4f, 0xbf, 0xeb, 0x17, 0x8c, 0x6, 0x13, 0xed, 0x4f, 0x10, 0x9e, 0x4d, 0xef, 0xd1, 0xd2},
		},
		{
			name:        "empty",
			password:    "",
			expectedErr: auth.ErrEmptyPassword,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			key, err := auth.DeriveKey(tc.password)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedKey, key)
		})
	}
}

func TestSessionKey(t *testing.T) {
	key := bytes.Repeat([]byte{1}, 32)
	sn := bytes.Repeat([]byte{2}, 32)
	cn := bytes.Repeat([]byte{3}, 32)

	k1 := auth.SessionKey(key, sn, cn)
	assert.Len(t, k1, 32)
	assert.Equal(t, k1, auth.SessionKey(key, sn, cn))
	assert.NotEqual(t, k1, auth.SessionKey(key, cn, sn))
}

func TestHandshakeOverPipe(t *testing.T) {
	key, err := auth.DeriveKey("hunter2")
	require.NoError(t, err)

	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	type result struct {
		cn, sn []byte
		err    error
	}
	done := make(chan result, 1)
	go func() {
		br := bufio.NewReader(server)
		ok, err := auth.IsHandshake(br)
		if err != nil || !ok {
			done <- result{err: err}
			return
		}
		cn, sn, err := auth.ServerHandshake(br, server, key)
		done <- result{cn, sn, err}
	}()

	cn, sn, err := auth.ClientHandshake(client, client, key)
	require.NoError(t, err)
	srv := <-done
	require.NoError(t, srv.err)
	assert.Equal(t, srv.cn, cn)
	assert.Equal(t, srv.sn, sn)

	ck := auth.SessionKey(key, sn, cn)
	sc, err := auth.Seal(client, ck)
	require.NoError(t, err)
	ss, err := auth.Seal(server, auth.SessionKey(key, srv.sn, srv.cn))
	require.NoError(t, err)

	go func() { _, _ = sc.Write([]byte("bus/list\x00")) }()
	buf := make([]byte, 64)
	n, err := ss.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "bus/list\x00", string(buf[:n]))
}

func TestServerRejectsWrongKey(t *testing.T) {
	good, err := auth.DeriveKey("right")
	require.NoError(t, err)
	bad, err := auth.DeriveKey("wrong")
	require.NoError(t, err)

	client, server := net.Pipe()
	defer client.Close()

	go func() {
		_, _, err := auth.ServerHandshake(bufio.NewReader(server), server, good)
		assert.ErrorIs(t, err, auth.ErrUnauthorized)
		server.Close()
	}()

	_, _, err = auth.ClientHandshake(client, client, bad)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestClientHandshakeProblemResponse(t *testing.T) {
	key, err := auth.DeriveKey("x")
	require.NoError(t, err)

	resp := bytes.NewBufferString(`{"status":401,"title":"Unauthorized","detail":"invalid password"}` + "\n")
	_, _, err = auth.ClientHandshake(resp, io.Discard, key)

	var problem *apitypes.ApiError
	require.ErrorAs(t, err, &problem)
	assert.Equal(t, 401, problem.Status)
}

func TestIsHandshake(t *testing.T) {
	ok, err := auth.IsHandshake(bufio.NewReader(bytes.NewBufferString(auth.Magic + "rest")))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = auth.IsHandshake(bufio.NewReader(bytes.NewBufferString("bus/list\x00")))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = auth.IsHandshake(bufio.NewReader(bytes.NewBufferString("eV")))
	assert.ErrorIs(t, err, io.EOF)
}

func TestSealRejectsBadKey(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()
	_, err := auth.Seal(a, []byte{1, 2, 3})
	assert.Error(t, err)
}

func TestSealedConnTamper(t *testing.T) {
	k1 := bytes.Repeat([]byte{7}, 32)
	k2 := bytes.Repeat([]byte{8}, 32)
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	sa, err := auth.Seal(a, k1)
	require.NoError(t, err)
	sb, err := auth.Seal(b, k2)
	require.NoError(t, err)

	go func() { _, _ = sa.Write([]byte("hello")) }()
	_, err = sb.Read(make([]byte, 16))
	assert.ErrorContains(t, err, "message authentication failed")
}

func TestSealedConnSplitsLargeReads(t *testing.T) {
	k := bytes.Repeat([]byte{9}, 32)
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	sa, err := auth.Seal(a, k)
	require.NoError(t, err)
	sb, err := auth.Seal(b, k)
	require.NoError(t, err)

	msg := bytes.Repeat([]byte("abc"), 100)
	go func() {
		_, _ = sa.Write(msg)
		_, _ = sa.Write([]byte("tail"))
	}()
	got := make([]byte, len(msg)+4)
	_, err = io.ReadFull(sb, got)
	require.NoError(t, err)
	assert.Equal(t, append(msg, "tail"...), got)
}
