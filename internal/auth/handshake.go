package auth

import (
	"bufio"
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/iottabyte/tidbit/apitypes"
)

const (
	// Magic opens a client handshake.
	Magic     = "eVI1\x00"
	NonceSize = 32

	okPrefix    = "OK\x00"
	authContext = "VIIPER-Auth-v1"
)

// ErrUnauthorized is returned when the client proof does not match the key.
var ErrUnauthorized = errors.New("invalid password")

func proof(key, clientNonce []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(authContext))
	mac.Write(clientNonce)
	return mac.Sum(nil)
}

// ClientHandshake sends magic, nonce and proof and reads the server nonce.
// A server that rejects the password replies with a problem document, which
// is returned as *apitypes.ApiError.
func ClientHandshake(r io.Reader, w io.Writer, key []byte) (clientNonce, serverNonce []byte, err error) {
	if len(key) == 0 {
		return nil, nil, errors.New("handshake: missing key")
	}
	clientNonce = make([]byte, NonceSize)
	if _, err := rand.Read(clientNonce); err != nil {
		return nil, nil, fmt.Errorf("client nonce: %w", err)
	}

	msg := make([]byte, 0, len(Magic)+NonceSize+sha256.Size)
	msg = append(msg, Magic...)
	msg = append(msg, clientNonce...)
	msg = append(msg, proof(key, clientNonce)...)
	if _, err := w.Write(msg); err != nil {
		return nil, nil, fmt.Errorf("write handshake: %w", err)
	}

	prefix := make([]byte, len(okPrefix))
	if _, err := io.ReadFull(r, prefix); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, ErrUnauthorized
		}
		return nil, nil, fmt.Errorf("read handshake response: %w", err)
	}
	if string(prefix) != okPrefix {
		rest, _ := io.ReadAll(r)
		line := bytes.TrimSuffix(append(prefix, rest...), []byte("\n"))
		var problem apitypes.ApiError
		if json.Unmarshal(line, &problem) == nil && (problem.Status != 0 || problem.Title != "") {
			return nil, nil, &problem
		}
		return nil, nil, fmt.Errorf("unexpected handshake response %q", line)
	}

	serverNonce = make([]byte, NonceSize)
	if _, err := io.ReadFull(r, serverNonce); err != nil {
		return nil, nil, fmt.Errorf("read server nonce: %w", err)
	}
	return clientNonce, serverNonce, nil
}

// IsHandshake peeks for Magic without consuming it.
func IsHandshake(r *bufio.Reader) (bool, error) {
	b, err := r.Peek(len(Magic))
	if err != nil {
		return false, err
	}
	return string(b) == Magic, nil
}

// ServerHandshake consumes a client handshake, checks the proof and answers
// with a fresh server nonce.
func ServerHandshake(r *bufio.Reader, w io.Writer, key []byte) (clientNonce, serverNonce []byte, err error) {
	if _, err := r.Discard(len(Magic)); err != nil {
		return nil, nil, fmt.Errorf("discard magic: %w", err)
	}
	clientNonce = make([]byte, NonceSize)
	if _, err := io.ReadFull(r, clientNonce); err != nil {
		return nil, nil, fmt.Errorf("read client nonce: %w", err)
	}
	got := make([]byte, sha256.Size)
	if _, err := io.ReadFull(r, got); err != nil {
		return nil, nil, fmt.Errorf("read client proof: %w", err)
	}
	if !hmac.Equal(got, proof(key, clientNonce)) {
		return nil, nil, ErrUnauthorized
	}

	serverNonce = make([]byte, NonceSize)
	if _, err := rand.Read(serverNonce); err != nil {
		return nil, nil, fmt.Errorf("server nonce: %w", err)
	}
	if _, err := w.Write(append([]byte(okPrefix), serverNonce...)); err != nil {
		return nil, nil, fmt.Errorf("write response: %w", err)
	}
	return clientNonce, serverNonce, nil
}
