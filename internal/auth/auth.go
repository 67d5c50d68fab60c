// Package auth implements the VIIPER API password handshake and the
// encrypted stream used after it.
//
// Both sides derive a 32 byte key from the password with PBKDF2. The client
// proves knowledge of the key with an HMAC over a fresh nonce, the server
// answers with its own nonce, and both mix key and nonces into a session key
// for ChaCha20-Poly1305 framing.
package auth

import (
	"crypto/pbkdf2"
	"crypto/sha256"
	"errors"
)

// Protocol constants shared with VIIPER servers.
const (
	KeySalt          = "VIIPER-Key-v1"
	KeyIterations    = 100000
	KeySize          = 32
	sessionKeyDomain = "VIIPER-Session-v1"
)

// ErrEmptyPassword is returned by DeriveKey for an empty password.
var ErrEmptyPassword = errors.New("password cannot be empty")

// DeriveKey stretches password into a KeySize byte key.
func DeriveKey(password string) ([]byte, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	return pbkdf2.Key(sha256.New, password, []byte(KeySalt), KeyIterations, KeySize)
}

// SessionKey mixes the long-term key with both handshake nonces.
func SessionKey(key, serverNonce, clientNonce []byte) []byte {
	h := sha256.New()
	h.Write(key)
	h.Write(serverNonce)
	h.Write(clientNonce)
	h.Write([]byte(sessionKeyDomain))
	return h.Sum(nil)
}
