package auth

import (
	"bytes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

// MaxFrame bounds a single sealed frame on the wire.
const MaxFrame = 2 << 20

// SealedConn frames every Write as length | nonce | ciphertext and opens
// frames on Read. Nonces are a per-direction counter.
type SealedConn struct {
	net.Conn
	aead cipher.AEAD

	wmu  sync.Mutex
	wctr uint64

	rmu  sync.Mutex
	rbuf bytes.Buffer
}

// Seal wraps conn with the given session key.
func Seal(conn net.Conn, sessionKey []byte) (*SealedConn, error) {
	aead, err := chacha20poly1305.New(sessionKey)
	if err != nil {
		return nil, err
	}
	return &SealedConn{Conn: conn, aead: aead}, nil
}

func (c *SealedConn) Write(p []byte) (int, error) {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	ns := c.aead.NonceSize()
	frame := make([]byte, 4+ns, 4+ns+len(p)+c.aead.Overhead())
	binary.BigEndian.PutUint64(frame[4+ns-8:4+ns], c.wctr)
	c.wctr++
	frame = c.aead.Seal(frame, frame[4:4+ns], p, nil)
	binary.BigEndian.PutUint32(frame[:4], uint32(len(frame)-4))

	if _, err := c.Conn.Write(frame); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *SealedConn) Read(p []byte) (int, error) {
	c.rmu.Lock()
	defer c.rmu.Unlock()

	if c.rbuf.Len() == 0 {
		if err := c.readFrame(); err != nil {
			return 0, err
		}
	}
	return c.rbuf.Read(p)
}

func (c *SealedConn) readFrame() error {
	var hdr [4]byte
	if _, err := io.ReadFull(c.Conn, hdr[:]); err != nil {
		return err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	ns := uint32(c.aead.NonceSize())
	if n > MaxFrame || n < ns+uint32(c.aead.Overhead()) {
		return fmt.Errorf("sealed frame of %d bytes: %w", n, io.ErrUnexpectedEOF)
	}
	frame := make([]byte, n)
	if _, err := io.ReadFull(c.Conn, frame); err != nil {
		return err
	}
	pt, err := c.aead.Open(frame[ns:ns], frame[:ns], frame[ns:], nil)
	if err != nil {
		return err
	}
	c.rbuf.Write(pt)
	return nil
}
