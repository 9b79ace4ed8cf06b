// Package crypt4gh implements the Crypt4GH file encryption format: the
// encrypted header envelope carrying the file secret and the segmented
// ChaCha20-Poly1305 payload stream.
package crypt4gh

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/curve25519"
)

// KeySize is the length in bytes of Curve25519 keys and file secrets.
const KeySize = 32

// ErrInvalidKey is returned when a key has the wrong length.
var ErrInvalidKey = errors.New("invalid key")

// KeyPair holds a raw Curve25519 key pair used for header encryption.
type KeyPair struct {
	Private []byte
	Public  []byte
}

// GenerateKeyPair creates a fresh Curve25519 key pair.
func GenerateKeyPair() (KeyPair, error) {
	priv := make([]byte, KeySize)
	if _, err := rand.Read(priv); err != nil {
		return KeyPair{}, fmt.Errorf("generating private key: %w", err)
	}
	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return KeyPair{}, fmt.Errorf("deriving public key: %w", err)
	}
	return KeyPair{Private: priv, Public: pub}, nil
}

// Key is raw 32-byte key material. Callers holding base64 strings, as
// produced by key serialization, convert them with ParseKey.
type Key []byte

// ParseKey decodes base64 encoded key or secret material into raw bytes
// and checks the length.
func ParseKey(value string) (Key, error) {
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(raw) != KeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKey, KeySize, len(raw))
	}
	return Key(raw), nil
}

// String renders the key as base64.
func (k Key) String() string {
	return base64.StdEncoding.EncodeToString(k)
}

func publicFromPrivate(priv []byte) ([]byte, error) {
	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("deriving public key: %w", err)
	}
	return pub, nil
}

func checkKey(key []byte) error {
	if len(key) != KeySize {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKey, KeySize, len(key))
	}
	return nil
}

// kxSessionKey derives the shared header key the way libsodium's crypto_kx
// does: blake2b-512 over the X25519 shared secret followed by both public
// keys, of which the second half is the writer-to-reader key.
func kxSessionKey(sharedSecret, writerPub, readerPub []byte) ([]byte, error) {
	h, err := blake2b.New512(nil)
	if err != nil {
		return nil, err
	}
	h.Write(sharedSecret)
	h.Write(writerPub)
	h.Write(readerPub)
	sum := h.Sum(nil)
	return sum[32:64], nil
}

// writerHeaderKey derives the key the writer uses to seal header packets
// for the reader.
func writerHeaderKey(writerPriv, readerPub []byte) ([]byte, error) {
	secret, err := curve25519.X25519(writerPriv, readerPub)
	if err != nil {
		return nil, fmt.Errorf("computing shared secret: %w", err)
	}
	writerPub, err := curve25519.X25519(writerPriv, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("deriving public key: %w", err)
	}
	return kxSessionKey(secret, writerPub, readerPub)
}

// readerHeaderKey derives the matching key on the reader side.
func readerHeaderKey(readerPriv, writerPub []byte) ([]byte, error) {
	secret, err := curve25519.X25519(readerPriv, writerPub)
	if err != nil {
		return nil, fmt.Errorf("computing shared secret: %w", err)
	}
	readerPub, err := curve25519.X25519(readerPriv, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("deriving public key: %w", err)
	}
	return kxSessionKey(secret, writerPub, readerPub)
}
