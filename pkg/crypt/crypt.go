// Package crypt provides asymmetric encryption of small payloads using
// NaCl sealed boxes. Keys travel as base64 strings so they can be passed
// through configuration and HTTP headers without further encoding.
package crypt

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"
)

// KeySize is the length in bytes of raw Curve25519 keys.
const KeySize = 32

// ErrInvalidKey is returned when a key cannot be decoded or has the
// wrong length.
var ErrInvalidKey = errors.New("invalid key")

// KeyPair holds a raw Curve25519 key pair.
type KeyPair struct {
	Private []byte
	Public  []byte
}

// GenerateKeyPair creates a fresh Curve25519 key pair.
func GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, fmt.Errorf("generating key pair: %w", err)
	}
	return KeyPair{Private: priv[:], Public: pub[:]}, nil
}

// EncodeKey renders a raw key as base64.
func EncodeKey(key []byte) (string, error) {
	if len(key) != KeySize {
		return "", fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKey, KeySize, len(key))
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// DecodeKey parses a base64 encoded key and checks its length.
func DecodeKey(key string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(raw) != KeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKey, KeySize, len(raw))
	}
	return raw, nil
}

// Encrypt seals data for the holder of the private key matching the
// given base64 encoded public key. The result is base64 encoded.
func Encrypt(data string, publicKey string) (string, error) {
	raw, err := DecodeKey(publicKey)
	if err != nil {
		return "", err
	}
	var pub [KeySize]byte
	copy(pub[:], raw)
	sealed, err := box.SealAnonymous(nil, []byte(data), &pub, rand.Reader)
	if err != nil {
		return "", fmt.Errorf("sealing data: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens base64 encoded sealed-box data using the base64 encoded
// private key.
func Decrypt(data string, privateKey string) (string, error) {
	raw, err := DecodeKey(privateKey)
	if err != nil {
		return "", err
	}
	var priv [KeySize]byte
	copy(priv[:], raw)
	pubSlice, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return "", fmt.Errorf("deriving public key: %w", err)
	}
	var pub [KeySize]byte
	copy(pub[:], pubSlice)
	sealed, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("decoding sealed data: %w", err)
	}
	plain, ok := box.OpenAnonymous(nil, sealed, &pub, &priv)
	if !ok {
		return "", errors.New("could not decrypt data")
	}
	return string(plain), nil
}
