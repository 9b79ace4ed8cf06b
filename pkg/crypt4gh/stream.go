package crypt4gh

import (
	"bufio"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/genomearc/servicekit/pkg/tempfile"
)

// SegmentSize is the plaintext size of one data segment.
const SegmentSize = 65536

const cipherSegmentSize = SegmentSize + chacha20poly1305.NonceSize + chacha20poly1305.Overhead

// ErrCorruptSegment is returned when a data segment fails authentication
// with every available file secret.
var ErrCorruptSegment = errors.New("could not decrypt data segment")

// Encrypt reads plaintext from r and writes a complete Crypt4GH file to w:
// a header sealed with the writer's private key for the reader public key,
// followed by the encrypted data segments. It returns the file secret used
// for the payload.
func Encrypt(r io.Reader, w io.Writer, privateKey, publicKey []byte) ([]byte, error) {
	fileSecret := make([]byte, KeySize)
	if _, err := rand.Read(fileSecret); err != nil {
		return nil, fmt.Errorf("generating file secret: %w", err)
	}
	envelope, err := CreateEnvelope(fileSecret, privateKey, publicKey)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(envelope); err != nil {
		return nil, fmt.Errorf("writing envelope: %w", err)
	}

	aead, err := chacha20poly1305.New(fileSecret)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	segment := make([]byte, SegmentSize)
	out := make([]byte, 0, cipherSegmentSize)
	for {
		n, err := io.ReadFull(r, segment)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("reading plaintext: %w", err)
		}
		nonce := make([]byte, chacha20poly1305.NonceSize)
		if _, err := rand.Read(nonce); err != nil {
			return nil, fmt.Errorf("generating nonce: %w", err)
		}
		out = out[:0]
		out = append(out, nonce...)
		out = aead.Seal(out, nonce, segment[:n], nil)
		if _, err := w.Write(out); err != nil {
			return nil, fmt.Errorf("writing segment: %w", err)
		}
		if n < SegmentSize {
			break
		}
	}
	return fileSecret, nil
}

// Decrypt reads a complete Crypt4GH file from r and writes the plaintext
// to w using the reader's private key.
func Decrypt(r io.Reader, w io.Writer, privateKey []byte) error {
	br := bufio.NewReader(r)
	secrets, _, err := readHeader(br, privateKey, nil)
	if err != nil {
		return err
	}

	ciphers := make([]cipher.AEAD, 0, len(secrets))
	for _, secret := range secrets {
		aead, err := chacha20poly1305.New(secret)
		if err != nil {
			return fmt.Errorf("creating cipher: %w", err)
		}
		ciphers = append(ciphers, aead)
	}

	segment := make([]byte, cipherSegmentSize)
	for {
		n, err := io.ReadFull(br, segment)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("reading segment: %w", err)
		}
		if n < chacha20poly1305.NonceSize+chacha20poly1305.Overhead {
			return fmt.Errorf("%w: truncated segment", ErrCorruptSegment)
		}
		nonce := segment[:chacha20poly1305.NonceSize]
		sealed := segment[chacha20poly1305.NonceSize:n]

		var plain []byte
		opened := false
		for _, aead := range ciphers {
			if plain, err = aead.Open(nil, nonce, sealed, nil); err == nil {
				opened = true
				break
			}
		}
		if !opened {
			return ErrCorruptSegment
		}
		if _, err := w.Write(plain); err != nil {
			return fmt.Errorf("writing plaintext: %w", err)
		}
		if n < cipherSegmentSize {
			return nil
		}
	}
}

// DecryptFile decrypts the Crypt4GH file at inputPath into outputPath.
func DecryptFile(inputPath, outputPath string, privateKey []byte) error {
	in, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("opening input file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := Decrypt(in, out, privateKey); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// EncryptedContent is a temporary Crypt4GH file with random payload,
// positioned at its start for reading.
type EncryptedContent struct {
	File *os.File
	// DecryptedSize is the plaintext size in bytes.
	DecryptedSize int64
}

// Cleanup closes and removes the underlying file.
func (c *EncryptedContent) Cleanup() error {
	name := c.File.Name()
	if err := c.File.Close(); err != nil {
		return err
	}
	return os.Remove(name)
}

// RandomEncryptedContent produces a Crypt4GH encrypted temp file whose
// plaintext is roughly size bytes of random content. Useful for tests of
// download and re-encryption paths.
func RandomEncryptedContent(size int64, privateKey, publicKey []byte) (*EncryptedContent, error) {
	raw, err := tempfile.Big(size)
	if err != nil {
		return nil, err
	}
	defer raw.Cleanup()

	out, err := os.CreateTemp("", "c4gh-*.enc")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := Encrypt(raw, out, privateKey, publicKey); err != nil {
		out.Close()
		os.Remove(out.Name())
		return nil, err
	}
	if _, err := out.Seek(0, io.SeekStart); err != nil {
		out.Close()
		os.Remove(out.Name())
		return nil, fmt.Errorf("rewinding temp file: %w", err)
	}
	return &EncryptedContent{File: out, DecryptedSize: raw.Size}, nil
}
