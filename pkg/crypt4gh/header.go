package crypt4gh

import (
	"bytes"
	"crypto/rand"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	magicNumber = "crypt4gh"
	version     = 1

	// Header packets are sealed with X25519 + ChaCha20-Poly1305; the data
	// stream uses ChaCha20-Poly1305 directly. Both carry method number 0.
	methodX25519ChaCha20Poly1305 = 0
	dataEncryptionChaCha20       = 0

	packetTypeDataEnc = 0

	// type(4) + method(4) + session key(32)
	dataEncPacketSize = 8 + KeySize
)

var (
	// ErrInvalidEnvelope is returned when a header cannot be parsed.
	ErrInvalidEnvelope = errors.New("invalid envelope")
	// ErrUnsupportedVersion is returned for envelope versions other than 1.
	ErrUnsupportedVersion = errors.New("unsupported envelope version")
	// ErrSenderMismatch is returned when the writer public key embedded in
	// the envelope does not match the expected one.
	ErrSenderMismatch = errors.New("envelope written by unexpected sender")
	// ErrNoFileSecret is returned when no header packet could be decrypted
	// with the given private key.
	ErrNoFileSecret = errors.New("no file secret could be extracted")
)

// CreateEnvelope builds a Crypt4GH header that carries the given file
// secret, sealed by the writer's private key for the holder of the reader
// public key.
func CreateEnvelope(fileSecret, privateKey, publicKey []byte) ([]byte, error) {
	if len(fileSecret) != KeySize {
		return nil, fmt.Errorf("%w: file secret must be %d bytes", ErrInvalidKey, KeySize)
	}
	if err := checkKey(privateKey); err != nil {
		return nil, err
	}
	if err := checkKey(publicKey); err != nil {
		return nil, err
	}

	inner := make([]byte, 0, dataEncPacketSize)
	inner = binary.LittleEndian.AppendUint32(inner, packetTypeDataEnc)
	inner = binary.LittleEndian.AppendUint32(inner, dataEncryptionChaCha20)
	inner = append(inner, fileSecret...)

	key, err := writerHeaderKey(privateKey, publicKey)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	writerPub, err := publicFromPrivate(privateKey)
	if err != nil {
		return nil, err
	}

	packet := make([]byte, 0, 4+KeySize+len(nonce)+dataEncPacketSize+aead.Overhead())
	packet = binary.LittleEndian.AppendUint32(packet, methodX25519ChaCha20Poly1305)
	packet = append(packet, writerPub...)
	packet = append(packet, nonce...)
	packet = aead.Seal(packet, nonce, inner, nil)

	var buf bytes.Buffer
	buf.WriteString(magicNumber)
	_ = binary.Write(&buf, binary.LittleEndian, uint32(version))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(1)) // packet count
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(packet)+4))
	buf.Write(packet)
	return buf.Bytes(), nil
}

// ExtractFileSecret reads a Crypt4GH header from the start of data and
// returns the first file secret decryptable with the private key. If
// publicKey is non-nil, the writer public key embedded in the header must
// match it. Trailing bytes after the header are ignored.
func ExtractFileSecret(data, privateKey, publicKey []byte) ([]byte, error) {
	secrets, _, err := readHeader(bytes.NewReader(data), privateKey, publicKey)
	if err != nil {
		return nil, err
	}
	return secrets[0], nil
}

// readHeader parses the envelope from r and returns all file secrets that
// the private key can unseal, along with the total header length in bytes.
func readHeader(r io.Reader, privateKey, publicKey []byte) ([][]byte, int, error) {
	if err := checkKey(privateKey); err != nil {
		return nil, 0, err
	}

	preamble := make([]byte, len(magicNumber)+8)
	if _, err := io.ReadFull(r, preamble); err != nil {
		return nil, 0, fmt.Errorf("%w: truncated preamble", ErrInvalidEnvelope)
	}
	if string(preamble[:len(magicNumber)]) != magicNumber {
		return nil, 0, fmt.Errorf("%w: bad magic number", ErrInvalidEnvelope)
	}
	if v := binary.LittleEndian.Uint32(preamble[8:12]); v != version {
		return nil, 0, fmt.Errorf("%w: got version %d", ErrUnsupportedVersion, v)
	}
	packetCount := binary.LittleEndian.Uint32(preamble[12:16])
	headerLen := len(preamble)

	var secrets [][]byte
	senderMismatch := false
	for i := uint32(0); i < packetCount; i++ {
		var lenBuf [4]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			return nil, 0, fmt.Errorf("%w: truncated packet %d", ErrInvalidEnvelope, i)
		}
		packetLen := binary.LittleEndian.Uint32(lenBuf[:])
		if packetLen < 4 || packetLen > 1<<20 {
			return nil, 0, fmt.Errorf("%w: implausible packet length %d", ErrInvalidEnvelope, packetLen)
		}
		packet := make([]byte, packetLen-4)
		if _, err := io.ReadFull(r, packet); err != nil {
			return nil, 0, fmt.Errorf("%w: truncated packet %d", ErrInvalidEnvelope, i)
		}
		headerLen += int(packetLen)

		secret, err := openPacket(packet, privateKey, publicKey)
		if errors.Is(err, ErrSenderMismatch) {
			senderMismatch = true
			continue
		}
		if err != nil {
			// Not every packet needs to be addressed to us.
			continue
		}
		if secret != nil {
			secrets = append(secrets, secret)
		}
	}
	if len(secrets) == 0 {
		if senderMismatch {
			return nil, 0, ErrSenderMismatch
		}
		return nil, 0, ErrNoFileSecret
	}
	return secrets, headerLen, nil
}

// openPacket unseals a single header packet. It returns a nil secret for
// decryptable packets that are not data encryption packets.
func openPacket(packet, privateKey, publicKey []byte) ([]byte, error) {
	if len(packet) < 4+KeySize+chacha20poly1305.NonceSize {
		return nil, fmt.Errorf("%w: packet too short", ErrInvalidEnvelope)
	}
	if method := binary.LittleEndian.Uint32(packet[:4]); method != methodX25519ChaCha20Poly1305 {
		return nil, fmt.Errorf("%w: unsupported packet encryption method %d", ErrInvalidEnvelope, method)
	}
	writerPub := packet[4 : 4+KeySize]
	if publicKey != nil && subtle.ConstantTimeCompare(writerPub, publicKey) != 1 {
		return nil, ErrSenderMismatch
	}
	nonce := packet[4+KeySize : 4+KeySize+chacha20poly1305.NonceSize]
	sealed := packet[4+KeySize+chacha20poly1305.NonceSize:]

	key, err := readerHeaderKey(privateKey, writerPub)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	inner, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("opening header packet: %w", err)
	}
	if len(inner) < 4 {
		return nil, fmt.Errorf("%w: header packet too short", ErrInvalidEnvelope)
	}
	if binary.LittleEndian.Uint32(inner[:4]) != packetTypeDataEnc {
		return nil, nil
	}
	if len(inner) != dataEncPacketSize {
		return nil, fmt.Errorf("%w: malformed data encryption packet", ErrInvalidEnvelope)
	}
	if method := binary.LittleEndian.Uint32(inner[4:8]); method != dataEncryptionChaCha20 {
		return nil, fmt.Errorf("%w: unsupported data encryption method %d", ErrInvalidEnvelope, method)
	}
	return inner[8:], nil
}
