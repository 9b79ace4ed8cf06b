// Package tempfile generates large temporary files for tests and demos.
package tempfile

import (
	"fmt"
	"math/rand"
	"os"
)

// BigFile is an open temporary file together with its size in bytes.
type BigFile struct {
	*os.File
	Size int64
}

// Big creates a temporary file of at least size bytes, filled with
// newline-separated random decimal numbers. The file is positioned at the
// start for reading. The caller is responsible for calling Cleanup.
func Big(size int64) (*BigFile, error) {
	f, err := os.CreateTemp("", "bigfile-*.txt")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	var written int64
	for written <= size {
		n, err := fmt.Fprintf(f, "%d\n", rand.Int63n(1_000_000_000_000))
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
			return nil, fmt.Errorf("write temp file: %w", err)
		}
		written += int64(n)
	}

	if _, err := f.Seek(0, 0); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("rewind temp file: %w", err)
	}

	return &BigFile{File: f, Size: written}, nil
}

// Cleanup closes and removes the file.
func (b *BigFile) Cleanup() {
	_ = b.Close()
	_ = os.Remove(b.Name())
}
