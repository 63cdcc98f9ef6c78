// Package checksum computes the SHA-256 fingerprint carried by a transfer envelope.
package checksum

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// ChunkSize is the read buffer used when streaming input.
const ChunkSize = 8192

// HexLen is the length of a digest string.
const HexLen = sha256.Size * 2

// Digest streams r in ChunkSize pieces and returns the lowercase hex digest.
// Errors come only from r.
func Digest(r io.Reader) (string, error) {
	return DigestChunked(r, ChunkSize)
}

// DigestChunked is Digest with an explicit chunk size. The result does not
// depend on chunkSize.
func DigestChunked(r io.Reader, chunkSize int) (string, error) {
	if chunkSize <= 0 {
		chunkSize = ChunkSize
	}
	hasher := sha256.New()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(hasher, onlyReader{r}, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Bytes digests an in-memory byte slice.
func Bytes(b []byte) string {
	sum, _ := Digest(bytes.NewReader(b))
	return sum
}

// File digests the file at path.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Digest(f)
}

// onlyReader hides WriterTo so io.CopyBuffer honours the chunk size.
type onlyReader struct {
	io.Reader
}
