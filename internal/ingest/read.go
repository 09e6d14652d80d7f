package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalid marks input files that were read but do not have the expected shape.
var ErrInvalid = errors.New("invalid exam input")

// Digest records which input file was read and its content hash.
type Digest struct {
	Kind   string `json:"kind"`
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	ReadOK bool   `json:"read_ok"`
}

// ReadFile reads path and returns its bytes with a digest. The digest is
// returned even when the read fails, with ReadOK false.
func ReadFile(kind, path string) ([]byte, Digest, error) {
	d := Digest{Kind: kind, Path: path}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, d, err
	}
	sum := sha256.Sum256(b)
	d.SHA256 = hex.EncodeToString(sum[:])
	d.ReadOK = true
	return b, d, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// firstByte returns the first non-space byte of payload, or 0.
func firstByte(payload []byte) byte {
	for _, c := range payload {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return c
	}
	return 0
}
