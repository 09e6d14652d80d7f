package ingest

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ParseAnswerText decodes a plain-text answer file. Only .txt is supported; a
// UTF-8 byte order mark is dropped.
func ParseAnswerText(path string, payload []byte) (string, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".txt" {
		return "", fmt.Errorf("%w: %s: unsupported answer file format %q", ErrInvalid, path, ext)
	}
	if !utf8.Valid(payload) {
		return "", fmt.Errorf("%w: %s: answer text is not valid UTF-8", ErrInvalid, path)
	}
	return strings.TrimPrefix(string(payload), "\ufeff"), nil
}
