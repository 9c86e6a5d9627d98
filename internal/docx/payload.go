package docx

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
)

// Extension is the only template file extension accepted.
const Extension = ".docx"

var zipMagic = []byte("PK\x03\x04")

// HasExtension reports whether filename carries one of the allowed
// extensions, compared case-insensitively. An empty list allows .docx only.
func HasExtension(filename string, allowed ...string) bool {
	if len(allowed) == 0 {
		allowed = []string{Extension}
	}

	ext := filepath.Ext(filename)
	for _, a := range allowed {
		if strings.EqualFold(ext, a) {
			return true
		}
	}

	return false
}

// DecodePayload accepts a raw DOCX archive or its base64 transport form.
func DecodePayload(data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, zipMagic) {
		return data, nil
	}

	trimmed := bytes.TrimSpace(data)
	out := make([]byte, base64.StdEncoding.DecodedLen(len(trimmed)))

	n, err := base64.StdEncoding.Decode(out, trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: payload is neither a zip archive nor base64: %w", ErrInvalidDocument, err)
	}

	return out[:n], nil
}

// EncodePayload returns the base64 transport form of a DOCX archive.
func EncodePayload(payload []byte) string {
	return base64.StdEncoding.EncodeToString(payload)
}
