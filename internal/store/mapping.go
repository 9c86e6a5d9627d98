package store

import (
	"encoding/json"
	"fmt"
)

// Mapping is the persisted form of a binding's placeholder set.
type Mapping struct {
	Placeholders []string `json:"placeholders"`
}

// EncodeMapping serializes placeholders to the mapping blob.
func EncodeMapping(placeholders []string) (string, error) {
	if placeholders == nil {
		placeholders = []string{}
	}

	data, err := json.Marshal(Mapping{Placeholders: placeholders})
	if err != nil {
		return "", fmt.Errorf("failed to encode mapping: %w", err)
	}

	return string(data), nil
}

// DecodeMapping parses a mapping blob. Empty or malformed blobs decode to an
// empty set, matching records that were never saved.
func DecodeMapping(blob string) []string {
	if blob == "" {
		return nil
	}

	var m Mapping
	if err := json.Unmarshal([]byte(blob), &m); err != nil {
		return nil
	}

	return m.Placeholders
}
