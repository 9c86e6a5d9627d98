package store

import (
	"context"
	"fmt"
	"time"

	"docbind/internal/schema"
)

// ErrNotFound is returned when no template record has the requested id.
var ErrNotFound = fmt.Errorf("template record %w", schema.ErrNotFound)

// Record is one persisted report template.
type Record struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	ModelName string    `json:"model_name" yaml:"model_name"`
	Payload   []byte    `json:"-" yaml:"-"`
	Filename  string    `json:"filename" yaml:"filename"`
	Mapping   string    `json:"mapping" yaml:"mapping"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
	// Fields holds per-placeholder metadata in sequence order.
	Fields []FieldMapping `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Update is a partial write. Nil fields are left unchanged. A non-nil
// Fields replaces every field mapping of the record.
type Update struct {
	Payload  []byte
	Filename *string
	Mapping  *string
	Fields   []FieldMapping
}

// IsEmpty reports whether the update changes nothing.
func (u Update) IsEmpty() bool {
	return u.Payload == nil && u.Filename == nil && u.Mapping == nil && u.Fields == nil
}

// Store persists template records.
type Store interface {
	// Create inserts r and returns its id. An empty r.ID is assigned.
	Create(ctx context.Context, r Record) (string, error)
	// Read returns the full record, payload and field mappings included.
	Read(ctx context.Context, id string) (Record, error)
	// Write applies a partial update.
	Write(ctx context.Context, id string, u Update) error
	// List returns every record without its payload or field mappings,
	// oldest first.
	List(ctx context.Context) ([]Record, error)
}

// String sets a string field of an Update.
func String(s string) *string { return &s }
