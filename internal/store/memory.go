package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store.
type Memory struct {
	mu      sync.Mutex
	records map[string]Record
	order   []string
	writes  int

	// Fail, when set, is consulted before every operation; a non-nil
	// result is returned instead of performing it.
	Fail func(op, id string) error
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]Record)}
}

func (m *Memory) fail(op, id string) error {
	if m.Fail == nil {
		return nil
	}

	return m.Fail(op, id)
}

// Create implements Store.
func (m *Memory) Create(ctx context.Context, r Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("create", r.ID); err != nil {
		return "", err
	}

	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	if _, exists := m.records[r.ID]; exists {
		return "", fmt.Errorf("template %s already exists", r.ID)
	}

	r.Payload = clone(r.Payload)
	r.Fields = cloneFields(r.Fields)
	r.UpdatedAt = time.Now()
	m.records[r.ID] = r
	m.order = append(m.order, r.ID)

	return r.ID, nil
}

// Read implements Store.
func (m *Memory) Read(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("read", id); err != nil {
		return Record{}, err
	}

	r, ok := m.records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	r.Payload = clone(r.Payload)
	r.Fields = cloneFields(r.Fields)

	return r, nil
}

// Write implements Store.
func (m *Memory) Write(ctx context.Context, id string, u Update) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.writes++

	if err := m.fail("write", id); err != nil {
		return err
	}

	r, ok := m.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if u.Payload != nil {
		r.Payload = clone(u.Payload)
	}

	if u.Filename != nil {
		r.Filename = *u.Filename
	}

	if u.Mapping != nil {
		r.Mapping = *u.Mapping
	}

	if u.Fields != nil {
		r.Fields = cloneFields(u.Fields)
	}

	r.UpdatedAt = time.Now()
	m.records[id] = r

	return nil
}

// List implements Store.
func (m *Memory) List(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Record, 0, len(m.order))
	for _, id := range m.order {
		r := m.records[id]
		r.Payload = nil
		r.Fields = nil
		out = append(out, r)
	}

	return out, nil
}

// Writes counts Write calls, including failed ones.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.writes
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}

	return append([]byte{}, b...)
}

// cloneFields copies fields in sequence order. Empty input yields nil.
func cloneFields(fields []FieldMapping) []FieldMapping {
	if len(fields) == 0 {
		return nil
	}

	out := slices.Clone(fields)
	SortMappings(out)

	return out
}
