package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"docbind/internal/schema"
)

// Catalog is a set of model definitions loaded from YAML.
//
//	models:
//	  - name: sale.order
//	    fields:
//	      - name: partner_id
//	        label: Customer
//	        type: many2one
//	        relation: res.partner
type Catalog struct {
	Models []Model `yaml:"models"`

	byName map[string]*Model
}

// Model is one business object and its fields, in declaration order.
type Model struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description,omitempty"`
	Fields      []Field `yaml:"fields"`

	byName map[string]*Field
}

// Field is one declared field of a model.
type Field struct {
	Name     string           `yaml:"name"`
	Label    string           `yaml:"label,omitempty"`
	Type     schema.FieldType `yaml:"type"`
	Relation string           `yaml:"relation,omitempty"`
	Help     string           `yaml:"help,omitempty"`
	Required bool             `yaml:"required,omitempty"`
	Readonly bool             `yaml:"readonly,omitempty"`
}

// LoadFile loads and parses a YAML catalog from the given path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a Catalog and indexes it.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog

	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	if err := c.index(); err != nil {
		return nil, err
	}

	return &c, nil
}

// New builds a catalog from in-memory models.
func New(models ...Model) (*Catalog, error) {
	c := &Catalog{Models: models}
	if err := c.index(); err != nil {
		return nil, err
	}

	return c, nil
}

// Marshal serializes a Catalog to YAML.
func Marshal(c *Catalog) ([]byte, error) {
	return yaml.Marshal(c)
}

// index applies defaults and rejects duplicate model or field names.
func (c *Catalog) index() error {
	c.byName = make(map[string]*Model, len(c.Models))

	for i := range c.Models {
		m := &c.Models[i]
		if m.Name == "" {
			return fmt.Errorf("catalog model #%d has no name", i)
		}

		if _, dup := c.byName[m.Name]; dup {
			return fmt.Errorf("duplicate model %q", m.Name)
		}

		m.byName = make(map[string]*Field, len(m.Fields))

		for j := range m.Fields {
			f := &m.Fields[j]
			if f.Name == "" {
				return fmt.Errorf("model %q: field #%d has no name", m.Name, j)
			}

			if _, dup := m.byName[f.Name]; dup {
				return fmt.Errorf("model %q: duplicate field %q", m.Name, f.Name)
			}

			if f.Label == "" {
				f.Label = f.Name
			}

			m.byName[f.Name] = f
		}

		c.byName[m.Name] = m
	}

	return nil
}

// Model returns the named model.
func (c *Catalog) Model(name string) (*Model, bool) {
	m, ok := c.byName[name]
	return m, ok
}

// ModelNames lists models in declaration order.
func (c *Catalog) ModelNames() []string {
	names := make([]string, 0, len(c.Models))
	for _, m := range c.Models {
		names = append(names, m.Name)
	}

	return names
}

// Field returns the named field of m.
func (m *Model) Field(name string) (*Field, bool) {
	f, ok := m.byName[name]
	return f, ok
}
