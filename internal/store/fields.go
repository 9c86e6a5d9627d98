package store

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"docbind/internal/fieldpath"
	"docbind/internal/schema"
)

// DefaultSequence is the sequence given to new field mappings.
const DefaultSequence = 10

// FieldMeta is how one placeholder is rendered into a report.
type FieldMeta struct {
	// FieldName is the display name of the field.
	FieldName string           `json:"field_name" yaml:"field_name" validate:"required"`
	FieldType schema.FieldType `json:"field_type,omitempty" yaml:"field_type,omitempty"`
	// FormatString is a custom value format, such as %Y-%m-%d for dates.
	FormatString string `json:"format_string,omitempty" yaml:"format_string,omitempty" validate:"max=128"`
	// DefaultValue replaces an empty value.
	DefaultValue string `json:"default_value,omitempty" yaml:"default_value,omitempty"`
	// Required reports an error when the value is empty.
	Required    bool   `json:"is_required,omitempty" yaml:"is_required,omitempty"`
	Sequence    int    `json:"sequence" yaml:"sequence" validate:"gte=0"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (m FieldMeta) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%w: invalid field mapping: %w", schema.ErrValidation, err)
	}

	return nil
}

// NewFieldMeta returns the metadata of a newly discovered placeholder: the
// last path segment as its name and the default sequence.
func NewFieldMeta(path string) FieldMeta {
	name := path
	if i := strings.LastIndex(path, fieldpath.Separator); i >= 0 {
		name = path[i+1:]
	}

	return FieldMeta{FieldName: name, Sequence: DefaultSequence}
}

// FieldMapping is the metadata of the placeholder at Path. Mappings are
// stored beside the mapping blob, one row per placeholder.
type FieldMapping struct {
	Path      string `json:"field_path" yaml:"field_path"`
	FieldMeta `yaml:",inline"`
}

// SortMappings orders mappings by sequence, then field name, then path.
func SortMappings(m []FieldMapping) {
	slices.SortStableFunc(m, func(a, b FieldMapping) int {
		if a.Sequence != b.Sequence {
			return a.Sequence - b.Sequence
		}

		if c := strings.Compare(a.FieldName, b.FieldName); c != 0 {
			return c
		}

		return strings.Compare(a.Path, b.Path)
	})
}
