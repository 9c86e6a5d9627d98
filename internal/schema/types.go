package schema

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldType is the kind of a model field.
type FieldType int

const (
	TypeUnknown   FieldType = iota
	TypeChar                // single-line text
	TypeText                // multiline text
	TypeInteger             // integer
	TypeFloat               // decimal
	TypeBoolean             // boolean
	TypeDate                // date
	TypeDatetime            // date and time
	TypeBinary              // binary / image
	TypeMonetary            // monetary amount
	TypeHTML                // rich text
	TypeMany2one            // single reference to another model
	TypeOne2many            // list of records of another model
	TypeMany2many           // many-to-many reference
	TypeSelection           // enumerated choice

	// TypeTotal is the number of field types defined.
	TypeTotal = int(iota)
)

var fieldTypeNames = [...]string{
	TypeUnknown:   "unknown",
	TypeChar:      "char",
	TypeText:      "text",
	TypeInteger:   "integer",
	TypeFloat:     "float",
	TypeBoolean:   "boolean",
	TypeDate:      "date",
	TypeDatetime:  "datetime",
	TypeBinary:    "binary",
	TypeMonetary:  "monetary",
	TypeHTML:      "html",
	TypeMany2one:  "many2one",
	TypeOne2many:  "one2many",
	TypeMany2many: "many2many",
	TypeSelection: "selection",
}

var fieldTypeLabels = [...]string{
	TypeUnknown:   "Unknown",
	TypeChar:      "Text",
	TypeText:      "Multiline Text",
	TypeInteger:   "Integer",
	TypeFloat:     "Decimal",
	TypeBoolean:   "Boolean",
	TypeDate:      "Date",
	TypeDatetime:  "DateTime",
	TypeBinary:    "Binary/Image",
	TypeMonetary:  "Monetary",
	TypeHTML:      "HTML",
	TypeMany2one:  "Many2One",
	TypeOne2many:  "One2Many",
	TypeMany2many: "Many2Many",
	TypeSelection: "Selection",
}

// String returns the wire name used by schema introspection.
func (t FieldType) String() string {
	if t < 0 || int(t) >= TypeTotal {
		return fieldTypeNames[TypeUnknown]
	}

	return fieldTypeNames[t]
}

// Label returns a human-readable name for the type.
func (t FieldType) Label() string {
	if t < 0 || int(t) >= TypeTotal {
		return fieldTypeLabels[TypeUnknown]
	}

	return fieldTypeLabels[t]
}

// IsRelational reports whether a path may traverse through this field.
func (t FieldType) IsRelational() bool {
	switch t {
	case TypeMany2one, TypeOne2many, TypeMany2many:
		return true
	default:
		return false
	}
}

// IsScalar reports whether the field holds a plain value.
func (t FieldType) IsScalar() bool {
	return t != TypeUnknown && !t.IsRelational()
}

// ParseFieldType resolves a wire name. Unknown names yield TypeUnknown and false.
func ParseFieldType(s string) (FieldType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range fieldTypeNames {
		if name == s {
			return FieldType(i), i != int(TypeUnknown)
		}
	}

	return TypeUnknown, false
}

// AllFieldTypes lists every known type, excluding TypeUnknown.
func AllFieldTypes() []FieldType {
	out := make([]FieldType, 0, TypeTotal-1)
	for i := 1; i < TypeTotal; i++ {
		out = append(out, FieldType(i))
	}

	return out
}

// MarshalText implements encoding.TextMarshaler.
func (t FieldType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown names decode
// to TypeUnknown rather than failing so new backend types never break loading.
func (t *FieldType) UnmarshalText(b []byte) error {
	*t, _ = ParseFieldType(string(b))
	return nil
}

// UnmarshalYAML implements custom YAML unmarshaling for FieldType.
func (t *FieldType) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("field type: expected scalar, got %v", node.Kind)
	}

	*t, _ = ParseFieldType(node.Value)

	return nil
}

// MarshalYAML implements custom YAML marshaling for FieldType.
func (t FieldType) MarshalYAML() (any, error) {
	return t.String(), nil
}

// FieldDescriptor describes one field reachable from a model, as returned by
// schema introspection. Path is unique within one introspection result.
type FieldDescriptor struct {
	Path     string    `json:"path" yaml:"path"`
	Name     string    `json:"name" yaml:"name"`
	Label    string    `json:"string" yaml:"label"`
	Type     FieldType `json:"type" yaml:"type"`
	Help     string    `json:"help,omitempty" yaml:"help,omitempty"`
	Model    string    `json:"model,omitempty" yaml:"model,omitempty"`
	Relation string    `json:"relation,omitempty" yaml:"relation,omitempty"`
	Required bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Readonly bool      `json:"readonly,omitempty" yaml:"readonly,omitempty"`
}

// ModelFields is the result of an introspection call.
type ModelFields struct {
	Success bool              `json:"success"`
	Fields  []FieldDescriptor `json:"fields,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// FieldLink is one hop of a validated field path.
type FieldLink struct {
	Name  string    `json:"name"`
	Type  FieldType `json:"type"`
	Label string    `json:"string"`
	Model string    `json:"model"`
}

// FieldCheck is the answer of a field validator.
type FieldCheck struct {
	Success bool        `json:"success"`
	Valid   bool        `json:"valid"`
	Error   string      `json:"error,omitempty"`
	Reason  Reason      `json:"reason,omitempty"`
	Chain   []FieldLink `json:"field_chain,omitempty"`
	// Suggestions are known paths close to an unresolved one.
	Suggestions []string `json:"suggestions,omitempty"`
}

// FinalType returns the type of the last hop, or TypeUnknown.
func (c FieldCheck) FinalType() FieldType {
	if len(c.Chain) == 0 {
		return TypeUnknown
	}

	return c.Chain[len(c.Chain)-1].Type
}

// Reason explains why a field path did not validate.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonNotFound      Reason = "not-found"
	ReasonDepthExceeded Reason = "depth-exceeded"
	ReasonNotRelational Reason = "not-relational"
	ReasonNoTarget      Reason = "no-target-model"
	ReasonMalformed     Reason = "malformed"
	ReasonUnknownModel  Reason = "unknown-model"
	// ReasonNotExpanded means the path crosses a relation whose target
	// fields are absent from the local forest. The path may still exist.
	ReasonNotExpanded Reason = "not-expanded"
)
