package binding

import (
	"docbind/internal/common"
	"docbind/internal/schema"
	"docbind/internal/store"
)

// State is the lifecycle state of the tracked binding.
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StateDirty
	StateSaving
)

var stateNames = [...]string{
	StateUnloaded: "unloaded",
	StateLoading:  "loading",
	StateReady:    "ready",
	StateDirty:    "dirty",
	StateSaving:   "saving",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return common.UnknownStr
	}

	return stateNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Loaded reports whether a binding is open for editing.
func (s State) Loaded() bool {
	return s == StateReady || s == StateDirty || s == StateSaving
}

// Validity is the cached validation outcome of a placeholder.
type Validity int

const (
	Unvalidated Validity = iota
	Valid
	Invalid
)

var validityNames = [...]string{
	Unvalidated: "unvalidated",
	Valid:       "valid",
	Invalid:     "invalid",
}

func (v Validity) String() string {
	if v < 0 || int(v) >= len(validityNames) {
		return common.UnknownStr
	}

	return validityNames[v]
}

// MarshalText implements encoding.TextMarshaler.
func (v Validity) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Placeholder is one field path bound to the template.
type Placeholder struct {
	Path     string        `json:"path" yaml:"path"`
	Validity Validity      `json:"validity" yaml:"validity"`
	Reason   schema.Reason `json:"reason,omitempty" yaml:"reason,omitempty"`
	// Message explains an invalid result.
	Message     string   `json:"message,omitempty" yaml:"message,omitempty"`
	Suggestions []string `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`

	store.FieldMeta `yaml:",inline"`
}

func (p *Placeholder) clone() Placeholder {
	c := *p
	c.Suggestions = append([]string(nil), p.Suggestions...)

	return c
}

func (p *Placeholder) apply(r Placeholder) {
	p.Validity = r.Validity
	p.Reason = r.Reason
	p.Message = r.Message
	p.Suggestions = append([]string(nil), r.Suggestions...)
}

// Binding is a snapshot of a template and its tracked placeholders.
type Binding struct {
	TemplateID   string        `json:"template_id" yaml:"template_id"`
	Name         string        `json:"name" yaml:"name"`
	ModelName    string        `json:"model_name" yaml:"model_name"`
	Filename     string        `json:"filename,omitempty" yaml:"filename,omitempty"`
	Placeholders []Placeholder `json:"placeholders" yaml:"placeholders"`
	Dirty        bool          `json:"dirty" yaml:"dirty"`
	State        State         `json:"state" yaml:"state"`
}

// Mapping returns the persisted field mapping of p.
func (p Placeholder) Mapping() store.FieldMapping {
	return store.FieldMapping{Path: p.Path, FieldMeta: p.FieldMeta}
}

// Paths returns the placeholder paths in display order.
func (b Binding) Paths() []string {
	out := make([]string, 0, len(b.Placeholders))
	for _, p := range b.Placeholders {
		out = append(out, p.Path)
	}

	return out
}
