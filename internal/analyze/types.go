package analyze

import (
	"reflect"
	"strings"

	"docbind/internal/common"
)

// TypeID uniquely identifies a type by its package path and name.
type TypeID struct {
	PkgPath string // e.g., "example.com/shop"
	Name    string // e.g., "Order"
}

// String returns a human-readable representation of the TypeID.
func (t TypeID) String() string {
	if t.PkgPath == "" {
		return t.Name
	}

	return t.PkgPath + "." + t.Name
}

// TypeKind represents the kind of a type.
type TypeKind int

const (
	TypeKindUnknown  TypeKind = iota
	TypeKindBasic             // int, string, bool, etc.
	TypeKindStruct            // struct type
	TypeKindPointer           // pointer to another type
	TypeKindSlice             // slice or array of another type
	TypeKindAlias             // named type wrapping another
	TypeKindExternal          // opaque type from an unloaded package (e.g., time.Time)
)

var typeKindNames = [...]string{
	TypeKindUnknown:  common.UnknownStr,
	TypeKindBasic:    "basic",
	TypeKindStruct:   "struct",
	TypeKindPointer:  "pointer",
	TypeKindSlice:    "slice",
	TypeKindAlias:    "alias",
	TypeKindExternal: "external",
}

// String returns a human-readable representation of the TypeKind.
func (k TypeKind) String() string {
	if k < 0 || int(k) >= len(typeKindNames) {
		return common.UnknownStr
	}

	return typeKindNames[k]
}

// TypeInfo describes a Go type in the type graph.
type TypeInfo struct {
	ID         TypeID      // Unique identifier (empty for unnamed types like *T or []T)
	Kind       TypeKind    // Kind of type
	Basic      string      // For basic types, the Go name (e.g., "int64")
	Underlying *TypeInfo   // For named types, the underlying type
	ElemType   *TypeInfo   // For pointers and slices, the element type
	Fields     []FieldInfo // For structs, the list of exported fields
}

// IsNamed returns true if this type has a name (TypeID is set).
func (t *TypeInfo) IsNamed() bool {
	return t.ID.Name != ""
}

// Deref follows pointers and aliases down to the concrete type.
func (t *TypeInfo) Deref() *TypeInfo {
	for t != nil {
		switch {
		case t.Kind == TypeKindPointer && t.ElemType != nil:
			t = t.ElemType
		case t.Kind == TypeKindAlias && t.Underlying != nil:
			t = t.Underlying
		default:
			return t
		}
	}

	return nil
}

// FieldInfo describes a struct field.
type FieldInfo struct {
	Name     string            // Go field name
	Type     *TypeInfo         // Field type
	Tag      reflect.StructTag // Raw struct tag
	Embedded bool              // Whether the field is embedded (anonymous)
	Index    int               // Field index in the struct
}

// JSONName returns the JSON tag name if present, otherwise the field name.
func (f *FieldInfo) JSONName() string {
	if tag := f.Tag.Get("json"); tag != "" && tag != "-" {
		if name, _, _ := strings.Cut(tag, ","); name != "" {
			return name
		}
	}

	return f.Name
}

// Skipped reports whether the field is excluded from JSON.
func (f *FieldInfo) Skipped() bool {
	return f.Tag.Get("json") == "-"
}

// Label returns the label tag, falling back to the Go field name.
func (f *FieldInfo) Label() string {
	if label := f.Tag.Get("label"); label != "" {
		return label
	}

	return f.Name
}

// Required reports whether a validate tag marks the field required.
func (f *FieldInfo) Required() bool {
	for _, rule := range strings.Split(f.Tag.Get("validate"), ",") {
		if rule == "required" {
			return true
		}
	}

	return false
}

// TypeGraph holds all analyzed types from loaded packages.
type TypeGraph struct {
	// Types maps TypeID to TypeInfo for all named types.
	Types map[TypeID]*TypeInfo
	// Packages maps package paths to their package info.
	Packages map[string]*PackageInfo
}

// NewTypeGraph creates a new empty TypeGraph.
func NewTypeGraph() *TypeGraph {
	return &TypeGraph{
		Types:    make(map[TypeID]*TypeInfo),
		Packages: make(map[string]*PackageInfo),
	}
}

// GetType returns the TypeInfo for a given TypeID, or nil if not found.
func (g *TypeGraph) GetType(id TypeID) *TypeInfo {
	return g.Types[id]
}

// PackageInfo holds information about a loaded package.
type PackageInfo struct {
	Path  string   // Import path
	Name  string   // Package name
	Types []TypeID // Named types defined in this package
}
