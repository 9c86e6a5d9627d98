package analyze

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"docbind/internal/fieldpath"
	"docbind/internal/schema"
)

// basicTypes maps Go basic type names to field types.
var basicTypes = map[string]schema.FieldType{
	"string":  schema.TypeChar,
	"bool":    schema.TypeBoolean,
	"int":     schema.TypeInteger,
	"int8":    schema.TypeInteger,
	"int16":   schema.TypeInteger,
	"int32":   schema.TypeInteger,
	"int64":   schema.TypeInteger,
	"uint":    schema.TypeInteger,
	"uint8":   schema.TypeInteger,
	"uint16":  schema.TypeInteger,
	"uint32":  schema.TypeInteger,
	"uint64":  schema.TypeInteger,
	"float32": schema.TypeFloat,
	"float64": schema.TypeFloat,
}

// externalTypes maps well-known opaque types to field types.
var externalTypes = map[TypeID]schema.FieldType{
	{PkgPath: "time", Name: "Time"}:     schema.TypeDatetime,
	{PkgPath: "time", Name: "Duration"}: schema.TypeInteger,
}

// Introspector serves schema.Introspector from a TypeGraph.
type Introspector struct {
	graph  *TypeGraph
	models map[string]TypeID
	names  []string
}

// NewIntrospector indexes the structs of g by model name.
func NewIntrospector(g *TypeGraph) *Introspector {
	in := &Introspector{graph: g, models: make(map[string]TypeID)}

	paths := make([]string, 0, len(g.Packages))
	for p := range g.Packages {
		paths = append(paths, p)
	}

	slices.Sort(paths)

	for _, p := range paths {
		pkg := g.Packages[p]
		for _, id := range pkg.Types {
			info := g.GetType(id)
			if info == nil || info.Kind != TypeKindStruct {
				continue
			}

			name := pkg.Name + "." + id.Name
			if _, taken := in.models[name]; taken {
				// Same package name under two paths: the full path stays addressable.
				name = id.String()
			}

			in.models[name] = id
			in.names = append(in.names, name)
		}
	}

	return in
}

// Load builds an Introspector from Go package patterns.
func Load(ctx context.Context, patterns ...string) (*Introspector, error) {
	g, err := NewAnalyzer().LoadPackages(ctx, patterns...)
	if err != nil {
		return nil, err
	}

	return NewIntrospector(g), nil
}

// ModelNames lists struct models sorted by package path then type name.
func (in *Introspector) ModelNames() []string {
	return slices.Clone(in.names)
}

// ModelFields implements schema.Introspector.
//
// Struct and pointer-to-struct fields are many2one and are expanded while
// depth remains; slices of structs are one2many and never expanded.
// Embedded structs contribute their fields at the embedding level.
func (in *Introspector) ModelFields(ctx context.Context, model string, includeRelated bool, maxDepth int) (schema.ModelFields, error) {
	if err := ctx.Err(); err != nil {
		return schema.ModelFields{Error: err.Error()}, fmt.Errorf("%w: %w", schema.ErrSchemaUnavailable, err)
	}

	info := in.model(model)
	if info == nil {
		msg := fmt.Sprintf("model %q does not exist", model)
		return schema.ModelFields{Error: msg}, fmt.Errorf("%w: %s", schema.ErrNotFound, msg)
	}

	if !includeRelated {
		maxDepth = 0
	}

	var fields []schema.FieldDescriptor
	in.collect(model, info, nil, max(maxDepth, 0), &fields)

	return schema.ModelFields{Success: true, Fields: fields}, nil
}

func (in *Introspector) model(name string) *TypeInfo {
	id, ok := in.models[name]
	if !ok {
		return nil
	}

	return in.graph.GetType(id)
}

// modelName returns the model name of a struct type, or "" when it is not a
// loaded model.
func (in *Introspector) modelName(t *TypeInfo) string {
	if t == nil || !t.IsNamed() {
		return ""
	}

	for name, id := range in.models {
		if id == t.ID {
			return name
		}
	}

	return ""
}

func (in *Introspector) collect(model string, st *TypeInfo, prefix []string, remaining int, out *[]schema.FieldDescriptor) {
	for i := range st.Fields {
		f := &st.Fields[i]
		if f.Skipped() {
			continue
		}

		if f.Embedded && f.Tag.Get("json") == "" {
			if inner := f.Type.Deref(); inner != nil && inner.Kind == TypeKindStruct {
				in.collect(model, inner, prefix, remaining, out)
				continue
			}
		}

		ft, target := in.classify(f.Type)
		segments := append(slices.Clone(prefix), f.JSONName())
		path := strings.Join(segments, fieldpath.Separator)

		if _, err := fieldpath.Parse(path); err != nil {
			// json names such as "order-id" cannot be addressed by a placeholder.
			continue
		}

		*out = append(*out, schema.FieldDescriptor{
			Path:     path,
			Name:     f.JSONName(),
			Label:    f.Label(),
			Type:     ft,
			Model:    model,
			Relation: in.modelName(target),
			Required: f.Required(),
		})

		if remaining <= 0 || ft != schema.TypeMany2one || target == nil {
			continue
		}

		in.collect(in.modelName(target), target, segments, remaining-1, out)
	}
}

// classify maps a Go type to a field type. For relational types it also
// returns the target struct.
func (in *Introspector) classify(t *TypeInfo) (schema.FieldType, *TypeInfo) {
	if t == nil {
		return schema.TypeUnknown, nil
	}

	if t.Kind == TypeKindExternal {
		return externalTypes[t.ID], nil
	}

	if t.Kind == TypeKindSlice {
		elem := t.ElemType.Deref()
		switch {
		case elem == nil:
			return schema.TypeUnknown, nil
		case elem.Kind == TypeKindStruct:
			return schema.TypeOne2many, elem
		case elem.Kind == TypeKindBasic && (elem.Basic == "byte" || elem.Basic == "uint8"):
			return schema.TypeBinary, nil
		}

		return schema.TypeUnknown, nil
	}

	if t.Kind == TypeKindPointer {
		return in.classify(t.ElemType)
	}

	if t.Kind == TypeKindAlias {
		if t.ID == (TypeID{}) || t.Underlying == nil {
			return in.classify(t.Underlying)
		}

		if t.Underlying.Kind == TypeKindBasic && t.Underlying.Basic == "string" {
			// Named string types are enumerations by convention.
			return schema.TypeSelection, nil
		}

		return in.classify(t.Underlying)
	}

	switch t.Kind {
	case TypeKindBasic:
		return basicTypes[t.Basic], nil
	case TypeKindStruct:
		return schema.TypeMany2one, t
	default:
		return schema.TypeUnknown, nil
	}
}
