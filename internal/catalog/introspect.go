package catalog

import (
	"context"
	"fmt"
	"strings"

	"docbind/internal/fieldpath"
	"docbind/internal/schema"
)

// hiddenFields are bookkeeping columns never offered for placeholders.
var hiddenFields = map[string]bool{
	"id":         true,
	"create_uid": true,
	"write_uid":  true,
}

// ModelFields implements schema.Introspector.
//
// Fields are emitted depth-first in declaration order: each field is
// followed by the fields of its related model when it is a many2one and the
// remaining depth allows. includeRelated=false is depth 0.
func (c *Catalog) ModelFields(ctx context.Context, model string, includeRelated bool, maxDepth int) (schema.ModelFields, error) {
	if err := ctx.Err(); err != nil {
		return schema.ModelFields{Error: err.Error()}, fmt.Errorf("%w: %w", schema.ErrSchemaUnavailable, err)
	}

	m, ok := c.Model(model)
	if !ok {
		msg := fmt.Sprintf("model %q does not exist", model)
		return schema.ModelFields{Error: msg}, fmt.Errorf("%w: %s", schema.ErrNotFound, msg)
	}

	if !includeRelated {
		maxDepth = 0
	}

	var fields []schema.FieldDescriptor
	c.collect(m, nil, max(maxDepth, 0), &fields)

	return schema.ModelFields{Success: true, Fields: fields}, nil
}

func (c *Catalog) collect(m *Model, prefix []string, remaining int, out *[]schema.FieldDescriptor) {
	for i := range m.Fields {
		f := &m.Fields[i]
		if strings.HasPrefix(f.Name, "_") || hiddenFields[f.Name] {
			continue
		}

		segments := append(append([]string{}, prefix...), f.Name)

		*out = append(*out, schema.FieldDescriptor{
			Path:     strings.Join(segments, fieldpath.Separator),
			Name:     f.Name,
			Label:    f.Label,
			Type:     f.Type,
			Help:     f.Help,
			Model:    m.Name,
			Relation: f.Relation,
			Required: f.Required,
			Readonly: f.Readonly,
		})

		if remaining <= 0 || f.Type != schema.TypeMany2one {
			continue
		}

		// A relation to a model missing from the catalog is listed but not expanded.
		if related, ok := c.Model(f.Relation); ok {
			c.collect(related, segments, remaining-1, out)
		}
	}
}

// ValidateField implements schema.FieldValidator by walking the model
// definitions directly, without a depth bound.
func (c *Catalog) ValidateField(ctx context.Context, model, path string) (schema.FieldCheck, error) {
	if err := ctx.Err(); err != nil {
		return schema.FieldCheck{Error: err.Error()}, fmt.Errorf("%w: %w", schema.ErrSchemaUnavailable, err)
	}

	current, ok := c.Model(model)
	if !ok {
		return schema.FieldCheck{
			Success: true,
			Reason:  schema.ReasonUnknownModel,
			Error:   fmt.Sprintf("model %q does not exist", model),
		}, nil
	}

	p, err := fieldpath.Parse(path)
	if err != nil {
		return schema.FieldCheck{Success: true, Reason: schema.ReasonMalformed, Error: err.Error()}, nil
	}

	check := schema.FieldCheck{Success: true}

	for i, segment := range p.Segments {
		f, ok := current.Field(segment)
		if !ok {
			check.Reason = schema.ReasonNotFound
			check.Error = fmt.Sprintf("field %q does not exist on model %q", segment, current.Name)

			return check, nil
		}

		check.Chain = append(check.Chain, schema.FieldLink{
			Name:  f.Name,
			Type:  f.Type,
			Label: f.Label,
			Model: current.Name,
		})

		if i == len(p.Segments)-1 {
			break
		}

		if !f.Type.IsRelational() {
			check.Reason = schema.ReasonNotRelational
			check.Error = fmt.Sprintf("cannot traverse field %q: it is not a relational field", f.Name)

			return check, nil
		}

		next, ok := c.Model(f.Relation)
		if !ok {
			check.Reason = schema.ReasonNoTarget
			check.Error = fmt.Sprintf("relational field %q has no target model", f.Name)

			return check, nil
		}

		current = next
	}

	check.Valid = true

	return check, nil
}
