package tree

import (
	"fmt"

	"docbind/internal/fieldpath"
	"docbind/internal/match"
	"docbind/internal/schema"
)

// maxSuggestions caps "did you mean" candidates per failed lookup.
const maxSuggestions = 3

// Check resolves path against the forest segment by segment and explains
// why it does not resolve. maxDepth is the relation depth the forest was
// introspected with; a negative value disables depth-limit detection.
//
// A path is valid iff every prefix resolves to a node. When a prefix is
// missing the reason is, in order of precedence: the previous hop is not
// relational, the missing level lies past maxDepth, the previous hop is a
// relation whose target fields were never introspected, or the field does
// not exist. Check never modifies the forest.
func (f *Forest) Check(path string, maxDepth int) schema.FieldCheck {
	p, err := fieldpath.Parse(path)
	if err != nil {
		return schema.FieldCheck{
			Success: true,
			Reason:  schema.ReasonMalformed,
			Error:   err.Error(),
		}
	}

	var (
		chain []schema.FieldLink
		prev  *Node
	)

	for i, segment := range p.Segments {
		n, ok := f.Lookup(p.Prefix(i + 1))
		if ok {
			chain = append(chain, f.link(n))
			prev = n

			continue
		}

		check := schema.FieldCheck{Success: true, Chain: chain}

		switch {
		case prev != nil && !prev.Field.Type.IsRelational():
			check.Reason = schema.ReasonNotRelational
			check.Error = fmt.Sprintf("cannot traverse field %q: it is not a relational field (%s)", prev.Name(), prev.Field.Type)

		case prev != nil && maxDepth >= 0 && i > maxDepth:
			check.Reason = schema.ReasonDepthExceeded
			check.Error = fmt.Sprintf("field path %q traverses %d relation levels, past the introspection limit of %d", path, i, maxDepth)

		case prev != nil && !prev.HasChildren() && prev.Field.Relation == "":
			check.Reason = schema.ReasonNoTarget
			check.Error = fmt.Sprintf("relational field %q has no target model", prev.Name())

		case prev != nil && !prev.HasChildren():
			check.Reason = schema.ReasonNotExpanded
			check.Error = fmt.Sprintf("fields of %q were not introspected through %s field %q",
				prev.Field.Relation, prev.Field.Type, prev.Path())

		default:
			check.Reason = schema.ReasonNotFound
			check.Error = f.notFoundMessage(segment, prev)
			check.Suggestions = f.suggest(segment, prev)
		}

		return check
	}

	return schema.FieldCheck{Success: true, Valid: true, Chain: chain}
}

func (f *Forest) link(n *Node) schema.FieldLink {
	return schema.FieldLink{
		Name:  n.Name(),
		Type:  n.Field.Type,
		Label: n.Label(),
		Model: f.modelOf(n),
	}
}

// modelOf returns the model that declares n.
func (f *Forest) modelOf(n *Node) string {
	if n.Field.Model != "" {
		return n.Field.Model
	}

	if n.Depth == 0 {
		return f.model
	}

	if parent, ok := f.Lookup(n.ParentPath); ok {
		return parent.Field.Relation
	}

	return ""
}

func (f *Forest) notFoundMessage(segment string, prev *Node) string {
	model := f.model
	if prev != nil {
		model = prev.Field.Relation
	}

	if model == "" {
		return fmt.Sprintf("field %q does not exist", segment)
	}

	return fmt.Sprintf("field %q does not exist on model %q", segment, model)
}

func (f *Forest) suggest(segment string, prev *Node) []string {
	siblings := f.roots
	prefix := ""

	if prev != nil {
		siblings = prev.Children
		prefix = prev.Path() + fieldpath.Separator
	}

	names := make([]string, 0, len(siblings))
	for _, s := range siblings {
		names = append(names, s.Name())
	}

	var out []string
	for _, name := range match.Suggest(segment, names, maxSuggestions, match.DefaultThreshold) {
		out = append(out, prefix+name)
	}

	return out
}
