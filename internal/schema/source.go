package schema

import "context"

// DefaultMaxDepth bounds relation traversal during introspection.
const DefaultMaxDepth = 2

// Introspector returns the flat field list reachable from a model.
// Depth limiting is the introspector's contract; the tree builder does not
// enforce it.
type Introspector interface {
	ModelFields(ctx context.Context, model string, includeRelated bool, maxDepth int) (ModelFields, error)
}

// FieldValidator checks a single field path against a model. It is the
// remote counterpart of validating against a locally built forest.
type FieldValidator interface {
	ValidateField(ctx context.Context, model, path string) (FieldCheck, error)
}

// IntrospectorFunc adapts a function to Introspector.
type IntrospectorFunc func(ctx context.Context, model string, includeRelated bool, maxDepth int) (ModelFields, error)

// ModelFields calls f.
func (f IntrospectorFunc) ModelFields(ctx context.Context, model string, includeRelated bool, maxDepth int) (ModelFields, error) {
	return f(ctx, model, includeRelated, maxDepth)
}
