package binding

import (
	"context"
	"fmt"

	"docbind/internal/diagnostic"
	"docbind/internal/notify"
	"docbind/internal/schema"
)

// Diagnostic codes reported by ValidateAll.
const (
	CodeFieldNotFound     = "field_not_found"
	CodeDepthExceeded     = "depth_exceeded"
	CodeNotRelational     = "not_relational"
	CodeNoTargetModel     = "no_target_model"
	CodeMalformedPath     = "malformed_path"
	CodeUnknownModel      = "unknown_model"
	CodeNotInDocument     = "placeholder_not_in_document"
	CodeSchemaUnavailable = "schema_unavailable"
	CodeNotExpanded       = "relation_not_expanded"
)

var reasonCodes = map[schema.Reason]string{
	schema.ReasonNotFound:      CodeFieldNotFound,
	schema.ReasonDepthExceeded: CodeDepthExceeded,
	schema.ReasonNotRelational: CodeNotRelational,
	schema.ReasonNoTarget:      CodeNoTargetModel,
	schema.ReasonMalformed:     CodeMalformedPath,
	schema.ReasonUnknownModel:  CodeUnknownModel,
	schema.ReasonNotExpanded:   CodeNotExpanded,
}

// CodeFor maps a validation reason to its diagnostic code.
func CodeFor(r schema.Reason) string {
	if code, ok := reasonCodes[r]; ok {
		return code
	}

	return CodeFieldNotFound
}

// Validate checks path against the model's forest, or the remote validator
// when no forest is loaded. A path crossing a relation the forest does not
// expand is also asked of the remote validator when one is configured.
// The placeholder set is never changed; only the cached validity of a
// tracked path is updated.
func (t *Tracker) Validate(ctx context.Context, path string) (Placeholder, error) {
	t.mu.RLock()
	forest, model, gen, loaded := t.forest, t.model, t.gen, t.state.Loaded()
	t.mu.RUnlock()

	if !loaded {
		return Placeholder{Path: path}, ErrNotLoaded
	}

	var check schema.FieldCheck

	switch {
	case forest != nil:
		check = forest.Check(path, t.depthBound())
	case t.opts.Validator == nil:
		return Placeholder{Path: path}, fmt.Errorf("%w: no fields loaded for model %s", schema.ErrSchemaUnavailable, model)
	}

	if forest == nil || (check.Reason == schema.ReasonNotExpanded && t.opts.Validator != nil) {
		var err error

		check, err = t.opts.Validator.ValidateField(ctx, model, path)
		if err != nil {
			if schema.Kind(err) == nil {
				err = fmt.Errorf("%w: %w", schema.ErrSchemaUnavailable, err)
			}

			return Placeholder{Path: path}, fmt.Errorf("failed to validate %s: %w", path, err)
		}
	}

	if !check.Success {
		return Placeholder{Path: path}, fmt.Errorf("failed to validate %s: %w: %s", path, schema.ErrSchemaUnavailable, check.Error)
	}

	result := Placeholder{Path: path, Validity: Valid}
	if !check.Valid {
		result.Validity = Invalid
		result.Reason = check.Reason
		result.Message = check.Error
		result.Suggestions = check.Suggestions

		if result.Reason == schema.ReasonNone {
			result.Reason = schema.ReasonNotFound
		}
	}

	t.mu.Lock()
	if t.gen == gen {
		if p, ok := t.index[path]; ok {
			p.apply(result)
		}
	}
	t.mu.Unlock()

	return result, nil
}

// ValidateAll validates every tracked placeholder and reports invalid ones
// as errors and placeholders missing from the document as warnings.
func (t *Tracker) ValidateAll(ctx context.Context) (diagnostic.Diagnostics, error) {
	var diags diagnostic.Diagnostics

	t.mu.RLock()
	paths, model, loaded := t.pathsLocked(), t.model, t.state.Loaded()
	t.mu.RUnlock()

	if !loaded {
		return diags, ErrNotLoaded
	}

	for _, path := range paths {
		r, err := t.Validate(ctx, path)
		if err != nil {
			diags.AddError(CodeSchemaUnavailable, err.Error(), model, path)
			t.notify(ctx, notify.LevelDanger, "Error validating field", err)

			return diags, err
		}

		if r.Validity == Invalid {
			diags.AddError(CodeFor(r.Reason), r.Message, model, path, r.Suggestions...)
		}
	}

	for _, path := range t.Stale() {
		diags.AddWarning(CodeNotInDocument,
			fmt.Sprintf("placeholder %s is tracked but not present in the document", path), model, path)
	}

	return diags, nil
}
