// Package catalog serves schema introspection from a YAML model catalog.
//
// A Catalog lists business models and their fields. It implements
// schema.Introspector (flat, depth-bounded field listing where only
// many2one relations are expanded) and schema.FieldValidator (segment by
// segment path validation against the model definitions).
package catalog
