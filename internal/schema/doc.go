// Package schema defines the field descriptors produced by schema
// introspection and the collaborator interfaces the binding core consumes.
//
// Key types:
//   - FieldDescriptor: one dotted field path with its type, label and help
//   - FieldType: the closed set of field kinds (scalar, relational, selection)
//   - Introspector: model name → flat descriptor list
//   - FieldValidator: remote validation of a single field path
package schema
