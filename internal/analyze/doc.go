// Package analyze loads Go packages and exposes their exported structs as
// document models.
//
// It uses golang.org/x/tools/go/packages with go/types to build a type
// graph, then serves schema.Introspector over it: a struct is a model named
// "<package>.<Type>", its exported fields are model fields named after their
// json tag, and struct-typed fields are relations.
//
// Key types:
//   - TypeID: package import path + type name
//   - TypeInfo: describes kind (struct/basic/alias/pointer/slice/external)
//   - FieldInfo: describes field name, type, tags, and embedding
//   - Introspector: schema.Introspector over a TypeGraph
package analyze
