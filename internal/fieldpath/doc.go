// Package fieldpath implements the dotted field path grammar and the
// double-brace placeholder syntax embedded in document templates.
//
// # Path Syntax
//
// Field paths support:
//   - Simple fields: "name"
//   - Relational traversal: "partner_id.email"
//   - Multi-level traversal: "partner_id.country_id.name"
//
// # Placeholders
//
// A placeholder is a field path wrapped in double braces, e.g.
// "{{partner_id.email}}". Extract discovers placeholders in text, dropping
// loop markers ("{{#order_line}}", "{{/order_line}}") and formatter suffixes.
package fieldpath
