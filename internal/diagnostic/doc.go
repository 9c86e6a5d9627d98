// Package diagnostic provides structured errors, warnings and notes produced
// when a template's placeholders are checked against a model schema.
//
// Key capabilities:
//   - Unknown field reports with "did you mean" suggestions
//   - Depth limit and non-relational traversal errors
//   - Warnings for placeholders tracked but absent from the document
package diagnostic
