// Package match provides name normalization, Levenshtein distance and
// candidate ranking used to suggest known field names when a placeholder
// refers to a field that does not exist.
//
// Key functions:
//   - NormalizeIdent: folds snake_case / CamelCase identifiers
//   - Levenshtein: rune-wise edit distance
//   - Rank / Suggest: "did you mean" candidates for an unknown field name
package match
