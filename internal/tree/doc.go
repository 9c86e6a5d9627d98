// Package tree turns a flat list of dotted field descriptors into a
// navigable forest and answers search and lookup queries over it.
//
// Build is a two-pass transform: nodes are created first, then attached to
// their parents in input order. Filter is pure and returns copies, so the
// canonical forest can be searched repeatedly. Lookup goes through a flat
// path index and never walks the forest.
package tree
