// Package binding tracks the placeholders bound to a report template.
//
// A Tracker loads one template at a time, seeds its placeholder set from
// the saved mapping, merges in the placeholders found in the document, and
// lets the caller add, remove and validate field paths before saving the
// mapping back. Document placeholders are only ever added to the set:
// a path that disappears from the document stays tracked until removed.
//
// State machine:
//
//	unloaded -> loading -> ready <-> dirty -> saving -> ready | dirty
package binding
