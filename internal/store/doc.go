// Package store persists report templates: their DOCX payload, filename,
// bound model, the JSON mapping blob holding the placeholder set and the
// per-placeholder field mappings kept beside it.
//
// SQLite is the durable implementation; Memory serves tests and dry runs.
package store
