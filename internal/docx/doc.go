// Package docx reads the text of DOCX report templates and finds the
// {{field.path}} placeholders in them.
//
// Paragraph text is the concatenation of its runs, so placeholders split
// across runs by a word processor are still found. Header and footer parts
// are scanned alongside the main document. Builder writes minimal packages
// for scaffolding new templates.
package docx
