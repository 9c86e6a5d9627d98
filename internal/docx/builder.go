package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

const (
	contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

	rootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

	documentOpen  = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" + `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	documentClose = `<w:sectPr/></w:body></w:document>`
)

// Builder assembles a minimal DOCX package, one block at a time.
type Builder struct {
	body strings.Builder
}

// NewBuilder returns an empty document builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Paragraph appends a paragraph. Each element of runs becomes its own run,
// which allows a placeholder to be split across runs as editors do.
func (b *Builder) Paragraph(runs ...string) *Builder {
	b.body.WriteString(paragraphXML(runs))
	return b
}

// Table appends a table with one row per element of rows.
func (b *Builder) Table(rows ...[]string) *Builder {
	cols := 0
	for _, r := range rows {
		cols = max(cols, len(r))
	}

	b.body.WriteString("<w:tbl><w:tblGrid>")
	b.body.WriteString(strings.Repeat("<w:gridCol/>", cols))
	b.body.WriteString("</w:tblGrid>")

	for _, r := range rows {
		b.body.WriteString("<w:tr>")

		for _, cell := range r {
			b.body.WriteString("<w:tc>")
			b.body.WriteString(paragraphXML([]string{cell}))
			b.body.WriteString("</w:tc>")
		}

		b.body.WriteString("</w:tr>")
	}

	b.body.WriteString("</w:tbl>")

	return b
}

// Bytes returns the zipped package.
func (b *Builder) Bytes() ([]byte, error) {
	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)

	for _, part := range []struct{ name, body string }{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", rootRels},
		{mainPart, documentOpen + b.body.String() + documentClose},
	} {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", part.name, err)
		}

		if _, err := w.Write([]byte(part.body)); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", part.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close docx package: %w", err)
	}

	return buf.Bytes(), nil
}

func paragraphXML(runs []string) string {
	var sb strings.Builder

	sb.WriteString("<w:p>")

	for _, r := range runs {
		sb.WriteString(`<w:r><w:t xml:space="preserve">`)
		_ = xml.EscapeText(&sb, []byte(r))
		sb.WriteString("</w:t></w:r>")
	}

	sb.WriteString("</w:p>")

	return sb.String()
}
