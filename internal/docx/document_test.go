package docx

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func build(t *testing.T, b *Builder) []byte {
	t.Helper()

	data, err := b.Bytes()
	require.NoError(t, err)

	return data
}

// rawPackage zips the given parts verbatim.
func rawPackage(t *testing.T, parts map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)
	for name, body := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())

	return buf.Bytes()
}

const wNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func TestOpen_Placeholders(t *testing.T) {
	data := build(t, NewBuilder().
		Paragraph("Order {{name}} for {{partner_id.name}}").
		Paragraph("Dated {{date_order|date:'%d/%m/%Y'}}").
		Paragraph("Again {{name}}"))

	doc, err := Open(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "partner_id.name", "date_order"}, doc.Placeholders())
}

func TestOpen_SplitRuns(t *testing.T) {
	data := build(t, NewBuilder().Paragraph("Customer: {{par", "tner_id.", "email}}"))

	doc, err := Open(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"partner_id.email"}, doc.Placeholders())
	assert.Equal(t, "Customer: {{partner_id.email}}", doc.Paragraphs[0].Text)
}

func TestOpen_TablesAndLoops(t *testing.T) {
	data := build(t, NewBuilder().
		Paragraph("Lines").
		Table(
			[]string{"Product", "Price"},
			[]string{"{{#order_line}}{{product_id.name}}", "{{price_unit}}{{/order_line}}"},
		).
		Table([]string{"Total", "{{amount_total}}"}))

	doc, err := Open(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"product_id.name", "price_unit", "amount_total"}, doc.Placeholders())
	assert.Equal(t, []string{"order_line"}, doc.LoopFields())

	s := doc.Structure()
	assert.Equal(t, 1, s.ParagraphCount, "table paragraphs are not body paragraphs")
	assert.Equal(t, 2, s.TableCount)
	assert.Equal(t, 1, s.SectionCount)
	require.Len(t, s.Tables, 2)

	assert.Equal(t, Table{Index: 0, Rows: 2, Cols: 2, HasLoop: true}, s.Tables[0])
	assert.Equal(t, Table{Index: 1, Rows: 1, Cols: 2, HasLoop: false}, s.Tables[1])
}

func TestOpen_HeadersAndFooters(t *testing.T) {
	data := rawPackage(t, map[string]string{
		mainPart:           `<w:document ` + wNS + `><w:body><w:p><w:r><w:t>{{name}}</w:t></w:r></w:p></w:body></w:document>`,
		"word/header1.xml": `<w:hdr ` + wNS + `><w:p><w:r><w:t>{{company_id.name}}</w:t></w:r></w:p></w:hdr>`,
		"word/footer1.xml": `<w:ftr ` + wNS + `><w:p><w:r><w:t>Page {{name}}</w:t></w:r></w:p></w:ftr>`,
		"word/styles.xml":  `<w:styles ` + wNS + `><w:p><w:r><w:t>{{ignored}}</w:t></w:r></w:p></w:styles>`,
	})

	doc, err := Open(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "company_id.name"}, doc.Placeholders())
	assert.Equal(t, 1, doc.Structure().ParagraphCount)
}

func TestOpen_TabStopsAreNotText(t *testing.T) {
	data := rawPackage(t, map[string]string{
		mainPart: `<w:document ` + wNS + `><w:body><w:p>` +
			`<w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr>` +
			`<w:r><w:t>a</w:t><w:tab/><w:t>b</w:t></w:r></w:p></w:body></w:document>`,
	})

	doc, err := Open(data)
	require.NoError(t, err)
	require.Len(t, doc.Paragraphs, 1)
	assert.Equal(t, "a\tb", doc.Paragraphs[0].Text)
}

func TestOpen_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "not a zip", data: []byte("%PDF-1.7")},
		{name: "empty", data: nil},
		{name: "missing main part", data: rawPackage(t, map[string]string{"word/other.xml": "<x/>"})},
		{name: "broken xml", data: rawPackage(t, map[string]string{mainPart: "<w:document><w:body>"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})
	}
}

func TestBuilder_EscapesText(t *testing.T) {
	data := build(t, NewBuilder().Paragraph(`Tom & "Jerry" <{{name}}>`))

	doc, err := Open(data)
	require.NoError(t, err)
	assert.Equal(t, `Tom & "Jerry" <{{name}}>`, doc.Text())
}

func TestHasExtension(t *testing.T) {
	assert.True(t, HasExtension("report.docx"))
	assert.True(t, HasExtension("REPORT.DOCX"))
	assert.False(t, HasExtension("report.pdf"))
	assert.False(t, HasExtension("report"))
	assert.False(t, HasExtension("report.docx.pdf"))
	assert.True(t, HasExtension("report.dotx", ".docx", ".dotx"))
}

func TestDecodePayload(t *testing.T) {
	raw := build(t, NewBuilder().Paragraph("{{name}}"))

	got, err := DecodePayload(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	got, err = DecodePayload([]byte(EncodePayload(raw) + "\n"))
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	_, err = DecodePayload([]byte("not base64!"))
	require.ErrorIs(t, err, ErrInvalidDocument)
}
