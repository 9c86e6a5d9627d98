package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docbind/internal/docx"
	"docbind/internal/schema"
	"docbind/internal/store"
)

const testCatalog = `
models:
  - name: sale.order
    fields:
      - {name: name, label: Order Reference, type: char}
      - {name: partner_id, label: Customer, type: many2one, relation: res.partner}
      - {name: amount_total, label: Total, type: monetary}
  - name: res.partner
    fields:
      - {name: name, type: char}
      - {name: email, type: char}
      - {name: country_id, type: many2one, relation: res.country}
  - name: res.country
    fields:
      - {name: name, type: char}
      - {name: code, type: char}
`

type cli struct {
	t      *testing.T
	dir    string
	config string
}

func newCLI(t *testing.T) *cli {
	t.Helper()

	dir := t.TempDir()
	config := filepath.Join(dir, "docbind.yaml")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "models.yaml"), []byte(testCatalog), 0o644))
	require.NoError(t, os.WriteFile(config, []byte("database: docbind.db\ncatalog: models.yaml\nlog: {level: error}\n"), 0o644))

	return &cli{t: t, dir: dir, config: config}
}

func (c *cli) run(args ...string) (string, string, error) {
	c.t.Helper()

	cmd := newRootCommand()

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", c.config}, args...))

	err := cmd.ExecuteContext(context.Background())

	return stdout.String(), stderr.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()

	out, stderr, err := c.run(args...)
	require.NoError(c.t, err, stderr)

	return out
}

// bindingView mirrors the JSON shape of a binding.
type bindingView struct {
	TemplateID   string `json:"template_id"`
	Name         string `json:"name"`
	ModelName    string `json:"model_name"`
	Dirty        bool   `json:"dirty"`
	State        string `json:"state"`
	Placeholders []struct {
		Path     string `json:"path"`
		Validity string `json:"validity"`
	} `json:"placeholders"`
}

func (b bindingView) paths() []string {
	out := make([]string, 0, len(b.Placeholders))
	for _, p := range b.Placeholders {
		out = append(out, p.Path)
	}

	return out
}

func (c *cli) binding(args ...string) bindingView {
	c.t.Helper()

	var b bindingView
	require.NoError(c.t, json.Unmarshal([]byte(c.mustRun(append(args, "-o", "json")...)), &b))

	return b
}

func TestModels(t *testing.T) {
	c := newCLI(t)

	assert.Equal(t, "sale.order\nres.partner\nres.country\n", c.mustRun("models"))
	assert.JSONEq(t, `["sale.order","res.partner","res.country"]`, c.mustRun("models", "-o", "json"))
}

func TestFields(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun("fields", "sale.order")
	assert.Contains(t, out, "sale.order\n")
	assert.Contains(t, out, `partner_id "Customer" [many2one]`)
	assert.Contains(t, out, "└── country_id")

	out = c.mustRun("fields", "sale.order", "--search", "code")
	assert.Contains(t, out, "code [char]")
	assert.NotContains(t, out, "amount_total")

	var res fieldsResult
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("fields", "sale.order", "--depth", "0", "-o", "json")), &res))
	assert.Equal(t, "sale.order", res.Model)
	require.Len(t, res.Fields, 3)
	assert.Equal(t, schema.TypeMonetary, res.Fields[2].Type)

	out = c.mustRun("fields", "sale.order", "--group")
	assert.Contains(t, out, "Monetary (1)")

	out = c.mustRun("fields", "sale.order", "--collapsed")
	assert.Contains(t, out, `partner_id "Customer" [many2one] …`)
	assert.NotContains(t, out, "email")

	out = c.mustRun("fields", "sale.order", "--collapsed", "--expand", "partner_id")
	assert.Contains(t, out, "email [char]")
	assert.Contains(t, out, "country_id [many2one] …")

	_, _, err := c.run("fields", "stock.move")
	require.ErrorIs(t, err, schema.ErrNotFound)
}

func TestTemplateLifecycle(t *testing.T) {
	c := newCLI(t)

	created := c.binding("template", "create", "Quotation", "sale.order", "--scaffold")
	require.NotEmpty(t, created.TemplateID)
	assert.Equal(t, "sale.order", created.ModelName)
	assert.False(t, created.Dirty)
	assert.Equal(t, []string{"name", "partner_id", "amount_total"}, created.paths())

	id := created.TemplateID

	added := c.binding("template", "add", id, "partner_id.email")
	assert.Equal(t, []string{"name", "partner_id", "amount_total", "partner_id.email"}, added.paths())
	assert.False(t, added.Dirty)

	shown := c.binding("template", "show", id)
	for _, p := range shown.Placeholders {
		assert.Equal(t, "valid", p.Validity, p.Path)
	}

	out := c.mustRun("template", "validate", id)
	assert.Contains(t, out, "placeholder_not_in_document")
	assert.Contains(t, out, "all placeholders resolve")

	c.mustRun("template", "add", id, "partner_id.emial")

	out, _, err := c.run("template", "validate", id)
	require.ErrorIs(t, err, errInvalidTemplate)
	assert.Contains(t, out, "field_not_found")
	assert.Contains(t, out, "partner_id.email")

	removed := c.binding("template", "remove", id, "partner_id.emial", "partner_id.email")
	assert.Equal(t, []string{"name", "partner_id", "amount_total"}, removed.paths())

	c.mustRun("template", "validate", id)

	out = c.mustRun("template", "list")
	assert.Contains(t, out, id)
	assert.Contains(t, out, "Quotation")
}

func TestTemplateUploadAndParse(t *testing.T) {
	c := newCLI(t)

	b := c.binding("template", "create", "Invoice", "sale.order")
	assert.Empty(t, b.Placeholders)

	payload, err := docx.NewBuilder().
		Paragraph("Dear {{partner_id.name}},").
		Table([]string{"{{#lines}}", "{{amount_total}}"}).
		Bytes()
	require.NoError(t, err)

	file := filepath.Join(c.dir, "invoice.docx")
	require.NoError(t, os.WriteFile(file, payload, 0o644))

	uploaded := c.binding("template", "upload", b.TemplateID, file)
	assert.Equal(t, []string{"partner_id.name", "amount_total"}, uploaded.paths())

	out := c.mustRun("template", "parse", b.TemplateID)
	assert.Contains(t, out, "2 placeholder(s)")
	assert.Contains(t, out, "table 0: 1x2 loop")
	assert.NotContains(t, out, "+ ", "nothing new after upload")

	pdf := filepath.Join(c.dir, "invoice.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF"), 0o644))

	_, _, err = c.run("template", "upload", b.TemplateID, pdf)
	require.ErrorIs(t, err, schema.ErrUnsupportedFormat)
}

func TestTemplateCreate_FromFile(t *testing.T) {
	c := newCLI(t)

	payload, err := docx.NewBuilder().Paragraph("{{name}} for {{partner_id.country_id.code}}").Bytes()
	require.NoError(t, err)

	file := filepath.Join(c.dir, "order.docx")
	require.NoError(t, os.WriteFile(file, []byte(docx.EncodePayload(payload)), 0o644))

	b := c.binding("template", "create", "Order", "sale.order", "--file", file)
	assert.Equal(t, []string{"name", "partner_id.country_id.code"}, b.paths())

	_, _, err = c.run("template", "create", "Order", "no.model", "--file", file)
	require.ErrorIs(t, err, schema.ErrNotFound)
}

func TestTemplate_NotFound(t *testing.T) {
	c := newCLI(t)

	_, _, err := c.run("template", "show", "missing")
	require.ErrorIs(t, err, schema.ErrNotFound)
}

func TestCopy(t *testing.T) {
	var copied []string

	orig := writeClipboard
	writeClipboard = func(s string) error {
		copied = append(copied, s)
		return nil
	}
	t.Cleanup(func() { writeClipboard = orig })

	c := newCLI(t)

	assert.Equal(t, "{{partner_id.email}}\n", c.mustRun("copy", "partner_id.email"))

	_, _, err := c.run("copy", "partner_id..email")
	require.Error(t, err)

	b := c.binding("template", "create", "Letter", "sale.order")
	c.mustRun("copy", "--template", b.TemplateID, "amount_total")

	shown := c.binding("template", "show", b.TemplateID)
	assert.Equal(t, []string{"amount_total"}, shown.paths())
	assert.Equal(t, []string{"{{partner_id.email}}", "{{amount_total}}"}, copied)
}

func TestOutputFormat(t *testing.T) {
	_, _, err := newCLI(t).run("models", "-o", "xml")
	require.ErrorContains(t, err, "unsupported output format")

	out := newCLI(t).mustRun("models", "-o", "yaml")
	assert.Equal(t, "- sale.order\n- res.partner\n- res.country\n", out)
}

func TestTemplateMeta(t *testing.T) {
	c := newCLI(t)

	id := c.binding("template", "create", "Quotation", "sale.order", "--scaffold").TemplateID

	decode := func(args ...string) []store.FieldMapping {
		t.Helper()

		var m []store.FieldMapping
		require.NoError(t, json.Unmarshal([]byte(c.mustRun(append(args, "-o", "json")...)), &m))

		return m
	}

	all := decode("template", "meta", id)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"partner_id", "name", "amount_total"},
		[]string{all[0].Path, all[1].Path, all[2].Path}, "same sequence sorts by name")
	assert.Equal(t, "Customer", all[0].FieldName)
	assert.Equal(t, schema.TypeMany2one, all[0].FieldType)

	one := decode("template", "meta", id, "amount_total", "--format", "%.2f", "--required", "--sequence", "1")
	require.Len(t, one, 1)
	assert.Equal(t, store.FieldMapping{Path: "amount_total", FieldMeta: store.FieldMeta{
		FieldName:    "Total",
		FieldType:    schema.TypeMonetary,
		FormatString: "%.2f",
		Required:     true,
		Sequence:     1,
	}}, one[0])

	all = decode("template", "meta", id)
	assert.Equal(t, "amount_total", all[0].Path, "the edit was saved")

	out := c.mustRun("template", "meta", id, "amount_total", "--default", "0.00")
	assert.Contains(t, out, "SEQ")
	assert.Contains(t, out, "%.2f")
	assert.Contains(t, out, "0.00")

	_, _, err := c.run("template", "meta", id, "partner_id.email", "--required")
	require.ErrorIs(t, err, schema.ErrNotFound)

	_, _, err = c.run("template", "meta", id, "name", "--sequence", "-1")
	require.ErrorIs(t, err, schema.ErrValidation)

	assert.Equal(t, []string{"name", "partner_id", "amount_total"},
		c.binding("template", "show", id).paths(), "mappings never reorder placeholders")
}

func TestTemplateDownload(t *testing.T) {
	c := newCLI(t)

	id := c.binding("template", "create", "Quotation", "sale.order", "--scaffold").TemplateID
	target := filepath.Join(c.dir, "out.docx")

	out := c.mustRun("template", "download", id, target)
	assert.Contains(t, out, "wrote "+target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)

	doc, err := docx.Open(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "partner_id", "amount_total"}, doc.Placeholders())

	_, _, err = c.run("template", "download", id, target)
	require.ErrorContains(t, err, "already exists")

	var res downloadResult
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("template", "download", id, target, "--force", "-o", "json")), &res))
	assert.Equal(t, len(data), res.Size)

	empty := c.binding("template", "create", "Blank", "sale.order").TemplateID

	_, _, err = c.run("template", "download", empty, filepath.Join(c.dir, "blank.docx"))
	require.ErrorIs(t, err, schema.ErrNotFound)

	_, _, err = c.run("template", "download", "missing", target)
	require.ErrorIs(t, err, schema.ErrNotFound)
}

func TestDownloadName(t *testing.T) {
	assert.Equal(t, "q.docx", downloadName(store.Record{Filename: "dir/q.docx", Name: "Q"}))
	assert.Equal(t, "Quotation.docx", downloadName(store.Record{Name: " Quotation "}))
	assert.Equal(t, "tpl-1.docx", downloadName(store.Record{ID: "tpl-1"}))
}
