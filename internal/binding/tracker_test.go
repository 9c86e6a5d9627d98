package binding

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docbind/internal/catalog"
	"docbind/internal/docx"
	"docbind/internal/notify"
	"docbind/internal/schema"
	"docbind/internal/store"
)

const salesCatalog = `
models:
  - name: sale.order
    fields:
      - {name: name, label: Order Reference, type: char}
      - {name: date_order, label: Order Date, type: datetime}
      - {name: partner_id, label: Customer, type: many2one, relation: res.partner}
      - {name: order_line, label: Order Lines, type: one2many, relation: sale.order.line}
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
  - name: sale.order.line
    fields:
      - {name: product_id, type: many2one, relation: product.product}
`

type fixture struct {
	store    *store.Memory
	catalog  *catalog.Catalog
	parser   *docx.Parser
	recorder *notify.Recorder
	tracker  *Tracker
}

func newFixture(t *testing.T, mutate ...func(*Options)) *fixture {
	t.Helper()

	c, err := catalog.Parse([]byte(salesCatalog))
	require.NoError(t, err)

	f := &fixture{
		store:    store.NewMemory(),
		catalog:  c,
		recorder: &notify.Recorder{},
	}
	f.parser = docx.NewParser(f.store, nil)

	opts := DefaultOptions()
	opts.Notifier = f.recorder

	for _, m := range mutate {
		m(&opts)
	}

	f.tracker = New(f.store, f.parser, c, opts)

	return f
}

func docxPayload(t *testing.T, paragraphs ...string) []byte {
	t.Helper()

	b := docx.NewBuilder()
	for _, p := range paragraphs {
		b.Paragraph(p)
	}

	data, err := b.Bytes()
	require.NoError(t, err)

	return data
}

// create stores a sale.order template with the given saved mapping and a
// document made of paragraphs (no document when none are given).
func (f *fixture) create(t *testing.T, mapping []string, paragraphs ...string) string {
	t.Helper()

	rec := store.Record{Name: "Quotation", ModelName: "sale.order"}

	if mapping != nil {
		blob, err := store.EncodeMapping(mapping)
		require.NoError(t, err)
		rec.Mapping = blob
	}

	if len(paragraphs) > 0 {
		rec.Payload = docxPayload(t, paragraphs...)
		rec.Filename = "quotation.docx"
	}

	id, err := f.store.Create(context.Background(), rec)
	require.NoError(t, err)

	return id
}

func (f *fixture) load(t *testing.T, id string) Binding {
	t.Helper()

	b, err := f.tracker.Load(context.Background(), id)
	require.NoError(t, err)

	return b
}

func (f *fixture) savedPaths(t *testing.T, id string) []string {
	t.Helper()

	rec, err := f.store.Read(context.Background(), id)
	require.NoError(t, err)

	return store.DecodeMapping(rec.Mapping)
}

func TestLoad_MergesMappingAndDocument(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, []string{"amount_total"},
		"Order {{name}} for {{partner_id.email}}",
		"Total {{amount_total}}")

	b := f.load(t, id)

	assert.Equal(t, id, b.TemplateID)
	assert.Equal(t, "Quotation", b.Name)
	assert.Equal(t, "sale.order", b.ModelName)
	assert.Equal(t, "quotation.docx", b.Filename)
	assert.Equal(t, []string{"amount_total", "name", "partner_id.email"}, b.Paths())
	assert.True(t, b.Dirty, "document paths not in the saved mapping are unsaved")
	assert.Equal(t, StateDirty, b.State)

	for _, p := range b.Placeholders {
		assert.Equal(t, Unvalidated, p.Validity)
	}

	require.NotNil(t, f.tracker.Forest())
	assert.Equal(t, "sale.order", f.tracker.Forest().Model())
}

func TestLoad_CleanWhenMappingCoversDocument(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, []string{"name", "date_order"}, "{{name}}")

	b := f.load(t, id)

	assert.Equal(t, []string{"name", "date_order"}, b.Paths())
	assert.False(t, b.Dirty)
	assert.Equal(t, StateReady, b.State)
	assert.Equal(t, []string{"date_order"}, f.tracker.Stale())
}

func TestLoad_InvalidMappingBlob(t *testing.T) {
	f := newFixture(t)

	id, err := f.store.Create(context.Background(), store.Record{
		Name:      "Broken",
		ModelName: "sale.order",
		Mapping:   `{"placeholders": [`,
	})
	require.NoError(t, err)

	b := f.load(t, id)
	assert.Empty(t, b.Placeholders)
	assert.Equal(t, StateReady, b.State)
}

func TestLoad_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.tracker.Load(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrNotFound)
	assert.Equal(t, StateUnloaded, f.tracker.State())

	last, ok := f.recorder.Last()
	require.True(t, ok)
	assert.Equal(t, notify.LevelDanger, last.Level)
}

func TestLoad_NotFoundKeepsPreviousBinding(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, []string{"name"})
	f.load(t, id)

	_, err := f.tracker.Add(context.Background(), "amount_total")
	require.NoError(t, err)

	_, err = f.tracker.Load(context.Background(), "missing")
	require.Error(t, err)

	b := f.tracker.Binding()
	assert.Equal(t, id, b.TemplateID)
	assert.Equal(t, []string{"name", "amount_total"}, b.Paths())
	assert.Equal(t, StateDirty, b.State)
}

func TestLoad_StorageFailure(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, nil)

	f.store.Fail = func(op, _ string) error {
		if op == "read" {
			return errors.New("connection reset")
		}

		return nil
	}

	_, err := f.tracker.Load(context.Background(), id)
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrPersistence)
}

func TestLoad_ParseFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)

	id, err := f.store.Create(context.Background(), store.Record{
		Name:      "Corrupt",
		ModelName: "sale.order",
		Payload:   []byte("not a zip"),
		Mapping:   `{"placeholders":["name"]}`,
	})
	require.NoError(t, err)

	b := f.load(t, id)
	assert.Equal(t, []string{"name"}, b.Paths())
	assert.Equal(t, StateReady, b.State)
	assert.Nil(t, f.tracker.Stale(), "no document snapshot after a failed parse")
	assert.Equal(t, 1, f.recorder.Count(notify.LevelWarning))

	_, err = f.tracker.Parse(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrParseFailure)
	assert.Equal(t, []string{"name"}, f.tracker.Binding().Paths(), "failed parse leaves the set unchanged")
}

func TestLoad_SchemaFailureIsNotFatal(t *testing.T) {
	c, err := catalog.Parse([]byte(salesCatalog))
	require.NoError(t, err)

	s := store.NewMemory()
	rec := &notify.Recorder{}

	failing := schema.IntrospectorFunc(func(context.Context, string, bool, int) (schema.ModelFields, error) {
		return schema.ModelFields{Error: "rpc timeout"}, errors.New("rpc timeout")
	})

	opts := DefaultOptions()
	opts.Notifier = rec

	tr := New(s, docx.NewParser(s, nil), failing, opts)

	id, err := s.Create(context.Background(), store.Record{Name: "Q", ModelName: "sale.order"})
	require.NoError(t, err)

	b, err := tr.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StateReady, b.State)
	assert.Nil(t, tr.Forest())
	assert.Equal(t, 1, rec.Count(notify.LevelDanger))

	_, err = tr.Validate(context.Background(), "name")
	require.Error(t, err)
	assert.ErrorIs(t, err, schema.ErrSchemaUnavailable)

	// The same failure with a remote validator configured still validates.
	opts.Validator = c
	tr = New(s, docx.NewParser(s, nil), failing, opts)

	_, err = tr.Load(context.Background(), id)
	require.NoError(t, err)

	got, err := tr.Validate(context.Background(), "partner_id.country_id.code")
	require.NoError(t, err)
	assert.Equal(t, Valid, got.Validity)
}

func TestLoad_UnsuccessfulIntrospection(t *testing.T) {
	f := newFixture(t)

	id, err := f.store.Create(context.Background(), store.Record{Name: "Q", ModelName: "no.such.model"})
	require.NoError(t, err)

	b := f.load(t, id)
	assert.Equal(t, StateReady, b.State)
	assert.Nil(t, f.tracker.Forest())

	last, ok := f.recorder.Last()
	require.True(t, ok)
	assert.Equal(t, notify.LevelDanger, last.Level)
	assert.ErrorIs(t, last.Err, schema.ErrNotFound)
}

func TestLoad_LaterLoadWins(t *testing.T) {
	c, err := catalog.Parse([]byte(salesCatalog))
	require.NoError(t, err)

	s := store.NewMemory()
	entered := make(chan struct{})

	slow := schema.IntrospectorFunc(func(ctx context.Context, model string, related bool, depth int) (schema.ModelFields, error) {
		if model == "slow.model" {
			close(entered)
			<-ctx.Done()

			return schema.ModelFields{}, ctx.Err()
		}

		return c.ModelFields(ctx, model, related, depth)
	})

	tr := New(s, nil, slow, DefaultOptions())

	first, err := s.Create(context.Background(), store.Record{Name: "Slow", ModelName: "slow.model"})
	require.NoError(t, err)

	second, err := s.Create(context.Background(), store.Record{
		Name:      "Fast",
		ModelName: "sale.order",
		Mapping:   `{"placeholders":["name"]}`,
	})
	require.NoError(t, err)

	done := make(chan error, 1)

	go func() {
		_, err := tr.Load(context.Background(), first)
		done <- err
	}()

	<-entered
	assert.Equal(t, StateLoading, tr.State())

	b, err := tr.Load(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, second, b.TemplateID)

	require.ErrorIs(t, <-done, ErrSuperseded)

	b = tr.Binding()
	assert.Equal(t, second, b.TemplateID)
	assert.Equal(t, []string{"name"}, b.Paths())
	assert.Equal(t, StateReady, b.State)
}

func TestAdd(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, []string{"name"})
	f.load(t, id)

	added, err := f.tracker.Add(context.Background(), "partner_id.email")
	require.NoError(t, err)
	assert.True(t, added)
	assert.True(t, f.tracker.Dirty())
	assert.Equal(t, StateDirty, f.tracker.State())

	last, ok := f.recorder.Last()
	require.True(t, ok)
	assert.Contains(t, last.Message, "{{partner_id.email}}")

	ps := f.tracker.Placeholders()
	require.Len(t, ps, 2)
	assert.Equal(t, Unvalidated, ps[1].Validity)
}

func TestAdd_Idempotent(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, []string{"name"})
	f.load(t, id)

	_, err := f.tracker.Add(context.Background(), "amount_total")
	require.NoError(t, err)
	once := f.tracker.Binding().Paths()

	added, err := f.tracker.Add(context.Background(), "amount_total")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, once, f.tracker.Binding().Paths())
}

func TestAdd_IdempotentProperty(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	pool := []string{"name", "date_order", "partner_id", "partner_id.email", "amount_total", "order_line"}

	for i := range 50 {
		f := newFixture(t)
		id := f.create(t, nil)
		f.load(t, id)

		for range r.IntN(6) {
			_, err := f.tracker.Add(context.Background(), pool[r.IntN(len(pool))])
			require.NoError(t, err)
		}

		p := pool[r.IntN(len(pool))]

		_, err := f.tracker.Add(context.Background(), p)
		require.NoError(t, err)
		once := f.tracker.Binding().Paths()

		_, err = f.tracker.Add(context.Background(), p)
		require.NoError(t, err)

		require.Equal(t, once, f.tracker.Binding().Paths(), "iteration %d", i)
	}
}

func TestAdd_Errors(t *testing.T) {
	f := newFixture(t)

	_, err := f.tracker.Add(context.Background(), "name")
	require.ErrorIs(t, err, ErrNotLoaded)

	id := f.create(t, nil)
	f.load(t, id)

	for _, bad := range []string{"", "partner_id.", "a..b", "has space"} {
		_, err := f.tracker.Add(context.Background(), bad)
		require.ErrorIs(t, err, schema.ErrValidation, bad)
	}

	assert.False(t, f.tracker.Dirty())
}

func TestRemove(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, []string{"name", "amount_total", "date_order"})
	f.load(t, id)

	removed, err := f.tracker.Remove("amount_total")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.True(t, f.tracker.Dirty())
	assert.Equal(t, []string{"name", "date_order"}, f.tracker.Binding().Paths())
}

func TestRemove_AbsentLeavesDirtyAlone(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, []string{"name"})
	f.load(t, id)

	require.False(t, f.tracker.Dirty())

	removed, err := f.tracker.Remove("partner_id.email")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.False(t, f.tracker.Dirty())
	assert.Equal(t, StateReady, f.tracker.State())
	assert.Equal(t, []string{"name"}, f.tracker.Binding().Paths())

	_, err = f.tracker.Add(context.Background(), "amount_total")
	require.NoError(t, err)

	_, err = f.tracker.Remove("partner_id.email")
	require.NoError(t, err)
	assert.True(t, f.tracker.Dirty(), "still dirty from the add")
}

func TestCopy(t *testing.T) {
	f := newFixture(t)

	got, err := f.tracker.Copy(context.Background(), "partner_id.country_id.code")
	require.NoError(t, err)
	assert.Equal(t, "{{partner_id.country_id.code}}", got)

	last, ok := f.recorder.Last()
	require.True(t, ok)
	assert.Equal(t, "Copied: {{partner_id.country_id.code}}", last.Message)

	_, err = f.tracker.Copy(context.Background(), "bad path")
	require.ErrorIs(t, err, schema.ErrValidation)
}

func TestParse_UnionNeverSubtracts(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, []string{"date_order"}, "{{name}}")
	f.load(t, id)

	doc := docxPayload(t, "{{amount_total}} {{name}}")
	require.NoError(t, f.store.Write(context.Background(), id, store.Update{Payload: doc}))

	added, err := f.tracker.Parse(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"amount_total"}, added)
	assert.Equal(t, []string{"date_order", "name", "amount_total"}, f.tracker.Binding().Paths())
	assert.Equal(t, []string{"date_order"}, f.tracker.Stale())

	added, err = f.tracker.Parse(context.Background())
	require.NoError(t, err)
	assert.Empty(t, added)
}

func TestParse_NotLoaded(t *testing.T) {
	f := newFixture(t)

	_, err := f.tracker.Parse(context.Background())
	require.ErrorIs(t, err, ErrNotLoaded)
}

func TestUnload(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, []string{"name"})
	f.load(t, id)

	f.tracker.Unload()

	assert.Equal(t, StateUnloaded, f.tracker.State())
	assert.Empty(t, f.tracker.Placeholders())
	assert.Nil(t, f.tracker.Forest())

	_, err := f.tracker.Save(context.Background())
	require.ErrorIs(t, err, ErrNotLoaded)
}

func TestBinding_SnapshotIsACopy(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, []string{"name"})
	f.load(t, id)

	b := f.tracker.Binding()
	b.Placeholders[0].Path = "mutated"

	want := []Placeholder{{
		Path: "name",
		FieldMeta: store.FieldMeta{
			FieldName: "Order Reference",
			FieldType: schema.TypeChar,
			Sequence:  store.DefaultSequence,
		},
	}}
	if diff := cmp.Diff(want, f.tracker.Placeholders()); diff != "" {
		t.Errorf("placeholders changed through a snapshot (-want +got):\n%s", diff)
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unloaded", StateUnloaded.String())
	assert.Equal(t, "saving", StateSaving.String())
	assert.Equal(t, "unknown", State(99).String())
	assert.Equal(t, "invalid", Invalid.String())
	assert.Equal(t, "unknown", Validity(-1).String())

	text, err := StateDirty.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "dirty", string(text))
}

func TestLoad_DocumentPlaceholdersGetMappings(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, nil, "{{partner_id.email}} {{partner_id.fax}}")
	b := f.load(t, id)

	require.Len(t, b.Placeholders, 2)

	email := b.Placeholders[0]
	assert.Equal(t, "email", email.FieldName)
	assert.Equal(t, schema.TypeChar, email.FieldType)
	assert.Equal(t, store.DefaultSequence, email.Sequence)
	assert.False(t, email.Required)

	fax := b.Placeholders[1]
	assert.Equal(t, "fax", fax.FieldName, "unknown paths are named after their last segment")
	assert.Equal(t, schema.TypeUnknown, fax.FieldType)

	_, err := f.tracker.Add(context.Background(), "date_order")
	require.NoError(t, err)
	assert.Equal(t, "Order Date", f.tracker.Placeholders()[2].FieldName)
}

func TestSetMeta(t *testing.T) {
	f := newFixture(t)

	_, err := f.tracker.SetMeta("name", store.NewFieldMeta("name"))
	require.ErrorIs(t, err, ErrNotLoaded)

	id := f.create(t, []string{"name"})
	f.load(t, id)

	current := f.tracker.Placeholders()[0].FieldMeta

	changed, err := f.tracker.SetMeta("name", current)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.False(t, f.tracker.Dirty(), "an unchanged mapping is a no-op")

	_, err = f.tracker.SetMeta("missing", current)
	require.ErrorIs(t, err, schema.ErrNotFound)

	_, err = f.tracker.SetMeta("name", store.FieldMeta{Sequence: 1})
	require.ErrorIs(t, err, schema.ErrValidation)

	current.Description = "quotation number"

	changed, err = f.tracker.SetMeta("name", current)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, f.tracker.Dirty())
	assert.Equal(t, "quotation number", f.tracker.Placeholders()[0].Description)
}
