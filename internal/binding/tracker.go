package binding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"docbind/internal/docx"
	"docbind/internal/notify"
	"docbind/internal/schema"
	"docbind/internal/store"
	"docbind/internal/tree"
)

var (
	// ErrNotLoaded is returned by operations that need an open binding.
	ErrNotLoaded = errors.New("no template loaded")
	// ErrSuperseded is returned when a newer Load or Unload replaced the
	// binding an operation was working on. Its results were discarded.
	ErrSuperseded = errors.New("superseded by a newer load")
)

// Parser finds the placeholder paths present in a stored template.
type Parser interface {
	Placeholders(ctx context.Context, templateID string) ([]string, error)
}

// Options configure a Tracker.
type Options struct {
	// MaxDepth bounds relation traversal during introspection.
	MaxDepth int
	// IncludeRelated expands many2one relations; false means depth 0.
	IncludeRelated bool
	// Extensions accepted by ReplaceTemplateFile. Empty means .docx only.
	Extensions []string
	// Validator checks paths when no forest is loaded.
	Validator schema.FieldValidator
	Notifier  notify.Notifier
	Logger    *slog.Logger
}

// DefaultOptions returns the options used by the designer.
func DefaultOptions() Options {
	return Options{
		MaxDepth:       schema.DefaultMaxDepth,
		IncludeRelated: true,
		Extensions:     []string{docx.Extension},
	}
}

// Tracker owns one template binding: its placeholder set, its dirty flag
// and the schema forest of its model.
//
// All methods are safe for concurrent use. Collaborator calls run without
// holding the state lock, so reads never wait on a load or save in flight.
// Saves are serialized; a Load discards the results of any earlier Load.
type Tracker struct {
	store        store.Store
	parser       Parser
	introspector schema.Introspector
	opts         Options
	notifier     notify.Notifier
	logger       *slog.Logger

	saveMu sync.Mutex

	mu         sync.RWMutex
	gen        uint64
	cancelLoad context.CancelFunc
	state      State
	templateID string
	name       string
	model      string
	filename   string
	entries    []*Placeholder
	index      map[string]*Placeholder
	version    uint64
	dirty      bool
	document   []string
	parsed     bool
	forest     *tree.Forest
}

// New returns a tracker with no binding loaded. A nil introspector means
// validation relies on opts.Validator.
func New(s store.Store, p Parser, in schema.Introspector, opts Options) *Tracker {
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	return &Tracker{
		store:        s,
		parser:       p,
		introspector: in,
		opts:         opts,
		notifier:     opts.Notifier,
		logger:       opts.Logger,
		index:        make(map[string]*Placeholder),
	}
}

type loadResult struct {
	rec       store.Record
	forest    *tree.Forest
	fieldsErr error
	document  []string
	parsed    bool
	parseErr  error
}

// Load opens the template with the given id. The mapping blob seeds the
// placeholder set, then the document's placeholders are merged in.
//
// Schema and parse failures do not fail the load: they are reported and the
// binding opens without a forest or document snapshot. A missing template
// or a storage failure leaves the previous binding in place.
func (t *Tracker) Load(ctx context.Context, templateID string) (Binding, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	t.mu.Lock()
	if t.cancelLoad != nil {
		t.cancelLoad()
	}

	t.gen++
	gen := t.gen
	t.cancelLoad = cancel
	t.state = StateLoading
	t.mu.Unlock()

	t.logger.DebugContext(ctx, "loading template", slog.String("template", templateID))

	res, err := t.fetch(ctx, templateID)

	t.mu.Lock()
	if t.gen != gen {
		t.mu.Unlock()
		return Binding{}, ErrSuperseded
	}

	t.cancelLoad = nil

	if err != nil {
		t.state = t.restingStateLocked()
		t.mu.Unlock()

		t.notify(ctx, notify.LevelDanger, "Error loading template", err)

		return Binding{}, err
	}

	added := t.commitLocked(res)
	b := t.snapshotLocked()
	t.mu.Unlock()

	if res.fieldsErr != nil {
		t.notify(ctx, notify.LevelDanger, "Error loading model fields", res.fieldsErr)
	}

	if res.parseErr != nil {
		t.notify(ctx, notify.LevelWarning, "Error parsing template", res.parseErr)
	}

	t.logger.InfoContext(ctx, "template loaded",
		slog.String("template", templateID),
		slog.String("model", b.ModelName),
		slog.Int("placeholders", len(b.Placeholders)),
		slog.Int("from_document", len(added)))

	return b, nil
}

// fetch reads the record, then loads the model fields and parses the
// document concurrently.
func (t *Tracker) fetch(ctx context.Context, templateID string) (*loadResult, error) {
	rec, err := t.store.Read(ctx, templateID)
	if err != nil {
		if errors.Is(err, schema.ErrNotFound) {
			return nil, fmt.Errorf("failed to load template %s: %w", templateID, err)
		}

		return nil, fmt.Errorf("failed to load template %s: %w: %w", templateID, schema.ErrPersistence, err)
	}

	res := &loadResult{rec: rec}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		res.forest, res.fieldsErr = t.loadForest(gctx, rec.ModelName)
		return gctx.Err()
	})

	if len(rec.Payload) > 0 {
		g.Go(func() error {
			res.document, res.parseErr = t.parse(gctx, templateID)
			res.parsed = res.parseErr == nil
			return gctx.Err()
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return res, nil
}

func (t *Tracker) loadForest(ctx context.Context, model string) (*tree.Forest, error) {
	if t.introspector == nil {
		return nil, nil
	}

	result, err := t.introspector.ModelFields(ctx, model, t.opts.IncludeRelated, t.depthBound())
	if err != nil {
		if schema.Kind(err) == nil {
			err = fmt.Errorf("%w: %w", schema.ErrSchemaUnavailable, err)
		}

		return nil, fmt.Errorf("failed to load fields of %s: %w", model, err)
	}

	if !result.Success {
		return nil, fmt.Errorf("failed to load fields of %s: %w: %s", model, schema.ErrSchemaUnavailable, result.Error)
	}

	forest := tree.BuildModel(model, result.Fields)
	if n := forest.OrphanCount(); n > 0 {
		t.logger.WarnContext(ctx, "orphaned fields excluded from tree",
			slog.String("model", model),
			slog.Int("orphans", n))
	}

	return forest, nil
}

func (t *Tracker) parse(ctx context.Context, templateID string) ([]string, error) {
	if t.parser == nil {
		return nil, fmt.Errorf("%w: no template parser configured", schema.ErrParseFailure)
	}

	paths, err := t.parser.Placeholders(ctx, templateID)
	if err != nil {
		if !errors.Is(err, schema.ErrParseFailure) {
			err = fmt.Errorf("%w: %w", schema.ErrParseFailure, err)
		}

		return nil, err
	}

	return paths, nil
}

func (t *Tracker) commitLocked(res *loadResult) []string {
	rec := res.rec

	// A schema failure on a reload of the same model keeps the stale forest.
	switch {
	case res.fieldsErr == nil:
		t.forest = res.forest
	case t.forest != nil && t.forest.Model() != rec.ModelName:
		t.forest = nil
	}

	t.templateID = rec.ID
	t.name = rec.Name
	t.model = rec.ModelName
	t.filename = rec.Filename
	t.entries = nil
	t.index = make(map[string]*Placeholder)
	t.dirty = false
	t.version++

	for _, path := range store.DecodeMapping(rec.Mapping) {
		t.insertLocked(path)
	}

	// Mapping rows of paths no longer in the blob are dropped on next save.
	for _, m := range rec.Fields {
		if p, ok := t.index[m.Path]; ok {
			p.FieldMeta = m.FieldMeta
			t.fillMetaLocked(p)
		}
	}

	t.state = StateReady
	t.document = nil
	t.parsed = false

	if !res.parsed {
		return nil
	}

	t.document = res.document
	t.parsed = true

	return t.mergeLocked(res.document)
}

// Parse re-reads the document and merges its placeholders into the set.
// Paths no longer in the document are kept; removal is explicit.
func (t *Tracker) Parse(ctx context.Context) ([]string, error) {
	t.mu.RLock()
	id, gen, loaded := t.templateID, t.gen, t.state.Loaded()
	t.mu.RUnlock()

	if !loaded {
		return nil, ErrNotLoaded
	}

	return t.parseBinding(ctx, id, gen)
}

// parseBinding parses templateID and merges the result, provided the
// binding of generation gen is still the loaded one.
func (t *Tracker) parseBinding(ctx context.Context, id string, gen uint64) ([]string, error) {
	paths, err := t.parse(ctx, id)
	if err != nil {
		t.notify(ctx, notify.LevelWarning, "Error parsing template", err)
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.gen != gen {
		return nil, ErrSuperseded
	}

	t.document = paths
	t.parsed = true

	return t.mergeLocked(paths), nil
}

// mergeLocked adds document paths not yet tracked and returns them.
func (t *Tracker) mergeLocked(paths []string) []string {
	var added []string

	for _, path := range paths {
		if t.insertLocked(path) {
			added = append(added, path)
		}
	}

	if len(added) > 0 {
		t.markDirtyLocked()
	}

	return added
}

func (t *Tracker) insertLocked(path string) bool {
	path = strings.TrimSpace(path)
	if path == "" {
		return false
	}

	if _, ok := t.index[path]; ok {
		return false
	}

	p := &Placeholder{Path: path, FieldMeta: store.NewFieldMeta(path)}
	t.fillMetaLocked(p)
	t.entries = append(t.entries, p)
	t.index[path] = p

	return true
}

// fillMetaLocked completes p's mapping from its forest node: the label
// replaces a name derived from the path and an unknown type is resolved.
func (t *Tracker) fillMetaLocked(p *Placeholder) {
	n, ok := t.forest.Lookup(p.Path)
	if !ok {
		return
	}

	if p.FieldName == "" || p.FieldName == n.Name() {
		p.FieldName = n.Label()
	}

	if p.FieldType == schema.TypeUnknown {
		p.FieldType = n.Field.Type
	}
}

// restingStateLocked is the state of the current binding with no
// operation in flight.
func (t *Tracker) restingStateLocked() State {
	switch {
	case t.templateID == "":
		return StateUnloaded
	case t.dirty:
		return StateDirty
	default:
		return StateReady
	}
}

func (t *Tracker) markDirtyLocked() {
	t.version++
	t.dirty = true

	if t.state == StateReady {
		t.state = StateDirty
	}
}

// Unload closes the binding and discards any load in flight.
func (t *Tracker) Unload() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancelLoad != nil {
		t.cancelLoad()
		t.cancelLoad = nil
	}

	t.gen++
	t.state = StateUnloaded
	t.templateID, t.name, t.model, t.filename = "", "", "", ""
	t.entries = nil
	t.index = make(map[string]*Placeholder)
	t.dirty = false
	t.document = nil
	t.parsed = false
	t.forest = nil
}

// State returns the lifecycle state.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.state
}

// Dirty reports whether the placeholder set has unsaved changes.
func (t *Tracker) Dirty() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.dirty
}

// Forest returns the schema forest of the bound model, or nil.
func (t *Tracker) Forest() *tree.Forest {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.forest
}

// Placeholders returns a copy of the placeholder set in display order.
func (t *Tracker) Placeholders() []Placeholder {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.placeholdersLocked()
}

// Binding returns a snapshot of the binding.
func (t *Tracker) Binding() Binding {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.snapshotLocked()
}

// Stale returns tracked paths missing from the last parsed document. It is
// empty until the document has been parsed successfully.
func (t *Tracker) Stale() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.parsed {
		return nil
	}

	var out []string

	for _, p := range t.entries {
		if !slices.Contains(t.document, p.Path) {
			out = append(out, p.Path)
		}
	}

	return out
}

func (t *Tracker) placeholdersLocked() []Placeholder {
	out := make([]Placeholder, 0, len(t.entries))
	for _, p := range t.entries {
		out = append(out, p.clone())
	}

	return out
}

func (t *Tracker) pathsLocked() []string {
	out := make([]string, 0, len(t.entries))
	for _, p := range t.entries {
		out = append(out, p.Path)
	}

	return out
}

func (t *Tracker) mappingsLocked() []store.FieldMapping {
	out := make([]store.FieldMapping, 0, len(t.entries))
	for _, p := range t.entries {
		out = append(out, p.Mapping())
	}

	return out
}

func (t *Tracker) snapshotLocked() Binding {
	return Binding{
		TemplateID:   t.templateID,
		Name:         t.name,
		ModelName:    t.model,
		Filename:     t.filename,
		Placeholders: t.placeholdersLocked(),
		Dirty:        t.dirty,
		State:        t.state,
	}
}

func (t *Tracker) depthBound() int {
	if !t.opts.IncludeRelated {
		return 0
	}

	return t.opts.MaxDepth
}

func (t *Tracker) notify(ctx context.Context, level notify.Level, msg string, err error) {
	t.notifier.Notify(ctx, notify.Notification{Level: level, Message: msg, Err: err})
}
