package binding

import (
	"context"
	"fmt"
	"log/slog"

	"docbind/internal/docx"
	"docbind/internal/notify"
	"docbind/internal/schema"
	"docbind/internal/store"
)

// Save persists the placeholder set and the field mapping of every
// placeholder. Saves are serialized: a Save waiting
// behind another one snapshots the set only once it runs, so it always
// writes the latest edits. On failure the binding stays dirty.
func (t *Tracker) Save(ctx context.Context) (Binding, error) {
	t.saveMu.Lock()
	defer t.saveMu.Unlock()

	t.mu.Lock()
	if !t.state.Loaded() {
		t.mu.Unlock()
		return Binding{}, ErrNotLoaded
	}

	id, gen, version := t.templateID, t.gen, t.version
	paths, fields := t.pathsLocked(), t.mappingsLocked()
	t.state = StateSaving
	t.mu.Unlock()

	blob, err := store.EncodeMapping(paths)
	if err == nil {
		err = t.store.Write(ctx, id, store.Update{Mapping: &blob, Fields: fields})
	}

	t.mu.Lock()
	if t.gen != gen {
		t.mu.Unlock()
		return Binding{}, ErrSuperseded
	}

	if err != nil {
		t.dirty = true
		t.state = StateDirty
		b := t.snapshotLocked()
		t.mu.Unlock()

		err = fmt.Errorf("failed to save template %s: %w: %w", id, schema.ErrPersistence, err)
		t.notify(ctx, notify.LevelDanger, "Error saving template", err)

		return b, err
	}

	// Edits made while the write was in flight are not persisted yet.
	if t.version == version {
		t.dirty = false
		t.state = StateReady
	} else {
		t.state = StateDirty
	}

	b := t.snapshotLocked()
	t.mu.Unlock()

	t.logger.InfoContext(ctx, "template saved",
		slog.String("template", id),
		slog.Int("placeholders", len(paths)))
	t.notify(ctx, notify.LevelSuccess, "Template saved successfully", nil)

	return b, nil
}

// ReplaceTemplateFile stores a new document for the binding and merges its
// placeholders. Files without an accepted extension or that are not DOCX
// archives are rejected before anything is written.
func (t *Tracker) ReplaceTemplateFile(ctx context.Context, filename string, payload []byte) ([]string, error) {
	if !docx.HasExtension(filename, t.opts.Extensions...) {
		err := fmt.Errorf("%w: %q is not a DOCX file", schema.ErrUnsupportedFormat, filename)
		t.notify(ctx, notify.LevelWarning, "Please upload a DOCX file", err)

		return nil, err
	}

	t.mu.RLock()
	id, gen, loaded := t.templateID, t.gen, t.state.Loaded()
	t.mu.RUnlock()

	if !loaded {
		return nil, ErrNotLoaded
	}

	if _, err := docx.Open(payload); err != nil {
		err = fmt.Errorf("%w: invalid DOCX template file: %w", schema.ErrUnsupportedFormat, err)
		t.notify(ctx, notify.LevelWarning, "Invalid DOCX template file", err)

		return nil, err
	}

	if err := t.store.Write(ctx, id, store.Update{Payload: payload, Filename: &filename}); err != nil {
		err = fmt.Errorf("failed to upload template %s: %w: %w", id, schema.ErrPersistence, err)
		t.notify(ctx, notify.LevelDanger, "Error uploading template", err)

		return nil, err
	}

	t.notify(ctx, notify.LevelSuccess, "Template uploaded successfully", nil)

	t.mu.Lock()
	if t.gen != gen {
		t.mu.Unlock()
		return nil, ErrSuperseded
	}

	t.filename = filename
	t.mu.Unlock()

	return t.parseBinding(ctx, id, gen)
}
