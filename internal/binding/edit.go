package binding

import (
	"context"
	"fmt"

	"docbind/internal/fieldpath"
	"docbind/internal/notify"
	"docbind/internal/schema"
	"docbind/internal/store"
)

// Add tracks path. Adding a tracked path is a no-op and reports false.
func (t *Tracker) Add(ctx context.Context, path string) (bool, error) {
	if _, err := fieldpath.Parse(path); err != nil {
		return false, fmt.Errorf("%w: %w", schema.ErrValidation, err)
	}

	t.mu.Lock()
	if !t.state.Loaded() {
		t.mu.Unlock()
		return false, ErrNotLoaded
	}

	added := t.insertLocked(path)
	if added {
		t.markDirtyLocked()
	}
	t.mu.Unlock()

	if added {
		t.notify(ctx, notify.LevelInfo,
			fmt.Sprintf("Placeholder %s added. Remember to update your DOCX template.", fieldpath.Placeholder(path)), nil)
	}

	return added, nil
}

// Remove stops tracking path. Removing an untracked path is a no-op and
// leaves the dirty flag alone.
func (t *Tracker) Remove(path string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.state.Loaded() {
		return false, ErrNotLoaded
	}

	p, ok := t.index[path]
	if !ok {
		return false, nil
	}

	delete(t.index, path)

	for i, e := range t.entries {
		if e == p {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			break
		}
	}

	t.markDirtyLocked()

	return true, nil
}

// SetMeta replaces the field mapping of a tracked path. It reports false
// when meta equals the current mapping.
func (t *Tracker) SetMeta(path string, meta store.FieldMeta) (bool, error) {
	if err := meta.Validate(); err != nil {
		return false, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.state.Loaded() {
		return false, ErrNotLoaded
	}

	p, ok := t.index[path]
	if !ok {
		return false, fmt.Errorf("%w: placeholder %s is not tracked", schema.ErrNotFound, path)
	}

	if p.FieldMeta == meta {
		return false, nil
	}

	p.FieldMeta = meta
	t.markDirtyLocked()

	return true, nil
}

// Copy returns the document marker for path, ready for the clipboard.
func (t *Tracker) Copy(ctx context.Context, path string) (string, error) {
	if _, err := fieldpath.Parse(path); err != nil {
		return "", fmt.Errorf("%w: %w", schema.ErrValidation, err)
	}

	marker := fieldpath.Placeholder(path)
	t.notify(ctx, notify.LevelInfo, "Copied: "+marker, nil)

	return marker, nil
}
