package tree

import (
	"sync"

	"docbind/internal/fieldpath"
	"docbind/internal/schema"
)

// Forest is the rooted hierarchy built from one introspection result, plus a
// flat path index for constant-time lookups.
//
// The structure is immutable once built and may be shared between
// goroutines. Expansion state is kept beside the nodes under its own lock.
type Forest struct {
	model      string
	roots      []*Node
	orphans    []*Node
	duplicates []schema.FieldDescriptor
	index      map[string]*Node
	size       int

	mu       sync.RWMutex
	expanded map[string]bool
}

// Build turns a flat descriptor list into a forest in two passes.
//
// The first pass creates one node per descriptor with depth and parent path
// derived from the path string. The second attaches every node to its parent
// in input order. A node at depth 0 becomes a root; a deeper node whose
// parent path does not resolve is an orphan: kept in the index and reported
// by Orphans, but reachable from no root. Relation introspection may omit
// intermediate levels, so orphans are never an error.
//
// Paths are expected to be unique. A repeated path keeps its first
// descriptor; later ones are reported by Duplicates and counted as orphans.
func Build(descriptors []schema.FieldDescriptor) *Forest {
	f := &Forest{
		index:    make(map[string]*Node, len(descriptors)),
		size:     len(descriptors),
		expanded: make(map[string]bool),
	}

	ordered := make([]*Node, 0, len(descriptors))

	for _, d := range descriptors {
		if _, dup := f.index[d.Path]; dup {
			f.duplicates = append(f.duplicates, d)
			continue
		}

		n := &Node{
			Field:      d,
			Depth:      fieldpath.DepthOf(d.Path),
			ParentPath: fieldpath.ParentOf(d.Path),
		}

		f.index[d.Path] = n
		ordered = append(ordered, n)
	}

	for _, n := range ordered {
		if n.ParentPath != "" {
			if parent, ok := f.index[n.ParentPath]; ok {
				parent.Children = append(parent.Children, n)
				continue
			}
		}

		if n.Depth == 0 {
			f.roots = append(f.roots, n)
			continue
		}

		f.orphans = append(f.orphans, n)
	}

	return f
}

// BuildModel is Build with the model name recorded for messages.
func BuildModel(model string, descriptors []schema.FieldDescriptor) *Forest {
	f := Build(descriptors)
	f.model = model

	return f
}

// Model returns the model the forest was built for, if recorded.
func (f *Forest) Model() string { return f.model }

// Roots returns the canonical root nodes. Callers must not modify them.
func (f *Forest) Roots() []*Node { return f.roots }

// Orphans returns nodes whose parent path did not resolve, in input order.
// Their own children stay attached to them.
func (f *Forest) Orphans() []*Node { return f.orphans }

// Duplicates returns descriptors dropped because their path was already seen.
func (f *Forest) Duplicates() []schema.FieldDescriptor { return f.duplicates }

// Size is the number of descriptors the forest was built from.
func (f *Forest) Size() int { return f.size }

// Count returns the number of nodes reachable from the roots.
func (f *Forest) Count() int { return Count(f.roots) }

// OrphanCount returns the number of input descriptors not reachable from any
// root: orphans with their subtrees, plus duplicates. Count()+OrphanCount()
// always equals Size().
func (f *Forest) OrphanCount() int {
	return Count(f.orphans) + len(f.duplicates)
}

// Lookup resolves a path through the flat index, orphans included.
func (f *Forest) Lookup(path string) (*Node, bool) {
	if f == nil {
		return nil, false
	}

	n, ok := f.index[path]

	return n, ok
}

// Reachable reports whether path resolves to a node attached under a root.
func (f *Forest) Reachable(path string) bool {
	n, ok := f.Lookup(path)
	for ok && n.Depth > 0 {
		if n.ParentPath == "" {
			return false
		}

		n, ok = f.index[n.ParentPath]
	}

	return ok && n.Depth == 0
}

// MaxDepth returns the deepest node depth present in the index, or -1 when empty.
func (f *Forest) MaxDepth() int {
	deepest := -1
	for _, n := range f.index {
		deepest = max(deepest, n.Depth)
	}

	return deepest
}

// SetExpanded records whether the node at path is expanded. It reports
// false when path is unknown.
func (f *Forest) SetExpanded(path string, expanded bool) bool {
	if _, ok := f.Lookup(path); !ok {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if expanded {
		f.expanded[path] = true
	} else {
		delete(f.expanded, path)
	}

	return true
}

// Toggle flips the expanded state and returns the new value.
func (f *Forest) Toggle(path string) bool {
	if _, ok := f.Lookup(path); !ok {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.expanded[path] {
		delete(f.expanded, path)
		return false
	}

	f.expanded[path] = true

	return true
}

// IsExpanded reports whether the node at path is expanded.
func (f *Forest) IsExpanded(path string) bool {
	if f == nil {
		return false
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.expanded[path]
}

// Children returns the children of path, or the roots for an empty path.
func (f *Forest) Children(path string) []*Node {
	if path == "" {
		return f.roots
	}

	if n, ok := f.Lookup(path); ok {
		return n.Children
	}

	return nil
}
