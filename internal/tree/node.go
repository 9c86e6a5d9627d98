package tree

import "docbind/internal/schema"

// Node is one field in the schema forest. Nodes are created in bulk by Build
// and replaced wholesale when the schema is reloaded.
type Node struct {
	Field      schema.FieldDescriptor
	Depth      int
	ParentPath string // lookup key of the parent, empty for roots
	Children   []*Node
}

// Path returns the node's dotted field path.
func (n *Node) Path() string { return n.Field.Path }

// Name returns the leaf identifier.
func (n *Node) Name() string { return n.Field.Name }

// Label returns the display label, falling back to the name.
func (n *Node) Label() string {
	if n.Field.Label != "" {
		return n.Field.Label
	}

	return n.Field.Name
}

// HasChildren reports whether the node has attached children.
func (n *Node) HasChildren() bool { return len(n.Children) > 0 }

// IsRoot reports whether the node sits at depth 0.
func (n *Node) IsRoot() bool { return n.Depth == 0 }

// shallowCopy copies n without sharing its Children slice.
func (n *Node) shallowCopy() *Node {
	c := *n
	c.Children = nil

	return &c
}

// Walk visits nodes depth-first in sibling order. Returning false from fn
// skips the node's children.
func Walk(nodes []*Node, fn func(*Node) bool) {
	for _, n := range nodes {
		if fn(n) {
			Walk(n.Children, fn)
		}
	}
}

// Count returns the number of nodes reachable from nodes.
func Count(nodes []*Node) int {
	total := 0

	Walk(nodes, func(*Node) bool {
		total++
		return true
	})

	return total
}

// Paths lists the reachable paths depth-first.
func Paths(nodes []*Node) []string {
	var out []string

	Walk(nodes, func(n *Node) bool {
		out = append(out, n.Path())
		return true
	})

	return out
}
