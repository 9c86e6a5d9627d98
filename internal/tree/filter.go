package tree

import (
	"slices"
	"strings"

	"docbind/internal/schema"
)

// Filter returns the nodes matching query together with every ancestor
// needed to reach them. Matching is a case-insensitive substring test
// against name, label and path.
//
// The result is a structural copy: retained nodes are shallow copies whose
// Children hold the filtered children, so the canonical forest is never
// modified and stays reusable once the query is cleared. An empty query
// returns nodes unchanged.
func Filter(nodes []*Node, query string) []*Node {
	if query == "" {
		return nodes
	}

	return filterLevel(nodes, strings.ToLower(query))
}

// Filter applies Filter to the forest roots.
func (f *Forest) Filter(query string) []*Node {
	return Filter(f.roots, query)
}

func filterLevel(nodes []*Node, q string) []*Node {
	var out []*Node

	for _, n := range nodes {
		children := filterLevel(n.Children, q)
		if !Matches(n, q) && len(children) == 0 {
			continue
		}

		c := n.shallowCopy()
		c.Children = children
		out = append(out, c)
	}

	return out
}

// Matches reports whether n matches an already lowercased query.
func Matches(n *Node, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(n.Field.Name), lowerQuery) ||
		strings.Contains(strings.ToLower(n.Field.Label), lowerQuery) ||
		strings.Contains(strings.ToLower(n.Field.Path), lowerQuery)
}

// Group is a set of sibling nodes sharing a field type.
type Group struct {
	Type  schema.FieldType
	Nodes []*Node
}

// GroupByType partitions nodes by field type for presentation. Groups follow
// the declaration order of schema.FieldType; node order within a group is
// the input order. The forest itself is left untouched.
func GroupByType(nodes []*Node) []Group {
	byType := make(map[schema.FieldType][]*Node)

	for _, n := range nodes {
		byType[n.Field.Type] = append(byType[n.Field.Type], n)
	}

	types := make([]schema.FieldType, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}

	slices.Sort(types)

	groups := make([]Group, 0, len(types))
	for _, t := range types {
		groups = append(groups, Group{Type: t, Nodes: byType[t]})
	}

	return groups
}
