package present

import (
	"fmt"
	"io"
	"strings"

	"github.com/ddddddO/gtree"

	"docbind/internal/binding"
	"docbind/internal/fieldpath"
	"docbind/internal/tree"
)

// TreeOptions control forest rendering.
type TreeOptions struct {
	// Color adds type badges and ANSI styling.
	Color bool
	// Collapsed hides children of nodes that are not expanded.
	Collapsed bool
	// Expanded reports whether a collapsed node shows its children.
	// Nil means no node is expanded.
	Expanded func(path string) bool
	// Paths shows full field paths instead of names.
	Paths bool
}

func (o TreeOptions) hides(n *tree.Node) bool {
	if !o.Collapsed {
		return false
	}

	return o.Expanded == nil || !o.Expanded(n.Path())
}

// Forest writes nodes as a tree under a root labelled title.
func Forest(w io.Writer, title string, nodes []*tree.Node, opts TreeOptions) error {
	root := gtree.NewRoot(title)
	addNodes(root, nodes, opts)

	if err := gtree.OutputFromRoot(w, root); err != nil {
		return fmt.Errorf("failed to render tree: %w", err)
	}

	return nil
}

// Groups writes nodes grouped by field type, one subtree per type.
func Groups(w io.Writer, title string, groups []tree.Group, opts TreeOptions) error {
	root := gtree.NewRoot(title)

	for _, g := range groups {
		label := fmt.Sprintf("%s (%d)", g.Type.Label(), len(g.Nodes))
		if opts.Color {
			label = Badge(g.Type) + " " + label
		}

		branch := root.Add(label)

		for _, n := range g.Nodes {
			branch.Add(nodeText(n, TreeOptions{Color: opts.Color, Paths: true}))
		}
	}

	if err := gtree.OutputFromRoot(w, root); err != nil {
		return fmt.Errorf("failed to render groups: %w", err)
	}

	return nil
}

func addNodes(parent *gtree.Node, nodes []*tree.Node, opts TreeOptions) {
	for _, n := range nodes {
		child := parent.Add(nodeText(n, opts))

		if opts.hides(n) {
			continue
		}

		addNodes(child, n.Children, opts)
	}
}

func nodeText(n *tree.Node, opts TreeOptions) string {
	name := n.Name()
	if opts.Paths {
		name = n.Path()
	}

	var sb strings.Builder

	if opts.Color {
		sb.WriteString(Badge(n.Field.Type))
		sb.WriteByte(' ')
	}

	sb.WriteString(name)

	if label := n.Label(); label != n.Name() {
		fmt.Fprintf(&sb, " %q", label)
	}

	tag := "[" + n.Field.Type.String() + "]"
	if opts.Color {
		tag = dimStyle.Render(tag)
	}

	sb.WriteByte(' ')
	sb.WriteString(tag)

	if opts.hides(n) && n.HasChildren() {
		sb.WriteString(" …")
	}

	return sb.String()
}

// Placeholders writes one line per placeholder with its validity.
func Placeholders(w io.Writer, b binding.Binding, color bool) error {
	header := fmt.Sprintf("%s (%s) %d placeholder(s)", b.Name, b.ModelName, len(b.Placeholders))
	if b.Dirty {
		header += " *unsaved*"
	}

	if color {
		header = headerStyle.Render(header)
	}

	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}

	for _, p := range b.Placeholders {
		if _, err := fmt.Fprintln(w, placeholderLine(p, color)); err != nil {
			return err
		}
	}

	return nil
}

func placeholderLine(p binding.Placeholder, color bool) string {
	mark, style := "·", pendingStyle

	switch p.Validity {
	case binding.Valid:
		mark, style = "✓", validStyle
	case binding.Invalid:
		mark, style = "✗", invalidStyle
	}

	line := "  " + mark + " " + fieldpath.Placeholder(p.Path)
	if p.Validity == binding.Invalid {
		line += "  " + string(p.Reason)
		if len(p.Suggestions) > 0 {
			line += " (did you mean " + strings.Join(p.Suggestions, ", ") + "?)"
		}
	}

	if color {
		return style.Render(line)
	}

	return line
}
