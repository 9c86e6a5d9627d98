package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"docbind/internal/present"
	"docbind/internal/schema"
	"docbind/internal/tree"
)

func newModelsCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models templates can be bound to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, false, func(a *app) error {
				names := a.models.ModelNames()

				return output(a.out, flags.output, names, func() error {
					for _, name := range names {
						if _, err := fmt.Fprintln(a.out, name); err != nil {
							return err
						}
					}

					return nil
				})
			})
		},
	}
}

type fieldsOptions struct {
	search    string
	group     bool
	depth     int
	collapsed bool
	expand    []string
}

// fieldsResult is the structured output of the fields command.
type fieldsResult struct {
	Model   string                   `json:"model" yaml:"model"`
	Fields  []schema.FieldDescriptor `json:"fields" yaml:"fields"`
	Orphans []string                 `json:"orphans,omitempty" yaml:"orphans,omitempty"`
}

func newFieldsCommand(flags *globalFlags) *cobra.Command {
	opts := &fieldsOptions{}

	cmd := &cobra.Command{
		Use:   "fields <model>",
		Short: "Show the fields reachable from a model",
		Long: `Show the fields reachable from a model as a tree. Many2one relations are
expanded up to the configured depth.

Examples:
  # Full tree
  docbind fields sale.order

  # Only branches matching "email"
  docbind fields sale.order --search email

  # Top-level fields grouped by type
  docbind fields sale.order --group`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, false, func(a *app) error {
				return runFields(cmd, a, args[0], opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.search, "search", "s", "", "show only branches matching the query")
	cmd.Flags().BoolVarP(&opts.group, "group", "g", false, "group top-level fields by type")
	cmd.Flags().IntVarP(&opts.depth, "depth", "d", -1, "relation depth (default from config)")
	cmd.Flags().BoolVar(&opts.collapsed, "collapsed", false, "show top-level fields only")
	cmd.Flags().StringSliceVar(&opts.expand, "expand", nil, "with --collapsed, show the children of these paths")

	return cmd
}

func runFields(cmd *cobra.Command, a *app, model string, opts *fieldsOptions) error {
	depth := a.cfg.MaxDepth
	if opts.depth >= 0 {
		depth = opts.depth
	}

	res, err := a.models.ModelFields(cmd.Context(), model, a.cfg.IncludeRelated, depth)
	if err != nil {
		return err
	}

	forest := tree.BuildModel(model, res.Fields)
	if n := forest.OrphanCount(); n > 0 {
		a.logger.Warn("fields without a parent are hidden", "model", model, "count", n)
	}

	for _, path := range opts.expand {
		if !forest.SetExpanded(path, true) {
			a.logger.Warn("cannot expand unknown field", "model", model, "path", path)
		}
	}

	nodes := forest.Roots()
	if opts.search != "" {
		nodes = forest.Filter(opts.search)
	}

	result := fieldsResult{Model: model}
	tree.Walk(nodes, func(n *tree.Node) bool {
		result.Fields = append(result.Fields, n.Field)
		return true
	})

	for _, n := range forest.Orphans() {
		result.Orphans = append(result.Orphans, n.Path())
	}

	return output(a.out, a.flags.output, result, func() error {
		treeOpts := present.TreeOptions{
			Color:     a.flags.color,
			Collapsed: opts.collapsed,
			Expanded:  forest.IsExpanded,
		}

		if opts.group {
			return present.Groups(a.out, model, tree.GroupByType(nodes), treeOpts)
		}

		if opts.search != "" {
			// Matches are shown with their ancestors, so expand everything.
			treeOpts.Collapsed = false
		}

		return present.Forest(a.out, model, nodes, treeOpts)
	})
}
