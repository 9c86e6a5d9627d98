package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"docbind/internal/binding"
	"docbind/internal/diagnostic"
	"docbind/internal/docx"
	"docbind/internal/fieldpath"
	"docbind/internal/present"
	"docbind/internal/schema"
	"docbind/internal/store"
)

func newTemplateCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"tpl"},
		Short:   "Manage report templates and their placeholders",
	}

	cmd.AddCommand(
		newTemplateCreateCommand(flags),
		newTemplateListCommand(flags),
		newTemplateShowCommand(flags),
		newTemplateUploadCommand(flags),
		newTemplateParseCommand(flags),
		newTemplateEditCommand(flags, "add", "Add placeholders to a template", addPaths),
		newTemplateEditCommand(flags, "remove", "Remove placeholders from a template", removePaths),
		newTemplateMetaCommand(flags),
		newTemplateSaveCommand(flags),
		newTemplateValidateCommand(flags),
		newTemplateDownloadCommand(flags),
	)

	return cmd
}

type createOptions struct {
	file     string
	scaffold bool
}

func newTemplateCreateCommand(flags *globalFlags) *cobra.Command {
	opts := &createOptions{}

	cmd := &cobra.Command{
		Use:   "create <name> <model>",
		Short: "Create a template bound to a model",
		Long: `Create a template bound to a model, optionally with a document.

With --file the DOCX is stored and its placeholders are tracked. With
--scaffold a document listing every top-level field of the model is
generated instead.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, true, func(a *app) error {
				return runCreate(cmd.Context(), a, args[0], args[1], opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "DOCX file to attach")
	cmd.Flags().BoolVar(&opts.scaffold, "scaffold", false, "generate a document with the model's fields")
	cmd.MarkFlagsMutuallyExclusive("file", "scaffold")

	return cmd
}

func runCreate(ctx context.Context, a *app, name, model string, opts *createOptions) error {
	res, err := a.models.ModelFields(ctx, model, false, 0)
	if err != nil {
		return err
	}

	record := store.Record{Name: name, ModelName: model}

	switch {
	case opts.file != "":
		payload, filename, err := readTemplateFile(opts.file, a.cfg.Extensions)
		if err != nil {
			return err
		}

		record.Payload, record.Filename = payload, filename

	case opts.scaffold:
		b := docx.NewBuilder().Paragraph(name)
		for _, f := range res.Fields {
			b.Paragraph(f.Label+": ", fieldpath.Placeholder(f.Path))
		}

		payload, err := b.Bytes()
		if err != nil {
			return err
		}

		record.Payload, record.Filename = payload, name+docx.Extension
	}

	id, err := a.store.Create(ctx, record)
	if err != nil {
		return err
	}

	t, err := a.load(ctx, id)
	if err != nil {
		return err
	}

	b, err := a.persist(ctx, t)
	if err != nil {
		return err
	}

	return showBinding(a, b)
}

func readTemplateFile(path string, extensions []string) ([]byte, string, error) {
	filename := filepath.Base(path)
	if !docx.HasExtension(filename, extensions...) {
		return nil, "", fmt.Errorf("%w: %s, expected one of %v", schema.ErrUnsupportedFormat, filename, extensions)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read template file: %w", err)
	}

	payload, err := docx.DecodePayload(data)
	if err != nil {
		return nil, "", err
	}

	return payload, filename, nil
}

func newTemplateListCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored templates",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, true, func(a *app) error {
				records, err := a.store.List(cmd.Context())
				if err != nil {
					return err
				}

				return output(a.out, flags.output, records, func() error {
					tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tNAME\tMODEL\tFILE\tPLACEHOLDERS")

					for _, r := range records {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
							r.ID, r.Name, r.ModelName, r.Filename, len(store.DecodeMapping(r.Mapping)))
					}

					return tw.Flush()
				})
			})
		},
	}
}

func newTemplateShowCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a template's placeholders and their validity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, true, func(a *app) error {
				ctx := cmd.Context()

				t, err := a.load(ctx, args[0])
				if err != nil {
					return err
				}

				for _, p := range t.Binding().Paths() {
					if _, err := t.Validate(ctx, p); err != nil {
						return err
					}
				}

				return showBinding(a, t.Binding())
			})
		},
	}
}

func showBinding(a *app, b binding.Binding) error {
	return output(a.out, a.flags.output, b, func() error {
		return present.Placeholders(a.out, b, a.flags.color)
	})
}

func newTemplateUploadCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <id> <file>",
		Short: "Replace a template's document",
		Long: `Replace a template's document and track the placeholders it contains.
Placeholders already tracked are kept even when the new document no longer
uses them; remove them explicitly.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, true, func(a *app) error {
				ctx := cmd.Context()

				data, err := os.ReadFile(args[1])
				if err != nil {
					return fmt.Errorf("failed to read template file: %w", err)
				}

				t, err := a.load(ctx, args[0])
				if err != nil {
					return err
				}

				if _, err := t.ReplaceTemplateFile(ctx, filepath.Base(args[1]), data); err != nil {
					return err
				}

				b, err := a.persist(ctx, t)
				if err != nil {
					return err
				}

				return showBinding(a, b)
			})
		},
	}
}

// parseResult is the structured output of the parse command.
type parseResult struct {
	docx.Result `yaml:",inline"`

	Added []string `json:"added" yaml:"added"`
	Stale []string `json:"stale,omitempty" yaml:"stale,omitempty"`
}

func newTemplateParseCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <id>",
		Short: "Re-read a template's document and track new placeholders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, true, func(a *app) error {
				ctx := cmd.Context()

				doc, err := a.parser.ParseTemplate(ctx, args[0])
				if err != nil {
					return err
				}

				t, err := a.load(ctx, args[0])
				if err != nil {
					return err
				}

				added, err := t.Parse(ctx)
				if err != nil {
					return err
				}

				if _, err := a.persist(ctx, t); err != nil {
					return err
				}

				res := parseResult{Result: doc, Added: added, Stale: t.Stale()}

				return output(a.out, flags.output, res, func() error {
					return printParse(a, res)
				})
			})
		},
	}
}

func printParse(a *app, res parseResult) error {
	s := res.Structure

	fmt.Fprintf(a.out, "%d placeholder(s), %d paragraph(s), %d table(s), %d section(s)\n",
		res.FieldCount, s.ParagraphCount, s.TableCount, s.SectionCount)

	for _, tbl := range s.Tables {
		loop := ""
		if tbl.HasLoop {
			loop = " loop"
		}

		fmt.Fprintf(a.out, "  table %d: %dx%d%s\n", tbl.Index, tbl.Rows, tbl.Cols, loop)
	}

	for _, p := range res.Added {
		fmt.Fprintf(a.out, "+ %s\n", fieldpath.Placeholder(p))
	}

	for _, p := range res.Stale {
		fmt.Fprintf(a.out, "? %s not in document\n", fieldpath.Placeholder(p))
	}

	return nil
}

type editFunc func(ctx context.Context, t *binding.Tracker, paths []string) error

func addPaths(ctx context.Context, t *binding.Tracker, paths []string) error {
	for _, p := range paths {
		if _, err := t.Add(ctx, p); err != nil {
			return err
		}
	}

	return nil
}

func removePaths(_ context.Context, t *binding.Tracker, paths []string) error {
	for _, p := range paths {
		if _, err := t.Remove(p); err != nil {
			return err
		}
	}

	return nil
}

func newTemplateEditCommand(flags *globalFlags, use, short string, edit editFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id> <path>...",
		Short: short,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, true, func(a *app) error {
				ctx := cmd.Context()

				t, err := a.load(ctx, args[0])
				if err != nil {
					return err
				}

				if err := edit(ctx, t, args[1:]); err != nil {
					return err
				}

				b, err := a.persist(ctx, t)
				if err != nil {
					return err
				}

				return showBinding(a, b)
			})
		},
	}
}

func newTemplateSaveCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "save <id>",
		Short: "Rewrite a template's stored mapping",
		Long: `Load a template, merge the placeholders of its document and write the
mapping back even when nothing changed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, true, func(a *app) error {
				ctx := cmd.Context()

				t, err := a.load(ctx, args[0])
				if err != nil {
					return err
				}

				b, err := t.Save(ctx)
				if err != nil {
					return err
				}

				return showBinding(a, b)
			})
		},
	}
}

// errInvalidTemplate is returned by validate when placeholders do not resolve.
var errInvalidTemplate = errors.New("template has invalid placeholders")

func newTemplateValidateCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <id>",
		Short: "Check every placeholder against the model schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, true, func(a *app) error {
				ctx := cmd.Context()

				t, err := a.load(ctx, args[0])
				if err != nil {
					return err
				}

				diags, err := t.ValidateAll(ctx)
				if err != nil {
					return err
				}

				if err := output(a.out, flags.output, diags, func() error {
					return printDiagnostics(a, diags)
				}); err != nil {
					return err
				}

				if !diags.IsValid() {
					return errInvalidTemplate
				}

				return nil
			})
		},
	}
}

func printDiagnostics(a *app, diags diagnostic.Diagnostics) error {
	for _, d := range diags.Errors {
		if _, err := fmt.Fprintln(a.out, "error:", d.String()); err != nil {
			return err
		}
	}

	for _, d := range diags.Warnings {
		if _, err := fmt.Fprintln(a.out, "warning:", d.String()); err != nil {
			return err
		}
	}

	if diags.IsValid() {
		_, err := fmt.Fprintln(a.out, "all placeholders resolve")
		return err
	}

	return nil
}
