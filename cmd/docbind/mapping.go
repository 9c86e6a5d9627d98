package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"docbind/internal/binding"
	"docbind/internal/docx"
	"docbind/internal/schema"
	"docbind/internal/store"
)

type metaOptions struct {
	name        string
	format      string
	def         string
	required    bool
	sequence    int
	description string
}

func newTemplateMetaCommand(flags *globalFlags) *cobra.Command {
	opts := &metaOptions{}

	cmd := &cobra.Command{
		Use:   "meta <id> [path]",
		Short: "Show or edit how placeholders are rendered",
		Long: `Show the field mappings of a template, or of one placeholder.

Any flag given changes the mapping of path; the others keep their values.`,
		Example: `  docbind template meta 3f2a
  docbind template meta 3f2a date_order --format %d/%m/%Y --default -
  docbind template meta 3f2a partner_id.email --required --sequence 5`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, true, func(a *app) error {
				return runMeta(cmd, a, args, opts)
			})
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.format, "format", "", "value format, e.g. %Y-%m-%d")
	cmd.Flags().StringVar(&opts.def, "default", "", "value used when the field is empty")
	cmd.Flags().BoolVar(&opts.required, "required", false, "report empty values as errors")
	cmd.Flags().IntVar(&opts.sequence, "sequence", store.DefaultSequence, "processing order")
	cmd.Flags().StringVar(&opts.description, "description", "", "notes about the field")

	return cmd
}

func runMeta(cmd *cobra.Command, a *app, args []string, opts *metaOptions) error {
	ctx := cmd.Context()

	t, err := a.load(ctx, args[0])
	if err != nil {
		return err
	}

	if len(args) == 2 {
		path := args[1]

		p, ok := findPlaceholder(t.Binding(), path)
		if !ok {
			return fmt.Errorf("%w: placeholder %s is not tracked", schema.ErrNotFound, path)
		}

		meta := p.FieldMeta
		set := cmd.Flags().Changed

		if set("name") {
			meta.FieldName = opts.name
		}

		if set("format") {
			meta.FormatString = opts.format
		}

		if set("default") {
			meta.DefaultValue = opts.def
		}

		if set("required") {
			meta.Required = opts.required
		}

		if set("sequence") {
			meta.Sequence = opts.sequence
		}

		if set("description") {
			meta.Description = opts.description
		}

		if _, err := t.SetMeta(path, meta); err != nil {
			return err
		}
	}

	b, err := a.persist(ctx, t)
	if err != nil {
		return err
	}

	var mappings []store.FieldMapping

	for _, p := range b.Placeholders {
		if len(args) == 2 && p.Path != args[1] {
			continue
		}

		mappings = append(mappings, p.Mapping())
	}

	store.SortMappings(mappings)

	return output(a.out, a.flags.output, mappings, func() error {
		tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SEQ\tPATH\tNAME\tTYPE\tFORMAT\tDEFAULT\tREQUIRED")

		for _, m := range mappings {
			required := ""
			if m.Required {
				required = "yes"
			}

			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				m.Sequence, m.Path, m.FieldName, m.FieldType, m.FormatString, m.DefaultValue, required)
		}

		return tw.Flush()
	})
}

func findPlaceholder(b binding.Binding, path string) (binding.Placeholder, bool) {
	for _, p := range b.Placeholders {
		if p.Path == path {
			return p, true
		}
	}

	return binding.Placeholder{}, false
}

// downloadResult is the structured output of the download command.
type downloadResult struct {
	TemplateID string `json:"template_id" yaml:"template_id"`
	File       string `json:"file" yaml:"file"`
	Size       int    `json:"size" yaml:"size"`
}

func newTemplateDownloadCommand(flags *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "download <id> [file]",
		Short: "Write a template's document to a file",
		Long: `Write a template's stored document to file. Without file the stored
filename is used, or the template name with a .docx extension.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, true, func(a *app) error {
				rec, err := a.store.Read(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				if len(rec.Payload) == 0 {
					return fmt.Errorf("%w: template %s has no document", schema.ErrNotFound, rec.ID)
				}

				target := downloadName(rec)
				if len(args) == 2 {
					target = args[1]
				}

				if !force {
					if _, err := os.Stat(target); err == nil {
						return fmt.Errorf("%s already exists, use --force to overwrite", target)
					}
				}

				if err := os.WriteFile(target, rec.Payload, 0o644); err != nil {
					return fmt.Errorf("failed to write template file: %w", err)
				}

				res := downloadResult{TemplateID: rec.ID, File: target, Size: len(rec.Payload)}

				return output(a.out, flags.output, res, func() error {
					_, err := fmt.Fprintf(a.out, "wrote %s (%d bytes)\n", res.File, res.Size)
					return err
				})
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}

func downloadName(rec store.Record) string {
	if rec.Filename != "" {
		return filepath.Base(rec.Filename)
	}

	name := strings.TrimSpace(rec.Name)
	if name == "" {
		name = rec.ID
	}

	return name + docx.Extension
}
