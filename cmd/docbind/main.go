// Package main provides the CLI entrypoint for docbind.
//
// docbind binds report templates to business models:
//   - Browses the fields reachable from a model as a tree
//   - Tracks which {{field.path}} placeholders a template uses
//   - Validates placeholders against the model schema
//   - Stores templates and their mappings in SQLite
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set during build with -ldflags.
var version = "dev"

type globalFlags struct {
	config string
	output string
	color  bool
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "docbind",
		Short: "Bind DOCX report templates to business model fields",
		Long: `docbind manages report templates whose {{field.path}} placeholders are
resolved against a business model. It lists the fields of a model, tracks the
placeholders each template uses and validates them against the schema.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return checkFormat(flags.output)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "configuration file (default $DOCBIND_CONFIG or ./docbind.yaml)")
	cmd.PersistentFlags().StringVarP(&flags.output, "output", "o", formatText, "output format (text, yaml, json)")
	cmd.PersistentFlags().BoolVar(&flags.color, "color", false, "colorize text output")

	cmd.AddCommand(
		newModelsCommand(flags),
		newFieldsCommand(flags),
		newTemplateCommand(flags),
		newCopyCommand(flags),
	)

	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
