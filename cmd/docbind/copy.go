package main

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"docbind/internal/fieldpath"
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

func newCopyCommand(flags *globalFlags) *cobra.Command {
	var templateID string

	cmd := &cobra.Command{
		Use:   "copy <path>",
		Short: "Copy a {{path}} placeholder to the clipboard",
		Long: `Copy a {{path}} placeholder to the clipboard, ready to paste into a
DOCX template. With --template the placeholder is also tracked by that
template.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if templateID == "" {
				p, err := fieldpath.Parse(args[0])
				if err != nil {
					return err
				}

				return copyText(cmd, fieldpath.Placeholder(p.String()))
			}

			return withApp(cmd, flags, true, func(a *app) error {
				ctx := cmd.Context()

				t, err := a.load(ctx, templateID)
				if err != nil {
					return err
				}

				if _, err := t.Add(ctx, args[0]); err != nil {
					return err
				}

				text, err := t.Copy(ctx, args[0])
				if err != nil {
					return err
				}

				if _, err := a.persist(ctx, t); err != nil {
					return err
				}

				return copyText(cmd, text)
			})
		},
	}

	cmd.Flags().StringVarP(&templateID, "template", "t", "", "also track the placeholder in this template")

	return cmd
}

func copyText(cmd *cobra.Command, text string) error {
	if err := writeClipboard(text); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}

	_, err := fmt.Fprintln(cmd.OutOrStdout(), text)

	return err
}
