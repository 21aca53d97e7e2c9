package main

import (
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/cupsy/internal/cups"
	"github.com/alexisbeaulieu97/cupsy/internal/facts"
)

func newFactsCmd(root *rootFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "facts",
		Short: "Report configured printers, classes, drivers and devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := facts.ValidateFormat(output); err != nil {
				return err
			}

			client := clientFactory(cups.Options{Server: root.server, User: root.user})
			report, err := facts.Collect(cmd.Context(), client)
			if err != nil {
				return err
			}

			return facts.Render(cmd.OutOrStdout(), report, facts.Format(output))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", string(facts.FormatTable), "Output format (table, json, yaml)")

	return cmd
}
