package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gatekeep-ai/gatekeep/internal/catalog"
	"github.com/gatekeep-ai/gatekeep/internal/prompt"
	"github.com/gatekeep-ai/gatekeep/internal/tui"
)

func newStandardsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "standards",
		Short: "Manage regulatory standards",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show status of installed standards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.openCatalog()
			if err != nil {
				return err
			}
			versions, err := cat.Versions()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.StandardsTable(versions))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show ID",
		Short: "Print a standard's controls as they appear in persona prompts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.openCatalog()
			if err != nil {
				return err
			}
			std, err := cat.Standard(args[0])
			if err != nil {
				return fmt.Errorf("standard %s: %w", args[0], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), prompt.FormatStandards([]*catalog.Standard{std}))
			return nil
		},
	})

	return cmd
}
