package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gatekeep-ai/gatekeep/internal/tui"
)

func newPersonasCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "personas",
		Short: "List available personas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.openCatalog()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.PersonasTable(cat.Personas()))
			return nil
		},
	}
}
