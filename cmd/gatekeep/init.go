package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gatekeep-ai/gatekeep/internal/scaffold"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize Gatekeep in the current project",
		Long: `Copy the bundled personas/, governance/ and standards/ into the current
directory and create gatekeep.yaml and .env.example. Existing files and
directories are left untouched, so init is safe to re-run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return err
			}

			steps, err := scaffold.Init(cwd)
			out := cmd.OutOrStdout()
			for _, s := range steps {
				printStep(out, s)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "\n🎯 Gatekeep initialized. Set your OPENROUTER_API_KEY and run %s.\n", bold.Sprint("gatekeep personas"))
			return nil
		},
	}
}
