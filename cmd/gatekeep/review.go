package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gatekeep-ai/gatekeep/internal/persona"
	"github.com/gatekeep-ai/gatekeep/internal/tui"
)

func newReviewCmd(a *app) *cobra.Command {
	var contextText string

	cmd := &cobra.Command{
		Use:   "review CONTENT...",
		Short: "Run a team review (Auditor + Sentinel + Architect in parallel)",
		Long: `Run a team review. Every persona in the team_review workflow reviews
the content concurrently; one persona failing does not stop the others.

Example:
  gatekeep review "My deployment plan for the new API"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content := strings.Join(args, " ")

			cat, err := a.openCatalog()
			if err != nil {
				return err
			}
			engine, closeEngine, err := a.openEngine(cat)
			if err != nil {
				return err
			}
			defer closeEngine()

			out := cmd.OutOrStdout()
			fmt.Fprint(out, "\n🎯 Running Gatekeep Team Review...\n\n")

			findings, _ := withSpinner(cmd.Context(), a, cmd, "Reviewing", func(ctx context.Context) ([]persona.Finding, error) {
				return engine.TeamReview(ctx, content, contextText), nil
			})

			r := a.renderer(out)
			for _, f := range findings {
				fmt.Fprintln(out, tui.Panel(personaTitle(cat, f.Persona), r.Render(f.Text()), tui.Width(out)))
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&contextText, "context", "c", "", "Additional context")
	return cmd
}
