package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gatekeep-ai/gatekeep/internal/tui"
)

func newAskCmd(a *app) *cobra.Command {
	var contextText string

	cmd := &cobra.Command{
		Use:   "ask PERSONA QUESTION...",
		Short: "Ask a persona a question",
		Long: `Ask a persona a question.

Examples:
  gatekeep ask sentinel "Is this IAM policy secure?"
  gatekeep ask auditor "What will this Lambda cost?"
  gatekeep ask architect "Should I use DynamoDB or RDS?"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.ToLower(args[0])
			question := strings.Join(args[1:], " ")

			cat, err := a.openCatalog()
			if err != nil {
				return err
			}
			p, err := lookupPersona(cmd, cat, name)
			if err != nil {
				return err
			}

			engine, closeEngine, err := a.openEngine(cat)
			if err != nil {
				return err
			}
			defer closeEngine()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n%s Consulting %s...\n\n", tui.Emoji(p), p.DisplayName())

			answer, err := withSpinner(cmd.Context(), a, cmd, "Consulting "+p.DisplayName(), func(ctx context.Context) (string, error) {
				return engine.Consult(ctx, name, question, contextText)
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(out, tui.Panel(tui.PersonaTitle(p), a.renderer(out).Render(answer), tui.Width(out)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&contextText, "context", "c", "", "Additional context")
	return cmd
}
