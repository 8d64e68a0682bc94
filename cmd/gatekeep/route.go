package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gatekeep-ai/gatekeep/internal/persona"
)

func newRouteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "route QUESTION...",
		Short: "Ask Guide which persona to talk to",
		Long: `Ask Guide to route your question to the right persona. Routing is by
keyword and makes no model call.

Example:
  gatekeep route "I need help with security"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")

			cat, err := a.openCatalog()
			if err != nil {
				return err
			}
			// Routing never calls the model, so no client is needed.
			engine := persona.New(cat, nil, persona.WithLogger(a.logger))

			out := cmd.OutOrStdout()
			fmt.Fprint(out, "\n🧭 Guide is thinking...\n\n")

			name := engine.Route(question)
			fmt.Fprintf(out, "Guide says: \"Talk to %s about that.\"\n\n", personaTitle(cat, name))
			fmt.Fprintln(out, faint.Sprintf("Run: gatekeep ask %s %q", name, question))
			return nil
		},
	}
}
