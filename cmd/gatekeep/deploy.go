package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gatekeep-ai/gatekeep/internal/persona"
	"github.com/gatekeep-ai/gatekeep/internal/tui"
	"github.com/gatekeep-ai/gatekeep/pkg/models"
)

func newDeployCmd(a *app) *cobra.Command {
	var (
		envName     string
		contextText string
	)

	cmd := &cobra.Command{
		Use:   "deploy PLAN...",
		Short: "Run a deployment gate check",
		Long: `Run a deployment gate. The cost and security checks run concurrently,
then the environment's approver (Guardian for production, Tester
otherwise) decides with the check results as context.

Example:
  gatekeep deploy "New API version 2.0" --env production`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := models.ParseEnvironment(envName)
			if err != nil {
				return err
			}
			plan := strings.Join(args, " ")

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
			upper := strings.ToUpper(string(env))
			fmt.Fprintf(out, "\n🚀 Running Deployment Gate for %s...\n\n", upper)

			result, err := withSpinner(cmd.Context(), a, cmd, "Running gate checks", func(ctx context.Context) (*persona.GateResult, error) {
				return engine.DeploymentGate(ctx, plan, env, contextText)
			})
			if err != nil {
				return err
			}

			r := a.renderer(out)
			width := tui.Width(out)
			fmt.Fprintf(out, "%s\n\n", bold.Sprint("Pre-Deployment Checks:"))
			for _, c := range result.Checks {
				fmt.Fprintln(out, tui.Panel(personaTitle(cat, c.Persona), r.Render(c.Text()), width))
			}

			fmt.Fprintf(out, "\n%s\n\n", bold.Sprintf("Approval Decision (%s):", upper))
			fmt.Fprintln(out, tui.Panel(personaTitle(cat, result.Approver), r.Render(result.Approval), width))
			return nil
		},
	}

	cmd.Flags().StringVarP(&envName, "env", "e", "", "Target environment (test, production)")
	cmd.Flags().StringVarP(&contextText, "context", "c", "", "Additional context")
	_ = cmd.MarkFlagRequired("env")
	return cmd
}
