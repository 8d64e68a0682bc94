package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gatekeep-ai/gatekeep/internal/version"
)

var (
	red    = color.New(color.FgRed)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	bold   = color.New(color.Bold)
	faint  = color.New(color.Faint)
)

// newRootCmd builds the command tree around a.
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   version.Name,
		Short: "AI governance with specialized personas",
		Long: `Gatekeep routes questions to specialized AI personas (security, cost,
architecture, testing, deployment) whose answers are grounded in your
organization's governance rules and regulatory standards.

Personas, governance and standards are read from ./personas, ./governance
and ./standards when the project has been initialised with 'gatekeep init',
and from the bundled defaults otherwise.`,
		Version:       version.Get(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetVersionTemplate("{{.Name}}, version {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&a.catalogDir, "catalog-dir", "", "Read personas, governance and standards from this directory")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.BoolVar(&a.noHistory, "no-history", false, "Do not record consultations")

	root.AddCommand(
		newAskCmd(a),
		newReviewCmd(a),
		newDeployCmd(a),
		newRouteCmd(a),
		newPersonasCmd(a),
		newStandardsCmd(a),
		newInitCmd(a),
		newConfigCmd(a),
		newHistoryCmd(a),
		newChatCmd(a),
		newMCPCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	root := newRootCmd(newApp())
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(root.ErrOrStderr(), red.Sprintf("Error: %v", err))
		}
		os.Exit(1)
	}
}
