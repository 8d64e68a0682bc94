package main

import (
	"github.com/spf13/cobra"

	"github.com/gatekeep-ai/gatekeep/internal/mcp"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the Model Context Protocol server on stdio",
		Long: `Serve gatekeep's personas as MCP tools (ask, team_review,
deployment_gate, route_question, list_personas) over stdin/stdout, for
use by editor agents. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Spinners would corrupt the JSON-RPC stream.
			a.cfg.Output.Spinner = false

			cat, err := a.openCatalog()
			if err != nil {
				return err
			}
			engine, closeEngine, err := a.openEngine(cat)
			if err != nil {
				return err
			}
			defer closeEngine()

			a.logger.Info("starting MCP server (stdio)", "catalog", cat.Source())
			return mcp.NewServer(engine, a.logger).ServeStdio()
		},
	}
}
