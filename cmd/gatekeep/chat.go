package main

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/gatekeep-ai/gatekeep/internal/catalog"
	"github.com/gatekeep-ai/gatekeep/internal/tui"
)

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session",
		Long: `Start an interactive session. Each question is routed to a persona by
keyword unless one is pinned with /ask <persona>. When the catalog is a
project directory, edits to personas, governance and standards are picked
up without restarting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.openCatalog()
			if err != nil {
				return err
			}
			engine, closeEngine, err := a.openEngine(cat)
			if err != nil {
				return err
			}
			defer closeEngine()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			notify := make(chan tea.Msg, 1)
			go func() {
				err := cat.Watch(ctx, func(err error) {
					select {
					case notify <- tui.CatalogReloadedMsg{Err: err}:
					case <-ctx.Done():
					}
				})
				if err != nil && !errors.Is(err, catalog.ErrNotWatchable) {
					a.logger.Warn("catalog watch stopped", "error", err)
				}
			}()

			out := cmd.OutOrStdout()
			tui.PrintBanner(out)
			return tui.RunChat(ctx, engine, a.renderer(out), notify)
		},
	}
}
