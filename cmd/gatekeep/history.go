package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatekeep-ai/gatekeep/internal/history"
	"github.com/gatekeep-ai/gatekeep/internal/tui"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse past consultations",
		Long: `Browse consultations recorded in the local history database
(~/.gatekeep/history.db unless history.path is set).`,
	}

	var (
		limit       int
		personaName string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent consultations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.OpenStore(a.cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := store.List(cmd.Context(), limit, strings.ToLower(personaName))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No consultations recorded.")
				return nil
			}
			for _, c := range items {
				status := green.Sprint("ok ")
				if c.Failed() {
					status = red.Sprint("err")
				}
				fmt.Fprintf(out, "%s  %s  %s  %-12s %-10s %s\n",
					faint.Sprint(c.ID[:8]),
					c.CreatedAt.Local().Format("2006-01-02 15:04"),
					status,
					c.Kind,
					c.Persona,
					truncate(strings.ReplaceAll(c.Question, "\n", " "), 60))
			}
			return nil
		},
	}
	list.Flags().IntVarP(&limit, "limit", "n", history.DefaultListLimit, "Number of entries to show")
	list.Flags().StringVarP(&personaName, "persona", "p", "", "Only show this persona")

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Show one consultation (an ID prefix is enough)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.OpenStore(a.cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			c, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", bold.Sprint("ID:"), c.ID)
			fmt.Fprintf(out, "%s %s\n", bold.Sprint("When:"), c.CreatedAt.Local().Format(time.RFC1123))
			fmt.Fprintf(out, "%s %s\n", bold.Sprint("Kind:"), c.Kind)
			fmt.Fprintf(out, "%s %s (%s)\n", bold.Sprint("Persona:"), c.Persona, c.Model)
			fmt.Fprintf(out, "%s %s\n", bold.Sprint("Duration:"), c.Duration)
			fmt.Fprintf(out, "%s %s\n", bold.Sprint("Question:"), c.Question)
			if c.Context != "" {
				fmt.Fprintf(out, "%s %s\n", bold.Sprint("Context:"), c.Context)
			}
			fmt.Fprintln(out)

			if c.Failed() {
				fmt.Fprintln(out, red.Sprintf("Error: %s", c.Error))
				return nil
			}
			cat, err := a.openCatalog()
			if err != nil {
				return err
			}
			fmt.Fprintln(out, tui.Panel(personaTitle(cat, c.Persona), a.renderer(out).Render(c.Response), tui.Width(out)))
			return nil
		},
	}

	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete old consultations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.OpenStore(a.cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			n, err := store.Prune(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d consultations older than %s\n", n, olderThan)
			return nil
		},
	}
	prune.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Remove entries older than this")

	cmd.AddCommand(list, show, prune)
	return cmd
}
