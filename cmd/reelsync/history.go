// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/reelsync/internal/history"
	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/reconcile"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show stored run reports",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.cfg.History.Enabled {
				return errHistoryDisabled
			}
			store, err := history.Open(a.cfg.History)
			if err != nil {
				return fmt.Errorf("open run history: %w", err)
			}
			defer func() {
				if cerr := store.Close(); cerr != nil {
					logging.Warn().Err(cerr).Msg("Failed to close run history")
				}
			}()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				report, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(out, report)
				}
				printReport(out, report)
				return nil
			}

			reports, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, reports)
			}
			printHistory(out, reports)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func printHistory(w io.Writer, reports []reconcile.Report) {
	if len(reports) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSITE\tSTARTED\tSTAGE\tTO SYNC\tACCEPTED\tFAILED PAGES")
	for i := range reports {
		r := &reports[i]
		t := r.Totals()
		stage := r.Stage.String()
		if r.DryRun {
			stage += " (dry run)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			r.RunID, r.Site, r.StartedAt.Local().Format(time.DateTime), stage, t.ToSync, t.Accepted, t.Failed)
	}
	_ = tw.Flush()
}
