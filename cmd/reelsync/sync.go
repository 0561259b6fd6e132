// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/reelsync/internal/config"
	"github.com/tomtom215/reelsync/internal/reconcile"
)

var errRunCancelled = errors.New("sync cancelled")

func newSyncCmd(a *app) *cobra.Command {
	var (
		dryRun    bool
		batchSize int
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:       "sync <site>",
		Short:     "Run one sync from a site export into Trakt",
		Long:      "Run one sync from a site export into Trakt.\n\nSites: letterboxd, imdb. Interrupt to cancel at the next page boundary.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: config.Sites,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("dry-run") {
				a.cfg.Sync.DryRun = dryRun
			}
			if batchSize > 0 {
				a.cfg.Sync.BatchSize = batchSize
			}

			st, err := a.newStack(nil)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report, err := st.runner.Run(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if err := writeJSON(out, report); err != nil {
					return err
				}
			} else {
				printReport(out, report)
			}
			if report.Cancelled {
				return errRunCancelled
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "filter and report without writing to Trakt")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "override sync.batch_size")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func printReport(w io.Writer, r *reconcile.Report) {
	state := r.Stage.String()
	if r.DryRun {
		state += " (dry run)"
	}
	fmt.Fprintf(w, "Run %s  site=%s  %s  in %s\n\n", r.RunID, r.Site, state, r.Duration.Round(time.Millisecond))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "INTENT\tCATEGORY\tLOCAL\tUNRESOLVED\tPRESENT\tSUPPRESSED\tTO SYNC\tPAGES\tACCEPTED\tNOT FOUND\tFAILED\t")
	for _, s := range r.Steps {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t\n",
			s.Intent, s.Category, s.Candidates, s.Unresolved, s.AlreadyPresent,
			s.SuppressedWatched, s.ToSync, s.Pages, s.Accepted, s.NotFound, s.Failed)
	}
	t := r.Totals()
	fmt.Fprintf(tw, "total\t\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t\n",
		t.Candidates, t.Unresolved, t.AlreadyPresent, t.SuppressedWatched,
		t.ToSync, t.Pages, t.Accepted, t.NotFound, t.Failed)
	_ = tw.Flush()
}
