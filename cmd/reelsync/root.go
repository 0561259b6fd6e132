// Reelsync - Media Activity Import and Trakt Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomtom215/reelsync/internal/api"
	"github.com/tomtom215/reelsync/internal/config"
	"github.com/tomtom215/reelsync/internal/history"
	"github.com/tomtom215/reelsync/internal/logging"
	"github.com/tomtom215/reelsync/internal/runner"
	"github.com/tomtom215/reelsync/internal/trakt"
)

var (
	errMissingCredentials = errors.New("trakt.client_id and trakt.access_token are required")
	errHistoryDisabled    = errors.New("run history is disabled (history.enabled)")
)

// app carries what the subcommands share.
type app struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:               "reelsync",
		Short:             "Import Letterboxd and IMDb activity into Trakt",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: search "+config.ConfigPathEnvVar+" and the working directory)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		newSyncCmd(a),
		newServeCmd(a),
		newHistoryCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup(*cobra.Command, []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	a.cfg = cfg
	return nil
}

// stack is the wired sync pipeline. history is nil when run history is disabled.
type stack struct {
	runner  *runner.Runner
	history *history.Store
}

// newStack wires the pipeline. events may be nil.
func (a *app) newStack(events runner.Broadcaster) (*stack, error) {
	cfg := a.cfg
	if !cfg.Trakt.HasCredentials() {
		return nil, errMissingCredentials
	}

	client := trakt.NewCircuitBreakerClient(trakt.NewClient(cfg.Trakt))

	st := &stack{}
	opts := runner.Options{
		Config:  cfg,
		Catalog: trakt.NewCatalog(client),
		Lookup:  trakt.NewEpisodeLookup(client, cfg.Trakt.LookupCacheSize, cfg.Trakt.LookupCacheTTL),
		Events:  events,
	}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History)
		if err != nil {
			return nil, fmt.Errorf("open run history: %w", err)
		}
		st.history = store
		opts.History = store
	}

	r, err := runner.New(opts)
	if err != nil {
		st.Close()
		return nil, err
	}
	st.runner = r
	return st, nil
}

// historyReader is nil when run history is disabled.
func (st *stack) historyReader() api.HistoryReader {
	if st.history == nil {
		return nil
	}
	return st.history
}

func (st *stack) Close() {
	if st.history == nil {
		return
	}
	if err := st.history.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close run history")
	}
}
