package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smallnest/trendreport/config"
	"github.com/smallnest/trendreport/state"
)

var auditFlags struct {
	runID    string
	store    string
	storeDSN string
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List the checkpoints saved for a run",
	RunE:  runAudit,
}

func init() {
	f := auditCmd.Flags()
	f.StringVar(&auditFlags.runID, "run-id", "", "Run id (required)")
	f.StringVar(&auditFlags.store, "store", "file", "Checkpoint backend: file, sqlite, redis or postgres")
	f.StringVar(&auditFlags.storeDSN, "store-dsn", "", "Directory, file, address or connection string of the store")

	_ = auditCmd.MarkFlagRequired("run-id")
}

func runAudit(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cps, closeStore, err := openStore(ctx, config.Store{Backend: auditFlags.store, DSN: auditFlags.storeDSN})
	if err != nil {
		return fmt.Errorf("open %s store: %w", auditFlags.store, err)
	}
	defer closeStore()
	if cps == nil {
		return fmt.Errorf("store backend %q keeps no checkpoints", auditFlags.store)
	}

	list, err := cps.List(ctx, auditFlags.runID)
	if err != nil {
		return fmt.Errorf("list checkpoints: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintf(out, "No checkpoints for run %s\n", auditFlags.runID)
		return nil
	}
	fmt.Fprintf(out, "Run %s: %d checkpoints\n", auditFlags.runID, len(list))
	for _, cp := range list {
		fmt.Fprintf(out, "  %3d  %-32s %s\n", cp.Version, cp.NodeName, cp.Timestamp.Format(time.RFC3339))
	}

	var last state.RunState
	if err := list[len(list)-1].DecodeState(&last); err != nil {
		return fmt.Errorf("decode latest checkpoint: %w", err)
	}
	fmt.Fprintf(out, "Latest: export %s, %d references, %d recovered errors\n",
		last.ExportState, len(last.Evidence), len(last.Errors))
	return nil
}
