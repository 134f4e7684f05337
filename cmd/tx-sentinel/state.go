package main

import (
	"errors"
	"fmt"

	"github.com/devblac/tx-sentinel/internal/config"
	"github.com/devblac/tx-sentinel/internal/storage"
	"github.com/spf13/cobra"
)

var flagLimit int

func init() {
	stateCmd.Flags().IntVar(&flagLimit, "limit", 20, "Maximum number of assessments to show")
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show recent assessments from the audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cfg.Global.DBPath == "" {
			return errors.New("global.db_path is not configured; audit trail disabled")
		}

		store, err := storage.Open(cfg.Global.DBPath)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer store.Close()

		rows, err := store.RecentAssessments(cmd.Context(), flagLimit)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			fmt.Fprintln(out, "no assessments recorded")
			return nil
		}

		for _, a := range rows {
			proto := a.Protocol
			if proto == "" {
				proto = "-"
			}
			fmt.Fprintf(out, "%s  %-18s %-10s %.3f  %s  %s\n",
				a.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
				a.Network, a.TxType, a.RiskScore, proto, a.TxHash)
		}
		return nil
	},
}
