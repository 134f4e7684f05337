package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/devblac/tx-sentinel/internal/analyzer"
	"github.com/devblac/tx-sentinel/internal/config"
	"github.com/devblac/tx-sentinel/internal/logging"
	"github.com/devblac/tx-sentinel/internal/pipeline"
	"github.com/devblac/tx-sentinel/internal/storage"
	"github.com/spf13/cobra"
)

var (
	flagNetwork string
	flagTx      string
	flagJSON    bool
)

func init() {
	analyzeCmd.Flags().StringVar(&flagNetwork, "network", "", "Network id (as configured)")
	analyzeCmd.Flags().StringVar(&flagTx, "tx", "", "Transaction hash")
	analyzeCmd.Flags().BoolVar(&flagJSON, "json", false, "Print the result as JSON")
	_ = analyzeCmd.MarkFlagRequired("network")
	_ = analyzeCmd.MarkFlagRequired("tx")
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Fetch and analyze a single transaction",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.New()
		out := cmd.OutOrStdout()

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		var store *storage.Store
		if cfg.Global.DBPath != "" {
			store, err = storage.Open(cfg.Global.DBPath)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer store.Close()
		}

		st, err := buildStack(cfg)
		if err != nil {
			return err
		}

		engine := analyzer.NewEngine(protocolTable(cfg))
		pipe := pipeline.New(st.registry, engine, store, nil, log)

		res, err := pipe.Run(cmd.Context(), flagNetwork, flagTx)
		if err != nil {
			return err
		}

		if flagJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		fmt.Fprintf(out, "tx:        %s\n", res.TxHash)
		fmt.Fprintf(out, "network:   %s\n", res.Network)
		fmt.Fprintf(out, "type:      %s\n", res.TxType)
		if res.Protocol != "" {
			fmt.Fprintf(out, "protocol:  %s\n", res.Protocol)
		}
		fmt.Fprintf(out, "risk:      %.3f\n", res.RiskScore)
		fmt.Fprintf(out, "reasons:   %s\n", strings.Join(res.RiskReasons, "; "))
		fmt.Fprintf(out, "%s\n", res.Explanation)
		return nil
	},
}
