package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const sampleConfig = `version: 1

server:
  listen: ":8080"
  request_timeout: "15s"

global:
  db_path: "tx-sentinel.db"

networks:
  - id: ethereum-mainnet
    type: evm
    rpc_url: ${ETH_RPC_URL}
  - id: algorand-mainnet
    type: algorand
    algod_url: https://mainnet-api.algonode.cloud
    indexer_url: https://mainnet-idx.algonode.cloud

# Optional; the built-in signature table is used when omitted.
# protocols:
#   - name: Uniswap
#     signatures: ["Uniswap"]
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgPath); err == nil {
			return fmt.Errorf("refusing to overwrite existing %s", cfgPath)
		}
		if err := os.WriteFile(cfgPath, []byte(sampleConfig), 0o644); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", cfgPath)
		return nil
	},
}
