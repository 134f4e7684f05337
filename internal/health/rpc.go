package health

import (
	"context"
	"fmt"

	"github.com/devblac/tx-sentinel/internal/chain/algorand"
	"github.com/devblac/tx-sentinel/internal/chain/evm"
)

// RPCChecker combines liveness checks over every configured chain client.
type RPCChecker struct {
	evmClients   map[string]evm.TxClient
	algodClients map[string]algorand.AlgodClient
}

// NewRPCChecker creates a checker for multiple network clients.
func NewRPCChecker(evmClients map[string]evm.TxClient, algodClients map[string]algorand.AlgodClient) *RPCChecker {
	return &RPCChecker{
		evmClients:   evmClients,
		algodClients: algodClients,
	}
}

// Ping checks all configured RPC endpoints and reports the last failure.
func (c *RPCChecker) Ping(ctx context.Context) error {
	var lastErr error
	for id, cli := range c.evmClients {
		if _, err := cli.ChainID(ctx); err != nil {
			lastErr = fmt.Errorf("evm network %s: %w", id, err)
			continue
		}
	}
	for id, cli := range c.algodClients {
		if _, err := cli.Status().Do(ctx); err != nil {
			lastErr = fmt.Errorf("algorand network %s: %w", id, err)
			continue
		}
	}
	return lastErr
}
