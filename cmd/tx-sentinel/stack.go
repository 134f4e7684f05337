package main

import (
	"fmt"
	"strings"

	"github.com/devblac/tx-sentinel/internal/analyzer"
	"github.com/devblac/tx-sentinel/internal/chain"
	"github.com/devblac/tx-sentinel/internal/chain/algorand"
	"github.com/devblac/tx-sentinel/internal/chain/evm"
	"github.com/devblac/tx-sentinel/internal/config"
)

// stack bundles the per-network clients and the fetch registry built from
// config. Clients are kept by id for health checks.
type stack struct {
	registry     *chain.Registry
	evmClients   map[string]evm.TxClient
	algodClients map[string]algorand.AlgodClient
}

func buildStack(cfg *config.Config) (*stack, error) {
	st := &stack{
		registry:     chain.NewRegistry(),
		evmClients:   map[string]evm.TxClient{},
		algodClients: map[string]algorand.AlgodClient{},
	}

	for _, n := range cfg.Networks {
		switch strings.ToLower(n.Type) {
		case "evm":
			cli, err := evm.NewRPCClient(n.RPCURL)
			if err != nil {
				return nil, fmt.Errorf("network %s: %w", n.ID, err)
			}
			st.evmClients[n.ID] = cli
			if err := st.registry.Register(n.ID, evm.NewFetcher(cli, n.ID)); err != nil {
				return nil, err
			}
		case "algorand":
			algodCli, err := algorand.NewAlgodClient(n.AlgodURL)
			if err != nil {
				return nil, fmt.Errorf("network %s: %w", n.ID, err)
			}
			indexerCli, err := algorand.NewIndexerClient(n.IndexerURL)
			if err != nil {
				return nil, fmt.Errorf("network %s: %w", n.ID, err)
			}
			st.algodClients[n.ID] = algodCli
			if err := st.registry.Register(n.ID, algorand.NewFetcher(indexerCli, n.ID)); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("network %s: unsupported type %s", n.ID, n.Type)
		}
	}

	return st, nil
}

func protocolTable(cfg *config.Config) []analyzer.Protocol {
	out := make([]analyzer.Protocol, 0, len(cfg.Protocols))
	for _, p := range cfg.Protocols {
		out = append(out, analyzer.Protocol{Name: p.Name, Signatures: p.Signatures})
	}
	return out
}
