// Package evm fetches and normalizes transactions from EVM chains over
// JSON-RPC.
package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/devblac/tx-sentinel/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// TxClient captures the subset of ethclient used by the fetcher.
type TxClient interface {
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// RPCClient is a thin wrapper over ethclient.Client that satisfies TxClient.
type RPCClient struct {
	*ethclient.Client
}

// NewRPCClient builds an RPC client to an EVM node.
func NewRPCClient(rpcURL string) (*RPCClient, error) {
	c, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial evm rpc: %w", err)
	}
	return &RPCClient{Client: c}, nil
}

// Fetcher resolves transactions on one EVM network.
type Fetcher struct {
	client  TxClient
	network string
}

// NewFetcher builds a fetcher bound to a network id.
func NewFetcher(client TxClient, network string) *Fetcher {
	return &Fetcher{client: client, network: network}
}

// Fetch looks up the transaction and its receipt and normalizes both.
// The supplied hash is echoed back verbatim on the result.
func (f *Fetcher) Fetch(ctx context.Context, txHash string) (*chain.NormalizedTransaction, error) {
	hash := common.HexToHash(txHash)

	tx, pending, err := f.client.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, &chain.DataSourceError{Network: f.network, Op: "transaction lookup", Err: err}
	}

	norm := &chain.NormalizedTransaction{
		Hash:  txHash,
		From:  senderOf(tx),
		To:    recipientOf(tx),
		Value: tx.Value().String(),
		Unit:  "wei",
	}

	if pending {
		norm.Status = chain.StatusPending
		return norm, nil
	}

	receipt, err := f.client.TransactionReceipt(ctx, hash)
	if err != nil {
		return nil, &chain.DataSourceError{Network: f.network, Op: "receipt lookup", Err: err}
	}

	norm.GasUsed = receipt.GasUsed
	norm.Status = chain.StatusFailure
	if receipt.Status == types.ReceiptStatusSuccessful {
		norm.Status = chain.StatusSuccess
	}

	norm.Logs = make([]chain.LogEntry, 0, len(receipt.Logs))
	for _, lg := range receipt.Logs {
		norm.Logs = append(norm.Logs, normalizeLog(lg))
	}

	return norm, nil
}

func normalizeLog(lg *types.Log) chain.LogEntry {
	topics := make([]string, 0, len(lg.Topics))
	for _, t := range lg.Topics {
		topics = append(topics, t.Hex())
	}
	return chain.LogEntry{
		Address: lg.Address.Hex(),
		Topics:  topics,
		Data:    hexutil.Encode(lg.Data),
	}
}

// senderOf recovers the signer address; unsigned transactions (which only
// appear in tests) yield an empty sender.
func senderOf(tx *types.Transaction) string {
	signer := types.LatestSignerForChainID(tx.ChainId())
	from, err := types.Sender(signer, tx)
	if err != nil {
		return ""
	}
	return from.Hex()
}

func recipientOf(tx *types.Transaction) string {
	if to := tx.To(); to != nil {
		return to.Hex()
	}
	// contract creation
	return ""
}
