// Package algorand fetches and normalizes transactions from Algorand via the
// indexer, with an algod client kept alongside for liveness checks.
package algorand

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/client/v2/common"
	"github.com/algorand/go-algorand-sdk/v2/client/v2/common/models"
	"github.com/algorand/go-algorand-sdk/v2/client/v2/indexer"
	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/devblac/tx-sentinel/internal/chain"
)

// statusGetter models the algod Status() fluent call.
type statusGetter interface {
	Do(ctx context.Context, headers ...*common.Header) (models.NodeStatus, error)
}

// txnLookup models the indexer LookupTransaction() fluent call.
type txnLookup interface {
	Do(ctx context.Context, headers ...*common.Header) (models.TransactionResponse, error)
}

// AlgodClient is the minimal subset of the algod client we need.
type AlgodClient interface {
	Status() statusGetter
}

// IndexerClient is the minimal subset of the indexer client we need.
type IndexerClient interface {
	LookupTransaction(txid string) txnLookup
}

// NewAlgodClient constructs a real algod client.
func NewAlgodClient(url string) (AlgodClient, error) {
	cli, err := algod.MakeClient(url, "")
	if err != nil {
		return nil, err
	}
	return &algodAdapter{c: cli}, nil
}

// NewIndexerClient constructs a real indexer client.
func NewIndexerClient(url string) (IndexerClient, error) {
	cli, err := indexer.MakeClient(url, "")
	if err != nil {
		return nil, err
	}
	return &indexerAdapter{c: cli}, nil
}

type algodAdapter struct {
	c *algod.Client
}

func (a *algodAdapter) Status() statusGetter { return a.c.Status() }

type indexerAdapter struct {
	c *indexer.Client
}

func (a *indexerAdapter) LookupTransaction(txid string) txnLookup {
	return a.c.LookupTransaction(txid)
}

// Fetcher resolves confirmed transactions on one Algorand network.
type Fetcher struct {
	indexer IndexerClient
	network string
}

// NewFetcher builds a fetcher bound to a network id.
func NewFetcher(indexerClient IndexerClient, network string) *Fetcher {
	return &Fetcher{indexer: indexerClient, network: network}
}

// Fetch looks up the transaction in the indexer and normalizes it.
// The supplied tx id is echoed back verbatim on the result.
func (f *Fetcher) Fetch(ctx context.Context, txHash string) (*chain.NormalizedTransaction, error) {
	resp, err := f.indexer.LookupTransaction(txHash).Do(ctx)
	if err != nil {
		return nil, &chain.DataSourceError{Network: f.network, Op: "transaction lookup", Err: err}
	}
	txn := resp.Transaction
	if txn.Id == "" {
		return nil, &chain.DataSourceError{Network: f.network, Op: "transaction lookup", Err: errors.New("empty transaction in response")}
	}

	norm := &chain.NormalizedTransaction{
		Hash:    txHash,
		From:    txn.Sender,
		Value:   "0",
		Unit:    "microalgo",
		GasUsed: txn.Fee,
		Status:  chain.StatusPending,
	}
	// Failed transactions never reach the ledger on Algorand, so anything
	// the indexer returns with a round is a success.
	if txn.ConfirmedRound > 0 {
		norm.Status = chain.StatusSuccess
	}

	switch txn.Type {
	case "pay":
		norm.To = txn.PaymentTransaction.Receiver
		norm.Value = fmt.Sprintf("%d", txn.PaymentTransaction.Amount)
	case "axfer":
		norm.To = txn.AssetTransferTransaction.Receiver
		norm.Value = fmt.Sprintf("%d", txn.AssetTransferTransaction.Amount)
		norm.Unit = fmt.Sprintf("asset-%d", txn.AssetTransferTransaction.AssetId)
	case "appl":
		norm.To = appAddress(txn.ApplicationTransaction.ApplicationId)
	}

	norm.Logs = normalizeLogs(txn)
	return norm, nil
}

// normalizeLogs maps application logs to the shared log shape. The emitting
// address is the application escrow address; log payloads stay opaque.
func normalizeLogs(txn models.Transaction) []chain.LogEntry {
	if len(txn.Logs) == 0 {
		return nil
	}
	addr := appAddress(txn.ApplicationTransaction.ApplicationId)
	out := make([]chain.LogEntry, 0, len(txn.Logs))
	for _, raw := range txn.Logs {
		out = append(out, chain.LogEntry{
			Address: addr,
			Data:    base64.StdEncoding.EncodeToString(raw),
		})
	}
	return out
}

func appAddress(appID uint64) string {
	if appID == 0 {
		return ""
	}
	return crypto.GetApplicationAddress(appID).String()
}
