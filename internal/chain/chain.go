// Package chain defines the chain-agnostic transaction contract shared by
// all network fetchers, and the registry that dispatches fetch calls to the
// adapter configured for a network.
package chain

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Status is the execution outcome of a transaction.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusPending Status = "pending"
)

// LogEntry is one emitted log in sequence order. Topics and Data are opaque
// to this layer; protocol-specific decoding happens downstream, if at all.
type LogEntry struct {
	Address string
	Topics  []string
	Data    string
}

// NormalizedTransaction is the uniform shape every fetcher produces.
// Constructed fresh per request and treated as immutable by consumers.
type NormalizedTransaction struct {
	Hash    string
	From    string
	To      string
	Value   string
	Unit    string
	GasUsed uint64
	Status  Status
	Logs    []LogEntry
}

// Fetcher resolves a transaction hash on one network family.
type Fetcher interface {
	Fetch(ctx context.Context, txHash string) (*NormalizedTransaction, error)
}

// ErrEmptyTxHash rejects requests before any outbound call is made.
var ErrEmptyTxHash = errors.New("tx hash is required")

// UnsupportedNetworkError is a client-input fault: the network is not in the
// registry's supported set. Never retryable.
type UnsupportedNetworkError struct {
	Network string
}

func (e *UnsupportedNetworkError) Error() string {
	return fmt.Sprintf("unsupported network: %s", e.Network)
}

// DataSourceError is an operational fault: the chain data source was
// unreachable or returned something we could not use. Retryable by callers.
type DataSourceError struct {
	Network string
	Op      string
	Err     error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source %s: %s: %v", e.Network, e.Op, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// Registry maps network identifiers to their fetch adapters. Built once at
// startup; read-only and safe for concurrent use afterwards.
type Registry struct {
	fetchers map[string]Fetcher
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{fetchers: map[string]Fetcher{}}
}

// Register adds a fetcher for a network id.
func (r *Registry) Register(network string, f Fetcher) error {
	if network == "" {
		return errors.New("network id is required")
	}
	if f == nil {
		return fmt.Errorf("network %s: nil fetcher", network)
	}
	if _, exists := r.fetchers[network]; exists {
		return fmt.Errorf("duplicate network: %s", network)
	}
	r.fetchers[network] = f
	return nil
}

// Networks lists registered network ids in stable order.
func (r *Registry) Networks() []string {
	out := make([]string, 0, len(r.fetchers))
	for id := range r.fetchers {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Fetch dispatches to the fetcher registered for the network.
func (r *Registry) Fetch(ctx context.Context, network, txHash string) (*NormalizedTransaction, error) {
	f, ok := r.fetchers[network]
	if !ok {
		return nil, &UnsupportedNetworkError{Network: network}
	}
	if txHash == "" {
		return nil, ErrEmptyTxHash
	}
	return f.Fetch(ctx, txHash)
}
