// Package analyzer turns a normalized transaction into a classification and
// a bounded risk assessment. The engine behind the Analyzer contract is
// rule-based today and swappable for a model-backed scorer later.
package analyzer

import (
	"context"
	"fmt"

	"github.com/devblac/tx-sentinel/internal/chain"
)

// Transaction classification tags.
const (
	TxTypeTransfer = "TRANSFER"
	TxTypeDEXSwap  = "DEX_SWAP"
)

// Result is the assessment issued for one transaction.
type Result struct {
	TxHash      string
	Network     string
	TxType      string
	Protocol    string
	RiskScore   float64
	RiskReasons []string
	Explanation string
}

// Analyzer scores a fetched transaction. Implementations must be safe for
// concurrent use and deterministic over identical inputs.
type Analyzer interface {
	Analyze(ctx context.Context, network, txHash string, tx *chain.NormalizedTransaction) (*Result, error)
}

// AnalysisError is a server fault inside the scoring engine, distinct from
// any fault in the input data.
type AnalysisError struct {
	Err error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("risk engine: %v", e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }
