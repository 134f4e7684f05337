package analyzer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/devblac/tx-sentinel/internal/chain"
)

// Signal weights. The sum can exceed 1; scores are clamped.
const (
	weightFailedExecution = 0.40
	weightUnconfirmed     = 0.10
	weightDEXInteraction  = 0.20
	weightDenseLogs       = 0.15
	weightZeroValueCall   = 0.10

	denseLogThreshold = 8
)

// Protocol is one named on-chain application with its address signatures.
type Protocol struct {
	Name       string
	Signatures []string
}

// DefaultProtocols is the built-in signature set used when the config
// provides none.
func DefaultProtocols() []Protocol {
	return []Protocol{
		{Name: "Uniswap", Signatures: []string{"Uniswap"}},
		{Name: "SushiSwap", Signatures: []string{"SushiSwap", "Sushi"}},
		{Name: "Curve", Signatures: []string{"Curve"}},
		{Name: "PancakeSwap", Signatures: []string{"PancakeSwap", "Pancake"}},
		{Name: "Balancer", Signatures: []string{"Balancer"}},
		{Name: "Tinyman", Signatures: []string{"Tinyman", "TINYMAN"}},
	}
}

// Engine is the rule-based Analyzer. It holds only its protocol table, so a
// single instance serves all requests concurrently.
type Engine struct {
	protocols []Protocol
}

// NewEngine builds an engine with the given protocol table, falling back to
// the built-in defaults when empty.
func NewEngine(protocols []Protocol) *Engine {
	if len(protocols) == 0 {
		protocols = DefaultProtocols()
	}
	return &Engine{protocols: protocols}
}

// Analyze classifies the transaction, scores it, and renders the
// explanation. Output is deterministic: the same input yields byte-identical
// results.
func (e *Engine) Analyze(_ context.Context, network, txHash string, tx *chain.NormalizedTransaction) (*Result, error) {
	if tx == nil {
		return nil, &AnalysisError{Err: errors.New("nil transaction")}
	}

	txType := TxTypeTransfer
	protocol := ""
	matched, found := e.detectProtocol(tx.Logs)
	if found {
		txType = TxTypeDEXSwap
		protocol = matched.Name + " (detected heuristically)"
	}

	score, reasons := e.score(tx, matched, found)
	if score < 0 || score > 1 {
		return nil, &AnalysisError{Err: fmt.Errorf("score %f out of range", score)}
	}
	if len(reasons) == 0 {
		return nil, &AnalysisError{Err: errors.New("empty reasons")}
	}

	return &Result{
		TxHash:      txHash,
		Network:     network,
		TxType:      txType,
		Protocol:    protocol,
		RiskScore:   score,
		RiskReasons: reasons,
		Explanation: e.explain(network, txHash, txType, matched, found, score),
	}, nil
}

// detectProtocol scans logs in sequence order and returns the first protocol
// whose signature appears in an emitting address. Matching is case-sensitive
// substring; the earliest log entry wins ties.
func (e *Engine) detectProtocol(logs []chain.LogEntry) (Protocol, bool) {
	for _, lg := range logs {
		for _, p := range e.protocols {
			for _, sig := range p.Signatures {
				if strings.Contains(lg.Address, sig) {
					return p, true
				}
			}
		}
	}
	return Protocol{}, false
}

// score evaluates the static signal list in a fixed order so reasons come
// out in evidentiary order.
func (e *Engine) score(tx *chain.NormalizedTransaction, matched Protocol, dex bool) (float64, []string) {
	score := 0.0
	var reasons []string

	switch tx.Status {
	case chain.StatusFailure:
		score += weightFailedExecution
		reasons = append(reasons, "transaction execution failed on-chain")
	case chain.StatusPending:
		score += weightUnconfirmed
		reasons = append(reasons, "transaction is not yet confirmed")
	}

	if dex {
		score += weightDEXInteraction
		reasons = append(reasons, fmt.Sprintf("log emitted by an address matching the %s signature", matched.Name))
	}

	if n := len(tx.Logs); n >= denseLogThreshold {
		score += weightDenseLogs
		reasons = append(reasons, fmt.Sprintf("dense log activity (%d entries)", n))
	}

	if isZeroValue(tx.Value) && len(tx.Logs) > 0 {
		score += weightZeroValueCall
		reasons = append(reasons, "zero-value transaction with contract activity")
	}

	if score > 1.0 {
		score = 1.0
	}
	score = math.Round(score*1000) / 1000

	if len(reasons) == 0 {
		reasons = []string{"no anomalies detected by current heuristics"}
	}
	return score, reasons
}

func (e *Engine) explain(network, txHash, txType string, matched Protocol, dex bool, score float64) string {
	if dex {
		return fmt.Sprintf(
			"Transaction %s on %s emitted a log attributed to %s and is classified as %s. Heuristic risk score: %.3f.",
			txHash, network, matched.Name, txType, score)
	}
	return fmt.Sprintf(
		"Transaction %s on %s matched no known protocol signatures and is classified as %s. Heuristic risk score: %.3f.",
		txHash, network, txType, score)
}

// isZeroValue treats an empty or unparseable value as zero only when it is
// literally empty; otherwise the parsed amount decides.
func isZeroValue(v string) bool {
	if v == "" {
		return true
	}
	n, ok := new(big.Int).SetString(v, 10)
	if !ok {
		return false
	}
	return n.Sign() == 0
}
