// Package pipeline composes the fetch and analyze stages for one request.
package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/devblac/tx-sentinel/internal/analyzer"
	"github.com/devblac/tx-sentinel/internal/chain"
	"github.com/devblac/tx-sentinel/internal/metrics"
	"github.com/devblac/tx-sentinel/internal/storage"
)

// Pipeline runs fetch then analyze for each request. It holds no per-request
// state; one instance serves all requests concurrently.
type Pipeline struct {
	registry *chain.Registry
	analyzer analyzer.Analyzer
	store    *storage.Store
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// New wires the pipeline. store and mtr may be nil to disable auditing and
// instrumentation.
func New(registry *chain.Registry, az analyzer.Analyzer, store *storage.Store, mtr *metrics.Metrics, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		registry: registry,
		analyzer: az,
		store:    store,
		metrics:  mtr,
		log:      log,
	}
}

// Run fetches the transaction and, only on success, analyzes it. The fetch
// error kinds pass through untouched so callers can branch on them.
func (p *Pipeline) Run(ctx context.Context, network, txHash string) (*analyzer.Result, error) {
	p.metrics.RequestReceived()

	tx, err := p.registry.Fetch(ctx, network, txHash)
	if err != nil {
		p.metrics.FetchError()
		return nil, err
	}

	res, err := p.analyzer.Analyze(ctx, network, txHash, tx)
	if err != nil {
		p.metrics.AnalysisError()
		return nil, err
	}

	p.metrics.AssessmentIssued(res.TxType)
	p.audit(ctx, res)
	return res, nil
}

// audit records the assessment best-effort; a storage failure never fails
// the request.
func (p *Pipeline) audit(ctx context.Context, res *analyzer.Result) {
	if p.store == nil {
		return
	}
	payload, err := json.Marshal(res)
	if err != nil {
		p.log.Warn("marshal assessment", "error", err)
		return
	}
	rec := storage.Assessment{
		Network:     res.Network,
		TxHash:      res.TxHash,
		TxType:      res.TxType,
		Protocol:    res.Protocol,
		RiskScore:   res.RiskScore,
		PayloadJSON: string(payload),
	}
	if err := p.store.InsertAssessment(ctx, rec); err != nil {
		p.log.Warn("audit assessment", "tx", res.TxHash, "error", err)
	}
}
