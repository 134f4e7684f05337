package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/devblac/tx-sentinel/internal/analyzer"
	"github.com/devblac/tx-sentinel/internal/chain"
	"github.com/devblac/tx-sentinel/internal/storage"
)

type stubFetcher struct {
	tx  *chain.NormalizedTransaction
	err error
}

func (s *stubFetcher) Fetch(_ context.Context, txHash string) (*chain.NormalizedTransaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	cp := *s.tx
	cp.Hash = txHash
	return &cp, nil
}

type countingAnalyzer struct {
	inner analyzer.Analyzer
	calls int
}

func (c *countingAnalyzer) Analyze(ctx context.Context, network, txHash string, tx *chain.NormalizedTransaction) (*analyzer.Result, error) {
	c.calls++
	return c.inner.Analyze(ctx, network, txHash, tx)
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
		_ = os.RemoveAll(dir)
	})
	return store
}

func uniswapTx() *chain.NormalizedTransaction {
	return &chain.NormalizedTransaction{
		From:   "0x0000000000000000000000000000000000000001",
		To:     "0x0000000000000000000000000000000000000002",
		Value:  "1500000000000000000",
		Unit:   "wei",
		Status: chain.StatusSuccess,
		Logs: []chain.LogEntry{
			{Address: "0xUniswapV3Pool0000000000000000000000000000", Topics: []string{"0x01"}, Data: "0x"},
		},
	}
}

func TestRunDEXSwapEndToEnd(t *testing.T) {
	store := newTestStore(t)
	reg := chain.NewRegistry()
	if err := reg.Register("ethereum-mainnet", &stubFetcher{tx: uniswapTx()}); err != nil {
		t.Fatalf("register: %v", err)
	}

	p := New(reg, analyzer.NewEngine(nil), store, nil, nil)
	res, err := p.Run(context.Background(), "ethereum-mainnet", "0xabc123")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if res.TxType != analyzer.TxTypeDEXSwap {
		t.Errorf("tx_type = %s, want %s", res.TxType, analyzer.TxTypeDEXSwap)
	}
	if res.Protocol == "" {
		t.Error("protocol not set for DEX swap")
	}
	if res.RiskScore < 0 || res.RiskScore > 1 {
		t.Errorf("risk_score %f out of range", res.RiskScore)
	}
	if !strings.Contains(res.Explanation, "0xabc123") || !strings.Contains(res.Explanation, "ethereum-mainnet") {
		t.Errorf("explanation missing correlation fields: %s", res.Explanation)
	}

	rows, err := store.RecentAssessments(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent assessments: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("audit rows = %d, want 1", len(rows))
	}
	if rows[0].TxHash != "0xabc123" || rows[0].TxType != analyzer.TxTypeDEXSwap {
		t.Errorf("audit row = %+v", rows[0])
	}
}

func TestRunUnsupportedNetworkSkipsAnalyzer(t *testing.T) {
	reg := chain.NewRegistry()
	if err := reg.Register("ethereum-mainnet", &stubFetcher{tx: uniswapTx()}); err != nil {
		t.Fatalf("register: %v", err)
	}
	counting := &countingAnalyzer{inner: analyzer.NewEngine(nil)}

	p := New(reg, counting, nil, nil, nil)
	_, err := p.Run(context.Background(), "unsupported-chain", "0xabc123")

	var unsupported *chain.UnsupportedNetworkError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedNetworkError, got %v", err)
	}
	if unsupported.Network != "unsupported-chain" {
		t.Errorf("network = %s", unsupported.Network)
	}
	if counting.calls != 0 {
		t.Errorf("analyzer invoked %d times after failed fetch", counting.calls)
	}
}

func TestRunEmptyLogsIsTransfer(t *testing.T) {
	reg := chain.NewRegistry()
	plain := &chain.NormalizedTransaction{
		From:   "0x01",
		To:     "0x02",
		Value:  "100",
		Unit:   "wei",
		Status: chain.StatusSuccess,
	}
	if err := reg.Register("ethereum-mainnet", &stubFetcher{tx: plain}); err != nil {
		t.Fatalf("register: %v", err)
	}

	p := New(reg, analyzer.NewEngine(nil), nil, nil, nil)
	res, err := p.Run(context.Background(), "ethereum-mainnet", "0xfeed")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.TxType != analyzer.TxTypeTransfer {
		t.Errorf("tx_type = %s, want %s", res.TxType, analyzer.TxTypeTransfer)
	}
	if res.Protocol != "" {
		t.Errorf("protocol = %q, want unset", res.Protocol)
	}
	if len(res.RiskReasons) == 0 {
		t.Error("risk_reasons is empty")
	}
}

func TestRunDataSourceErrorPassesThrough(t *testing.T) {
	reg := chain.NewRegistry()
	cause := errors.New("rpc unreachable")
	if err := reg.Register("ethereum-mainnet", &stubFetcher{err: &chain.DataSourceError{Network: "ethereum-mainnet", Op: "transaction lookup", Err: cause}}); err != nil {
		t.Fatalf("register: %v", err)
	}

	p := New(reg, analyzer.NewEngine(nil), nil, nil, nil)
	_, err := p.Run(context.Background(), "ethereum-mainnet", "0xabc123")

	var source *chain.DataSourceError
	if !errors.As(err, &source) {
		t.Fatalf("expected DataSourceError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not preserved through pipeline")
	}
}

func TestRunAuditFailureDoesNotFailRequest(t *testing.T) {
	store := newTestStore(t)
	_ = store.Close() // force audit writes to fail

	reg := chain.NewRegistry()
	if err := reg.Register("ethereum-mainnet", &stubFetcher{tx: uniswapTx()}); err != nil {
		t.Fatalf("register: %v", err)
	}

	p := New(reg, analyzer.NewEngine(nil), store, nil, nil)
	res, err := p.Run(context.Background(), "ethereum-mainnet", "0xabc123")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res == nil {
		t.Fatal("nil result")
	}
}
