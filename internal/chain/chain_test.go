package chain

import (
	"context"
	"errors"
	"testing"
)

type stubFetcher struct {
	tx  *NormalizedTransaction
	err error
}

func (s *stubFetcher) Fetch(_ context.Context, txHash string) (*NormalizedTransaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	cp := *s.tx
	cp.Hash = txHash
	return &cp, nil
}

func TestRegistryDispatch(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("ethereum-mainnet", &stubFetcher{tx: &NormalizedTransaction{Status: StatusSuccess}}); err != nil {
		t.Fatalf("register: %v", err)
	}

	tx, err := reg.Fetch(context.Background(), "ethereum-mainnet", "0xabc123")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if tx.Hash != "0xabc123" {
		t.Errorf("hash = %s, want 0xabc123", tx.Hash)
	}
}

func TestRegistryUnsupportedNetwork(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("ethereum-mainnet", &stubFetcher{tx: &NormalizedTransaction{}}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := reg.Fetch(context.Background(), "unsupported-chain", "0xabc123")
	var unsupported *UnsupportedNetworkError
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected UnsupportedNetworkError, got %v", err)
	}
	if unsupported.Network != "unsupported-chain" {
		t.Errorf("network = %s, want unsupported-chain", unsupported.Network)
	}
}

func TestRegistryEmptyTxHash(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("ethereum-mainnet", &stubFetcher{tx: &NormalizedTransaction{}}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := reg.Fetch(context.Background(), "ethereum-mainnet", "")
	if !errors.Is(err, ErrEmptyTxHash) {
		t.Fatalf("expected ErrEmptyTxHash, got %v", err)
	}
}

func TestRegistryDuplicateAndNil(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("a", &stubFetcher{tx: &NormalizedTransaction{}}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("a", &stubFetcher{tx: &NormalizedTransaction{}}); err == nil {
		t.Error("expected duplicate network error")
	}
	if err := reg.Register("b", nil); err == nil {
		t.Error("expected nil fetcher error")
	}
	if err := reg.Register("", &stubFetcher{tx: &NormalizedTransaction{}}); err == nil {
		t.Error("expected empty id error")
	}
}

func TestRegistryNetworksSorted(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"zeta", "alpha", "mid"} {
		if err := reg.Register(id, &stubFetcher{tx: &NormalizedTransaction{}}); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}
	got := reg.Networks()
	want := []string{"alpha", "mid", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("networks = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("networks[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestDataSourceErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &DataSourceError{Network: "ethereum-mainnet", Op: "transaction lookup", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("cause not unwrapped")
	}
}
