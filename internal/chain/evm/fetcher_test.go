package evm

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/devblac/tx-sentinel/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

type fakeClient struct {
	tx       *types.Transaction
	pending  bool
	receipt  *types.Receipt
	txErr    error
	rcptErr  error
	chainErr error
}

func (f *fakeClient) TransactionByHash(_ context.Context, _ common.Hash) (*types.Transaction, bool, error) {
	if f.txErr != nil {
		return nil, false, f.txErr
	}
	return f.tx, f.pending, nil
}

func (f *fakeClient) TransactionReceipt(_ context.Context, _ common.Hash) (*types.Receipt, error) {
	if f.rcptErr != nil {
		return nil, f.rcptErr
	}
	return f.receipt, nil
}

func (f *fakeClient) ChainID(_ context.Context) (*big.Int, error) {
	if f.chainErr != nil {
		return nil, f.chainErr
	}
	return big.NewInt(1), nil
}

func signedTx(t *testing.T, value int64) (*types.Transaction, common.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	to := common.HexToAddress("0x0000000000000000000000000000000000000002")
	signer := types.LatestSignerForChainID(big.NewInt(1))
	tx := types.MustSignNewTx(key, signer, &types.DynamicFeeTx{
		ChainID:   big.NewInt(1),
		Nonce:     0,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(100),
		Gas:       21000,
		To:        &to,
		Value:     big.NewInt(value),
	})
	return tx, crypto.PubkeyToAddress(key.PublicKey)
}

func TestFetchConfirmedTransaction(t *testing.T) {
	tx, from := signedTx(t, 1500)
	logAddr := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	fc := &fakeClient{
		tx: tx,
		receipt: &types.Receipt{
			Status:  types.ReceiptStatusSuccessful,
			GasUsed: 21000,
			Logs: []*types.Log{
				{
					Address: logAddr,
					Topics:  []common.Hash{common.HexToHash("0x01")},
					Data:    []byte{0xde, 0xad},
				},
			},
		},
	}

	f := NewFetcher(fc, "ethereum-mainnet")
	norm, err := f.Fetch(context.Background(), "0xabc123")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if norm.Hash != "0xabc123" {
		t.Errorf("hash = %s, want the supplied hash echoed back", norm.Hash)
	}
	if norm.From != from.Hex() {
		t.Errorf("from = %s, want %s", norm.From, from.Hex())
	}
	if norm.To != "0x0000000000000000000000000000000000000002" {
		t.Errorf("to = %s", norm.To)
	}
	if norm.Value != "1500" || norm.Unit != "wei" {
		t.Errorf("value = %s %s", norm.Value, norm.Unit)
	}
	if norm.GasUsed != 21000 {
		t.Errorf("gas_used = %d", norm.GasUsed)
	}
	if norm.Status != chain.StatusSuccess {
		t.Errorf("status = %s", norm.Status)
	}
	if len(norm.Logs) != 1 {
		t.Fatalf("logs = %d", len(norm.Logs))
	}
	if norm.Logs[0].Address != logAddr.Hex() {
		t.Errorf("log address = %s", norm.Logs[0].Address)
	}
	if norm.Logs[0].Data != "0xdead" {
		t.Errorf("log data = %s", norm.Logs[0].Data)
	}
}

func TestFetchFailedTransaction(t *testing.T) {
	tx, _ := signedTx(t, 0)
	fc := &fakeClient{
		tx:      tx,
		receipt: &types.Receipt{Status: types.ReceiptStatusFailed, GasUsed: 30000},
	}

	f := NewFetcher(fc, "ethereum-mainnet")
	norm, err := f.Fetch(context.Background(), "0xabc123")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if norm.Status != chain.StatusFailure {
		t.Errorf("status = %s, want %s", norm.Status, chain.StatusFailure)
	}
	if len(norm.Logs) != 0 {
		t.Errorf("logs = %d, want none", len(norm.Logs))
	}
}

func TestFetchPendingTransaction(t *testing.T) {
	tx, _ := signedTx(t, 10)
	fc := &fakeClient{
		tx:      tx,
		pending: true,
		rcptErr: errors.New("receipt should not be requested for pending tx"),
	}

	f := NewFetcher(fc, "ethereum-mainnet")
	norm, err := f.Fetch(context.Background(), "0xabc123")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if norm.Status != chain.StatusPending {
		t.Errorf("status = %s, want %s", norm.Status, chain.StatusPending)
	}
	if norm.GasUsed != 0 || len(norm.Logs) != 0 {
		t.Errorf("pending tx should carry no receipt data: gas=%d logs=%d", norm.GasUsed, len(norm.Logs))
	}
}

func TestFetchRPCErrors(t *testing.T) {
	tx, _ := signedTx(t, 10)
	tests := []struct {
		name string
		fc   *fakeClient
	}{
		{"lookup_fails", &fakeClient{txErr: errors.New("connection refused")}},
		{"receipt_fails", &fakeClient{tx: tx, rcptErr: errors.New("not found")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFetcher(tt.fc, "ethereum-mainnet")
			_, err := f.Fetch(context.Background(), "0xabc123")
			var source *chain.DataSourceError
			if !errors.As(err, &source) {
				t.Fatalf("expected DataSourceError, got %v", err)
			}
			if source.Network != "ethereum-mainnet" {
				t.Errorf("network = %s", source.Network)
			}
		})
	}
}
