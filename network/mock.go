package network

import "context"

// MockBlockchainService is a test double for BlockchainService.
// Unset function fields make the corresponding method return zero values.
type MockBlockchainService struct {
	ListUnspentFn   func(ctx context.Context, address string) ([]*UTXO, error)
	BroadcastTxFn   func(ctx context.Context, rawTxHex string) (string, error)
	GetTxStatusFn   func(ctx context.Context, txid string) (*TxStatus, error)
	ImportAddressFn func(ctx context.Context, address string) error

	GetBlockHeaderFn func(ctx context.Context, blockHash string) ([]byte, error)
	GetMerkleProofFn func(ctx context.Context, txid, blockHash string) (*MerkleProof, error)
}

// Compile-time interface check.
var _ BlockchainService = (*MockBlockchainService)(nil)

func (m *MockBlockchainService) ListUnspent(ctx context.Context, address string) ([]*UTXO, error) {
	if m.ListUnspentFn == nil {
		return nil, nil
	}
	return m.ListUnspentFn(ctx, address)
}

func (m *MockBlockchainService) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	if m.BroadcastTxFn == nil {
		return "", nil
	}
	return m.BroadcastTxFn(ctx, rawTxHex)
}

func (m *MockBlockchainService) GetTxStatus(ctx context.Context, txid string) (*TxStatus, error) {
	if m.GetTxStatusFn == nil {
		return &TxStatus{}, nil
	}
	return m.GetTxStatusFn(ctx, txid)
}

func (m *MockBlockchainService) ImportAddress(ctx context.Context, address string) error {
	if m.ImportAddressFn == nil {
		return nil
	}
	return m.ImportAddressFn(ctx, address)
}

func (m *MockBlockchainService) GetBlockHeader(ctx context.Context, blockHash string) ([]byte, error) {
	if m.GetBlockHeaderFn == nil {
		return nil, nil
	}
	return m.GetBlockHeaderFn(ctx, blockHash)
}

func (m *MockBlockchainService) GetMerkleProof(ctx context.Context, txid, blockHash string) (*MerkleProof, error) {
	if m.GetMerkleProofFn == nil {
		return nil, nil
	}
	return m.GetMerkleProofFn(ctx, txid, blockHash)
}
