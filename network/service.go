package network

import "context"

// BlockchainService is the node surface the treasury payout needs.
type BlockchainService interface {
	// ListUnspent returns all unspent transaction outputs for the given address.
	ListUnspent(ctx context.Context, address string) ([]*UTXO, error)

	// BroadcastTx submits a raw transaction hex to the network and returns the txid.
	BroadcastTx(ctx context.Context, rawTxHex string) (string, error)

	// GetTxStatus returns the confirmation status of a transaction.
	GetTxStatus(ctx context.Context, txid string) (*TxStatus, error)

	// ImportAddress adds a watch-only address to the node wallet so that
	// ListUnspent can see its outputs. Importing twice is harmless.
	ImportAddress(ctx context.Context, address string) error

	// GetBlockHeader returns the raw 80-byte header of a block.
	GetBlockHeader(ctx context.Context, blockHash string) ([]byte, error)

	// GetMerkleProof returns the inclusion proof of txid in blockHash.
	GetMerkleProof(ctx context.Context, txid, blockHash string) (*MerkleProof, error)
}

// UTXO represents an unspent transaction output.
type UTXO struct {
	TxID          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	Amount        uint64 `json:"amount"`        // satoshis
	ScriptPubKey  string `json:"script_pubkey"` // hex
	Address       string `json:"address"`
	Confirmations int64  `json:"confirmations"`
}

// TxStatus represents the confirmation status of a transaction.
type TxStatus struct {
	Confirmed     bool   `json:"confirmed"`
	Confirmations int64  `json:"confirmations"`
	BlockHash     string `json:"block_hash"`
	BlockHeight   uint64 `json:"block_height"`
}

// MerkleProof is a merkle branch as the node reports it. Hashes are display
// hex; a "*" node duplicates the running hash.
type MerkleProof struct {
	Index     uint64   `json:"index"`
	TxID      string   `json:"txOrId"`
	BlockHash string   `json:"target"`
	Nodes     []string `json:"nodes"`
}
