package network

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
)

// Compile-time interface check.
var _ BlockchainService = (*RPCClient)(nil)

// btcToSat converts a coin amount as reported by the node to satoshis.
func btcToSat(btc float64) uint64 {
	return uint64(math.Round(btc * 1e8))
}

type listUnspentResult struct {
	TxID          string  `json:"txid"`
	Vout          uint32  `json:"vout"`
	Amount        float64 `json:"amount"`
	ScriptPubKey  string  `json:"scriptPubKey"`
	Address       string  `json:"address"`
	Confirmations int64   `json:"confirmations"`
}

// ListUnspent calls `listunspent 0 9999999 ["address"]`.
func (c *RPCClient) ListUnspent(ctx context.Context, address string) ([]*UTXO, error) {
	params := []interface{}{0, 9999999, []string{address}}
	var results []listUnspentResult
	if err := c.Call(ctx, "listunspent", params, &results); err != nil {
		return nil, err
	}

	utxos := make([]*UTXO, len(results))
	for i, r := range results {
		utxos[i] = &UTXO{
			TxID:          r.TxID,
			Vout:          r.Vout,
			Amount:        btcToSat(r.Amount),
			ScriptPubKey:  r.ScriptPubKey,
			Address:       r.Address,
			Confirmations: r.Confirmations,
		}
	}
	return utxos, nil
}

// BroadcastTx calls `sendrawtransaction "hex"`. Any failure wraps
// ErrBroadcastRejected.
func (c *RPCClient) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	var txid string
	if err := c.Call(ctx, "sendrawtransaction", []interface{}{rawTxHex}, &txid); err != nil {
		return "", fmt.Errorf("%w: %w", ErrBroadcastRejected, err)
	}
	return txid, nil
}

type verboseTxResult struct {
	Confirmations int64  `json:"confirmations"`
	BlockHash     string `json:"blockhash"`
	BlockHeight   uint64 `json:"blockheight"`
}

// GetTxStatus calls `getrawtransaction "txid" true`. An unknown txid
// wraps ErrTxNotFound.
func (c *RPCClient) GetTxStatus(ctx context.Context, txid string) (*TxStatus, error) {
	var result verboseTxResult
	if err := c.Call(ctx, "getrawtransaction", []interface{}{txid, true}, &result); err != nil {
		var ne *NodeError
		if errors.As(err, &ne) && ne.Code == rpcCodeInvalidAddressOrKey {
			return nil, fmt.Errorf("%w: %s: %w", ErrTxNotFound, txid, err)
		}
		return nil, err
	}
	return &TxStatus{
		Confirmed:     result.Confirmations > 0,
		Confirmations: result.Confirmations,
		BlockHash:     result.BlockHash,
		BlockHeight:   result.BlockHeight,
	}, nil
}

// ImportAddress calls `importaddress "address" "" true`, rescanning so
// existing outputs become visible to ListUnspent.
func (c *RPCClient) ImportAddress(ctx context.Context, address string) error {
	return c.Call(ctx, "importaddress", []interface{}{address, "", true}, nil)
}

// GetBlockHeader calls `getblockheader "hash" false` and decodes the hex.
func (c *RPCClient) GetBlockHeader(ctx context.Context, blockHash string) ([]byte, error) {
	var headerHex string
	if err := c.Call(ctx, "getblockheader", []interface{}{blockHash, false}, &headerHex); err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(headerHex)
	if err != nil {
		return nil, fmt.Errorf("%w: header hex: %w", ErrInvalidResponse, err)
	}
	return raw, nil
}

// GetMerkleProof calls `getmerkleproof2 "blockhash" "txid"`, which answers
// with a TSC merkle proof targeting the block hash.
func (c *RPCClient) GetMerkleProof(ctx context.Context, txid, blockHash string) (*MerkleProof, error) {
	var proof MerkleProof
	if err := c.Call(ctx, "getmerkleproof2", []interface{}{blockHash, txid}, &proof); err != nil {
		var ne *NodeError
		if errors.As(err, &ne) && ne.Code == rpcCodeInvalidAddressOrKey {
			return nil, fmt.Errorf("%w: %s: %w", ErrTxNotFound, txid, err)
		}
		return nil, err
	}
	if proof.TxID == "" {
		return nil, fmt.Errorf("%w: empty merkle proof for %s", ErrInvalidResponse, txid)
	}
	return &proof, nil
}
