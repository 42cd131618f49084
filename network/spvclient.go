package network

import (
	"context"
	"fmt"
	"strings"

	"github.com/bsv-blockchain/go-sdk/chainhash"

	"github.com/bitfsorg/libmint-go/logging"
	"github.com/bitfsorg/libmint-go/spv"
)

// VerifyResult is the outcome of an SPV check.
type VerifyResult struct {
	Confirmed   bool
	BlockHash   string
	BlockHeight uint64
}

// SPVClient checks the node's confirmation claims against block headers
// and merkle proofs instead of trusting them.
type SPVClient struct {
	chain   BlockchainService
	headers *spv.HeaderStore
}

// NewSPVClient returns a client that caches verified headers in headers.
func NewSPVClient(chain BlockchainService, headers *spv.HeaderStore) *SPVClient {
	return &SPVClient{chain: chain, headers: headers}
}

// VerifyTx proves txid is in the block the node says confirms it. An
// unconfirmed transaction is reported as such, not as an error.
func (s *SPVClient) VerifyTx(ctx context.Context, txid string) (*VerifyResult, error) {
	status, err := s.chain.GetTxStatus(ctx, txid)
	if err != nil {
		return nil, err
	}
	if !status.Confirmed {
		return &VerifyResult{}, nil
	}

	blockHash, err := chainhash.NewHashFromHex(status.BlockHash)
	if err != nil {
		return nil, fmt.Errorf("%w: block hash %q: %w", ErrInvalidResponse, status.BlockHash, err)
	}
	header, err := s.header(ctx, *blockHash, status.BlockHeight)
	if err != nil {
		return nil, err
	}

	raw, err := s.chain.GetMerkleProof(ctx, txid, status.BlockHash)
	if err != nil {
		return nil, err
	}
	proof, err := decodeProof(raw)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(proof.TxID.String(), txid) {
		return nil, fmt.Errorf("%w: proof is for %s, not %s", spv.ErrMerkleProofInvalid, proof.TxID, txid)
	}
	if err := proof.Verify(header.MerkleRoot); err != nil {
		return nil, err
	}

	logging.Debug(logging.CatPayout, "spv verified", "txid", txid, "block", status.BlockHash, "height", status.BlockHeight)
	return &VerifyResult{Confirmed: true, BlockHash: status.BlockHash, BlockHeight: status.BlockHeight}, nil
}

// header returns the stored header for hash, fetching, checking and
// storing it on first use.
func (s *SPVClient) header(ctx context.Context, hash chainhash.Hash, height uint64) (*spv.StoredHeader, error) {
	if h, err := s.headers.Get(hash); err == nil {
		return h, nil
	}
	raw, err := s.chain.GetBlockHeader(ctx, hash.String())
	if err != nil {
		return nil, err
	}
	parsed, err := spv.ParseHeader(raw)
	if err != nil {
		return nil, err
	}
	if got := parsed.Hash(); !got.IsEqual(&hash) {
		return nil, fmt.Errorf("%w: node returned header %s for %s", spv.ErrInvalidHeader, got, hash)
	}
	h := &spv.StoredHeader{BlockHeader: *parsed, Height: height}
	if err := s.headers.Put(h); err != nil {
		return nil, err
	}
	return h, nil
}

func decodeProof(p *MerkleProof) (*spv.MerkleProof, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: no merkle proof", ErrInvalidResponse)
	}
	txid, err := chainhash.NewHashFromHex(p.TxID)
	if err != nil {
		return nil, fmt.Errorf("%w: proof txid %q: %w", ErrInvalidResponse, p.TxID, err)
	}
	out := &spv.MerkleProof{TxID: *txid, Index: p.Index, Nodes: make([]*chainhash.Hash, len(p.Nodes))}
	for i, n := range p.Nodes {
		if n == "*" {
			continue
		}
		if out.Nodes[i], err = chainhash.NewHashFromHex(n); err != nil {
			return nil, fmt.Errorf("%w: proof node %d: %w", ErrInvalidResponse, i, err)
		}
	}
	return out, nil
}
