package spv

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"
)

// MerkleProof is a merkle branch for one transaction, bottom-up. A nil node
// means the sibling is a duplicate of the running hash, which happens at the
// odd end of a tree level.
type MerkleProof struct {
	TxID  chainhash.Hash
	Index uint64
	Nodes []*chainhash.Hash
}

// Root folds the branch into the merkle root it commits to.
func (p *MerkleProof) Root() (chainhash.Hash, error) {
	hash := p.TxID
	index := p.Index
	var buf [2 * chainhash.HashSize]byte
	for depth, node := range p.Nodes {
		sibling := hash
		if node != nil {
			sibling = *node
		} else if index&1 == 1 {
			// A duplicate is only ever the right-hand child.
			return chainhash.Hash{}, fmt.Errorf("%w: duplicate left sibling at depth %d", ErrMerkleProofInvalid, depth)
		}
		if index&1 == 0 {
			copy(buf[:32], hash[:])
			copy(buf[32:], sibling[:])
		} else {
			copy(buf[:32], sibling[:])
			copy(buf[32:], hash[:])
		}
		hash = chainhash.DoubleHashH(buf[:])
		index >>= 1
	}
	if index != 0 {
		return chainhash.Hash{}, fmt.Errorf("%w: index %d deeper than %d nodes", ErrMerkleProofInvalid, p.Index, len(p.Nodes))
	}
	return hash, nil
}

// Verify checks that the proof reaches root.
func (p *MerkleProof) Verify(root chainhash.Hash) error {
	got, err := p.Root()
	if err != nil {
		return err
	}
	if !got.IsEqual(&root) {
		return fmt.Errorf("%w: tx %s computes root %s, header has %s", ErrMerkleProofInvalid, p.TxID, got, root)
	}
	return nil
}
