// Package spv checks that withdrawal transactions are buried in block
// headers with valid proof of work, without trusting the node's word for it.
package spv

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/bsv-blockchain/go-sdk/chainhash"
)

// HeaderSize is the size of a serialized block header.
const HeaderSize = 80

// BlockHeader is a decoded block header. Hashes are in internal byte order.
type BlockHeader struct {
	Version    int32
	PrevBlock  chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  uint32
	Bits       uint32
	Nonce      uint32
}

// ParseHeader decodes an 80-byte serialized header.
func ParseHeader(raw []byte) (*BlockHeader, error) {
	if len(raw) != HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrInvalidHeader, len(raw), HeaderSize)
	}
	h := &BlockHeader{
		Version:   int32(binary.LittleEndian.Uint32(raw[0:4])),
		Timestamp: binary.LittleEndian.Uint32(raw[68:72]),
		Bits:      binary.LittleEndian.Uint32(raw[72:76]),
		Nonce:     binary.LittleEndian.Uint32(raw[76:80]),
	}
	copy(h.PrevBlock[:], raw[4:36])
	copy(h.MerkleRoot[:], raw[36:68])
	return h, nil
}

// Bytes serializes h: version | prev | merkle root | time | bits | nonce.
func (h *BlockHeader) Bytes() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.Version))
	copy(buf[4:36], h.PrevBlock[:])
	copy(buf[36:68], h.MerkleRoot[:])
	binary.LittleEndian.PutUint32(buf[68:72], h.Timestamp)
	binary.LittleEndian.PutUint32(buf[72:76], h.Bits)
	binary.LittleEndian.PutUint32(buf[76:80], h.Nonce)
	return buf
}

// Hash returns the block hash, the double SHA-256 of the serialized header.
func (h *BlockHeader) Hash() chainhash.Hash {
	return chainhash.DoubleHashH(h.Bytes())
}

// CompactToTarget expands the compact nBits encoding (0xEEMMMMMM) into the
// target. A set sign bit yields a zero target.
func CompactToTarget(bits uint32) *big.Int {
	if bits&0x00800000 != 0 {
		return new(big.Int)
	}
	exponent := uint(bits >> 24)
	target := big.NewInt(int64(bits & 0x007fffff))
	if exponent <= 3 {
		return target.Rsh(target, 8*(3-exponent))
	}
	return target.Lsh(target, 8*(exponent-3))
}

// hashToBig reads a hash as the little-endian 256-bit number it encodes.
func hashToBig(hash chainhash.Hash) *big.Int {
	var be [chainhash.HashSize]byte
	for i, b := range hash {
		be[chainhash.HashSize-1-i] = b
	}
	return new(big.Int).SetBytes(be[:])
}

// VerifyPoW checks that the header hash does not exceed the target its
// Bits field claims.
func VerifyPoW(h *BlockHeader) error {
	target := CompactToTarget(h.Bits)
	if target.Sign() == 0 {
		return fmt.Errorf("%w: zero target from bits %08x", ErrInsufficientPoW, h.Bits)
	}
	hash := h.Hash()
	if hashToBig(hash).Cmp(target) > 0 {
		return fmt.Errorf("%w: %s above target for bits %08x", ErrInsufficientPoW, hash, h.Bits)
	}
	return nil
}
