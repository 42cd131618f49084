package spv

import "errors"

var (
	// ErrInvalidHeader indicates a header that is not 80 bytes or does not
	// hash to the expected block hash.
	ErrInvalidHeader = errors.New("spv: invalid header")

	// ErrInsufficientPoW indicates the header hash is above its target.
	ErrInsufficientPoW = errors.New("spv: insufficient proof of work")

	// ErrHeaderNotFound indicates the header is not in the local store.
	ErrHeaderNotFound = errors.New("spv: header not found")

	// ErrMerkleProofInvalid indicates the proof does not reach the header's
	// merkle root.
	ErrMerkleProofInvalid = errors.New("spv: merkle proof invalid")

	// ErrCorruptHeader indicates a stored header record that cannot be decoded.
	ErrCorruptHeader = errors.New("spv: corrupt stored header")
)
