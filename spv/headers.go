package spv

import (
	"encoding/binary"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"

	"github.com/bitfsorg/libmint-go/store"
)

// BucketHeaders holds verified headers keyed by block hash.
var BucketHeaders = []byte("spv_headers")

// StoredHeader is a header accepted into the store with the height the
// node reported for it.
type StoredHeader struct {
	BlockHeader
	Height uint64
}

// HeaderStore keeps headers that passed the proof-of-work check, so later
// verifications of transactions in the same block skip the fetch.
type HeaderStore struct {
	st store.Store
}

// NewHeaderStore returns a HeaderStore over st.
func NewHeaderStore(st store.Store) *HeaderStore {
	return &HeaderStore{st: st}
}

// Put verifies the proof of work of h and stores it under its hash.
func (s *HeaderStore) Put(h *StoredHeader) error {
	if err := VerifyPoW(&h.BlockHeader); err != nil {
		return err
	}
	hash := h.Hash()
	rec := make([]byte, HeaderSize+8)
	copy(rec, h.Bytes())
	binary.BigEndian.PutUint64(rec[HeaderSize:], h.Height)
	return s.st.Update(func(tx store.Tx) error {
		return tx.Put(BucketHeaders, hash[:], rec)
	})
}

// Get returns the header stored under hash.
func (s *HeaderStore) Get(hash chainhash.Hash) (*StoredHeader, error) {
	var out *StoredHeader
	err := s.st.View(func(tx store.Tx) error {
		rec := tx.Get(BucketHeaders, hash[:])
		if rec == nil {
			return fmt.Errorf("%w: %s", ErrHeaderNotFound, hash)
		}
		if len(rec) != HeaderSize+8 {
			return fmt.Errorf("%w: %s is %d bytes", ErrCorruptHeader, hash, len(rec))
		}
		h, err := ParseHeader(rec[:HeaderSize])
		if err != nil {
			return err
		}
		out = &StoredHeader{BlockHeader: *h, Height: binary.BigEndian.Uint64(rec[HeaderSize:])}
		return nil
	})
	return out, err
}

// Count returns the number of stored headers.
func (s *HeaderStore) Count() (int, error) {
	n := 0
	err := s.st.View(func(tx store.Tx) error {
		return tx.Scan(BucketHeaders, nil, func(_, _ []byte) error {
			n++
			return nil
		})
	})
	return n, err
}
