package registry

import "encoding/binary"

// Buckets owned by the registry.
var (
	// BucketRegistry holds scalar registry state: supply counter and reveal flag.
	BucketRegistry = []byte("registry")

	// BucketTokens maps id (BE uint64) -> holder (20 bytes).
	BucketTokens = []byte("tokens")

	// BucketOwners indexes holder(20) || id (BE uint64) -> {1}.
	// Big-endian ids make a holder prefix scan return ids in allocation order.
	BucketOwners = []byte("owners")

	// BucketBalances maps holder (20 bytes) -> held count (BE uint64).
	BucketBalances = []byte("balances")
)

var (
	keySupply   = []byte("supply")
	keyRevealed = []byte("revealed")

	present = []byte{1}
)

func idKey(id uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, id)
	return k
}

func ownerKey(holder Address, id uint64) []byte {
	k := make([]byte, 0, AddressLen+8)
	k = append(k, holder[:]...)
	return binary.BigEndian.AppendUint64(k, id)
}

func encodeUint64(n uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, n)
}

// decodeUint64 treats a missing record as zero.
func decodeUint64(b []byte) (uint64, error) {
	if b == nil {
		return 0, nil
	}
	if len(b) != 8 {
		return 0, ErrCorruptState
	}
	return binary.BigEndian.Uint64(b), nil
}
