package registry

import (
	"encoding/hex"
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	bsvhash "github.com/bsv-blockchain/go-sdk/primitives/hash"
	"github.com/bsv-blockchain/go-sdk/script"
)

// AddressLen is the length of a P2PKH public key hash.
const AddressLen = 20

// Address identifies a holder or administrator by its P2PKH public key hash.
type Address [AddressLen]byte

// ZeroAddress is never a valid holder.
var ZeroAddress Address

// AddressFromBytes copies a 20-byte public key hash into an Address.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressLen {
		return a, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAddress, AddressLen, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// AddressFromPublicKey returns HASH160 of the compressed public key.
func AddressFromPublicKey(pub *ec.PublicKey) Address {
	var a Address
	if pub == nil {
		return a
	}
	copy(a[:], bsvhash.Hash160(pub.Compressed()))
	return a
}

// ParseAddress accepts a Base58Check P2PKH address (mainnet or testnet) or a
// 40-character hex public key hash.
func ParseAddress(s string) (Address, error) {
	if len(s) == 2*AddressLen {
		if raw, err := hex.DecodeString(s); err == nil {
			return AddressFromBytes(raw)
		}
	}
	addr, err := script.NewAddressFromString(s)
	if err != nil {
		return ZeroAddress, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, s, err)
	}
	return AddressFromBytes([]byte(addr.PublicKeyHash))
}

// Encode renders the address as Base58Check for mainnet or testnet.
func (a Address) Encode(mainnet bool) string {
	addr, err := script.NewAddressFromPublicKeyHash(a[:], mainnet)
	if err != nil {
		return a.Hex()
	}
	return addr.AddressString
}

// String renders the mainnet Base58Check form.
func (a Address) String() string { return a.Encode(true) }

// Hex returns the public key hash as lowercase hex.
func (a Address) Hex() string { return hex.EncodeToString(a[:]) }

// IsZero reports whether a is the zero address.
func (a Address) IsZero() bool { return a == ZeroAddress }
