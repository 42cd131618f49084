package wallet

import (
	"fmt"
	"strings"

	bip32 "github.com/bsv-blockchain/go-sdk/compat/bip32"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	chaincfg "github.com/bsv-blockchain/go-sdk/transaction/chaincfg"

	"github.com/bitfsorg/libmint-go/registry"
)

const (
	// BIP44 path constants. 236 is the registered BSV coin type.
	PurposeBIP44 = 44
	CoinTypeBSV  = 236

	// ExternalChain is the only chain used below each role account.
	ExternalChain = 0

	// MaxKeyIndex is the largest non-hardened child index.
	MaxKeyIndex = 1<<31 - 1

	// Hardened is the BIP32 hardened offset.
	Hardened = 0x80000000
)

// Role selects the BIP44 account a key is derived from.
type Role uint32

const (
	RoleAdmin    Role = iota // controller administrator
	RoleTreasury             // funds withdrawals
	RoleBuyer                // mints as an ordinary caller
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleTreasury:
		return "treasury"
	case RoleBuyer:
		return "buyer"
	default:
		return fmt.Sprintf("role(%d)", uint32(r))
	}
}

// ParseRole accepts the names printed by String.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin", "":
		return RoleAdmin, nil
	case "treasury":
		return RoleTreasury, nil
	case "buyer":
		return RoleBuyer, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// Wallet derives role keys from a BIP32 master key.
type Wallet struct {
	masterKey *bip32.ExtendedKey
	mainnet   bool
}

// KeyPair holds a derived key and its derivation path.
type KeyPair struct {
	PrivateKey *ec.PrivateKey
	PublicKey  *ec.PublicKey
	Path       string
}

// Address returns the P2PKH holder address of the pair.
func (kp *KeyPair) Address() registry.Address {
	return registry.AddressFromPublicKey(kp.PublicKey)
}

// NewWallet creates a Wallet from a BIP39 seed.
func NewWallet(seed []byte, mainnet bool) (*Wallet, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}
	net := &chaincfg.TestNet
	if mainnet {
		net = &chaincfg.MainNet
	}
	masterKey, err := bip32.NewMaster(seed, net)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}
	return &Wallet{masterKey: masterKey, mainnet: mainnet}, nil
}

// Mainnet reports the network the wallet was opened for.
func (w *Wallet) Mainnet() bool { return w.mainnet }

// DeriveKey derives m/44'/236'/{role}'/0/{index}.
func (w *Wallet) DeriveKey(role Role, index uint32) (*KeyPair, error) {
	if role > RoleBuyer {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRole, uint32(role))
	}
	if index > MaxKeyIndex {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	key := w.masterKey
	for i, child := range []uint32{
		PurposeBIP44 + Hardened,
		CoinTypeBSV + Hardened,
		uint32(role) + Hardened,
		ExternalChain,
		index,
	} {
		next, err := key.Child(child)
		if err != nil {
			return nil, fmt.Errorf("%w: depth %d: %w", ErrDerivationFailed, i+1, err)
		}
		key = next
	}

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: extract private key: %w", ErrDerivationFailed, err)
	}
	return &KeyPair{
		PrivateKey: priv,
		PublicKey:  priv.PubKey(),
		Path:       fmt.Sprintf("m/44'/236'/%d'/0/%d", uint32(role), index),
	}, nil
}
