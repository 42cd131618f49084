package issuance

import (
	"fmt"
	"strings"

	"github.com/bitfsorg/libmint-go/registry"
)

// Stage is the sale phase gating unprivileged minting.
type Stage uint8

const (
	StagePaused Stage = iota
	StagePresale
	StagePublicSale
)

func (s Stage) String() string {
	switch s {
	case StagePaused:
		return "paused"
	case StagePresale:
		return "presale"
	case StagePublicSale:
		return "public"
	default:
		return fmt.Sprintf("stage(%d)", uint8(s))
	}
}

// Valid reports whether s is one of the three defined stages.
func (s Stage) Valid() bool { return s <= StagePublicSale }

// ParseStage accepts the names printed by String, plus "publicsale" and
// the numeric forms "0", "1", "2".
func ParseStage(v string) (Stage, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "paused", "0":
		return StagePaused, nil
	case "presale", "1":
		return StagePresale, nil
	case "public", "publicsale", "public-sale", "2":
		return StagePublicSale, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStage, v)
}

// Settings is the administrator-controlled quota configuration.
type Settings struct {
	Stage              Stage
	UnitPrice          uint64 // satoshis per unit
	MaxMintAmountPerTx uint64
	MaxMintAmount      uint64 // per holder, lifetime
	MaxSupply          uint64
}

// Defaults applied at deployment.
const (
	DefaultUnitPrice          uint64 = 10_000_000
	DefaultMaxMintAmountPerTx uint64 = 5
	DefaultMaxMintAmount      uint64 = 5
	DefaultMaxSupply          uint64 = 100
)

// DefaultSettings returns the configuration of a fresh deployment.
func DefaultSettings() Settings {
	return Settings{
		Stage:              StagePaused,
		UnitPrice:          DefaultUnitPrice,
		MaxMintAmountPerTx: DefaultMaxMintAmountPerTx,
		MaxMintAmount:      DefaultMaxMintAmount,
		MaxSupply:          DefaultMaxSupply,
	}
}

// Minted describes a successful mint.
type Minted struct {
	Holder   registry.Address
	First    uint64 // first allocated identifier
	Quantity uint64
	Cost     uint64 // UnitPrice * Quantity at the time of the mint; 0 for MintForAddress
	Paid     uint64 // payment credited to the pool
}

// IDs lists the allocated identifiers.
func (m Minted) IDs() []uint64 {
	ids := make([]uint64, 0, m.Quantity)
	for i := uint64(0); i < m.Quantity; i++ {
		ids = append(ids, m.First+i)
	}
	return ids
}

// Deployment is the immutable construction record.
type Deployment struct {
	Admin    registry.Address
	Locators registry.Locators
}
