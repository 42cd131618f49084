package registry

import (
	"errors"

	"github.com/bitfsorg/libmint-go/revert"
)

// Rejections with stable reason text.
var (
	// ErrNonexistentAsset indicates an identifier outside [1, totalSupply].
	ErrNonexistentAsset = revert.New("ERC721Metadata: URI query for nonexistent token")

	// ErrOwnerIndexOutOfBounds indicates a per-holder index >= the holder's balance.
	ErrOwnerIndexOutOfBounds = revert.New("ERC721Enumerable: owner index out of bounds")

	// ErrGlobalIndexOutOfBounds indicates a global index >= totalSupply.
	ErrGlobalIndexOutOfBounds = revert.New("ERC721Enumerable: global index out of bounds")
)

var (
	// ErrInvalidAddress indicates a malformed holder address.
	ErrInvalidAddress = errors.New("registry: invalid address")

	// ErrCorruptState indicates a stored record has an unexpected shape.
	ErrCorruptState = errors.New("registry: corrupt state")

	// ErrSupplyOverflow indicates an allocation would wrap the identifier space.
	ErrSupplyOverflow = errors.New("registry: identifier space exhausted")

	// errStopScan ends a Scan early once the wanted entry is found.
	errStopScan = errors.New("registry: stop scan")
)
