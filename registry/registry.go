// Package registry tracks which holder owns each sequentially numbered asset.
//
// Identifiers start at 1 and are allocated densely, so the set of issued
// identifiers is always {1 .. TotalSupply}. A forward index maps id -> holder,
// a reverse index maps holder -> ids in allocation order, and a balance
// counter per holder avoids counting the reverse index on every query.
//
// The registry performs no policy checks. Callers that mutate it (the
// issuance controller) are expected to have validated the request already.
package registry

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/bitfsorg/libmint-go/store"
)

// Locators are the two metadata base strings fixed at construction.
type Locators struct {
	Revealed string
	Hidden   string
}

// Registry resolves ownership state held in a store.Store.
type Registry struct {
	st       store.Store
	locators Locators
}

// New returns a Registry backed by st.
func New(st store.Store, locators Locators) *Registry {
	return &Registry{st: st, locators: locators}
}

// Locators returns the construction-time metadata bases.
func (r *Registry) Locators() Locators { return r.locators }

// At binds the registry to an open transaction. Use it to combine registry
// reads and writes with other state changes in one store.Update.
func (r *Registry) At(tx store.Tx) *Ledger {
	return &Ledger{tx: tx, locators: r.locators}
}

// Ledger is the registry as seen from inside one transaction.
type Ledger struct {
	tx       store.Tx
	locators Locators
}

// TotalSupply returns the highest allocated identifier.
func (l *Ledger) TotalSupply() (uint64, error) {
	n, err := decodeUint64(l.tx.Get(BucketRegistry, keySupply))
	if err != nil {
		return 0, fmt.Errorf("%w: supply counter", err)
	}
	return n, nil
}

// BalanceOf returns how many identifiers holder currently owns.
func (l *Ledger) BalanceOf(holder Address) (uint64, error) {
	n, err := decodeUint64(l.tx.Get(BucketBalances, holder[:]))
	if err != nil {
		return 0, fmt.Errorf("%w: balance of %s", err, holder.Hex())
	}
	return n, nil
}

// Allocate assigns the next qty identifiers to holder and returns the first
// of them. A zero qty allocates nothing and returns supply+1.
func (l *Ledger) Allocate(holder Address, qty uint64) (uint64, error) {
	supply, err := l.TotalSupply()
	if err != nil {
		return 0, err
	}
	if qty > math.MaxUint64-supply {
		return 0, fmt.Errorf("%w: supply %d + %d", ErrSupplyOverflow, supply, qty)
	}
	balance, err := l.BalanceOf(holder)
	if err != nil {
		return 0, err
	}

	first := supply + 1
	for id := first; id < first+qty; id++ {
		if err := l.tx.Put(BucketTokens, idKey(id), holder[:]); err != nil {
			return 0, err
		}
		if err := l.tx.Put(BucketOwners, ownerKey(holder, id), present); err != nil {
			return 0, err
		}
	}
	if qty == 0 {
		return first, nil
	}
	if err := l.tx.Put(BucketBalances, holder[:], encodeUint64(balance+qty)); err != nil {
		return 0, err
	}
	if err := l.tx.Put(BucketRegistry, keySupply, encodeUint64(supply+qty)); err != nil {
		return 0, err
	}
	return first, nil
}

// OwnedBy returns the identifiers held by holder in allocation order. The
// result is never nil.
func (l *Ledger) OwnedBy(holder Address) ([]uint64, error) {
	ids := make([]uint64, 0)
	err := l.tx.Scan(BucketOwners, holder[:], func(k, _ []byte) error {
		id, err := decodeUint64(k[AddressLen:])
		if err != nil {
			return fmt.Errorf("%w: owner index key", err)
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// OwnerOf returns the holder of id.
func (l *Ledger) OwnerOf(id uint64) (Address, error) {
	if err := l.checkExists(id); err != nil {
		return ZeroAddress, err
	}
	a, err := AddressFromBytes(l.tx.Get(BucketTokens, idKey(id)))
	if err != nil {
		return ZeroAddress, fmt.Errorf("%w: token %d: %w", ErrCorruptState, id, err)
	}
	return a, nil
}

// TokenOfOwnerByIndex returns the index-th identifier held by holder.
func (l *Ledger) TokenOfOwnerByIndex(holder Address, index uint64) (uint64, error) {
	balance, err := l.BalanceOf(holder)
	if err != nil {
		return 0, err
	}
	if index >= balance {
		return 0, ErrOwnerIndexOutOfBounds
	}
	var (
		id  uint64
		pos uint64
	)
	err = l.tx.Scan(BucketOwners, holder[:], func(k, _ []byte) error {
		if pos == index {
			id, _ = decodeUint64(k[AddressLen:])
			return errStopScan
		}
		pos++
		return nil
	})
	if !errors.Is(err, errStopScan) {
		if err == nil {
			err = fmt.Errorf("%w: owner index shorter than balance", ErrCorruptState)
		}
		return 0, err
	}
	return id, nil
}

// TokenByIndex returns the index-th issued identifier. Identifiers are dense,
// so this is index+1.
func (l *Ledger) TokenByIndex(index uint64) (uint64, error) {
	supply, err := l.TotalSupply()
	if err != nil {
		return 0, err
	}
	if index >= supply {
		return 0, ErrGlobalIndexOutOfBounds
	}
	return index + 1, nil
}

// Revealed reports the global reveal flag.
func (l *Ledger) Revealed() bool {
	v := l.tx.Get(BucketRegistry, keyRevealed)
	return len(v) == 1 && v[0] == 1
}

// SetRevealed stores the global reveal flag.
func (l *Ledger) SetRevealed(revealed bool) error {
	v := []byte{0}
	if revealed {
		v[0] = 1
	}
	return l.tx.Put(BucketRegistry, keyRevealed, v)
}

// MetadataLocatorFor returns the metadata locator of id: the hidden base
// while unrevealed, the revealed base afterwards, followed by the decimal id.
func (l *Ledger) MetadataLocatorFor(id uint64) (string, error) {
	if err := l.checkExists(id); err != nil {
		return "", err
	}
	base := l.locators.Hidden
	if l.Revealed() {
		base = l.locators.Revealed
	}
	return base + strconv.FormatUint(id, 10), nil
}

func (l *Ledger) checkExists(id uint64) error {
	supply, err := l.TotalSupply()
	if err != nil {
		return err
	}
	if id == 0 || id > supply {
		return ErrNonexistentAsset
	}
	return nil
}

// Snapshot reads. Each runs in its own store.View.

// TotalSupply returns the highest allocated identifier.
func (r *Registry) TotalSupply() (n uint64, err error) {
	err = r.st.View(func(tx store.Tx) error {
		n, err = r.At(tx).TotalSupply()
		return err
	})
	return n, err
}

// BalanceOf returns how many identifiers holder owns.
func (r *Registry) BalanceOf(holder Address) (n uint64, err error) {
	err = r.st.View(func(tx store.Tx) error {
		n, err = r.At(tx).BalanceOf(holder)
		return err
	})
	return n, err
}

// OwnedBy returns the identifiers held by holder in allocation order.
func (r *Registry) OwnedBy(holder Address) (ids []uint64, err error) {
	err = r.st.View(func(tx store.Tx) error {
		ids, err = r.At(tx).OwnedBy(holder)
		return err
	})
	return ids, err
}

// OwnerOf returns the holder of id.
func (r *Registry) OwnerOf(id uint64) (a Address, err error) {
	err = r.st.View(func(tx store.Tx) error {
		a, err = r.At(tx).OwnerOf(id)
		return err
	})
	return a, err
}

// TokenOfOwnerByIndex returns the index-th identifier held by holder.
func (r *Registry) TokenOfOwnerByIndex(holder Address, index uint64) (id uint64, err error) {
	err = r.st.View(func(tx store.Tx) error {
		id, err = r.At(tx).TokenOfOwnerByIndex(holder, index)
		return err
	})
	return id, err
}

// TokenByIndex returns the index-th issued identifier.
func (r *Registry) TokenByIndex(index uint64) (id uint64, err error) {
	err = r.st.View(func(tx store.Tx) error {
		id, err = r.At(tx).TokenByIndex(index)
		return err
	})
	return id, err
}

// Revealed reports the global reveal flag.
func (r *Registry) Revealed() (revealed bool, err error) {
	err = r.st.View(func(tx store.Tx) error {
		revealed = r.At(tx).Revealed()
		return nil
	})
	return revealed, err
}

// MetadataLocatorFor returns the metadata locator of id.
func (r *Registry) MetadataLocatorFor(id uint64) (loc string, err error) {
	err = r.st.View(func(tx store.Tx) error {
		loc, err = r.At(tx).MetadataLocatorFor(id)
		return err
	})
	return loc, err
}
