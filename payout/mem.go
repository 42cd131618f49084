package payout

import (
	"context"
	"fmt"
	"sync"

	"github.com/bitfsorg/libmint-go/registry"
)

// MemPayout credits recipients in memory. Recipients in Reject refuse
// every transfer.
type MemPayout struct {
	mu      sync.Mutex
	credits map[registry.Address]uint64
	reject  map[registry.Address]bool
	seq     int
}

// NewMemPayout returns an empty MemPayout.
func NewMemPayout() *MemPayout {
	return &MemPayout{
		credits: make(map[registry.Address]uint64),
		reject:  make(map[registry.Address]bool),
	}
}

// Reject makes every later transfer to addr fail.
func (p *MemPayout) Reject(addr registry.Address) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reject[addr] = true
}

// Transfer credits amount to to.
func (p *MemPayout) Transfer(_ context.Context, to registry.Address, amount uint64) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reject[to] {
		return "", fmt.Errorf("%w: %s", ErrRecipientRejected, to)
	}
	p.credits[to] += amount
	p.seq++
	return fmt.Sprintf("mem-%d", p.seq), nil
}

// Balance returns the total credited to addr.
func (p *MemPayout) Balance(addr registry.Address) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.credits[addr]
}
