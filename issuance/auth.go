package issuance

import "github.com/bitfsorg/libmint-go/registry"

// Authorizer decides whether caller may run privileged operations.
type Authorizer interface {
	IsAuthorized(caller registry.Address) bool
}

// Owner authorizes exactly one address.
type Owner registry.Address

// IsAuthorized reports whether caller is the owner. The zero address is
// never authorized.
func (o Owner) IsAuthorized(caller registry.Address) bool {
	return !caller.IsZero() && registry.Address(o) == caller
}
