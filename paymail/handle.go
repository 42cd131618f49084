// Package paymail resolves paymail handles (alias@domain) to holder
// addresses through the bsvalias PKI capability.
package paymail

import (
	"fmt"
	"strings"
)

// Handle is a parsed alias@domain paymail.
type Handle struct {
	Alias  string
	Domain string
}

func (h Handle) String() string { return h.Alias + "@" + h.Domain }

// IsHandle reports whether s looks like a paymail rather than an address.
func IsHandle(s string) bool {
	return strings.Contains(s, "@")
}

// ParseHandle parses alias@domain. A leading '$' or "paymail:" is accepted
// and the domain is lowercased.
func ParseHandle(s string) (Handle, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "paymail:")
	s = strings.TrimPrefix(s, "$")
	alias, domain, ok := strings.Cut(s, "@")
	if !ok || alias == "" || domain == "" || strings.ContainsAny(s, " /\t") || strings.Contains(domain, "@") {
		return Handle{}, fmt.Errorf("%w: %q", ErrInvalidHandle, s)
	}
	if !strings.Contains(domain, ".") && domain != "localhost" {
		return Handle{}, fmt.Errorf("%w: %q has no domain suffix", ErrInvalidHandle, s)
	}
	return Handle{Alias: alias, Domain: strings.ToLower(strings.TrimSuffix(domain, "."))}, nil
}
