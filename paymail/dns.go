package paymail

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"
)

// DNSResolver looks up SRV records. Tests and DNSSECResolver replace the
// system resolver through it.
type DNSResolver interface {
	LookupSRV(ctx context.Context, service, proto, name string) (string, []*net.SRV, error)
}

// SRVService is the paymail service label: _bsvalias._tcp.{domain}.
const SRVService = "bsvalias"

// defaultPort is used when the domain publishes no SRV record.
const defaultPort = 443

// discoveryHost returns host:port serving .well-known/bsvalias for domain,
// preferring the lowest-priority, highest-weight SRV target and falling
// back to domain:443.
func discoveryHost(ctx context.Context, resolver DNSResolver, domain string) string {
	_, addrs, err := resolver.LookupSRV(ctx, SRVService, "tcp", domain)
	if err != nil || len(addrs) == 0 {
		return net.JoinHostPort(domain, fmt.Sprint(defaultPort))
	}
	sort.SliceStable(addrs, func(i, j int) bool {
		if addrs[i].Priority != addrs[j].Priority {
			return addrs[i].Priority < addrs[j].Priority
		}
		return addrs[i].Weight > addrs[j].Weight
	})
	return net.JoinHostPort(strings.TrimSuffix(addrs[0].Target, "."), fmt.Sprint(addrs[0].Port))
}
