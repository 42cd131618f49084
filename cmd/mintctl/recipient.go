package main

import (
	"context"

	"github.com/bitfsorg/libmint-go/paymail"
	"github.com/bitfsorg/libmint-go/registry"
)

// newResolver is replaced in tests.
var newResolver = func(opts ...paymail.Option) *paymail.Resolver {
	return paymail.NewResolver(opts...)
}

// recipient parses an address, or resolves alias@domain through paymail.
// --dnssec routes the SRV lookup through --dns-upstream.
func (a *app) recipient(ctx context.Context, s string) (registry.Address, error) {
	if !paymail.IsHandle(s) {
		return registry.ParseAddress(s)
	}
	var opts []paymail.Option
	if a.v.GetBool("dnssec") {
		opts = append(opts, paymail.WithDNSResolver(paymail.NewDNSSECResolver(a.v.GetString("dns-upstream"))))
	}
	return newResolver(opts...).Resolve(ctx, s)
}
