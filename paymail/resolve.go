package paymail

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"

	"github.com/bitfsorg/libmint-go/logging"
	"github.com/bitfsorg/libmint-go/registry"
)

// Capability keys for the PKI endpoint: the BRFC id and the short alias.
const (
	capPKI      = "pki"
	capPKIBRFC  = "0c4339ef99c2"
	maxBodySize = 64 << 10
)

// Resolver maps paymail handles to holder addresses.
type Resolver struct {
	client *http.Client
	dns    DNSResolver
	scheme string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.client = c }
}

// WithDNSResolver replaces the SRV resolver, e.g. with a DNSSECResolver.
func WithDNSResolver(d DNSResolver) Option {
	return func(r *Resolver) { r.dns = d }
}

// NewResolver returns a Resolver using the system DNS resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		client: &http.Client{Timeout: 15 * time.Second},
		dns:    net.DefaultResolver,
		scheme: "https",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type wellKnown struct {
	BSVAlias     string         `json:"bsvalias"`
	Capabilities map[string]any `json:"capabilities"`
}

type pkiResponse struct {
	BSVAlias string `json:"bsvalias"`
	Handle   string `json:"handle"`
	PubKey   string `json:"pubkey"`
}

// Resolve returns the P2PKH address of handle's identity key.
func (r *Resolver) Resolve(ctx context.Context, handle string) (registry.Address, error) {
	h, err := ParseHandle(handle)
	if err != nil {
		return registry.ZeroAddress, err
	}
	pub, err := r.PublicKey(ctx, h)
	if err != nil {
		return registry.ZeroAddress, err
	}
	addr := registry.AddressFromPublicKey(pub)
	logging.Debug(logging.CatPayout, "paymail resolved", "handle", h, "address", addr.Hex())
	return addr, nil
}

// PublicKey fetches the identity key of h from its PKI endpoint.
func (r *Resolver) PublicKey(ctx context.Context, h Handle) (*ec.PublicKey, error) {
	template, err := r.pkiTemplate(ctx, h.Domain)
	if err != nil {
		return nil, err
	}
	pkiURL := strings.NewReplacer("{alias}", h.Alias, "{domain.tld}", h.Domain).Replace(template)

	var pki pkiResponse
	if err := r.getJSON(ctx, pkiURL, &pki); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPKIResolution, err)
	}
	if pki.Handle != "" && !strings.EqualFold(pki.Handle, h.String()) {
		return nil, fmt.Errorf("%w: response is for %q", ErrPKIResolution, pki.Handle)
	}

	raw, err := hex.DecodeString(pki.PubKey)
	if err != nil || len(raw) != 33 || (raw[0] != 0x02 && raw[0] != 0x03) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPubKey, pki.PubKey)
	}
	pub, err := ec.PublicKeyFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPubKey, err)
	}
	return pub, nil
}

// pkiTemplate discovers the PKI URL template for domain.
func (r *Resolver) pkiTemplate(ctx context.Context, domain string) (string, error) {
	host := discoveryHost(ctx, r.dns, domain)
	var wk wellKnown
	if err := r.getJSON(ctx, r.scheme+"://"+host+"/.well-known/bsvalias", &wk); err != nil {
		return "", fmt.Errorf("%w: %w", ErrDiscovery, err)
	}
	for _, key := range []string{capPKI, capPKIBRFC} {
		if s, ok := wk.Capabilities[key].(string); ok && s != "" {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %s advertises no pki capability", ErrPKIResolution, domain)
}

func (r *Resolver) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("GET %s: decode: %w", url, err)
	}
	return nil
}
