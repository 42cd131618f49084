package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libmint-go/paymail"
)

// srvTo points every SRV lookup at one host:port.
type srvTo struct{ host, port string }

func (s srvTo) LookupSRV(context.Context, string, string, string) (string, []*net.SRV, error) {
	p, _ := strconv.Atoi(s.port)
	return "", []*net.SRV{{Target: s.host, Port: uint16(p)}}, nil
}

// stubPaymail serves PKI for handle -> o and routes newResolver to it.
// It returns the option count of the last newResolver call.
func stubPaymail(t *testing.T, handle string, o operator) *int {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewUnstartedServer(mux)
	base := "https://" + srv.Listener.Addr().String()
	mux.HandleFunc("/.well-known/bsvalias", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"bsvalias":     "1.0",
			"capabilities": map[string]any{"pki": base + "/id/{alias}@{domain.tld}"},
		})
	})
	mux.HandleFunc("/id/"+handle, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"handle": handle,
			"pubkey": hex.EncodeToString(o.key.PubKey().Compressed()),
		})
	})
	srv.StartTLS()
	t.Cleanup(srv.Close)

	host, port, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)

	calls := new(int)
	orig := newResolver
	newResolver = func(opts ...paymail.Option) *paymail.Resolver {
		*calls = len(opts)
		return paymail.NewResolver(append(opts, paymail.WithHTTPClient(srv.Client()), paymail.WithDNSResolver(srvTo{host, port}))...)
	}
	t.Cleanup(func() { newResolver = orig })
	return calls
}

func TestCLI_MintForPaymail(t *testing.T) {
	dir, admin := deployed(t)
	bob := newOperator(t)
	opts := stubPaymail(t, "bob@example.com", bob)

	out := mustRun(t, dir, "--key", admin.wif, "mint-for", "2", "$bob@example.com")
	assert.Equal(t, "minted 2 to "+bob.String()+": ids 1-2 (paid 0)\n", out)
	assert.Equal(t, 0, *opts)

	mustRun(t, dir, "--key", admin.wif, "--dnssec", "mint-for", "1", "bob@example.com")
	assert.Equal(t, 1, *opts, "DNSSEC resolver option")

	_, _, err := run(t, dir, "--key", admin.wif, "mint-for", "1", "carol@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, paymail.ErrPKIResolution)
	assert.Equal(t, exitFailure, exitCode(err))

	_, _, err = run(t, dir, "--key", admin.wif, "mint-for", "1", "bob@nodomain")
	assert.ErrorIs(t, err, paymail.ErrInvalidHandle)

	assert.Equal(t, "1 2 3\n", mustRun(t, dir, "wallet", bob.String()))
}
