package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction/template/p2pkh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/libmint-go/config"
	"github.com/bitfsorg/libmint-go/network"
	"github.com/bitfsorg/libmint-go/registry"
	"github.com/bitfsorg/libmint-go/spv"
)

type operator struct {
	wif  string
	key  *ec.PrivateKey
	addr registry.Address
}

func newOperator(t *testing.T) operator {
	t.Helper()
	key, err := ec.NewPrivateKey()
	require.NoError(t, err)
	return operator{wif: key.Wif(), key: key, addr: registry.AddressFromPublicKey(key.PubKey())}
}

// regtest encoding, the default network.
func (o operator) String() string { return o.addr.Encode(false) }

// run executes mintctl against dir and returns stdout and stderr.
func run(t *testing.T, dir string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := execute(context.Background(), append([]string{"--datadir", dir}, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, stderr, err := run(t, dir, args...)
	require.NoError(t, err, "mintctl %v\nstderr: %s", args, stderr)
	return out
}

func requireRevert(t *testing.T, err error, reason string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, reason, errorMessage(err))
	assert.Equal(t, exitRevert, exitCode(err))
}

func deployed(t *testing.T) (string, operator) {
	t.Helper()
	dir := t.TempDir()
	admin := newOperator(t)
	out := mustRun(t, dir, "--key", admin.wif, "deploy", "--revealed-uri", "ipfs://QmRevealed/", "--hidden-uri", "ipfs://QmHidden/")
	assert.Contains(t, out, "deployed: admin "+admin.String())
	assert.Contains(t, out, "stage paused, cost 10000000, per-tx 5, max 5, supply cap 100")
	return dir, admin
}

func TestCLI_MintLifecycle(t *testing.T) {
	dir, admin := deployed(t)
	alice := newOperator(t)

	_, _, err := run(t, dir, "--key", alice.wif, "mint", "1", "--pay", "10000000")
	requireRevert(t, err, "The contract is paused!")

	mustRun(t, dir, "--key", admin.wif, "stage", "public")

	out := mustRun(t, dir, "--key", alice.wif, "mint", "2", "--pay", "20000000")
	assert.Equal(t, "minted 2 to "+alice.String()+": ids 1-2 (paid 20000000)\n", out)

	_, _, err = run(t, dir, "--key", alice.wif, "mint", "1", "--pay", "1")
	requireRevert(t, err, "Insufficient funds!")

	assert.Equal(t, "2\n", mustRun(t, dir, "supply"))
	assert.Equal(t, "1 2\n", mustRun(t, dir, "wallet", alice.String()))
	assert.Equal(t, alice.String()+"\n", mustRun(t, dir, "owner-of", "2"))

	assert.Equal(t, "ipfs://QmHidden/2\n", mustRun(t, dir, "token-uri", "2"))
	mustRun(t, dir, "--key", admin.wif, "reveal", "true")
	assert.Equal(t, "ipfs://QmRevealed/2\n", mustRun(t, dir, "token-uri", "2"))

	_, _, err = run(t, dir, "token-uri", "3")
	requireRevert(t, err, "ERC721Metadata: URI query for nonexistent token")

	status := mustRun(t, dir, "status")
	assert.Contains(t, status, "admin:       "+admin.String())
	assert.Contains(t, status, "stage:       public")
	assert.Contains(t, status, "supply:      2/100")
	assert.Contains(t, status, "revealed:    true")
	assert.Contains(t, status, "pool:        20000000")
}

func TestCLI_AdminOnly(t *testing.T) {
	dir, admin := deployed(t)
	mallory := newOperator(t)

	for _, args := range [][]string{
		{"stage", "public"},
		{"set", "cost", "1"},
		{"set", "supply", "1"},
		{"whitelist", "add", mallory.String()},
		{"reveal", "true"},
		{"mint-for", "1", mallory.String()},
		{"transfer-admin", mallory.String()},
	} {
		_, _, err := run(t, dir, append([]string{"--key", mallory.wif}, args...)...)
		requireRevert(t, err, "Ownable: caller is not the owner")
	}

	out := mustRun(t, dir, "--key", admin.wif, "mint-for", "3", mallory.String())
	assert.Contains(t, out, "ids 1-3 (paid 0)")
}

func TestCLI_SettersAndWhitelist(t *testing.T) {
	dir, admin := deployed(t)
	alice, bob := newOperator(t), newOperator(t)

	assert.Equal(t, "cost: 5\n", mustRun(t, dir, "--key", admin.wif, "set", "cost", "5"))
	assert.Equal(t, "per-tx: 3\n", mustRun(t, dir, "--key", admin.wif, "set", "per-tx", "3"))
	assert.Equal(t, "max: 4\n", mustRun(t, dir, "--key", admin.wif, "set", "max", "4"))
	assert.Equal(t, "supply: 10\n", mustRun(t, dir, "--key", admin.wif, "set", "supply", "10"))
	mustRun(t, dir, "--key", admin.wif, "stage", "presale")

	assert.Equal(t, "false\n", mustRun(t, dir, "whitelist", "check", alice.String()))
	mustRun(t, dir, "--key", admin.wif, "whitelist", "add", alice.String(), alice.String())
	assert.Equal(t, "true\n", mustRun(t, dir, "whitelist", "check", alice.String()))

	_, _, err := run(t, dir, "--key", bob.wif, "mint", "1", "--pay", "5")
	requireRevert(t, err, "User is not whitelisted!")

	_, _, err = run(t, dir, "--key", alice.wif, "mint", "4", "--pay", "20")
	requireRevert(t, err, "Invalid mint amount!")

	mustRun(t, dir, "--key", alice.wif, "mint", "3", "--pay", "15")
	_, _, err = run(t, dir, "--key", alice.wif, "mint", "2", "--pay", "10")
	requireRevert(t, err, "Mint over max mint amount!")
}

func TestCLI_TransferAdmin(t *testing.T) {
	dir, admin := deployed(t)
	next := newOperator(t)

	mustRun(t, dir, "--key", admin.wif, "transfer-admin", next.String())
	_, _, err := run(t, dir, "--key", admin.wif, "stage", "public")
	requireRevert(t, err, "Ownable: caller is not the owner")
	mustRun(t, dir, "--key", next.wif, "stage", "public")
}

func TestCLI_InputErrors(t *testing.T) {
	dir, admin := deployed(t)

	_, _, err := run(t, dir, "stage", "public")
	assert.ErrorIs(t, err, errMissingKey)
	assert.Equal(t, exitFailure, exitCode(err))

	_, _, err = run(t, dir, "--key", "not-a-wif", "stage", "public")
	assert.ErrorIs(t, err, errInvalidKey)

	_, _, err = run(t, dir, "--key", admin.wif, "stage", "closed")
	require.Error(t, err)
	assert.Equal(t, exitFailure, exitCode(err))
	assert.True(t, strings.HasPrefix(errorMessage(err), "mintctl: "))

	_, _, err = run(t, dir, "--key", admin.wif, "mint", "1")
	assert.Error(t, err, "--pay is required")

	_, _, err = run(t, dir, "--key", admin.wif, "deploy")
	assert.Error(t, err, "second deploy must fail")

	_, _, err = run(t, t.TempDir(), "status")
	assert.Error(t, err, "status without a deployment")
}

func TestCLI_ConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	admin := newOperator(t)

	cfg := config.DefaultConfig()
	cfg.DataDir = dir
	cfg.RevealedURI = "ar://revealed/"
	cfg.HiddenURI = "ar://hidden/"
	cfg.LogLevel = "debug"
	require.NoError(t, config.SaveConfig(config.ConfigPath(dir), cfg))

	t.Setenv("MINT_KEY", admin.wif)
	mustRun(t, dir, "deploy")

	status := mustRun(t, dir, "status")
	assert.Contains(t, status, "revealed uri ar://revealed/")
	assert.Contains(t, status, "hidden uri   ar://hidden/")

	// The flag beats the config file.
	_, _, err := run(t, dir, "--log-level", "loud", "status")
	assert.Error(t, err)

	out := mustRun(t, dir, "address")
	assert.Equal(t, admin.String()+"\n", out)
	out = mustRun(t, dir, "--network", "mainnet", "address")
	assert.Equal(t, admin.addr.Encode(true)+"\n", out)
}

func TestCLI_Init(t *testing.T) {
	dir := t.TempDir()
	out := mustRun(t, dir, "init")
	assert.Contains(t, out, "wrote ")

	_, err := os.Stat(filepath.Join(dir, "config"))
	require.NoError(t, err)

	out = mustRun(t, dir, "init")
	assert.Contains(t, out, "config exists")
}

func TestCLI_LogFile(t *testing.T) {
	dir, admin := deployed(t)
	logPath := filepath.Join(t.TempDir(), "mint.log")

	mustRun(t, dir, "--key", admin.wif, "--log-file", logPath, "stage", "presale")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[admin]")
}

func TestCLI_Trace(t *testing.T) {
	dir, admin := deployed(t)
	_, stderr, err := run(t, dir, "--key", admin.wif, "--trace", "stage", "public")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"Name": "issuance.set_stage"`)
}

// mockChain serves one treasury output and records broadcasts.
func mockChain(t *testing.T, treasury *ec.PrivateKey, amount uint64) (*network.MockBlockchainService, *[]string) {
	t.Helper()
	addr, err := script.NewAddressFromPublicKey(treasury.PubKey(), false)
	require.NoError(t, err)
	lock, err := p2pkh.Lock(addr)
	require.NoError(t, err)

	var sent []string
	chain := &network.MockBlockchainService{
		ListUnspentFn: func(context.Context, string) ([]*network.UTXO, error) {
			return []*network.UTXO{{
				TxID:         strings.Repeat("ab", 32),
				Vout:         0,
				Amount:       amount,
				ScriptPubKey: hex.EncodeToString([]byte(*lock)),
			}}, nil
		},
		BroadcastTxFn: func(_ context.Context, raw string) (string, error) {
			sent = append(sent, raw)
			return strings.Repeat("cd", 32), nil
		},
		ImportAddressFn: func(context.Context, string) error { return nil },
		GetTxStatusFn: func(context.Context, string) (*network.TxStatus, error) {
			return &network.TxStatus{Confirmed: true, Confirmations: 3, BlockHeight: 120, BlockHash: "00ff"}, nil
		},
	}
	orig := newChain
	newChain = func(network.RPCConfig) network.BlockchainService { return chain }
	t.Cleanup(func() { newChain = orig })
	return chain, &sent
}

func TestCLI_Withdraw(t *testing.T) {
	dir, admin := deployed(t)
	alice, payee := newOperator(t), newOperator(t)
	_, sent := mockChain(t, admin.key, 50_000_000)

	mustRun(t, dir, "--key", admin.wif, "stage", "public")
	mustRun(t, dir, "--key", alice.wif, "mint", "2", "--pay", "20000000")

	_, _, err := run(t, dir, "--key", alice.wif, "withdraw", payee.String())
	requireRevert(t, err, "Ownable: caller is not the owner")
	assert.Empty(t, *sent)

	out := mustRun(t, dir, "--key", admin.wif, "withdraw", payee.String(), "--memo", "payout")
	assert.Equal(t, "withdrew 20000000 to "+payee.String()+"\n", out)
	assert.Len(t, *sent, 1)
	assert.Contains(t, mustRun(t, dir, "status"), "pool:        0\n")

	out = mustRun(t, dir, "--key", admin.wif, "treasury", "balance")
	assert.Equal(t, admin.String()+" 50000000\n", out)
	out = mustRun(t, dir, "--key", admin.wif, "treasury", "import")
	assert.Equal(t, "imported "+admin.String()+"\n", out)
	out = mustRun(t, dir, "tx-status", strings.Repeat("cd", 32))
	assert.Equal(t, "confirmed: 3 confirmations, block 120 00ff\n", out)
}

func TestCLI_TxStatusVerify(t *testing.T) {
	dir, admin := deployed(t)
	chain, _ := mockChain(t, admin.key, 0)

	// A block whose only transaction is the withdrawal.
	txid := chainhash.DoubleHashH([]byte("withdrawal"))
	header := &spv.BlockHeader{Version: 1, MerkleRoot: txid, Bits: 0x207fffff}
	for spv.VerifyPoW(header) != nil {
		header.Nonce++
	}
	blockHash := header.Hash()

	chain.GetTxStatusFn = func(context.Context, string) (*network.TxStatus, error) {
		return &network.TxStatus{Confirmed: true, Confirmations: 1, BlockHeight: 9, BlockHash: blockHash.String()}, nil
	}
	chain.GetBlockHeaderFn = func(context.Context, string) ([]byte, error) { return header.Bytes(), nil }
	chain.GetMerkleProofFn = func(_ context.Context, id, block string) (*network.MerkleProof, error) {
		return &network.MerkleProof{TxID: id, BlockHash: block}, nil
	}

	out := mustRun(t, dir, "tx-status", "--verify", txid.String())
	assert.Equal(t, "verified: block 9 "+blockHash.String()+"\n", out)

	_, _, err := run(t, dir, "tx-status", "--verify", chainhash.DoubleHashH([]byte("forged")).String())
	assert.ErrorIs(t, err, spv.ErrMerkleProofInvalid)
	assert.Equal(t, exitFailure, exitCode(err))
}

func TestCLI_WithdrawBroadcastFailureKeepsPool(t *testing.T) {
	dir, admin := deployed(t)
	alice := newOperator(t)
	chain, _ := mockChain(t, admin.key, 50_000_000)
	chain.BroadcastTxFn = func(context.Context, string) (string, error) {
		return "", network.ErrBroadcastRejected
	}

	mustRun(t, dir, "--key", admin.wif, "stage", "public")
	mustRun(t, dir, "--key", alice.wif, "mint", "1", "--pay", "10000000")

	_, _, err := run(t, dir, "--key", admin.wif, "withdraw", alice.String())
	requireRevert(t, err, "Transfer failed!")
	assert.ErrorIs(t, err, network.ErrBroadcastRejected)
	assert.Contains(t, mustRun(t, dir, "status"), "pool:        10000000\n")
}

const keystoreMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestCLI_Keystore(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MINT_PASSWORD", "pw")

	out := mustRun(t, dir, "key", "import", keystoreMnemonic)
	assert.Contains(t, out, "keystore: "+filepath.Join(dir, "keystore.enc"))

	_, _, err := run(t, dir, "key", "import", keystoreMnemonic)
	assert.Error(t, err, "keystore is never overwritten")

	show := mustRun(t, dir, "key", "show")
	fields := strings.Fields(show)
	require.Len(t, fields, 3)
	assert.Equal(t, "admin", fields[0])
	assert.Equal(t, "m/44'/236'/0'/0/0", fields[1])
	adminAddr := fields[2]
	assert.Contains(t, out, "admin: "+adminAddr)

	// No --key: the admin role key signs.
	out = mustRun(t, dir, "deploy", "--revealed-uri", "r/", "--hidden-uri", "h/")
	assert.Contains(t, out, "deployed: admin "+adminAddr)
	mustRun(t, dir, "stage", "public")

	buyer := mustRun(t, dir, "--role", "buyer", "--index", "3", "address")
	out = mustRun(t, dir, "--role", "buyer", "--index", "3", "mint", "1", "--pay", "10000000")
	assert.Contains(t, out, "to "+strings.TrimSpace(buyer)+":")

	_, _, err = run(t, dir, "--role", "buyer", "stage", "paused")
	requireRevert(t, err, "Ownable: caller is not the owner")

	_, _, err = run(t, dir, "--password", "wrong", "stage", "paused")
	assert.Error(t, err)
	assert.Equal(t, exitFailure, exitCode(err))

	withWIF := mustRun(t, dir, "--role", "treasury", "key", "show", "--wif")
	assert.Contains(t, withWIF, "treasury m/44'/236'/1'/0/0")
	assert.Contains(t, withWIF, "wif: ")
}

func TestCLI_KeyNew(t *testing.T) {
	dir := t.TempDir()
	out := mustRun(t, dir, "--password", "pw", "key", "new", "--words", "24")
	var mnemonic string
	for _, line := range strings.Split(out, "\n") {
		if m, ok := strings.CutPrefix(line, "mnemonic: "); ok {
			mnemonic = m
		}
	}
	assert.Len(t, strings.Fields(mnemonic), 24)

	_, _, err := run(t, t.TempDir(), "key", "new", "--words", "13")
	assert.Error(t, err)
}
