package network

import "fmt"

// Environment variables consulted by ResolveConfig.
const (
	EnvRPCURL  = "MINT_RPC_URL"
	EnvRPCUser = "MINT_RPC_USER"
	EnvRPCPass = "MINT_RPC_PASS"
)

// RPCConfig holds the connection parameters for a BSV node's JSON-RPC interface.
type RPCConfig struct {
	URL      string `json:"url"`
	User     string `json:"user"`
	Password string `json:"password"`
	Network  string `json:"network"`
}

// IsMainnet reports whether the config targets mainnet. Anything else is
// treated as a test network for address encoding.
func (c RPCConfig) IsMainnet() bool { return c.Network == "mainnet" }

// NetworkPresets holds local-node defaults. Mainnet has none and must be
// configured explicitly.
var NetworkPresets = map[string]RPCConfig{
	"regtest": {URL: "http://localhost:18332", User: "mint", Password: "mint"},
	"testnet": {URL: "http://localhost:18333", User: "mint", Password: "mint"},
}

// ResolveConfig layers RPC settings, highest priority first:
//  1. flags
//  2. env (MINT_RPC_URL, MINT_RPC_USER, MINT_RPC_PASS)
//  3. NetworkPresets[network]
func ResolveConfig(flags *RPCConfig, env map[string]string, network string) (*RPCConfig, error) {
	result := RPCConfig{Network: network}
	if preset, ok := NetworkPresets[network]; ok {
		result = preset
		result.Network = network
	}

	if v := env[EnvRPCURL]; v != "" {
		result.URL = v
	}
	if v := env[EnvRPCUser]; v != "" {
		result.User = v
	}
	if v := env[EnvRPCPass]; v != "" {
		result.Password = v
	}

	if flags != nil {
		if flags.URL != "" {
			result.URL = flags.URL
		}
		if flags.User != "" {
			result.User = flags.User
		}
		if flags.Password != "" {
			result.Password = flags.Password
		}
	}

	if result.URL == "" {
		return nil, fmt.Errorf("%w: %s needs --rpc-url, %s or rpc_url in the config file", ErrMissingConfig, network, EnvRPCURL)
	}
	return &result, nil
}
