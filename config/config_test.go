// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Network", cfg.Network, "regtest"},
		{"LogLevel", cfg.LogLevel, "info"},
		{"LogFile", cfg.LogFile, ""},
		{"RPCURL", cfg.RPCURL, ""},
		{"RevealedURI", cfg.RevealedURI, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got %q, want %q", tc.got, tc.want)
			}
		})
	}

	if !strings.HasSuffix(cfg.DataDir, ".mint") {
		t.Errorf("DataDir = %q, want suffix .mint", cfg.DataDir)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")

	original := Config{
		DataDir:     "/tmp/test-mint",
		Network:     "testnet",
		LogLevel:    "debug",
		LogFile:     "/tmp/mint.log",
		RPCURL:      "http://127.0.0.1:18333",
		RPCUser:     "alice",
		RPCPassword: "s3cret=x",
		RevealedURI: "ipfs://QmRevealed/",
		HiddenURI:   "ipfs://QmHidden/",
	}

	if err := SaveConfig(path, original); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded != original {
		t.Errorf("round trip:\n got %+v\nwant %+v", loaded, original)
	}
}

func TestSaveConfigCreatesPrivateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "config")

	if err := SaveConfig(path, DefaultConfig()); err != nil {
		t.Fatalf("SaveConfig should create parent dirs: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestSaveConfigOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	if err := SaveConfig(path, DefaultConfig()); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)

	if !strings.HasPrefix(content, "# Mint Configuration\n") {
		t.Error("saved config should start with '# Mint Configuration'")
	}
	for _, key := range []string{"datadir", "network", "loglevel", "logfile", "rpc_url", "rpc_user", "rpc_password", "revealed_uri", "hidden_uri"} {
		if !strings.Contains(content, key+" = ") {
			t.Errorf("saved config should contain key %q", key)
		}
	}
}

func TestLoadConfigNotFound(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfig missing file: got %v, want ErrConfigNotFound", err)
	}
	// Callers fall back to the returned defaults.
	if cfg.Network != "regtest" {
		t.Errorf("Network = %q, want default", cfg.Network)
	}
}

func TestLoadConfigInvalidLine(t *testing.T) {
	for _, content := range []string{"this-is-not-key-value\n", "= value\n"} {
		_, err := LoadConfig(writeConfig(t, content))
		if !errors.Is(err, ErrInvalidConfigLine) {
			t.Errorf("LoadConfig(%q): got %v, want ErrInvalidConfigLine", content, err)
		}
	}
}

func TestLoadConfigParsing(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(Config) bool
	}{
		{
			name:    "comments_and_blanks",
			content: "# comment\nnetwork = testnet\n\n# more\nloglevel = debug\n",
			check:   func(c Config) bool { return c.Network == "testnet" && c.LogLevel == "debug" },
		},
		{
			name:    "unset_keep_defaults",
			content: "logfile = /tmp/x.log\n",
			check:   func(c Config) bool { return c.Network == "regtest" && c.LogLevel == "info" },
		},
		{
			name:    "unknown_keys_ignored",
			content: "futurekey = futurevalue\nnetwork = mainnet\n",
			check:   func(c Config) bool { return c.Network == "mainnet" },
		},
		{
			name:    "empty_value",
			content: "network=\n",
			check:   func(c Config) bool { return c.Network == "" },
		},
		{
			name:    "multiple_equals",
			content: "rpc_password=a=b=c\n",
			check:   func(c Config) bool { return c.RPCPassword == "a=b=c" },
		},
		{
			name:    "whitespace_and_case",
			content: "  Revealed_URI =  ipfs://QmX/  \n",
			check:   func(c Config) bool { return c.RevealedURI == "ipfs://QmX/" },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, tc.content))
			if err != nil {
				t.Fatalf("LoadConfig: %v", err)
			}
			if !tc.check(cfg) {
				t.Errorf("unexpected config %+v", cfg)
			}
		})
	}
}

func TestLoadConfigPermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission test not reliable on Windows")
	}
	if os.Getuid() == 0 {
		t.Skip("cannot test permission denial as root")
	}

	path := writeConfig(t, "network=testnet\n")
	if err := os.Chmod(path, 0000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(path, 0600) })

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("LoadConfig on unreadable file: expected error, got nil")
	}
	if errors.Is(err, ErrConfigNotFound) {
		t.Error("unreadable file should not report ErrConfigNotFound")
	}
}

func TestValidateConfigDefaults(t *testing.T) {
	if err := ValidateConfig(DefaultConfig()); err != nil {
		t.Errorf("ValidateConfig(DefaultConfig()) = %v, want nil", err)
	}
}

func TestValidateConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"empty_datadir", func(c *Config) { c.DataDir = "" }, ErrEmptyDataDir},
		{"bad_network", func(c *Config) { c.Network = "devnet" }, ErrInvalidNetwork},
		{"empty_network", func(c *Config) { c.Network = "" }, ErrInvalidNetwork},
		{"bad_loglevel", func(c *Config) { c.LogLevel = "verbose" }, ErrInvalidLogLevel},
		{"rpc_scheme", func(c *Config) { c.RPCURL = "ftp://node:21" }, ErrInvalidRPCURL},
		{"rpc_no_host", func(c *Config) { c.RPCURL = "http://" }, ErrInvalidRPCURL},
		{"rpc_unparsable", func(c *Config) { c.RPCURL = "http://[::1" }, ErrInvalidRPCURL},
		{"locator_whitespace", func(c *Config) { c.HiddenURI = "ipfs://a b/" }, ErrInvalidLocator},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.modify(&cfg)
			if err := ValidateConfig(cfg); !errors.Is(err, tc.wantErr) {
				t.Errorf("ValidateConfig: got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidateConfigAccepts(t *testing.T) {
	for _, network := range []string{"mainnet", "testnet", "regtest"} {
		cfg := DefaultConfig()
		cfg.Network = network
		if err := ValidateConfig(cfg); err != nil {
			t.Errorf("network %q: %v", network, err)
		}
	}
	for _, level := range []string{"debug", "INFO", "Warn", "error"} {
		cfg := DefaultConfig()
		cfg.LogLevel = level
		if err := ValidateConfig(cfg); err != nil {
			t.Errorf("loglevel %q: %v", level, err)
		}
	}
	for _, u := range []string{"http://localhost:18332", "https://node.example.com/rpc", "http://[::1]:8332"} {
		cfg := DefaultConfig()
		cfg.RPCURL = u
		if err := ValidateConfig(cfg); err != nil {
			t.Errorf("rpc url %q: %v", u, err)
		}
	}
}

func TestConfigPath(t *testing.T) {
	tests := []struct{ dir, want string }{
		{"/home/user/.mint", filepath.Join("/home/user/.mint", "config")},
		{"/foo/", filepath.Join("/foo", "config")},
	}
	for _, tc := range tests {
		if got := ConfigPath(tc.dir); got != tc.want {
			t.Errorf("ConfigPath(%q) = %q, want %q", tc.dir, got, tc.want)
		}
	}
}
