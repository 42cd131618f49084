// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config reads and writes the mintctl configuration file.
//
// The file is a flat list of "key = value" lines. Blank lines and lines
// starting with '#' are skipped, and unknown keys are ignored so older
// binaries can read files written by newer ones.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// configFileName is the name of the configuration file inside the data dir.
const configFileName = "config"

// Config holds the operator settings for mintctl.
type Config struct {
	DataDir     string
	Network     string
	LogLevel    string
	LogFile     string
	RPCURL      string
	RPCUser     string
	RPCPassword string
	RevealedURI string
	HiddenURI   string
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		DataDir:  DefaultDataDir(),
		Network:  "regtest",
		LogLevel: "info",
	}
}

// DefaultDataDir returns ~/.mint, or ".mint" when the home directory is unknown.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mint"
	}
	return filepath.Join(home, ".mint")
}

// ConfigPath returns the configuration file path inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(filepath.Clean(dataDir), configFileName)
}

// fields maps file keys to the Config field they populate. Order is the
// order SaveConfig writes them in.
var fields = []struct {
	key string
	ptr func(*Config) *string
}{
	{"datadir", func(c *Config) *string { return &c.DataDir }},
	{"network", func(c *Config) *string { return &c.Network }},
	{"loglevel", func(c *Config) *string { return &c.LogLevel }},
	{"logfile", func(c *Config) *string { return &c.LogFile }},
	{"rpc_url", func(c *Config) *string { return &c.RPCURL }},
	{"rpc_user", func(c *Config) *string { return &c.RPCUser }},
	{"rpc_password", func(c *Config) *string { return &c.RPCPassword }},
	{"revealed_uri", func(c *Config) *string { return &c.RevealedURI }},
	{"hidden_uri", func(c *Config) *string { return &c.HiddenURI }},
}

// LoadConfig reads path on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := parseKeyValue(line)
		if err != nil {
			return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, lineNo, line)
		}
		for _, fld := range fields {
			if fld.key == key {
				*fld.ptr(&cfg) = value
				break
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path, creating the parent directory. The file is
// private to the user since it may hold the RPC password.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Mint Configuration\n")
	b.WriteString("# Lines are key = value; '#' starts a comment.\n\n")
	for _, fld := range fields {
		fmt.Fprintf(&b, "%s = %s\n", fld.key, *fld.ptr(&cfg))
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// parseKeyValue splits on the first '='. The key is lowercased.
func parseKeyValue(line string) (string, string, error) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", ErrInvalidConfigLine
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "", "", ErrInvalidConfigLine
	}
	return key, strings.TrimSpace(value), nil
}
