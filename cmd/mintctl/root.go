package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"

	"github.com/bitfsorg/libmint-go/config"
	"github.com/bitfsorg/libmint-go/issuance"
	"github.com/bitfsorg/libmint-go/logging"
	"github.com/bitfsorg/libmint-go/registry"
	"github.com/bitfsorg/libmint-go/store"
	"github.com/bitfsorg/libmint-go/tracing"
	"github.com/bitfsorg/libmint-go/wallet"
)

// envPrefix namespaces environment overrides, e.g. MINT_KEY, MINT_RPC_URL.
const envPrefix = "MINT"

// dbFileName is the bbolt database inside the data directory.
const dbFileName = "mint.db"

// app carries the per-invocation state shared by all commands.
type app struct {
	v       *viper.Viper
	cfg     config.Config
	tracer  trace.Tracer
	st      *store.BoltStore
	cleanup []func()
}

func newApp() *app {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return &app{v: v, tracer: tracing.Noop()}
}

// execute runs one mintctl invocation with args.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := newApp()
	defer a.close()

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mintctl",
		Short: "Operate a token issuance controller",
		Long: `mintctl drives an issuance controller persisted in <datadir>/mint.db.

Settings are taken from flags, then MINT_* environment variables, then
<datadir>/config, then built-in defaults. The caller of every mutating
command is the address of the WIF key given by --key or MINT_KEY.`,
		Version:           fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return a.setup(cmd) },
	}

	pf := root.PersistentFlags()
	pf.String("datadir", config.DefaultDataDir(), "data directory holding config and mint.db")
	pf.String("network", "", "mainnet, testnet or regtest (address encoding and RPC presets)")
	pf.String("key", "", "caller private key in WIF (default: keystore key for --role)")
	pf.String("password", "", "keystore password")
	pf.String("role", "admin", "keystore role: admin, treasury or buyer")
	pf.Uint32("index", 0, "keystore key index within the role")
	pf.String("log-level", "", "debug, info, warn or error")
	pf.String("log-file", "", "append logs to this file instead of stderr")
	pf.Bool("trace", false, "print OpenTelemetry spans to stderr")
	pf.String("rpc-url", "", "node JSON-RPC endpoint")
	pf.String("rpc-user", "", "node JSON-RPC user")
	pf.String("rpc-pass", "", "node JSON-RPC password")
	pf.Bool("dnssec", false, "require DNSSEC-validated SRV records when resolving paymail recipients")
	pf.String("dns-upstream", "", "recursive resolver used by --dnssec (default 8.8.8.8:53)")
	_ = a.v.BindPFlags(pf)

	root.AddCommand(
		a.initCmd(),
		a.deployCmd(),
		a.addressCmd(),
		a.keyCmd(),
		a.mintCmd(),
		a.mintForCmd(),
		a.stageCmd(),
		a.setCmd(),
		a.whitelistCmd(),
		a.revealCmd(),
		a.transferAdminCmd(),
		a.withdrawCmd(),
		a.treasuryCmd(),
		a.txStatusCmd(),
		a.statusCmd(),
		a.supplyCmd(),
		a.walletCmd(),
		a.ownerOfCmd(),
		a.tokenURICmd(),
	)
	return root
}

// setup layers the config file under flags and env, then starts logging
// and tracing.
func (a *app) setup(cmd *cobra.Command) error {
	dataDir := a.v.GetString("datadir")
	if dataDir == "" {
		dataDir = config.DefaultDataDir()
	}

	cfg, err := config.LoadConfig(config.ConfigPath(dataDir))
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return err
	}
	a.v.SetDefault("network", cfg.Network)
	a.v.SetDefault("log-level", cfg.LogLevel)
	a.v.SetDefault("log-file", cfg.LogFile)
	a.v.SetDefault("rpc-url", cfg.RPCURL)
	a.v.SetDefault("rpc-user", cfg.RPCUser)
	a.v.SetDefault("rpc-pass", cfg.RPCPassword)

	cfg.DataDir = dataDir
	cfg.Network = a.v.GetString("network")
	cfg.LogLevel = a.v.GetString("log-level")
	cfg.LogFile = a.v.GetString("log-file")
	cfg.RPCURL = a.v.GetString("rpc-url")
	cfg.RPCUser = a.v.GetString("rpc-user")
	cfg.RPCPassword = a.v.GetString("rpc-pass")
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}
	a.cfg = cfg

	if err := a.setupLogging(cmd.ErrOrStderr()); err != nil {
		return err
	}

	if a.v.GetBool("trace") {
		tcfg := tracing.DefaultConfig()
		tcfg.Enabled = true
		tcfg.Writer = cmd.ErrOrStderr()
		provider, err := tracing.NewProvider(tcfg)
		if err != nil {
			return err
		}
		a.tracer = provider.Tracer()
		a.onClose(func() { _ = provider.Shutdown(context.Background()) })
	}
	return nil
}

func (a *app) setupLogging(stderr io.Writer) error {
	level, err := logging.ParseLevel(a.cfg.LogLevel)
	if err != nil {
		return err
	}
	if a.cfg.LogFile != "" {
		closeLog, err := logging.Init(a.cfg.LogFile)
		if err != nil {
			return err
		}
		a.onClose(closeLog)
	} else {
		logging.SetOutput(stderr)
	}
	logging.SetMinLevel(level)
	logging.Debug(logging.CatConfig, "configured", "datadir", a.cfg.DataDir, "network", a.cfg.Network)
	return nil
}

func (a *app) onClose(fn func()) { a.cleanup = append(a.cleanup, fn) }

// close runs cleanups in reverse registration order.
func (a *app) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}

func (a *app) mainnet() bool { return a.cfg.Network == "mainnet" }

// store opens the bbolt database once per invocation.
func (a *app) store() (*store.BoltStore, error) {
	if a.st != nil {
		return a.st, nil
	}
	st, err := store.OpenBoltStore(filepath.Join(a.cfg.DataDir, dbFileName))
	if err != nil {
		return nil, err
	}
	a.st = st
	a.onClose(func() { _ = st.Close() })
	return st, nil
}

// controller opens the existing deployment.
func (a *app) controller(opts ...issuance.Option) (*issuance.Controller, error) {
	st, err := a.store()
	if err != nil {
		return nil, err
	}
	return issuance.Open(st, append([]issuance.Option{issuance.WithTracer(a.tracer)}, opts...)...)
}

// callerKey parses --key, or derives the --role/--index key from the
// keystore when no WIF is given.
func (a *app) callerKey() (*ec.PrivateKey, error) {
	if wif := a.v.GetString("key"); wif != "" {
		return parseWIF("--key", wif)
	}
	role, err := wallet.ParseRole(a.v.GetString("role"))
	if err != nil {
		return nil, err
	}
	return a.keystoreKey(role, a.v.GetUint32("index"))
}

// keystoreKey derives a key from <datadir>/keystore.enc.
func (a *app) keystoreKey(role wallet.Role, index uint32) (*ec.PrivateKey, error) {
	path := wallet.KeystorePath(a.cfg.DataDir)
	if !wallet.Exists(path) {
		return nil, fmt.Errorf("%w: pass --key, set %s_KEY or run 'mintctl key new'", errMissingKey, envPrefix)
	}
	w, err := wallet.Load(path, a.v.GetString("password"), a.mainnet())
	if err != nil {
		return nil, err
	}
	kp, err := w.DeriveKey(role, index)
	if err != nil {
		return nil, err
	}
	return kp.PrivateKey, nil
}

func (a *app) caller() (registry.Address, error) {
	key, err := a.callerKey()
	if err != nil {
		return registry.ZeroAddress, err
	}
	return registry.AddressFromPublicKey(key.PubKey()), nil
}

func parseWIF(source, wif string) (*ec.PrivateKey, error) {
	if wif == "" {
		return nil, fmt.Errorf("%w: %s is required", errMissingKey, source)
	}
	key, err := ec.PrivateKeyFromWif(wif)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errInvalidKey, source, err)
	}
	return key, nil
}

var (
	errMissingKey = errors.New("missing private key")
	errInvalidKey = errors.New("invalid private key")
)

// writeConfigIfMissing is used by init; it never overwrites an existing file.
func writeConfigIfMissing(path string, cfg config.Config) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	return true, config.SaveConfig(path, cfg)
}
