package main

import (
	"fmt"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/libmint-go/issuance"
	"github.com/bitfsorg/libmint-go/network"
	"github.com/bitfsorg/libmint-go/payout"
	"github.com/bitfsorg/libmint-go/registry"
	"github.com/bitfsorg/libmint-go/spv"
	"github.com/bitfsorg/libmint-go/wallet"
)

// newChain is replaced in tests.
var newChain = func(cfg network.RPCConfig) network.BlockchainService {
	return network.NewRPCClient(cfg)
}

// chain resolves RPC settings (flags, env and config file via viper, then
// network presets) and returns a node client.
func (a *app) chain() (network.BlockchainService, error) {
	resolved, err := network.ResolveConfig(&network.RPCConfig{
		URL:      a.cfg.RPCURL,
		User:     a.cfg.RPCUser,
		Password: a.cfg.RPCPassword,
	}, nil, a.cfg.Network)
	if err != nil {
		return nil, err
	}
	return newChain(*resolved), nil
}

// treasuryKey is --treasury-key when set, else the keystore treasury key,
// else the caller key.
func (a *app) treasuryKey(cmd *cobra.Command) (*ec.PrivateKey, error) {
	if wif, _ := cmd.Flags().GetString("treasury-key"); wif != "" {
		return parseWIF("--treasury-key", wif)
	}
	if a.v.GetString("key") == "" && wallet.Exists(wallet.KeystorePath(a.cfg.DataDir)) {
		return a.keystoreKey(wallet.RoleTreasury, 0)
	}
	return a.callerKey()
}

func (a *app) treasury(cmd *cobra.Command, opts ...payout.TreasuryOption) (*payout.Treasury, error) {
	key, err := a.treasuryKey(cmd)
	if err != nil {
		return nil, err
	}
	chain, err := a.chain()
	if err != nil {
		return nil, err
	}
	return payout.NewTreasury(key, chain, a.mainnet(), opts...)
}

func (a *app) withdrawCmd() *cobra.Command {
	var (
		feeRate uint64
		memo    string
	)
	cmd := &cobra.Command{
		Use:   "withdraw ADDRESS|PAYMAIL",
		Short: "Pay the accumulated pool to ADDRESS on chain (administrator)",
		Long: `Pay the whole pool to ADDRESS from the treasury key's unspent outputs.
A paymail (alias@domain) is resolved to its identity key's address.
The pool is only cleared when the node accepts the payment.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recipient, err := a.recipient(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			caller, err := a.caller()
			if err != nil {
				return err
			}
			opts := []payout.TreasuryOption{payout.WithFeeRate(feeRate)}
			if memo != "" {
				opts = append(opts, payout.WithMemo([]byte(memo)))
			}
			tr, err := a.treasury(cmd, opts...)
			if err != nil {
				return err
			}
			c, err := a.controller(issuance.WithPayout(tr))
			if err != nil {
				return err
			}
			amount, err := c.Withdraw(cmd.Context(), caller, recipient)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "withdrew %d to %s\n", amount, recipient.Encode(a.mainnet()))
			return nil
		},
	}
	cmd.Flags().String("treasury-key", "", "WIF key whose outputs fund the payment (default --key)")
	cmd.Flags().Uint64Var(&feeRate, "fee-rate", payout.DefaultFeeRate, "fee rate in sat/KB")
	cmd.Flags().StringVar(&memo, "memo", "", "OP_RETURN memo attached to the payment")
	return cmd
}

func (a *app) treasuryCmd() *cobra.Command {
	t := &cobra.Command{
		Use:   "treasury",
		Short: "Inspect the key that funds withdrawals",
	}
	t.PersistentFlags().String("treasury-key", "", "treasury WIF key (default --key)")

	t.AddCommand(&cobra.Command{
		Use:   "balance",
		Short: "Sum the treasury's unspent outputs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tr, err := a.treasury(cmd)
			if err != nil {
				return err
			}
			bal, err := tr.Balance(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d\n", tr.Address().Encode(a.mainnet()), bal)
			return nil
		},
	})
	t.AddCommand(&cobra.Command{
		Use:   "import",
		Short: "Register the treasury address with the node as watch-only",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := a.treasuryKey(cmd)
			if err != nil {
				return err
			}
			chain, err := a.chain()
			if err != nil {
				return err
			}
			addr := registry.AddressFromPublicKey(key.PubKey()).Encode(a.mainnet())
			if err := chain.ImportAddress(cmd.Context(), addr); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", addr)
			return nil
		},
	})
	return t
}

func (a *app) txStatusCmd() *cobra.Command {
	var verify bool
	cmd := &cobra.Command{
		Use:   "tx-status TXID",
		Short: "Report the confirmation status of a withdrawal transaction",
		Long: `Report the confirmation status of a withdrawal transaction.
With --verify the block header's proof of work and the transaction's merkle
proof are checked locally; verified headers are kept in mint.db.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := a.chain()
			if err != nil {
				return err
			}
			if verify {
				return a.verifyTx(cmd, chain, args[0])
			}
			st, err := chain.GetTxStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !st.Confirmed {
				fmt.Fprintln(cmd.OutOrStdout(), "unconfirmed")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "confirmed: %d confirmations, block %d %s\n",
				st.Confirmations, st.BlockHeight, st.BlockHash)
			return nil
		},
	}
	cmd.Flags().BoolVar(&verify, "verify", false, "check the merkle proof against a proof-of-work checked header")
	return cmd
}

func (a *app) verifyTx(cmd *cobra.Command, chain network.BlockchainService, txid string) error {
	st, err := a.store()
	if err != nil {
		return err
	}
	res, err := network.NewSPVClient(chain, spv.NewHeaderStore(st)).VerifyTx(cmd.Context(), txid)
	if err != nil {
		return err
	}
	if !res.Confirmed {
		fmt.Fprintln(cmd.OutOrStdout(), "unconfirmed")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "verified: block %d %s\n", res.BlockHeight, res.BlockHash)
	return nil
}
