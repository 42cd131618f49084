package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/libmint-go/wallet"
)

func (a *app) keyCmd() *cobra.Command {
	key := &cobra.Command{
		Use:   "key",
		Short: "Manage the HD keystore in the data directory",
		Long: `The keystore holds one BIP39 seed sealed with --password (or
MINT_PASSWORD). Keys are derived per role at m/44'/236'/{role}'/0/{index}:
admin is role 0, treasury role 1 and buyer role 2. Commands use the keystore
when --key is not given.`,
	}

	var words int
	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Generate a mnemonic and create the keystore",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bits, ok := map[int]int{12: wallet.Mnemonic12Words, 24: wallet.Mnemonic24Words}[words]
			if !ok {
				return fmt.Errorf("--words must be 12 or 24, got %d", words)
			}
			mnemonic, err := wallet.GenerateMnemonic(bits)
			if err != nil {
				return err
			}
			if err := a.createKeystore(cmd, mnemonic); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "mnemonic: %s\n", mnemonic)
			return nil
		},
	}
	newCmd.Flags().IntVar(&words, "words", 12, "mnemonic length, 12 or 24")

	importCmd := &cobra.Command{
		Use:   "import WORD...",
		Short: "Create the keystore from an existing mnemonic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.createKeystore(cmd, strings.Join(args, " "))
		},
	}

	var showWIF bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the path and address of the --role/--index key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			role, err := wallet.ParseRole(a.v.GetString("role"))
			if err != nil {
				return err
			}
			w, err := wallet.Load(wallet.KeystorePath(a.cfg.DataDir), a.v.GetString("password"), a.mainnet())
			if err != nil {
				return err
			}
			kp, err := w.DeriveKey(role, a.v.GetUint32("index"))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s %s\n", role, kp.Path, kp.Address().Encode(a.mainnet()))
			if showWIF {
				fmt.Fprintf(out, "wif: %s\n", kp.PrivateKey.Wif())
			}
			return nil
		},
	}
	showCmd.Flags().BoolVar(&showWIF, "wif", false, "also print the private key")

	key.AddCommand(newCmd, importCmd, showCmd)
	return key
}

// createKeystore seals mnemonic into the data directory and prints the
// admin and treasury addresses it yields.
func (a *app) createKeystore(cmd *cobra.Command, mnemonic string) error {
	path := wallet.KeystorePath(a.cfg.DataDir)
	password := a.v.GetString("password")
	if err := wallet.Create(path, mnemonic, password); err != nil {
		return err
	}
	w, err := wallet.Load(path, password, a.mainnet())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "keystore: %s\n", path)
	for _, role := range []wallet.Role{wallet.RoleAdmin, wallet.RoleTreasury} {
		kp, err := w.DeriveKey(role, 0)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s\n", role, kp.Address().Encode(a.mainnet()))
	}
	return nil
}
