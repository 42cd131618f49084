package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/libmint-go/issuance"
	"github.com/bitfsorg/libmint-go/registry"
)

func (a *app) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print deployment, settings, supply and pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.controller()
			if err != nil {
				return err
			}
			d, err := c.Deployment()
			if err != nil {
				return err
			}
			s, err := c.Settings()
			if err != nil {
				return err
			}
			supply, err := c.TotalSupply()
			if err != nil {
				return err
			}
			revealed, err := c.Revealed()
			if err != nil {
				return err
			}
			pool, err := c.PoolBalance()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "admin:       %s\n", d.Admin.Encode(a.mainnet()))
			fmt.Fprintf(out, "stage:       %s\n", s.Stage)
			fmt.Fprintf(out, "cost:        %d\n", s.UnitPrice)
			fmt.Fprintf(out, "per-tx:      %d\n", s.MaxMintAmountPerTx)
			fmt.Fprintf(out, "max:         %d\n", s.MaxMintAmount)
			fmt.Fprintf(out, "supply:      %d/%d\n", supply, s.MaxSupply)
			fmt.Fprintf(out, "revealed:    %t\n", revealed)
			fmt.Fprintf(out, "revealed uri %s\n", d.Locators.Revealed)
			fmt.Fprintf(out, "hidden uri   %s\n", d.Locators.Hidden)
			fmt.Fprintf(out, "pool:        %d\n", pool)
			return nil
		},
	}
}

func (a *app) supplyCmd() *cobra.Command {
	return a.queryCmd("supply", "Print the total supply", cobra.NoArgs,
		func(c *issuance.Controller, _ []string) (string, error) {
			n, err := c.TotalSupply()
			return fmt.Sprint(n), err
		})
}

func (a *app) walletCmd() *cobra.Command {
	return a.queryCmd("wallet ADDRESS", "List the token ids held by ADDRESS", cobra.ExactArgs(1),
		func(c *issuance.Controller, args []string) (string, error) {
			holder, err := registry.ParseAddress(args[0])
			if err != nil {
				return "", err
			}
			ids, err := c.WalletOfOwner(holder)
			if err != nil {
				return "", err
			}
			parts := make([]string, len(ids))
			for i, id := range ids {
				parts[i] = fmt.Sprint(id)
			}
			return strings.Join(parts, " "), nil
		})
}

func (a *app) ownerOfCmd() *cobra.Command {
	return a.queryCmd("owner-of ID", "Print the holder of token ID", cobra.ExactArgs(1),
		func(c *issuance.Controller, args []string) (string, error) {
			id, err := parseUint(args[0], "token id")
			if err != nil {
				return "", err
			}
			owner, err := c.Registry().OwnerOf(id)
			if err != nil {
				return "", err
			}
			return owner.Encode(a.mainnet()), nil
		})
}

func (a *app) tokenURICmd() *cobra.Command {
	return a.queryCmd("token-uri ID", "Print the metadata locator of token ID", cobra.ExactArgs(1),
		func(c *issuance.Controller, args []string) (string, error) {
			id, err := parseUint(args[0], "token id")
			if err != nil {
				return "", err
			}
			return c.TokenURI(id)
		})
}

// queryCmd builds a read-only command that prints one line.
func (a *app) queryCmd(use, short string, args cobra.PositionalArgs, fn func(*issuance.Controller, []string) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, argv []string) error {
			c, err := a.controller()
			if err != nil {
				return err
			}
			line, err := fn(c, argv)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
			return nil
		},
	}
}
