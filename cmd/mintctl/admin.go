package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/libmint-go/config"
	"github.com/bitfsorg/libmint-go/issuance"
	"github.com/bitfsorg/libmint-go/registry"
)

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file into the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := config.ConfigPath(a.cfg.DataDir)
			written, err := writeConfigIfMissing(path, a.cfg)
			if err != nil {
				return err
			}
			if !written {
				fmt.Fprintf(cmd.OutOrStdout(), "config exists: %s\n", path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
}

func (a *app) deployCmd() *cobra.Command {
	var revealed, hidden string
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Create the controller with the caller as administrator",
		Long: `Create the controller in <datadir>/mint.db. The caller becomes the
administrator. Locators default to revealed_uri and hidden_uri from the
config file; both usually end with "/" since the token id is appended.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			admin, err := a.caller()
			if err != nil {
				return err
			}
			if revealed == "" {
				revealed = a.cfg.RevealedURI
			}
			if hidden == "" {
				hidden = a.cfg.HiddenURI
			}
			st, err := a.store()
			if err != nil {
				return err
			}
			c, err := issuance.Deploy(st, admin, registry.Locators{Revealed: revealed, Hidden: hidden},
				issuance.WithTracer(a.tracer))
			if err != nil {
				return err
			}
			s, err := c.Settings()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "deployed: admin %s\n", admin.Encode(a.mainnet()))
			fmt.Fprintf(out, "stage %s, cost %d, per-tx %d, max %d, supply cap %d\n",
				s.Stage, s.UnitPrice, s.MaxMintAmountPerTx, s.MaxMintAmount, s.MaxSupply)
			return nil
		},
	}
	cmd.Flags().StringVar(&revealed, "revealed-uri", "", "metadata base once revealed")
	cmd.Flags().StringVar(&hidden, "hidden-uri", "", "metadata base before reveal")
	return cmd
}

func (a *app) addressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the caller address derived from --key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, err := a.caller()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr.Encode(a.mainnet()))
			return nil
		},
	}
}

func (a *app) mintCmd() *cobra.Command {
	var pay uint64
	cmd := &cobra.Command{
		Use:   "mint QUANTITY",
		Short: "Mint tokens to the caller, paying --pay satoshis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseUint(args[0], "quantity")
			if err != nil {
				return err
			}
			caller, err := a.caller()
			if err != nil {
				return err
			}
			c, err := a.controller()
			if err != nil {
				return err
			}
			m, err := c.Mint(cmd.Context(), caller, qty, pay)
			if err != nil {
				return err
			}
			printMinted(cmd, m, a.mainnet())
			return nil
		},
	}
	cmd.Flags().Uint64Var(&pay, "pay", 0, "payment attached to the mint, in satoshis")
	_ = cmd.MarkFlagRequired("pay")
	return cmd
}

func (a *app) mintForCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mint-for QUANTITY ADDRESS|PAYMAIL",
		Short: "Mint tokens to ADDRESS without sale checks (administrator)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseUint(args[0], "quantity")
			if err != nil {
				return err
			}
			recipient, err := a.recipient(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			caller, err := a.caller()
			if err != nil {
				return err
			}
			c, err := a.controller()
			if err != nil {
				return err
			}
			m, err := c.MintForAddress(cmd.Context(), caller, qty, recipient)
			if err != nil {
				return err
			}
			printMinted(cmd, m, a.mainnet())
			return nil
		},
	}
}

func printMinted(cmd *cobra.Command, m issuance.Minted, mainnet bool) {
	last := m.First + m.Quantity - 1
	fmt.Fprintf(cmd.OutOrStdout(), "minted %d to %s: ids %d-%d (paid %d)\n",
		m.Quantity, m.Holder.Encode(mainnet), m.First, last, m.Paid)
}

func (a *app) stageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stage paused|presale|public",
		Short: "Set the sale stage (administrator)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stage, err := issuance.ParseStage(args[0])
			if err != nil {
				return err
			}
			return a.adminDo(cmd, func(c *issuance.Controller, caller registry.Address) error {
				return c.SetStage(cmd.Context(), caller, stage)
			}, "stage: %s", stage)
		},
	}
}

// setCmd groups the numeric quota setters.
func (a *app) setCmd() *cobra.Command {
	set := &cobra.Command{
		Use:   "set",
		Short: "Change a quota setting (administrator)",
	}
	setters := []struct {
		use, short string
		apply      func(*issuance.Controller, context.Context, registry.Address, uint64) error
	}{
		{"cost SATOSHIS", "Set the unit price", (*issuance.Controller).SetCost},
		{"per-tx N", "Set the maximum quantity per mint", (*issuance.Controller).SetMaxMintAmountPerTx},
		{"max N", "Set the maximum tokens one holder may hold", (*issuance.Controller).SetMaxMintAmount},
		{"supply N", "Set the maximum total supply", (*issuance.Controller).SetMaxSupply},
	}
	for _, s := range setters {
		set.AddCommand(&cobra.Command{
			Use:   s.use,
			Short: s.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := parseUint(args[0], "value")
				if err != nil {
					return err
				}
				return a.adminDo(cmd, func(c *issuance.Controller, caller registry.Address) error {
					return s.apply(c, cmd.Context(), caller, n)
				}, "%s: %d", cmd.Name(), n)
			},
		})
	}
	return set
}

func (a *app) whitelistCmd() *cobra.Command {
	wl := &cobra.Command{
		Use:   "whitelist",
		Short: "Manage the presale allow-list",
	}
	wl.AddCommand(&cobra.Command{
		Use:   "add ADDRESS...",
		Short: "Add addresses to the allow-list (administrator)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			holders, err := parseAddresses(args)
			if err != nil {
				return err
			}
			return a.adminDo(cmd, func(c *issuance.Controller, caller registry.Address) error {
				return c.AddToWhitelist(cmd.Context(), caller, holders...)
			}, "whitelisted %d", len(holders))
		},
	})
	wl.AddCommand(&cobra.Command{
		Use:   "check ADDRESS",
		Short: "Report whether ADDRESS is on the allow-list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			holder, err := registry.ParseAddress(args[0])
			if err != nil {
				return err
			}
			c, err := a.controller()
			if err != nil {
				return err
			}
			ok, err := c.IsWhitelisted(holder)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ok)
			return nil
		},
	})
	return wl
}

func (a *app) revealCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reveal true|false",
		Short: "Switch token URIs between the hidden and revealed bases (administrator)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			revealed, err := strconv.ParseBool(args[0])
			if err != nil {
				return fmt.Errorf("reveal: %w", err)
			}
			return a.adminDo(cmd, func(c *issuance.Controller, caller registry.Address) error {
				return c.SetRevealed(cmd.Context(), caller, revealed)
			}, "revealed: %t", revealed)
		},
	}
}

func (a *app) transferAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transfer-admin ADDRESS",
		Short: "Hand the administrator role to ADDRESS (administrator)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			next, err := registry.ParseAddress(args[0])
			if err != nil {
				return err
			}
			return a.adminDo(cmd, func(c *issuance.Controller, caller registry.Address) error {
				return c.TransferAdmin(cmd.Context(), caller, next)
			}, "admin: %s", next.Encode(a.mainnet()))
		},
	}
}

// adminDo opens the controller, runs fn as the caller and prints a
// confirmation line on success.
func (a *app) adminDo(cmd *cobra.Command, fn func(*issuance.Controller, registry.Address) error, format string, args ...any) error {
	caller, err := a.caller()
	if err != nil {
		return err
	}
	c, err := a.controller()
	if err != nil {
		return err
	}
	if err := fn(c, caller); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
	return nil
}

func parseUint(s, what string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", what, s, err)
	}
	return n, nil
}

func parseAddresses(args []string) ([]registry.Address, error) {
	out := make([]registry.Address, 0, len(args))
	for _, s := range args {
		addr, err := registry.ParseAddress(s)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}
