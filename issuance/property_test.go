package issuance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/bitfsorg/libmint-go/registry"
	"github.com/bitfsorg/libmint-go/revert"
	"github.com/bitfsorg/libmint-go/store"
)

// TestProperty_OwnershipPartition drives random operation sequences and
// checks after each step that supply never decreases, successful mints
// extend supply by exactly their quantity, failed calls change nothing, and
// the holders' wallets partition {1..supply}.
func TestProperty_OwnershipPartition(t *testing.T) {
	holders := []registry.Address{makeAddr(1), makeAddr(2), makeAddr(3), admin}

	rapid.Check(t, func(rt *rapid.T) {
		st := store.NewMemStore()
		defer st.Close()
		c, err := Deploy(st, admin, locators)
		require.NoError(rt, err)
		ctx := context.Background()

		var prev uint64
		steps := rapid.IntRange(1, 40).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			who := holders[rapid.IntRange(0, len(holders)-1).Draw(rt, "who")]
			qty := uint64(rapid.IntRange(0, 7).Draw(rt, "qty"))

			var (
				m     Minted
				opErr error
				mint  bool
			)
			switch rapid.IntRange(0, 6).Draw(rt, "op") {
			case 0, 1:
				pay := qty * DefaultUnitPrice
				if rapid.Bool().Draw(rt, "underpay") && pay > 0 {
					pay--
				}
				m, opErr = c.Mint(ctx, who, qty, pay)
				mint = true
			case 2:
				m, opErr = c.MintForAddress(ctx, who, qty, holders[rapid.IntRange(0, 2).Draw(rt, "recipient")])
				mint = true
			case 3:
				opErr = c.SetStage(ctx, who, Stage(rapid.IntRange(0, 2).Draw(rt, "stage")))
			case 4:
				opErr = c.AddToWhitelist(ctx, who, holders[rapid.IntRange(0, 2).Draw(rt, "listed")])
			case 5:
				opErr = c.SetMaxSupply(ctx, who, uint64(rapid.IntRange(0, 60).Draw(rt, "maxSupply")))
			case 6:
				opErr = c.SetMaxMintAmount(ctx, who, uint64(rapid.IntRange(0, 20).Draw(rt, "maxMint")))
			}
			if opErr != nil && !revert.Is(opErr) {
				rt.Fatalf("unexpected infrastructure error: %v", opErr)
			}

			supply, err := c.TotalSupply()
			require.NoError(rt, err)
			if supply < prev {
				rt.Fatalf("supply decreased: %d -> %d", prev, supply)
			}
			switch {
			case mint && opErr == nil:
				require.Equal(rt, prev+qty, supply)
				require.Equal(rt, prev+1, m.First)
			default:
				require.Equal(rt, prev, supply)
			}
			prev = supply

			seen := make(map[uint64]bool)
			for _, h := range holders {
				ids, err := c.WalletOfOwner(h)
				require.NoError(rt, err)
				for _, id := range ids {
					if id < 1 || id > supply {
						rt.Fatalf("id %d outside [1, %d]", id, supply)
					}
					if seen[id] {
						rt.Fatalf("id %d owned twice", id)
					}
					seen[id] = true
				}
			}
			require.Len(rt, seen, int(supply))
		}
	})
}

// TestProperty_SettingsCodec checks decode(encode(s)) == s for valid stages.
func TestProperty_SettingsCodec(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := Settings{
			Stage:              Stage(rapid.IntRange(0, 2).Draw(rt, "stage")),
			UnitPrice:          rapid.Uint64().Draw(rt, "price"),
			MaxMintAmountPerTx: rapid.Uint64().Draw(rt, "perTx"),
			MaxMintAmount:      rapid.Uint64().Draw(rt, "max"),
			MaxSupply:          rapid.Uint64().Draw(rt, "supply"),
		}
		got, err := decodeSettings(encodeSettings(s))
		require.NoError(rt, err)
		require.Equal(rt, s, got)
	})
}
