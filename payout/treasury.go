package payout

import (
	"context"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/bsv-blockchain/go-sdk/transaction/template/p2pkh"

	"github.com/bitfsorg/libmint-go/logging"
	"github.com/bitfsorg/libmint-go/network"
	"github.com/bitfsorg/libmint-go/registry"
)

// Treasury pays withdrawals on chain from the P2PKH outputs of one key.
//
// Each Transfer lists the treasury's unspent outputs, spends the largest
// first until amount plus fee is covered, pays the recipient, returns change
// to the treasury and broadcasts the signed transaction.
type Treasury struct {
	key     *ec.PrivateKey
	addr    registry.Address
	chain   network.BlockchainService
	mainnet bool
	feeRate uint64
	memo    []byte
}

// TreasuryOption configures a Treasury.
type TreasuryOption func(*Treasury)

// WithFeeRate sets the fee rate in sat/KB. Zero selects DefaultFeeRate.
func WithFeeRate(rate uint64) TreasuryOption {
	return func(t *Treasury) { t.feeRate = rate }
}

// WithMemo attaches an OP_FALSE OP_RETURN output carrying memo to every
// withdrawal.
func WithMemo(memo []byte) TreasuryOption {
	return func(t *Treasury) { t.memo = append([]byte(nil), memo...) }
}

// NewTreasury returns a Treasury spending the outputs of key.
func NewTreasury(key *ec.PrivateKey, chain network.BlockchainService, mainnet bool, opts ...TreasuryOption) (*Treasury, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: treasury key", ErrNilParam)
	}
	if chain == nil {
		return nil, fmt.Errorf("%w: blockchain service", ErrNilParam)
	}
	t := &Treasury{
		key:     key,
		addr:    registry.AddressFromPublicKey(key.PubKey()),
		chain:   chain,
		mainnet: mainnet,
		feeRate: DefaultFeeRate,
	}
	for _, opt := range opts {
		opt(t)
	}
	if len(t.memo) > MaxMemoLen {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrInvalidMemo, len(t.memo), MaxMemoLen)
	}
	return t, nil
}

// Address returns the treasury's own address.
func (t *Treasury) Address() registry.Address { return t.addr }

// Balance sums the treasury's unspent outputs.
func (t *Treasury) Balance(ctx context.Context) (uint64, error) {
	utxos, err := t.chain.ListUnspent(ctx, t.addr.Encode(t.mainnet))
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, u := range utxos {
		total += u.Amount
	}
	return total, nil
}

// Transfer pays amount to to and returns the broadcast txid.
func (t *Treasury) Transfer(ctx context.Context, to registry.Address, amount uint64) (string, error) {
	if to.IsZero() {
		return "", fmt.Errorf("%w: zero recipient", ErrRecipientRejected)
	}
	if amount < DustLimit {
		return "", fmt.Errorf("%w: %d", ErrDustAmount, amount)
	}

	utxos, err := t.chain.ListUnspent(ctx, t.addr.Encode(t.mainnet))
	if err != nil {
		return "", err
	}
	inputs, fee, change, err := t.selectInputs(utxos, amount)
	if err != nil {
		return "", err
	}

	sdkTx, err := t.build(inputs, to, amount, change)
	if err != nil {
		return "", err
	}
	txid, err := t.chain.BroadcastTx(ctx, sdkTx.Hex())
	if err != nil {
		return "", err
	}
	if txid == "" {
		txid = sdkTx.TxID().String()
	}
	logging.Info(logging.CatPayout, "broadcast", "txid", txid, "to", to.Encode(t.mainnet),
		"amount", amount, "fee", fee, "inputs", len(inputs), "change", change)
	return txid, nil
}

// selectInputs picks outputs largest first until amount and the fee are
// covered. change is zero when the remainder would be dust.
func (t *Treasury) selectInputs(utxos []*network.UTXO, amount uint64) (inputs []*network.UTXO, fee, change uint64, err error) {
	sorted := make([]*network.UTXO, 0, len(utxos))
	for _, u := range utxos {
		if u != nil && u.Amount > 0 {
			sorted = append(sorted, u)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Amount > sorted[j].Amount })

	var total uint64
	for _, u := range sorted {
		inputs = append(inputs, u)
		total += u.Amount

		// Price the change output in; drop it below if it ends up as dust.
		fee = EstimateFee(EstimateTxSize(len(inputs), 2, len(t.memo)), t.feeRate)
		if total < amount+fee {
			continue
		}
		change = total - amount - fee
		if change <= DustLimit {
			fee += change
			change = 0
		}
		return inputs, fee, change, nil
	}
	return nil, 0, 0, fmt.Errorf("%w: have %d, need %d + fee", ErrInsufficientFunds, total, amount)
}

func (t *Treasury) build(inputs []*network.UTXO, to registry.Address, amount, change uint64) (*transaction.Transaction, error) {
	sdkTx := transaction.NewTransaction()

	for i, u := range inputs {
		hash, err := chainhash.NewHashFromHex(u.TxID)
		if err != nil {
			return nil, fmt.Errorf("%w: input %d txid %q: %w", ErrInvalidUTXO, i, u.TxID, err)
		}
		lockBytes, err := hex.DecodeString(u.ScriptPubKey)
		if err != nil || len(lockBytes) == 0 {
			return nil, fmt.Errorf("%w: input %d script", ErrInvalidUTXO, i)
		}
		unlocker, err := p2pkh.Unlock(t.key, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: unlocker for input %d: %w", ErrSigningFailed, i, err)
		}
		sdkTx.AddInput(&transaction.TransactionInput{
			SourceTXID:       hash,
			SourceTxOutIndex: u.Vout,
			SequenceNumber:   transaction.DefaultSequenceNumber,
		})
		sdkTx.Inputs[i].SetSourceTxOutput(&transaction.TransactionOutput{
			Satoshis:      u.Amount,
			LockingScript: script.NewFromBytes(lockBytes),
		})
		sdkTx.Inputs[i].UnlockingScriptTemplate = unlocker
	}

	payTo, err := t.lockTo(to)
	if err != nil {
		return nil, err
	}
	sdkTx.AddOutput(&transaction.TransactionOutput{Satoshis: amount, LockingScript: payTo})

	if len(t.memo) > 0 {
		memoScript, err := buildMemoScript(t.memo)
		if err != nil {
			return nil, err
		}
		sdkTx.AddOutput(&transaction.TransactionOutput{Satoshis: 0, LockingScript: memoScript})
	}

	if change > 0 {
		back, err := t.lockTo(t.addr)
		if err != nil {
			return nil, err
		}
		sdkTx.AddOutput(&transaction.TransactionOutput{Satoshis: change, LockingScript: back})
	}

	if err := sdkTx.Sign(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}
	return sdkTx, nil
}

func (t *Treasury) lockTo(a registry.Address) (*script.Script, error) {
	addr, err := script.NewAddressFromPublicKeyHash(a[:], t.mainnet)
	if err != nil {
		return nil, fmt.Errorf("%w: address from hash: %w", ErrScriptBuild, err)
	}
	s, err := p2pkh.Lock(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: P2PKH lock: %w", ErrScriptBuild, err)
	}
	return s, nil
}

// buildMemoScript creates an OP_FALSE OP_RETURN script carrying memo.
func buildMemoScript(memo []byte) (*script.Script, error) {
	s := &script.Script{}
	*s = append(*s, script.Op0, script.OpRETURN)
	if err := s.AppendPushData(memo); err != nil {
		return nil, fmt.Errorf("%w: OP_RETURN push data: %w", ErrScriptBuild, err)
	}
	return s, nil
}
