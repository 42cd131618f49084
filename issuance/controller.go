// Package issuance gates the minting of sequentially numbered assets.
//
// A Controller enforces the sale stage, per-transaction and per-holder
// quotas, the global supply cap, the unit price and the presale allow-list,
// then records ownership in a registry.Registry. Accepted payments
// accumulate in a pool the administrator can withdraw through a Payout.
//
// Every mutating operation runs in a single store.Update: it commits all of
// its writes or, on any error, none of them.
package issuance

import (
	"context"
	"errors"
	"fmt"
	"math/bits"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bitfsorg/libmint-go/logging"
	"github.com/bitfsorg/libmint-go/registry"
	"github.com/bitfsorg/libmint-go/revert"
	"github.com/bitfsorg/libmint-go/store"
	"github.com/bitfsorg/libmint-go/tracing"
)

// Buckets owned by the controller.
var (
	// BucketIssuance holds the deployment record, settings and payment pool.
	BucketIssuance = []byte("issuance")

	// BucketAllowlist maps holder (20 bytes) -> {1}.
	BucketAllowlist = []byte("allowlist")
)

var (
	keyDeployment = []byte("deployment")
	keySettings   = []byte("settings")
	keyPool       = []byte("pool")

	present = []byte{1}
)

// Payout moves withdrawn funds to a recipient and returns a transfer
// reference (a txid for on-chain payouts).
type Payout interface {
	Transfer(ctx context.Context, to registry.Address, amount uint64) (string, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithPayout sets the payout used by Withdraw.
func WithPayout(p Payout) Option {
	return func(c *Controller) { c.payout = p }
}

// WithTracer sets the tracer for span instrumentation. A nil tracer keeps
// the default no-op tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *Controller) {
		if t != nil {
			c.tracer = t
		}
	}
}

// Controller is the issuance state machine over a store.Store.
type Controller struct {
	st     store.Store
	reg    *registry.Registry
	payout Payout
	tracer trace.Tracer
}

// Deploy writes a new deployment into st with default settings and returns
// its controller. admin becomes the only authorized caller.
func Deploy(st store.Store, admin registry.Address, locators registry.Locators, opts ...Option) (*Controller, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: store", ErrNilParam)
	}
	if admin.IsZero() {
		return nil, ErrInvalidAdmin
	}
	rec, err := encodeDeployment(Deployment{Admin: admin, Locators: locators})
	if err != nil {
		return nil, err
	}

	err = st.Update(func(tx store.Tx) error {
		if tx.Get(BucketIssuance, keyDeployment) != nil {
			return ErrAlreadyDeployed
		}
		if err := tx.Put(BucketIssuance, keyDeployment, rec); err != nil {
			return err
		}
		if err := tx.Put(BucketIssuance, keySettings, encodeSettings(DefaultSettings())); err != nil {
			return err
		}
		return tx.Put(BucketIssuance, keyPool, encodeAmount(0))
	})
	if err != nil {
		return nil, err
	}
	logging.Info(logging.CatAdmin, "deployed", "admin", admin, "revealed", locators.Revealed, "hidden", locators.Hidden)
	return newController(st, locators, opts), nil
}

// Open loads the deployment held in st.
func Open(st store.Store, opts ...Option) (*Controller, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: store", ErrNilParam)
	}
	var d Deployment
	err := st.View(func(tx store.Tx) error {
		var err error
		d, err = loadDeployment(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return newController(st, d.Locators, opts), nil
}

func newController(st store.Store, locators registry.Locators, opts []Option) *Controller {
	c := &Controller{
		st:     st,
		reg:    registry.New(st, locators),
		tracer: tracing.Noop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the ownership registry the controller allocates into.
func (c *Controller) Registry() *registry.Registry { return c.reg }

// Mint allocates qty new assets to caller against payment. Checks run in
// order and the first failure wins: quantity bounds, paused, supply cap,
// allow-list (presale only), per-holder cap, price. Overpayment is kept.
func (c *Controller) Mint(ctx context.Context, caller registry.Address, qty, payment uint64) (Minted, error) {
	_, span := c.startSpan(ctx, "mint",
		attribute.String(tracing.AttrCaller, caller.Hex()),
		attribute.Int64(tracing.AttrQuantity, clampInt64(qty)),
		attribute.Int64(tracing.AttrPayment, clampInt64(payment)),
	)
	defer span.End()

	var m Minted
	err := c.st.Update(func(tx store.Tx) error {
		s, err := loadSettings(tx)
		if err != nil {
			return err
		}
		ledger := c.reg.At(tx)

		if qty == 0 || qty > s.MaxMintAmountPerTx {
			return ErrInvalidMintAmount
		}
		if s.Stage == StagePaused {
			return ErrContractPaused
		}
		supply, err := ledger.TotalSupply()
		if err != nil {
			return err
		}
		if exceedsCap(supply, qty, s.MaxSupply) {
			return ErrMaxSupplyExceeded
		}
		if s.Stage == StagePresale && tx.Get(BucketAllowlist, caller[:]) == nil {
			return ErrNotWhitelisted
		}
		held, err := ledger.BalanceOf(caller)
		if err != nil {
			return err
		}
		if exceedsCap(held, qty, s.MaxMintAmount) {
			return ErrExceedsMaxMintAmount
		}
		hi, cost := bits.Mul64(s.UnitPrice, qty)
		if hi != 0 || payment < cost {
			return ErrInsufficientFunds
		}
		if caller.IsZero() {
			return ErrMintToZeroAddress
		}

		if err := c.creditPool(tx, payment); err != nil {
			return err
		}
		first, err := ledger.Allocate(caller, qty)
		if err != nil {
			return err
		}
		m = Minted{Holder: caller, First: first, Quantity: qty, Cost: cost, Paid: payment}
		return nil
	})
	if err != nil {
		c.fail(span, logging.CatMint, "mint", err, "caller", caller, "qty", qty, "payment", payment)
		return Minted{}, err
	}

	span.SetAttributes(attribute.Int64(tracing.AttrFirstID, clampInt64(m.First)))
	span.SetStatus(codes.Ok, "")
	logging.Info(logging.CatMint, "minted", "holder", caller, "first", m.First, "qty", qty, "paid", payment)
	return m, nil
}

// MintForAddress grants qty new assets to recipient without payment. Only
// the administrator may call it. Stage, allow-list, per-holder cap and
// price are not checked; quantity bounds and the supply cap are.
func (c *Controller) MintForAddress(ctx context.Context, caller registry.Address, qty uint64, recipient registry.Address) (Minted, error) {
	_, span := c.startSpan(ctx, "mint_for_address",
		attribute.String(tracing.AttrCaller, caller.Hex()),
		attribute.String(tracing.AttrHolder, recipient.Hex()),
		attribute.Int64(tracing.AttrQuantity, clampInt64(qty)),
	)
	defer span.End()

	var m Minted
	err := c.st.Update(func(tx store.Tx) error {
		if err := c.authorize(tx, caller); err != nil {
			return err
		}
		s, err := loadSettings(tx)
		if err != nil {
			return err
		}
		ledger := c.reg.At(tx)

		if qty == 0 || qty > s.MaxMintAmountPerTx {
			return ErrInvalidMintAmount
		}
		supply, err := ledger.TotalSupply()
		if err != nil {
			return err
		}
		if exceedsCap(supply, qty, s.MaxSupply) {
			return ErrMaxSupplyExceeded
		}
		if recipient.IsZero() {
			return ErrMintToZeroAddress
		}

		first, err := ledger.Allocate(recipient, qty)
		if err != nil {
			return err
		}
		m = Minted{Holder: recipient, First: first, Quantity: qty}
		return nil
	})
	if err != nil {
		c.fail(span, logging.CatAdmin, "mint for address", err, "recipient", recipient, "qty", qty)
		return Minted{}, err
	}

	span.SetAttributes(attribute.Int64(tracing.AttrFirstID, clampInt64(m.First)))
	span.SetStatus(codes.Ok, "")
	logging.Info(logging.CatAdmin, "minted for address", "holder", recipient, "first", m.First, "qty", qty)
	return m, nil
}

// SetStage changes the sale stage. Any stage may follow any other.
func (c *Controller) SetStage(ctx context.Context, caller registry.Address, stage Stage) error {
	if !stage.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidStage, uint8(stage))
	}
	return c.updateSettings(ctx, caller, "set_stage", func(s *Settings) { s.Stage = stage }, "stage", stage)
}

// SetCost changes the unit price in satoshis.
func (c *Controller) SetCost(ctx context.Context, caller registry.Address, price uint64) error {
	return c.updateSettings(ctx, caller, "set_cost", func(s *Settings) { s.UnitPrice = price }, "price", price)
}

// SetMaxMintAmountPerTx changes the per-call quantity cap.
func (c *Controller) SetMaxMintAmountPerTx(ctx context.Context, caller registry.Address, n uint64) error {
	return c.updateSettings(ctx, caller, "set_max_mint_amount_per_tx", func(s *Settings) { s.MaxMintAmountPerTx = n }, "per_tx", n)
}

// SetMaxMintAmount changes the lifetime per-holder cap. Holders already
// above a lowered cap keep their assets.
func (c *Controller) SetMaxMintAmount(ctx context.Context, caller registry.Address, n uint64) error {
	return c.updateSettings(ctx, caller, "set_max_mint_amount", func(s *Settings) { s.MaxMintAmount = n }, "max", n)
}

// SetMaxSupply changes the global supply cap. A cap below the current
// supply blocks further minting.
func (c *Controller) SetMaxSupply(ctx context.Context, caller registry.Address, n uint64) error {
	return c.updateSettings(ctx, caller, "set_max_supply", func(s *Settings) { s.MaxSupply = n }, "supply", n)
}

func (c *Controller) updateSettings(ctx context.Context, caller registry.Address, op string, apply func(*Settings), fields ...any) error {
	_, span := c.startSpan(ctx, op, attribute.String(tracing.AttrCaller, caller.Hex()))
	defer span.End()

	err := c.st.Update(func(tx store.Tx) error {
		if err := c.authorize(tx, caller); err != nil {
			return err
		}
		s, err := loadSettings(tx)
		if err != nil {
			return err
		}
		apply(&s)
		return tx.Put(BucketIssuance, keySettings, encodeSettings(s))
	})
	if err != nil {
		c.fail(span, logging.CatAdmin, op, err, fields...)
		return err
	}
	span.SetStatus(codes.Ok, "")
	logging.Info(logging.CatAdmin, op, fields...)
	return nil
}

// AddToWhitelist adds holders to the presale allow-list. Adding a member
// again is a no-op. There is no removal.
func (c *Controller) AddToWhitelist(ctx context.Context, caller registry.Address, holders ...registry.Address) error {
	_, span := c.startSpan(ctx, "add_to_whitelist", attribute.String(tracing.AttrCaller, caller.Hex()))
	defer span.End()

	err := c.st.Update(func(tx store.Tx) error {
		if err := c.authorize(tx, caller); err != nil {
			return err
		}
		for _, h := range holders {
			if err := tx.Put(BucketAllowlist, h[:], present); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.fail(span, logging.CatAdmin, "add to whitelist", err, "count", len(holders))
		return err
	}
	span.SetStatus(codes.Ok, "")
	logging.Info(logging.CatAdmin, "whitelisted", "count", len(holders))
	return nil
}

// SetRevealed switches metadata locators between the hidden and revealed
// bases for every asset.
func (c *Controller) SetRevealed(ctx context.Context, caller registry.Address, revealed bool) error {
	_, span := c.startSpan(ctx, "set_revealed", attribute.String(tracing.AttrCaller, caller.Hex()))
	defer span.End()

	err := c.st.Update(func(tx store.Tx) error {
		if err := c.authorize(tx, caller); err != nil {
			return err
		}
		return c.reg.At(tx).SetRevealed(revealed)
	})
	if err != nil {
		c.fail(span, logging.CatAdmin, "set revealed", err, "revealed", revealed)
		return err
	}
	span.SetStatus(codes.Ok, "")
	logging.Info(logging.CatAdmin, "set revealed", "revealed", revealed)
	return nil
}

// Withdraw transfers the whole payment pool to recipient and returns the
// amount sent. An empty pool sends nothing. If the payout fails the pool is
// left untouched and the error wraps ErrTransferFailed.
func (c *Controller) Withdraw(ctx context.Context, caller, recipient registry.Address) (uint64, error) {
	ctx, span := c.startSpan(ctx, "withdraw",
		attribute.String(tracing.AttrCaller, caller.Hex()),
		attribute.String(tracing.AttrHolder, recipient.Hex()),
	)
	defer span.End()

	var (
		amount uint64
		ref    string
	)
	err := c.st.Update(func(tx store.Tx) error {
		if err := c.authorize(tx, caller); err != nil {
			return err
		}
		pool, err := decodeAmount(tx.Get(BucketIssuance, keyPool))
		if err != nil {
			return err
		}
		if pool == 0 {
			return nil
		}
		if c.payout == nil {
			return ErrNoPayout
		}
		if err := tx.Put(BucketIssuance, keyPool, encodeAmount(0)); err != nil {
			return err
		}
		// Nothing may fail after the transfer.
		if recipient.IsZero() {
			return fmt.Errorf("%w: zero recipient", ErrTransferFailed)
		}
		ref, err = c.payout.Transfer(ctx, recipient, pool)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrTransferFailed, err)
		}
		amount = pool
		return nil
	})
	if err != nil {
		c.fail(span, logging.CatPayout, "withdraw", err, "recipient", recipient)
		return 0, err
	}

	span.SetAttributes(attribute.Int64(tracing.AttrAmount, clampInt64(amount)), attribute.String(tracing.AttrTxID, ref))
	span.SetStatus(codes.Ok, "")
	if amount > 0 {
		logging.Info(logging.CatPayout, "withdrew", "recipient", recipient, "amount", amount, "ref", ref)
	}
	return amount, nil
}

// TransferAdmin hands administration to newAdmin.
func (c *Controller) TransferAdmin(ctx context.Context, caller, newAdmin registry.Address) error {
	_, span := c.startSpan(ctx, "transfer_admin",
		attribute.String(tracing.AttrCaller, caller.Hex()),
		attribute.String(tracing.AttrHolder, newAdmin.Hex()),
	)
	defer span.End()

	err := c.st.Update(func(tx store.Tx) error {
		if err := c.authorize(tx, caller); err != nil {
			return err
		}
		if newAdmin.IsZero() {
			return ErrInvalidAdmin
		}
		d, err := loadDeployment(tx)
		if err != nil {
			return err
		}
		d.Admin = newAdmin
		rec, err := encodeDeployment(d)
		if err != nil {
			return err
		}
		return tx.Put(BucketIssuance, keyDeployment, rec)
	})
	if err != nil {
		c.fail(span, logging.CatAdmin, "transfer admin", err, "new_admin", newAdmin)
		return err
	}
	span.SetStatus(codes.Ok, "")
	logging.Info(logging.CatAdmin, "admin transferred", "from", caller, "to", newAdmin)
	return nil
}

// Queries. Each reads a consistent snapshot.

// Settings returns the current quota configuration.
func (c *Controller) Settings() (s Settings, err error) {
	err = c.st.View(func(tx store.Tx) error {
		s, err = loadSettings(tx)
		return err
	})
	return s, err
}

// Stage returns the current sale stage.
func (c *Controller) Stage() (Stage, error) {
	s, err := c.Settings()
	return s.Stage, err
}

// Paused reports whether the stage is StagePaused.
func (c *Controller) Paused() (bool, error) {
	stage, err := c.Stage()
	return stage == StagePaused, err
}

// IsWhitelisted reports allow-list membership.
func (c *Controller) IsWhitelisted(holder registry.Address) (ok bool, err error) {
	err = c.st.View(func(tx store.Tx) error {
		ok = tx.Get(BucketAllowlist, holder[:]) != nil
		return nil
	})
	return ok, err
}

// PoolBalance returns the withdrawable payment total.
func (c *Controller) PoolBalance() (n uint64, err error) {
	err = c.st.View(func(tx store.Tx) error {
		n, err = decodeAmount(tx.Get(BucketIssuance, keyPool))
		return err
	})
	return n, err
}

// Admin returns the current administrator.
func (c *Controller) Admin() (registry.Address, error) {
	d, err := c.Deployment()
	return d.Admin, err
}

// Deployment returns the stored deployment record.
func (c *Controller) Deployment() (d Deployment, err error) {
	err = c.st.View(func(tx store.Tx) error {
		d, err = loadDeployment(tx)
		return err
	})
	return d, err
}

// IsAuthorized reports whether caller may run privileged operations.
func (c *Controller) IsAuthorized(caller registry.Address) (ok bool, err error) {
	err = c.st.View(func(tx store.Tx) error {
		a, err := authorizer(tx)
		if err != nil {
			return err
		}
		ok = a.IsAuthorized(caller)
		return nil
	})
	return ok, err
}

// TotalSupply returns the number of issued assets.
func (c *Controller) TotalSupply() (uint64, error) { return c.reg.TotalSupply() }

// WalletOfOwner returns the identifiers held by holder in allocation order.
func (c *Controller) WalletOfOwner(holder registry.Address) ([]uint64, error) {
	return c.reg.OwnedBy(holder)
}

// TokenURI returns the metadata locator of id.
func (c *Controller) TokenURI(id uint64) (string, error) { return c.reg.MetadataLocatorFor(id) }

// Revealed reports the global reveal flag.
func (c *Controller) Revealed() (bool, error) { return c.reg.Revealed() }

func (c *Controller) authorize(tx store.Tx, caller registry.Address) error {
	a, err := authorizer(tx)
	if err != nil {
		return err
	}
	if !a.IsAuthorized(caller) {
		return ErrUnauthorized
	}
	return nil
}

func authorizer(tx store.Tx) (Authorizer, error) {
	d, err := loadDeployment(tx)
	if err != nil {
		return nil, err
	}
	return Owner(d.Admin), nil
}

func (c *Controller) creditPool(tx store.Tx, amount uint64) error {
	pool, err := decodeAmount(tx.Get(BucketIssuance, keyPool))
	if err != nil {
		return err
	}
	sum, carry := bits.Add64(pool, amount, 0)
	if carry != 0 {
		return fmt.Errorf("%w: pool %d + %d", ErrPoolOverflow, pool, amount)
	}
	return tx.Put(BucketIssuance, keyPool, encodeAmount(sum))
}

func loadDeployment(tx store.Tx) (Deployment, error) {
	raw := tx.Get(BucketIssuance, keyDeployment)
	if raw == nil {
		return Deployment{}, ErrNotDeployed
	}
	return decodeDeployment(raw)
}

func loadSettings(tx store.Tx) (Settings, error) {
	raw := tx.Get(BucketIssuance, keySettings)
	if raw == nil {
		return Settings{}, ErrNotDeployed
	}
	return decodeSettings(raw)
}

// exceedsCap reports whether current+qty > limit without overflowing.
func exceedsCap(current, qty, limit uint64) bool {
	return current > limit || qty > limit-current
}

func clampInt64(n uint64) int64 {
	if n > 1<<63-1 {
		return 1<<63 - 1
	}
	return int64(n)
}

func (c *Controller) startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := c.tracer.Start(ctx, tracing.SpanPrefix+op, trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(append(attrs, attribute.String(tracing.AttrOp, op))...)
	return ctx, span
}

// fail records err on span and logs it. Rejections log at debug; anything
// else is an infrastructure failure and logs at error.
func (c *Controller) fail(span trace.Span, cat logging.Category, op string, err error, fields ...any) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if reason, ok := revert.Reason(err); ok {
		span.SetAttributes(attribute.String(tracing.AttrReason, reason))
		logging.Debug(cat, op+" rejected", append(fields, "reason", reason)...)
		return
	}
	if errors.Is(err, ErrNotDeployed) {
		logging.Warn(cat, op+" on empty store", fields...)
		return
	}
	logging.ErrorErr(cat, op+" failed", err, fields...)
}
