/*
Package host provides local execution environment for the fee ledger.

Host plays the role a blockchain plays for fee ledger contract: it keeps
native currency balances, attaches payments to calls, performs transfers and
makes every call atomic. Each call works on its own cached view of the
persistent store which is written back only if the call succeeds, calls are
executed one by one.

Notifications of committed calls are passed to the Publisher if one is set.
*/
package host

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/nspcc-dev/feeledger-contract/ledger"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/crypto/hash"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"go.uber.org/zap"
)

// Publisher delivers notifications of committed ledger calls.
type Publisher interface {
	Publish(ctx context.Context, ns []ledger.Notification) error
}

// Option configures Host.
type Option func(*Host)

// WithLogger sets Host logger, it's also used by the ledger.
func WithLogger(log *zap.Logger) Option {
	return func(h *Host) {
		h.log = log
	}
}

// WithPublisher sets notification publisher.
func WithPublisher(p Publisher) Option {
	return func(h *Host) {
		h.pub = p
	}
}

// Host runs fee ledger calls over the persistent store.
type Host struct {
	mtx    sync.Mutex
	pubMtx sync.Mutex

	store   storage.Store
	account util.Uint160
	log     *zap.Logger
	pub     Publisher
}

// New returns Host working with st. Host takes the ownership of st, it's
// closed by Close.
func New(st storage.Store, opts ...Option) *Host {
	h := &Host{
		store:   st,
		account: hash.Hash160([]byte("feeledger")),
		log:     zap.NewNop(),
	}

	for _, o := range opts {
		o(h)
	}

	return h
}

// LedgerAccount returns the account holding native currency deposited to
// the ledger.
func (h *Host) LedgerAccount() util.Uint160 {
	return h.account
}

// Close closes the underlying store.
func (h *Host) Close() error {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	return h.store.Close()
}

// Deploy initializes the ledger with owner and initial fee.
func (h *Host) Deploy(ctx context.Context, owner util.Uint160, fee *big.Int) error {
	if err := h.checkAccount(owner); err != nil {
		return fmt.Errorf("deploy: %w", err)
	}

	return h.invoke(ctx, "deploy", func(l *ledger.Ledger, _ *book) error {
		return l.Init(owner, fee)
	})
}

// Mint credits native currency to the account.
func (h *Host) Mint(ctx context.Context, to util.Uint160, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("mint amount must be positive: %v", amount)
	}
	if err := h.checkAccount(to); err != nil {
		return fmt.Errorf("mint: %w", err)
	}

	return h.invoke(ctx, "mint", func(_ *ledger.Ledger, b *book) error {
		return b.mint(to, amount)
	})
}

// SetFee calls ledger fee update on behalf of caller.
func (h *Host) SetFee(ctx context.Context, caller util.Uint160, fee *big.Int) error {
	if err := h.checkAccount(caller); err != nil {
		return fmt.Errorf("set fee: %w", err)
	}

	return h.invoke(ctx, "setFee", func(l *ledger.Ledger, _ *book) error {
		return l.SetFee(caller, fee)
	})
}

// Deposit attaches payment from caller's native balance and calls ledger
// deposit for receiver. Payment is returned if the ledger rejects it.
func (h *Host) Deposit(ctx context.Context, caller, receiver util.Uint160, payment *big.Int) error {
	if payment == nil {
		payment = new(big.Int)
	}
	if payment.Sign() < 0 {
		return fmt.Errorf("payment %s: %w", payment, ledger.ErrNegativeAmount)
	}
	if err := h.checkAccount(caller); err != nil {
		return fmt.Errorf("deposit: %w", err)
	}

	return h.invoke(ctx, "deposit", func(l *ledger.Ledger, b *book) error {
		if err := b.move(caller, h.account, payment); err != nil {
			return fmt.Errorf("attach payment: %w", err)
		}

		return l.Deposit(caller, receiver, payment)
	})
}

// Withdraw calls ledger withdrawal on behalf of caller.
func (h *Host) Withdraw(ctx context.Context, caller util.Uint160) error {
	if err := h.checkAccount(caller); err != nil {
		return fmt.Errorf("withdraw: %w", err)
	}

	return h.invoke(ctx, "withdraw", func(l *ledger.Ledger, _ *book) error {
		return l.Withdraw(caller)
	})
}

// Owner returns the ledger owner.
func (h *Host) Owner() (util.Uint160, error) {
	var res util.Uint160
	err := h.view(func(l *ledger.Ledger, _ *book) error {
		var err error
		res, err = l.Owner()
		return err
	})
	return res, err
}

// Fee returns current ledger fee.
func (h *Host) Fee() (*big.Int, error) {
	return h.viewInt(func(l *ledger.Ledger, _ *book) (*big.Int, error) {
		return l.Fee()
	})
}

// CollectedFees returns fees collected by the ledger.
func (h *Host) CollectedFees() (*big.Int, error) {
	return h.viewInt(func(l *ledger.Ledger, _ *book) (*big.Int, error) {
		return l.CollectedFees()
	})
}

// ReserveOf returns the ledger reserve of addr.
func (h *Host) ReserveOf(addr util.Uint160) (*big.Int, error) {
	return h.viewInt(func(l *ledger.Ledger, _ *book) (*big.Int, error) {
		return l.ReserveOf(addr)
	})
}

// Reserves returns all non-zero ledger reserves.
func (h *Host) Reserves() (map[util.Uint160]*big.Int, error) {
	res := make(map[util.Uint160]*big.Int)
	err := h.view(func(l *ledger.Ledger, _ *book) error {
		return l.Reserves(func(r util.Uint160, amount *big.Int) bool {
			res[r] = amount
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// NativeBalance returns native currency balance of the account.
func (h *Host) NativeBalance(acc util.Uint160) (*big.Int, error) {
	return h.viewInt(func(_ *ledger.Ledger, b *book) (*big.Int, error) {
		return b.balanceOf(acc)
	})
}

// checkAccount rejects the ledger account as an external party of a call.
func (h *Host) checkAccount(acc util.Uint160) error {
	if acc.Equals(h.account) {
		return ErrLedgerAccount
	}
	return nil
}

func (h *Host) invoke(ctx context.Context, method string, f func(*ledger.Ledger, *book) error) error {
	h.mtx.Lock()

	var (
		overlay = storage.NewMemCachedStore(h.store)
		b       = &book{st: overlay, ledger: h.account}
		l       = ledger.New(overlay, b, h.log)
	)

	if err := f(l, b); err != nil {
		h.mtx.Unlock()
		h.log.Debug("call failed", zap.String("method", method), zap.Error(err))
		return err
	}

	if _, err := overlay.Persist(); err != nil {
		h.mtx.Unlock()
		return fmt.Errorf("persist %s results: %w", method, err)
	}

	ns := l.Notifications()
	if h.pub == nil || len(ns) == 0 {
		h.mtx.Unlock()
		return nil
	}

	// Publishing is out of the call lock, pubMtx taken before the unlock
	// keeps notifications in commit order.
	h.pubMtx.Lock()
	h.mtx.Unlock()
	defer h.pubMtx.Unlock()

	if err := h.pub.Publish(ctx, ns); err != nil {
		h.log.Warn("can't publish notifications",
			zap.String("method", method), zap.Int("count", len(ns)), zap.Error(err))
	}

	return nil
}

func (h *Host) view(f func(*ledger.Ledger, *book) error) error {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	overlay := storage.NewMemCachedStore(h.store)

	return f(ledger.New(overlay, nil, h.log), &book{st: overlay, ledger: h.account})
}

func (h *Host) viewInt(f func(*ledger.Ledger, *book) (*big.Int, error)) (*big.Int, error) {
	var res *big.Int
	err := h.view(func(l *ledger.Ledger, b *book) error {
		var err error
		res, err = f(l, b)
		return err
	})
	return res, err
}
