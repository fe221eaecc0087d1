package ledger

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/encoding/bigint"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"go.uber.org/zap"
)

// Transferer pays native currency out of the ledger.
type Transferer interface {
	// Transfer sends amount to the recipient. Amount is always positive.
	Transfer(to util.Uint160, amount *big.Int) error
}

// Ledger is a fee ledger bound to some state and transfer primitive for the
// duration of a call. It is not safe for concurrent use.
type Ledger struct {
	st   Store
	xfer Transferer
	log  *zap.Logger

	notifications []Notification
}

// New returns Ledger working with st and paying out through xfer. Nil logger
// disables logging.
func New(st Store, xfer Transferer, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}

	return &Ledger{
		st:   st,
		xfer: xfer,
		log:  log,
	}
}

// Notifications returns notifications produced by successful operations
// of l.
func (l *Ledger) Notifications() []Notification {
	return l.notifications
}

// Init sets the ledger owner and the initial fee.
func (l *Ledger) Init(owner util.Uint160, fee *big.Int) error {
	_, err := l.Owner()
	if err == nil {
		return ErrAlreadyInitialized
	}
	if !errors.Is(err, ErrNotInitialized) {
		return err
	}

	if fee == nil {
		fee = new(big.Int)
	}
	if fee.Sign() < 0 {
		return fmt.Errorf("initial fee %s: %w", fee, ErrNegativeAmount)
	}

	l.st.Put([]byte(ownerKey), owner.BytesBE())
	putInt(l.st, []byte(feeKey), fee)

	l.log.Info("ledger initialized", zap.Stringer("owner", owner), zap.Stringer("fee", fee))

	return nil
}

// Owner returns the ledger owner.
func (l *Ledger) Owner() (util.Uint160, error) {
	v, err := l.st.Get([]byte(ownerKey))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return util.Uint160{}, ErrNotInitialized
		}
		return util.Uint160{}, fmt.Errorf("read owner: %w", err)
	}

	owner, err := util.Uint160DecodeBytesBE(v)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("decode owner: %w", err)
	}

	return owner, nil
}

// Fee returns current deposit fee.
func (l *Ledger) Fee() (*big.Int, error) {
	return getInt(l.st, []byte(feeKey))
}

// CollectedFees returns fees collected since the last owner withdrawal.
func (l *Ledger) CollectedFees() (*big.Int, error) {
	return getInt(l.st, []byte(collectedFeesKey))
}

// ReserveOf returns the amount addr can withdraw. It is zero for unknown
// addresses.
func (l *Ledger) ReserveOf(addr util.Uint160) (*big.Int, error) {
	return getInt(l.st, reserveKey(addr))
}

// Reserves calls f for every non-zero reserve until f returns false.
func (l *Ledger) Reserves(f func(receiver util.Uint160, amount *big.Int) bool) error {
	var (
		prefix = []byte(reservePrefix)
		err    error
	)

	l.st.Seek(storage.SeekRange{Prefix: prefix}, func(k, v []byte) bool {
		if len(k) == len(prefix)+util.Uint160Size {
			k = k[len(prefix):]
		}

		receiver, decErr := util.Uint160DecodeBytesBE(k)
		if decErr != nil {
			err = fmt.Errorf("invalid reserve key %x: %w", k, decErr)
			return false
		}

		return f(receiver, bigint.FromBytes(v))
	})

	return err
}

// SetFee changes the fee charged on subsequent deposits. Only the owner can
// call it.
func (l *Ledger) SetFee(caller util.Uint160, fee *big.Int) error {
	owner, err := l.Owner()
	if err != nil {
		return err
	}

	if !caller.Equals(owner) {
		return ErrUnauthorized
	}

	if fee == nil || fee.Sign() < 0 {
		return fmt.Errorf("fee %v: %w", fee, ErrNegativeAmount)
	}

	putInt(l.st, []byte(feeKey), fee)

	l.notify(Notification{
		Name:   FeeUpdateNotification,
		From:   caller,
		Amount: new(big.Int).Set(fee),
	})
	l.log.Info("fee updated", zap.Stringer("fee", fee))

	return nil
}

// Deposit splits payment made by caller into the current fee, which goes to
// collected fees, and the rest, which goes to the receiver's reserve.
// Payment must be greater than the fee.
func (l *Ledger) Deposit(caller, receiver util.Uint160, payment *big.Int) error {
	if _, err := l.Owner(); err != nil {
		return err
	}

	fee, err := l.Fee()
	if err != nil {
		return fmt.Errorf("read fee: %w", err)
	}

	if payment == nil || payment.Cmp(fee) <= 0 {
		return ErrInsufficientPayment
	}

	collected, err := l.CollectedFees()
	if err != nil {
		return fmt.Errorf("read collected fees: %w", err)
	}

	rKey := reserveKey(receiver)

	reserve, err := getInt(l.st, rKey)
	if err != nil {
		return fmt.Errorf("read reserve: %w", err)
	}

	credit := new(big.Int).Sub(payment, fee)

	putInt(l.st, []byte(collectedFeesKey), collected.Add(collected, fee))
	putInt(l.st, rKey, reserve.Add(reserve, credit))

	l.notify(Notification{
		Name:   DepositNotification,
		From:   caller,
		To:     receiver,
		Amount: credit,
		Fee:    fee,
	})
	l.log.Debug("deposit accepted",
		zap.Stringer("from", caller), zap.Stringer("to", receiver),
		zap.Stringer("credit", credit), zap.Stringer("fee", fee))

	return nil
}

// Withdraw pays out the caller's reserve. For the owner it also pays out
// collected fees as a separate transfer, owner can withdraw without any
// reserve. Reserve is cleared before it's transferred.
func (l *Ledger) Withdraw(caller util.Uint160) error {
	owner, err := l.Owner()
	if err != nil {
		return err
	}

	isOwner := caller.Equals(owner)
	rKey := reserveKey(caller)

	reserve, err := getInt(l.st, rKey)
	if err != nil {
		return fmt.Errorf("read reserve: %w", err)
	}

	if !isOwner && reserve.Sign() == 0 {
		return ErrNothingToClaim
	}

	l.st.Delete(rKey)

	if err := l.settle(caller, reserve); err != nil {
		return fmt.Errorf("reserve: %w", err)
	}

	if reserve.Sign() > 0 {
		l.notify(Notification{
			Name:   WithdrawNotification,
			To:     caller,
			Amount: reserve,
		})
		l.log.Debug("reserve withdrawn", zap.Stringer("to", caller), zap.Stringer("amount", reserve))
	}

	if !isOwner {
		return nil
	}

	fees, err := l.CollectedFees()
	if err != nil {
		return fmt.Errorf("read collected fees: %w", err)
	}

	l.st.Delete([]byte(collectedFeesKey))

	if err := l.settle(caller, fees); err != nil {
		return fmt.Errorf("collected fees: %w", err)
	}

	if fees.Sign() > 0 {
		l.notify(Notification{
			Name:   FeesWithdrawNotification,
			To:     caller,
			Amount: fees,
		})
		l.log.Debug("collected fees withdrawn", zap.Stringer("amount", fees))
	}

	return nil
}

func (l *Ledger) settle(to util.Uint160, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}

	if err := l.xfer.Transfer(to, amount); err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	return nil
}

func (l *Ledger) notify(n Notification) {
	l.notifications = append(l.notifications, n)
}
