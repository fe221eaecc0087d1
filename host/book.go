package host

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/encoding/bigint"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

const balancePrefix = "gas"

var (
	// ErrInsufficientFunds is returned when an account can't pay the
	// requested amount of native currency.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrLedgerAccount is returned when the ledger account is used as a
	// caller or a mint recipient. Only the ledger itself moves its funds.
	ErrLedgerAccount = errors.New("ledger account can't be used here")
)

// book keeps native currency balances in the call overlay. It pays ledger
// settlements from the ledger account.
type book struct {
	st     *storage.MemCachedStore
	ledger util.Uint160
}

func balanceKey(acc util.Uint160) []byte {
	return append([]byte(balancePrefix), acc.BytesBE()...)
}

func (b *book) balanceOf(acc util.Uint160) (*big.Int, error) {
	v, err := b.st.Get(balanceKey(acc))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return new(big.Int), nil
		}
		return nil, fmt.Errorf("read balance: %w", err)
	}

	return bigint.FromBytes(v), nil
}

func (b *book) setBalance(acc util.Uint160, v *big.Int) {
	if v.Sign() == 0 {
		b.st.Delete(balanceKey(acc))
		return
	}

	b.st.Put(balanceKey(acc), bigint.ToBytes(v))
}

func (b *book) mint(to util.Uint160, amount *big.Int) error {
	bal, err := b.balanceOf(to)
	if err != nil {
		return err
	}

	b.setBalance(to, bal.Add(bal, amount))
	return nil
}

func (b *book) move(from, to util.Uint160, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}

	fromBal, err := b.balanceOf(from)
	if err != nil {
		return err
	}

	if fromBal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientFunds, from.StringLE(), fromBal, amount)
	}

	b.setBalance(from, fromBal.Sub(fromBal, amount))

	return b.mint(to, amount)
}

// Transfer implements ledger.Transferer.
func (b *book) Transfer(to util.Uint160, amount *big.Int) error {
	return b.move(b.ledger, to, amount)
}
