package ledger

import (
	"errors"
	"math/big"
	"math/rand"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	owner    = util.Uint160{0x01}
	address1 = util.Uint160{0x02}
	address2 = util.Uint160{0x03}
	receiver = util.Uint160{0x04}
)

// payouts records transfers made by the ledger.
type payouts struct {
	paid map[util.Uint160]*big.Int
	// number of successful transfers before failure, negative means never fail
	failAfter int
}

func newPayouts() *payouts {
	return &payouts{paid: make(map[util.Uint160]*big.Int), failAfter: -1}
}

func (p *payouts) Transfer(to util.Uint160, amount *big.Int) error {
	if p.failAfter == 0 {
		return errors.New("recipient rejected payment")
	}
	if p.failAfter > 0 {
		p.failAfter--
	}

	cur, ok := p.paid[to]
	if !ok {
		cur = new(big.Int)
		p.paid[to] = cur
	}
	cur.Add(cur, amount)
	return nil
}

func (p *payouts) of(addr util.Uint160) int64 {
	if v, ok := p.paid[addr]; ok {
		return v.Int64()
	}
	return 0
}

func newTestLedger(t *testing.T, fee int64) (*Ledger, *storage.MemCachedStore, *payouts) {
	st := storage.NewMemCachedStore(storage.NewMemoryStore())
	p := newPayouts()
	l := New(st, p, zaptest.NewLogger(t))
	require.NoError(t, l.Init(owner, big.NewInt(fee)))
	return l, st, p
}

func requireInt(t *testing.T, expected int64, actual *big.Int, err error) {
	t.Helper()
	require.NoError(t, err)
	require.Equal(t, 0, big.NewInt(expected).Cmp(actual), "expected %d, got %s", expected, actual)
}

func deposit(t *testing.T, l *Ledger, from, to util.Uint160, amount int64) {
	t.Helper()
	require.NoError(t, l.Deposit(from, to, big.NewInt(amount)))
}

// depositScenario makes the deposits every withdrawal test starts with.
func depositScenario(t *testing.T, l *Ledger) {
	deposit(t, l, address1, receiver, 3)
	deposit(t, l, address2, receiver, 4)
	deposit(t, l, owner, address1, 2)
}

func TestInit(t *testing.T) {
	t.Run("twice", func(t *testing.T) {
		l, _, _ := newTestLedger(t, 1)
		require.ErrorIs(t, l.Init(address1, big.NewInt(2)), ErrAlreadyInitialized)

		o, err := l.Owner()
		require.NoError(t, err)
		require.Equal(t, owner, o)
		fee, err := l.Fee()
		requireInt(t, 1, fee, err)
	})
	t.Run("negative fee", func(t *testing.T) {
		l := New(storage.NewMemCachedStore(storage.NewMemoryStore()), newPayouts(), nil)
		require.ErrorIs(t, l.Init(owner, big.NewInt(-1)), ErrNegativeAmount)

		_, err := l.Owner()
		require.ErrorIs(t, err, ErrNotInitialized)
	})
	t.Run("zero fee", func(t *testing.T) {
		l, st, _ := newTestLedger(t, 0)
		fee, err := l.Fee()
		requireInt(t, 0, fee, err)

		_, err = st.Get([]byte(feeKey))
		require.ErrorIs(t, err, storage.ErrKeyNotFound)
	})
	t.Run("not initialized", func(t *testing.T) {
		l := New(storage.NewMemCachedStore(storage.NewMemoryStore()), newPayouts(), nil)
		require.ErrorIs(t, l.SetFee(owner, big.NewInt(1)), ErrNotInitialized)
		require.ErrorIs(t, l.Deposit(address1, receiver, big.NewInt(10)), ErrNotInitialized)
		require.ErrorIs(t, l.Withdraw(owner), ErrNotInitialized)
	})
}

func TestSetFee(t *testing.T) {
	t.Run("not owner", func(t *testing.T) {
		l, _, _ := newTestLedger(t, 1)

		err := l.SetFee(address1, big.NewInt(2))
		require.ErrorIs(t, err, ErrUnauthorized)
		require.EqualError(t, err, "Endpoint can only be called by owner")

		fee, err := l.Fee()
		requireInt(t, 1, fee, err)
		require.Empty(t, l.Notifications())
	})
	t.Run("negative", func(t *testing.T) {
		l, _, _ := newTestLedger(t, 1)
		require.ErrorIs(t, l.SetFee(owner, big.NewInt(-5)), ErrNegativeAmount)
		require.ErrorIs(t, l.SetFee(owner, nil), ErrNegativeAmount)
	})
	t.Run("affects next deposits", func(t *testing.T) {
		l, _, _ := newTestLedger(t, 1)

		deposit(t, l, address1, receiver, 3)
		require.NoError(t, l.SetFee(owner, big.NewInt(2)))
		deposit(t, l, address2, receiver, 4)
		deposit(t, l, owner, address1, 3)

		v, err := l.CollectedFees()
		requireInt(t, 5, v, err)
		v, err = l.ReserveOf(receiver)
		requireInt(t, 4, v, err)
		v, err = l.ReserveOf(address1)
		requireInt(t, 1, v, err)
		v, err = l.ReserveOf(address2)
		requireInt(t, 0, v, err)
	})
}

func TestDeposit(t *testing.T) {
	t.Run("payment not greater than fee", func(t *testing.T) {
		l, _, _ := newTestLedger(t, 1)

		for _, p := range []*big.Int{nil, big.NewInt(0), big.NewInt(1), big.NewInt(-3)} {
			err := l.Deposit(address1, receiver, p)
			require.ErrorIs(t, err, ErrInsufficientPayment)
			require.EqualError(t, err, "Payments must be greater than fee")
		}

		v, err := l.CollectedFees()
		requireInt(t, 0, v, err)
		v, err = l.ReserveOf(receiver)
		requireInt(t, 0, v, err)
	})
	t.Run("minimal payment", func(t *testing.T) {
		const fee = 7
		l, _, _ := newTestLedger(t, fee)

		deposit(t, l, address1, receiver, fee+1)

		v, err := l.ReserveOf(receiver)
		requireInt(t, 1, v, err)
		v, err = l.CollectedFees()
		requireInt(t, fee, v, err)
	})
	t.Run("zero fee", func(t *testing.T) {
		l, _, _ := newTestLedger(t, 0)

		require.ErrorIs(t, l.Deposit(address1, receiver, big.NewInt(0)), ErrInsufficientPayment)
		deposit(t, l, address1, receiver, 3)

		v, err := l.ReserveOf(receiver)
		requireInt(t, 3, v, err)
		v, err = l.CollectedFees()
		requireInt(t, 0, v, err)
	})
	t.Run("scenario", func(t *testing.T) {
		l, _, _ := newTestLedger(t, 1)
		depositScenario(t, l)

		v, err := l.CollectedFees()
		requireInt(t, 3, v, err)
		v, err = l.ReserveOf(receiver)
		requireInt(t, 5, v, err)
		v, err = l.ReserveOf(address1)
		requireInt(t, 1, v, err)
		v, err = l.ReserveOf(address2)
		requireInt(t, 0, v, err)

		require.Equal(t, []Notification{
			{Name: DepositNotification, From: address1, To: receiver, Amount: big.NewInt(2), Fee: big.NewInt(1)},
			{Name: DepositNotification, From: address2, To: receiver, Amount: big.NewInt(3), Fee: big.NewInt(1)},
			{Name: DepositNotification, From: owner, To: address1, Amount: big.NewInt(1), Fee: big.NewInt(1)},
		}, l.Notifications())
	})
	t.Run("big amounts", func(t *testing.T) {
		l, _, _ := newTestLedger(t, 1)

		huge, ok := new(big.Int).SetString("1000000000000000000000000000000000000000", 10)
		require.True(t, ok)

		require.NoError(t, l.Deposit(address1, receiver, huge))
		require.NoError(t, l.Deposit(address1, receiver, huge))

		v, err := l.ReserveOf(receiver)
		require.NoError(t, err)
		expected := new(big.Int).Mul(huge, big.NewInt(2))
		expected.Sub(expected, big.NewInt(2))
		require.Equal(t, 0, expected.Cmp(v))
	})
}

func TestWithdraw(t *testing.T) {
	t.Run("depositor", func(t *testing.T) {
		l, st, p := newTestLedger(t, 1)
		depositScenario(t, l)

		require.NoError(t, l.Withdraw(address1))
		require.EqualValues(t, 1, p.of(address1))

		v, err := l.ReserveOf(address1)
		requireInt(t, 0, v, err)
		v, err = l.CollectedFees()
		requireInt(t, 3, v, err)

		_, err = st.Get(reserveKey(address1))
		require.ErrorIs(t, err, storage.ErrKeyNotFound)
	})
	t.Run("nothing to claim", func(t *testing.T) {
		l, _, p := newTestLedger(t, 1)
		depositScenario(t, l)

		err := l.Withdraw(address2)
		require.ErrorIs(t, err, ErrNothingToClaim)
		require.EqualError(t, err, "Nothing to claim")
		require.Empty(t, p.paid)

		v, err := l.CollectedFees()
		requireInt(t, 3, v, err)
	})
	t.Run("receiver", func(t *testing.T) {
		l, _, p := newTestLedger(t, 1)
		depositScenario(t, l)

		require.NoError(t, l.Withdraw(receiver))
		require.EqualValues(t, 5, p.of(receiver))

		v, err := l.ReserveOf(receiver)
		requireInt(t, 0, v, err)
		v, err = l.CollectedFees()
		requireInt(t, 3, v, err)
	})
	t.Run("twice", func(t *testing.T) {
		l, _, p := newTestLedger(t, 1)
		depositScenario(t, l)

		require.NoError(t, l.Withdraw(receiver))
		require.ErrorIs(t, l.Withdraw(receiver), ErrNothingToClaim)
		require.EqualValues(t, 5, p.of(receiver))
	})
	t.Run("owner", func(t *testing.T) {
		l, _, p := newTestLedger(t, 1)
		depositScenario(t, l)

		require.NoError(t, l.Withdraw(address1))
		require.NoError(t, l.Withdraw(owner))
		require.EqualValues(t, 3, p.of(owner))

		v, err := l.CollectedFees()
		requireInt(t, 0, v, err)
		v, err = l.ReserveOf(owner)
		requireInt(t, 0, v, err)
	})
	t.Run("owner with reserve", func(t *testing.T) {
		l, _, p := newTestLedger(t, 2)

		deposit(t, l, address1, owner, 10)
		deposit(t, l, address2, receiver, 5)

		n := len(l.Notifications())
		require.NoError(t, l.Withdraw(owner))
		require.EqualValues(t, 8+4, p.of(owner))
		require.Equal(t, []Notification{
			{Name: WithdrawNotification, To: owner, Amount: big.NewInt(8)},
			{Name: FeesWithdrawNotification, To: owner, Amount: big.NewInt(4)},
		}, l.Notifications()[n:])

		v, err := l.CollectedFees()
		requireInt(t, 0, v, err)
		v, err = l.ReserveOf(owner)
		requireInt(t, 0, v, err)
	})
	t.Run("owner with nothing", func(t *testing.T) {
		l, _, p := newTestLedger(t, 1)

		require.NoError(t, l.Withdraw(owner))
		require.NoError(t, l.Withdraw(owner))
		require.Empty(t, p.paid)
		require.Empty(t, l.Notifications())
	})
	t.Run("transfer failure", func(t *testing.T) {
		l, _, p := newTestLedger(t, 1)
		depositScenario(t, l)

		p.failAfter = 0
		require.ErrorIs(t, l.Withdraw(receiver), ErrTransferFailed)

		p.failAfter = 1
		deposit(t, l, address1, owner, 3)
		err := l.Withdraw(owner)
		require.ErrorIs(t, err, ErrTransferFailed)
		require.ErrorContains(t, err, "collected fees")
		require.EqualValues(t, 2, p.of(owner))
	})
}

func TestReserves(t *testing.T) {
	l, _, _ := newTestLedger(t, 1)
	depositScenario(t, l)

	collect := func() map[util.Uint160]int64 {
		res := make(map[util.Uint160]int64)
		require.NoError(t, l.Reserves(func(r util.Uint160, amount *big.Int) bool {
			res[r] = amount.Int64()
			return true
		}))
		return res
	}

	require.Equal(t, map[util.Uint160]int64{receiver: 5, address1: 1}, collect())

	require.NoError(t, l.Withdraw(receiver))
	require.Equal(t, map[util.Uint160]int64{address1: 1}, collect())

	var calls int
	deposit(t, l, address2, address2, 2)
	require.NoError(t, l.Reserves(func(util.Uint160, *big.Int) bool {
		calls++
		return false
	}))
	require.Equal(t, 1, calls)
}

func TestConservation(t *testing.T) {
	const fee = 3

	var (
		l, _, p  = newTestLedger(t, fee)
		accounts = []util.Uint160{owner, address1, address2, receiver}
		rnd      = rand.New(rand.NewSource(42))
		held     = new(big.Int)
	)

	check := func() {
		sum, err := l.CollectedFees()
		require.NoError(t, err)
		require.NoError(t, l.Reserves(func(_ util.Uint160, amount *big.Int) bool {
			require.Positive(t, amount.Sign())
			sum.Add(sum, amount)
			return true
		}))
		require.Equal(t, 0, held.Cmp(sum), "held %s, accounted %s", held, sum)
	}

	for i := 0; i < 500; i++ {
		from := accounts[rnd.Intn(len(accounts))]
		to := accounts[rnd.Intn(len(accounts))]

		switch rnd.Intn(3) {
		case 0, 1:
			payment := big.NewInt(rnd.Int63n(10))
			err := l.Deposit(from, to, payment)
			if payment.Int64() <= fee {
				require.ErrorIs(t, err, ErrInsufficientPayment)
				break
			}
			require.NoError(t, err)
			held.Add(held, payment)
		case 2:
			before := p.of(from)
			err := l.Withdraw(from)
			if errors.Is(err, ErrNothingToClaim) {
				require.NotEqual(t, owner, from)
				break
			}
			require.NoError(t, err)
			held.Sub(held, big.NewInt(p.of(from)-before))
		}
		check()
	}
}
