package feeledger

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/gas"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/nep17"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// Depositor makes deposits to FeeLedger contract. Deposit is a GAS transfer
// to the contract with the receiver passed as transfer data.
type Depositor struct {
	gas  *nep17.Token
	hash util.Uint160
}

// NewDepositor creates Depositor for the contract with the given hash.
func NewDepositor(actor nep17.Actor, hash util.Uint160) *Depositor {
	return &Depositor{gas: gas.New(actor), hash: hash}
}

// Deposit transfers amount of GAS from the account to the contract, the
// amount minus current fee is credited to the receiver. The transaction is
// signed and sent to the network.
func (d *Depositor) Deposit(from, receiver util.Uint160, amount *big.Int) (util.Uint256, uint32, error) {
	return d.gas.Transfer(from, d.hash, amount, receiver)
}

// DepositTransaction is similar to Deposit, but returns signed transaction
// without sending it.
func (d *Depositor) DepositTransaction(from, receiver util.Uint160, amount *big.Int) (*transaction.Transaction, error) {
	return d.gas.TransferTransaction(from, d.hash, amount, receiver)
}

// DepositUnsigned is similar to Deposit, but returns unsigned transaction.
func (d *Depositor) DepositUnsigned(from, receiver util.Uint160, amount *big.Int) (*transaction.Transaction, error) {
	return d.gas.TransferUnsigned(from, d.hash, amount, receiver)
}

// ParseReserves converts key-value pairs returned by the `iterateReserves`
// iterator to the reserve map.
func ParseReserves(items []stackitem.Item) (map[util.Uint160]*big.Int, error) {
	res := make(map[util.Uint160]*big.Int, len(items))

	for i := range items {
		kv, ok := items[i].Value().([]stackitem.Item)
		if !ok || len(kv) != 2 {
			return nil, errors.New("invalid key-value pair")
		}

		acc, err := itemToUint160(kv[0])
		if err != nil {
			return nil, fmt.Errorf("reserve #%d account: %w", i, err)
		}

		amount, err := kv[1].TryInteger()
		if err != nil {
			return nil, fmt.Errorf("reserve #%d amount: %w", i, err)
		}

		res[acc] = amount
	}

	return res, nil
}
