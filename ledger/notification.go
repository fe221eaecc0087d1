package ledger

import (
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Notification names, the same as fee ledger contract events.
const (
	DepositNotification      = "Deposit"
	WithdrawNotification     = "Withdraw"
	FeesWithdrawNotification = "FeesWithdraw"
	FeeUpdateNotification    = "FeeUpdate"
)

// Notification describes a state change made by a successful ledger
// operation.
//
//   - Deposit: From paid Amount+Fee, To got Amount in reserve.
//   - Withdraw: To got Amount from its reserve.
//   - FeesWithdraw: To (the owner) got Amount of collected fees.
//   - FeeUpdate: From (the owner) set fee to Amount.
type Notification struct {
	Name   string       `json:"name"`
	From   util.Uint160 `json:"from"`
	To     util.Uint160 `json:"to"`
	Amount *big.Int     `json:"amount"`
	Fee    *big.Int     `json:"fee,omitempty"`
}
