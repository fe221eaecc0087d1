package feeledger

import (
	"github.com/nspcc-dev/feeledger-contract/common"
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/iterator"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/gas"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
)

const (
	ownerKey         = "owner"
	feeKey           = "fee"
	collectedFeesKey = "collectedFees"
	reservePrefix    = "reserveForAddress"

	// ErrInsufficientPayment is thrown when deposit doesn't exceed current fee.
	ErrInsufficientPayment = "Payments must be greater than fee"
	// ErrNothingToClaim is thrown when non-owner withdraws without reserve.
	ErrNothingToClaim = "Nothing to claim"
)

// _deploy sets fee and makes transaction sender the owner of the contract.
// nolint:deadcode,unused
func _deploy(data any, isUpdate bool) {
	if isUpdate {
		args := data.([]any)
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	args := data.(struct {
		fee int
	})

	if args.fee < 0 {
		panic("negative fee")
	}

	ctx := storage.GetContext()
	tx := runtime.GetScriptContainer()

	storage.Put(ctx, ownerKey, tx.Sender)
	common.PutInt(ctx, feeKey, args.fee)

	runtime.Log("feeledger contract initialized")
}

// Update method updates contract source code and manifest. It can be invoked
// only by the contract owner.
func Update(nefFile, manifest []byte, data any) {
	common.CheckOwnerWitness(getOwner(storage.GetReadOnlyContext()))

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, nefFile, manifest, common.AppendVersion(data))
	runtime.Log("feeledger contract updated")
}

// SetFee changes the fee charged on every subsequent deposit. It can be
// invoked only by the contract owner.
//
// Produces FeeUpdate notification.
func SetFee(fee int) {
	ctx := storage.GetContext()

	common.CheckOwnerWitness(getOwner(ctx))

	if fee < 0 {
		panic("negative fee")
	}

	common.PutInt(ctx, feeKey, fee)
	runtime.Notify("FeeUpdate", fee)
}

// OnNEP17Payment is a callback for NEP-17 compatible native GAS contract, it
// makes a deposit. Data is the receiver of the deposit, payer receives it if
// data is empty. Amount must be greater than the current fee: the fee is added
// to collected fees and the rest is added to the receiver's reserve.
//
// Produces Deposit notification.
func OnNEP17Payment(from interop.Hash160, amount int, data any) {
	caller := runtime.GetCallingScriptHash()
	if !caller.Equals(gas.Hash) {
		panic("only GAS can be accepted for deposit")
	}

	rcv := from
	if data != nil {
		d := data.(interop.Hash160)
		switch len(d) {
		case interop.Hash160Len:
			rcv = d
		case 0:
		default:
			panic("invalid data argument, expected Hash160")
		}
	}

	if len(rcv) != interop.Hash160Len {
		panic("unknown deposit receiver")
	}

	ctx := storage.GetContext()

	fee := common.GetInt(ctx, feeKey)
	if amount <= fee {
		panic(ErrInsufficientPayment)
	}

	credit := amount - fee
	key := append([]byte(reservePrefix), rcv...)

	common.PutInt(ctx, collectedFeesKey, common.GetInt(ctx, collectedFeesKey)+fee)
	common.PutInt(ctx, key, common.GetInt(ctx, key)+credit)

	runtime.Notify("Deposit", from, rcv, credit, fee)
}

// Withdraw transfers the whole reserve of the user back to it. If user is the
// contract owner, collected fees are transferred too, as a separate transfer.
// Owner can withdraw having no reserve, other users can not. Transaction must
// be witnessed by the user.
//
// Produces Withdraw and FeesWithdraw notifications.
func Withdraw(user interop.Hash160) {
	common.CheckWitness(user)

	var (
		ctx     = storage.GetContext()
		isOwner = user.Equals(getOwner(ctx))
		self    = runtime.GetExecutingScriptHash()
		key     = append([]byte(reservePrefix), user...)
		reserve = common.GetInt(ctx, key)
	)

	if !isOwner && reserve == 0 {
		panic(ErrNothingToClaim)
	}

	// clean up before the transfer, receiver may call us back
	storage.Delete(ctx, key)

	if reserve > 0 {
		if !gas.Transfer(self, user, reserve, nil) {
			panic("failed to transfer reserve, aborting")
		}

		runtime.Notify("Withdraw", user, reserve)
	}

	if !isOwner {
		return
	}

	fees := common.GetInt(ctx, collectedFeesKey)
	storage.Delete(ctx, collectedFeesKey)

	if fees > 0 {
		if !gas.Transfer(self, user, fees, nil) {
			panic("failed to transfer collected fees, aborting")
		}

		runtime.Notify("FeesWithdraw", user, fees)
	}
}

// Fee returns the fee charged on deposits.
func Fee() int {
	return common.GetInt(storage.GetReadOnlyContext(), feeKey)
}

// CollectedFees returns fees collected since the last owner withdrawal.
func CollectedFees() int {
	return common.GetInt(storage.GetReadOnlyContext(), collectedFeesKey)
}

// ReserveOf returns the amount of GAS the account can withdraw.
func ReserveOf(account interop.Hash160) int {
	if len(account) != interop.Hash160Len {
		panic("invalid account")
	}

	return common.GetInt(storage.GetReadOnlyContext(), append([]byte(reservePrefix), account...))
}

// Owner returns the contract owner.
func Owner() interop.Hash160 {
	return getOwner(storage.GetReadOnlyContext())
}

// IterateReserves returns iterator over all non-zero reserves. Iteration is
// through key-value pairs, where key is the account and value is its reserve.
func IterateReserves() iterator.Iterator {
	return storage.Find(storage.GetReadOnlyContext(), []byte(reservePrefix), storage.RemovePrefix)
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

func getOwner(ctx storage.Context) interop.Hash160 {
	return storage.Get(ctx, ownerKey).(interop.Hash160)
}
