/*
Package feeledger implements fee ledger contract.

Users deposit GAS to the contract to credit some receiver's reserve. Every
deposit is charged with a fee set by the contract owner (the account that
deployed the contract). Receivers withdraw their reserves whenever they want,
the owner withdraws collected fees along with its own reserve.

Deposit is made by a GAS transfer to the contract, the receiver is passed in
the transfer data. Payment must be greater than the current fee.

# Contract notifications

Deposit notification. This notification is produced when GAS is deposited.
Amount is the credit of the receiver's reserve, fee is the part of the payment
added to collected fees.

	Deposit
	  - name: from
	    type: Hash160
	  - name: to
	    type: Hash160
	  - name: amount
	    type: Integer
	  - name: fee
	    type: Integer

Withdraw notification. This notification is produced when reserve is
transferred back to its holder.

	Withdraw
	  - name: to
	    type: Hash160
	  - name: amount
	    type: Integer

FeesWithdraw notification. This notification is produced when collected fees
are transferred to the owner.

	FeesWithdraw
	  - name: to
	    type: Hash160
	  - name: amount
	    type: Integer

FeeUpdate notification. This notification is produced when the owner changes
the fee.

	FeeUpdate
	  - name: fee
	    type: Integer
*/
package feeledger

/*
Contract storage model.

# Summary
Key-value storage format:
 - 'owner' -> interop.Hash160
   account that deployed the contract
 - 'fee' -> int
   fee charged on deposit, missing means zero
 - 'collectedFees' -> int
   fees not yet withdrawn by the owner, missing means zero
 - 'reserveForAddress' + interop.Hash160 -> int
   reserve of the account, missing means zero

# Reserves
Reserve records are created on the first deposit to the account and deleted
on withdrawal, zero is never stored.
*/
